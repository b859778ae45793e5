package services

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dooring/database"
	"dooring/models"
	"dooring/utils"
)

// 测试用的固定身份ID
const (
	testCreatorID = uint(11)
	testSellerID  = uint(77)
)

// setupTestDB 创建内存数据库并注入为全局连接
// 每个测试拿到独立的数据库，互不干扰
// 连接池限制为单连接，保证内存库在并发测试下行为确定
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取底层数据库连接失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.Store{},
		&models.Product{},
		&models.Campaign{},
		&models.Link{},
		&models.Click{},
		&models.AttributionSession{},
		&models.OrderWebhookEvent{},
		&models.PixelEvent{},
		&models.Order{},
		&models.Attribution{},
		&models.CommissionLedger{},
	); err != nil {
		t.Fatalf("测试数据库迁移失败: %v", err)
	}

	database.SetDB(db)
	return db
}

// testFixture 基础测试数据：店铺、商品、固定佣金3000的活动、推广链接
type testFixture struct {
	store    models.Store
	product  models.Product
	campaign models.Campaign
	link     models.Link
}

// seedCatalog 写入基础测试数据
// 活动条款：每单固定佣金3000，活跃期覆盖now前后
func seedCatalog(t *testing.T, db *gorm.DB, now time.Time) *testFixture {
	t.Helper()
	fx := &testFixture{}

	fx.store = models.Store{
		SellerID:        testSellerID,
		PlatformID:      1,
		ExternalStoreID: "store-ext-1",
		Name:            "Test Store",
		IsActive:        true,
	}
	if err := db.Create(&fx.store).Error; err != nil {
		t.Fatalf("写入店铺失败: %v", err)
	}

	fx.product = models.Product{
		StoreID:           fx.store.ID,
		ExternalProductID: "prod-ext-100",
		Name:              "Test Product",
		ProductURL:        "https://shop.example.com/products/100",
		Price:             50000,
		IsActive:          true,
	}
	if err := db.Create(&fx.product).Error; err != nil {
		t.Fatalf("写入商品失败: %v", err)
	}

	fx.campaign = models.Campaign{
		ProductID:        fx.product.ID,
		SellerID:         testSellerID,
		CommissionAmount: 3000,
		MinCommission:    3000,
		StartsAt:         now.Add(-48 * time.Hour),
		EndsAt:           now.Add(72 * time.Hour),
		IsActive:         true,
	}
	if err := db.Create(&fx.campaign).Error; err != nil {
		t.Fatalf("写入活动失败: %v", err)
	}

	fx.link = models.Link{
		CreatorID: testCreatorID,
		ProductID: fx.product.ID,
		ShortCode: utils.GenerateShortCode(),
	}
	if err := db.Create(&fx.link).Error; err != nil {
		t.Fatalf("写入推广链接失败: %v", err)
	}

	return fx
}

// seedClick 在指定时间写入一次点击和对应的归因会话
// 点击携带活动的佣金条款快照，会话窗口为点击后24小时
func seedClick(t *testing.T, db *gorm.DB, fx *testFixture, clickedAt time.Time) (models.Click, models.AttributionSession) {
	t.Helper()

	amount := fx.campaign.CommissionAmount
	click := models.Click{
		LinkID:                   fx.link.ID,
		CampaignID:               &fx.campaign.ID,
		CommissionSnapshotAmount: &amount,
		ClickToken:               utils.GenerateClickToken(),
		IPAddress:                "203.0.113.10",
		ClickedAt:                clickedAt,
	}
	if err := db.Create(&click).Error; err != nil {
		t.Fatalf("写入点击失败: %v", err)
	}

	session := models.AttributionSession{
		SessionToken: utils.GenerateSessionToken(),
		ClickID:      click.ID,
		ExpiresAt:    clickedAt.Add(AttributionWindow),
	}
	if err := db.Create(&session).Error; err != nil {
		t.Fatalf("写入归因会话失败: %v", err)
	}

	return click, session
}

// seedOrder 写入订单投影
func seedOrder(t *testing.T, db *gorm.DB, storeID uint, externalOrderID string, amount float64, orderedAt time.Time) models.Order {
	t.Helper()

	order := models.Order{
		StoreID:         storeID,
		ExternalOrderID: externalOrderID,
		Status:          models.OrderStatusCreated,
		TotalAmount:     amount,
		OrderedAt:       &orderedAt,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("写入订单失败: %v", err)
	}
	return order
}
