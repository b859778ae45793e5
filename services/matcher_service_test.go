package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"dooring/models"
	"dooring/utils"
)

// 构造指向指定会话的转化信号
func signalWithToken(fx *testFixture, orderID string, token string, amount float64, orderTime time.Time) ConversionSignal {
	return ConversionSignal{
		Source:          SignalSourceWebhook,
		StoreID:         fx.store.ID,
		ExternalOrderID: orderID,
		SessionToken:    token,
		ProductID:       fx.product.ID,
		OrderAmount:     amount,
		OrderTime:       orderTime,
	}
}

func TestMatchConversionWithValidSession(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()
	fx := seedCatalog(t, db, now)
	click, session := seedClick(t, db, fx, now.Add(-time.Hour))
	order := seedOrder(t, db, fx.store.ID, "order-1", 50000, now)

	attribution, err := MatchConversion(order.ID, signalWithToken(fx, "order-1", session.SessionToken, 50000, now))
	if err != nil {
		t.Fatalf("归因失败: %v", err)
	}
	if attribution == nil {
		t.Fatal("应当创建归因")
	}
	if attribution.ClickID != click.ID {
		t.Errorf("归因点击错误: got=%d want=%d", attribution.ClickID, click.ID)
	}

	// 佣金原账与归因一起创建，金额取自点击快照
	var ledger models.CommissionLedger
	if err := db.Where("attribution_id = ?", attribution.ID).First(&ledger).Error; err != nil {
		t.Fatalf("佣金原账未创建: %v", err)
	}
	if ledger.Amount != 3000 {
		t.Errorf("佣金金额错误: got=%.0f want=3000", ledger.Amount)
	}
	if ledger.Status != models.CommissionStatusPending {
		t.Errorf("佣金初始状态错误: got=%s want=PENDING", ledger.Status)
	}
	if ledger.CreatorID != testCreatorID || ledger.SellerID != testSellerID {
		t.Errorf("佣金归属错误: creator=%d seller=%d", ledger.CreatorID, ledger.SellerID)
	}
}

func TestMatchConversionWindowBoundary(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()
	fx := seedCatalog(t, db, now)
	clickedAt := now.Add(-AttributionWindow)
	_, session := seedClick(t, db, fx, clickedAt)

	// 恰好在窗口边界：仍然有效（闭区间）
	order := seedOrder(t, db, fx.store.ID, "order-edge", 50000, now)
	attribution, err := MatchConversion(order.ID,
		signalWithToken(fx, "order-edge", session.SessionToken, 50000, session.ExpiresAt))
	if err != nil {
		t.Fatalf("边界时刻的归因应当成功: %v", err)
	}
	if attribution == nil {
		t.Fatal("边界时刻应当创建归因")
	}

	// 超出窗口一秒：明确拒绝，不退回last-click兜底
	order2 := seedOrder(t, db, fx.store.ID, "order-late", 50000, now)
	_, err = MatchConversion(order2.ID,
		signalWithToken(fx, "order-late", session.SessionToken, 50000, session.ExpiresAt.Add(time.Second)))
	if !errors.Is(err, utils.ErrAttributionWindowExpired) {
		t.Fatalf("出窗应当返回ATTRIBUTION_WINDOW_EXPIRED: got=%v", err)
	}
}

func TestMatchConversionLastClickFallback(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()
	fx := seedCatalog(t, db, now)
	seedClick(t, db, fx, now.Add(-3*time.Hour))
	click2, _ := seedClick(t, db, fx, now.Add(-time.Hour))
	order := seedOrder(t, db, fx.store.ID, "order-fb", 50000, now)

	// 没有会话令牌：按商品维度取下单前24小时内最近的点击
	sig := signalWithToken(fx, "order-fb", "", 50000, now)
	attribution, err := MatchConversion(order.ID, sig)
	if err != nil {
		t.Fatalf("兜底归因失败: %v", err)
	}
	if attribution == nil {
		t.Fatal("兜底应当创建归因")
	}
	if attribution.ClickID != click2.ID {
		t.Errorf("last-click应当选中最近的点击: got=%d want=%d", attribution.ClickID, click2.ID)
	}
}

func TestMatchConversionNoCandidate(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()
	fx := seedCatalog(t, db, now)
	order := seedOrder(t, db, fx.store.ID, "order-organic", 50000, now)

	// 自然流量：没有任何点击，不归因也不报错
	attribution, err := MatchConversion(order.ID, signalWithToken(fx, "order-organic", "", 50000, now))
	if err != nil {
		t.Fatalf("无候选点击不应报错: %v", err)
	}
	if attribution != nil {
		t.Fatal("无候选点击不应创建归因")
	}

	var count int64
	db.Model(&models.CommissionLedger{}).Count(&count)
	if count != 0 {
		t.Errorf("不应产生佣金原账: count=%d", count)
	}
}

func TestMatchConversionIdempotent(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()
	fx := seedCatalog(t, db, now)
	_, session := seedClick(t, db, fx, now.Add(-time.Hour))
	order := seedOrder(t, db, fx.store.ID, "order-idem", 50000, now)

	sig := signalWithToken(fx, "order-idem", session.SessionToken, 50000, now)
	first, err := MatchConversion(order.ID, sig)
	if err != nil {
		t.Fatalf("首次归因失败: %v", err)
	}
	second, err := MatchConversion(order.ID, sig)
	if err != nil {
		t.Fatalf("重复归因应当幂等: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("重复归因应当返回同一结果: first=%d second=%d", first.ID, second.ID)
	}

	var count int64
	db.Model(&models.Attribution{}).Count(&count)
	if count != 1 {
		t.Errorf("归因应当只有一条: count=%d", count)
	}
	db.Model(&models.CommissionLedger{}).Count(&count)
	if count != 1 {
		t.Errorf("佣金原账应当只有一条: count=%d", count)
	}
}

func TestMatchConversionConflictingClick(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()
	fx := seedCatalog(t, db, now)
	_, session1 := seedClick(t, db, fx, now.Add(-2*time.Hour))
	_, session2 := seedClick(t, db, fx, now.Add(-time.Hour))
	order := seedOrder(t, db, fx.store.ID, "order-conf", 50000, now)

	if _, err := MatchConversion(order.ID,
		signalWithToken(fx, "order-conf", session1.SessionToken, 50000, now)); err != nil {
		t.Fatalf("首次归因失败: %v", err)
	}

	// 同一订单的第二条信号指向另一次点击：数据矛盾
	_, err := MatchConversion(order.ID,
		signalWithToken(fx, "order-conf", session2.SessionToken, 50000, now))
	if !errors.Is(err, utils.ErrDuplicateAttribution) {
		t.Fatalf("指向不同点击应当返回DUPLICATE_ATTRIBUTION: got=%v", err)
	}
}

func TestCommissionSnapshotFrozen(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()
	fx := seedCatalog(t, db, now)
	_, session := seedClick(t, db, fx, now.Add(-time.Hour))

	// 点击之后卖家把活动佣金从3000改到5000
	if err := db.Model(&fx.campaign).Update("commission_amount", 5000).Error; err != nil {
		t.Fatalf("修改活动失败: %v", err)
	}

	order := seedOrder(t, db, fx.store.ID, "order-frozen", 50000, now)
	attribution, err := MatchConversion(order.ID,
		signalWithToken(fx, "order-frozen", session.SessionToken, 50000, now))
	if err != nil {
		t.Fatalf("归因失败: %v", err)
	}

	// 佣金按点击时的快照派生，活动条款变化不影响
	var ledger models.CommissionLedger
	if err := db.Where("attribution_id = ?", attribution.ID).First(&ledger).Error; err != nil {
		t.Fatalf("佣金原账未创建: %v", err)
	}
	if ledger.Amount != 3000 {
		t.Errorf("佣金应当按快照计算: got=%.0f want=3000", ledger.Amount)
	}
}

func TestCommissionRateDerivation(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()
	fx := seedCatalog(t, db, now)

	// 比例3%、最低佣金3000的点击快照
	rate := 0.03
	click := models.Click{
		LinkID:                 fx.link.ID,
		CampaignID:             &fx.campaign.ID,
		CommissionSnapshotRate: &rate,
		ClickToken:             "rate-click-token",
		ClickedAt:              now.Add(-time.Hour),
	}
	if err := db.Create(&click).Error; err != nil {
		t.Fatalf("写入点击失败: %v", err)
	}
	session := models.AttributionSession{
		SessionToken: "rate-session-token",
		ClickID:      click.ID,
		ExpiresAt:    click.ClickedAt.Add(AttributionWindow),
	}
	if err := db.Create(&session).Error; err != nil {
		t.Fatalf("写入会话失败: %v", err)
	}

	cases := []struct {
		name        string
		orderID     string
		orderAmount float64
		want        float64
	}{
		{"低额订单兜底到最低佣金", "order-rate-low", 50000, 3000},  // 0.03*50000=1500 < 3000
		{"高额订单按比例计算", "order-rate-high", 200000, 6000}, // 0.03*200000=6000
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := seedOrder(t, db, fx.store.ID, tc.orderID, tc.orderAmount, now)
			attribution, err := MatchConversion(order.ID,
				signalWithToken(fx, tc.orderID, session.SessionToken, tc.orderAmount, now))
			if err != nil {
				t.Fatalf("归因失败: %v", err)
			}
			var ledger models.CommissionLedger
			if err := db.Where("attribution_id = ?", attribution.ID).First(&ledger).Error; err != nil {
				t.Fatalf("佣金原账未创建: %v", err)
			}
			if ledger.Amount != tc.want {
				t.Errorf("佣金金额错误: got=%.0f want=%.0f", ledger.Amount, tc.want)
			}
		})
	}
}

func TestMatchConversionNonCampaignClick(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()
	fx := seedCatalog(t, db, now)

	// 非活动期的点击：没有佣金条款快照
	click := models.Click{
		LinkID:     fx.link.ID,
		ClickToken: "bare-click-token",
		ClickedAt:  now.Add(-time.Hour),
	}
	if err := db.Create(&click).Error; err != nil {
		t.Fatalf("写入点击失败: %v", err)
	}
	session := models.AttributionSession{
		SessionToken: "bare-session-token",
		ClickID:      click.ID,
		ExpiresAt:    click.ClickedAt.Add(AttributionWindow),
	}
	if err := db.Create(&session).Error; err != nil {
		t.Fatalf("写入会话失败: %v", err)
	}

	order := seedOrder(t, db, fx.store.ID, "order-bare", 50000, now)
	attribution, err := MatchConversion(order.ID,
		signalWithToken(fx, "order-bare", session.SessionToken, 50000, now))
	if err != nil {
		t.Fatalf("非活动期点击不应报错: %v", err)
	}
	if attribution != nil {
		t.Fatal("非活动期点击不应创建归因")
	}
}

func TestMatchConversionZeroCommissionSnapshot(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()
	fx := seedCatalog(t, db, now)

	// 固定佣金0且没有比例快照的点击：派生不出正数佣金
	zero := 0.0
	click := models.Click{
		LinkID:                   fx.link.ID,
		CampaignID:               &fx.campaign.ID,
		CommissionSnapshotAmount: &zero,
		ClickToken:               "zero-click-token",
		ClickedAt:                now.Add(-time.Hour),
	}
	if err := db.Create(&click).Error; err != nil {
		t.Fatalf("写入点击失败: %v", err)
	}
	session := models.AttributionSession{
		SessionToken: "zero-session-token",
		ClickID:      click.ID,
		ExpiresAt:    click.ClickedAt.Add(AttributionWindow),
	}
	if err := db.Create(&session).Error; err != nil {
		t.Fatalf("写入会话失败: %v", err)
	}

	order := seedOrder(t, db, fx.store.ID, "order-zero", 50000, now)
	attribution, err := MatchConversion(order.ID,
		signalWithToken(fx, "order-zero", session.SessionToken, 50000, now))
	if err != nil {
		t.Fatalf("零佣金点击不应报错: %v", err)
	}
	if attribution != nil {
		t.Fatal("零佣金点击不应创建归因")
	}

	var count int64
	db.Model(&models.Attribution{}).Count(&count)
	if count != 0 {
		t.Errorf("不应落库归因: count=%d", count)
	}
	db.Model(&models.CommissionLedger{}).Count(&count)
	if count != 0 {
		t.Errorf("不应落库佣金原账: count=%d", count)
	}
}

func TestMatchConversionConcurrent(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()
	fx := seedCatalog(t, db, now)
	_, session := seedClick(t, db, fx, now.Add(-time.Hour))
	order := seedOrder(t, db, fx.store.ID, "order-race", 50000, now)

	// 同一订单的信号并发涌入，唯一约束保证只落一条归因
	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = MatchConversion(order.ID,
				signalWithToken(fx, "order-race", session.SessionToken, 50000, now))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("并发归因#%d失败: %v", i, err)
		}
	}

	var count int64
	db.Model(&models.Attribution{}).Count(&count)
	if count != 1 {
		t.Errorf("归因应当收敛到一条: count=%d", count)
	}
	db.Model(&models.CommissionLedger{}).Count(&count)
	if count != 1 {
		t.Errorf("佣金原账应当收敛到一条: count=%d", count)
	}
}
