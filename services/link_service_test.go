package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"dooring/models"
	"dooring/utils"
)

func TestIssueLinkIdempotent(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()
	fx := seedCatalog(t, db, now)
	creatorID := testCreatorID + 1

	first, err := IssueLink(creatorID, fx.product.ID)
	if err != nil {
		t.Fatalf("发放链接失败: %v", err)
	}
	if first.ShortCode == "" {
		t.Fatal("短码不应为空")
	}
	if !strings.HasSuffix(first.ShortURL, "/r/"+first.ShortCode) {
		t.Errorf("跳转地址格式错误: %s", first.ShortURL)
	}
	if first.Campaign == nil || first.Campaign.CampaignID != fx.campaign.ID {
		t.Error("链接应当附带当前活跃活动")
	}

	// 重复申请返回已有链接
	second, err := IssueLink(creatorID, fx.product.ID)
	if err != nil {
		t.Fatalf("重复申请应当幂等: %v", err)
	}
	if second.ShortCode != first.ShortCode {
		t.Errorf("重复申请应当返回同一短码: first=%s second=%s", first.ShortCode, second.ShortCode)
	}

	var count int64
	db.Model(&models.Link{}).Where("creator_id = ?", creatorID).Count(&count)
	if count != 1 {
		t.Errorf("链接应当只有一条: count=%d", count)
	}
}

func TestIssueLinkRequiresActiveCampaign(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()
	fx := seedCatalog(t, db, now)

	// 活动被停用后不再发放链接
	if err := db.Model(&fx.campaign).Update("is_active", false).Error; err != nil {
		t.Fatalf("修改活动失败: %v", err)
	}
	_, err := IssueLink(testCreatorID+1, fx.product.ID)
	if !errors.Is(err, utils.ErrCampaignNotActive) {
		t.Fatalf("无活跃活动应当返回CAMPAIGN_NOT_ACTIVE: got=%v", err)
	}
}

func TestIssueLinkUnknownProduct(t *testing.T) {
	setupTestDB(t)

	_, err := IssueLink(testCreatorID, 99999)
	if !errors.Is(err, utils.ErrProductNotFound) {
		t.Fatalf("未知商品应当返回PRODUCT_NOT_FOUND: got=%v", err)
	}
}

func TestGetCreatorLinks(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()
	fx := seedCatalog(t, db, now)

	links, err := GetCreatorLinks(testCreatorID)
	if err != nil {
		t.Fatalf("查询链接失败: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("链接数量错误: got=%d want=1", len(links))
	}
	if links[0].ShortCode != fx.link.ShortCode {
		t.Errorf("短码错误: got=%s", links[0].ShortCode)
	}
	if links[0].ProductName != fx.product.Name {
		t.Errorf("商品名称错误: got=%s", links[0].ProductName)
	}

	// 没有链接的创作者返回空列表
	empty, err := GetCreatorLinks(testCreatorID + 100)
	if err != nil {
		t.Fatalf("查询链接失败: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("应当返回空列表: got=%d", len(empty))
	}
}
