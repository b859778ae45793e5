package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"dooring/models"
	"dooring/utils"
)

func TestRecordClickUnknownShortCode(t *testing.T) {
	setupTestDB(t)

	_, err := RecordClick("no-such-code", "203.0.113.10", "test-agent")
	if !errors.Is(err, utils.ErrLinkNotFound) {
		t.Fatalf("未知短码应当返回LINK_NOT_FOUND: got=%v", err)
	}
}

func TestRecordClickSnapshotsCampaign(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()
	fx := seedCatalog(t, db, now)

	result, err := RecordClick(fx.link.ShortCode, "203.0.113.10", "test-agent")
	if err != nil {
		t.Fatalf("记录点击失败: %v", err)
	}
	if result.ClickToken == "" || result.SessionToken == "" {
		t.Error("追踪令牌不应为空")
	}
	if !strings.Contains(result.RedirectURL, "?dr_token="+result.SessionToken) {
		t.Errorf("跳转地址应当携带会话令牌: %s", result.RedirectURL)
	}
	if !strings.HasPrefix(result.RedirectURL, fx.product.ProductURL) {
		t.Errorf("跳转地址应当指向商品页: %s", result.RedirectURL)
	}

	// 点击行携带活动佣金快照
	var click models.Click
	if err := db.Where("click_token = ?", result.ClickToken).First(&click).Error; err != nil {
		t.Fatalf("点击未落库: %v", err)
	}
	if click.CampaignID == nil || *click.CampaignID != fx.campaign.ID {
		t.Error("点击应当记录活跃活动ID")
	}
	if click.CommissionSnapshotAmount == nil || *click.CommissionSnapshotAmount != 3000 {
		t.Error("点击应当快照佣金金额")
	}

	// 会话窗口为点击后24小时
	var session models.AttributionSession
	if err := db.Where("session_token = ?", result.SessionToken).First(&session).Error; err != nil {
		t.Fatalf("归因会话未创建: %v", err)
	}
	if session.ClickID != click.ID {
		t.Error("会话应当绑定本次点击")
	}
	window := session.ExpiresAt.Sub(click.ClickedAt)
	if window != AttributionWindow {
		t.Errorf("归因窗口错误: got=%s want=%s", window, AttributionWindow)
	}
}

func TestRecordClickOutsideCampaignPeriod(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()
	fx := seedCatalog(t, db, now)

	// 活动提前结束
	if err := db.Model(&fx.campaign).Update("ends_at", now.Add(-time.Hour)).Error; err != nil {
		t.Fatalf("修改活动失败: %v", err)
	}

	// 点击照常记录，但没有佣金条款快照
	result, err := RecordClick(fx.link.ShortCode, "203.0.113.10", "test-agent")
	if err != nil {
		t.Fatalf("非活动期点击应当照常记录: %v", err)
	}

	var click models.Click
	if err := db.Where("click_token = ?", result.ClickToken).First(&click).Error; err != nil {
		t.Fatalf("点击未落库: %v", err)
	}
	if click.CampaignID != nil {
		t.Error("非活动期点击不应记录活动ID")
	}
	if click.CommissionSnapshotAmount != nil {
		t.Error("非活动期点击不应有佣金快照")
	}
}

func TestRecordClickRepeatedFromSameIP(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()
	fx := seedCatalog(t, db, now)

	// 同一IP的重复点击不做去重，逐条记录
	if _, err := RecordClick(fx.link.ShortCode, "203.0.113.10", "test-agent"); err != nil {
		t.Fatalf("记录点击失败: %v", err)
	}
	if _, err := RecordClick(fx.link.ShortCode, "203.0.113.10", "test-agent"); err != nil {
		t.Fatalf("重复点击应当照常记录: %v", err)
	}

	var count int64
	db.Model(&models.Click{}).Count(&count)
	if count != 2 {
		t.Errorf("点击应当逐条记录: count=%d", count)
	}
}

func TestFindSessionByToken(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()
	fx := seedCatalog(t, db, now)

	// 未知令牌：查不到，不报错
	session, err := FindSessionByToken("no-such-token")
	if err != nil {
		t.Fatalf("查询会话失败: %v", err)
	}
	if session != nil {
		t.Error("未知令牌应当返回nil")
	}

	// 已过期的会话照常返回，在窗口内与否由IsValid判断
	// 过期和不存在必须可区分：过期要明确拒绝，不存在才走兜底
	_, expired := seedClick(t, db, fx, now.Add(-2*AttributionWindow))
	session, err = FindSessionByToken(expired.SessionToken)
	if err != nil {
		t.Fatalf("查询会话失败: %v", err)
	}
	if session == nil {
		t.Fatal("过期会话应当能查到")
	}
	if session.IsValid(now) {
		t.Error("过期会话不应通过IsValid")
	}
}

func TestBuildRedirectURLWithExistingQuery(t *testing.T) {
	url := buildRedirectURL("https://shop.example.com/p/1?ref=home", "tok-1")
	if url != "https://shop.example.com/p/1?ref=home&dr_token=tok-1" {
		t.Errorf("已有查询串时应当用&拼接: %s", url)
	}
}
