package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"dooring/database"
	"dooring/models"
	"dooring/utils"
)

// AttributionWindow 归因窗口
// 点击后24小时内的转化可以归因到该点击
const AttributionWindow = 24 * time.Hour

// ClickResult 点击记录结果
// 返回给跳转端的追踪信息和目标地址
type ClickResult struct {
	ClickToken   string `json:"click_token"`   // 追踪令牌，写入跳转URL参数
	SessionToken string `json:"session_token"` // 归因会话令牌，写入第一方Cookie
	RedirectURL  string `json:"redirect_url"`  // 带追踪参数的商品页地址
}

// RecordClick 记录一次推广链接点击
// 完整流程：
// 1. 按短码定位推广链接和商品
// 2. 查询商品当前的活跃活动，把佣金条款快照到点击行
// 3. 创建点击日志和24小时归因会话
// 4. 拼接带dr_token参数的跳转地址
//
// 同一IP的重复点击照常记录，点击级去重不在这里做
// 非活动期的点击也记录（快照字段为空），后续归因时不产生佣金
func RecordClick(shortCode string, ipAddress string, userAgent string) (*ClickResult, error) {
	db := database.GetDB()
	now := time.Now()

	// 定位推广链接
	var link models.Link
	if err := db.Where("short_code = ?", shortCode).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrLinkNotFound
		}
		return nil, err
	}

	// 定位商品，拿到跳转目标地址
	var product models.Product
	if err := db.First(&product, link.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrProductNotFound
		}
		return nil, err
	}

	// 查询活跃活动并快照佣金条款
	// 快照一旦写入就与活动脱钩，之后活动条款变化不影响本次点击
	campaign, err := FindActiveCampaignByProduct(link.ProductID, now)
	if err != nil {
		return nil, err
	}

	click := models.Click{
		LinkID:     link.ID,
		ClickToken: utils.GenerateClickToken(),
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		ClickedAt:  now,
	}
	if campaign != nil {
		click.CampaignID = &campaign.ID
		amount := campaign.CommissionAmount
		click.CommissionSnapshotAmount = &amount
		if campaign.CommissionRate != nil {
			rate := *campaign.CommissionRate
			click.CommissionSnapshotRate = &rate
		}
	}

	session := models.AttributionSession{
		SessionToken: utils.GenerateSessionToken(),
		ExpiresAt:    now.Add(AttributionWindow),
	}

	// 点击和会话在同一事务中创建，避免出现没有会话的点击
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&click).Error; err != nil {
			return err
		}
		session.ClickID = click.ID
		return tx.Create(&session).Error
	})
	if err != nil {
		return nil, err
	}

	return &ClickResult{
		ClickToken:   click.ClickToken,
		SessionToken: session.SessionToken,
		RedirectURL:  buildRedirectURL(product.ProductURL, session.SessionToken),
	}, nil
}

// buildRedirectURL 在商品页地址上追加追踪参数
// 像素脚本从dr_token参数读取会话令牌并随转化一起上报
func buildRedirectURL(productURL string, sessionToken string) string {
	separator := "?"
	if strings.Contains(productURL, "?") {
		separator = "&"
	}
	return productURL + separator + "dr_token=" + sessionToken
}

// FindSessionByToken 按令牌查询归因会话
// 令牌不存在返回(nil, nil)；存在的会话原样返回，是否仍在窗口内
// 由调用方用IsValid判断：过期和不存在在归因语义上不同，
// 过期要明确拒绝，不存在才走last-click兜底
func FindSessionByToken(sessionToken string) (*models.AttributionSession, error) {
	if sessionToken == "" {
		return nil, nil
	}
	var session models.AttributionSession
	err := database.GetDB().Where("session_token = ?", sessionToken).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}
