package services

import (
	"errors"
	"log"
	"os"
	"time"

	"gorm.io/gorm"

	"dooring/database"
	"dooring/models"
	"dooring/utils"
)

// shortCodeMaxRetries 短码碰撞时的重试次数
// 62^8的空间里碰撞概率极低，连续碰撞说明生成器出了问题
const shortCodeMaxRetries = 3

// CampaignInfo 推广链接关联的活动条款摘要
type CampaignInfo struct {
	CampaignID       uint     `json:"campaign_id"`       // 活动ID
	CommissionAmount float64  `json:"commission_amount"` // 固定佣金金额
	CommissionRate   *float64 `json:"commission_rate"`   // 佣金比例
	EndsAt           string   `json:"ends_at"`           // 活动结束时间
}

// LinkInfo 推广链接信息
type LinkInfo struct {
	LinkID      uint          `json:"link_id"`      // 链接ID
	ProductID   uint          `json:"product_id"`   // 商品ID
	ProductName string        `json:"product_name"` // 商品名称
	ShortCode   string        `json:"short_code"`   // 短码
	ShortURL    string        `json:"short_url"`    // 完整跳转地址
	Campaign    *CampaignInfo `json:"campaign"`     // 当前活跃活动，可为空
	CreatedAt   time.Time     `json:"created_at"`   // 创建时间
}

// IssueLink 为创作者发放商品推广链接
// 前置条件：商品存在且当前有活跃活动
// 同一创作者对同一商品重复申请是幂等的，返回已有链接
func IssueLink(creatorID uint, productID uint) (*LinkInfo, error) {
	db := database.GetDB()
	now := time.Now()

	var product models.Product
	if err := db.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrProductNotFound
		}
		return nil, err
	}

	// 没有活跃活动的商品不发放链接，点击不会产生佣金
	campaign, err := FindActiveCampaignByProduct(productID, now)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, utils.ErrCampaignNotActive
	}

	// 幂等：已有链接直接返回
	var link models.Link
	err = db.Where("creator_id = ? AND product_id = ?", creatorID, productID).First(&link).Error
	if err == nil {
		return buildLinkInfo(&link, &product, campaign), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 创建链接，短码碰撞或并发重复申请时重试
	for attempt := 0; attempt < shortCodeMaxRetries; attempt++ {
		link = models.Link{
			CreatorID: creatorID,
			ProductID: productID,
			ShortCode: utils.GenerateShortCode(),
		}
		err = db.Create(&link).Error
		if err == nil {
			log.Printf("推广链接发放: 创作者=%d 商品=%d 短码=%s", creatorID, productID, link.ShortCode)
			return buildLinkInfo(&link, &product, campaign), nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		// 冲突可能来自并发的重复申请，读回已有链接
		var existing models.Link
		readErr := db.Where("creator_id = ? AND product_id = ?", creatorID, productID).First(&existing).Error
		if readErr == nil {
			return buildLinkInfo(&existing, &product, campaign), nil
		}
		if !errors.Is(readErr, gorm.ErrRecordNotFound) {
			return nil, readErr
		}
		// 读不到说明冲突在短码上，换码重试
	}
	return nil, err
}

// GetCreatorLinks 查询创作者的全部推广链接
// 每条链接附带商品名称和当前活跃活动的条款摘要
func GetCreatorLinks(creatorID uint) ([]LinkInfo, error) {
	db := database.GetDB()
	now := time.Now()

	var links []models.Link
	if err := db.Where("creator_id = ?", creatorID).
		Order("created_at DESC").
		Find(&links).Error; err != nil {
		return nil, err
	}

	infos := make([]LinkInfo, 0, len(links))
	for i := range links {
		var product models.Product
		if err := db.First(&product, links[i].ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		campaign, err := FindActiveCampaignByProduct(product.ID, now)
		if err != nil {
			return nil, err
		}
		infos = append(infos, *buildLinkInfo(&links[i], &product, campaign))
	}
	return infos, nil
}

// buildLinkInfo 组装链接信息
func buildLinkInfo(link *models.Link, product *models.Product, campaign *models.Campaign) *LinkInfo {
	info := &LinkInfo{
		LinkID:      link.ID,
		ProductID:   product.ID,
		ProductName: product.Name,
		ShortCode:   link.ShortCode,
		ShortURL:    buildShortURL(link.ShortCode),
		CreatedAt:   link.CreatedAt,
	}
	if campaign != nil {
		info.Campaign = &CampaignInfo{
			CampaignID:       campaign.ID,
			CommissionAmount: campaign.CommissionAmount,
			CommissionRate:   campaign.CommissionRate,
			EndsAt:           campaign.EndsAt.Format(time.RFC3339),
		}
	}
	return info
}

// buildShortURL 拼接对外的跳转地址
// 基础地址从环境变量读取，未配置时退回本地开发地址
func buildShortURL(shortCode string) string {
	base := os.Getenv("DOORING_BASE_URL")
	if base == "" {
		base = "http://localhost:3000"
	}
	return base + "/r/" + shortCode
}
