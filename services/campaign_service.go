package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"dooring/database"
	"dooring/models"
)

// FindActiveCampaignByProduct 查询商品在指定时间点的活跃活动
// 活跃的定义：未被停用且now落在[starts_at, ends_at]区间内（边界含）
// 业务约束保证同一商品同一时间最多一个活跃活动，取最近创建的一条兜底
// 没有活跃活动不是错误，返回(nil, nil)
func FindActiveCampaignByProduct(productID uint, now time.Time) (*models.Campaign, error) {
	var campaign models.Campaign
	err := database.GetDB().
		Where("product_id = ? AND is_active = ? AND starts_at <= ? AND ends_at >= ?",
			productID, true, now, now).
		Order("created_at DESC").
		First(&campaign).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &campaign, nil
}
