package services

import (
	"gorm.io/gorm"

	"dooring/database"
	"dooring/models"
)

// CreatorReport 创作者收益报表
type CreatorReport struct {
	TotalLinks       int64   `json:"total_links"`       // 推广链接数
	TotalClicks      int64   `json:"total_clicks"`      // 累计点击数
	TotalConversions int64   `json:"total_conversions"` // 归因成功的转化数
	ConversionRate   float64 `json:"conversion_rate"`   // 转化率（转化数/点击数）
	PendingAmount    float64 `json:"pending_amount"`    // 待确认佣金合计
	ConfirmedAmount  float64 `json:"confirmed_amount"`  // 已确认待支付佣金合计
	PaidAmount       float64 `json:"paid_amount"`       // 已支付佣金合计
}

// SellerReport 卖家结算报表
type SellerReport struct {
	TotalCampaigns   int64   `json:"total_campaigns"`   // 活动总数
	TotalConversions int64   `json:"total_conversions"` // 归因成功的转化数
	PendingAmount    float64 `json:"pending_amount"`    // 待确认佣金合计
	ConfirmedAmount  float64 `json:"confirmed_amount"`  // 已确认待支付佣金合计
	PaidAmount       float64 `json:"paid_amount"`       // 已支付佣金合计
	UnpaidAmount     float64 `json:"unpaid_amount"`     // 当前应付未付金额（待确认+已确认合计）
}

// BuildCreatorReport 汇总创作者的推广效果和收益
func BuildCreatorReport(creatorID uint) (*CreatorReport, error) {
	db := database.GetDB()
	report := &CreatorReport{}

	if err := db.Model(&models.Link{}).
		Where("creator_id = ?", creatorID).
		Count(&report.TotalLinks).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.Click{}).
		Joins("JOIN links ON links.id = clicks.link_id").
		Where("links.creator_id = ?", creatorID).
		Count(&report.TotalClicks).Error; err != nil {
		return nil, err
	}

	// 佣金原账与归因1:1，按原账汇总即是转化维度的汇总
	if err := db.Model(&models.CommissionLedger{}).
		Where("creator_id = ?", creatorID).
		Count(&report.TotalConversions).Error; err != nil {
		return nil, err
	}

	var err error
	if report.PendingAmount, err = sumLedgerAmount(db, "creator_id", creatorID, models.CommissionStatusPending); err != nil {
		return nil, err
	}
	if report.ConfirmedAmount, err = sumLedgerAmount(db, "creator_id", creatorID, models.CommissionStatusConfirmed); err != nil {
		return nil, err
	}
	if report.PaidAmount, err = sumLedgerAmount(db, "creator_id", creatorID, models.CommissionStatusPaid); err != nil {
		return nil, err
	}

	if report.TotalClicks > 0 {
		report.ConversionRate = float64(report.TotalConversions) / float64(report.TotalClicks)
	}
	return report, nil
}

// BuildSellerReport 汇总卖家的活动效果和应付佣金
func BuildSellerReport(sellerID uint) (*SellerReport, error) {
	db := database.GetDB()
	report := &SellerReport{}

	if err := db.Model(&models.Campaign{}).
		Where("seller_id = ?", sellerID).
		Count(&report.TotalCampaigns).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.CommissionLedger{}).
		Where("seller_id = ?", sellerID).
		Count(&report.TotalConversions).Error; err != nil {
		return nil, err
	}

	var err error
	if report.PendingAmount, err = sumLedgerAmount(db, "seller_id", sellerID, models.CommissionStatusPending); err != nil {
		return nil, err
	}
	if report.ConfirmedAmount, err = sumLedgerAmount(db, "seller_id", sellerID, models.CommissionStatusConfirmed); err != nil {
		return nil, err
	}
	if report.PaidAmount, err = sumLedgerAmount(db, "seller_id", sellerID, models.CommissionStatusPaid); err != nil {
		return nil, err
	}
	report.UnpaidAmount = report.PendingAmount + report.ConfirmedAmount
	return report, nil
}

// sumLedgerAmount 按归属方和状态汇总佣金金额
func sumLedgerAmount(db *gorm.DB, column string, ownerID uint, status string) (float64, error) {
	var total float64
	err := db.Model(&models.CommissionLedger{}).
		Where(column+" = ? AND status = ?", ownerID, status).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}
