package models

import (
	"time"
)

// Attribution 购买归因（聚合根）
// last-click策略，每个订单最多一条，order_id上的唯一约束是并发收敛的最终防线
// 与CommissionLedger必须在同一事务中一起创建
type Attribution struct {
	ID           uint      `json:"id" gorm:"primaryKey"`             // 主键ID
	OrderID      uint      `json:"order_id" gorm:"not null;uniqueIndex"` // 订单ID，唯一
	ClickID      uint      `json:"click_id" gorm:"not null;index"`   // 被记入的点击ID
	CampaignID   uint      `json:"campaign_id" gorm:"not null;index"` // 点击时快照的活动ID
	AttributedAt time.Time `json:"attributed_at" gorm:"not null"`    // 归因判定时间
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"` // 创建时间
}

// TableName 指定模型对应的数据库表名
func (Attribution) TableName() string {
	return "attributions"
}
