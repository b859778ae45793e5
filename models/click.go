package models

import (
	"time"
)

// Click 点击日志
// 只追加不修改，点击时把当时活跃活动的佣金条款快照到本行
// 快照字段写入后永不重算，即使活动条款之后发生变化
type Click struct {
	ID                       uint       `json:"id" gorm:"primaryKey"`                                              // 主键ID
	LinkID                   uint       `json:"link_id" gorm:"not null;index:idx_clicks_link_clicked_at"`          // 推广链接ID
	CampaignID               *uint      `json:"campaign_id"`                                                       // 点击时的活跃活动ID，空表示非活动期点击
	CommissionSnapshotAmount *float64   `json:"commission_snapshot_amount"`                                        // 点击时的固定佣金金额快照
	CommissionSnapshotRate   *float64   `json:"commission_snapshot_rate"`                                          // 点击时的佣金比例快照
	ClickToken               string     `json:"click_token" gorm:"size:64;not null;uniqueIndex"`                   // 写入URL参数/Cookie的追踪令牌
	IPAddress                string     `json:"ip_address" gorm:"size:45"`                                         // IP地址（分析用，不做点击级去重）
	UserAgent                string     `json:"user_agent" gorm:"type:text"`                                       // User-Agent
	ClickedAt                time.Time  `json:"clicked_at" gorm:"not null;index:idx_clicks_link_clicked_at"`       // 点击发生时间
	CreatedAt                time.Time  `json:"created_at" gorm:"autoCreateTime"`                                  // 创建时间
}

// TableName 指定模型对应的数据库表名
func (Click) TableName() string {
	return "clicks"
}
