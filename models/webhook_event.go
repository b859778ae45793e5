package models

import (
	"time"
)

// OrderWebhookEvent 订单Webhook收件记录
// 平台Webhook投递的去重账本，(store_id, external_order_id, status)唯一
// 同一状态的重复投递直接判定为重放不再处理；状态不同的后续投递
// 需要放行，它们驱动佣金原账的状态迁移
type OrderWebhookEvent struct {
	ID              uint      `json:"id" gorm:"primaryKey"`                                                         // 主键ID
	StoreID         uint      `json:"store_id" gorm:"not null;uniqueIndex:idx_webhook_store_order_status"`          // 店铺ID
	ExternalOrderID string    `json:"external_order_id" gorm:"size:100;not null;uniqueIndex:idx_webhook_store_order_status"` // 平台订单ID
	Status          string    `json:"status" gorm:"size:20;not null;uniqueIndex:idx_webhook_store_order_status"`    // 投递的订单状态
	OrderAmount     float64   `json:"order_amount"`                                                                 // 订单金额
	SessionToken    string    `json:"session_token" gorm:"size:64"`                                                 // 投递携带的会话令牌
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`                                             // 收到时间
}

// TableName 指定模型对应的数据库表名
func (OrderWebhookEvent) TableName() string {
	return "order_webhook_events"
}
