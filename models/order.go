package models

import (
	"time"
)

// 订单状态常量
// 订单生命周期由外部平台推进，本服务只做投影
const (
	OrderStatusCreated   = "CREATED"   // 订单创建
	OrderStatusPaid      = "PAID"      // 支付完成
	OrderStatusDelivered = "DELIVERED" // 配送完成
	OrderStatusConfirmed = "CONFIRMED" // 购买确认
	OrderStatusCancelled = "CANCELLED" // 订单取消
	OrderStatusRefunded  = "REFUNDED"  // 退款完成
)

// Order 订单投影
// 订单本体归外部电商平台所有，这里按Webhook/像素信号做幂等投影
// (store_id, external_order_id)唯一，是归因收敛的第一层约束
type Order struct {
	ID              uint       `json:"id" gorm:"primaryKey"`                                                   // 主键ID
	StoreID         uint       `json:"store_id" gorm:"not null;uniqueIndex:idx_orders_store_order"`            // 店铺ID
	ExternalOrderID string     `json:"external_order_id" gorm:"size:100;not null;uniqueIndex:idx_orders_store_order"` // 平台订单ID
	Status          string     `json:"status" gorm:"size:20;not null;default:CREATED"`                         // 订单状态
	TotalAmount     float64    `json:"total_amount"`                                                           // 总支付金额
	OrderedAt       *time.Time `json:"ordered_at"`                                                             // 平台提供的下单时间
	CreatedAt       time.Time  `json:"created_at" gorm:"autoCreateTime"`                                       // 创建时间
	UpdatedAt       time.Time  `json:"updated_at" gorm:"autoUpdateTime"`                                       // 更新时间
}

// TableName 指定模型对应的数据库表名
func (Order) TableName() string {
	return "orders"
}
