package models

import (
	"time"
)

// PixelEvent 像素转化事件
// 浏览器端像素上报的转化信号，(store_id, external_order_id)唯一保证幂等
// 会话暂时无法解析时以孤儿形式落库（attribution_session_id为空），
// 由对账任务稍后重试；session_token原样保存，否则孤儿事件无从补联
type PixelEvent struct {
	ID                   uint       `json:"id" gorm:"primaryKey"`                                                    // 主键ID
	StoreID              uint       `json:"store_id" gorm:"not null;uniqueIndex:idx_pixel_store_order"`              // 店铺ID
	ExternalOrderID      string     `json:"external_order_id" gorm:"size:100;not null;uniqueIndex:idx_pixel_store_order"` // 像素上报的平台订单ID
	SessionToken         string     `json:"session_token" gorm:"size:64;index"`                                      // 上报携带的会话令牌
	AttributionSessionID *uint      `json:"attribution_session_id" gorm:"index"`                                     // 已解析的归因会话ID，空表示孤儿事件
	EventTime            time.Time  `json:"event_time" gorm:"not null"`                                              // 事件发生时间
	AbandonedAt          *time.Time `json:"abandoned_at"`                                                            // 超过时效被放弃补联的时间，空表示仍待处理
	CreatedAt            time.Time  `json:"created_at" gorm:"autoCreateTime"`                                        // 创建时间
}

// TableName 指定模型对应的数据库表名
func (PixelEvent) TableName() string {
	return "pixel_events"
}
