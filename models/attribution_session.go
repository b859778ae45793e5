package models

import (
	"time"
)

// AttributionSession 归因会话
// 把session_token与一次点击绑定，归因窗口为点击后24小时
// 创建后不可变；过期会话保留可查但不再参与归因，物理清理由独立的运维任务负责
type AttributionSession struct {
	ID           uint      `json:"id" gorm:"primaryKey"`                           // 主键ID
	SessionToken string    `json:"session_token" gorm:"size:64;not null;uniqueIndex"` // 会话令牌，与click_token同源或派生
	ClickID      uint      `json:"click_id" gorm:"not null;index"`                 // 点击ID
	ExpiresAt    time.Time `json:"expires_at" gorm:"not null;index"`               // 归因窗口截止时间（点击时间+24h）
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`               // 创建时间
}

// TableName 指定模型对应的数据库表名
func (AttributionSession) TableName() string {
	return "attribution_sessions"
}

// IsValid 判断会话在指定时间点是否仍在归因窗口内
// 窗口边界为闭区间：now恰好等于expires_at时仍然有效
func (s *AttributionSession) IsValid(now time.Time) bool {
	return !now.After(s.ExpiresAt)
}
