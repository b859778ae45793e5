package models

import (
	"errors"
	"time"
)

// 佣金状态常量
// 状态只能向前推进：PENDING → CONFIRMED → PAID
// PENDING/CONFIRMED可以分支到CANCELLED；PAID和CANCELLED是终态
const (
	CommissionStatusPending   = "PENDING"   // 待确认（购买确认前）
	CommissionStatusConfirmed = "CONFIRMED" // 已确认（卖家产生支付义务）
	CommissionStatusPaid      = "PAID"      // 卖家已向创作者支付
	CommissionStatusCancelled = "CANCELLED" // 已取消（退款等）
)

// 佣金状态迁移错误
// 非法迁移对触发它的流程是致命错误，调用方必须先重读当前状态再决定下一步，
// 不允许盲目重试
var (
	ErrCommissionNotPending       = errors.New("佣金确认只能在PENDING状态下进行")
	ErrCommissionNotConfirmed     = errors.New("佣金支付只能在CONFIRMED状态下进行")
	ErrCommissionAlreadyPaid      = errors.New("已支付的佣金不能取消")
	ErrCommissionAlreadyCancelled = errors.New("佣金已经被取消")
)

// CommissionLedger 佣金结算原账
// 归属于Attribution（一对一），不允许脱离Attribution单独存在，
// 只能通过Confirm/MarkAsPaid/Cancel修改状态
type CommissionLedger struct {
	ID            uint       `json:"id" gorm:"primaryKey"`                     // 主键ID
	AttributionID uint       `json:"attribution_id" gorm:"not null;uniqueIndex"` // 所属归因ID，唯一
	CampaignID    uint       `json:"campaign_id" gorm:"not null;index"`        // 活动ID
	CreatorID     uint       `json:"creator_id" gorm:"not null;index"`         // 创作者ID
	SellerID      uint       `json:"seller_id" gorm:"not null;index"`          // 卖家ID
	Amount        float64    `json:"amount"`                                   // 佣金金额（点击快照派生，永不重算）
	Status        string     `json:"status" gorm:"size:20;not null;default:PENDING"` // 佣金状态
	CreatedAt     time.Time  `json:"created_at" gorm:"autoCreateTime"`         // 创建时间
	UpdatedAt     time.Time  `json:"updated_at" gorm:"autoUpdateTime"`         // 更新时间
	ConfirmedAt   *time.Time `json:"confirmed_at"`                             // 确认时间
	PaidAt        *time.Time `json:"paid_at"`                                  // 支付时间
}

// TableName 指定模型对应的数据库表名
func (CommissionLedger) TableName() string {
	return "commission_ledgers"
}

// Confirm 确认佣金（购买确认时）
// PENDING → CONFIRMED，只设置confirmed_at
func (l *CommissionLedger) Confirm(now time.Time) error {
	if l.Status != CommissionStatusPending {
		return ErrCommissionNotPending
	}
	l.Status = CommissionStatusConfirmed
	l.ConfirmedAt = &now
	l.UpdatedAt = now
	return nil
}

// MarkAsPaid 标记佣金已支付
// CONFIRMED → PAID，只设置paid_at
func (l *CommissionLedger) MarkAsPaid(now time.Time) error {
	if l.Status != CommissionStatusConfirmed {
		return ErrCommissionNotConfirmed
	}
	l.Status = CommissionStatusPaid
	l.PaidAt = &now
	l.UpdatedAt = now
	return nil
}

// Cancel 取消佣金（退款等）
// PENDING或CONFIRMED → CANCELLED，终态不可再迁移
func (l *CommissionLedger) Cancel(now time.Time) error {
	if l.Status == CommissionStatusPaid {
		return ErrCommissionAlreadyPaid
	}
	if l.Status == CommissionStatusCancelled {
		return ErrCommissionAlreadyCancelled
	}
	l.Status = CommissionStatusCancelled
	l.UpdatedAt = now
	return nil
}
