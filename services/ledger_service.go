package services

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"dooring/database"
	"dooring/models"
	"dooring/utils"
)

// LedgerAction 订单状态对佣金原账的动作
type LedgerAction int

const (
	LedgerActionNone    LedgerAction = iota // 不做处理
	LedgerActionConfirm                     // 确认佣金
	LedgerActionCancel                      // 取消佣金
)

// LedgerPolicy 订单状态到佣金动作的映射策略
// 不同平台对"购买确认"的口径不同，策略做成可替换的
type LedgerPolicy func(orderStatus string) LedgerAction

// DefaultLedgerPolicy 默认策略
// 配送完成或购买确认即确认佣金；取消和退款撤销佣金
func DefaultLedgerPolicy(orderStatus string) LedgerAction {
	switch orderStatus {
	case models.OrderStatusDelivered, models.OrderStatusConfirmed:
		return LedgerActionConfirm
	case models.OrderStatusCancelled, models.OrderStatusRefunded:
		return LedgerActionCancel
	default:
		return LedgerActionNone
	}
}

// ActiveLedgerPolicy 当前生效的策略
var ActiveLedgerPolicy LedgerPolicy = DefaultLedgerPolicy

// ApplyOrderStatusToLedger 把订单状态变化应用到佣金原账
// 订单没有归因（自然流量）时静默跳过
// 重复投递同一生命周期阶段是常态，已处于目标状态按无操作处理
func ApplyOrderStatusToLedger(orderID uint, orderStatus string) error {
	action := ActiveLedgerPolicy(orderStatus)
	if action == LedgerActionNone {
		return nil
	}

	var attribution models.Attribution
	err := database.GetDB().Where("order_id = ?", orderID).First(&attribution).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	switch action {
	case LedgerActionConfirm:
		err = ConfirmCommission(attribution.ID)
		// 重复确认（已确认或已进入支付）按幂等处理
		if errors.Is(err, models.ErrCommissionNotPending) {
			return nil
		}
		return err
	case LedgerActionCancel:
		err = CancelCommission(attribution.ID)
		if errors.Is(err, models.ErrCommissionAlreadyCancelled) {
			return nil
		}
		return err
	}
	return nil
}

// ConfirmCommission 确认佣金（PENDING → CONFIRMED）
// 更新带状态前置条件，并发时只有一个调用真正生效，
// 落空的调用重读当前状态并返回对应的迁移错误
func ConfirmCommission(attributionID uint) error {
	db := database.GetDB()

	var ledger models.CommissionLedger
	if err := db.Where("attribution_id = ?", attributionID).First(&ledger).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrCommissionNotFound
		}
		return err
	}

	now := time.Now()
	if err := ledger.Confirm(now); err != nil {
		return err
	}

	result := db.Model(&models.CommissionLedger{}).
		Where("id = ? AND status = ?", ledger.ID, models.CommissionStatusPending).
		Updates(map[string]interface{}{
			"status":       models.CommissionStatusConfirmed,
			"confirmed_at": now,
			"updated_at":   now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// 状态在读取和更新之间被其他调用改变，重读后报告真实的迁移错误
		var current models.CommissionLedger
		if err := db.First(&current, ledger.ID).Error; err != nil {
			return err
		}
		return current.Confirm(now)
	}

	log.Printf("佣金确认: 原账=%d 归因=%d 金额=%.0f", ledger.ID, attributionID, ledger.Amount)
	return nil
}

// CancelCommission 取消佣金（PENDING/CONFIRMED → CANCELLED）
// 已支付的佣金不能取消，退款争议转入线下处理
func CancelCommission(attributionID uint) error {
	db := database.GetDB()

	var ledger models.CommissionLedger
	if err := db.Where("attribution_id = ?", attributionID).First(&ledger).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrCommissionNotFound
		}
		return err
	}

	now := time.Now()
	if err := ledger.Cancel(now); err != nil {
		return err
	}

	result := db.Model(&models.CommissionLedger{}).
		Where("id = ? AND status IN ?", ledger.ID,
			[]string{models.CommissionStatusPending, models.CommissionStatusConfirmed}).
		Updates(map[string]interface{}{
			"status":     models.CommissionStatusCancelled,
			"updated_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var current models.CommissionLedger
		if err := db.First(&current, ledger.ID).Error; err != nil {
			return err
		}
		return current.Cancel(now)
	}

	log.Printf("佣金取消: 原账=%d 归因=%d", ledger.ID, attributionID)
	return nil
}

// MarkCommissionPaid 标记佣金已支付（CONFIRMED → PAID）
// 只有佣金归属的卖家可以操作，支付动作本身在外部完成，这里只记账
func MarkCommissionPaid(ledgerID uint, sellerID uint) error {
	db := database.GetDB()

	var ledger models.CommissionLedger
	if err := db.First(&ledger, ledgerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrCommissionNotFound
		}
		return err
	}

	if ledger.SellerID != sellerID {
		return utils.ErrNoPermission
	}

	now := time.Now()
	if err := ledger.MarkAsPaid(now); err != nil {
		return err
	}

	result := db.Model(&models.CommissionLedger{}).
		Where("id = ? AND status = ?", ledgerID, models.CommissionStatusConfirmed).
		Updates(map[string]interface{}{
			"status":     models.CommissionStatusPaid,
			"paid_at":    now,
			"updated_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var current models.CommissionLedger
		if err := db.First(&current, ledgerID).Error; err != nil {
			return err
		}
		return current.MarkAsPaid(now)
	}

	log.Printf("佣金支付: 原账=%d 卖家=%d 金额=%.0f", ledgerID, sellerID, ledger.Amount)
	return nil
}
