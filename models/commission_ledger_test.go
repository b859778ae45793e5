package models

import (
	"errors"
	"testing"
	"time"
)

func TestCommissionLedgerTransitions(t *testing.T) {
	now := time.Now()

	t.Run("完整生命周期", func(t *testing.T) {
		ledger := CommissionLedger{Status: CommissionStatusPending}

		if err := ledger.Confirm(now); err != nil {
			t.Fatalf("确认失败: %v", err)
		}
		if ledger.Status != CommissionStatusConfirmed || ledger.ConfirmedAt == nil {
			t.Errorf("确认后状态错误: status=%s", ledger.Status)
		}
		if ledger.PaidAt != nil {
			t.Error("确认不应设置paid_at")
		}

		paidAt := now.Add(time.Hour)
		if err := ledger.MarkAsPaid(paidAt); err != nil {
			t.Fatalf("支付失败: %v", err)
		}
		if ledger.Status != CommissionStatusPaid || ledger.PaidAt == nil || !ledger.PaidAt.Equal(paidAt) {
			t.Errorf("支付后状态错误: status=%s", ledger.Status)
		}
	})

	t.Run("非法迁移", func(t *testing.T) {
		// 未确认不能支付
		ledger := CommissionLedger{Status: CommissionStatusPending}
		if err := ledger.MarkAsPaid(now); !errors.Is(err, ErrCommissionNotConfirmed) {
			t.Errorf("PENDING支付应当报错: got=%v", err)
		}

		// 已确认不能重复确认
		ledger = CommissionLedger{Status: CommissionStatusConfirmed}
		if err := ledger.Confirm(now); !errors.Is(err, ErrCommissionNotPending) {
			t.Errorf("重复确认应当报错: got=%v", err)
		}

		// 已支付不能取消
		ledger = CommissionLedger{Status: CommissionStatusPaid}
		if err := ledger.Cancel(now); !errors.Is(err, ErrCommissionAlreadyPaid) {
			t.Errorf("取消已支付应当报错: got=%v", err)
		}

		// 已取消是终态
		ledger = CommissionLedger{Status: CommissionStatusCancelled}
		if err := ledger.Cancel(now); !errors.Is(err, ErrCommissionAlreadyCancelled) {
			t.Errorf("重复取消应当报错: got=%v", err)
		}
		if err := ledger.Confirm(now); !errors.Is(err, ErrCommissionNotPending) {
			t.Errorf("取消后确认应当报错: got=%v", err)
		}
	})

	t.Run("PENDING和CONFIRMED都可以取消", func(t *testing.T) {
		pending := CommissionLedger{Status: CommissionStatusPending}
		if err := pending.Cancel(now); err != nil {
			t.Errorf("取消PENDING失败: %v", err)
		}
		confirmed := CommissionLedger{Status: CommissionStatusConfirmed}
		if err := confirmed.Cancel(now); err != nil {
			t.Errorf("取消CONFIRMED失败: %v", err)
		}
	})
}

func TestAttributionSessionWindow(t *testing.T) {
	expires := time.Now()
	session := AttributionSession{ExpiresAt: expires}

	if !session.IsValid(expires.Add(-time.Second)) {
		t.Error("窗口内应当有效")
	}
	// 边界时刻仍然有效（闭区间）
	if !session.IsValid(expires) {
		t.Error("边界时刻应当有效")
	}
	if session.IsValid(expires.Add(time.Second)) {
		t.Error("出窗后应当无效")
	}
}
