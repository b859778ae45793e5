package services

import (
	"errors"
	"log"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"dooring/database"
	"dooring/models"
	"dooring/utils"
)

// 转化信号来源
const (
	SignalSourceWebhook = "webhook" // 平台Webhook投递
	SignalSourcePixel   = "pixel"   // 浏览器像素上报
)

// ConversionSignal 归一化的转化信号
// Webhook和像素两条通路在进入归因之前都先转换成这个结构
type ConversionSignal struct {
	Source          string    // 信号来源（webhook/pixel）
	StoreID         uint      // 店铺ID
	ExternalOrderID string    // 平台订单ID
	SessionToken    string    // 随信号携带的会话令牌，可为空
	ProductID       uint      // 下单商品ID，last-click兜底的检索范围
	OrderAmount     float64   // 订单金额
	OrderTime       time.Time // 下单时间
}

// MatchConversion 对一条转化信号执行归因判定
// 算法（last-click）：
//  1. 解析候选点击：优先按会话令牌取会话绑定的点击；令牌缺失或
//     无法识别时，退回到商品维度的last-click检索（下单前24小时内最近一次点击）
//  2. 订单已有归因时幂等处理：候选与已有归因指向同一点击（或无候选）
//     直接返回已有归因；指向不同点击说明信号矛盾，报DUPLICATE_ATTRIBUTION
//  3. 会话存在但已出窗的信号明确拒绝，不做兜底检索
//  4. 按点击上的佣金快照派生佣金，归因和佣金原账在同一事务中创建
//
// 无法归因（没有任何候选点击、或点击发生在非活动期）不是错误，返回(nil, nil)
func MatchConversion(orderID uint, sig ConversionSignal) (*models.Attribution, error) {
	db := database.GetDB()

	// 解析候选点击
	candidate, windowExpired, err := resolveClick(sig)
	if err != nil {
		return nil, err
	}

	// 幂等检查：订单已经归因过则收敛到已有结果
	var existing models.Attribution
	err = db.Where("order_id = ?", orderID).First(&existing).Error
	if err == nil {
		if candidate == nil || candidate.ID == existing.ClickID {
			return &existing, nil
		}
		// 同一订单的两条信号指向不同点击，属于数据矛盾而非重放
		return nil, utils.ErrDuplicateAttribution
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 会话出窗：明确拒绝，不允许退回last-click兜底
	// 兜底只服务于令牌丢失的场景，出窗是业务上的正常终止
	if windowExpired {
		atomic.AddInt64(&metricExpiredWindowRejections, 1)
		return nil, utils.ErrAttributionWindowExpired
	}

	// 没有候选点击：自然流量订单，不产生归因
	if candidate == nil {
		atomic.AddInt64(&metricUnattributedConversions, 1)
		return nil, nil
	}

	// 非活动期的点击没有佣金条款快照，不产生归因和佣金
	if candidate.CampaignID == nil {
		atomic.AddInt64(&metricUnattributedConversions, 1)
		return nil, nil
	}

	// 佣金派生所需的活动条款和分账主体
	var campaign models.Campaign
	if err := db.First(&campaign, *candidate.CampaignID).Error; err != nil {
		return nil, err
	}
	var link models.Link
	if err := db.First(&link, candidate.LinkID).Error; err != nil {
		return nil, err
	}

	// 派生结果必须为正数，金额为0的佣金原账没有意义
	// 快照金额为0且没有比例快照的点击按无候选处理
	amount := deriveCommission(candidate, &campaign, sig.OrderAmount)
	if amount <= 0 {
		atomic.AddInt64(&metricUnattributedConversions, 1)
		return nil, nil
	}

	attribution := models.Attribution{
		OrderID:      orderID,
		ClickID:      candidate.ID,
		CampaignID:   *candidate.CampaignID,
		AttributedAt: time.Now(),
	}
	ledger := models.CommissionLedger{
		CampaignID: campaign.ID,
		CreatorID:  link.CreatorID,
		SellerID:   campaign.SellerID,
		Amount:     amount,
		Status:     models.CommissionStatusPending,
	}

	// 归因和佣金原账必须一起落库，不允许出现没有佣金的归因
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&attribution).Error; err != nil {
			return err
		}
		ledger.AttributionID = attribution.ID
		return tx.Create(&ledger).Error
	})
	if err != nil {
		// 并发竞争时order_id唯一约束收敛：读回先到者的结果
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var winner models.Attribution
			if readErr := db.Where("order_id = ?", orderID).First(&winner).Error; readErr != nil {
				return nil, readErr
			}
			return &winner, nil
		}
		return nil, err
	}

	atomic.AddInt64(&metricAttributionsCreated, 1)
	log.Printf("归因成功: 订单=%d 点击=%d 活动=%d 佣金=%.0f (来源=%s)",
		orderID, candidate.ID, campaign.ID, amount, sig.Source)
	return &attribution, nil
}

// resolveClick 解析转化信号对应的候选点击
// 返回值:
//   - 候选点击，没有候选时为nil
//   - 会话是否已出窗（出窗时候选为nil）
func resolveClick(sig ConversionSignal) (*models.Click, bool, error) {
	db := database.GetDB()

	// 优先按会话令牌解析
	if sig.SessionToken != "" {
		session, err := FindSessionByToken(sig.SessionToken)
		if err != nil {
			return nil, false, err
		}
		if session != nil {
			if !session.IsValid(sig.OrderTime) {
				return nil, true, nil
			}
			var click models.Click
			if err := db.First(&click, session.ClickID).Error; err != nil {
				return nil, false, err
			}
			return &click, false, nil
		}
		// 令牌无法识别时继续走last-click兜底
	}

	// last-click兜底：下单前24小时内该商品最近的一次点击
	// Cookie被清除或第三方页面丢参时的恢复路径
	if sig.ProductID == 0 {
		return nil, false, nil
	}
	windowStart := sig.OrderTime.Add(-AttributionWindow)
	var click models.Click
	err := db.
		Select("clicks.*").
		Joins("JOIN links ON links.id = clicks.link_id").
		Where("links.product_id = ? AND clicks.clicked_at >= ? AND clicks.clicked_at <= ?",
			sig.ProductID, windowStart, sig.OrderTime).
		Order("clicks.clicked_at DESC").
		First(&click).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &click, false, nil
}

// deriveCommission 按点击快照派生佣金金额
// 固定金额快照优先；只有比例快照时按订单金额计算并兜底到活动最低佣金
// 派生只用点击时的快照条款，活动当前条款的变化不参与计算
func deriveCommission(click *models.Click, campaign *models.Campaign, orderAmount float64) float64 {
	if click.CommissionSnapshotAmount != nil && *click.CommissionSnapshotAmount > 0 {
		return *click.CommissionSnapshotAmount
	}
	if click.CommissionSnapshotRate != nil {
		amount := *click.CommissionSnapshotRate * orderAmount
		if amount < campaign.MinCommission {
			amount = campaign.MinCommission
		}
		return amount
	}
	return 0
}
