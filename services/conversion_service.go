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

// OrderWebhookPayload 平台订单Webhook载荷
type OrderWebhookPayload struct {
	StoreID         uint       `json:"store_id" validate:"required"`          // 店铺ID
	ExternalOrderID string     `json:"external_order_id" validate:"required"` // 平台订单ID
	Status          string     `json:"status" validate:"required,oneof=CREATED PAID DELIVERED CONFIRMED CANCELLED REFUNDED"` // 订单状态
	ProductID       uint       `json:"product_id"`                            // 下单商品ID，可为空
	OrderAmount     float64    `json:"order_amount" validate:"gte=0"`         // 订单金额
	SessionToken    string     `json:"session_token"`                         // 会话令牌，可为空
	OrderedAt       *time.Time `json:"ordered_at"`                            // 下单时间，缺省取收到时间
}

// PixelEventPayload 浏览器像素上报载荷
type PixelEventPayload struct {
	StoreID         uint       `json:"store_id" validate:"required"`          // 店铺ID
	ExternalOrderID string     `json:"external_order_id" validate:"required"` // 平台订单ID
	SessionToken    string     `json:"session_token" validate:"required"`     // dr_token参数里的会话令牌
	ProductID       uint       `json:"product_id"`                            // 下单商品ID，可为空
	OrderAmount     float64    `json:"order_amount" validate:"gte=0"`         // 订单金额
	EventTime       *time.Time `json:"event_time"`                            // 事件时间，缺省取收到时间
}

// IngestOrderWebhook 处理一条订单Webhook投递
// 流程：
//  1. 按(store_id, external_order_id, status)做幂等落库，重放直接短路
//  2. 订单投影创建或更新（Webhook是订单状态的权威来源）
//  3. 建单类状态（CREATED/PAID）触发归因判定
//  4. 所有状态送入原账策略，驱动佣金确认/取消
//
// 归因类业务错误（重复归因、窗口过期）原样上抛，由处理函数映射HTTP状态码
func IngestOrderWebhook(payload *OrderWebhookPayload) (*models.Attribution, error) {
	if err := utils.ValidateStruct(payload); err != nil {
		return nil, err
	}

	db := database.GetDB()
	orderTime := time.Now()
	if payload.OrderedAt != nil {
		orderTime = *payload.OrderedAt
	}

	// 幂等落库：同一(店铺, 订单, 状态)只处理一次
	event := models.OrderWebhookEvent{
		StoreID:         payload.StoreID,
		ExternalOrderID: payload.ExternalOrderID,
		Status:          payload.Status,
		OrderAmount:     payload.OrderAmount,
		SessionToken:    payload.SessionToken,
	}
	if err := db.Create(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			atomic.AddInt64(&metricDuplicateWebhookEvents, 1)
			log.Printf("Webhook重放已忽略: 店铺=%d 订单=%s 状态=%s",
				payload.StoreID, payload.ExternalOrderID, payload.Status)
			// 重放不再处理，但把订单已有的归因读回给投递方
			return findExistingAttribution(payload.StoreID, payload.ExternalOrderID)
		}
		return nil, err
	}

	// 订单投影：Webhook携带的状态覆盖投影状态
	order, err := findOrCreateOrder(payload.StoreID, payload.ExternalOrderID,
		payload.Status, payload.OrderAmount, &orderTime, true)
	if err != nil {
		return nil, err
	}

	// 建单类状态触发归因；生命周期后续状态只驱动原账
	var attribution *models.Attribution
	if payload.Status == models.OrderStatusCreated || payload.Status == models.OrderStatusPaid {
		attribution, err = MatchConversion(order.ID, ConversionSignal{
			Source:          SignalSourceWebhook,
			StoreID:         payload.StoreID,
			ExternalOrderID: payload.ExternalOrderID,
			SessionToken:    payload.SessionToken,
			ProductID:       payload.ProductID,
			OrderAmount:     payload.OrderAmount,
			OrderTime:       orderTime,
		})
		if err != nil {
			return nil, err
		}
	}

	if err := ApplyOrderStatusToLedger(order.ID, payload.Status); err != nil {
		return nil, err
	}

	return attribution, nil
}

// IngestPixelEvent 处理一条像素上报
// 像素通路永远对上报方成功（处理函数固定返回202），这里把业务性的
// 失败降级为日志和指标，避免浏览器端重试风暴
// 流程：
//  1. 按(store_id, external_order_id)幂等落库，重放短路
//  2. 解析会话令牌；解析不到就作为孤儿事件留给对账任务
//  3. 解析成功则建立订单投影并触发归因
func IngestPixelEvent(payload *PixelEventPayload) error {
	if err := utils.ValidateStruct(payload); err != nil {
		return err
	}

	db := database.GetDB()
	eventTime := time.Now()
	if payload.EventTime != nil {
		eventTime = *payload.EventTime
	}

	pixel := models.PixelEvent{
		StoreID:         payload.StoreID,
		ExternalOrderID: payload.ExternalOrderID,
		SessionToken:    payload.SessionToken,
		EventTime:       eventTime,
	}
	if err := db.Create(&pixel).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			atomic.AddInt64(&metricDuplicatePixelEvents, 1)
			return nil
		}
		return err
	}

	// 解析会话令牌
	// Webhook先到时会话查得到；像素先于点击落库的竞态、或令牌被篡改时
	// 查不到，留作孤儿由对账任务补联
	session, err := FindSessionByToken(payload.SessionToken)
	if err != nil {
		return err
	}
	if session == nil {
		atomic.AddInt64(&metricOrphanPixelEvents, 1)
		log.Printf("像素事件暂无法解析会话，已登记为孤儿: 店铺=%d 订单=%s",
			payload.StoreID, payload.ExternalOrderID)
		return nil
	}

	// 绑定会话并触发归因
	if err := db.Model(&pixel).Update("attribution_session_id", session.ID).Error; err != nil {
		return err
	}

	order, err := findOrCreateOrder(payload.StoreID, payload.ExternalOrderID,
		models.OrderStatusCreated, payload.OrderAmount, &eventTime, false)
	if err != nil {
		return err
	}

	_, err = MatchConversion(order.ID, ConversionSignal{
		Source:          SignalSourcePixel,
		StoreID:         payload.StoreID,
		ExternalOrderID: payload.ExternalOrderID,
		SessionToken:    payload.SessionToken,
		ProductID:       payload.ProductID,
		OrderAmount:     payload.OrderAmount,
		OrderTime:       eventTime,
	})
	if err != nil {
		// 出窗、信号矛盾等业务性拒绝不向上报方暴露
		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			log.Printf("像素事件归因被拒绝: 店铺=%d 订单=%s 原因=%s",
				payload.StoreID, payload.ExternalOrderID, appErr.Code)
			return nil
		}
		return err
	}
	return nil
}

// findExistingAttribution 读回订单已有的归因结果
// 订单或归因不存在时返回(nil, nil)，重放一个未归因订单不是错误
func findExistingAttribution(storeID uint, externalOrderID string) (*models.Attribution, error) {
	db := database.GetDB()

	var order models.Order
	err := db.Where("store_id = ? AND external_order_id = ?",
		storeID, externalOrderID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var attribution models.Attribution
	err = db.Where("order_id = ?", order.ID).First(&attribution).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &attribution, nil
}

// findOrCreateOrder 按(store_id, external_order_id)幂等创建订单投影
// overwriteStatus为真时（Webhook来源）用传入状态覆盖已有投影的状态和金额；
// 像素来源不覆盖，像素对订单生命周期没有发言权
func findOrCreateOrder(storeID uint, externalOrderID string, status string,
	amount float64, orderedAt *time.Time, overwriteStatus bool) (*models.Order, error) {
	db := database.GetDB()

	order := models.Order{
		StoreID:         storeID,
		ExternalOrderID: externalOrderID,
		Status:          status,
		TotalAmount:     amount,
		OrderedAt:       orderedAt,
	}
	err := db.Create(&order).Error
	if err == nil {
		return &order, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, err
	}

	// 已存在：读回并按来源决定是否覆盖状态
	var existing models.Order
	if err := db.Where("store_id = ? AND external_order_id = ?",
		storeID, externalOrderID).First(&existing).Error; err != nil {
		return nil, err
	}
	if overwriteStatus {
		updates := map[string]interface{}{
			"status":       status,
			"total_amount": amount,
		}
		if err := db.Model(&existing).Updates(updates).Error; err != nil {
			return nil, err
		}
		existing.Status = status
		existing.TotalAmount = amount
	}
	return &existing, nil
}
