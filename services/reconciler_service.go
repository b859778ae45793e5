package services

import (
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"dooring/database"
	"dooring/models"
	"dooring/utils"
)

// OrphanStaleThreshold 孤儿像素事件的补联时效
// 像素先于点击落库的竞态在秒级内就会消失，超过一小时仍解析不到
// 会话的事件基本可以断定令牌无效，放弃补联
const OrphanStaleThreshold = time.Hour

// ReconcileOrphanPixelEvents 对孤儿像素事件做一轮补联
// 扫描所有未绑定会话且未放弃的像素事件：
//   - 会话现在能解析到的，绑定会话并重新走归因判定
//   - 超过时效仍解析不到的，标记放弃
//
// 返回本轮补联成功和放弃的事件数
func ReconcileOrphanPixelEvents(now time.Time) (resolved int, abandoned int, err error) {
	db := database.GetDB()

	var orphans []models.PixelEvent
	if err := db.Where("attribution_session_id IS NULL AND abandoned_at IS NULL").
		Order("created_at ASC").
		Find(&orphans).Error; err != nil {
		return 0, 0, err
	}

	for i := range orphans {
		orphan := &orphans[i]

		session, err := FindSessionByToken(orphan.SessionToken)
		if err != nil {
			return resolved, abandoned, err
		}

		if session == nil {
			// 仍然解析不到：超时则放弃，否则留给下一轮
			if now.Sub(orphan.CreatedAt) > OrphanStaleThreshold {
				if err := db.Model(orphan).Update("abandoned_at", now).Error; err != nil {
					return resolved, abandoned, err
				}
				atomic.AddInt64(&metricOrphanPixelAbandoned, 1)
				abandoned++
				log.Printf("孤儿像素事件超时放弃: 店铺=%d 订单=%s",
					orphan.StoreID, orphan.ExternalOrderID)
			}
			continue
		}

		// 补联成功：绑定会话并重新走归因
		if err := db.Model(orphan).Update("attribution_session_id", session.ID).Error; err != nil {
			return resolved, abandoned, err
		}

		order, err := findOrCreateOrder(orphan.StoreID, orphan.ExternalOrderID,
			models.OrderStatusCreated, 0, &orphan.EventTime, false)
		if err != nil {
			return resolved, abandoned, err
		}

		_, err = MatchConversion(order.ID, ConversionSignal{
			Source:          SignalSourcePixel,
			StoreID:         orphan.StoreID,
			ExternalOrderID: orphan.ExternalOrderID,
			SessionToken:    orphan.SessionToken,
			OrderAmount:     order.TotalAmount,
			OrderTime:       orphan.EventTime,
		})
		if err != nil {
			// Webhook已先行归因等业务性结果不算失败
			var appErr *utils.AppError
			if errors.As(err, &appErr) {
				log.Printf("孤儿像素事件归因被拒绝: 店铺=%d 订单=%s 原因=%s",
					orphan.StoreID, orphan.ExternalOrderID, appErr.Code)
			} else {
				return resolved, abandoned, err
			}
		}

		atomic.AddInt64(&metricOrphanPixelResolved, 1)
		resolved++
	}

	return resolved, abandoned, nil
}

// 对账任务的运行状态
var (
	reconcilerStop chan struct{}
	reconcilerWG   sync.WaitGroup
	reconcilerMu   sync.Mutex
)

// StartOrphanReconciler 启动孤儿像素事件的后台对账任务
// 按固定间隔执行，重复调用是无操作
func StartOrphanReconciler(interval time.Duration) {
	reconcilerMu.Lock()
	defer reconcilerMu.Unlock()

	if reconcilerStop != nil {
		return
	}
	reconcilerStop = make(chan struct{})
	stop := reconcilerStop

	reconcilerWG.Add(1)
	go func() {
		defer reconcilerWG.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Printf("孤儿像素事件对账任务已启动，间隔=%s", interval)
		for {
			select {
			case <-stop:
				log.Println("孤儿像素事件对账任务已停止")
				return
			case <-ticker.C:
				resolved, abandoned, err := ReconcileOrphanPixelEvents(time.Now())
				if err != nil {
					log.Printf("孤儿像素事件对账失败: %v", err)
					continue
				}
				if resolved > 0 || abandoned > 0 {
					log.Printf("孤儿像素事件对账完成: 补联=%d 放弃=%d", resolved, abandoned)
				}
			}
		}
	}()
}

// StopOrphanReconciler 停止后台对账任务并等待退出
// 未启动时调用是无操作
func StopOrphanReconciler() {
	reconcilerMu.Lock()
	defer reconcilerMu.Unlock()

	if reconcilerStop == nil {
		return
	}
	close(reconcilerStop)
	reconcilerWG.Wait()
	reconcilerStop = nil
}
