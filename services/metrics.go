// Package services 实现归因与佣金的核心业务逻辑
// 处理函数只做参数解析和响应渲染，状态变更全部经由本包
package services

import (
	"sync/atomic"
)

// 运行期计数器
// 用原子变量累计关键事件数量，经由指标接口对外暴露
// 进程重启后清零，跨重启的统计以数据库为准
var (
	metricAttributionsCreated      int64 // 成功创建的归因数
	metricUnattributedConversions  int64 // 找不到任何候选点击的转化数
	metricExpiredWindowRejections  int64 // 因归因窗口过期被拒绝的转化数
	metricDuplicateWebhookEvents   int64 // 被去重的Webhook重放数
	metricDuplicatePixelEvents     int64 // 被去重的像素重放数
	metricOrphanPixelEvents        int64 // 落库时未能解析会话的像素事件数
	metricOrphanPixelResolved      int64 // 对账任务补联成功的孤儿事件数
	metricOrphanPixelAbandoned     int64 // 超过时效被放弃的孤儿事件数
)

// MetricsSnapshot 指标快照
type MetricsSnapshot struct {
	AttributionsCreated     int64 `json:"attributions_created"`      // 成功创建的归因数
	UnattributedConversions int64 `json:"unattributed_conversions"`  // 无候选点击的转化数
	ExpiredWindowRejections int64 `json:"expired_window_rejections"` // 窗口过期拒绝数
	DuplicateWebhookEvents  int64 `json:"duplicate_webhook_events"`  // Webhook重放数
	DuplicatePixelEvents    int64 `json:"duplicate_pixel_events"`    // 像素重放数
	OrphanPixelEvents       int64 `json:"orphan_pixel_events"`       // 孤儿像素事件数
	OrphanPixelResolved     int64 `json:"orphan_pixel_resolved"`     // 补联成功数
	OrphanPixelAbandoned    int64 `json:"orphan_pixel_abandoned"`    // 放弃补联数
}

// SnapshotMetrics 读取当前指标快照
func SnapshotMetrics() MetricsSnapshot {
	return MetricsSnapshot{
		AttributionsCreated:     atomic.LoadInt64(&metricAttributionsCreated),
		UnattributedConversions: atomic.LoadInt64(&metricUnattributedConversions),
		ExpiredWindowRejections: atomic.LoadInt64(&metricExpiredWindowRejections),
		DuplicateWebhookEvents:  atomic.LoadInt64(&metricDuplicateWebhookEvents),
		DuplicatePixelEvents:    atomic.LoadInt64(&metricDuplicatePixelEvents),
		OrphanPixelEvents:       atomic.LoadInt64(&metricOrphanPixelEvents),
		OrphanPixelResolved:     atomic.LoadInt64(&metricOrphanPixelResolved),
		OrphanPixelAbandoned:    atomic.LoadInt64(&metricOrphanPixelAbandoned),
	}
}
