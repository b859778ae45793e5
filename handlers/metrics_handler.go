package handlers

import (
	"github.com/gofiber/fiber/v2"

	"dooring/services"
)

// GetMetrics 查询运行期指标快照
// 路由: GET /api/metrics
// 进程内计数器，重启清零；历史统计以报表接口为准
func GetMetrics(c *fiber.Ctx) error {
	return c.JSON(services.SnapshotMetrics())
}
