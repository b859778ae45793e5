// Package routes 注册应用程序的所有HTTP路由
package routes

import (
	"github.com/gofiber/fiber/v2"

	"dooring/handlers"
)

// SetupRoutes 设置所有API路由
// 调用各个模块的路由注册函数
func SetupRoutes(app *fiber.App) {
	// API路由组
	api := app.Group("/api")

	// 设置各模块路由
	RegisterTrackingRoutes(api)
	RegisterWebhookRoutes(api)
	RegisterLinkRoutes(api)
	RegisterReportRoutes(api)

	// 运行期指标
	api.Get("/metrics", handlers.GetMetrics)
}
