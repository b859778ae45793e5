package routes

import (
	"github.com/gofiber/fiber/v2"

	"dooring/handlers"
)

// RegisterTrackingRoutes 设置点击追踪和像素上报路由
// 这两条通路由跳转服务和浏览器调用，不走创作者/卖家认证
func RegisterTrackingRoutes(api fiber.Router) {
	tracking := api.Group("/tracking")

	tracking.Post("/clicks/:short_code", handlers.RecordClick) // 记录点击并创建归因会话
	tracking.Post("/pixel", handlers.ReceivePixelEvent)        // 接收浏览器像素上报
}
