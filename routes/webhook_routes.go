package routes

import (
	"github.com/gofiber/fiber/v2"

	"dooring/handlers"
)

// RegisterWebhookRoutes 设置平台Webhook路由
// Webhook由平台服务端投递，鉴权由网关层的投递签名完成
func RegisterWebhookRoutes(api fiber.Router) {
	webhooks := api.Group("/webhooks")

	webhooks.Post("/orders", handlers.ReceiveOrderWebhook) // 接收订单生命周期投递
}
