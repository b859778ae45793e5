package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"dooring/services"
	"dooring/utils"
)

// ReceiveOrderWebhook 接收平台订单Webhook
// 路由: POST /api/webhooks/orders
// 平台按订单生命周期多次投递，同一(店铺, 订单, 状态)的重放被静默去重
// 归因类业务错误按各自的状态码返回，平台侧据此决定是否重试
func ReceiveOrderWebhook(c *fiber.Ctx) error {
	var payload services.OrderWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "参数解析失败: " + err.Error(),
		})
	}

	attribution, err := services.IngestOrderWebhook(&payload)
	if err != nil {
		if _, ok := err.(*utils.AppError); !ok {
			log.Printf("处理订单Webhook失败: 店铺=%d 订单=%s 状态=%s 错误=%v",
				payload.StoreID, payload.ExternalOrderID, payload.Status, err)
		}
		return utils.RespondError(c, err)
	}

	response := fiber.Map{
		"received": true,
	}
	if attribution != nil {
		response["attribution_id"] = attribution.ID
	}
	return c.Status(fiber.StatusOK).JSON(response)
}
