// Package handlers 实现HTTP请求的处理函数
// 处理函数只负责参数解析、调用业务逻辑和渲染响应
package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"dooring/services"
	"dooring/utils"
)

// RecordClick 记录推广链接点击
// 路由: POST /api/tracking/clicks/:short_code
// 记录点击日志并创建24小时归因会话，返回追踪令牌和跳转地址
// 调用方（跳转服务）负责把会话令牌写入第一方Cookie并执行302跳转
func RecordClick(c *fiber.Ctx) error {
	shortCode := c.Params("short_code")
	if shortCode == "" {
		return utils.RespondError(c, utils.ErrInvalidInput)
	}

	result, err := services.RecordClick(shortCode, c.IP(), c.Get("User-Agent"))
	if err != nil {
		if _, ok := err.(*utils.AppError); !ok {
			log.Printf("记录点击失败: 短码=%s 错误=%v", shortCode, err)
		}
		return utils.RespondError(c, err)
	}

	// 会话令牌同时写入响应Cookie，跳转服务可以直接透传
	c.Cookie(&fiber.Cookie{
		Name:     "dr_token",
		Value:    result.SessionToken,
		Expires:  time.Now().Add(services.AttributionWindow),
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return c.Status(fiber.StatusCreated).JSON(result)
}

// ReceivePixelEvent 接收浏览器像素上报
// 路由: POST /api/tracking/pixel
// 像素通路对上报方永远成功（202），业务性的失败记录在日志和指标里，
// 避免浏览器端因非2xx响应反复重试
func ReceivePixelEvent(c *fiber.Ctx) error {
	var payload services.PixelEventPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "参数解析失败: " + err.Error(),
		})
	}

	if err := services.IngestPixelEvent(&payload); err != nil {
		// 载荷不合法仍然报给上报方，便于像素脚本排障
		if appErr, ok := err.(*utils.AppError); ok && appErr.Code == utils.ErrInvalidInput.Code {
			return utils.RespondError(c, err)
		}
		log.Printf("处理像素事件失败: 店铺=%d 订单=%s 错误=%v",
			payload.StoreID, payload.ExternalOrderID, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"accepted": true,
	})
}
