// Package utils 提供应用程序的通用工具函数
package utils

import (
	"github.com/gofiber/fiber/v2"
)

// AppError 业务错误
// 携带稳定的错误代码和HTTP状态码，网关和前端按code识别错误类型
type AppError struct {
	Code    string // 错误代码，对外稳定
	Status  int    // HTTP状态码
	Message string // 错误描述
}

// Error 实现error接口
func (e *AppError) Error() string {
	return e.Message
}

// 业务错误定义
// NotFound类错误调用方不应盲目重试；Expired是业务上的正常终止而非系统故障
var (
	ErrInvalidInput = &AppError{Code: "INVALID_INPUT_VALUE", Status: fiber.StatusBadRequest, Message: "输入参数不合法"}

	// Catalog
	ErrProductNotFound   = &AppError{Code: "PRODUCT_NOT_FOUND", Status: fiber.StatusNotFound, Message: "商品不存在"}
	ErrCampaignNotActive = &AppError{Code: "CAMPAIGN_NOT_ACTIVE", Status: fiber.StatusBadRequest, Message: "商品当前没有运营中的活动，无法发放推广链接"}

	// Tracking
	ErrLinkNotFound = &AppError{Code: "LINK_NOT_FOUND", Status: fiber.StatusNotFound, Message: "推广链接不存在"}

	// Attribution
	ErrDuplicateAttribution     = &AppError{Code: "DUPLICATE_ATTRIBUTION", Status: fiber.StatusConflict, Message: "订单已经完成归因"}
	ErrAttributionWindowExpired = &AppError{Code: "ATTRIBUTION_WINDOW_EXPIRED", Status: fiber.StatusBadRequest, Message: "归因窗口已过期"}

	// Commission
	ErrCommissionNotFound = &AppError{Code: "COMMISSION_NOT_FOUND", Status: fiber.StatusNotFound, Message: "佣金记录不存在"}
	ErrNoPermission       = &AppError{Code: "NO_PERMISSION", Status: fiber.StatusForbidden, Message: "没有操作该资源的权限"}
)

// RespondError 按统一格式渲染错误响应
// AppError按自身状态码输出，其余错误一律按500处理，避免内部细节外泄
func RespondError(c *fiber.Ctx, err error) error {
	if appErr, ok := err.(*AppError); ok {
		return c.Status(appErr.Status).JSON(fiber.Map{
			"error": appErr.Message,
			"code":  appErr.Code,
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "服务器内部错误",
	})
}
