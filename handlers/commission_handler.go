package handlers

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"dooring/models"
	"dooring/services"
	"dooring/utils"
)

// MarkCommissionPaid 卖家标记佣金已支付
// 路由: POST /api/commissions/:id/pay （卖家认证）
// 只有CONFIRMED状态的佣金可以标记支付，状态不符返回409，
// 调用方应重读当前状态而不是盲目重试
func MarkCommissionPaid(c *fiber.Ctx) error {
	sellerID, ok := c.Locals("seller_id").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "未提供有效的认证令牌",
		})
	}

	ledgerID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return utils.RespondError(c, utils.ErrInvalidInput)
	}

	if err := services.MarkCommissionPaid(uint(ledgerID), sellerID); err != nil {
		// 状态机迁移错误统一映射为冲突
		if errors.Is(err, models.ErrCommissionNotConfirmed) ||
			errors.Is(err, models.ErrCommissionNotPending) ||
			errors.Is(err, models.ErrCommissionAlreadyPaid) ||
			errors.Is(err, models.ErrCommissionAlreadyCancelled) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
				"code":  "ILLEGAL_COMMISSION_TRANSITION",
			})
		}
		if _, ok := err.(*utils.AppError); !ok {
			log.Printf("标记佣金支付失败: 原账=%d 卖家=%d 错误=%v", ledgerID, sellerID, err)
		}
		return utils.RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"paid": true,
	})
}
