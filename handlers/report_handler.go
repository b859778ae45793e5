package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"dooring/services"
	"dooring/utils"
)

// GetCreatorReport 查询当前创作者的收益报表
// 路由: GET /api/reports/creator （创作者认证）
func GetCreatorReport(c *fiber.Ctx) error {
	creatorID, ok := c.Locals("creator_id").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "未提供有效的认证令牌",
		})
	}

	report, err := services.BuildCreatorReport(creatorID)
	if err != nil {
		log.Printf("生成创作者报表失败: 创作者=%d 错误=%v", creatorID, err)
		return utils.RespondError(c, err)
	}
	return c.JSON(report)
}

// GetSellerReport 查询当前卖家的结算报表
// 路由: GET /api/reports/seller （卖家认证）
func GetSellerReport(c *fiber.Ctx) error {
	sellerID, ok := c.Locals("seller_id").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "未提供有效的认证令牌",
		})
	}

	report, err := services.BuildSellerReport(sellerID)
	if err != nil {
		log.Printf("生成卖家报表失败: 卖家=%d 错误=%v", sellerID, err)
		return utils.RespondError(c, err)
	}
	return c.JSON(report)
}
