package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"dooring/services"
	"dooring/utils"
)

// IssueLink 为当前创作者发放商品推广链接
// 路由: POST /api/links （创作者认证）
// 同一创作者对同一商品重复申请返回已有链接
func IssueLink(c *fiber.Ctx) error {
	creatorID, ok := c.Locals("creator_id").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "未提供有效的认证令牌",
		})
	}

	var payload struct {
		ProductID uint `json:"product_id"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "参数解析失败: " + err.Error(),
		})
	}
	if payload.ProductID == 0 {
		return utils.RespondError(c, utils.ErrInvalidInput)
	}

	info, err := services.IssueLink(creatorID, payload.ProductID)
	if err != nil {
		if _, ok := err.(*utils.AppError); !ok {
			log.Printf("发放推广链接失败: 创作者=%d 商品=%d 错误=%v", creatorID, payload.ProductID, err)
		}
		return utils.RespondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(info)
}

// GetCreatorLinks 查询当前创作者的全部推广链接
// 路由: GET /api/links （创作者认证）
func GetCreatorLinks(c *fiber.Ctx) error {
	creatorID, ok := c.Locals("creator_id").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "未提供有效的认证令牌",
		})
	}

	links, err := services.GetCreatorLinks(creatorID)
	if err != nil {
		log.Printf("查询推广链接失败: 创作者=%d 错误=%v", creatorID, err)
		return utils.RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"links": links,
		"total": len(links),
	})
}
