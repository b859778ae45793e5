package routes

import (
	"github.com/gofiber/fiber/v2"

	"dooring/handlers"
	"dooring/middleware"
)

// RegisterReportRoutes 设置报表和佣金结算路由
func RegisterReportRoutes(api fiber.Router) {
	reports := api.Group("/reports")

	reports.Get("/creator", middleware.CreatorAuthMiddleware(), handlers.GetCreatorReport) // 创作者收益报表
	reports.Get("/seller", middleware.SellerAuthMiddleware(), handlers.GetSellerReport)    // 卖家结算报表

	// 佣金支付标记 - 仅卖家
	commissions := api.Group("/commissions", middleware.SellerAuthMiddleware())
	commissions.Post("/:id/pay", handlers.MarkCommissionPaid) // 标记佣金已支付
}
