package routes

import (
	"github.com/gofiber/fiber/v2"

	"dooring/handlers"
	"dooring/middleware"
)

// RegisterLinkRoutes 设置推广链接路由
// 链接的发放和查询都需要创作者认证
func RegisterLinkRoutes(api fiber.Router) {
	links := api.Group("/links", middleware.CreatorAuthMiddleware())

	links.Post("/", handlers.IssueLink)      // 发放推广链接
	links.Get("/", handlers.GetCreatorLinks) // 查询本人全部链接
}
