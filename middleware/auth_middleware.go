package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"dooring/utils"
)

// CreatorAuthMiddleware 验证创作者身份的中间件
// 该中间件负责处理所有需要创作者身份验证的路由请求
// 令牌由外部身份服务签发，这里只做验签和声明提取，不查询账号表
//
// 认证成功后，会将创作者ID存储在请求上下文中，供后续处理函数使用
// 认证失败则会返回401和错误信息
func CreatorAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 从请求头获取Authorization
		// 检查是否提供了Bearer令牌
		authHeader := c.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "未提供有效的认证令牌",
			})
		}

		// 从Authorization头中提取令牌
		// 去掉"Bearer "前缀，获取实际的JWT令牌字符串
		tokenString := authHeader[7:]

		// 解析令牌
		// 验证JWT令牌的签名并提取声明信息
		claims, err := utils.ParseCreatorToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "无效的认证令牌",
			})
		}

		// 将创作者信息存储在上下文中，供后续处理函数使用
		// 这些信息可以通过c.Locals()在后续处理函数中获取
		c.Locals("creator_id", claims.CreatorID)
		c.Locals("creator_nickname", claims.Nickname)

		// 继续处理请求
		return c.Next()
	}
}

// SellerAuthMiddleware 验证卖家身份的中间件
// 与创作者中间件相同的Bearer令牌流程，但使用卖家声明
func SellerAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 从请求头获取Authorization
		authHeader := c.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "未提供有效的认证令牌",
			})
		}

		// 从Authorization头中提取令牌
		tokenString := authHeader[7:]

		// 解析令牌
		claims, err := utils.ParseSellerToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "无效的认证令牌",
			})
		}

		// 将卖家信息存储在上下文中，供后续处理函数使用
		c.Locals("seller_id", claims.SellerID)
		c.Locals("seller_email", claims.Email)

		// 继续处理请求
		return c.Next()
	}
}
