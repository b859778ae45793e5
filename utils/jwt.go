package utils

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log"
	"os"

	"github.com/golang-jwt/jwt/v4"
)

// 从环境变量获取JWT密钥，如果未设置则使用随机生成的密钥
// 令牌由外部身份服务签发，本服务只做验签；双方必须共享同一个密钥
// 在生产环境中，应确保设置了环境变量JWT_SECRET
var jwtSecret = getJWTSecret()

// getJWTSecret 从环境变量获取JWT密钥
// 如果环境变量未设置，则生成随机密钥（仅用于开发环境）
func getJWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		// 检查当前环境
		env := os.Getenv("ENV")
		if env == "production" {
			log.Fatal("在生产环境中必须设置JWT_SECRET环境变量")
		}

		// 在开发环境中，生成随机密钥
		// 注意：随机密钥无法验证身份服务签发的令牌，仅保证进程能启动
		log.Println("警告: JWT_SECRET环境变量未设置，将使用随机生成的密钥（仅用于开发环境）")

		// 生成32字节的随机密钥
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err != nil {
			log.Printf("生成随机密钥失败: %v，将使用备用密钥", err)
			return []byte("dooring_jwt_secret_key_for_development_only_do_not_use_in_production_environment")
		}

		secret = base64.StdEncoding.EncodeToString(randomKey)
	}

	// 确保密钥长度足够
	if len(secret) < 16 {
		log.Println("警告: JWT密钥长度不足，建议使用至少32字符的密钥")
	}

	return []byte(secret)
}

// CreatorClaims 创作者令牌声明
// 身份服务签发的创作者访问令牌中携带的信息
type CreatorClaims struct {
	CreatorID            uint   `json:"creator_id"` // 创作者ID
	Nickname             string `json:"nickname"`   // 创作者昵称，用于日志
	jwt.RegisteredClaims        // 标准JWT声明（过期时间、签发时间等）
}

// SellerClaims 卖家令牌声明
type SellerClaims struct {
	SellerID             uint   `json:"seller_id"` // 卖家ID
	Email                string `json:"email"`     // 卖家邮箱，用于日志
	jwt.RegisteredClaims        // 标准JWT声明
}

// ParseCreatorToken 解析并验证创作者JWT令牌
// 验证签名算法和有效期，提取创作者声明
func ParseCreatorToken(tokenString string) (*CreatorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CreatorClaims{}, func(token *jwt.Token) (interface{}, error) {
		// 验证签名算法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("无效的签名方法")
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*CreatorClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("无效的令牌")
}

// ParseSellerToken 解析并验证卖家JWT令牌
func ParseSellerToken(tokenString string) (*SellerClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SellerClaims{}, func(token *jwt.Token) (interface{}, error) {
		// 验证签名算法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("无效的签名方法")
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*SellerClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("无效的令牌")
}
