package utils

import (
	"crypto/rand"
	mathrand "math/rand"
	"time"

	"github.com/google/uuid"
)

// 短码字符集
const shortCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// 短码长度
const shortCodeLength = 8

// GenerateRandomCode 生成指定长度的随机字符码
func GenerateRandomCode(length int) string {
	code := make([]byte, length)

	// 使用安全的随机数生成
	_, err := rand.Read(code)
	if err != nil {
		// 如果安全随机数生成失败，回退到不安全的方法
		// 创建一个新的随机数生成器实例，而不是使用全局的Seed
		r := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))
		for i := range code {
			code[i] = shortCodeCharset[r.Intn(len(shortCodeCharset))]
		}
		return string(code)
	}

	// 将随机字节映射到字符集
	for i := range code {
		code[i] = shortCodeCharset[int(code[i])%len(shortCodeCharset)]
	}

	return string(code)
}

// GenerateShortCode 生成推广链接短码
func GenerateShortCode() string {
	return GenerateRandomCode(shortCodeLength)
}

// GenerateClickToken 生成点击追踪令牌
// 不透明令牌，写入跳转URL参数和Cookie
func GenerateClickToken() string {
	return uuid.NewString()
}

// GenerateSessionToken 生成归因会话令牌
func GenerateSessionToken() string {
	return uuid.NewString()
}
