package utils

import (
	"github.com/go-playground/validator/v10"
)

// validate 全局校验器实例
// validator内部缓存结构体元信息，复用单例可以避免重复反射
var validate = validator.New()

// ValidateStruct 校验请求载荷
// 校验失败时返回统一的INVALID_INPUT_VALUE业务错误，
// 具体字段信息记录在返回错误的Message中
func ValidateStruct(payload interface{}) error {
	if err := validate.Struct(payload); err != nil {
		return &AppError{
			Code:    ErrInvalidInput.Code,
			Status:  ErrInvalidInput.Status,
			Message: "输入参数不合法: " + err.Error(),
		}
	}
	return nil
}
