package model

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// AskRequest 问答请求
// session_id为空时使用最近一次上传建立的会话
type AskRequest struct {
	SessionID string `json:"session_id" binding:"omitempty,session_id"` // 会话ID，可选
	Question  string `json:"question" binding:"required"`               // 用户问题
}

// sessionIDValidator 校验会话ID是否为合法的UUID
func sessionIDValidator(fl validator.FieldLevel) bool {
	_, err := uuid.Parse(fl.Field().String())
	return err == nil
}

// RegisterValidators 注册自定义请求参数校验规则
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("session_id", sessionIDValidator)
	}
}
