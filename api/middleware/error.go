package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/expert-QA-system/api/model"
)

// 应用错误类别
const (
	ErrorTypeValidation = "VALIDATION_ERROR" // 请求参数校验失败
	ErrorTypeInternal   = "INTERNAL_ERROR"   // 服务端内部错误
)

// AppError 携带HTTP状态码的应用错误
type AppError struct {
	Type    string // 错误类别
	Message string // 返回给客户端的消息
	Detail  string // 仅记录到日志的细节
	Status  int    // HTTP状态码
}

// Error 实现error接口
func (e AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// NewValidationError 创建请求校验错误
func NewValidationError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeValidation,
		Message: message,
		Detail:  strings.Join(details, "; "),
		Status:  http.StatusBadRequest,
	}
}

// NewInternalError 创建服务端内部错误
func NewInternalError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Detail:  strings.Join(details, "; "),
		Status:  http.StatusInternalServerError,
	}
}

// HandleError 将错误挂到gin上下文，由ErrorMiddleware统一处理
func HandleError(c *gin.Context, err error) {
	_ = c.Error(err)
}

// ErrorMiddleware 统一错误处理中间件，兜底panic并把c.Errors转为JSON响应
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(logrus.Fields{
					"error": r,
					"stack": string(debug.Stack()),
					"path":  c.Request.URL.Path,
				}).Error("Panic recovered in API request")

				resp := model.NewErrorResponse(http.StatusInternalServerError, "An unexpected error occurred")
				if gin.Mode() == gin.DebugMode {
					resp.Message = fmt.Sprintf("Panic: %v", r)
				}
				resp.TraceID = traceIDFrom(c)
				c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		writeError(c, err)
		c.Abort()
	}
}

// writeError 按错误类型写出响应
func writeError(c *gin.Context, err error) {
	traceID := traceIDFrom(c)

	var appErr AppError
	if errors.As(err, &appErr) {
		log.WithFields(logrus.Fields{
			"error_type": appErr.Type,
			"detail":     appErr.Detail,
			"trace_id":   traceID,
			"path":       c.Request.URL.Path,
		}).Error(appErr.Message)

		resp := model.NewErrorResponse(appErr.Status, appErr.Message)
		resp.TraceID = traceID
		c.JSON(appErr.Status, resp)
		return
	}

	// 未分类错误一律按内部错误处理
	log.WithFields(logrus.Fields{
		"trace_id": traceID,
		"path":     c.Request.URL.Path,
	}).Error(err.Error())

	resp := model.NewErrorResponse(http.StatusInternalServerError, "Internal server error")
	if gin.Mode() == gin.DebugMode {
		resp.Message = err.Error()
	}
	resp.TraceID = traceID
	c.JSON(http.StatusInternalServerError, resp)
}

func traceIDFrom(c *gin.Context) string {
	if v, ok := c.Get("TraceID"); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
