package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fyerfyer/expert-QA-system/api/model"
)

// ChatHandler 多轮对话处理器
// 多轮对话尚未与文档问答流水线打通，端点保留但显式返回未集成
type ChatHandler struct{}

// NewChatHandler 创建多轮对话处理器
func NewChatHandler() *ChatHandler {
	return &ChatHandler{}
}

// Chat 处理多轮对话请求
func (h *ChatHandler) Chat(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, model.NewErrorResponse(
		http.StatusNotImplemented,
		"conversational chat is not yet integrated, use /api/ask instead",
	))
}
