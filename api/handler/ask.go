package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/expert-QA-system/api/middleware"
	"github.com/fyerfyer/expert-QA-system/api/model"
	"github.com/fyerfyer/expert-QA-system/internal/services"
	"github.com/fyerfyer/expert-QA-system/internal/session"
)

// isSessionIDOnlyError 判断绑定错误是否只由session_id格式校验失败引起
func isSessionIDOnlyError(err error) bool {
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) || len(vErrs) == 0 {
		return false
	}
	for _, fe := range vErrs {
		if fe.Tag() != "session_id" {
			return false
		}
	}
	return true
}

// AskHandler 问答处理器
type AskHandler struct {
	qaService *services.QAService // 问答服务
	logger    *logrus.Logger      // 日志记录器
}

// NewAskHandler 创建问答处理器
func NewAskHandler(qaService *services.QAService) *AskHandler {
	return &AskHandler{
		qaService: qaService,
		logger:    middleware.GetLogger(),
	}
}

// AskQuestion 处理问答请求
// 会话不存在或尚无任何会话时返回固定提示，不视为服务端错误
func (h *AskHandler) AskQuestion(c *gin.Context) {
	var req model.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// 格式非法的会话ID等同于无法解析的会话ID，返回固定提示而不是校验错误
		if isSessionIDOnlyError(err) && req.Question != "" {
			h.logger.WithFields(logrus.Fields{
				"session_id": req.SessionID,
			}).Warn("Question asked with malformed session id")

			c.JSON(http.StatusOK, model.NewSuccessResponse(model.AskResponse{
				SessionID: req.SessionID,
				Question:  req.Question,
				Answer:    model.InvalidSessionMessage,
			}))
			return
		}

		middleware.HandleError(c, middleware.NewValidationError("invalid request parameters", err.Error()))
		return
	}

	answer, sessionID, err := h.qaService.Ask(c.Request.Context(), req.SessionID, req.Question)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) || errors.Is(err, session.ErrNoSessions) {
			h.logger.WithFields(logrus.Fields{
				"session_id": req.SessionID,
			}).Warn("Question asked against invalid session")

			c.JSON(http.StatusOK, model.NewSuccessResponse(model.AskResponse{
				SessionID: req.SessionID,
				Question:  req.Question,
				Answer:    model.InvalidSessionMessage,
			}))
			return
		}

		h.logger.WithError(err).Error("Failed to answer question")
		middleware.HandleError(c, middleware.NewInternalError("failed to answer question", err.Error()))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.AskResponse{
		SessionID: sessionID,
		Question:  req.Question,
		Answer:    answer,
	}))
}
