package handler

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/expert-QA-system/api/middleware"
	"github.com/fyerfyer/expert-QA-system/api/model"
	"github.com/fyerfyer/expert-QA-system/internal/services"
)

// SessionHandler 会话查询处理器
type SessionHandler struct {
	qaService *services.QAService // 问答服务
	logger    *logrus.Logger      // 日志记录器
}

// NewSessionHandler 创建会话查询处理器
func NewSessionHandler(qaService *services.QAService) *SessionHandler {
	return &SessionHandler{
		qaService: qaService,
		logger:    middleware.GetLogger(),
	}
}

// ListSessions 列出当前所有活跃会话
func (h *SessionHandler) ListSessions(c *gin.Context) {
	sessions := h.qaService.Sessions()

	infos := make([]model.SessionInfo, len(sessions))
	for i, sess := range sessions {
		infos[i] = model.SessionInfo{
			SessionID:  sess.ID,
			FileCount:  sess.FileCount,
			ChunkCount: sess.ChunkCount,
			CreatedAt:  sess.CreatedAt,
		}
	}

	// 按创建时间倒序排列
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.SessionListResponse{
		Total:    len(infos),
		Sessions: infos,
	}))
}
