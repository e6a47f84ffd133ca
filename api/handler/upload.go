package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/expert-QA-system/api/middleware"
	"github.com/fyerfyer/expert-QA-system/api/model"
	"github.com/fyerfyer/expert-QA-system/internal/services"
	"github.com/fyerfyer/expert-QA-system/pkg/storage"
)

// UploadHandler 文档上传处理器
type UploadHandler struct {
	storage storage.Storage         // 文件存储
	ingest  *services.IngestService // 文档摄取服务
	logger  *logrus.Logger          // 日志记录器
}

// NewUploadHandler 创建文档上传处理器
func NewUploadHandler(store storage.Storage, ingest *services.IngestService) *UploadHandler {
	return &UploadHandler{
		storage: store,
		ingest:  ingest,
		logger:  middleware.GetLogger(),
	}
}

// UploadDocuments 处理文档上传请求
// 接收一批文件，保存到新会话的目录并建立检索索引
func (h *UploadHandler) UploadDocuments(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid multipart form", err.Error()))
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		middleware.HandleError(c, middleware.NewValidationError("no files uploaded"))
		return
	}

	// 为本次上传分配新会话
	sessionID := services.NewSessionID()
	folder, err := h.storage.EnsureSession(sessionID)
	if err != nil {
		middleware.HandleError(c, middleware.NewInternalError("failed to prepare session storage", err.Error()))
		return
	}

	// 保存所有上传的文件
	var fileNames []string
	for _, fileHeader := range files {
		src, err := fileHeader.Open()
		if err != nil {
			h.storage.RemoveSession(sessionID)
			middleware.HandleError(c, middleware.NewValidationError("failed to read uploaded file", err.Error()))
			return
		}

		info, err := h.storage.SaveToSession(sessionID, fileHeader.Filename, src)
		src.Close()
		if err != nil {
			h.storage.RemoveSession(sessionID)
			middleware.HandleError(c, middleware.NewInternalError("failed to save uploaded file", err.Error()))
			return
		}

		fileNames = append(fileNames, info.Name)
	}

	h.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"files":      len(fileNames),
	}).Info("Files uploaded, building session index")

	// 建立会话索引
	sess, err := h.ingest.BuildSession(c.Request.Context(), sessionID, folder, fileNames)
	if err != nil {
		h.storage.RemoveSession(sessionID)
		h.logger.WithField("session_id", sessionID).
			WithError(err).Error("Failed to build session")
		middleware.HandleError(c, middleware.NewInternalError("failed to process uploaded documents", err.Error()))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.UploadResponse{
		SessionID:  sess.ID,
		Files:      fileNames,
		ChunkCount: sess.ChunkCount,
	}))
}
