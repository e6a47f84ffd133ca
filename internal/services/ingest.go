package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/fyerfyer/expert-QA-system/internal/document"
	"github.com/fyerfyer/expert-QA-system/internal/embedding"
	"github.com/fyerfyer/expert-QA-system/internal/llm"
	"github.com/fyerfyer/expert-QA-system/internal/models"
	"github.com/fyerfyer/expert-QA-system/internal/repository"
	"github.com/fyerfyer/expert-QA-system/internal/retriever"
	"github.com/fyerfyer/expert-QA-system/internal/session"
	"github.com/fyerfyer/expert-QA-system/internal/vectordb"
	"github.com/fyerfyer/expert-QA-system/internal/workflow"
)

// IngestService 文档摄取服务
// 负责将一批上传的文档提取、分块、向量化并建立会话级索引
type IngestService struct {
	extractor   *document.Extractor          // 文档提取器
	chunker     *document.Chunker            // 文本分块器
	embedder    embedding.Client             // 嵌入模型客户端
	rag         *llm.RAGService              // RAG服务
	registry    *session.Registry            // 会话注册表
	sessionRepo repository.SessionRepository // 会话元数据仓储，可为nil
	vecType     string                       // 向量仓库类型
	dimension   int                          // 向量维度
	topK        int                          // 检索数量
	batchSize   int                          // 嵌入批处理大小
	logger      *logrus.Logger               // 日志记录器
}

// IngestOption 摄取服务配置选项
type IngestOption func(*IngestService)

// WithVectorDBType 设置向量仓库类型
func WithVectorDBType(vecType string) IngestOption {
	return func(s *IngestService) {
		s.vecType = vecType
	}
}

// WithDimension 设置向量维度
func WithDimension(dimension int) IngestOption {
	return func(s *IngestService) {
		if dimension > 0 {
			s.dimension = dimension
		}
	}
}

// WithTopK 设置会话检索器的检索数量
func WithTopK(topK int) IngestOption {
	return func(s *IngestService) {
		if topK > 0 {
			s.topK = topK
		}
	}
}

// WithEmbedBatchSize 设置嵌入批处理大小
func WithEmbedBatchSize(size int) IngestOption {
	return func(s *IngestService) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithSessionRepository 设置会话元数据仓储
func WithSessionRepository(repo repository.SessionRepository) IngestOption {
	return func(s *IngestService) {
		s.sessionRepo = repo
	}
}

// WithIngestLogger 设置日志记录器
func WithIngestLogger(logger *logrus.Logger) IngestOption {
	return func(s *IngestService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewIngestService 创建文档摄取服务
func NewIngestService(
	extractor *document.Extractor,
	chunker *document.Chunker,
	embedder embedding.Client,
	rag *llm.RAGService,
	registry *session.Registry,
	opts ...IngestOption,
) *IngestService {
	service := &IngestService{
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		rag:       rag,
		registry:  registry,
		vecType:   "faiss",
		dimension: 3072,
		topK:      retriever.DefaultTopK,
		batchSize: 64,
		logger:    logrus.New(),
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// NewSessionID 生成新的会话ID
func NewSessionID() string {
	return uuid.New().String()
}

// BuildSession 为一批上传的文档建立会话
// 提取、分块、嵌入并索引folder下的所有文档；嵌入或索引失败会整体中止，
// 不会留下部分构建的索引。没有产出任何分块的会话仍然有效
func (s *IngestService) BuildSession(ctx context.Context, sessionID string, folder string, files []string) (*session.Session, error) {
	startTime := time.Now()

	// 1. 提取所有文档的页面记录
	pages, err := s.extractor.ExtractFolder(ctx, folder)
	if err != nil {
		return nil, fmt.Errorf("failed to extract documents: %v", err)
	}

	// 2. 分块
	chunks := s.chunker.ChunkPages(pages)

	s.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"pages":      len(pages),
		"chunks":     len(chunks),
	}).Info("Documents extracted and chunked")

	// 3. 建立向量索引
	repo, err := vectordb.NewRepository(vectordb.Config{
		Type:      s.vecType,
		Dimension: s.dimension,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create vector repository: %v", err)
	}

	if err := s.indexChunks(ctx, repo, sessionID, chunks); err != nil {
		// 失败时释放索引，不留部分构建的结果
		repo.Close()
		return nil, err
	}

	// 4. 组装会话级检索器和查询流水线
	ret := retriever.New(s.embedder, repo,
		retriever.WithTopK(s.topK),
		retriever.WithLogger(s.logger))

	pipeline, err := workflow.NewPipeline(
		[]workflow.Step{workflow.NewRAGStep(ret, s.rag)},
		workflow.WithPipelineLogger(s.logger))
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to build query pipeline: %v", err)
	}

	sess := &session.Session{
		ID:         sessionID,
		Folder:     folder,
		Retriever:  ret,
		Pipeline:   pipeline,
		FileCount:  len(files),
		ChunkCount: len(chunks),
		CreatedAt:  time.Now(),
	}
	s.registry.Put(sess)

	// 5. 持久化会话元数据
	s.persistRecord(sess, files)

	s.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"files":      len(files),
		"chunks":     len(chunks),
		"elapsed":    time.Since(startTime).String(),
	}).Info("Session built successfully")

	return sess, nil
}

// indexChunks 将分块嵌入并写入向量仓库
func (s *IngestService) indexChunks(ctx context.Context, repo vectordb.Repository, sessionID string, chunks []document.Chunk) error {
	for start := 0; start < len(chunks); start += s.batchSize {
		end := start + s.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed chunks %d-%d: %v", start, end, err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embedding count mismatch: got %d, want %d", len(vectors), len(batch))
		}

		docs := make([]vectordb.Document, len(batch))
		for i, chunk := range batch {
			docs[i] = vectordb.Document{
				ID:     fmt.Sprintf("%s-%d", sessionID, chunk.Index),
				Source: chunk.Source,
				Text:   chunk.Text,
				Vector: vectors[i],
			}
		}

		if err := repo.AddBatch(docs); err != nil {
			return fmt.Errorf("failed to index chunks %d-%d: %v", start, end, err)
		}
	}

	return nil
}

// persistRecord 保存会话元数据到数据库
// 元数据只用于展示，保存失败不影响会话可用性
func (s *IngestService) persistRecord(sess *session.Session, files []string) {
	if s.sessionRepo == nil {
		return
	}

	filesJSON, err := json.Marshal(files)
	if err != nil {
		filesJSON = []byte("[]")
	}

	record := &models.SessionRecord{
		ID:         sess.ID,
		Folder:     sess.Folder,
		FileCount:  sess.FileCount,
		ChunkCount: sess.ChunkCount,
		Files:      datatypes.JSON(filesJSON),
		CreatedAt:  sess.CreatedAt,
	}

	if err := s.sessionRepo.Create(record); err != nil {
		s.logger.WithField("session_id", sess.ID).
			WithError(err).Warn("Failed to persist session record")
	}
}
