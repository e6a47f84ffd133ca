package retriever

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/expert-QA-system/internal/embedding"
	"github.com/fyerfyer/expert-QA-system/internal/vectordb"
)

// DefaultTopK 默认检索的文档数量
const DefaultTopK = 230

// Retriever 会话级检索器
// 持有会话的向量仓库，将问题向量化后做相似度检索
type Retriever struct {
	embedder embedding.Client
	repo     vectordb.Repository
	topK     int
	logger   *logrus.Logger
}

// Option 检索器选项函数
type Option func(*Retriever)

// WithTopK 设置检索的文档数量
func WithTopK(topK int) Option {
	return func(r *Retriever) {
		if topK > 0 {
			r.topK = topK
		}
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) Option {
	return func(r *Retriever) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New 创建新的检索器
func New(embedder embedding.Client, repo vectordb.Repository, opts ...Option) *Retriever {
	r := &Retriever{
		embedder: embedder,
		repo:     repo,
		topK:     DefaultTopK,
		logger:   logrus.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve 检索与问题最相关的文档
// 仓库中的文档数少于topK时返回全部文档
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]vectordb.SearchResult, error) {
	if question == "" {
		return nil, fmt.Errorf("question cannot be empty")
	}

	vector, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %v", err)
	}

	results, err := r.repo.Search(vector, r.topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %v", err)
	}

	r.logger.WithFields(logrus.Fields{
		"top_k":   r.topK,
		"results": len(results),
	}).Debug("Retrieved documents for question")

	return results, nil
}

// TopK 返回配置的检索数量
func (r *Retriever) TopK() int {
	return r.topK
}

// Repository 返回底层的向量仓库
func (r *Retriever) Repository() vectordb.Repository {
	return r.repo
}
