package vectordb

import (
	"errors"
	"time"
)

// 常用错误定义
var (
	ErrEmptyVector      = errors.New("empty vector")
	ErrInvalidDimension = errors.New("vector dimension mismatch")
	ErrRepositoryClosed = errors.New("repository is closed")
)

// Document 向量化的文本分块
type Document struct {
	ID        string    // 唯一标识符
	Source    string    // 来源文件路径
	Position  int       // 分块在会话索引中的位置
	Text      string    // 原始文本内容
	Vector    []float32 // 向量表示
	CreatedAt time.Time // 创建时间
}

// SearchResult 相似度搜索结果
type SearchResult struct {
	Document Document // 文档对象
	Distance float32  // L2距离，越小越相似
}

// Repository 向量仓库接口
// 每个会话持有独立的仓库实例，构建后只读检索，不支持增量重建
type Repository interface {
	// Add 添加单个文档
	Add(doc Document) error

	// AddBatch 批量添加文档
	AddBatch(docs []Document) error

	// Search 相似度搜索，返回距离最近的k个文档
	Search(vector []float32, k int) ([]SearchResult, error)

	// Count 获取文档总数
	Count() (int, error)

	// Dimension 返回向量维度
	Dimension() int

	// Close 释放仓库占用的资源
	Close() error
}

// Config 向量仓库配置
type Config struct {
	Type      string // 仓库类型，如 "memory", "faiss"
	Dimension int    // 向量维度
}

// Factory 向量仓库工厂函数类型
type Factory func(config Config) (Repository, error)

// RepositoryRegistry 注册可用的向量仓库实现
var RepositoryRegistry = map[string]Factory{}

// RegisterRepository 注册向量仓库工厂函数
func RegisterRepository(name string, factory Factory) {
	RepositoryRegistry[name] = factory
}

// NewRepository 根据配置创建向量仓库实例
func NewRepository(config Config) (Repository, error) {
	factory, ok := RepositoryRegistry[config.Type]
	if !ok {
		// 默认使用内存实现
		factory = NewMemoryRepository
	}
	return factory(config)
}

// ValidateVector 校验向量的有效性和维度
func ValidateVector(vector []float32, dimension int) error {
	if len(vector) == 0 {
		return ErrEmptyVector
	}
	if len(vector) != dimension {
		return ErrInvalidDimension
	}
	return nil
}
