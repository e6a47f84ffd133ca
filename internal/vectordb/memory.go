package vectordb

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryRepository 纯内存实现的向量仓库
// 精确遍历计算L2距离，结果与Faiss平坦索引一致，适合测试和小规模索引
type MemoryRepository struct {
	mu        sync.RWMutex
	documents []Document
	dimension int
	closed    bool
}

// NewMemoryRepository 创建新的内存向量仓库
func NewMemoryRepository(config Config) (Repository, error) {
	if config.Dimension <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive")
	}

	return &MemoryRepository{
		dimension: config.Dimension,
	}, nil
}

// Add 添加单个文档到仓库
func (r *MemoryRepository) Add(doc Document) error {
	if err := ValidateVector(doc.Vector, r.dimension); err != nil {
		return err
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRepositoryClosed
	}

	doc.Position = len(r.documents)
	r.documents = append(r.documents, doc)
	return nil
}

// AddBatch 批量添加文档到仓库
func (r *MemoryRepository) AddBatch(docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	for i := range docs {
		if err := ValidateVector(docs[i].Vector, r.dimension); err != nil {
			return fmt.Errorf("invalid vector for document %s: %v", docs[i].ID, err)
		}
		if docs[i].CreatedAt.IsZero() {
			docs[i].CreatedAt = time.Now()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRepositoryClosed
	}

	for i := range docs {
		docs[i].Position = len(r.documents)
		r.documents = append(r.documents, docs[i])
	}
	return nil
}

// Search 相似度搜索，返回L2距离最近的k个文档
func (r *MemoryRepository) Search(vector []float32, k int) ([]SearchResult, error) {
	if err := ValidateVector(vector, r.dimension); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []SearchResult{}, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, ErrRepositoryClosed
	}
	if len(r.documents) == 0 {
		return []SearchResult{}, nil
	}

	results := make([]SearchResult, 0, len(r.documents))
	for _, doc := range r.documents {
		results = append(results, SearchResult{
			Document: doc,
			Distance: squaredL2Distance(vector, doc.Vector),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Count 获取文档总数
func (r *MemoryRepository) Count() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.documents), nil
}

// Dimension 返回向量维度
func (r *MemoryRepository) Dimension() int {
	return r.dimension
}

// Close 关闭仓库
func (r *MemoryRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.documents = nil
	return nil
}

// squaredL2Distance 计算两个向量的L2距离平方
// Faiss的L2度量同样返回平方距离，两种实现的排序结果一致
func squaredL2Distance(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func init() {
	RegisterRepository("memory", NewMemoryRepository)
}
