//go:build cgo

package vectordb

import (
	"fmt"
	"sync"
	"time"

	"github.com/DataIntelligenceCrew/go-faiss"
)

// FaissRepository 基于Faiss平坦L2索引的向量仓库
// 索引只驻留内存，生命周期与会话一致，随会话淘汰一起释放
type FaissRepository struct {
	mu        sync.RWMutex
	index     faiss.Index
	documents []Document // 按索引位置排列
	dimension int
	closed    bool
}

// NewFaissRepository 创建新的Faiss向量仓库
func NewFaissRepository(config Config) (Repository, error) {
	if config.Dimension <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive")
	}

	index, err := faiss.NewIndexFlat(config.Dimension, faiss.MetricL2)
	if err != nil {
		return nil, fmt.Errorf("failed to create Faiss index: %v", err)
	}

	return &FaissRepository{
		index:     index,
		dimension: config.Dimension,
	}, nil
}

// Add 添加单个文档到仓库
func (r *FaissRepository) Add(doc Document) error {
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

	if err := r.index.Add(doc.Vector); err != nil {
		return fmt.Errorf("failed to add vector to index: %v", err)
	}

	doc.Position = len(r.documents)
	r.documents = append(r.documents, doc)
	return nil
}

// AddBatch 批量添加文档到仓库
func (r *FaissRepository) AddBatch(docs []Document) error {
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
		if err := r.index.Add(docs[i].Vector); err != nil {
			return fmt.Errorf("failed to add vector to index: %v", err)
		}
		docs[i].Position = len(r.documents)
		r.documents = append(r.documents, docs[i])
	}

	return nil
}

// Search 相似度搜索，返回L2距离最近的k个文档
func (r *FaissRepository) Search(vector []float32, k int) ([]SearchResult, error) {
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

	total := int(r.index.Ntotal())
	if total == 0 {
		return []SearchResult{}, nil
	}
	if k > total {
		k = total
	}

	distances, indices, err := r.index.Search(vector, int64(k))
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %v", err)
	}

	var results []SearchResult
	for i := 0; i < len(indices); i++ {
		idx := indices[i]
		if idx < 0 || int(idx) >= len(r.documents) {
			continue
		}
		results = append(results, SearchResult{
			Document: r.documents[idx],
			Distance: distances[i],
		})
	}

	return results, nil
}

// Count 获取文档总数
func (r *FaissRepository) Count() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.documents), nil
}

// Dimension 返回向量维度
func (r *FaissRepository) Dimension() int {
	return r.dimension
}

// Close 释放Faiss索引占用的本地内存
func (r *FaissRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	r.documents = nil
	r.index.Delete()
	return nil
}

func init() {
	RegisterRepository("faiss", NewFaissRepository)
}
