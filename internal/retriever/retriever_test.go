package retriever

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/expert-QA-system/internal/vectordb"
)

// fakeEmbedder 测试用的嵌入客户端
// 对预设文本返回固定向量
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		result[i] = v
	}
	return result, nil
}

func (f *fakeEmbedder) Name() string {
	return "fake-embedder"
}

func newTestRepo(t *testing.T) vectordb.Repository {
	repo, err := vectordb.NewRepository(vectordb.Config{Type: "memory", Dimension: 2})
	require.NoError(t, err)

	require.NoError(t, repo.AddBatch([]vectordb.Document{
		{ID: "loans", Text: "贷款相关条款", Vector: []float32{1, 0}},
		{ID: "cards", Text: "信用卡相关条款", Vector: []float32{0, 1}},
		{ID: "risk", Text: "风险管理相关条款", Vector: []float32{5, 5}},
	}))
	return repo
}

// TestRetrieve 测试问题检索
func TestRetrieve(t *testing.T) {
	embedder := &fakeEmbedder{
		vectors: map[string][]float32{
			"贷款利率是多少？": {1, 0},
		},
	}
	repo := newTestRepo(t)
	r := New(embedder, repo, WithTopK(2))

	results, err := r.Retrieve(context.Background(), "贷款利率是多少？")

	require.NoError(t, err)
	require.Len(t, results, 2, "应返回topK个结果")
	assert.Equal(t, "loans", results[0].Document.ID, "最相似的文档应排在首位")
}

// TestRetrieveFewerThanTopK 测试文档数少于topK
func TestRetrieveFewerThanTopK(t *testing.T) {
	embedder := &fakeEmbedder{}
	repo := newTestRepo(t)
	r := New(embedder, repo)

	assert.Equal(t, DefaultTopK, r.TopK())

	results, err := r.Retrieve(context.Background(), "任意问题")
	require.NoError(t, err)
	assert.Len(t, results, 3, "文档数少于topK时应返回全部文档")
}

// TestRetrieveEmptyQuestion 测试空问题
func TestRetrieveEmptyQuestion(t *testing.T) {
	r := New(&fakeEmbedder{}, newTestRepo(t))

	_, err := r.Retrieve(context.Background(), "")
	assert.Error(t, err)
}

// TestRetrieveEmbedFailure 测试嵌入失败
func TestRetrieveEmbedFailure(t *testing.T) {
	embedder := &fakeEmbedder{err: fmt.Errorf("embedding service down")}
	r := New(embedder, newTestRepo(t))

	_, err := r.Retrieve(context.Background(), "问题")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to embed question")
}

// TestRetrieveClosedRepository 测试关闭后的仓库
func TestRetrieveClosedRepository(t *testing.T) {
	repo := newTestRepo(t)
	r := New(&fakeEmbedder{}, repo)

	require.NoError(t, repo.Close())

	_, err := r.Retrieve(context.Background(), "问题")
	assert.Error(t, err, "仓库关闭后检索应失败")
}

// TestRepositoryAccessor 测试底层仓库访问
func TestRepositoryAccessor(t *testing.T) {
	repo := newTestRepo(t)
	r := New(&fakeEmbedder{}, repo)
	assert.Equal(t, repo, r.Repository())
}
