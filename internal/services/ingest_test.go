package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/expert-QA-system/internal/document"
	"github.com/fyerfyer/expert-QA-system/internal/llm"
	"github.com/fyerfyer/expert-QA-system/internal/session"
)

// fakeEmbedder 测试用的嵌入客户端，返回固定维度的向量
type fakeEmbedder struct {
	dim   int
	err   error
	calls int32
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	vector := make([]float32, f.dim)
	for i := range vector {
		vector[i] = float32(len(text)%7) + float32(i)
	}
	return vector, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		atomic.AddInt32(&f.calls, 1)
		return nil, f.err
	}
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

func (f *fakeEmbedder) Name() string { return "fake-embedder" }

// fakeLLM 测试用的大模型客户端
type fakeLLM struct {
	answer string
	calls  int32
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.GenerateOption) (*llm.Response, error) {
	atomic.AddInt32(&f.calls, 1)
	return &llm.Response{Text: f.answer}, nil
}

func (f *fakeLLM) Chat(ctx context.Context, messages []llm.Message, options ...llm.GenerateOption) (*llm.Response, error) {
	atomic.AddInt32(&f.calls, 1)
	return &llm.Response{Text: f.answer}, nil
}

func (f *fakeLLM) Name() string { return "fake-llm" }

func writeSessionDocs(t *testing.T, files map[string]string) (string, []string) {
	t.Helper()
	folder := t.TempDir()
	var names []string
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(folder, name), []byte(content), 0644))
		names = append(names, name)
	}
	return folder, names
}

func newTestIngestService(registry *session.Registry, embedder *fakeEmbedder, llmClient *fakeLLM) *IngestService {
	return NewIngestService(
		document.NewExtractor(nil),
		document.NewChunker(),
		embedder,
		llm.NewRAG(llmClient),
		registry,
		WithVectorDBType("memory"),
		WithDimension(4),
	)
}

// TestBuildSession 测试会话构建
func TestBuildSession(t *testing.T) {
	registry := session.NewRegistry()
	defer registry.Close()

	embedder := &fakeEmbedder{dim: 4}
	ingest := newTestIngestService(registry, embedder, &fakeLLM{answer: "回答"})

	folder, files := writeSessionDocs(t, map[string]string{
		"a.txt": "第一份文档的内容，包含贷款相关条款。",
		"b.txt": "第二份文档的内容，包含信用卡相关条款。",
	})

	sessionID := NewSessionID()
	sess, err := ingest.BuildSession(context.Background(), sessionID, folder, files)

	require.NoError(t, err)
	assert.Equal(t, sessionID, sess.ID)
	assert.Equal(t, folder, sess.Folder)
	assert.Equal(t, 2, sess.FileCount)
	assert.Greater(t, sess.ChunkCount, 0, "应产生至少一个分块")
	assert.NotNil(t, sess.Retriever)
	assert.NotNil(t, sess.Pipeline)

	// 会话应已注册且可查
	found, err := registry.Resolve(sessionID)
	require.NoError(t, err)
	assert.Equal(t, sess, found)

	// 索引中的文档数应等于分块数
	count, err := sess.Retriever.Repository().Count()
	require.NoError(t, err)
	assert.Equal(t, sess.ChunkCount, count)
}

// TestBuildSessionEmptyFolder 测试空文件夹会话
func TestBuildSessionEmptyFolder(t *testing.T) {
	registry := session.NewRegistry()
	defer registry.Close()

	ingest := newTestIngestService(registry, &fakeEmbedder{dim: 4}, &fakeLLM{})
	folder := t.TempDir()

	sess, err := ingest.BuildSession(context.Background(), NewSessionID(), folder, nil)

	require.NoError(t, err, "没有产出任何分块的会话仍然有效")
	assert.Equal(t, 0, sess.ChunkCount)

	// 空索引会话的提问应得到固定回复
	answer, err := sess.Pipeline.Invoke(context.Background(), "任意问题")
	require.NoError(t, err)
	assert.Equal(t, llm.NoContextAnswer, answer)
}

// TestBuildSessionEmbedFailure 测试嵌入失败时整体中止
func TestBuildSessionEmbedFailure(t *testing.T) {
	registry := session.NewRegistry()
	defer registry.Close()

	embedder := &fakeEmbedder{dim: 4, err: fmt.Errorf("embedding quota exceeded")}
	ingest := newTestIngestService(registry, embedder, &fakeLLM{})

	folder, files := writeSessionDocs(t, map[string]string{
		"a.txt": "一些需要被嵌入的文档内容。",
	})

	_, err := ingest.BuildSession(context.Background(), NewSessionID(), folder, files)

	require.Error(t, err, "嵌入失败应使整个会话构建失败")
	assert.Equal(t, 0, registry.Count(), "失败的会话不应被注册")
}

// TestBuildSessionMissingFolder 测试不存在的文件夹
func TestBuildSessionMissingFolder(t *testing.T) {
	registry := session.NewRegistry()
	defer registry.Close()

	ingest := newTestIngestService(registry, &fakeEmbedder{dim: 4}, &fakeLLM{})

	_, err := ingest.BuildSession(context.Background(), NewSessionID(), "/nonexistent/folder", nil)
	assert.Error(t, err)
}

// TestNewSessionID 测试会话ID生成
func TestNewSessionID(t *testing.T) {
	id1 := NewSessionID()
	id2 := NewSessionID()

	assert.NotEmpty(t, id1)
	assert.NotEqual(t, id1, id2, "会话ID应唯一")
}
