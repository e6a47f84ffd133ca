package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/expert-QA-system/internal/retriever"
	"github.com/fyerfyer/expert-QA-system/internal/vectordb"
)

func newTestSession(t *testing.T, id string) *Session {
	t.Helper()

	folder := filepath.Join(t.TempDir(), id)
	require.NoError(t, os.MkdirAll(folder, 0755))

	repo, err := vectordb.NewRepository(vectordb.Config{Type: "memory", Dimension: 2})
	require.NoError(t, err)

	return &Session{
		ID:        id,
		Folder:    folder,
		Retriever: retriever.New(nil, repo),
		CreatedAt: time.Now(),
	}
}

// TestRegistryPutResolve 测试会话注册和查找
func TestRegistryPutResolve(t *testing.T) {
	registry := NewRegistry()
	defer registry.Close()

	sess := newTestSession(t, "session-1")
	registry.Put(sess)

	t.Run("resolve by id", func(t *testing.T) {
		found, err := registry.Resolve("session-1")
		require.NoError(t, err)
		assert.Equal(t, sess, found)
	})

	t.Run("resolve unknown id", func(t *testing.T) {
		_, err := registry.Resolve("unknown")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("empty id falls back to latest", func(t *testing.T) {
		found, err := registry.Resolve("")
		require.NoError(t, err)
		assert.Equal(t, "session-1", found.ID)
	})
}

// TestRegistryLatestFallback 测试最新会话回退
func TestRegistryLatestFallback(t *testing.T) {
	registry := NewRegistry()
	defer registry.Close()

	registry.Put(newTestSession(t, "older"))
	registry.Put(newTestSession(t, "newer"))

	found, err := registry.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "newer", found.ID, "空ID应回退到最后注册的会话")
}

// TestRegistryNoSessions 测试没有任何会话时的查找
func TestRegistryNoSessions(t *testing.T) {
	registry := NewRegistry()
	defer registry.Close()

	_, err := registry.Resolve("")
	assert.ErrorIs(t, err, ErrNoSessions)
}

// TestRegistryRemove 测试会话删除和资源释放
func TestRegistryRemove(t *testing.T) {
	registry := NewRegistry()
	defer registry.Close()

	sess := newTestSession(t, "to-remove")
	repo := sess.Retriever.Repository()
	registry.Put(sess)

	registry.Remove("to-remove")

	// 会话不再可查
	_, err := registry.Resolve("to-remove")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// 文档目录已被清理
	assert.NoDirExists(t, sess.Folder, "删除会话应清理其文档目录")

	// 向量索引已被关闭
	_, err = repo.Search([]float32{1, 0}, 1)
	assert.ErrorIs(t, err, vectordb.ErrRepositoryClosed, "删除会话应关闭其向量索引")

	// 最新会话指针应被清除
	_, err = registry.Resolve("")
	assert.ErrorIs(t, err, ErrNoSessions)
}

// TestRegistryTTLExpiry 测试会话过期
func TestRegistryTTLExpiry(t *testing.T) {
	registry := NewRegistry(
		WithTTL(50*time.Millisecond),
		WithCleanupInterval(20*time.Millisecond),
	)
	defer registry.Close()

	sess := newTestSession(t, "ephemeral")
	registry.Put(sess)

	_, err := registry.Resolve("ephemeral")
	require.NoError(t, err)

	// 等待过期和后台清理
	time.Sleep(200 * time.Millisecond)

	_, err = registry.Resolve("ephemeral")
	assert.ErrorIs(t, err, ErrSessionNotFound, "过期会话应不可查")
	assert.NoDirExists(t, sess.Folder, "过期会话的文档目录应被清理")
}

// TestRegistryListCount 测试会话列表和计数
func TestRegistryListCount(t *testing.T) {
	registry := NewRegistry()
	defer registry.Close()

	assert.Equal(t, 0, registry.Count())
	assert.Empty(t, registry.List())

	registry.Put(newTestSession(t, "a"))
	registry.Put(newTestSession(t, "b"))

	assert.Equal(t, 2, registry.Count())
	assert.Len(t, registry.List(), 2)
}

// TestRegistryClose 测试注册表关闭
func TestRegistryClose(t *testing.T) {
	registry := NewRegistry()

	sessA := newTestSession(t, "a")
	sessB := newTestSession(t, "b")
	registry.Put(sessA)
	registry.Put(sessB)

	registry.Close()

	assert.Equal(t, 0, registry.Count())
	assert.NoDirExists(t, sessA.Folder)
	assert.NoDirExists(t, sessB.Folder)
}
