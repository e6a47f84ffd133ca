package session

import (
	"errors"
	"os"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/expert-QA-system/internal/retriever"
	"github.com/fyerfyer/expert-QA-system/internal/workflow"
)

// 常用错误定义
var (
	// ErrSessionNotFound 会话不存在或已过期
	ErrSessionNotFound = errors.New("session not found")
	// ErrNoSessions 尚无任何可用会话
	ErrNoSessions = errors.New("no sessions available")
)

// DefaultTTL 默认会话存活时间
const DefaultTTL = 2 * time.Hour

// DefaultCleanupInterval 默认过期会话清理间隔
const DefaultCleanupInterval = 10 * time.Minute

// Session 一次文档上传建立的会话
// 持有该批文档的检索器和查询流水线，随TTL过期整体释放
type Session struct {
	ID         string               // 会话唯一标识
	Folder     string               // 会话文档所在目录
	Retriever  *retriever.Retriever // 会话级检索器
	Pipeline   *workflow.Pipeline   // 查询执行流水线
	FileCount  int                  // 上传的文件数
	ChunkCount int                  // 索引的分块数
	CreatedAt  time.Time            // 创建时间
}

// Registry 会话注册表
// 基于TTL缓存管理会话生命周期，过期会话自动释放索引并清理文档目录
type Registry struct {
	store    *gocache.Cache
	mu       sync.RWMutex
	latestID string
	logger   *logrus.Logger
}

// RegistryOption 注册表选项函数
type RegistryOption func(*registryConfig)

type registryConfig struct {
	ttl             time.Duration
	cleanupInterval time.Duration
	logger          *logrus.Logger
}

// WithTTL 设置会话存活时间
func WithTTL(ttl time.Duration) RegistryOption {
	return func(c *registryConfig) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCleanupInterval 设置过期会话的清理间隔
func WithCleanupInterval(interval time.Duration) RegistryOption {
	return func(c *registryConfig) {
		if interval > 0 {
			c.cleanupInterval = interval
		}
	}
}

// WithRegistryLogger 设置日志记录器
func WithRegistryLogger(logger *logrus.Logger) RegistryOption {
	return func(c *registryConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewRegistry 创建会话注册表
func NewRegistry(opts ...RegistryOption) *Registry {
	cfg := &registryConfig{
		ttl:             DefaultTTL,
		cleanupInterval: DefaultCleanupInterval,
		logger:          logrus.New(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	r := &Registry{
		store:  gocache.New(cfg.ttl, cfg.cleanupInterval),
		logger: cfg.logger,
	}

	// 会话过期或删除时释放其占用的资源
	r.store.OnEvicted(func(id string, value interface{}) {
		sess, ok := value.(*Session)
		if !ok {
			return
		}
		r.teardown(sess)
	})

	return r
}

// Put 注册新会话并将其设为最新会话
func (r *Registry) Put(sess *Session) {
	r.store.SetDefault(sess.ID, sess)

	r.mu.Lock()
	r.latestID = sess.ID
	r.mu.Unlock()

	r.logger.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"files":      sess.FileCount,
		"chunks":     sess.ChunkCount,
	}).Info("Session registered")
}

// Resolve 根据会话ID查找会话
// ID为空时回退到最新注册的会话
func (r *Registry) Resolve(id string) (*Session, error) {
	if id == "" {
		r.mu.RLock()
		id = r.latestID
		r.mu.RUnlock()

		if id == "" {
			return nil, ErrNoSessions
		}
	}

	value, found := r.store.Get(id)
	if !found {
		return nil, ErrSessionNotFound
	}

	sess, ok := value.(*Session)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Remove 删除会话并立即释放其资源
func (r *Registry) Remove(id string) {
	// Delete会触发OnEvicted回调完成资源释放
	r.store.Delete(id)
}

// List 返回当前所有未过期的会话
func (r *Registry) List() []*Session {
	items := r.store.Items()
	sessions := make([]*Session, 0, len(items))
	for _, item := range items {
		if sess, ok := item.Object.(*Session); ok {
			sessions = append(sessions, sess)
		}
	}
	return sessions
}

// Count 返回当前会话数量
func (r *Registry) Count() int {
	return r.store.ItemCount()
}

// Close 释放所有会话资源
func (r *Registry) Close() {
	for _, sess := range r.List() {
		r.store.Delete(sess.ID)
	}
}

// teardown 释放会话占用的索引内存和磁盘目录
func (r *Registry) teardown(sess *Session) {
	if sess.Retriever != nil {
		if err := sess.Retriever.Repository().Close(); err != nil {
			r.logger.WithField("session_id", sess.ID).
				WithError(err).Warn("Failed to close session index")
		}
	}

	if sess.Folder != "" {
		if err := os.RemoveAll(sess.Folder); err != nil {
			r.logger.WithField("session_id", sess.ID).
				WithError(err).Warn("Failed to remove session folder")
		}
	}

	r.mu.Lock()
	if r.latestID == sess.ID {
		r.latestID = ""
	}
	r.mu.Unlock()

	r.logger.WithField("session_id", sess.ID).Info("Session evicted")
}
