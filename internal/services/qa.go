package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/expert-QA-system/internal/cache"
	"github.com/fyerfyer/expert-QA-system/internal/session"
)

// QAService 问答服务
// 负责解析会话、调用查询流水线并缓存回答
type QAService struct {
	registry *session.Registry // 会话注册表
	cache    cache.Cache       // 回答缓存
	cacheTTL time.Duration     // 缓存有效期
	logger   *logrus.Logger    // 日志记录器
}

// QAOption 问答服务配置选项
type QAOption func(*QAService)

// WithCacheTTL 设置缓存时间
func WithCacheTTL(ttl time.Duration) QAOption {
	return func(s *QAService) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithQALogger 设置日志记录器
func WithQALogger(logger *logrus.Logger) QAOption {
	return func(s *QAService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewQAService 创建问答服务实例
func NewQAService(registry *session.Registry, answerCache cache.Cache, opts ...QAOption) *QAService {
	service := &QAService{
		registry: registry,
		cache:    answerCache,
		cacheTTL: time.Hour,
		logger:   logrus.New(),
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// Ask 回答问题
// sessionID为空时回退到最新会话；返回回答和实际使用的会话ID
func (s *QAService) Ask(ctx context.Context, sessionID string, question string) (string, string, error) {
	if question == "" {
		return "", "", fmt.Errorf("question cannot be empty")
	}

	sess, err := s.registry.Resolve(sessionID)
	if err != nil {
		return "", "", err
	}

	// 1. 尝试从缓存获取
	cacheKey := cache.AnswerKey(sess.ID, question)
	if s.cache != nil {
		if cached, found, err := s.cache.Get(cacheKey); err == nil && found {
			s.logger.WithField("session_id", sess.ID).Debug("Answer cache hit")
			return cached, sess.ID, nil
		}
	}

	// 2. 执行查询流水线
	answer, err := sess.Pipeline.Invoke(ctx, question)
	if err != nil {
		return "", "", fmt.Errorf("failed to answer question: %v", err)
	}

	// 3. 缓存结果
	if s.cache != nil {
		if err := s.cache.Set(cacheKey, answer, s.cacheTTL); err != nil {
			s.logger.WithError(err).Warn("Failed to cache answer")
		}
	}

	return answer, sess.ID, nil
}

// Sessions 返回当前所有活跃会话
func (s *QAService) Sessions() []*session.Session {
	return s.registry.List()
}
