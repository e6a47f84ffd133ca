package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ExpertPromptTemplate 银行领域专家RAG提示词模板
// 包含变量：
// {text} - 检索的上下文
// {question} - 用户问题
const ExpertPromptTemplate = `You are a highly experienced Banking Domain Expert with deep knowledge of
retail banking, corporate banking, risk management, compliance, loans,
credit cards, financial regulations, and investment products.

Your role is to act as a domain consultant and provide clear, accurate,
and concise answers ONLY based on the given context.

Instructions:
1. Only use the information provided in the context to answer.
2. If the answer is not present in the context, respond with:
"The information is not available in the provided context."
3. Provide explanations in a professional and structured manner.
4. Where applicable, highlight important terms, risks, or compliance notes.

here is the context :
context : {text}
Question :{question}`

// NoContextAnswer 上下文中没有答案时的固定回复
const NoContextAnswer = "The information is not available in the provided context."

// RAGConfig 检索增强生成配置
type RAGConfig struct {
	// 提示词模板
	Template string
	// 最大Token数
	MaxTokens int
	// 温度参数
	Temperature float32
	// 超时时间
	Timeout time.Duration
	// 是否带上引用来源
	IncludeSources bool
}

// DefaultRAGConfig 默认RAG配置
func DefaultRAGConfig() *RAGConfig {
	return &RAGConfig{
		Template:       ExpertPromptTemplate,
		MaxTokens:      2048,
		Temperature:    1.0,
		Timeout:        60 * time.Second,
		IncludeSources: false,
	}
}

// RAGService 实现检索增强生成服务
type RAGService struct {
	Client Client       // 大模型客户端
	config *RAGConfig   // 配置
	mu     sync.RWMutex // 配置互斥锁
}

// RAGOption RAG配置选项函数类型
type RAGOption func(*RAGConfig)

// WithTemplate 设置提示词模板
func WithTemplate(template string) RAGOption {
	return func(c *RAGConfig) {
		c.Template = template
	}
}

// WithRAGMaxTokens 设置最大Token数
func WithRAGMaxTokens(tokens int) RAGOption {
	return func(c *RAGConfig) {
		c.MaxTokens = tokens
	}
}

// WithRAGTemperature 设置温度参数
func WithRAGTemperature(temp float32) RAGOption {
	return func(c *RAGConfig) {
		c.Temperature = temp
	}
}

// WithRAGTimeout 设置请求超时时间
func WithRAGTimeout(timeout time.Duration) RAGOption {
	return func(c *RAGConfig) {
		c.Timeout = timeout
	}
}

// WithSources 设置是否包含引用来源
func WithSources(include bool) RAGOption {
	return func(c *RAGConfig) {
		c.IncludeSources = include
	}
}

// NewRAG 创建新的检索增强生成服务
func NewRAG(client Client, opts ...RAGOption) *RAGService {
	cfg := DefaultRAGConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return &RAGService{
		Client: client,
		config: cfg,
	}
}

// Answer 根据上下文和问题生成回答
// 没有任何上下文时直接返回固定回复，不调用大模型
func (r *RAGService) Answer(ctx context.Context, question string, contexts []string) (*RAGResponse, error) {
	if question == "" {
		return nil, NewLLMError(ErrCodeEmptyPrompt, "question cannot be empty")
	}

	r.mu.RLock()
	cfg := r.config
	r.mu.RUnlock()

	if len(contexts) == 0 {
		return &RAGResponse{Answer: NoContextAnswer}, nil
	}

	// 创建带超时的上下文
	ctxWithTimeout, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	// 构建提示词
	prompt := r.buildPrompt(question, contexts)

	// 调用大模型生成回答
	response, err := r.Client.Generate(
		ctxWithTimeout,
		prompt,
		WithGenerateMaxTokens(cfg.MaxTokens),
		WithGenerateTemperature(cfg.Temperature),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate response: %v", err)
	}

	// 构建RAG响应
	ragResponse := &RAGResponse{
		Answer: response.Text,
	}

	// 如果需要包含引用来源，添加到响应中
	if cfg.IncludeSources {
		sources := make([]SourceReference, len(contexts))
		for i, c := range contexts {
			sources[i] = SourceReference{
				ID:      fmt.Sprintf("src-%d", i+1),
				Content: c,
			}
		}
		ragResponse.Sources = sources
	}

	return ragResponse, nil
}

// buildPrompt 构建增强提示词
// 上下文段落之间用空行分隔
func (r *RAGService) buildPrompt(question string, contexts []string) string {
	r.mu.RLock()
	template := r.config.Template
	r.mu.RUnlock()

	formattedContext := strings.Join(contexts, "\n\n")

	prompt := template
	prompt = strings.ReplaceAll(prompt, "{text}", formattedContext)
	prompt = strings.ReplaceAll(prompt, "{question}", question)

	return prompt
}

// SetTemplate 设置自定义提示词模板
func (r *RAGService) SetTemplate(template string) *RAGService {
	r.mu.Lock()
	r.config.Template = template
	r.mu.Unlock()
	return r
}
