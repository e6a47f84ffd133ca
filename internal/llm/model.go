package llm

import "time"

// MessageRole 消息角色类型
type MessageRole string

const (
	// RoleSystem 系统角色
	RoleSystem MessageRole = "system"
	// RoleUser 用户角色
	RoleUser MessageRole = "user"
	// RoleAssistant 助手角色
	RoleAssistant MessageRole = "assistant"
)

// Message 对话消息结构
type Message struct {
	Role    MessageRole `json:"role"`    // 角色
	Content string      `json:"content"` // 内容
}

// Response 统一的响应结构
type Response struct {
	Text       string    // 生成的文本
	TokenCount int       // 使用的token数
	ModelName  string    // 使用的模型名称
	FinishTime time.Time // 完成时间
}

// RAGResponse RAG响应结构
type RAGResponse struct {
	Answer  string            // 回答内容
	Sources []SourceReference // 引用来源
}

// SourceReference 引用来源
type SourceReference struct {
	ID      string // 文档ID
	Source  string // 来源文件路径
	Content string // 引用内容
}

// 常用模型名称
const (
	ModelGPT41     = "gpt-4.1"     // GPT-4.1模型
	ModelGPT4o     = "gpt-4o"      // GPT-4o模型
	ModelGPT4oMini = "gpt-4o-mini" // GPT-4o-mini模型（较快，成本低）
)
