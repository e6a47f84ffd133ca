package model

import "time"

// InvalidSessionMessage 会话无效或尚未上传文档时返回的固定回复
const InvalidSessionMessage = "Invalid session or no documents uploaded."

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`               // 响应状态码，0表示成功
	Message string      `json:"message"`            // 响应消息
	Data    interface{} `json:"data,omitempty"`     // 响应数据，可能为空
	TraceID string      `json:"trace_id,omitempty"` // 调用链追踪ID
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) *Response {
	return &Response{
		Code:    code,
		Message: message,
	}
}

// UploadResponse 文档上传响应
type UploadResponse struct {
	SessionID  string   `json:"session_id"`  // 本次上传建立的会话ID
	Files      []string `json:"files"`       // 上传的文件名列表
	ChunkCount int      `json:"chunk_count"` // 索引的分块数量
}

// AskResponse 问答响应
type AskResponse struct {
	SessionID string `json:"session_id"` // 实际使用的会话ID
	Question  string `json:"question"`   // 用户问题
	Answer    string `json:"answer"`     // 生成的回答
}

// SessionInfo 会话信息
type SessionInfo struct {
	SessionID  string    `json:"session_id"`  // 会话ID
	FileCount  int       `json:"file_count"`  // 上传的文件数
	ChunkCount int       `json:"chunk_count"` // 索引的分块数
	CreatedAt  time.Time `json:"created_at"`  // 创建时间
}

// SessionListResponse 会话列表响应
type SessionListResponse struct {
	Total    int           `json:"total"`    // 活跃会话总数
	Sessions []SessionInfo `json:"sessions"` // 会话列表
}
