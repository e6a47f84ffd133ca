package storage

import (
	"io"
)

// FileInfo 保存后的文件信息
type FileInfo struct {
	Name string // 原始文件名
	Size int64  // 文件大小（字节）
	Path string // 文件的绝对路径
}

// Storage 会话文档存储接口
// 每个会话的文档保存在独立目录下，会话结束后整体清理
type Storage interface {
	// SaveToSession 将文件保存到指定会话的目录
	SaveToSession(sessionID string, filename string, reader io.Reader) (FileInfo, error)

	// SessionDir 返回会话的文档目录路径
	SessionDir(sessionID string) string

	// EnsureSession 确保会话目录存在并返回其路径
	EnsureSession(sessionID string) (string, error)

	// RemoveSession 删除会话目录及其所有文件
	RemoveSession(sessionID string) error
}
