package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage 本地文件存储实现
type LocalStorage struct {
	basePath string // 基础存储路径
}

// LocalConfig 本地存储配置
type LocalConfig struct {
	Path string // 本地存储路径
}

// NewLocalStorage 创建本地存储实例
func NewLocalStorage(cfg LocalConfig) (*LocalStorage, error) {
	// 确保路径是绝对路径
	absPath, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %v", err)
	}

	// 确保目录存在
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %v", err)
	}

	return &LocalStorage{
		basePath: absPath,
	}, nil
}

// SaveToSession 将文件保存到指定会话的目录
func (s *LocalStorage) SaveToSession(sessionID string, filename string, reader io.Reader) (FileInfo, error) {
	dirPath, err := s.EnsureSession(sessionID)
	if err != nil {
		return FileInfo{}, err
	}

	// 只保留文件名部分，防止路径穿越
	safeName := filepath.Base(filename)
	if safeName == "." || safeName == string(filepath.Separator) || strings.TrimSpace(safeName) == "" {
		return FileInfo{}, fmt.Errorf("invalid filename: %s", filename)
	}

	filePath := filepath.Join(dirPath, safeName)

	file, err := os.Create(filePath)
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to create file: %v", err)
	}
	defer file.Close()

	size, err := io.Copy(file, reader)
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to write file: %v", err)
	}

	return FileInfo{
		Name: safeName,
		Size: size,
		Path: filePath,
	}, nil
}

// SessionDir 返回会话的文档目录路径
func (s *LocalStorage) SessionDir(sessionID string) string {
	return filepath.Join(s.basePath, sessionID)
}

// EnsureSession 确保会话目录存在并返回其路径
func (s *LocalStorage) EnsureSession(sessionID string) (string, error) {
	dirPath := s.SessionDir(sessionID)
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create session directory: %v", err)
	}
	return dirPath, nil
}

// RemoveSession 删除会话目录及其所有文件
func (s *LocalStorage) RemoveSession(sessionID string) error {
	return os.RemoveAll(s.SessionDir(sessionID))
}
