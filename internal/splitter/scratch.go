package splitter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Arena 临时文件工作区
// 每次摄取运行获取一个独立的uuid目录，运行结束后整体清理，
// 避免并发运行之间的中间文件互相覆盖
type Arena struct {
	baseDir string
}

// NewArena 创建临时文件工作区
func NewArena(baseDir string) *Arena {
	return &Arena{baseDir: baseDir}
}

// Space 一次运行占用的临时目录
type Space struct {
	dir string
}

// Acquire 为一次运行分配独立的临时目录
func (a *Arena) Acquire() (*Space, error) {
	dir := filepath.Join(a.baseDir, uuid.New().String())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %v", err)
	}
	return &Space{dir: dir}, nil
}

// Dir 返回临时目录路径
func (s *Space) Dir() string {
	return s.dir
}

// Sub 在临时目录下创建子目录
func (s *Space) Sub(name string) (string, error) {
	dir := filepath.Join(s.dir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create scratch subdir: %v", err)
	}
	return dir, nil
}

// Cleanup 清理整个临时目录及其所有中间文件
func (s *Space) Cleanup() error {
	return os.RemoveAll(s.dir)
}
