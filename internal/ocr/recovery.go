package ocr

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/expert-QA-system/internal/document"
	"github.com/fyerfyer/expert-QA-system/internal/splitter"
)

// DefaultSizeLimit 触发按大小预分割的文件大小阈值（字节）
const DefaultSizeLimit int64 = 50 * 1024 * 1024

// Recovery 扫描版PDF的OCR恢复服务
// 大文件先按大小分片，再按页数分组提交给远程OCR服务；
// 单个分组失败不会中断整体恢复，该分组的文本记为空
type Recovery struct {
	client       Client
	sizeSplitter *splitter.SizeSplitter
	pageSplitter *splitter.PageSplitter
	arena        *splitter.Arena
	sizeLimit    int64
	logger       *logrus.Logger
}

// RecoveryOption OCR恢复服务的选项函数
type RecoveryOption func(*Recovery)

// WithSizeLimit 设置触发预分割的文件大小阈值（字节）
func WithSizeLimit(limit int64) RecoveryOption {
	return func(r *Recovery) {
		if limit > 0 {
			r.sizeLimit = limit
		}
	}
}

// WithRecoveryLogger 设置日志记录器
func WithRecoveryLogger(logger *logrus.Logger) RecoveryOption {
	return func(r *Recovery) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRecovery 创建OCR恢复服务
func NewRecovery(client Client, sizeSplitter *splitter.SizeSplitter, pageSplitter *splitter.PageSplitter, arena *splitter.Arena, opts ...RecoveryOption) *Recovery {
	r := &Recovery{
		client:       client,
		sizeSplitter: sizeSplitter,
		pageSplitter: pageSplitter,
		arena:        arena,
		sizeLimit:    DefaultSizeLimit,
		logger:       logrus.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recover 通过远程OCR恢复扫描版PDF的文本内容
// 返回单条页面记录，其来源为原始文件路径，文本为所有分组识别结果的拼接
func (r *Recovery) Recover(ctx context.Context, filePath string) ([]document.Page, error) {
	space, err := r.arena.Acquire()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire scratch space: %v", err)
	}
	defer func() {
		if err := space.Cleanup(); err != nil {
			r.logger.WithError(err).Warn("Failed to clean up scratch space")
		}
	}()

	groups, err := r.prepareGroups(filePath, space)
	if err != nil {
		return nil, err
	}

	// 逐组提交OCR，单组失败只记录日志，文本记为空
	var groupTexts []string
	for i, group := range groups {
		pages, err := r.client.ProcessFile(ctx, group)
		if err != nil {
			r.logger.WithFields(logrus.Fields{
				"file":  filePath,
				"group": i + 1,
			}).WithError(err).Warn("OCR group failed, recording empty text")
			groupTexts = append(groupTexts, "")
			continue
		}

		texts := make([]string, len(pages))
		for j, page := range pages {
			texts[j] = page.Markdown
		}
		groupTexts = append(groupTexts, strings.Join(texts, "\n"))
	}

	combined := strings.Join(groupTexts, "\n")

	r.logger.WithFields(logrus.Fields{
		"file":   filePath,
		"groups": len(groups),
	}).Info("OCR recovery completed")

	return []document.Page{{
		Text:   combined,
		Source: filePath,
		Number: 0,
	}}, nil
}

// prepareGroups 将文件切分为适合提交OCR的分组文件
// 超过大小阈值的文件先按大小分片，每个分片再按页数分组
func (r *Recovery) prepareGroups(filePath string, space *splitter.Space) ([]string, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %v", err)
	}

	if info.Size() <= r.sizeLimit {
		groupDir, err := space.Sub("groups")
		if err != nil {
			return nil, err
		}
		return r.pageSplitter.Split(filePath, groupDir)
	}

	r.logger.WithFields(logrus.Fields{
		"file": filePath,
		"size": info.Size(),
	}).Info("File exceeds size limit, splitting before OCR")

	partDir, err := space.Sub("parts")
	if err != nil {
		return nil, err
	}
	parts, err := r.sizeSplitter.Split(filePath, partDir)
	if err != nil {
		return nil, fmt.Errorf("failed to split file by size: %v", err)
	}

	var groups []string
	for i, part := range parts {
		groupDir, err := space.Sub(fmt.Sprintf("groups_%d", i+1))
		if err != nil {
			return nil, err
		}
		partGroups, err := r.pageSplitter.Split(part, groupDir)
		if err != nil {
			return nil, fmt.Errorf("failed to split part %d by pages: %v", i+1, err)
		}
		groups = append(groups, partGroups...)
	}

	return groups, nil
}
