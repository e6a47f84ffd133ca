package splitter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sirupsen/logrus"
)

// DefaultTargetPartSize 默认目标分片大小（字节）
const DefaultTargetPartSize int64 = 48 * 1024 * 1024

// SizeSplitter 按文件大小分割PDF
// 逐页累积页区间，当分片文件达到目标大小（或到达末页）时固定该分片
type SizeSplitter struct {
	targetSize int64
	logger     *logrus.Logger
}

// SizeSplitterOption 大小分割器选项函数
type SizeSplitterOption func(*SizeSplitter)

// WithTargetPartSize 设置目标分片大小（字节）
func WithTargetPartSize(size int64) SizeSplitterOption {
	return func(s *SizeSplitter) {
		if size > 0 {
			s.targetSize = size
		}
	}
}

// WithSizeSplitterLogger 设置日志记录器
func WithSizeSplitterLogger(logger *logrus.Logger) SizeSplitterOption {
	return func(s *SizeSplitter) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSizeSplitter 创建按大小分割的分割器
func NewSizeSplitter(opts ...SizeSplitterOption) *SizeSplitter {
	s := &SizeSplitter{
		targetSize: DefaultTargetPartSize,
		logger:     logrus.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Split 将PDF文件按大小分割为多个分片文件
// 返回分片文件路径，按分片顺序排列
func (s *SizeSplitter) Split(filePath string, outDir string) ([]string, error) {
	conf := model.NewDefaultConfiguration()

	totalPages, err := api.PageCountFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to count PDF pages: %v", err)
	}

	var parts []string
	partNum := 1
	startPage := 1

	for page := 1; page <= totalPages; page++ {
		candidate := filepath.Join(outDir, fmt.Sprintf("split_part_%d.pdf", partNum))
		pageRange := []string{fmt.Sprintf("%d-%d", startPage, page)}

		// 写出当前累积页区间的候选分片
		// 区间未达目标大小时，下一轮迭代会用更大的区间覆盖同一路径
		if err := api.TrimFile(filePath, candidate, pageRange, conf); err != nil {
			return nil, fmt.Errorf("failed to trim pages %d-%d: %v", startPage, page, err)
		}

		info, err := os.Stat(candidate)
		if err != nil {
			return nil, fmt.Errorf("failed to stat candidate part: %v", err)
		}

		if info.Size() >= s.targetSize || page == totalPages {
			s.logger.WithFields(logrus.Fields{
				"part":       partNum,
				"page_range": pageRange[0],
				"size":       info.Size(),
			}).Info("Fixed PDF size part")

			parts = append(parts, candidate)
			partNum++
			startPage = page + 1
		}
	}

	return parts, nil
}
