package splitter

import (
	"fmt"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sirupsen/logrus"
)

// DefaultMaxPagesPerChunk 默认每个分组的最大页数
const DefaultMaxPagesPerChunk = 500

// PageSplitter 按页数分割PDF
// 将文档切为若干连续页分组，每组不超过最大页数，用于远程OCR的分批提交
type PageSplitter struct {
	maxPages int
	logger   *logrus.Logger
}

// PageSplitterOption 页数分割器选项函数
type PageSplitterOption func(*PageSplitter)

// WithMaxPagesPerChunk 设置每个分组的最大页数
func WithMaxPagesPerChunk(maxPages int) PageSplitterOption {
	return func(p *PageSplitter) {
		if maxPages > 0 {
			p.maxPages = maxPages
		}
	}
}

// WithPageSplitterLogger 设置日志记录器
func WithPageSplitterLogger(logger *logrus.Logger) PageSplitterOption {
	return func(p *PageSplitter) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPageSplitter 创建按页数分割的分割器
func NewPageSplitter(opts ...PageSplitterOption) *PageSplitter {
	p := &PageSplitter{
		maxPages: DefaultMaxPagesPerChunk,
		logger:   logrus.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Split 将PDF文件按页数分割为多个分组文件
// 分组数量为总页数除以最大页数后向上取整
func (p *PageSplitter) Split(filePath string, outDir string) ([]string, error) {
	conf := model.NewDefaultConfiguration()

	totalPages, err := api.PageCountFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to count PDF pages: %v", err)
	}

	numChunks := (totalPages + p.maxPages - 1) / p.maxPages

	var chunks []string
	for i := 0; i < numChunks; i++ {
		startPage := i*p.maxPages + 1
		endPage := (i + 1) * p.maxPages
		if endPage > totalPages {
			endPage = totalPages
		}

		out := filepath.Join(outDir, fmt.Sprintf("chunk_%d.pdf", i+1))
		pageRange := []string{fmt.Sprintf("%d-%d", startPage, endPage)}

		if err := api.TrimFile(filePath, out, pageRange, conf); err != nil {
			return nil, fmt.Errorf("failed to trim pages %d-%d: %v", startPage, endPage, err)
		}

		p.logger.WithFields(logrus.Fields{
			"chunk":      i + 1,
			"page_range": pageRange[0],
		}).Debug("Created PDF page chunk")

		chunks = append(chunks, out)
	}

	return chunks, nil
}
