package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultMinContentLen 判定扫描版PDF的最小文本长度（字符数）
const DefaultMinContentLen = 10

// TextRecoverer 文本恢复接口
// 当直接解析无法获得有效文本时（如扫描版PDF），由恢复器兜底
type TextRecoverer interface {
	Recover(ctx context.Context, filePath string) ([]Page, error)
}

// Extractor 文档提取器
// 遍历文件夹内的所有文档，按类型分发解析，单个文件失败不影响其余文件
type Extractor struct {
	recoverer     TextRecoverer
	minContentLen int
	logger        *logrus.Logger
}

// ExtractorOption 提取器选项函数
type ExtractorOption func(*Extractor)

// WithMinContentLen 设置判定扫描版PDF的最小文本长度
func WithMinContentLen(length int) ExtractorOption {
	return func(e *Extractor) {
		if length > 0 {
			e.minContentLen = length
		}
	}
}

// WithExtractorLogger 设置日志记录器
func WithExtractorLogger(logger *logrus.Logger) ExtractorOption {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExtractor 创建文档提取器
// recoverer为nil时不启用OCR兜底，扫描版PDF将提取失败
func NewExtractor(recoverer TextRecoverer, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		recoverer:     recoverer,
		minContentLen: DefaultMinContentLen,
		logger:        logrus.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// extractionStrategy 一种提取策略
// 提取器按顺序尝试策略链，前一个失败则进入下一个
type extractionStrategy struct {
	name string
	run  func(ctx context.Context, filePath string) ([]Page, error)
}

// ExtractFolder 提取文件夹内所有受支持文档的页面记录
// 单个文件提取失败只记录日志并跳过，不中断整体提取
func (e *Extractor) ExtractFolder(ctx context.Context, folder string) ([]Page, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to read folder: %v", err)
	}

	var allPages []Page
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		filePath := filepath.Join(folder, entry.Name())
		pages, err := e.ExtractFile(ctx, filePath)
		if err != nil {
			e.logger.WithField("file", filePath).
				WithError(err).Warn("Failed to extract document, skipping")
			continue
		}

		allPages = append(allPages, pages...)
	}

	return allPages, nil
}

// ExtractFile 提取单个文档的页面记录
func (e *Extractor) ExtractFile(ctx context.Context, filePath string) ([]Page, error) {
	contentType := DetectContentType(filePath)
	if contentType == Unknown {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(filePath))
	}

	strategies := e.strategiesFor(contentType)

	var lastErr error
	for _, strategy := range strategies {
		pages, err := strategy.run(ctx, filePath)
		if err != nil {
			e.logger.WithFields(logrus.Fields{
				"file":     filePath,
				"strategy": strategy.name,
			}).WithError(err).Debug("Extraction strategy failed, trying next")
			lastErr = err
			continue
		}
		return pages, nil
	}

	return nil, fmt.Errorf("all extraction strategies failed: %v", lastErr)
}

// strategiesFor 返回某内容类型的提取策略链
// PDF的直接解析失败或文本过少时回退到OCR恢复，其余类型只做直接解析
func (e *Extractor) strategiesFor(contentType ContentType) []extractionStrategy {
	direct := extractionStrategy{
		name: "direct",
		run: func(ctx context.Context, filePath string) ([]Page, error) {
			parser, err := ParserFactory(filePath)
			if err != nil {
				return nil, err
			}
			pages, err := parser.Parse(filePath)
			if err != nil {
				return nil, err
			}

			// 首页文本过少视为扫描版，交给下一个策略处理
			if contentType == PDF && e.isScanned(pages) {
				return nil, fmt.Errorf("insufficient text on first page, likely a scanned PDF")
			}
			return pages, nil
		},
	}

	if contentType == PDF && e.recoverer != nil {
		return []extractionStrategy{
			direct,
			{
				name: "ocr",
				run: func(ctx context.Context, filePath string) ([]Page, error) {
					return e.recoverer.Recover(ctx, filePath)
				},
			},
		}
	}

	return []extractionStrategy{direct}
}

// isScanned 根据首页文本长度判定PDF是否为扫描版
func (e *Extractor) isScanned(pages []Page) bool {
	if len(pages) == 0 {
		return true
	}
	firstPage := strings.TrimSpace(pages[0].Text)
	return len([]rune(firstPage)) < e.minContentLen
}
