package document

import (
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

// Chunk 文本分块
// 分块是嵌入和检索的最小单位
type Chunk struct {
	Text   string // 分块文本内容
	Source string // 源文件路径
	Index  int    // 分块在文档中的序号（从0开始）
}

// ChunkerConfig 分块器配置
type ChunkerConfig struct {
	ChunkSize    int // 分块大小（字符数）
	ChunkOverlap int // 相邻分块的重叠大小（字符数）
}

// DefaultChunkerConfig 返回默认分块器配置
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		ChunkSize:    500,
		ChunkOverlap: 100,
	}
}

// Chunker 文本分块器
// 按固定大小滑动窗口分块，优先在自然边界处断开
type Chunker struct {
	config ChunkerConfig
	logger *logrus.Logger
}

// ChunkerOption 分块器选项函数
type ChunkerOption func(*Chunker)

// WithChunkSize 设置分块大小
func WithChunkSize(size int) ChunkerOption {
	return func(c *Chunker) {
		if size > 0 {
			c.config.ChunkSize = size
		}
	}
}

// WithChunkOverlap 设置分块重叠大小
func WithChunkOverlap(overlap int) ChunkerOption {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.config.ChunkOverlap = overlap
		}
	}
}

// WithChunkerLogger 设置日志记录器
func WithChunkerLogger(logger *logrus.Logger) ChunkerOption {
	return func(c *Chunker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewChunker 创建新的文本分块器
func NewChunker(opts ...ChunkerOption) *Chunker {
	c := &Chunker{
		config: DefaultChunkerConfig(),
		logger: logrus.New(),
	}
	for _, opt := range opts {
		opt(c)
	}

	// 重叠不能大于等于分块大小，否则窗口无法前进
	if c.config.ChunkOverlap >= c.config.ChunkSize {
		c.config.ChunkOverlap = c.config.ChunkSize / 5
	}

	return c
}

// boundaryMarkers 按优先级排列的自然边界标记
var boundaryMarkers = []string{"\n\n", "\n", ". ", " "}

// ChunkText 将文本分块
// 相同输入保证产生相同的分块序列；任何意外情况下返回空切片而不中断整体流程
func (c *Chunker) ChunkText(text string, source string) (chunks []Chunk) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.WithField("source", source).
				Warnf("chunking panic recovered: %v", r)
			chunks = []Chunk{}
		}
	}()

	if strings.TrimSpace(text) == "" {
		return []Chunk{}
	}

	// 窗口按字符计算，多字节文本不会在字符中间截断
	runes := []rune(text)
	size := c.config.ChunkSize
	overlap := c.config.ChunkOverlap

	index := 0
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else {
			// 优先在自然边界处断开
			end = c.findBoundary(runes, start, end)
		}

		chunks = append(chunks, Chunk{
			Text:   string(runes[start:end]),
			Source: source,
			Index:  index,
		})
		index++

		if end == len(runes) {
			break
		}

		// 下一个分块从重叠位置开始；保证窗口始终前进
		newStart := end - overlap
		if newStart <= start {
			newStart = end
		}
		start = newStart
	}

	return chunks
}

// findBoundary 在[start, end)区间的末尾附近寻找自然边界，返回字符下标
// 若回退会导致分块过小则放弃边界对齐，直接在end处截断
func (c *Chunker) findBoundary(runes []rune, start, end int) int {
	// 最多回退分块大小的一半，保证分块持续推进
	minEnd := start + c.config.ChunkSize/2

	window := string(runes[start:end])
	for _, marker := range boundaryMarkers {
		pos := strings.LastIndex(window, marker)
		if pos == -1 {
			continue
		}
		boundary := start + utf8.RuneCountInString(window[:pos]) + utf8.RuneCountInString(marker)
		if boundary > minEnd {
			return boundary
		}
	}

	return end
}

// ChunkPages 将页面记录序列分块
// 分块序号跨页面连续递增，每个分块保留其来源文件路径
func (c *Chunker) ChunkPages(pages []Page) []Chunk {
	var all []Chunk

	for _, page := range pages {
		pageChunks := c.ChunkText(page.Text, page.Source)
		for i := range pageChunks {
			pageChunks[i].Index = len(all) + i
		}
		all = append(all, pageChunks...)
	}

	return all
}
