package document

import (
	"fmt"
	"os"
	"strings"
)

// PlainTextParser 纯文本解析器
type PlainTextParser struct{}

// NewPlainTextParser 创建一个新的纯文本解析器
func NewPlainTextParser() Parser {
	return &PlainTextParser{}
}

// Parse 解析纯文本文件
// 纯文本没有页码概念，整个文件作为一条页面记录返回
func (p *PlainTextParser) Parse(filePath string) ([]Page, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read text file: %v", err)
	}

	text := strings.TrimSpace(string(content))

	return []Page{{
		Text:   text,
		Source: filePath,
		Number: 0,
	}}, nil
}
