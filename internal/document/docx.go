package document

import (
	"fmt"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

// DocxParser Word文档解析器
type DocxParser struct{}

// NewDocxParser 创建新的Word文档解析器
func NewDocxParser() Parser {
	return &DocxParser{}
}

// Parse 解析docx文件并提取文本内容
// docx的分页由渲染决定，没有固定页码，整个文件作为一条页面记录返回
func (p *DocxParser) Parse(filePath string) ([]Page, error) {
	doc, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open docx file: %v", err)
	}
	defer doc.Close()

	// GetContent返回的是文档的XML内容，需要从中提取文本
	content := doc.Editable().GetContent()
	text := extractTextFromDocxXML(content)

	return []Page{{
		Text:   text,
		Source: filePath,
		Number: 0,
	}}, nil
}

// extractTextFromDocxXML 从docx的XML内容中提取文本
// 文本位于<w:t>标签中，段落边界(</w:p>)转换为换行符
func extractTextFromDocxXML(content string) string {
	var sb strings.Builder

	for {
		// 段落结束标签先于文本标签时输出换行
		pEnd := strings.Index(content, "</w:p>")
		start := strings.Index(content, "<w:t")
		if start == -1 {
			break
		}
		if pEnd != -1 && pEnd < start {
			sb.WriteString("\n")
			content = content[pEnd+len("</w:p>"):]
			continue
		}

		// 跳过<w:t ...>的属性部分
		tagEnd := strings.Index(content[start:], ">")
		if tagEnd == -1 {
			break
		}
		content = content[start+tagEnd+1:]

		end := strings.Index(content, "</w:t>")
		if end == -1 {
			break
		}
		sb.WriteString(content[:end])
		content = content[end+len("</w:t>"):]
	}

	return normalizeWhitespace(sb.String())
}
