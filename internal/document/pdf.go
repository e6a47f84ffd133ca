package document

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PDFParser PDF文档解析器
// 只读取文本层；扫描版PDF的恢复由OCR流程负责
type PDFParser struct{}

// NewPDFParser 创建一个新的PDF解析器
func NewPDFParser() Parser {
	return &PDFParser{}
}

// Parse 解析PDF文件并按页提取文本层内容
// 输出只包含文本对象，图片和绘图指令不会混入；纯扫描页得到空文本
func (p *PDFParser) Parse(filePath string) (pages []Page, err error) {
	// 结构异常的PDF可能使解析库panic，统一转为错误交由上层兜底
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("failed to parse PDF: %v", r)
		}
	}()

	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF file: %v", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat PDF file: %v", err)
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %v", err)
	}

	total := reader.NumPage()
	if total == 0 {
		return nil, fmt.Errorf("no pages found in PDF")
	}

	for i := 1; i <= total; i++ {
		page := reader.Page(i)

		// 单页提取失败按空页处理，是否进入OCR恢复由提取器判定
		text := ""
		if !page.V.IsNull() {
			if content, textErr := page.GetPlainText(nil); textErr == nil {
				text = content
			}
		}

		pages = append(pages, Page{
			Text:   strings.TrimSpace(text),
			Source: filePath,
			Number: i,
		})
	}

	return pages, nil
}

// PageCount 返回PDF文件的页数
func PageCount(filePath string) (int, error) {
	count, err := api.PageCountFile(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to count PDF pages: %v", err)
	}
	return count, nil
}
