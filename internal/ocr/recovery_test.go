package ocr

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/expert-QA-system/internal/splitter"
)

// fakeOCRClient 测试用的OCR客户端
// 按调用顺序返回预设的每组识别结果
type fakeOCRClient struct {
	results [][]PageResult
	errs    []error
	calls   int32
}

func (f *fakeOCRClient) ProcessFile(ctx context.Context, filePath string) ([]PageResult, error) {
	call := int(atomic.AddInt32(&f.calls, 1)) - 1
	if call < len(f.errs) && f.errs[call] != nil {
		return nil, f.errs[call]
	}
	if call < len(f.results) {
		return f.results[call], nil
	}
	return nil, fmt.Errorf("unexpected call %d", call)
}

func (f *fakeOCRClient) GetConfig() *ServiceConfig {
	return DefaultConfig()
}

// createTestPDF 生成指定页数的PDF测试文件
func createTestPDF(t *testing.T, numPages int) string {
	t.Helper()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	for i := 1; i <= numPages; i++ {
		pdf.AddPage()
		pdf.MultiCell(0, 10, fmt.Sprintf("Scanned page %d placeholder.", i), "", "", false)
	}

	path := filepath.Join(t.TempDir(), "scanned.pdf")
	require.NoError(t, pdf.OutputFileAndClose(path))
	return path
}

func newTestRecovery(client Client, t *testing.T, opts ...RecoveryOption) *Recovery {
	arena := splitter.NewArena(filepath.Join(t.TempDir(), "scratch"))
	return NewRecovery(client,
		splitter.NewSizeSplitter(splitter.WithTargetPartSize(1)),
		splitter.NewPageSplitter(splitter.WithMaxPagesPerChunk(2)),
		arena,
		opts...,
	)
}

// TestRecoverSingleGroup 测试单组恢复
func TestRecoverSingleGroup(t *testing.T) {
	path := createTestPDF(t, 2)

	client := &fakeOCRClient{
		results: [][]PageResult{
			{{Index: 0, Markdown: "第一页识别结果"}, {Index: 1, Markdown: "第二页识别结果"}},
		},
	}
	recovery := newTestRecovery(client, t)

	pages, err := recovery.Recover(context.Background(), path)

	require.NoError(t, err)
	require.Len(t, pages, 1, "恢复结果应是单条页面记录")
	assert.Equal(t, "第一页识别结果\n第二页识别结果", pages[0].Text, "组内页面文本应按换行拼接")
	assert.Equal(t, path, pages[0].Source, "来源应是原始文件路径")
	assert.Equal(t, 0, pages[0].Number)
}

// TestRecoverMultipleGroups 测试多组恢复的拼接
func TestRecoverMultipleGroups(t *testing.T) {
	// 5页按每组2页分组，应产生3个OCR分组
	path := createTestPDF(t, 5)

	client := &fakeOCRClient{
		results: [][]PageResult{
			{{Index: 0, Markdown: "group1"}},
			{{Index: 0, Markdown: "group2"}},
			{{Index: 0, Markdown: "group3"}},
		},
	}
	recovery := newTestRecovery(client, t)

	pages, err := recovery.Recover(context.Background(), path)

	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "group1\ngroup2\ngroup3", pages[0].Text, "分组文本应按换行拼接")
	assert.Equal(t, int32(3), atomic.LoadInt32(&client.calls))
}

// TestRecoverGroupFailure 测试单组失败不中断整体恢复
func TestRecoverGroupFailure(t *testing.T) {
	path := createTestPDF(t, 5)

	client := &fakeOCRClient{
		results: [][]PageResult{
			{{Index: 0, Markdown: "group1"}},
			nil,
			{{Index: 0, Markdown: "group3"}},
		},
		errs: []error{nil, fmt.Errorf("ocr service unavailable"), nil},
	}
	recovery := newTestRecovery(client, t)

	pages, err := recovery.Recover(context.Background(), path)

	require.NoError(t, err, "单组失败不应使整体恢复失败")
	require.Len(t, pages, 1)
	assert.Equal(t, "group1\n\ngroup3", pages[0].Text, "失败分组的文本应记为空")
}

// TestRecoverLargeFile 测试超过大小阈值的文件先按大小分片
func TestRecoverLargeFile(t *testing.T) {
	path := createTestPDF(t, 3)

	// 目标分片大小为1字节，每页成为一个分片；每个分片再按页数分组
	client := &fakeOCRClient{
		results: [][]PageResult{
			{{Index: 0, Markdown: "part1"}},
			{{Index: 0, Markdown: "part2"}},
			{{Index: 0, Markdown: "part3"}},
		},
	}
	recovery := newTestRecovery(client, t, WithSizeLimit(1))

	pages, err := recovery.Recover(context.Background(), path)

	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "part1\npart2\npart3", pages[0].Text)
	assert.Equal(t, int32(3), atomic.LoadInt32(&client.calls), "每个分片分组都应提交OCR")
}

// TestRecoverMissingFile 测试文件不存在
func TestRecoverMissingFile(t *testing.T) {
	client := &fakeOCRClient{}
	recovery := newTestRecovery(client, t)

	_, err := recovery.Recover(context.Background(), "/nonexistent/file.pdf")
	assert.Error(t, err)
}
