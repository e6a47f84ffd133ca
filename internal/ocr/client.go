package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// PageResult 单页OCR识别结果
type PageResult struct {
	Index    int    `json:"index"`    // 页序号（从0开始）
	Markdown string `json:"markdown"` // 识别出的Markdown文本
}

// Client 远程OCR服务客户端接口
type Client interface {
	// ProcessFile 将PDF文件提交给OCR服务识别，返回按页序排列的识别结果
	ProcessFile(ctx context.Context, filePath string) ([]PageResult, error)
	// GetConfig 获取客户端配置
	GetConfig() *ServiceConfig
}

// HTTPClient 实现了远程OCR服务的HTTP客户端
type HTTPClient struct {
	client *http.Client
	config *ServiceConfig
}

// APIError 表示OCR服务返回的错误
type APIError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Detail     string `json:"detail"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("OCR API error (status code: %d): %s - %s", e.StatusCode, e.Message, e.Detail)
}

// NewClient 创建一个新的OCR服务HTTP客户端
func NewClient(config *ServiceConfig) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	client := &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &HTTPClient{
		client: client,
		config: config,
	}, nil
}

// ProcessFile 提交PDF文件并等待OCR识别完成
func (c *HTTPClient) ProcessFile(ctx context.Context, filePath string) ([]PageResult, error) {
	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read file for OCR")
	}

	url := fmt.Sprintf("%s/ocr/process", c.config.BaseURL)

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), "OCR request context canceled")
			case <-time.After(c.config.RetryDelay * time.Duration(attempt)):
				// 增加退避时间
			}
		}

		// multipart请求体在每次重试时重建，避免复用已消耗的Reader
		req, err := c.buildRequest(ctx, url, filepath.Base(filePath), fileData)
		if err != nil {
			return nil, err
		}

		results, err := c.doRequest(req)
		if err == nil {
			return results, nil
		}
		lastErr = err

		// 4xx错误重试没有意义，直接返回
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
			return nil, err
		}
	}

	return nil, errors.Wrap(lastErr, "OCR request failed after retries")
}

// buildRequest 构造multipart文件上传请求
func (c *HTTPClient) buildRequest(ctx context.Context, url, fileName string, fileData []byte) (*http.Request, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create multipart form")
	}
	if _, err := part.Write(fileData); err != nil {
		return nil, errors.Wrap(err, "failed to write multipart data")
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to finalize multipart form")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create OCR request")
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	return req, nil
}

// doRequest 执行请求并解析识别结果
func (c *HTTPClient) doRequest(req *http.Request) ([]PageResult, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "OCR HTTP request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read OCR response body")
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Message:    "OCR call failed",
		}

		// 尝试解析错误详情
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Detail != "" {
			apiErr.Detail = errResp.Detail
		} else {
			apiErr.Detail = string(body)
		}

		return nil, apiErr
	}

	var result struct {
		Pages []PageResult `json:"pages"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal OCR response")
	}

	return result.Pages, nil
}

// GetConfig 返回客户端配置
func (c *HTTPClient) GetConfig() *ServiceConfig {
	return c.config
}
