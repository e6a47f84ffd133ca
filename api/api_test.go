package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/expert-QA-system/api/handler"
	"github.com/fyerfyer/expert-QA-system/api/model"
	"github.com/fyerfyer/expert-QA-system/internal/document"
	"github.com/fyerfyer/expert-QA-system/internal/llm"
	"github.com/fyerfyer/expert-QA-system/internal/services"
	"github.com/fyerfyer/expert-QA-system/internal/session"
	"github.com/fyerfyer/expert-QA-system/pkg/storage"
)

// fakeEmbedder 测试用的嵌入客户端
type fakeEmbedder struct{}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text) % 7), 1, 0, 0}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i, text := range texts {
		v, _ := f.Embed(ctx, text)
		result[i] = v
	}
	return result, nil
}

func (f *fakeEmbedder) Name() string { return "fake-embedder" }

// fakeLLM 测试用的大模型客户端
type fakeLLM struct {
	answer string
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.GenerateOption) (*llm.Response, error) {
	return &llm.Response{Text: f.answer}, nil
}

func (f *fakeLLM) Chat(ctx context.Context, messages []llm.Message, options ...llm.GenerateOption) (*llm.Response, error) {
	return &llm.Response{Text: f.answer}, nil
}

func (f *fakeLLM) Name() string { return "fake-llm" }

// apiTestEnv API测试环境
type apiTestEnv struct {
	Router   *gin.Engine
	Registry *session.Registry
	Storage  storage.Storage
}

// setupTestEnv 创建API测试环境
func setupTestEnv(t *testing.T) *apiTestEnv {
	gin.SetMode(gin.TestMode)

	fileStorage, err := storage.NewLocalStorage(storage.LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)

	registry := session.NewRegistry()
	t.Cleanup(registry.Close)

	ragService := llm.NewRAG(&fakeLLM{answer: "这是一个模拟回答"})

	ingestService := services.NewIngestService(
		document.NewExtractor(nil),
		document.NewChunker(),
		&fakeEmbedder{},
		ragService,
		registry,
		services.WithVectorDBType("memory"),
		services.WithDimension(4),
	)

	qaService := services.NewQAService(registry, nil)

	router := SetupRouter(
		handler.NewUploadHandler(fileStorage, ingestService),
		handler.NewAskHandler(qaService),
		handler.NewChatHandler(),
		handler.NewSessionHandler(qaService),
	)

	return &apiTestEnv{
		Router:   router,
		Registry: registry,
		Storage:  fileStorage,
	}
}

// uploadFiles 通过multipart表单上传文件
func uploadFiles(t *testing.T, env *apiTestEnv, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	return w
}

// askQuestion 发起问答请求
func askQuestion(t *testing.T, env *apiTestEnv, sessionID, question string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(map[string]string{
		"session_id": sessionID,
		"question":   question,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/ask", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	return w
}

// parseResponse 解析通用响应并返回data部分
func parseResponse(t *testing.T, w *httptest.ResponseRecorder, data interface{}) *model.Response {
	t.Helper()

	var resp model.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	if data != nil && resp.Data != nil {
		raw, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, data))
	}
	return &resp
}

// TestUploadDocuments 测试文档上传
func TestUploadDocuments(t *testing.T) {
	env := setupTestEnv(t)

	w := uploadFiles(t, env, map[string]string{
		"a.txt": "第一份文档的内容，包含贷款相关条款。",
		"b.txt": "第二份文档的内容，包含信用卡相关条款。",
	})

	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	var data model.UploadResponse
	resp := parseResponse(t, w, &data)
	assert.Equal(t, 0, resp.Code)
	assert.NotEmpty(t, data.SessionID)
	assert.Len(t, data.Files, 2)
	assert.Greater(t, data.ChunkCount, 0)

	// 会话应已注册
	_, err := env.Registry.Resolve(data.SessionID)
	assert.NoError(t, err)
}

// TestUploadNoFiles 测试没有文件的上传请求
func TestUploadNoFiles(t *testing.T) {
	env := setupTestEnv(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestAskQuestion 测试问答流程
func TestAskQuestion(t *testing.T) {
	env := setupTestEnv(t)

	// 先上传文档建立会话
	w := uploadFiles(t, env, map[string]string{
		"doc.txt": "本行个人贷款年化利率为4.5%。",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var uploadData model.UploadResponse
	parseResponse(t, w, &uploadData)

	t.Run("ask with session id", func(t *testing.T) {
		w := askQuestion(t, env, uploadData.SessionID, "贷款利率是多少？")
		require.Equal(t, http.StatusOK, w.Code)

		var data model.AskResponse
		resp := parseResponse(t, w, &data)
		assert.Equal(t, 0, resp.Code)
		assert.Equal(t, "这是一个模拟回答", data.Answer)
		assert.Equal(t, uploadData.SessionID, data.SessionID)
	})

	t.Run("ask without session id uses latest", func(t *testing.T) {
		w := askQuestion(t, env, "", "贷款利率是多少？")
		require.Equal(t, http.StatusOK, w.Code)

		var data model.AskResponse
		parseResponse(t, w, &data)
		assert.Equal(t, "这是一个模拟回答", data.Answer)
		assert.Equal(t, uploadData.SessionID, data.SessionID)
	})
}

// TestAskInvalidSession 测试无效会话的固定回复
func TestAskInvalidSession(t *testing.T) {
	env := setupTestEnv(t)

	t.Run("no sessions yet", func(t *testing.T) {
		w := askQuestion(t, env, "", "任意问题")

		// 无效会话不是服务端错误，应返回200和固定提示
		require.Equal(t, http.StatusOK, w.Code)

		var data model.AskResponse
		parseResponse(t, w, &data)
		assert.Equal(t, model.InvalidSessionMessage, data.Answer)
	})

	t.Run("unknown session id", func(t *testing.T) {
		w := askQuestion(t, env, services.NewSessionID(), "任意问题")

		require.Equal(t, http.StatusOK, w.Code)

		var data model.AskResponse
		parseResponse(t, w, &data)
		assert.Equal(t, model.InvalidSessionMessage, data.Answer)
	})

	t.Run("malformed session id", func(t *testing.T) {
		// 格式非法的会话ID等同于无法解析的会话，返回固定提示而非校验错误
		w := askQuestion(t, env, "not-a-uuid", "任意问题")

		require.Equal(t, http.StatusOK, w.Code)

		var data model.AskResponse
		parseResponse(t, w, &data)
		assert.Equal(t, model.InvalidSessionMessage, data.Answer)
	})
}

// TestAskBadRequest 测试非法问答请求
func TestAskBadRequest(t *testing.T) {
	env := setupTestEnv(t)

	t.Run("missing question", func(t *testing.T) {
		w := askQuestion(t, env, "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/ask", bytes.NewBufferString("{not json"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		env.Router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// TestChatNotIntegrated 测试多轮对话端点
func TestChatNotIntegrated(t *testing.T) {
	env := setupTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

// TestListSessions 测试会话列表
func TestListSessions(t *testing.T) {
	env := setupTestEnv(t)

	t.Run("empty list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
		w := httptest.NewRecorder()
		env.Router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var data model.SessionListResponse
		parseResponse(t, w, &data)
		assert.Equal(t, 0, data.Total)
	})

	t.Run("after uploads", func(t *testing.T) {
		w := uploadFiles(t, env, map[string]string{"a.txt": "文档内容一。"})
		require.Equal(t, http.StatusOK, w.Code)
		w = uploadFiles(t, env, map[string]string{"b.txt": "文档内容二。"})
		require.Equal(t, http.StatusOK, w.Code)

		req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
		rec := httptest.NewRecorder()
		env.Router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var data model.SessionListResponse
		parseResponse(t, rec, &data)
		assert.Equal(t, 2, data.Total)
		require.Len(t, data.Sessions, 2)
		assert.Equal(t, 1, data.Sessions[0].FileCount)
	})
}

// TestHealthCheck 测试健康检查端点
func TestHealthCheck(t *testing.T) {
	env := setupTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}
