package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/expert-QA-system/api"
	"github.com/fyerfyer/expert-QA-system/api/handler"
	"github.com/fyerfyer/expert-QA-system/api/middleware"
	qaconfig "github.com/fyerfyer/expert-QA-system/config"
	"github.com/fyerfyer/expert-QA-system/internal/cache"
	"github.com/fyerfyer/expert-QA-system/internal/database"
	"github.com/fyerfyer/expert-QA-system/internal/document"
	"github.com/fyerfyer/expert-QA-system/internal/embedding"
	"github.com/fyerfyer/expert-QA-system/internal/llm"
	"github.com/fyerfyer/expert-QA-system/internal/ocr"
	"github.com/fyerfyer/expert-QA-system/internal/repository"
	"github.com/fyerfyer/expert-QA-system/internal/services"
	"github.com/fyerfyer/expert-QA-system/internal/session"
	"github.com/fyerfyer/expert-QA-system/internal/splitter"
	"github.com/fyerfyer/expert-QA-system/pkg/storage"
)

func main() {
	// 加载.env文件（如果存在），API密钥通常放在这里
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	// 解析命令行参数
	configPath := flag.String("config", "config.yaml", "Path to config file")
	mode := flag.String("mode", "release", "Run mode (debug/release)")
	logLevel := flag.String("log-level", "info", "Log level (debug/info/warn/error)")
	flag.Parse()

	// 加载配置文件
	cfg, err := qaconfig.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 设置Gin模式
	gin.SetMode(*mode)

	// 初始化日志
	logger := setupLogger(*logLevel, cfg)
	logger.Info("Starting Expert QA System...")

	// 初始化数据库
	if err := setupDatabase(cfg, logger); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// 创建文件存储服务
	fileStorage, err := storage.NewLocalStorage(storage.LocalConfig{
		Path: cfg.Storage.Path,
	})
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	// 创建嵌入客户端
	embeddingClient, err := setupEmbedding(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize embedding client: %v", err)
	}

	// 创建大语言模型客户端
	llmClient, err := setupLLM(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize LLM client: %v", err)
	}

	// 初始化RAG服务
	ragService := llm.NewRAG(llmClient,
		llm.WithRAGMaxTokens(cfg.LLM.MaxTokens),
		llm.WithRAGTemperature(cfg.LLM.Temperature),
	)

	// 创建回答缓存
	var answerCache cache.Cache
	if cfg.Cache.Enable {
		answerCache, err = setupCache(cfg)
		if err != nil {
			logger.Fatalf("Failed to initialize cache: %v", err)
		}
	}

	// 创建OCR恢复服务
	recovery, err := setupOCR(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize OCR recovery: %v", err)
	}

	// 创建文档提取器和分块器
	extractor := document.NewExtractor(recovery,
		document.WithMinContentLen(cfg.Document.MinContentLen),
		document.WithExtractorLogger(logger),
	)
	chunker := document.NewChunker(
		document.WithChunkSize(cfg.Document.ChunkSize),
		document.WithChunkOverlap(cfg.Document.ChunkOverlap),
		document.WithChunkerLogger(logger),
	)

	// 创建会话注册表
	registry := session.NewRegistry(
		session.WithTTL(cfg.Session.TTL),
		session.WithCleanupInterval(cfg.Session.CleanupInterval),
		session.WithRegistryLogger(logger),
	)
	defer registry.Close()

	// 初始化业务服务
	sessionRepo := repository.NewSessionRepository(database.DB)

	ingestService := services.NewIngestService(
		extractor,
		chunker,
		embeddingClient,
		ragService,
		registry,
		services.WithVectorDBType(cfg.VectorDB.Type),
		services.WithDimension(cfg.VectorDB.Dim),
		services.WithTopK(cfg.Search.TopK),
		services.WithEmbedBatchSize(cfg.Embed.BatchSize),
		services.WithSessionRepository(sessionRepo),
		services.WithIngestLogger(logger),
	)

	qaOptions := []services.QAOption{
		services.WithQALogger(logger),
	}
	if cfg.Cache.TTL > 0 {
		qaOptions = append(qaOptions, services.WithCacheTTL(time.Duration(cfg.Cache.TTL)*time.Second))
	}
	qaService := services.NewQAService(registry, answerCache, qaOptions...)

	// 初始化API处理器
	uploadHandler := handler.NewUploadHandler(fileStorage, ingestService)
	askHandler := handler.NewAskHandler(qaService)
	chatHandler := handler.NewChatHandler()
	sessionHandler := handler.NewSessionHandler(qaService)

	// 设置路由
	r := api.SetupRouter(uploadHandler, askHandler, chatHandler, sessionHandler)

	// 启动HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Minute, // 大文件上传加OCR恢复耗时较长
	}

	// 优雅关闭
	go func() {
		logger.Infof("Server is running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 等待终止信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// 创建带超时的上下文
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 优雅关闭服务器
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// setupLogger 设置日志系统
func setupLogger(level string, cfg *qaconfig.Config) *logrus.Logger {
	logger := middleware.GetLogger()

	// 设置日志级别
	switch level {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	// 启用文件日志（如果配置了日志文件路径）
	if cfg.Log.File != "" {
		middleware.EnableFileLogging(cfg.Log.File, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups, cfg.Log.MaxAgeDays)
	}

	return logger
}

// setupDatabase 设置数据库
func setupDatabase(cfg *qaconfig.Config, logger *logrus.Logger) error {
	dbConfig := &database.Config{
		Type: cfg.Database.Type,
		DSN:  cfg.Database.DSN,
	}

	return database.Setup(dbConfig, logger)
}

// setupEmbedding 设置嵌入模型客户端
func setupEmbedding(cfg *qaconfig.Config) (embedding.Client, error) {
	if cfg.Embed.APIKey == "" {
		return nil, fmt.Errorf("embedding API key is required")
	}

	opts := []embedding.Option{
		embedding.WithAPIKey(cfg.Embed.APIKey),
		embedding.WithModel(cfg.Embed.Model),
		embedding.WithDimensions(cfg.Embed.Dimensions),
		embedding.WithBatchSize(cfg.Embed.BatchSize),
	}
	if cfg.Embed.Endpoint != "" {
		opts = append(opts, embedding.WithBaseURL(cfg.Embed.Endpoint))
	}

	return embedding.NewClient(cfg.Embed.Provider, opts...)
}

// setupLLM 设置大语言模型客户端
func setupLLM(cfg *qaconfig.Config) (llm.Client, error) {
	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("LLM API key is required")
	}

	opts := []llm.Option{
		llm.WithAPIKey(cfg.LLM.APIKey),
		llm.WithModel(cfg.LLM.Model),
		llm.WithMaxTokens(cfg.LLM.MaxTokens),
		llm.WithTemperature(cfg.LLM.Temperature),
	}
	if cfg.LLM.Endpoint != "" {
		opts = append(opts, llm.WithBaseURL(cfg.LLM.Endpoint))
	}

	return llm.NewClient(cfg.LLM.Provider, opts...)
}

// setupCache 设置回答缓存
func setupCache(cfg *qaconfig.Config) (cache.Cache, error) {
	cacheConfig := cache.Config{
		Type:            cfg.Cache.Type,
		DefaultTTL:      time.Duration(cfg.Cache.TTL) * time.Second,
		CleanupInterval: 10 * time.Minute,
	}

	// 如果配置了Redis，添加Redis配置
	if cfg.Cache.Type == "redis" {
		cacheConfig.RedisAddr = cfg.Cache.Address
		cacheConfig.RedisPassword = cfg.Cache.Password
		cacheConfig.RedisDB = cfg.Cache.DB
	}

	return cache.NewCache(cacheConfig)
}

// setupOCR 设置扫描版PDF的OCR恢复服务
func setupOCR(cfg *qaconfig.Config, logger *logrus.Logger) (*ocr.Recovery, error) {
	ocrConfig := ocr.DefaultConfig().
		WithBaseURL(cfg.OCR.BaseURL).
		WithAPIKey(cfg.OCR.APIKey).
		WithTimeout(cfg.OCR.Timeout).
		WithRetry(cfg.OCR.MaxRetries, cfg.OCR.RetryDelay)

	ocrClient, err := ocr.NewClient(ocrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create OCR client: %v", err)
	}

	sizeSplitter := splitter.NewSizeSplitter(
		splitter.WithTargetPartSize(cfg.OCR.TargetPartSizeMB*1024*1024),
		splitter.WithSizeSplitterLogger(logger),
	)
	pageSplitter := splitter.NewPageSplitter(
		splitter.WithMaxPagesPerChunk(cfg.OCR.MaxPagesPerChunk),
		splitter.WithPageSplitterLogger(logger),
	)
	arena := splitter.NewArena(cfg.Scratch.Path)

	return ocr.NewRecovery(ocrClient, sizeSplitter, pageSplitter, arena,
		ocr.WithSizeLimit(cfg.OCR.SizeLimitMB*1024*1024),
		ocr.WithRecoveryLogger(logger),
	), nil
}
