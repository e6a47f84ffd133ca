package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用程序配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Scratch  ScratchConfig  `mapstructure:"scratch"`
	VectorDB VectorDBConfig `mapstructure:"vectordb"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Embed    EmbedConfig    `mapstructure:"embed"`
	OCR      OCRConfig      `mapstructure:"ocr"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Database DatabaseConfig `mapstructure:"database"`
	Document DocumentConfig `mapstructure:"document"`
	Search   SearchConfig   `mapstructure:"search"`
	Session  SessionConfig  `mapstructure:"session"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"` // 服务器主机
	Port int    `mapstructure:"port"` // 服务器端口
}

// StorageConfig 存储配置
type StorageConfig struct {
	Path string `mapstructure:"path"` // 会话文档存储路径
}

// ScratchConfig 临时文件工作区配置
type ScratchConfig struct {
	Path string `mapstructure:"path"` // 临时文件基础目录
}

// VectorDBConfig 向量数据库配置
type VectorDBConfig struct {
	Type string `mapstructure:"type"` // 向量数据库类型：faiss 或 memory
	Dim  int    `mapstructure:"dim"`  // 向量维度
}

// LLMConfig 大语言模型配置
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"`    // 提供商：openai等
	Model       string  `mapstructure:"model"`       // 模型名称
	APIKey      string  `mapstructure:"api_key"`     // API密钥
	Endpoint    string  `mapstructure:"endpoint"`    // API端点
	MaxTokens   int     `mapstructure:"max_tokens"`  // 最大生成token数量
	Temperature float32 `mapstructure:"temperature"` // 采样温度
}

// EmbedConfig 向量嵌入模型配置
type EmbedConfig struct {
	Provider   string `mapstructure:"provider"`   // 提供商：openai等
	Model      string `mapstructure:"model"`      // 模型名称
	APIKey     string `mapstructure:"api_key"`    // API密钥
	Endpoint   string `mapstructure:"endpoint"`   // API端点
	BatchSize  int    `mapstructure:"batch_size"` // 批处理大小
	Dimensions int    `mapstructure:"dimensions"` // 向量维度
}

// OCRConfig 远程OCR服务配置
type OCRConfig struct {
	BaseURL           string        `mapstructure:"base_url"`             // OCR服务基础URL
	APIKey            string        `mapstructure:"api_key"`              // OCR服务API密钥
	Timeout           time.Duration `mapstructure:"timeout"`              // 请求超时时间
	MaxRetries        int           `mapstructure:"max_retries"`          // 最大重试次数
	RetryDelay        time.Duration `mapstructure:"retry_delay"`          // 重试间隔
	SizeLimitMB       int64         `mapstructure:"size_limit_mb"`        // 触发预分割的文件大小阈值（MB）
	TargetPartSizeMB  int64         `mapstructure:"target_part_size_mb"`  // 按大小分割的目标分片大小（MB）
	MaxPagesPerChunk  int           `mapstructure:"max_pages_per_chunk"`  // 每个OCR分组的最大页数
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Enable   bool   `mapstructure:"enable"`   // 是否启用回答缓存
	Type     string `mapstructure:"type"`     // 缓存类型：memory 或 redis
	Address  string `mapstructure:"address"`  // Redis地址
	Password string `mapstructure:"password"` // Redis密码
	DB       int    `mapstructure:"db"`       // Redis数据库
	TTL      int    `mapstructure:"ttl"`      // 缓存TTL（秒）
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Type string `mapstructure:"type"` // 数据库类型: sqlite
	DSN  string `mapstructure:"dsn"`  // 数据源名称
}

// DocumentConfig 文档处理配置
type DocumentConfig struct {
	ChunkSize     int `mapstructure:"chunk_size"`      // 分块大小
	ChunkOverlap  int `mapstructure:"chunk_overlap"`   // 分块重叠大小
	MinContentLen int `mapstructure:"min_content_len"` // 判定扫描版PDF的最小文本长度
}

// SearchConfig 搜索配置
type SearchConfig struct {
	TopK int `mapstructure:"top_k"` // 检索的文档数量
}

// SessionConfig 会话配置
type SessionConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`              // 会话存活时间
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"` // 过期会话清理间隔
}

// LogConfig 日志配置
type LogConfig struct {
	File       string `mapstructure:"file"`        // 日志文件路径，为空则只输出到标准输出
	MaxSizeMB  int    `mapstructure:"max_size_mb"` // 单个日志文件最大大小（MB）
	MaxBackups int    `mapstructure:"max_backups"` // 保留的旧日志文件数量
	MaxAgeDays int    `mapstructure:"max_age_days"` // 日志文件最长保留天数
}

// Load 从文件和环境变量加载配置
func Load(configPath string) (*Config, error) {
	var config Config

	// 设置默认配置路径
	if configPath == "" {
		configPath = "config.yaml"
	}

	// 初始化viper
	v := viper.New()
	v.SetConfigFile(configPath)

	// 尝试读取配置文件
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
			log.Printf("Warning: Config file not found at %s, using defaults", configPath)
			setDefaults(v)
			// 创建默认配置文件
			dir := filepath.Dir(configPath)
			if err := os.MkdirAll(dir, 0755); err == nil {
				if err := v.WriteConfigAs(configPath); err != nil {
					log.Printf("Warning: Could not write default config to %s: %v", configPath, err)
				}
			}
		} else {
			return nil, fmt.Errorf("failed to read config file: %v", err)
		}
	} else {
		log.Printf("Using config file: %s", v.ConfigFileUsed())
	}

	// 设置默认值
	setDefaults(v)

	// 支持环境变量覆盖
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 解析配置到结构体
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %v", err)
	}

	return processEnvironmentVariables(&config), nil
}

// processEnvironmentVariables 处理配置项中的${ENV_VAR}形式的环境变量引用
func processEnvironmentVariables(cfg *Config) *Config {
	cfg.Embed.APIKey = expandEnv(cfg.Embed.APIKey)
	cfg.LLM.APIKey = expandEnv(cfg.LLM.APIKey)
	cfg.OCR.APIKey = expandEnv(cfg.OCR.APIKey)
	return cfg
}

// expandEnv 将${ENV_VAR}形式的值替换为对应的环境变量
func expandEnv(value string) string {
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		envVar := value[2 : len(value)-1]
		if envVal := os.Getenv(envVar); envVal != "" {
			return envVal
		}
	}
	return value
}

// setDefaults 设置配置的默认值
func setDefaults(v *viper.Viper) {
	// 服务器默认配置
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	// 存储默认配置
	v.SetDefault("storage.path", "./uploads")

	// 临时文件工作区默认配置
	v.SetDefault("scratch.path", "./scratch")

	// 向量数据库默认配置
	v.SetDefault("vectordb.type", "faiss")
	v.SetDefault("vectordb.dim", 3072)

	// LLM默认配置
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4.1")
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.temperature", 1.0)

	// Embedding默认配置
	v.SetDefault("embed.provider", "openai")
	v.SetDefault("embed.model", "text-embedding-3-large")
	v.SetDefault("embed.batch_size", 64)
	v.SetDefault("embed.dimensions", 3072)

	// OCR服务默认配置
	v.SetDefault("ocr.base_url", "http://localhost:8100/api")
	v.SetDefault("ocr.timeout", "10m")
	v.SetDefault("ocr.max_retries", 3)
	v.SetDefault("ocr.retry_delay", "1s")
	v.SetDefault("ocr.size_limit_mb", 50)
	v.SetDefault("ocr.target_part_size_mb", 48)
	v.SetDefault("ocr.max_pages_per_chunk", 500)

	// 缓存默认配置
	v.SetDefault("cache.enable", true)
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", 3600)

	// 数据库默认配置
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "data/expertqa.db")

	// 文档处理默认配置
	v.SetDefault("document.chunk_size", 500)
	v.SetDefault("document.chunk_overlap", 100)
	v.SetDefault("document.min_content_len", 10)

	// 搜索默认配置
	v.SetDefault("search.top_k", 230)

	// 会话默认配置
	v.SetDefault("session.ttl", "2h")
	v.SetDefault("session.cleanup_interval", "10m")

	// 日志默认配置
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 30)
}
