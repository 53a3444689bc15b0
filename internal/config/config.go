// Package config 提供配置加载和管理功能
package config

import (
	"net"
	"strconv"
	"time"
)

// Config 应用配置根结构
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Cache         CacheConfig         `mapstructure:"cache"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Generation    GenerationConfig    `mapstructure:"generation"`
	Messaging     MessagingConfig     `mapstructure:"messaging"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Security      SecurityConfig      `mapstructure:"security"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Env     string `mapstructure:"env"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTP HTTPServerConfig `mapstructure:"http"`
}

// HTTPServerConfig HTTP 服务器配置
type HTTPServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// 存储驱动
const (
	StorageDriverFile     = "file"
	StorageDriverSQLite   = "sqlite"
	StorageDriverRedis    = "redis"
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// StorageConfig 书库持久化配置
type StorageConfig struct {
	// Driver 可选 file / sqlite / redis / postgres / memory
	Driver string `mapstructure:"driver"`
	// Namespace 书库快照的固定键
	Namespace string          `mapstructure:"namespace"`
	File      FileStoreConfig `mapstructure:"file"`
	SQLite    SQLiteConfig    `mapstructure:"sqlite"`
}

// FileStoreConfig 文件存储配置
type FileStoreConfig struct {
	Dir string `mapstructure:"dir"`
}

// SQLiteConfig SQLite 配置
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig PostgreSQL 配置
type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	LogLevel        string        `mapstructure:"log_level"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// Enabled 为 false 时不建立连接；redis 存储驱动、限流与事件流都依赖它
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LLMConfig LLM 配置
type LLMConfig struct {
	DefaultProvider string                    `mapstructure:"default_provider"`
	Providers       map[string]ProviderConfig `mapstructure:"providers"`
}

// ProviderConfig LLM 提供商配置
type ProviderConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// GenerationConfig 生成流程参数
type GenerationConfig struct {
	// ChunkSize 批量大纲每次请求的章节数
	ChunkSize int `mapstructure:"chunk_size"`
	// InitialOutlineCap 开书时首批大纲上限
	InitialOutlineCap int `mapstructure:"initial_outline_cap"`
	// OutlineDelay 批量大纲批次间隔
	OutlineDelay time.Duration `mapstructure:"outline_delay"`
	// ContentDelay 批量正文章节间隔
	ContentDelay time.Duration `mapstructure:"content_delay"`
	// RecencyWindow 作品档案中"最近剧情"的章节数
	RecencyWindow int `mapstructure:"recency_window"`
	// OutlineWindow 批量大纲插入点之前的前情章节数
	OutlineWindow int `mapstructure:"outline_window"`
	// PrevTailRunes 上章结尾截取字数
	PrevTailRunes      int     `mapstructure:"prev_tail_runes"`
	OutlineTemperature float32 `mapstructure:"outline_temperature"`
	ContentTemperature float32 `mapstructure:"content_temperature"`
}

// MessagingConfig 消息队列配置
type MessagingConfig struct {
	Enabled     bool              `mapstructure:"enabled"`
	RedisStream RedisStreamConfig `mapstructure:"redis_stream"`
}

// RedisStreamConfig Redis Stream 配置
type RedisStreamConfig struct {
	MaxLen       int           `mapstructure:"max_len"`
	BlockTimeout time.Duration `mapstructure:"block_timeout"`
}

// ObservabilityConfig 可观测性配置
type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TracingConfig 追踪配置
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	Endpoint   string  `mapstructure:"endpoint"`
	SampleRate float64 `mapstructure:"sample_rate"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	CORS      CORSConfig      `mapstructure:"cors"`
}

// RateLimitConfig 限流配置，仅作用于生成类接口
type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Limit   int           `mapstructure:"limit"`
	Window  time.Duration `mapstructure:"window"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// Addr 监听地址
func (c HTTPServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
