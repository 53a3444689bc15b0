// Package config 提供配置加载功能
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// DefaultConfigDir 默认配置目录
const DefaultConfigDir = "configs"

// ${VAR} 或 ${VAR:default}
var envPlaceholder = regexp.MustCompile(`\$\{(\w+)(:([^}]*))?\}`)

// Load 读取 WENSHU_CONFIG_DIR 指定的目录，未设置时使用 configs
func Load() (*Config, error) {
	if dir, ok := os.LookupEnv("WENSHU_CONFIG_DIR"); ok && dir != "" {
		return LoadFrom(dir)
	}
	return LoadFrom(DefaultConfigDir)
}

// LoadFrom 依次合并 config.yaml、config.<APP_ENV>.yaml 与环境变量
// 文件缺失不报错，此时只用默认值
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	for _, name := range []string{"config.yaml", "config." + env + ".yaml"} {
		if err := mergeFile(v, filepath.Join(dir, name)); err != nil {
			return nil, err
		}
	}

	// STORAGE_DRIVER 覆盖 storage.driver
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func mergeFile(v *viper.Viper, path string) error {
	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return nil
	case err != nil:
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := v.MergeConfig(strings.NewReader(expandEnv(string(raw)))); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// expandEnv 展开 ${VAR:default}；变量未定义且无默认值时原样保留
func expandEnv(s string) string {
	return envPlaceholder.ReplaceAllStringFunc(s, func(match string) string {
		m := envPlaceholder.FindStringSubmatch(match)
		if val, ok := os.LookupEnv(m[1]); ok {
			return val
		}
		if m[2] == "" {
			return match
		}
		return m[3]
	})
}

// Validate 校验关键配置
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverFile, StorageDriverSQLite, StorageDriverMemory, StorageDriverPostgres:
	case StorageDriverRedis:
		if !c.Cache.Redis.Enabled {
			return fmt.Errorf("storage driver redis requires cache.redis.enabled")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Messaging.Enabled && !c.Cache.Redis.Enabled {
		return fmt.Errorf("messaging requires cache.redis.enabled")
	}
	if strings.TrimSpace(c.Storage.Namespace) == "" {
		return fmt.Errorf("storage.namespace is required")
	}
	if c.Generation.ChunkSize <= 0 {
		return fmt.Errorf("generation.chunk_size must be positive")
	}
	if p := c.LLM.DefaultProvider; p != "" {
		if _, ok := c.LLM.Providers[p]; !ok {
			return fmt.Errorf("llm.default_provider %q not found in llm.providers", p)
		}
	}
	return nil
}

// defaults 兜底值，配置文件与环境变量均可覆盖
// 写超时需覆盖整章流式生成
var defaults = map[string]any{
	"app.name":    "wenshu-novel-api",
	"app.version": "v0.0.0",
	"app.env":     "development",

	"server.http.host":          "0.0.0.0",
	"server.http.port":          8080,
	"server.http.read_timeout":  "30s",
	"server.http.write_timeout": "10m",
	"server.http.idle_timeout":  "120s",

	"storage.driver":      StorageDriverFile,
	"storage.namespace":   "wenshu_library",
	"storage.file.dir":    "data",
	"storage.sqlite.path": "data/wenshu.db",

	"database.postgres.host":               "localhost",
	"database.postgres.port":               5432,
	"database.postgres.user":               "postgres",
	"database.postgres.database":           "wenshu",
	"database.postgres.ssl_mode":           "disable",
	"database.postgres.max_open_conns":     10,
	"database.postgres.max_idle_conns":     2,
	"database.postgres.conn_max_lifetime":  "30m",
	"database.postgres.conn_max_idle_time": "5m",
	"database.postgres.log_level":          "warn",

	"cache.redis.enabled":        false,
	"cache.redis.host":           "localhost",
	"cache.redis.port":           6379,
	"cache.redis.db":             0,
	"cache.redis.pool_size":      20,
	"cache.redis.min_idle_conns": 2,
	"cache.redis.dial_timeout":   "5s",
	"cache.redis.read_timeout":   "3s",
	"cache.redis.write_timeout":  "3s",

	"llm.default_provider":              "default",
	"llm.providers.default.model":       "gpt-4o-mini",
	"llm.providers.default.max_tokens":  8192,
	"llm.providers.default.temperature": 0.7,
	"llm.providers.default.timeout":     "5m",

	"generation.chunk_size":          15,
	"generation.initial_outline_cap": 15,
	"generation.outline_delay":       "800ms",
	"generation.content_delay":       "1s",
	"generation.recency_window":      5,
	"generation.outline_window":      15,
	"generation.prev_tail_runes":     1500,
	"generation.outline_temperature": 0.8,
	"generation.content_temperature": 0.7,

	"messaging.enabled":                    false,
	"messaging.redis_stream.max_len":       10000,
	"messaging.redis_stream.block_timeout": "5s",

	"observability.logging.level":       "info",
	"observability.logging.format":      "auto",
	"observability.tracing.enabled":     false,
	"observability.tracing.endpoint":    "localhost:4317",
	"observability.tracing.sample_rate": 1.0,
	"observability.metrics.enabled":     true,
	"observability.metrics.path":        "/metrics",

	"security.rate_limit.enabled": false,
	"security.rate_limit.limit":   30,
	"security.rate_limit.window":  "1m",
}

func setDefaults(v *viper.Viper) {
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
}
