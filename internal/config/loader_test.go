package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("WENSHU_TEST_HOST", "db.internal")

	tests := []struct {
		in   string
		want string
	}{
		{"host: ${WENSHU_TEST_HOST}", "host: db.internal"},
		{"host: ${WENSHU_TEST_HOST:localhost}", "host: db.internal"},
		{"port: ${WENSHU_TEST_UNSET:5432}", "port: 5432"},
		{"key: ${WENSHU_TEST_UNSET:}", "key: "},
		{"raw: ${WENSHU_TEST_UNSET}", "raw: ${WENSHU_TEST_UNSET}"},
	}
	for _, tt := range tests {
		if got := expandEnv(tt.in); got != tt.want {
			t.Fatalf("expandEnv(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadFromEmptyDirUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Storage.Driver != StorageDriverFile {
		t.Fatalf("storage driver = %q, want %q", cfg.Storage.Driver, StorageDriverFile)
	}
	if cfg.Storage.Namespace != "wenshu_library" {
		t.Fatalf("namespace = %q, want wenshu_library", cfg.Storage.Namespace)
	}
	if cfg.Generation.ChunkSize != 15 {
		t.Fatalf("chunk size = %d, want 15", cfg.Generation.ChunkSize)
	}
	if cfg.Generation.OutlineDelay != 800*time.Millisecond {
		t.Fatalf("outline delay = %v, want 800ms", cfg.Generation.OutlineDelay)
	}
	if cfg.Generation.ContentDelay != time.Second {
		t.Fatalf("content delay = %v, want 1s", cfg.Generation.ContentDelay)
	}
}

func TestLoadFromMergesEnvironmentFile(t *testing.T) {
	dir := t.TempDir()
	base := "storage:\n  driver: sqlite\ngeneration:\n  chunk_size: 10\n"
	override := "generation:\n  chunk_size: ${WENSHU_TEST_CHUNK:20}\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(base), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.staging.yaml"), []byte(override), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("APP_ENV", "staging")

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Storage.Driver != StorageDriverSQLite {
		t.Fatalf("storage driver = %q, want sqlite", cfg.Storage.Driver)
	}
	if cfg.Generation.ChunkSize != 20 {
		t.Fatalf("chunk size = %d, want 20", cfg.Generation.ChunkSize)
	}
}

func TestValidateRejectsRedisWithoutConnection(t *testing.T) {
	cfg := &Config{
		Storage:    StorageConfig{Driver: StorageDriverRedis, Namespace: "wenshu_library"},
		Generation: GenerationConfig{ChunkSize: 15},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for redis driver without cache.redis.enabled")
	}
	cfg.Cache.Redis.Enabled = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateUnknownDriver(t *testing.T) {
	cfg := &Config{
		Storage:    StorageConfig{Driver: "s3", Namespace: "wenshu_library"},
		Generation: GenerationConfig{ChunkSize: 15},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
