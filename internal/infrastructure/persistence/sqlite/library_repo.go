// Package sqlite 提供基于 SQLite 的书库存储
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"wenshu-novel-api/internal/domain/entity"
	"wenshu-novel-api/pkg/tracer"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// LibraryRepository 书库快照以 JSON 文本保存在 kv 表中，键为命名空间
type LibraryRepository struct {
	db  *sql.DB
	key string
}

// Open 打开或创建数据库
func Open(path, namespace string) (*LibraryRepository, error) {
	if namespace == "" {
		namespace = entity.LibraryNamespace
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &LibraryRepository{db: db, key: namespace}, nil
}

// Close 关闭数据库
func (r *LibraryRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Ping 就绪检查
func (r *LibraryRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *LibraryRepository) Load(ctx context.Context) (*entity.Library, error) {
	ctx, span := tracer.Start(ctx, "sqlite.LibraryRepository.Load")
	defer span.End()

	var value string
	err := retryOnBusy(ctx, func() error {
		return r.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, r.key).Scan(&value)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, tracer.RecordError(span, fmt.Errorf("query library: %w", err))
	}
	var lib entity.Library
	if err := json.Unmarshal([]byte(value), &lib); err != nil {
		return nil, tracer.RecordError(span, fmt.Errorf("decode library: %w", err))
	}
	return &lib, nil
}

func (r *LibraryRepository) Save(ctx context.Context, lib *entity.Library) error {
	ctx, span := tracer.Start(ctx, "sqlite.LibraryRepository.Save")
	defer span.End()

	data, err := json.Marshal(lib)
	if err != nil {
		return tracer.RecordError(span, fmt.Errorf("encode library: %w", err))
	}
	err = retryOnBusy(ctx, func() error {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			r.key, string(data), time.Now().UnixMilli())
		return err
	})
	if err != nil {
		return tracer.RecordError(span, fmt.Errorf("upsert library: %w", err))
	}
	return nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy 数据库忙时指数退避重试
func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
