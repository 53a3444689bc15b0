// Package logger 基于 slog 的结构化日志，从 context 中补充请求与作品标识
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mattn/go-isatty"
)

// ContextKey context 中日志字段的键
type ContextKey string

const (
	TraceIDKey   ContextKey = "trace_id"
	SpanIDKey    ContextKey = "span_id"
	RequestIDKey ContextKey = "request_id"
	NovelIDKey   ContextKey = "novel_id"
	JobIDKey     ContextKey = "job_id"
)

var contextKeys = [...]ContextKey{TraceIDKey, SpanIDKey, RequestIDKey, NovelIDKey, JobIDKey}

var current atomic.Pointer[slog.Logger]

// Init 输出到标准输出
func Init(level, format string) {
	InitWithWriter(os.Stdout, level, format)
}

// InitWithWriter format 可选 json / text / auto，auto 在终端上输出 text
func InitWithWriter(w io.Writer, level, format string) {
	opts := &slog.HandlerOptions{Level: parseLevel(level), AddSource: true}

	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if resolveFormat(w, format) == "text" {
		h = slog.NewTextHandler(w, opts)
	}
	l := slog.New(contextHandler{h})
	current.Store(l)
	slog.SetDefault(l)
}

func resolveFormat(w io.Writer, format string) string {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "json", "text":
		return f
	}
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return "text"
	}
	return "json"
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// contextHandler 把 context 中的标识写入每条记录
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		for _, key := range contextKeys {
			if v := ctx.Value(key); v != nil {
				r.AddAttrs(slog.Any(string(key), v))
			}
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}

// Default 未初始化时按 info/auto 初始化
func Default() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	Init("info", "auto")
	return current.Load()
}

// FromContext 返回携带 ctx 标识的日志器
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return Default()
	}
	attrs := make([]any, 0, len(contextKeys))
	for _, key := range contextKeys {
		if v := ctx.Value(key); v != nil {
			attrs = append(attrs, slog.Any(string(key), v))
		}
	}
	// 直接使用底层 handler，避免与 contextHandler 重复写入
	l := Default()
	if ch, ok := l.Handler().(contextHandler); ok {
		return slog.New(ch.Handler).With(attrs...)
	}
	return l.With(attrs...)
}

// WithContext 写入日志字段
func WithContext(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}

// log 记录调用方的源码位置而不是本包
func log(ctx context.Context, level slog.Level, msg string, args ...any) {
	l := Default()
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = l.Handler().Handle(ctx, r)
}

func Debug(ctx context.Context, msg string, args ...any) { log(ctx, slog.LevelDebug, msg, args...) }

func Info(ctx context.Context, msg string, args ...any) { log(ctx, slog.LevelInfo, msg, args...) }

func Warn(ctx context.Context, msg string, args ...any) { log(ctx, slog.LevelWarn, msg, args...) }

// Error err 为 nil 时不写 error 字段
func Error(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	log(ctx, slog.LevelError, msg, args...)
}

// Fatal 记录后以状态码 1 退出
func Fatal(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	log(ctx, slog.LevelError, msg, args...)
	os.Exit(1)
}
