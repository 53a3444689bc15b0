package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"wenshu-novel-api/pkg/logger"
	"wenshu-novel-api/pkg/metrics"
	"wenshu-novel-api/pkg/tracer"
)

const (
	defaultMaxLen    = 10000
	defaultQueueSize = 256
	publishTimeout   = 5 * time.Second
)

// Producer 写 Redis Stream，流长度按 MAXLEN ~ 近似裁剪
type Producer struct {
	rdb    *redis.Client
	maxLen int64
}

func NewProducer(rdb *redis.Client, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = defaultMaxLen
	}
	return &Producer{rdb: rdb, maxLen: maxLen}
}

// Publish 返回 Redis 分配的条目 ID
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (id string, err error) {
	ctx, span := tracer.Start(ctx, "messaging.Publish", trace.WithAttributes(
		attribute.String("stream", string(stream)),
		attribute.String("message.type", msg.Type),
		attribute.String("novel.id", msg.NovelID),
	))
	defer span.End()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.RedisStreamPublished.WithLabelValues(string(stream), status).Inc()
	}()

	body, err := json.Marshal(msg)
	if err != nil {
		return "", tracer.RecordError(span, fmt.Errorf("encode %s: %w", msg.ID, err))
	}
	id, err = p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: []any{streamField, body},
	}).Result()
	if err != nil {
		return "", tracer.RecordError(span, fmt.Errorf("xadd %s: %w", stream, err))
	}
	span.SetAttributes(attribute.String("stream.entry_id", id))
	return id, nil
}

// PublishLibraryChange 写入 StreamLibrary
func (p *Producer) PublishLibraryChange(ctx context.Context, change LibraryChange) (string, error) {
	msg, err := NewLibraryChangeMessage(change)
	if err != nil {
		return "", err
	}
	return p.Publish(ctx, StreamLibrary, msg)
}

// ChangePublisher 在独立协程中按顺序发布变更事件，调用方不等待 Redis
// 队列满时丢弃事件并记录日志
type ChangePublisher struct {
	producer *Producer
	queue    chan LibraryChange
	done     chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewChangePublisher 创建并启动发布协程
func NewChangePublisher(producer *Producer, size int) *ChangePublisher {
	if size <= 0 {
		size = defaultQueueSize
	}
	p := &ChangePublisher{
		producer: producer,
		queue:    make(chan LibraryChange, size),
		done:     make(chan struct{}),
	}
	go p.loop()
	return p
}

// Enqueue 投递事件，不阻塞；关闭后的事件直接忽略
func (p *ChangePublisher) Enqueue(change LibraryChange) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.queue <- change:
	default:
		logger.Warn(context.Background(), "library change dropped, publish queue full",
			"seq", change.Seq, "kind", change.Kind)
		metrics.RedisStreamPublished.WithLabelValues(string(StreamLibrary), "dropped").Inc()
	}
}

func (p *ChangePublisher) loop() {
	defer close(p.done)
	for change := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if _, err := p.producer.PublishLibraryChange(ctx, change); err != nil {
			logger.Error(ctx, "library change publish failed", err, "seq", change.Seq, "kind", change.Kind)
		}
		cancel()
	}
}

// Close 停止接收并等待队列清空
func (p *ChangePublisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
