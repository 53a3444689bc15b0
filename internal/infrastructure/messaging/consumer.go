package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"wenshu-novel-api/pkg/logger"
	"wenshu-novel-api/pkg/tracer"
)

// MessageHandler 消息处理函数，返回错误时消息留在 pending 中等待重投
type MessageHandler func(ctx context.Context, msg *Message) error

// ConsumerConfig 消费者配置
type ConsumerConfig struct {
	Stream       Stream
	Group        ConsumerGroup
	ConsumerName string
	BlockTimeout time.Duration
	// ClaimInterval 检查 pending 消息的间隔
	ClaimInterval time.Duration
	// RetryLimit 投递次数达到该值后转入死信流
	RetryLimit int
	Backoff    BackoffConfig
	// StartID 消费者组首次创建时的起点，"0" 为全部历史，"$" 仅新消息
	StartID string
}

// Consumer 消费者组成员
// 自己名下的失败消息按退避重投，其他成员名下闲置过久的消息会被接管
type Consumer struct {
	client *redis.Client
	cfg    ConsumerConfig
	// staleIdle 其他成员的 pending 消息闲置超过该时长才接管
	staleIdle time.Duration

	mu       sync.RWMutex
	handlers map[string]MessageHandler
}

// NewConsumer 创建消费者，零值字段取默认
func NewConsumer(client *redis.Client, cfg ConsumerConfig) *Consumer {
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = 5 * time.Second
	}
	if cfg.ClaimInterval <= 0 {
		cfg.ClaimInterval = 30 * time.Second
	}
	if cfg.RetryLimit <= 0 {
		cfg.RetryLimit = 3
	}
	if cfg.Backoff.Initial <= 0 {
		cfg.Backoff = DefaultBackoffConfig()
	}
	if cfg.StartID == "" {
		cfg.StartID = "0"
	}
	return &Consumer{
		client:    client,
		cfg:       cfg,
		staleIdle: max(5*time.Minute, cfg.Backoff.Max*2),
		handlers:  make(map[string]MessageHandler),
	}
}

// RegisterHandler 注册消息处理器，未注册类型的消息直接确认
func (c *Consumer) RegisterHandler(msgType string, handler MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[msgType] = handler
}

// Run 创建消费者组并阻塞消费，ctx 取消后返回 nil
func (c *Consumer) Run(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, string(c.cfg.Stream), string(c.cfg.Group), c.cfg.StartID).Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info("consumer started",
		"stream", c.cfg.Stream,
		"group", c.cfg.Group,
		"consumer", c.cfg.ConsumerName,
	)

	lastClaim := time.Time{}
	for ctx.Err() == nil {
		if time.Since(lastClaim) >= c.cfg.ClaimInterval {
			c.retryPending(ctx)
			lastClaim = time.Now()
		}

		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    string(c.cfg.Group),
			Consumer: c.cfg.ConsumerName,
			Streams:  []string{string(c.cfg.Stream), ">"},
			Count:    10,
			Block:    c.cfg.BlockTimeout,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			log.Error("failed to read from stream", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}

		for _, s := range streams {
			for _, xmsg := range s.Messages {
				c.process(ctx, xmsg)
			}
		}
	}
	log.Info("consumer stopped")
	return nil
}

// process 处理单条消息，成功或无法解析时确认
func (c *Consumer) process(ctx context.Context, xmsg redis.XMessage) {
	ctx, span := tracer.Start(ctx, "consumer.process",
		trace.WithAttributes(
			attribute.String("stream", string(c.cfg.Stream)),
			attribute.String("stream.message_id", xmsg.ID),
		))
	defer span.End()

	msg, err := decode(xmsg)
	if err != nil {
		logger.FromContext(ctx).Error("dropping undecodable message", "error", err, "message_id", xmsg.ID)
		c.ack(ctx, xmsg.ID)
		return
	}
	if msg.NovelID != "" {
		ctx = logger.WithContext(ctx, logger.NovelIDKey, msg.NovelID)
	}
	span.SetAttributes(attribute.String("message.type", msg.Type))

	c.mu.RLock()
	handler, ok := c.handlers[msg.Type]
	c.mu.RUnlock()
	if !ok {
		c.ack(ctx, xmsg.ID)
		return
	}

	if err := handler(ctx, msg); err != nil {
		span.RecordError(err)
		logger.FromContext(ctx).Warn("handler failed, message left pending",
			"error", err.Error(), "message_id", xmsg.ID)
		return
	}
	c.ack(ctx, xmsg.ID)
}

// retryPending 重投到期的 pending 消息，超过重试次数的转入死信流
func (c *Consumer) retryPending(ctx context.Context) {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: string(c.cfg.Stream),
		Group:  string(c.cfg.Group),
		Start:  "-",
		End:    "+",
		Count:  50,
	}).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			logger.FromContext(ctx).Error("failed to query pending messages", "error", err)
		}
		return
	}

	for _, p := range pending {
		minIdle := c.staleIdle
		if p.Consumer == c.cfg.ConsumerName {
			minIdle = c.cfg.Backoff.CalculateBackoff(int(p.RetryCount))
		}
		if p.Idle < minIdle {
			continue
		}

		claimed, err := c.client.XClaim(ctx, &redis.XClaimArgs{
			Stream:   string(c.cfg.Stream),
			Group:    string(c.cfg.Group),
			Consumer: c.cfg.ConsumerName,
			MinIdle:  minIdle,
			Messages: []string{p.ID},
		}).Result()
		if err != nil {
			logger.FromContext(ctx).Error("failed to claim pending message", "error", err, "message_id", p.ID)
			continue
		}
		for _, xmsg := range claimed {
			if int(p.RetryCount) >= c.cfg.RetryLimit {
				c.deadLetter(ctx, xmsg, p.RetryCount)
				continue
			}
			c.process(ctx, xmsg)
		}
	}
}

func (c *Consumer) deadLetter(ctx context.Context, xmsg redis.XMessage, deliveries int64) {
	raw, _ := xmsg.Values[streamField].(string)
	err := c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: c.cfg.Stream.DLQStream(),
		Values: map[string]any{
			streamField:       raw,
			"original_id":     xmsg.ID,
			"original_stream": string(c.cfg.Stream),
			"deliveries":      deliveries,
			"failed_at":       time.Now().UnixMilli(),
		},
	}).Err()
	if err != nil {
		logger.FromContext(ctx).Error("failed to move message to DLQ", "error", err, "message_id", xmsg.ID)
		return
	}
	logger.FromContext(ctx).Warn("message moved to DLQ", "message_id", xmsg.ID, "deliveries", deliveries)
	c.ack(ctx, xmsg.ID)
}

func (c *Consumer) ack(ctx context.Context, id string) {
	if err := c.client.XAck(ctx, string(c.cfg.Stream), string(c.cfg.Group), id).Err(); err != nil {
		logger.FromContext(ctx).Error("failed to ack message", "error", err, "message_id", id)
	}
}

func decode(xmsg redis.XMessage) (*Message, error) {
	raw, ok := xmsg.Values[streamField].(string)
	if !ok {
		return nil, fmt.Errorf("missing %q field", streamField)
	}
	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
