// Package redis 提供 Redis 书库存储、限流与事件流所需的客户端
package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"wenshu-novel-api/internal/config"
	"wenshu-novel-api/pkg/tracer"
)

const (
	clientName  = "wenshu-novel-api"
	pingTimeout = 5 * time.Second
)

// Client 书库、限流与事件流共用一个连接池
type Client struct {
	rdb *redis.Client
}

// NewClient 连接失败时关闭连接池并返回错误
func NewClient(cfg *config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(options(cfg))
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", rdb.Options().Addr, err)
	}
	return &Client{rdb: rdb}, nil
}

func options(cfg *config.RedisConfig) *redis.Options {
	o := &redis.Options{
		Addr:       net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Password:   cfg.Password,
		DB:         cfg.DB,
		ClientName: clientName,
	}
	o.PoolSize, o.MinIdleConns = cfg.PoolSize, cfg.MinIdleConns
	o.DialTimeout, o.ReadTimeout, o.WriteTimeout = cfg.DialTimeout, cfg.ReadTimeout, cfg.WriteTimeout
	return o
}

// Redis 供 Stream 生产与消费直接使用
func (c *Client) Redis() *redis.Client { return c.rdb }

func (c *Client) Close() error { return c.rdb.Close() }

// HealthCheck 用于 /ready
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "redis.HealthCheck")
	defer span.End()
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return tracer.RecordError(span, fmt.Errorf("redis ping: %w", err))
	}
	return nil
}

// IsNil 键不存在
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
