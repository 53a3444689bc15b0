package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"

	"wenshu-novel-api/pkg/tracer"
)

// slidingWindow 在一次往返内完成清理、计数与记录
// 返回 {allowed, remaining, retry_after_ms}
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
local count = redis.call('ZCARD', key)
if count >= limit then
  local retry = window
  local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
  if oldest[2] then
    retry = tonumber(oldest[2]) + window - now
  end
  return {0, 0, retry}
end

redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return {1, limit - count - 1, 0}
`)

// RateDecision 单次限流判定结果
type RateDecision struct {
	Allowed   bool
	Remaining int
	// RetryAfter 被拒绝时距离窗口内最早一次请求过期的时长
	RetryAfter time.Duration
}

// RateLimiter 生成类接口的滑动窗口限流器
type RateLimiter struct {
	client *Client
}

// NewRateLimiter 创建限流器
func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow 判定并记录一次请求
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (RateDecision, error) {
	ctx, span := tracer.Start(ctx, "ratelimit.Allow")
	span.SetAttributes(
		attribute.String("ratelimit.key", key),
		attribute.Int("ratelimit.limit", limit),
		attribute.Int64("ratelimit.window_ms", window.Milliseconds()),
	)
	defer span.End()

	now := time.Now().UnixMilli()
	res, err := slidingWindow.Run(ctx, l.client.rdb, []string{key},
		now, window.Milliseconds(), limit, uuid.NewString()).Int64Slice()
	if err != nil {
		span.RecordError(err)
		return RateDecision{}, err
	}
	d, err := parseDecision(res)
	if err != nil {
		span.RecordError(err)
		return RateDecision{}, err
	}
	span.SetAttributes(
		attribute.Bool("ratelimit.allowed", d.Allowed),
		attribute.Int("ratelimit.remaining", d.Remaining),
	)
	return d, nil
}

func parseDecision(res []int64) (RateDecision, error) {
	if len(res) != 3 {
		return RateDecision{}, fmt.Errorf("unexpected rate limit reply: %v", res)
	}
	return RateDecision{
		Allowed:    res[0] == 1,
		Remaining:  int(max(res[1], 0)),
		RetryAfter: time.Duration(max(res[2], 0)) * time.Millisecond,
	}, nil
}

// BuildRateLimitKey 构建限流键，按客户端与路由分桶
func BuildRateLimitKey(clientID, route string) string {
	return fmt.Sprintf("ratelimit:wenshu:%s:%s", clientID, route)
}
