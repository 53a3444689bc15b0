package redis

import (
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"wenshu-novel-api/internal/config"
)

func TestBuildRateLimitKey(t *testing.T) {
	if got := BuildRateLimitKey("10.0.0.1", "/v1/novels/setup"); got != "ratelimit:wenshu:10.0.0.1:/v1/novels/setup" {
		t.Fatalf("BuildRateLimitKey = %q", got)
	}
}

func TestIsNil(t *testing.T) {
	if !IsNil(redis.Nil) {
		t.Fatal("IsNil(redis.Nil) = false")
	}
	if !IsNil(errors.Join(errors.New("wrapped"), redis.Nil)) {
		t.Fatal("IsNil(wrapped redis.Nil) = false")
	}
	if IsNil(errors.New("boom")) {
		t.Fatal("IsNil(boom) = true")
	}
}

func TestParseDecision(t *testing.T) {
	d, err := parseDecision([]int64{1, 4, 0})
	if err != nil {
		t.Fatalf("parseDecision: %v", err)
	}
	if !d.Allowed || d.Remaining != 4 || d.RetryAfter != 0 {
		t.Fatalf("decision = %+v, want allowed with 4 remaining", d)
	}

	d, err = parseDecision([]int64{0, 0, 1500})
	if err != nil {
		t.Fatalf("parseDecision: %v", err)
	}
	if d.Allowed || d.RetryAfter != 1500*time.Millisecond {
		t.Fatalf("decision = %+v, want denied retry after 1.5s", d)
	}

	if _, err := parseDecision([]int64{1}); err == nil {
		t.Fatal("parseDecision(short reply) error = nil")
	}
}

func TestOptionsFromConfig(t *testing.T) {
	opts := options(&config.RedisConfig{Host: "cache.internal", Port: 6380, DB: 2, PoolSize: 20})
	if opts.Addr != "cache.internal:6380" {
		t.Fatalf("Addr = %q, want cache.internal:6380", opts.Addr)
	}
	if opts.DB != 2 || opts.PoolSize != 20 {
		t.Fatalf("options = %+v", opts)
	}
}
