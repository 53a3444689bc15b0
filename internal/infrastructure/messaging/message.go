// Package messaging 基于 Redis Stream 发布与消费书库变更事件
package messaging

import (
	"encoding/json"
	"fmt"
	"time"
)

// Stream 流名称
type Stream string

// StreamLibrary 书库变更流
const StreamLibrary Stream = "stream:wenshu:library"

// DLQStream 超过重试次数的消息转入的死信流
func (s Stream) DLQStream() string {
	return "dlq:" + string(s)
}

// ConsumerGroup 消费者组名称
type ConsumerGroup string

// ConsumerGroupCLI wenshuctl events tail 使用的消费者组
const ConsumerGroupCLI ConsumerGroup = "cg-wenshuctl"

// MessageTypeLibraryChanged 书库变更消息类型
const MessageTypeLibraryChanged = "library_changed"

// streamField 消息体在 Stream 条目中的字段名
const streamField = "data"

// Message 流中的消息信封，Payload 按 Type 解析
type Message struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	NovelID   string          `json:"novel_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// LibraryChange 书库变更事件载荷，At 为毫秒时间戳
type LibraryChange struct {
	Seq       uint64 `json:"seq"`
	Kind      string `json:"kind"`
	NovelID   string `json:"novel_id,omitempty"`
	ChapterID string `json:"chapter_id,omitempty"`
	At        int64  `json:"at"`
}

// NewLibraryChangeMessage 以序号生成消息 ID，同一进程内唯一
func NewLibraryChangeMessage(change LibraryChange) (*Message, error) {
	payload, err := json.Marshal(change)
	if err != nil {
		return nil, err
	}
	return &Message{
		ID:        fmt.Sprintf("%s-%d", MessageTypeLibraryChanged, change.Seq),
		Type:      MessageTypeLibraryChanged,
		NovelID:   change.NovelID,
		Payload:   payload,
		CreatedAt: time.Now(),
	}, nil
}

// UnmarshalPayload 解析消息载荷
func (m *Message) UnmarshalPayload(v any) error {
	return json.Unmarshal(m.Payload, v)
}

// BackoffConfig 失败消息的重投退避
type BackoffConfig struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
}

// DefaultBackoffConfig 1s 起步，每次翻倍，最多 1 分钟
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		Initial:    time.Second,
		Max:        time.Minute,
		Multiplier: 2,
	}
}

// CalculateBackoff 第 retryCount 次重投前需要等待的时长
func (c BackoffConfig) CalculateBackoff(retryCount int) time.Duration {
	backoff := c.Initial
	for range retryCount {
		backoff = time.Duration(float64(backoff) * c.Multiplier)
		if backoff >= c.Max {
			return c.Max
		}
	}
	return backoff
}
