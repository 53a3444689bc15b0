package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestCalculateBackoff(t *testing.T) {
	cfg := BackoffConfig{Initial: time.Second, Max: 5 * time.Second, Multiplier: 2}
	tests := []struct {
		retry int
		want  time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 5 * time.Second},
		{10, 5 * time.Second},
	}
	for _, tt := range tests {
		if got := cfg.CalculateBackoff(tt.retry); got != tt.want {
			t.Fatalf("CalculateBackoff(%d) = %v, want %v", tt.retry, got, tt.want)
		}
	}
}

func TestLibraryChangeMessagePayload(t *testing.T) {
	change := LibraryChange{Seq: 7, Kind: "chapter_updated", NovelID: "novel-1", ChapterID: "chap-2", At: 1700000000000}
	msg, err := NewLibraryChangeMessage(change)
	if err != nil {
		t.Fatalf("NewLibraryChangeMessage: %v", err)
	}
	var got LibraryChange
	if err := msg.UnmarshalPayload(&got); err != nil {
		t.Fatalf("UnmarshalPayload: %v", err)
	}
	if got != change {
		t.Fatalf("payload = %+v, want %+v", got, change)
	}
	if msg.ID != "library_changed-7" || msg.NovelID != "novel-1" || msg.Type != MessageTypeLibraryChanged {
		t.Fatalf("message = %+v", msg)
	}
}

func TestChangePublisherIgnoresEnqueueAfterClose(t *testing.T) {
	p := NewChangePublisher(nil, 1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	p.Enqueue(LibraryChange{Seq: 1})
	if err := p.Close(ctx); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestDLQStream(t *testing.T) {
	if got := StreamLibrary.DLQStream(); got != "dlq:stream:wenshu:library" {
		t.Fatalf("DLQStream = %q", got)
	}
}

func TestDecodeStreamEntry(t *testing.T) {
	msg, err := NewLibraryChangeMessage(LibraryChange{Seq: 3, Kind: "novel_created", NovelID: "novel-1"})
	if err != nil {
		t.Fatalf("NewLibraryChangeMessage: %v", err)
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}

	got, err := decode(redis.XMessage{ID: "1-0", Values: map[string]any{streamField: string(raw)}})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != msg.ID || got.NovelID != "novel-1" {
		t.Fatalf("decoded = %+v, want %+v", got, msg)
	}

	if _, err := decode(redis.XMessage{ID: "2-0", Values: map[string]any{"other": "x"}}); err == nil {
		t.Fatal("decode(missing field) error = nil")
	}
}

func TestNewConsumerDefaults(t *testing.T) {
	c := NewConsumer(nil, ConsumerConfig{Stream: StreamLibrary, Group: ConsumerGroupCLI})
	if c.cfg.StartID != "0" || c.cfg.RetryLimit != 3 || c.cfg.BlockTimeout != 5*time.Second {
		t.Fatalf("config = %+v", c.cfg)
	}
	if c.staleIdle != 5*time.Minute {
		t.Fatalf("staleIdle = %v, want 5m", c.staleIdle)
	}
}
