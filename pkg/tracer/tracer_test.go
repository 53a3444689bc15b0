package tracer

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSamplerByRate(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{2.5, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.25, "TraceIDRatioBased"},
	}
	for _, tt := range tests {
		got := Sampler(tt.rate).Description()
		if !strings.HasPrefix(got, tt.want) {
			t.Fatalf("Sampler(%v) = %q, want prefix %q", tt.rate, got, tt.want)
		}
	}
}

func TestDisabledInitIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{ServiceName: "wenshu-test"})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	_, span := Start(context.Background(), "noop")
	defer span.End()
	if span.SpanContext().IsValid() {
		t.Fatalf("span without provider has valid context, want noop")
	}
	boom := errors.New("boom")
	if got := RecordError(span, boom); !errors.Is(got, boom) {
		t.Fatalf("RecordError returned %v", got)
	}
}
