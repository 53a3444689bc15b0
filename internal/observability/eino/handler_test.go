package eino

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"

	llmctx "wenshu-novel-api/internal/domain/service"
)

func TestOnStartRecordsCall(t *testing.T) {
	ctx := llmctx.WithWorkflowProvider(context.Background(), llmctx.WorkflowBrainstorm, "deepseek")
	in := &model.CallbackInput{Config: &model.Config{Model: "deepseek-chat"}}

	ctx = onStart(ctx, nil, in)
	c := callFrom(ctx)
	if c.workflow != llmctx.WorkflowBrainstorm || c.provider != "deepseek" || c.model != "deepseek-chat" {
		t.Fatalf("call = %+v", c)
	}
	if c.started.IsZero() {
		t.Fatal("started not recorded")
	}
	onEnd(ctx, nil, &model.CallbackOutput{TokenUsage: &model.TokenUsage{PromptTokens: 3, CompletionTokens: 5}})
}

func TestCallFromWithoutStart(t *testing.T) {
	c := callFrom(context.Background())
	if c.workflow != "unknown" || c.provider != "unknown" {
		t.Fatalf("call = %+v, want unknown labels", c)
	}
	if c.elapsed() != 0 {
		t.Fatalf("elapsed without start = %v, want 0", c.elapsed())
	}
}

func TestObserveModelPrefersResponse(t *testing.T) {
	c := &call{model: "gpt-4o-mini", started: time.Now().Add(-2 * time.Second)}
	c.observeModel(nil)
	c.observeModel(&model.Config{})
	if c.model != "gpt-4o-mini" {
		t.Fatalf("model = %q, want unchanged", c.model)
	}
	c.observeModel(&model.Config{Model: "gpt-4o-mini-2024-07-18"})
	if c.model != "gpt-4o-mini-2024-07-18" {
		t.Fatalf("model = %q", c.model)
	}
	if c.elapsed() < 2 {
		t.Fatalf("elapsed = %v, want >= 2", c.elapsed())
	}
}

func TestOnErrorWithoutSpanDoesNotPanic(t *testing.T) {
	onError(context.Background(), nil, errors.New("upstream 500"))
}
