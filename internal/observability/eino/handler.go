// Package eino 通过 eino 全局回调统计模型调用：Prometheus 指标加一个 llm.generate span
package eino

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	llmctx "wenshu-novel-api/internal/domain/service"
	"wenshu-novel-api/pkg/logger"
	"wenshu-novel-api/pkg/metrics"
	"wenshu-novel-api/pkg/tracer"
)

var registerOnce sync.Once

// Init 注册进程级回调，只生效一次
func Init() {
	registerOnce.Do(func() {
		h := cbtemplate.NewHandlerHelper().ChatModel(&cbtemplate.ModelCallbackHandler{
			OnStart:               onStart,
			OnEnd:                 onEnd,
			OnEndWithStreamOutput: onStreamEnd,
			OnError:               onError,
		}).Handler()
		einocb.AppendGlobalHandlers(h)
	})
}

type callKey struct{}

// call 单次模型调用的标签，OnStart 写入 ctx
type call struct {
	started  time.Time
	workflow string
	provider string
	model    string
}

func callFrom(ctx context.Context) *call {
	if c, ok := ctx.Value(callKey{}).(*call); ok {
		return c
	}
	return &call{
		workflow: llmctx.WorkflowFromContext(ctx),
		provider: llmctx.ProviderFromContext(ctx),
	}
}

func onStart(ctx context.Context, info *einocb.RunInfo, in *model.CallbackInput) context.Context {
	c := &call{
		started:  time.Now(),
		workflow: llmctx.WorkflowFromContext(ctx),
		provider: llmctx.ProviderFromContext(ctx),
	}
	if in != nil && in.Config != nil {
		c.model = in.Config.Model
	}

	attrs := []attribute.KeyValue{
		attribute.String("eino.workflow", c.workflow),
		attribute.String("llm.provider", c.provider),
		attribute.String("llm.model", c.model),
	}
	if id := llmctx.NovelFromContext(ctx); id != "" {
		attrs = append(attrs, attribute.String("novel.id", id))
	}
	if info != nil {
		attrs = append(attrs, attribute.String("eino.component", string(info.Component)), attribute.String("eino.name", info.Name))
	}
	ctx, _ = tracer.Start(ctx, "llm.generate", trace.WithAttributes(attrs...))
	return context.WithValue(ctx, callKey{}, c)
}

func onEnd(ctx context.Context, _ *einocb.RunInfo, out *model.CallbackOutput) context.Context {
	c := callFrom(ctx)
	if out != nil {
		c.observeModel(out.Config)
		c.done(ctx, out.TokenUsage, nil)
	} else {
		c.done(ctx, nil, nil)
	}
	return ctx
}

// onStreamEnd 流必须在回调内读完并关闭，否则会阻塞上游
func onStreamEnd(ctx context.Context, _ *einocb.RunInfo, stream *schema.StreamReader[*model.CallbackOutput]) context.Context {
	c := callFrom(ctx)
	go func() {
		defer stream.Close()
		var usage *model.TokenUsage
		for {
			chunk, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				c.done(ctx, usage, nil)
				return
			}
			if err != nil {
				c.done(ctx, usage, err)
				return
			}
			if chunk == nil {
				continue
			}
			c.observeModel(chunk.Config)
			if chunk.TokenUsage != nil {
				usage = chunk.TokenUsage
			}
		}
	}()
	return ctx
}

func onError(ctx context.Context, _ *einocb.RunInfo, err error) context.Context {
	callFrom(ctx).done(ctx, nil, err)
	return ctx
}

// observeModel 以响应里的模型名为准
func (c *call) observeModel(cfg *model.Config) {
	if cfg != nil && cfg.Model != "" {
		c.model = cfg.Model
	}
}

func (c *call) elapsed() float64 {
	if c.started.IsZero() {
		return 0
	}
	return time.Since(c.started).Seconds()
}

// done 上报指标并结束 span
func (c *call) done(ctx context.Context, usage *model.TokenUsage, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.LLMCallTotal.WithLabelValues(c.workflow, c.provider, c.model, status).Inc()
	if d := c.elapsed(); d > 0 {
		metrics.LLMCallDuration.WithLabelValues(c.workflow, c.provider, c.model).Observe(d)
	}

	span := trace.SpanFromContext(ctx)
	defer span.End()

	if usage != nil {
		metrics.LLMTokensUsed.WithLabelValues(c.workflow, c.provider, c.model, "prompt").Add(float64(usage.PromptTokens))
		metrics.LLMTokensUsed.WithLabelValues(c.workflow, c.provider, c.model, "completion").Add(float64(usage.CompletionTokens))
		span.SetAttributes(
			attribute.Int("llm.prompt_tokens", usage.PromptTokens),
			attribute.Int("llm.completion_tokens", usage.CompletionTokens),
		)
	}
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	logger.Warn(ctx, "llm call failed",
		"workflow", c.workflow,
		"provider", c.provider,
		"model", c.model,
		"error", err.Error(),
	)
}
