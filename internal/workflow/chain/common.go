// Package chain 组装各生成工作流的 eino 调用链
package chain

import (
	"context"
	"errors"
	"fmt"

	openaiopts "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	llmctx "wenshu-novel-api/internal/domain/service"
	wfmodel "wenshu-novel-api/internal/workflow/model"
	wfnode "wenshu-novel-api/internal/workflow/node"
	workflowport "wenshu-novel-api/internal/workflow/port"
	workflowprompt "wenshu-novel-api/internal/workflow/prompt"
	"wenshu-novel-api/pkg/logger"
)

var (
	defaultPromptRegistry = workflowprompt.MustNewRegistry()

	errNoFactory = errors.New("llm factory not configured")
	errNilInput  = errors.New("input is nil")
)

// preparedCall 一次模型调用的准备结果
type preparedCall struct {
	ctx   context.Context
	model model.BaseChatModel
	msgs  []*schema.Message
}

// prepare 解析提供商并渲染提示词；返回的 ctx 已带工作流与提供商标签
func prepare(ctx context.Context, factory workflowport.ChatModelFactory, workflow string, o wfmodel.LLMOptions, prompt workflowprompt.PromptID, vars map[string]any) (*preparedCall, error) {
	ctx, chatModel, err := resolveChatModel(ctx, factory, workflow, o)
	if err != nil {
		return nil, err
	}
	msgs, err := formatMessages(ctx, prompt, vars)
	if err != nil {
		return nil, fmt.Errorf("%s prompt: %w", workflow, err)
	}
	return &preparedCall{ctx: ctx, model: chatModel, msgs: msgs}, nil
}

func formatMessages(ctx context.Context, id workflowprompt.PromptID, vars map[string]any) ([]*schema.Message, error) {
	tpl, err := defaultPromptRegistry.ChatTemplate(id)
	if err != nil {
		return nil, err
	}
	return tpl.Format(ctx, vars)
}

// resolveChatModel 标记调用归属并取得对应提供商的 ChatModel
func resolveChatModel(ctx context.Context, factory workflowport.ChatModelFactory, workflow string, o wfmodel.LLMOptions) (context.Context, model.BaseChatModel, error) {
	if factory == nil {
		return ctx, nil, errNoFactory
	}
	if !factory.Has(o.ProviderName()) {
		return ctx, nil, fmt.Errorf("llm provider %q not configured", o.ProviderName())
	}
	ctx = llmctx.WithWorkflowProvider(ctx, workflow, o.ProviderName())
	chatModel, err := factory.Get(ctx, o.ProviderName())
	if err != nil {
		return ctx, nil, err
	}
	return ctx, chatModel, nil
}

func buildModelOptions(o wfmodel.LLMOptions) []model.Option {
	opts := make([]model.Option, 0, 4)
	if o.Temperature != nil {
		opts = append(opts, model.WithTemperature(*o.Temperature))
	}
	if o.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*o.MaxTokens))
	}
	if m := o.ModelName(); m != "" {
		opts = append(opts, model.WithModel(m))
	}
	return opts
}

func withJSONSchema(opts []model.Option, name string, jsonSchema map[string]any) []model.Option {
	return append(opts, openaiopts.WithExtraFields(map[string]any{
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   name,
				"strict": false,
				"schema": jsonSchema,
			},
		},
	}))
}

// generateJSON 先以 json_schema 约束输出，提供商不支持时回退为纯提示词
func generateJSON(ctx context.Context, chatModel model.BaseChatModel, msgs []*schema.Message, o wfmodel.LLMOptions, schemaName string, jsonSchema map[string]any) (*schema.Message, error) {
	base := buildModelOptions(o)
	outMsg, err := chatModel.Generate(ctx, msgs, withJSONSchema(base, schemaName, jsonSchema)...)
	if err != nil && wfnode.IsResponseFormatUnsupportedError(err) {
		logger.Warn(ctx, "llm json_schema not supported, fallback to prompt-only",
			"workflow", llmctx.WorkflowFromContext(ctx),
			"provider", o.ProviderName(),
			"model", o.ModelName(),
			"error", err.Error(),
		)
		outMsg, err = chatModel.Generate(ctx, msgs, buildModelOptions(o)...)
	}
	if err != nil {
		return nil, err
	}
	if outMsg == nil {
		return nil, fmt.Errorf("empty llm response")
	}
	return outMsg, nil
}
