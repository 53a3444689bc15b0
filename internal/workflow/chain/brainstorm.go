package chain

import (
	"context"
	"strings"

	llmctx "wenshu-novel-api/internal/domain/service"
	wfmodel "wenshu-novel-api/internal/workflow/model"
	wfnode "wenshu-novel-api/internal/workflow/node"
	workflowport "wenshu-novel-api/internal/workflow/port"
	workflowprompt "wenshu-novel-api/internal/workflow/prompt"
)

// BrainstormChain 围绕当前章节回答作者的自由提问
type BrainstormChain struct {
	factory workflowport.ChatModelFactory
}

func NewBrainstormChain(factory workflowport.ChatModelFactory) *BrainstormChain {
	return &BrainstormChain{factory: factory}
}

// Invoke 返回去掉首尾空白的模型原文，可能为空
func (c *BrainstormChain) Invoke(ctx context.Context, in *wfmodel.BrainstormInput) (string, error) {
	if c == nil || c.factory == nil {
		return "", errNoFactory
	}
	if in == nil {
		return "", errNilInput
	}

	pc, err := prepare(ctx, c.factory, llmctx.WorkflowBrainstorm, in.LLMOptions, workflowprompt.PromptBrainstormV1, map[string]any{
		"novel_context":   in.NovelContext,
		"chapter_title":   strings.TrimSpace(in.ChapterTitle),
		"chapter_outline": strings.TrimSpace(in.ChapterOutline),
		"query":           strings.TrimSpace(in.Query),
		"excerpt_block":   wfnode.BuildExcerptBlock(in.Excerpt),
	})
	if err != nil {
		return "", err
	}
	reply, err := pc.model.Generate(pc.ctx, pc.msgs, buildModelOptions(in.LLMOptions)...)
	if err != nil || reply == nil {
		return "", err
	}
	return strings.TrimSpace(reply.Content), nil
}
