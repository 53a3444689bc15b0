package chain

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/eino/schema"

	llmctx "wenshu-novel-api/internal/domain/service"
	wfmodel "wenshu-novel-api/internal/workflow/model"
	workflowport "wenshu-novel-api/internal/workflow/port"
	workflowprompt "wenshu-novel-api/internal/workflow/prompt"
)

// ChapterChain 按大纲流式写出整章正文
type ChapterChain struct {
	factory workflowport.ChatModelFactory
}

func NewChapterChain(factory workflowport.ChatModelFactory) *ChapterChain {
	return &ChapterChain{factory: factory}
}

// Stream 调用方负责关闭返回的流；末尾可能有一条只带用量的空内容消息
func (c *ChapterChain) Stream(ctx context.Context, in *wfmodel.ChapterContentInput) (*schema.StreamReader[*schema.Message], error) {
	switch {
	case c == nil || c.factory == nil:
		return nil, errNoFactory
	case in == nil:
		return nil, errNilInput
	case strings.TrimSpace(in.ChapterOutline) == "":
		return nil, errors.New("chapter outline is required")
	}

	pc, err := prepare(ctx, c.factory, llmctx.WorkflowChapterStream, in.LLMOptions, workflowprompt.PromptChapterContentV1, map[string]any{
		"novel_context":   in.NovelContext,
		"previous_tail":   in.PreviousTail,
		"chapter_title":   strings.TrimSpace(in.ChapterTitle),
		"progress":        in.Progress,
		"chapter_outline": strings.TrimSpace(in.ChapterOutline),
		"instruction":     strings.TrimSpace(in.Instruction),
	})
	if err != nil {
		return nil, err
	}
	return pc.model.Stream(pc.ctx, pc.msgs, buildModelOptions(in.LLMOptions)...)
}
