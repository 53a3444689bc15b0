package chain

import (
	"context"
	"errors"
	"strconv"
	"strings"

	llmctx "wenshu-novel-api/internal/domain/service"
	wfmodel "wenshu-novel-api/internal/workflow/model"
	wfnode "wenshu-novel-api/internal/workflow/node"
	workflowport "wenshu-novel-api/internal/workflow/port"
	workflowprompt "wenshu-novel-api/internal/workflow/prompt"
)

// OutlineChain 续写大纲：批量与单章
type OutlineChain struct {
	factory workflowport.ChatModelFactory
}

func NewOutlineChain(factory workflowport.ChatModelFactory) *OutlineChain {
	return &OutlineChain{factory: factory}
}

// Batch 返回模型给出的大纲列表，数量与空值由调用方过滤
func (c *OutlineChain) Batch(ctx context.Context, in *wfmodel.BatchOutlineInput) ([]wfmodel.OutlineItem, error) {
	switch {
	case c == nil || c.factory == nil:
		return nil, errNoFactory
	case in == nil:
		return nil, errNilInput
	case in.Count <= 0:
		return nil, errors.New("batch size must be positive")
	}

	pc, err := prepare(ctx, c.factory, llmctx.WorkflowBatchOutline, in.LLMOptions, workflowprompt.PromptBatchOutlineV1, map[string]any{
		"novel_context":   in.NovelContext,
		"preceding":       in.Preceding,
		"count":           in.Count,
		"start_number":    in.StartNumber,
		"target_coverage": strconv.FormatFloat(in.TargetCoverage, 'f', -1, 64),
		"direction":       strings.TrimSpace(in.Direction),
	})
	if err != nil {
		return nil, err
	}
	reply, err := generateJSON(pc.ctx, pc.model, pc.msgs, in.LLMOptions, "batch_outline", batchOutlineSchema())
	if err != nil {
		return nil, err
	}
	return decodeOutlineList(reply.Content)
}

// Single 生成下一章大纲
func (c *OutlineChain) Single(ctx context.Context, in *wfmodel.SingleOutlineInput) (*wfmodel.OutlineItem, error) {
	if c == nil || c.factory == nil {
		return nil, errNoFactory
	}
	if in == nil {
		return nil, errNilInput
	}

	pc, err := prepare(ctx, c.factory, llmctx.WorkflowSingleOutline, in.LLMOptions, workflowprompt.PromptSingleOutlineV1, map[string]any{
		"novel_context": in.NovelContext,
		"direction":     strings.TrimSpace(in.Direction),
		"next_number":   in.NextNumber,
	})
	if err != nil {
		return nil, err
	}
	reply, err := generateJSON(pc.ctx, pc.model, pc.msgs, in.LLMOptions, "chapter_outline", outlineItemSchema())
	if err != nil {
		return nil, err
	}
	item, err := wfnode.DecodeJSON[wfmodel.OutlineItem](reply.Content)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// decodeOutlineList 接受裸数组或 {"chapters": [...]}
func decodeOutlineList(content string) ([]wfmodel.OutlineItem, error) {
	raw := wfnode.ExtractJSONValue(content)
	if strings.HasPrefix(raw, "[") {
		return wfnode.DecodeJSON[[]wfmodel.OutlineItem](raw)
	}
	wrapped, err := wfnode.DecodeJSON[struct {
		Chapters []wfmodel.OutlineItem `json:"chapters"`
	}](raw)
	if err != nil {
		return nil, err
	}
	return wrapped.Chapters, nil
}
