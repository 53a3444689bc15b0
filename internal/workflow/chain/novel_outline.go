package chain

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/cloudwego/eino/compose"

	llmctx "wenshu-novel-api/internal/domain/service"
	wfmodel "wenshu-novel-api/internal/workflow/model"
	wfnode "wenshu-novel-api/internal/workflow/node"
	workflowport "wenshu-novel-api/internal/workflow/port"
	workflowprompt "wenshu-novel-api/internal/workflow/prompt"
)

type novelOutlineRunnable = compose.Runnable[*wfmodel.NovelOutlineInput, *wfmodel.NovelOutlineOutput]

// NovelOutlineChain 开书：角色表与首批大纲，编排为 prompt -> llm -> parse 三个节点
type NovelOutlineChain struct {
	factory workflowport.ChatModelFactory

	once     sync.Once
	runnable novelOutlineRunnable
	buildErr error
}

func NewNovelOutlineChain(factory workflowport.ChatModelFactory) *NovelOutlineChain {
	return &NovelOutlineChain{factory: factory}
}

func (c *NovelOutlineChain) Invoke(ctx context.Context, in *wfmodel.NovelOutlineInput) (*wfmodel.NovelOutlineOutput, error) {
	switch {
	case c == nil || c.factory == nil:
		return nil, errNoFactory
	case in == nil:
		return nil, errNilInput
	case in.Count <= 0:
		return nil, errors.New("chapter count must be positive")
	}

	c.once.Do(func() {
		c.runnable, c.buildErr = c.compile(context.Background())
	})
	if c.buildErr != nil {
		return nil, c.buildErr
	}
	return c.runnable.Invoke(ctx, in)
}

// novelOutlineStep 节点间传递的状态
type novelOutlineStep struct {
	in    *wfmodel.NovelOutlineInput
	call  *preparedCall
	reply string
}

func (c *NovelOutlineChain) compile(ctx context.Context) (novelOutlineRunnable, error) {
	prompt := func(ctx context.Context, in *wfmodel.NovelOutlineInput) (*novelOutlineStep, error) {
		pc, err := prepare(ctx, c.factory, llmctx.WorkflowNovelOutline, in.LLMOptions, workflowprompt.PromptNovelOutlineV1, map[string]any{
			"title":          strings.TrimSpace(in.Title),
			"genre":          strings.TrimSpace(in.Genre),
			"premise":        strings.TrimSpace(in.Premise),
			"total_chapters": in.TotalChapters,
			"count":          in.Count,
			"coverage":       strconv.FormatFloat(in.Coverage, 'f', -1, 64),
		})
		if err != nil {
			return nil, err
		}
		return &novelOutlineStep{in: in, call: pc}, nil
	}

	generate := func(_ context.Context, st *novelOutlineStep) (*novelOutlineStep, error) {
		pc := st.call
		msg, err := generateJSON(pc.ctx, pc.model, pc.msgs, st.in.LLMOptions, "novel_outline", novelOutlineSchema())
		if err != nil {
			return nil, err
		}
		st.reply = msg.Content
		return st, nil
	}

	parse := func(_ context.Context, st *novelOutlineStep) (*wfmodel.NovelOutlineOutput, error) {
		out, err := wfnode.DecodeJSON[wfmodel.NovelOutlineOutput](st.reply)
		if err != nil {
			return nil, err
		}
		return &out, nil
	}

	return compose.NewChain[*wfmodel.NovelOutlineInput, *wfmodel.NovelOutlineOutput]().
		AppendLambda(compose.InvokableLambda(prompt), compose.WithNodeName("novel_outline.prompt")).
		AppendLambda(compose.InvokableLambda(generate), compose.WithNodeName("novel_outline.llm")).
		AppendLambda(compose.InvokableLambda(parse), compose.WithNodeName("novel_outline.parse")).
		Compile(ctx)
}
