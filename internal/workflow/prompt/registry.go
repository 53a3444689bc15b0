// Package prompt 管理内嵌的提示词模板
package prompt

import (
	"embed"
	"fmt"
	"path"
	"strings"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt
var templatesFS embed.FS

// PromptID 模板标识，带版本后缀；改动提示词语义时新增版本而不是原地修改
type PromptID string

const (
	PromptNovelOutlineV1   PromptID = "novel_outline_v1"
	PromptBatchOutlineV1   PromptID = "batch_outline_v1"
	PromptSingleOutlineV1  PromptID = "single_outline_v1"
	PromptChapterContentV1 PromptID = "chapter_content_v1"
	PromptBrainstormV1     PromptID = "brainstorm_v1"
)

// 创作类提示词共用的系统指令
const novelist = "novelist"

// systemOf 空串表示只有用户消息；用户消息固定为 templates/<id>.user.txt
var systemOf = map[PromptID]string{
	PromptNovelOutlineV1:   novelist,
	PromptBatchOutlineV1:   novelist,
	PromptSingleOutlineV1:  "",
	PromptChapterContentV1: novelist,
	PromptBrainstormV1:     string(PromptBrainstormV1),
}

// Registry 启动时一次性解析全部模板，之后只读
type Registry struct {
	templates map[PromptID]einoprompt.ChatTemplate
}

// NewRegistry 任一模板缺失即返回错误
func NewRegistry() (*Registry, error) {
	r := &Registry{templates: make(map[PromptID]einoprompt.ChatTemplate, len(systemOf))}
	for id, system := range systemOf {
		var msgs []schema.MessagesTemplate
		if system != "" {
			text, err := readTemplate(system + ".system.txt")
			if err != nil {
				return nil, err
			}
			msgs = append(msgs, schema.SystemMessage(text))
		}
		text, err := readTemplate(string(id) + ".user.txt")
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, schema.UserMessage(text))
		r.templates[id] = einoprompt.FromMessages(schema.FString, msgs...)
	}
	return r, nil
}

// MustNewRegistry 内嵌模板在编译期确定，缺失属于构建错误
func MustNewRegistry() *Registry {
	r, err := NewRegistry()
	if err != nil {
		panic(err)
	}
	return r
}

// ChatTemplate 按 FString 渲染的对话模板
func (r *Registry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	tpl, ok := r.templates[id]
	if !ok {
		return nil, fmt.Errorf("unknown prompt %q", id)
	}
	return tpl, nil
}

func readTemplate(name string) (string, error) {
	b, err := templatesFS.ReadFile(path.Join("templates", name))
	if err != nil {
		return "", fmt.Errorf("prompt template %s: %w", name, err)
	}
	return strings.TrimSpace(string(b)), nil
}
