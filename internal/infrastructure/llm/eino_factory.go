// Package llm 按配置创建 OpenAI 兼容的 eino ChatModel
package llm

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"wenshu-novel-api/internal/config"
)

// lazyModel 首次使用时构造，失败结果同样缓存
type lazyModel struct {
	once  sync.Once
	model model.BaseChatModel
	err   error
}

// EinoFactory 每个提供商一个 ChatModel，并发安全
type EinoFactory struct {
	defaultName string
	providers   map[string]config.ProviderConfig
	models      map[string]*lazyModel
}

func NewEinoFactory(cfg *config.Config) *EinoFactory {
	f := &EinoFactory{
		defaultName: cfg.LLM.DefaultProvider,
		providers:   cfg.LLM.Providers,
		models:      make(map[string]*lazyModel, len(cfg.LLM.Providers)),
	}
	for name := range f.providers {
		f.models[name] = &lazyModel{}
	}
	return f
}

// Get name 为空时取默认提供商
func (f *EinoFactory) Get(ctx context.Context, name string) (model.BaseChatModel, error) {
	name = f.resolve(name)
	lm, ok := f.models[name]
	if !ok {
		return nil, fmt.Errorf("llm provider %q not configured", name)
	}
	lm.once.Do(func() {
		lm.model, lm.err = newChatModel(ctx, name, f.providers[name])
	})
	return lm.model, lm.err
}

func newChatModel(ctx context.Context, name string, p config.ProviderConfig) (model.BaseChatModel, error) {
	if strings.TrimSpace(p.APIKey) == "" {
		return nil, fmt.Errorf("llm provider %q: api_key is empty", name)
	}
	cfg := &openai.ChatModelConfig{
		APIKey:  p.APIKey,
		BaseURL: p.BaseURL,
		Model:   p.Model,
		Timeout: p.Timeout,
	}
	// 零值交给服务端默认
	if p.MaxTokens > 0 {
		cfg.MaxTokens = &p.MaxTokens
	}
	if p.Temperature > 0 {
		t := float32(p.Temperature)
		cfg.Temperature = &t
	}
	m, err := openai.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("llm provider %q: %w", name, err)
	}
	return m, nil
}

// Has 空名称视为默认提供商
func (f *EinoFactory) Has(name string) bool {
	_, ok := f.models[f.resolve(name)]
	return ok
}

// Providers 按字典序
func (f *EinoFactory) Providers() []string {
	return slices.Sorted(maps.Keys(f.providers))
}

func (f *EinoFactory) resolve(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return f.defaultName
}
