// Package port 定义工作流层依赖的外部能力
package port

import (
	"context"

	"github.com/cloudwego/eino/components/model"
)

// ChatModelFactory 按提供商名称提供 ChatModel，名称为空时取默认提供商
type ChatModelFactory interface {
	Get(ctx context.Context, provider string) (model.BaseChatModel, error)
	// Has 提供商是否已配置
	Has(provider string) bool
}
