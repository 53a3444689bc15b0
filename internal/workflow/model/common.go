// Package model 定义工作流的输入输出结构
package model

import "strings"

// LLMOptions 单次调用的模型参数，零值表示使用提供商默认值
type LLMOptions struct {
	Provider string
	Model    string

	Temperature *float32
	MaxTokens   *int
}

// ProviderName 去除空白后的提供商名称
func (o LLMOptions) ProviderName() string {
	return strings.TrimSpace(o.Provider)
}

// ModelName 去除空白后的模型名称
func (o LLMOptions) ModelName() string {
	return strings.TrimSpace(o.Model)
}

// WithTemperature 返回设置了温度的副本，t <= 0 时沿用提供商默认值
func (o LLMOptions) WithTemperature(t float32) LLMOptions {
	if t <= 0 {
		return o
	}
	o.Temperature = &t
	return o
}
