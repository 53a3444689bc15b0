package chain

import (
	"maps"
	"slices"
)

// JSON Schema 构造，供 response_format=json_schema 使用

var stringType = map[string]any{"type": "string"}

// object 所有属性均为必填，禁止额外字段
func object(props map[string]any) map[string]any {
	required := make([]any, 0, len(props))
	for _, name := range slices.Sorted(maps.Keys(props)) {
		required = append(required, name)
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             required,
		"properties":           props,
	}
}

func arrayOf(items map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": items}
}

func outlineItemSchema() map[string]any {
	return object(map[string]any{
		"title":   stringType,
		"outline": stringType,
	})
}

func novelOutlineSchema() map[string]any {
	character := object(map[string]any{
		"name":        stringType,
		"role":        stringType,
		"description": stringType,
	})
	return object(map[string]any{
		"characters": arrayOf(character),
		"chapters":   arrayOf(outlineItemSchema()),
	})
}

// 部分提供商要求顶层为对象，数组包在 chapters 字段中
func batchOutlineSchema() map[string]any {
	return object(map[string]any{
		"chapters": arrayOf(outlineItemSchema()),
	})
}
