// Package node 提供工作流节点共用的解析与文本工具
package node

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSONValue 从模型输出中截取第一个完整的 JSON 对象或数组
// 模型可能在 JSON 前后夹杂说明文字或 markdown 代码块；无法定位时返回 trim 后的原文
func ExtractJSONValue(s string) string {
	raw := strings.TrimSpace(s)
	start := strings.IndexAny(raw, "{[")
	if start < 0 {
		return raw
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		ch := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}

	// 括号不闭合，截到最后一个同类结束符
	closer := "}"
	if raw[start] == '[' {
		closer = "]"
	}
	if end := strings.LastIndex(raw, closer); end > start {
		return raw[start : end+1]
	}
	return raw
}

// DecodeJSON 截取并解码模型输出
func DecodeJSON[T any](s string) (T, error) {
	var out T
	raw := ExtractJSONValue(s)
	if raw == "" {
		return out, fmt.Errorf("empty json output")
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return out, fmt.Errorf("decode json output: %w", err)
	}
	return out, nil
}
