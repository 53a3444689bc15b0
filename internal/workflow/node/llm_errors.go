package node

import "strings"

// 提供商不支持 response_format 时的报错特征
var responseFormatMarkers = [][]string{
	{"response_format"},
	{"json_schema"},
	{"response_schema"},
	{"unknown parameter", "response"},
	{"invalid", "response"},
	{"failed to parse"},
}

// IsResponseFormatUnsupportedError 判断错误是否由结构化输出参数不被支持引起
func IsResponseFormatUnsupportedError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, markers := range responseFormatMarkers {
		matched := true
		for _, m := range markers {
			if !strings.Contains(msg, m) {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}
