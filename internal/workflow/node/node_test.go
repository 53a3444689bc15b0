package node

import (
	"errors"
	"testing"
)

func TestExtractJSONValue(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain object", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n[{\"title\":\"x\"}]\n```", `[{"title":"x"}]`},
		{"prefix and suffix", `好的，如下：{"a":"}"} 以上`, `{"a":"}"}`},
		{"trailing second value", `[1,2] [3]`, `[1,2]`},
		{"escaped quote", `{"a":"say \"hi\" }"}`, `{"a":"say \"hi\" }"}`},
		{"no json", `没有内容`, `没有内容`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSONValue(tt.in); got != tt.want {
				t.Fatalf("ExtractJSONValue(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type item struct {
		Title string `json:"title"`
	}
	got, err := DecodeJSON[[]item]("输出：\n[{\"title\":\"第一章\"},{\"title\":\"第二章\"}]")
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if len(got) != 2 || got[1].Title != "第二章" {
		t.Fatalf("DecodeJSON = %+v", got)
	}
	if _, err := DecodeJSON[[]item]("   "); err == nil {
		t.Fatal("expected error for empty output")
	}
}

func TestIsResponseFormatUnsupportedError(t *testing.T) {
	if !IsResponseFormatUnsupportedError(errors.New("Unknown parameter: 'response_format.json_schema'")) {
		t.Fatal("response_format error not detected")
	}
	if IsResponseFormatUnsupportedError(errors.New("rate limit exceeded")) {
		t.Fatal("unrelated error detected")
	}
	if IsResponseFormatUnsupportedError(nil) {
		t.Fatal("nil detected")
	}
}

func TestTailByRunes(t *testing.T) {
	if got := TailByRunes("天地玄黄宇宙洪荒", 4); got != "宇宙洪荒" {
		t.Fatalf("TailByRunes = %q", got)
	}
	if got := TailByRunes("短", 10); got != "短" {
		t.Fatalf("TailByRunes = %q", got)
	}
	if got := TruncateByRunes("天地玄黄", 2); got != "天地" {
		t.Fatalf("TruncateByRunes = %q", got)
	}
}
