package export

import (
	"errors"
	"testing"

	"wenshu-novel-api/internal/domain/entity"
	apperrors "wenshu-novel-api/pkg/errors"
)

func sampleNovel() *entity.Novel {
	n := entity.NewNovel("问道", "少年问道", entity.GenreXianxia)
	n.Chapters = []entity.Chapter{
		{ID: "c1", Title: "入山", Content: "山门大开。"},
		{ID: "c2", Title: "试炼"},
		{ID: "c3", Title: "奇遇", Content: "残卷现世。"},
	}
	return n
}

func TestRenderTXT(t *testing.T) {
	doc, err := Render(sampleNovel(), []string{"c3", "c2"}, FormatTXT)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "《问道》\n\n简介：少年问道\n\n====================================\n\n" +
		"【试炼】\n\n(暂无内容)\n\n\n------------------------------------\n\n" +
		"【奇遇】\n\n残卷现世。\n\n\n------------------------------------\n\n"
	if got := string(doc.Body); got != want {
		t.Fatalf("body = %q, want %q", got, want)
	}
	if doc.Filename != "问道.txt" {
		t.Fatalf("filename = %q, want 问道.txt", doc.Filename)
	}
}

func TestRenderMarkdown(t *testing.T) {
	doc, err := Render(sampleNovel(), []string{"c1"}, FormatMD)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "# 问道\n\n> 少年问道\n\n---\n\n## 入山\n\n山门大开。\n\n"
	if got := string(doc.Body); got != want {
		t.Fatalf("body = %q, want %q", got, want)
	}
	if doc.Filename != "问道.md" {
		t.Fatalf("filename = %q, want 问道.md", doc.Filename)
	}
}

func TestRenderRejectsEmptySelection(t *testing.T) {
	if _, err := Render(sampleNovel(), nil, FormatTXT); !errors.Is(err, apperrors.ErrEmptySelection) {
		t.Fatalf("err = %v, want ErrEmptySelection", err)
	}
}

func TestRenderRejectsSelectionWithoutKnownChapters(t *testing.T) {
	if _, err := Render(sampleNovel(), []string{"chap-nope"}, FormatTXT); !errors.Is(err, apperrors.ErrEmptySelection) {
		t.Fatalf("err = %v, want ErrEmptySelection", err)
	}
}

func TestRenderFilenameIsSingleSegment(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"AI/未来", "AI_未来.txt"},
		{"../逃逸", "_逃逸.txt"},
		{`C:\书`, "C__书.txt"},
		{"..", "未命名作品.txt"},
		{"  ", "未命名作品.txt"},
	}
	for _, tt := range tests {
		n := sampleNovel()
		n.Title = tt.title
		doc, err := Render(n, []string{"c1"}, FormatTXT)
		if err != nil {
			t.Fatalf("Render(%q): %v", tt.title, err)
		}
		if doc.Filename != tt.want {
			t.Fatalf("filename for %q = %q, want %q", tt.title, doc.Filename, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTXT, false},
		{"TXT", FormatTXT, false},
		{"md", FormatMD, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Fatalf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}
