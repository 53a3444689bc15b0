package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{CodeInvalidParam, http.StatusBadRequest},
		{CodeValidationFailed, http.StatusBadRequest},
		{CodeNovelNotFound, http.StatusNotFound},
		{CodeChapterNotFound, http.StatusNotFound},
		{CodeJobNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeGenerationFailed, http.StatusBadGateway},
		{CodeTooManyRequests, http.StatusTooManyRequests},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := New(tt.code, "x").HTTPStatus; got != tt.want {
			t.Fatalf("HTTPStatus(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestWithDetailDoesNotMutateSentinel(t *testing.T) {
	e := ErrValidationFailed.WithDetail("至少保留一个章节。")
	if ErrValidationFailed.Detail != "" {
		t.Fatalf("sentinel detail = %q, want empty", ErrValidationFailed.Detail)
	}
	if e.Detail != "至少保留一个章节。" {
		t.Fatalf("detail = %q", e.Detail)
	}
	if !stderrors.Is(e, ErrValidationFailed) {
		t.Fatalf("errors.Is(detail copy, sentinel) = false, want true")
	}
}

func TestAsAppErrorUnwrapsChain(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", ErrNovelNotFound)
	if !IsAppError(wrapped) {
		t.Fatalf("IsAppError = false, want true")
	}
	if got := AsAppError(wrapped).Code; got != CodeNovelNotFound {
		t.Fatalf("code = %s, want %s", got, CodeNovelNotFound)
	}

	plain := stderrors.New("boom")
	got := AsAppError(plain)
	if got.Code != CodeUnknown || !stderrors.Is(got, plain) {
		t.Fatalf("AsAppError(plain) = %+v", got)
	}
}
