// Package errors 定义对外暴露的业务错误码及其 HTTP 状态映射
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode 对外错误码，写入响应的 error.error_code
type ErrorCode string

const (
	CodeUnknown         ErrorCode = "1000"
	CodeInvalidParam    ErrorCode = "1001"
	CodeConflict        ErrorCode = "1005"
	CodeTooManyRequests ErrorCode = "1006"
	CodeInternalError   ErrorCode = "1007"

	CodeNovelNotFound   ErrorCode = "3001"
	CodeChapterNotFound ErrorCode = "3002"
	CodeJobNotFound     ErrorCode = "3005"

	// 模型调用或输出解析失败
	CodeGenerationFailed ErrorCode = "4001"
	CodeValidationFailed ErrorCode = "4002"
)

// 未列出的错误码按 500 处理
var statusByCode = map[ErrorCode]int{
	CodeInvalidParam:     http.StatusBadRequest,
	CodeValidationFailed: http.StatusBadRequest,
	CodeNovelNotFound:    http.StatusNotFound,
	CodeChapterNotFound:  http.StatusNotFound,
	CodeJobNotFound:      http.StatusNotFound,
	CodeConflict:         http.StatusConflict,
	CodeTooManyRequests:  http.StatusTooManyRequests,
	CodeGenerationFailed: http.StatusBadGateway,
}

func statusOf(code ErrorCode) int {
	if s, ok := statusByCode[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// AppError 携带错误码的业务错误
// 预定义实例是共享的，需要补充信息时用 WithDetail / WithError 取副本
type AppError struct {
	Code       ErrorCode
	Message    string
	Detail     string
	HTTPStatus int
	Err        error
}

func (e *AppError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AppError) Unwrap() error { return e.Err }

// Is 错误码与消息都相同即视为同一错误，Detail 不参与比较
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && e.Code == t.Code && e.Message == t.Message
}

func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

func (e *AppError) WithError(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// New 按错误码推导 HTTP 状态
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: statusOf(code)}
}

var (
	ErrInvalidParam    = New(CodeInvalidParam, "invalid parameter")
	ErrTooManyRequests = New(CodeTooManyRequests, "too many requests")
	ErrInternalError   = New(CodeInternalError, "internal server error")

	ErrNovelNotFound   = New(CodeNovelNotFound, "novel not found")
	ErrChapterNotFound = New(CodeChapterNotFound, "chapter not found")
	ErrJobNotFound     = New(CodeJobNotFound, "job not found")

	ErrGenerationFailed = New(CodeGenerationFailed, "story generation failed")
	ErrValidationFailed = New(CodeValidationFailed, "validation failed")

	ErrLastChapter    = New(CodeValidationFailed, "至少保留一个章节。")
	ErrEmptySelection = New(CodeValidationFailed, "no chapters selected")
	ErrEmptyOutline   = New(CodeValidationFailed, "chapter outline is empty")
	ErrJobRunning     = New(CodeConflict, "a generation job is already running for this novel")
	ErrChapterBusy    = New(CodeConflict, "chapter content is already being generated")
)

// IsAppError 错误链中是否有 AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError 取错误链中的 AppError，没有时包成 1000
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return New(CodeUnknown, "unknown error").WithError(err)
}
