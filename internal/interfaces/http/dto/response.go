// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "wenshu-novel-api/pkg/errors"
)

// traceIDKey Trace 中间件写入 gin 上下文的键
const traceIDKey = "trace_id"

// Response 统一响应信封，code 与 HTTP 状态码一致
type Response[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// ErrorDetail 业务错误码与补充说明
type ErrorDetail struct {
	ErrorCode string `json:"error_code,omitempty"`
	Details   string `json:"details,omitempty"`
}

// ErrorResponse 错误信封
type ErrorResponse struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Error   *ErrorDetail `json:"error,omitempty"`
	TraceID string       `json:"trace_id,omitempty"`
}

func respond[T any](c *gin.Context, status int, message string, data T) {
	c.JSON(status, Response[T]{
		Code:    status,
		Message: message,
		Data:    data,
		TraceID: c.GetString(traceIDKey),
	})
}

// Success 200
func Success[T any](c *gin.Context, data T) {
	respond(c, http.StatusOK, "success", data)
}

// Created 201，用于新建作品与追加章节
func Created[T any](c *gin.Context, data T) {
	respond(c, http.StatusCreated, "created", data)
}

// Accepted 202，后台任务已受理
func Accepted[T any](c *gin.Context, data T) {
	respond(c, http.StatusAccepted, "accepted", data)
}

// NoContent 204
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// NewErrorResponse 把 AppError 转成错误信封
func NewErrorResponse(c *gin.Context, appErr *apperrors.AppError) ErrorResponse {
	return ErrorResponse{
		Code:    appErr.HTTPStatus,
		Message: appErr.Message,
		Error: &ErrorDetail{
			ErrorCode: string(appErr.Code),
			Details:   appErr.Detail,
		},
		TraceID: c.GetString(traceIDKey),
	}
}

// Fail 写出错误响应，调用方继续执行后续中间件
func Fail(c *gin.Context, appErr *apperrors.AppError) {
	c.JSON(appErr.HTTPStatus, NewErrorResponse(c, appErr))
}

// Abort 写出错误响应并中断处理链
func Abort(c *gin.Context, appErr *apperrors.AppError) {
	c.AbortWithStatusJSON(appErr.HTTPStatus, NewErrorResponse(c, appErr))
}

// BadRequest 请求体无法解析，message 原样返回给调用方
func BadRequest(c *gin.Context, message string) {
	appErr := *apperrors.ErrInvalidParam
	appErr.Message = message
	Fail(c, &appErr)
}
