// Package response 提供统一的 API 响应格式
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/incentive-backend/internal/common/errors"
)

// RequestIDKey 请求 ID 在 gin.Context 中的键
const RequestIDKey = "request_id"

// CodeOK 成功响应码
const CodeOK = 0

// Response API 统一响应结构
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// PageData 分页数据
type PageData struct {
	List       interface{} `json:"list"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

func write(c *gin.Context, status, code int, message string, data interface{}) {
	c.JSON(status, Response{
		Code:      code,
		Message:   message,
		Data:      data,
		RequestID: c.GetString(RequestIDKey),
	})
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	write(c, http.StatusOK, CodeOK, "success", data)
}

// SuccessWithMessage 成功响应（带消息）
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	write(c, http.StatusOK, CodeOK, message, data)
}

// SuccessPage 分页成功响应
func SuccessPage(c *gin.Context, list interface{}, total int64, page, pageSize int) {
	pages := 0
	if pageSize > 0 {
		pages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	write(c, http.StatusOK, CodeOK, "success", PageData{
		List:       list,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: pages,
	})
}

// Fail 错误响应，status 为 HTTP 状态码，code 为业务错误码
func Fail(c *gin.Context, status, code int, message string, details interface{}) {
	write(c, status, code, message, details)
}

// BadRequest 请求参数错误
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = errors.ErrInvalidParams.Message
	}
	write(c, http.StatusBadRequest, errors.ErrInvalidParams.Code, message, nil)
}

// InternalError 服务器内部错误
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = errors.ErrInternalError.Message
	}
	write(c, http.StatusInternalServerError, errors.ErrInternalError.Code, message, nil)
}

// TooManyRequests 请求过于频繁
func TooManyRequests(c *gin.Context, message string) {
	if message == "" {
		message = errors.ErrRateLimitExceed.Message
	}
	write(c, http.StatusTooManyRequests, errors.ErrRateLimitExceed.Code, message, nil)
}

// Abort 写入错误响应并终止后续处理
func Abort(c *gin.Context, status int, appErr *errors.AppError) {
	write(c, status, appErr.Code, appErr.Message, nil)
	c.Abort()
}
