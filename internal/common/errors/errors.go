// Package errors 定义业务错误码和错误处理
package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError 带业务错误码的错误，派生方法均返回副本
type AppError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

// New 创建业务错误
func New(code int, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%d] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，派生出的错误与原错误相等
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && e.Code == t.Code
}

func (e *AppError) clone() *AppError {
	c := *e
	return &c
}

// WithMessage 替换错误消息
func (e *AppError) WithMessage(message string) *AppError {
	c := e.clone()
	c.Message = message
	return c
}

// WithError 附加底层错误
func (e *AppError) WithError(err error) *AppError {
	c := e.clone()
	c.Err = err
	return c
}

// WithDetails 附加错误详情，如字段校验失败列表
func (e *AppError) WithDetails(details interface{}) *AppError {
	c := e.clone()
	c.Details = details
	return c
}

// 通用 (1000-1999)
var (
	ErrUnknown         = New(1000, "未知错误")
	ErrInvalidParams   = New(1001, "参数错误")
	ErrNotFound        = New(1002, "资源不存在")
	ErrDatabaseError   = New(1004, "数据库错误")
	ErrCacheError      = New(1005, "缓存错误")
	ErrInternalError   = New(1006, "内部错误")
	ErrRateLimitExceed = New(1008, "请求过于频繁")
	ErrExportFailed    = New(1011, "导出失败")
)

// 销售员与门店 (3000-3999)
var (
	ErrUserNotFound        = New(3000, "用户不存在")
	ErrUserNotSeller       = New(3001, "用户不是销售员")
	ErrOpticianNotFound    = New(3002, "门店不存在")
	ErrBalanceInsufficient = New(3006, "金币余额不足")
	ErrBalanceMismatch     = New(3007, "余额与流水不一致")
)

// 活动定义 (9000-9999)
var (
	ErrCampaignNotFound     = New(9006, "活动不存在")
	ErrDefinitionInvalid    = New(9010, "活动定义校验失败")
	ErrCardNotFound         = New(9012, "卡片不存在")
	ErrUnsupportedCondition = New(9013, "不支持的条件配置")
)

// 进度 (10000-10999)
var (
	ErrProgressConflict = New(10000, "进度已被并发修改，请重试")
	ErrProgressLocked   = New(10001, "进度正在处理中，请稍后重试")
	ErrProgressNotFound = New(10002, "进度不存在")
)

// 特殊活动 (11000-11999)
var (
	ErrEventNotFound = New(11000, "特殊活动不存在")
	ErrEventInvalid  = New(11001, "特殊活动校验失败")
	ErrEventOverlap  = New(11002, "特殊活动时间与其他进行中的活动重叠")
	ErrEventLocked   = New(11003, "特殊活动正在修改中，请稍后重试")
)

// 奖品兑换 (12000-12999)
var (
	ErrPrizeNotFound      = New(12000, "奖品不存在")
	ErrPrizeOutOfStock    = New(12001, "奖品库存不足")
	ErrPrizeDisabled      = New(12002, "奖品已下架")
	ErrRedemptionNotFound = New(12003, "兑换记录不存在")
	ErrRedemptionStatus   = New(12004, "兑换状态不允许该操作")
)

// IsAppError 错误链中是否有业务错误
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetAppError 取出错误链中的业务错误，没有时包装为 ErrUnknown
func GetAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return ErrUnknown.WithError(err)
}
