// Package handler 汇集各业务 Handler 共用的错误响应与参数解析
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dumeirei/incentive-backend/internal/common/errors"
	"github.com/dumeirei/incentive-backend/internal/common/logger"
	"github.com/dumeirei/incentive-backend/internal/common/response"
	"github.com/dumeirei/incentive-backend/internal/common/utils"
)

// dateLayout 查询参数中的日期格式
const dateLayout = "2006-01-02"

// dateTimeLayouts 按顺序尝试，不带时区的按业务时区解析
var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// HandleError 写出错误响应并返回 true；err 为 nil 时返回 false
// 非业务错误统一返回内部错误，原始信息只写日志
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	if !errors.IsAppError(err) {
		logger.Error("请求处理失败", zap.String("path", c.FullPath()), logger.Err(err))
		response.InternalError(c, "")
		return true
	}
	appErr := errors.GetAppError(err)
	status := HTTPStatus(appErr)
	if status >= http.StatusInternalServerError && appErr.Err != nil {
		logger.Error("请求处理失败", zap.String("path", c.FullPath()), logger.Err(appErr.Err))
	}
	response.Fail(c, status, appErr.Code, appErr.Message, appErr.Details)
	return true
}

// HTTPStatus 业务错误码对应的 HTTP 状态码
func HTTPStatus(appErr *errors.AppError) int {
	switch appErr.Code {
	case errors.ErrNotFound.Code,
		errors.ErrUserNotFound.Code, errors.ErrOpticianNotFound.Code,
		errors.ErrCampaignNotFound.Code, errors.ErrCardNotFound.Code,
		errors.ErrProgressNotFound.Code, errors.ErrEventNotFound.Code,
		errors.ErrPrizeNotFound.Code, errors.ErrRedemptionNotFound.Code:
		return http.StatusNotFound
	case errors.ErrRateLimitExceed.Code:
		return http.StatusTooManyRequests
	case errors.ErrProgressConflict.Code, errors.ErrProgressLocked.Code, errors.ErrEventLocked.Code:
		return http.StatusConflict
	case errors.ErrUnknown.Code, errors.ErrDatabaseError.Code, errors.ErrCacheError.Code,
		errors.ErrInternalError.Code, errors.ErrExportFailed.Code:
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

// MustSucceed 有错误时写错误响应，否则写 data
func MustSucceed(c *gin.Context, err error, data interface{}) {
	if !HandleError(c, err) {
		response.Success(c, data)
	}
}

// MustSucceedPage 分页版本的 MustSucceed
func MustSucceedPage(c *gin.Context, err error, list interface{}, total int64, page, pageSize int) {
	if !HandleError(c, err) {
		response.SuccessPage(c, list, total, page, pageSize)
	}
}

// ParseID 解析路径参数 id，失败时已写出 400
func ParseID(c *gin.Context, resource string) (int64, bool) {
	return ParseParamID(c, "id", resource)
}

// ParseParamID 解析正整数路径参数，resource 用于错误消息
func ParseParamID(c *gin.Context, param, resource string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "无效的"+resource+"ID")
		return 0, false
	}
	return id, true
}

// ParseParamInt 解析正整数路径参数，如卡片序号
func ParseParamInt(c *gin.Context, param, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(param))
	if err != nil || v <= 0 {
		response.BadRequest(c, "无效的"+name)
		return 0, false
	}
	return v, true
}

// ParseQueryID 可选的 ID 查询参数，缺省返回 nil
func ParseQueryID(c *gin.Context, param, resource string) (*int64, bool) {
	raw := c.Query(param)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		response.BadRequest(c, "无效的"+resource+"ID")
		return nil, false
	}
	return &id, true
}

// ParseDateTime 依次尝试支持的格式，loc 为 nil 时按 UTC
func ParseDateTime(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.ErrInvalidParams.WithMessage("时间格式错误")
}

// ParseQueryTime 解析时间查询参数，缺省返回 fallback
func ParseQueryTime(c *gin.Context, param string, loc *time.Location, fallback time.Time) (time.Time, bool) {
	raw := c.Query(param)
	if raw == "" {
		return fallback, true
	}
	t, err := ParseDateTime(raw, loc)
	if err != nil {
		response.BadRequest(c, "无效的时间格式")
		return time.Time{}, false
	}
	return t, true
}

// ParseQueryDateRange 解析 start_date 与 end_date，结束日期取当天 23:59:59
func ParseQueryDateRange(c *gin.Context) (start, end *time.Time, ok bool) {
	if raw := c.Query("start_date"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			response.BadRequest(c, "无效的开始日期格式")
			return nil, nil, false
		}
		start = &t
	}
	if raw := c.Query("end_date"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			response.BadRequest(c, "无效的结束日期格式")
			return nil, nil, false
		}
		t = t.AddDate(0, 0, 1).Add(-time.Second)
		end = &t
	}
	return start, end, true
}

// BindPagination 读取 page 与 page_size 并规范化
func BindPagination(c *gin.Context) utils.Pagination {
	p := utils.Pagination{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", utils.DefaultPageSize),
	}
	p.Normalize()
	return p
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}
