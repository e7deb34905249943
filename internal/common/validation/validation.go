// Package validation 提供字段级校验结果的收集
// 所有失败项一次性收集，由调用方统一返回
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/dumeirei/incentive-backend/internal/common/errors"
)

// FieldError 单个字段的校验失败
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error 实现 error 接口
func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Result 校验结果
type Result struct {
	Errors []FieldError `json:"errors"`
}

// Add 追加一条失败
func (r *Result) Add(field, message string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: message})
}

// Addf 追加一条格式化的失败
func (r *Result) Addf(field, format string, args ...interface{}) {
	r.Add(field, fmt.Sprintf(format, args...))
}

// Merge 合并另一个结果
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
}

// Valid 是否全部通过
func (r *Result) Valid() bool {
	return len(r.Errors) == 0
}

// Has 指定字段是否有失败
func (r *Result) Has(field string) bool {
	for _, e := range r.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}

// Fields 失败字段列表
func (r *Result) Fields() []string {
	fields := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		fields = append(fields, e.Field)
	}
	return fields
}

// Err 转为 AppError，全部通过时返回 nil
func (r *Result) Err() error {
	return r.ErrAs(errors.ErrDefinitionInvalid)
}

// ErrAs 以指定错误码转为 AppError
func (r *Result) ErrAs(base *errors.AppError) error {
	if r.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return base.WithMessage(base.Message + ": " + strings.Join(msgs, "; ")).WithDetails(r.Errors)
}

// Clock 校验使用的参考时间与时区
type Clock struct {
	Now      time.Time
	Location *time.Location
}

// NewClock 创建参考时钟，loc 为空时使用 UTC
func NewClock(now time.Time, loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{Now: now.In(loc), Location: loc}
}

// Path 拼接字段路径
func Path(parent, field string) string {
	if parent == "" {
		return field
	}
	return parent + "." + field
}

// Index 拼接数组下标路径
func Index(parent string, i int) string {
	return fmt.Sprintf("%s[%d]", parent, i)
}

// RuneLength 检查字符串长度（按字符计）
func RuneLength(r *Result, field, value string, min, max int) {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	switch {
	case min > 0 && n == 0:
		r.Add(field, "不能为空")
	case n < min:
		r.Addf(field, "长度不能少于%d个字符", min)
	case max > 0 && n > max:
		r.Addf(field, "长度不能超过%d个字符", max)
	}
}

// IntRange 检查整数范围
func IntRange(r *Result, field string, value, min, max int) {
	if value < min || value > max {
		r.Addf(field, "取值需在%d到%d之间", min, max)
	}
}

// DecimalRange 检查小数范围（闭区间）
func DecimalRange(r *Result, field string, value, min, max decimal.Decimal) {
	if value.LessThan(min) || value.GreaterThan(max) {
		r.Addf(field, "取值需在%s到%s之间", min.String(), max.String())
	}
}

// MaxPlaces 检查小数位数
func MaxPlaces(r *Result, field string, value decimal.Decimal, places int32) {
	if !value.Equal(value.Truncate(places)) {
		r.Addf(field, "最多保留%d位小数", places)
	}
}

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// HexColor 检查 #RRGGBB 颜色
func HexColor(r *Result, field, value string) {
	if !hexColorPattern.MatchString(value) {
		r.Add(field, "颜色格式需为 #RRGGBB")
	}
}

// ParseDecimal 解析小数，兼容逗号作为小数点
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return decimal.NewFromString(s)
}
