// Package rules 提供销售明细与卡片要求的条件匹配
package rules

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dumeirei/incentive-backend/internal/common/errors"
	"github.com/dumeirei/incentive-backend/internal/common/validation"
	"github.com/dumeirei/incentive-backend/internal/models"
)

// Fact 扁平化的销售明细
type Fact struct {
	ProductName string          `json:"product_name" yaml:"product_name"`
	ProductCode string          `json:"product_code" yaml:"product_code"`
	Category    string          `json:"category" yaml:"category"`
	Value       decimal.Decimal `json:"value" yaml:"value"`
}

// text 取文本字段值
func (f Fact) text(field models.ConditionField) (string, error) {
	switch field {
	case models.FieldNomeProduto:
		return f.ProductName, nil
	case models.FieldCodigoProduto:
		return f.ProductCode, nil
	case models.FieldCategoriaProduto:
		return f.Category, nil
	default:
		return "", fmt.Errorf("字段 %s 不是文本字段", field)
	}
}

// Unsupported 构造条件配置错误
func Unsupported(cond models.Condition) error {
	return errors.ErrUnsupportedCondition.WithMessage(
		fmt.Sprintf("不支持的条件配置: %s %s", cond.Field, cond.Operator))
}

// Evaluate 判断单个条件是否命中
// 配置错误（未知字段、未知运算符或不支持的组合）返回 ErrUnsupportedCondition，与未命中区分
func Evaluate(cond models.Condition, fact Fact) (bool, error) {
	if !cond.Operator.Supports(cond.Field) {
		return false, Unsupported(cond)
	}
	if cond.Field.IsNumeric() {
		return evaluateNumeric(cond, fact.Value)
	}

	actual, err := fact.text(cond.Field)
	if err != nil {
		return false, Unsupported(cond)
	}
	return evaluateText(cond, actual)
}

// evaluateText 文本比较，忽略大小写与首尾空格
func evaluateText(cond models.Condition, actual string) (bool, error) {
	a := strings.ToLower(strings.TrimSpace(actual))
	ref := strings.ToLower(strings.TrimSpace(cond.Value))

	switch cond.Operator {
	case models.OperatorContem:
		return strings.Contains(a, ref), nil
	case models.OperatorNaoContem:
		return !strings.Contains(a, ref), nil
	case models.OperatorIgualA:
		return a == ref, nil
	case models.OperatorNaoIgualA:
		return a != ref, nil
	default:
		return false, Unsupported(cond)
	}
}

// evaluateNumeric 数值比较，参考值无法解析时视为未命中
func evaluateNumeric(cond models.Condition, actual decimal.Decimal) (bool, error) {
	ref, err := validation.ParseDecimal(cond.Value)
	if err != nil {
		return false, nil
	}

	switch cond.Operator {
	case models.OperatorMaiorQue:
		return actual.GreaterThan(ref), nil
	case models.OperatorMenorQue:
		return actual.LessThan(ref), nil
	case models.OperatorIgualA:
		return actual.Equal(ref), nil
	case models.OperatorNaoIgualA:
		return !actual.Equal(ref), nil
	default:
		return false, Unsupported(cond)
	}
}
