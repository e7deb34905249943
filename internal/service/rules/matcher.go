package rules

import (
	"fmt"

	"github.com/dumeirei/incentive-backend/internal/common/errors"
	"github.com/dumeirei/incentive-backend/internal/models"
)

// Matches 判断销售明细是否满足要求的全部条件
// 遇到第一个未命中或配置错误即返回
func Matches(req models.Requirement, fact Fact) (bool, error) {
	if len(req.Conditions) == 0 {
		return false, errors.ErrUnsupportedCondition.WithMessage(
			fmt.Sprintf("要求 %q 未配置条件", req.Description))
	}
	for _, cond := range req.Conditions {
		ok, err := Evaluate(cond, fact)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// MatchFunc 要求匹配函数，进度引擎通过它判断候选卡片是否接收数量
type MatchFunc func(req models.Requirement) (bool, error)

// Matcher 将销售明细绑定为 MatchFunc
func Matcher(fact Fact) MatchFunc {
	return func(req models.Requirement) (bool, error) {
		return Matches(req, fact)
	}
}
