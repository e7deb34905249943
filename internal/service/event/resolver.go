// Package event 管理特殊活动（奖励倍数时段）
package event

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dumeirei/incentive-backend/internal/models"
)

// One 无特殊活动时的倍数
var One = decimal.NewFromInt(1)

// ResolveMultiplier 计算 at 时刻适用的奖励倍数
// 仅考虑启用中且 StartAt <= at <= EndAt 的活动；没有返回 1，多个取最大值（不累加）
func ResolveMultiplier(events []models.SpecialEvent, at time.Time) decimal.Decimal {
	m, _ := Resolve(events, at)
	return m
}

// Resolve 同 ResolveMultiplier，并返回提供该倍数的活动
func Resolve(events []models.SpecialEvent, at time.Time) (decimal.Decimal, *models.SpecialEvent) {
	best := One
	var source *models.SpecialEvent
	for i := range events {
		e := &events[i]
		if !e.Active || !e.Covers(at) {
			continue
		}
		if source == nil || e.Multiplier.GreaterThan(best) {
			best = e.Multiplier
			source = e
		}
	}
	return best, source
}

// Overlaps 两个时段是否重叠，按左闭右开区间判断
// 首尾相接（a.EndAt == b.StartAt）不算重叠
func Overlaps(a, b *models.SpecialEvent) bool {
	return a.StartAt.Before(b.EndAt) && b.StartAt.Before(a.EndAt)
}

// FindOverlap 返回与 candidate 重叠的第一个启用中的活动
// candidate 自身（相同 ID）与已暂停的活动不参与比较
func FindOverlap(candidate *models.SpecialEvent, existing []models.SpecialEvent) *models.SpecialEvent {
	if !candidate.Active {
		return nil
	}
	for i := range existing {
		e := &existing[i]
		if !e.Active || (candidate.ID != 0 && e.ID == candidate.ID) {
			continue
		}
		if Overlaps(candidate, e) {
			return e
		}
	}
	return nil
}
