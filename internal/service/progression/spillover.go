package progression

import (
	"github.com/dumeirei/incentive-backend/internal/common/errors"
	"github.com/dumeirei/incentive-backend/internal/models"
	"github.com/dumeirei/incentive-backend/internal/service/rules"
)

// Credit 某张卡片接收的数量
type Credit struct {
	Sequence int `json:"sequence"`
	Ordem    int `json:"ordem"`
	Units    int `json:"units"`
}

// Allocation 一个 ordem 组的分配结果
type Allocation struct {
	Ordem     int      `json:"ordem"`
	Matched   bool     `json:"matched"`
	Credits   []Credit `json:"credits,omitempty"`
	Discarded int      `json:"discarded"`
}

// Allocated 实际计入的数量
func (a Allocation) Allocated() int {
	n := 0
	for _, c := range a.Credits {
		n += c.Units
	}
	return n
}

// Allocate 将 units 个匹配单位分配到 ordem 组内的卡片
// 按序号升序找到第一个未满的要求作为唯一候选：候选匹配则吸收 min(剩余容量, units)，
// 余量继续流向下一张卡片；候选不匹配则余量丢弃，不跳过候选去填后面的卡片。
// 超过最后一张卡片（MANUAL）或上限（AUTO_REPLICANTE）的余量同样丢弃。
func (t *Track) Allocate(ordem, units int, match rules.MatchFunc) (Allocation, error) {
	alloc := Allocation{Ordem: ordem}
	if units <= 0 || t.Exhausted {
		return alloc, nil
	}

	remaining := units
	var lastSeen *models.Requirement
	for seq := 1; remaining > 0 && t.Plan.withinRange(seq); seq++ {
		req, ok := t.Plan.Requirement(seq, ordem)
		if !ok {
			if t.Plan.Mode == models.CardModeAutoReplicante {
				break
			}
			// MANUAL 卡片可以不包含该 ordem
			continue
		}
		if req.Quantity < 1 {
			return alloc, errors.ErrDefinitionInvalid.WithMessage("要求的目标数量必须大于0")
		}
		lastSeen = &req

		acc := t.Accumulated(seq, ordem)
		if acc >= req.Quantity {
			continue
		}

		ok, err := match(req)
		if err != nil {
			return Allocation{Ordem: ordem}, err
		}
		if !ok {
			break
		}

		alloc.Matched = true
		take := req.Quantity - acc
		if remaining < take {
			take = remaining
		}
		t.progress[slot{seq, ordem}] = acc + take
		alloc.Credits = append(alloc.Credits, Credit{Sequence: seq, Ordem: ordem, Units: take})
		remaining -= take
	}

	if !alloc.Matched {
		// 没有可接收的卡片时，仅当明细满足该组最后一个要求才记为丢弃
		if len(alloc.Credits) == 0 && lastSeen != nil && t.groupFull(ordem) {
			ok, err := match(*lastSeen)
			if err != nil {
				return Allocation{Ordem: ordem}, err
			}
			if ok {
				alloc.Matched = true
				alloc.Discarded = units
			}
		}
		return alloc, nil
	}

	alloc.Discarded = remaining
	return alloc, nil
}

// groupFull ordem 组在计划范围内是否已全部达到目标
func (t *Track) groupFull(ordem int) bool {
	last := t.Plan.LastSequence()
	if last == 0 {
		return false
	}
	for seq := 1; seq <= last; seq++ {
		req, ok := t.Plan.Requirement(seq, ordem)
		if !ok {
			continue
		}
		if t.Accumulated(seq, ordem) < req.Quantity {
			return false
		}
	}
	return true
}

// Apply 对所有 ordem 组分别分配同一条销售明细
// 任一组出现配置错误时回滚本次全部分配
func (t *Track) Apply(units int, match rules.MatchFunc) ([]Allocation, error) {
	before := make(map[slot]int, len(t.progress))
	for k, v := range t.progress {
		before[k] = v
	}

	allocations := make([]Allocation, 0, len(t.Plan.Ordens()))
	for _, ordem := range t.Plan.Ordens() {
		alloc, err := t.Allocate(ordem, units, match)
		if err != nil {
			t.progress = before
			return nil, err
		}
		allocations = append(allocations, alloc)
	}
	return allocations, nil
}
