// Package progression 实现卡片进度推进、溢出分配与奖励计算
package progression

import (
	"sort"

	"github.com/dumeirei/incentive-backend/internal/models"
)

// Plan 活动的卡片计划，由活动定义推导，不含销售员状态
type Plan struct {
	Mode      models.CardMode
	Increment models.IncrementType
	Factor    int
	Ceiling   int // 0 表示不设上限（仅 AUTO_REPLICANTE）

	cards  []models.Card
	bySlot map[slot]models.Requirement
	ordens []int
}

// slot 卡片序号与 ordem 组成的定位键
type slot struct {
	seq   int
	ordem int
}

// NewPlan 由活动定义构建卡片计划
// AUTO_REPLICANTE 只使用序号为 1 的基础卡片
func NewPlan(c *models.Campaign) *Plan {
	p := &Plan{
		Mode:      c.CardMode,
		Increment: c.IncrementType,
		bySlot:    make(map[slot]models.Requirement),
	}
	if c.IncrementFactor != nil {
		p.Factor = *c.IncrementFactor
	}
	if c.CardCeiling != nil {
		p.Ceiling = *c.CardCeiling
	}

	cards := make([]models.Card, len(c.Cards))
	copy(cards, c.Cards)
	sort.Slice(cards, func(i, j int) bool { return cards[i].Sequence < cards[j].Sequence })
	if p.Mode == models.CardModeAutoReplicante && len(cards) > 1 {
		cards = cards[:1]
	}
	p.cards = cards

	seen := make(map[int]struct{})
	for _, card := range cards {
		for _, req := range card.Requirements {
			p.bySlot[slot{card.Sequence, req.Ordem}] = req
			if _, ok := seen[req.Ordem]; !ok {
				seen[req.Ordem] = struct{}{}
				p.ordens = append(p.ordens, req.Ordem)
			}
		}
	}
	sort.Ints(p.ordens)
	return p
}

// Ordens 计划中出现的全部 ordem，升序
func (p *Plan) Ordens() []int {
	return p.ordens
}

// LastSequence 最后一张卡片的序号，0 表示无上限
func (p *Plan) LastSequence() int {
	switch p.Mode {
	case models.CardModeManual:
		return len(p.cards)
	case models.CardModeAutoReplicante:
		return p.Ceiling
	default:
		return len(p.cards)
	}
}

// withinRange 序号是否在计划范围内
func (p *Plan) withinRange(seq int) bool {
	if seq < 1 {
		return false
	}
	last := p.LastSequence()
	return last == 0 || seq <= last
}

// baseSequence AUTO_REPLICANTE 派生卡片所依据的存储卡片序号
func (p *Plan) baseSequence(seq int) int {
	if p.Mode == models.CardModeAutoReplicante {
		return 1
	}
	return seq
}

// TargetFor 指定卡片指定 ordem 的目标数量
// MANUAL 取存储值；AUTO_REPLICANTE 按递增公式 base + (N-1)*factor 计算
func (p *Plan) TargetFor(seq, ordem int) (int, bool) {
	req, ok := p.Requirement(seq, ordem)
	if !ok {
		return 0, false
	}
	return req.Quantity, true
}

// Requirement 指定卡片指定 ordem 的要求，数量已换算为该卡片的目标
func (p *Plan) Requirement(seq, ordem int) (models.Requirement, bool) {
	if !p.withinRange(seq) {
		return models.Requirement{}, false
	}
	req, ok := p.bySlot[slot{p.baseSequence(seq), ordem}]
	if !ok {
		return models.Requirement{}, false
	}
	if p.Mode == models.CardModeAutoReplicante {
		req.Quantity = p.autoTarget(req.Quantity, seq)
		if seq > 1 {
			req.ID = 0
			req.CardID = 0
		}
	}
	return req, true
}

// autoTarget 自动复制卡片的目标数量
func (p *Plan) autoTarget(base, seq int) int {
	switch p.Increment {
	case models.IncrementMultiplicador:
		return base + (seq-1)*p.Factor
	default:
		return base
	}
}

// Card 指定序号的卡片；AUTO_REPLICANTE 按需派生，不落库
func (p *Plan) Card(seq int) (models.Card, bool) {
	if !p.withinRange(seq) {
		return models.Card{}, false
	}
	idx := p.baseSequence(seq) - 1
	if idx < 0 || idx >= len(p.cards) {
		return models.Card{}, false
	}

	src := p.cards[idx]
	card := models.Card{
		ID:          src.ID,
		CampaignID:  src.CampaignID,
		Sequence:    seq,
		Description: src.Description,
	}
	if seq != src.Sequence {
		card.ID = 0
	}
	for _, r := range src.Requirements {
		req, _ := p.Requirement(seq, r.Ordem)
		card.Requirements = append(card.Requirements, req)
	}
	return card, true
}
