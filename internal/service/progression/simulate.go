package progression

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dumeirei/incentive-backend/internal/common/errors"
	"github.com/dumeirei/incentive-backend/internal/models"
	"github.com/dumeirei/incentive-backend/internal/service/event"
	"github.com/dumeirei/incentive-backend/internal/service/rules"
)

// SimulatedSale 离线模拟使用的销售明细
type SimulatedSale struct {
	ExternalID  string          `json:"external_id" yaml:"external_id"`
	ProductName string          `json:"product_name" yaml:"product_name"`
	ProductCode string          `json:"product_code" yaml:"product_code"`
	Category    string          `json:"category" yaml:"category"`
	Value       decimal.Decimal `json:"value" yaml:"value"`
	Quantity    int             `json:"quantity" yaml:"quantity"`
	SoldAt      time.Time       `json:"sold_at" yaml:"sold_at"`
}

// SimulatedLine 单条明细的模拟结果
type SimulatedLine struct {
	ExternalID     string             `json:"external_id"`
	Outcome        models.SaleOutcome `json:"outcome"`
	SkipReason     string             `json:"skip_reason,omitempty"`
	Duplicate      bool               `json:"duplicate,omitempty"`
	UnitsAllocated int                `json:"units_allocated"`
	UnitsDiscarded int                `json:"units_discarded"`
	Completions    []CompletedCard    `json:"completions,omitempty"`
}

// Simulation 离线模拟结果
type Simulation struct {
	Lines      []SimulatedLine `json:"lines"`
	Coins      int64           `json:"coins"`
	Real       decimal.Decimal `json:"real"`
	Commission decimal.Decimal `json:"commission"`
	Snapshot   Snapshot        `json:"snapshot"`
}

// Simulate 在内存中按顺序处理一组销售明细，不读写数据库
// 与在线处理使用同一套分配、推进与奖励规则；不校验销售员角色与门店
func Simulate(c *models.Campaign, events []models.SpecialEvent, sales []SimulatedSale) (*Simulation, error) {
	track := NewTrack(NewPlan(c))
	sim := &Simulation{Real: decimal.Zero, Commission: decimal.Zero}
	seen := make(map[string]int, len(sales))

	for i, sale := range sales {
		id := strings.TrimSpace(sale.ExternalID)
		if id == "" {
			id = fmt.Sprintf("#%d", i+1)
		}
		if sale.Quantity < 1 {
			return nil, errors.ErrInvalidParams.WithMessage(fmt.Sprintf("明细 %s 数量必须大于0", id))
		}
		if sale.Quantity > MaxSaleQuantity {
			return nil, errors.ErrInvalidParams.WithMessage(fmt.Sprintf("明细 %s 数量不能超过%d", id, MaxSaleQuantity))
		}
		if prev, ok := seen[id]; ok {
			dup := sim.Lines[prev]
			sim.Lines = append(sim.Lines, SimulatedLine{
				ExternalID: id, Outcome: dup.Outcome, SkipReason: dup.SkipReason, Duplicate: true,
			})
			continue
		}
		seen[id] = len(sim.Lines)

		line := SimulatedLine{ExternalID: id, Outcome: models.SaleSkipped}
		switch {
		case !c.IsEnabled():
			line.SkipReason = models.SkipCampaignDisabled
		case !c.InPeriod(sale.SoldAt):
			line.SkipReason = models.SkipOutOfPeriod
		case track.Exhausted:
			line.SkipReason = models.SkipTrackExhausted
		}
		if line.SkipReason != "" {
			sim.Lines = append(sim.Lines, line)
			continue
		}

		fact := rules.Fact{
			ProductName: sale.ProductName,
			ProductCode: sale.ProductCode,
			Category:    sale.Category,
			Value:       sale.Value,
		}
		allocations, err := track.Apply(sale.Quantity, rules.Matcher(fact))
		if err != nil {
			if !isConfigError(err) {
				return nil, err
			}
			line.SkipReason = models.SkipConfigError
			sim.Lines = append(sim.Lines, line)
			continue
		}

		line.Outcome = models.SaleProcessed
		for _, a := range allocations {
			line.UnitsAllocated += a.Allocated()
			line.UnitsDiscarded += a.Discarded
		}
		for _, done := range track.Advance(sale.SoldAt) {
			multiplier, source := event.Resolve(events, done.CompletedAt)
			card := CompletedCard{
				Sequence:    done.Sequence,
				Reward:      ComputeReward(c, multiplier),
				CompletedAt: done.CompletedAt,
			}
			if source != nil && source.ID != 0 {
				eventID := source.ID
				card.EventID = &eventID
			}
			line.Completions = append(line.Completions, card)
			sim.Coins += card.Reward.Coins
			sim.Real = sim.Real.Add(card.Reward.Real)
			sim.Commission = sim.Commission.Add(card.Reward.Commission)
		}
		sim.Lines = append(sim.Lines, line)
	}

	sim.Snapshot = track.Snapshot()
	return sim, nil
}
