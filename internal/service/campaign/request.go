// Package campaign 管理激励活动定义（活动 → 卡片 → 要求 → 条件）
package campaign

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dumeirei/incentive-backend/internal/models"
	"github.com/dumeirei/incentive-backend/internal/service/event"
)

// ConditionInput 条件定义
type ConditionInput struct {
	Field    models.ConditionField    `json:"field" yaml:"field"`
	Operator models.ConditionOperator `json:"operator" yaml:"operator"`
	Value    string                   `json:"value" yaml:"value"`
}

// RequirementInput 要求定义
type RequirementInput struct {
	Description string           `json:"description" yaml:"description"`
	Quantity    int              `json:"quantity" yaml:"quantity"`
	Unit        models.UnitKind  `json:"unit" yaml:"unit"`
	Ordem       int              `json:"ordem" yaml:"ordem"`
	Conditions  []ConditionInput `json:"conditions" yaml:"conditions"`
}

// CardInput 卡片定义
type CardInput struct {
	Sequence     int                `json:"sequence" yaml:"sequence"`
	Description  string             `json:"description" yaml:"description"`
	Requirements []RequirementInput `json:"requirements" yaml:"requirements"`
}

// CreateRequest 创建活动请求，包含完整的卡片树与特殊活动
type CreateRequest struct {
	Title           string               `json:"title" yaml:"title" binding:"required"`
	Description     string               `json:"description" yaml:"description"`
	StartAt         time.Time            `json:"start_at" yaml:"start_at"`
	EndAt           time.Time            `json:"end_at" yaml:"end_at"`
	CoinReward      int64                `json:"coin_reward" yaml:"coin_reward"`
	RealReward      decimal.Decimal      `json:"real_reward" yaml:"real_reward"`
	CommissionRate  decimal.Decimal      `json:"commission_rate" yaml:"commission_rate"`
	AllOpticians    bool                 `json:"all_opticians" yaml:"all_opticians"`
	OpticianIDs     []int64              `json:"optician_ids,omitempty" yaml:"optician_ids"`
	CardMode        models.CardMode      `json:"card_mode" yaml:"card_mode"`
	IncrementType   models.IncrementType `json:"increment_type" yaml:"increment_type"`
	IncrementFactor *int                 `json:"increment_factor,omitempty" yaml:"increment_factor"`
	CardCeiling     *int                 `json:"card_ceiling,omitempty" yaml:"card_ceiling"`
	Cards           []CardInput          `json:"cards" yaml:"cards"`
	Events          []event.Request      `json:"events,omitempty" yaml:"events"`
}

// ToModel 转换为活动模型（不含特殊活动），时间统一为 UTC
func (r *CreateRequest) ToModel() *models.Campaign {
	c := &models.Campaign{
		Title:           r.Title,
		Description:     r.Description,
		StartAt:         r.StartAt.UTC(),
		EndAt:           r.EndAt.UTC(),
		CoinReward:      r.CoinReward,
		RealReward:      r.RealReward,
		CommissionRate:  r.CommissionRate,
		AllOpticians:    r.AllOpticians,
		CardMode:        r.CardMode,
		IncrementType:   r.IncrementType,
		IncrementFactor: r.IncrementFactor,
		CardCeiling:     r.CardCeiling,
		Status:          models.StatusActive,
	}
	if !r.AllOpticians {
		for _, id := range r.OpticianIDs {
			c.Opticians = append(c.Opticians, models.CampaignOptician{OpticianID: id})
		}
	}
	for _, ci := range r.Cards {
		card := models.Card{Sequence: ci.Sequence, Description: ci.Description}
		for _, ri := range ci.Requirements {
			req := models.Requirement{
				Description: ri.Description,
				Quantity:    ri.Quantity,
				Unit:        ri.Unit,
				Ordem:       ri.Ordem,
			}
			for _, cond := range ri.Conditions {
				req.Conditions = append(req.Conditions, models.Condition{
					Field:    cond.Field,
					Operator: cond.Operator,
					Value:    cond.Value,
				})
			}
			card.Requirements = append(card.Requirements, req)
		}
		c.Cards = append(c.Cards, card)
	}
	return c
}

// EventModels 转换请求中的特殊活动
func (r *CreateRequest) EventModels() []models.SpecialEvent {
	events := make([]models.SpecialEvent, 0, len(r.Events))
	for _, e := range r.Events {
		active := true
		if e.Active != nil {
			active = *e.Active
		}
		events = append(events, models.SpecialEvent{
			Name:           e.Name,
			Description:    e.Description,
			Multiplier:     e.Multiplier,
			StartAt:        e.StartAt.UTC(),
			EndAt:          e.EndAt.UTC(),
			Active:         active,
			HighlightColor: e.HighlightColor,
		})
	}
	return events
}
