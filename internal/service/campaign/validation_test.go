package campaign

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/incentive-backend/internal/common/errors"
	"github.com/dumeirei/incentive-backend/internal/common/validation"
	"github.com/dumeirei/incentive-backend/internal/models"
	"github.com/dumeirei/incentive-backend/internal/service/event"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testClock() validation.Clock {
	return validation.NewClock(testNow, time.UTC)
}

func intPtr(v int) *int { return &v }

func lensRequirement(ordem, qty int) RequirementInput {
	return RequirementInput{
		Description: "Lentes multifocais",
		Quantity:    qty,
		Unit:        models.UnitPar,
		Ordem:       ordem,
		Conditions: []ConditionInput{
			{Field: models.FieldCategoriaProduto, Operator: models.OperatorIgualA, Value: "lentes"},
			{Field: models.FieldValorVenda, Operator: models.OperatorMaiorQue, Value: "100,00"},
		},
	}
}

func validManualRequest() *CreateRequest {
	return &CreateRequest{
		Title:          "Campanha de Março",
		Description:    "Venda lentes e ganhe moedinhas",
		StartAt:        time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		EndAt:          time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC),
		CoinReward:     2500,
		RealReward:     decimal.NewFromInt(1500),
		CommissionRate: decimal.RequireFromString("0.15"),
		AllOpticians:   true,
		CardMode:       models.CardModeManual,
		IncrementType:  models.IncrementNenhum,
		Cards: []CardInput{
			{Sequence: 1, Description: "Cartela 1", Requirements: []RequirementInput{lensRequirement(1, 5)}},
			{Sequence: 2, Description: "Cartela 2", Requirements: []RequirementInput{lensRequirement(1, 5)}},
			{Sequence: 3, Description: "Cartela 3", Requirements: []RequirementInput{lensRequirement(1, 5)}},
		},
	}
}

func validAutoRequest() *CreateRequest {
	req := validManualRequest()
	req.CardMode = models.CardModeAutoReplicante
	req.IncrementType = models.IncrementMultiplicador
	req.IncrementFactor = intPtr(2)
	req.CardCeiling = intPtr(10)
	req.Cards = req.Cards[:1]
	return req
}

func TestValidateCampaign_Valid(t *testing.T) {
	assert.True(t, ValidateCampaign(validManualRequest(), testClock(), event.DefaultPolicy).Valid())
	assert.True(t, ValidateCampaign(validAutoRequest(), testClock(), event.DefaultPolicy).Valid())
}

func TestValidateCampaign_Period(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateRequest)
	}{
		{"结束早于开始", func(r *CreateRequest) { r.EndAt = r.StartAt.Add(-time.Hour) }},
		{"结束等于开始", func(r *CreateRequest) { r.EndAt = r.StartAt }},
		{"不足1天", func(r *CreateRequest) { r.EndAt = r.StartAt.Add(23 * time.Hour) }},
		{"超过365天", func(r *CreateRequest) { r.EndAt = r.StartAt.Add(366 * 24 * time.Hour) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validManualRequest()
			tt.mutate(req)
			r := ValidateCampaign(req, testClock(), event.DefaultPolicy)
			assert.True(t, r.Has("end_at"), "errors: %v", r.Errors)
		})
	}

	t.Run("恰好1天和365天", func(t *testing.T) {
		req := validManualRequest()
		req.EndAt = req.StartAt.Add(24 * time.Hour)
		assert.False(t, ValidateCampaign(req, testClock(), event.DefaultPolicy).Has("end_at"))
		req.EndAt = req.StartAt.Add(365 * 24 * time.Hour)
		assert.False(t, ValidateCampaign(req, testClock(), event.DefaultPolicy).Has("end_at"))
	})
}

func TestValidateCampaign_Economy(t *testing.T) {
	t.Run("金币低于现金积分", func(t *testing.T) {
		req := validManualRequest()
		req.CoinReward = 1000
		r := ValidateCampaign(req, testClock(), event.DefaultPolicy)
		assert.True(t, r.Has("coin_reward"))
	})

	t.Run("佣金超过30%", func(t *testing.T) {
		req := validManualRequest()
		req.CommissionRate = decimal.RequireFromString("0.31")
		assert.True(t, ValidateCampaign(req, testClock(), event.DefaultPolicy).Has("commission_rate"))
	})

	t.Run("负佣金", func(t *testing.T) {
		req := validManualRequest()
		req.CommissionRate = decimal.RequireFromString("-0.01")
		assert.True(t, ValidateCampaign(req, testClock(), event.DefaultPolicy).Has("commission_rate"))
	})

	t.Run("边界值", func(t *testing.T) {
		req := validManualRequest()
		req.CoinReward = 1500
		req.CommissionRate = decimal.RequireFromString("0.30")
		assert.True(t, ValidateCampaign(req, testClock(), event.DefaultPolicy).Valid())
	})
}

func TestValidateCampaign_Replication(t *testing.T) {
	t.Run("自动复制缺少递增系数", func(t *testing.T) {
		req := validAutoRequest()
		req.IncrementFactor = nil
		assert.True(t, ValidateCampaign(req, testClock(), event.DefaultPolicy).Has("increment_factor"))
	})

	t.Run("递增系数越界", func(t *testing.T) {
		req := validAutoRequest()
		req.IncrementFactor = intPtr(101)
		assert.True(t, ValidateCampaign(req, testClock(), event.DefaultPolicy).Has("increment_factor"))
	})

	t.Run("NENHUM 不能带系数", func(t *testing.T) {
		req := validAutoRequest()
		req.IncrementType = models.IncrementNenhum
		assert.True(t, ValidateCampaign(req, testClock(), event.DefaultPolicy).Has("increment_factor"))
	})

	t.Run("上限越界", func(t *testing.T) {
		req := validAutoRequest()
		req.CardCeiling = intPtr(1)
		assert.True(t, ValidateCampaign(req, testClock(), event.DefaultPolicy).Has("card_ceiling"))
		req.CardCeiling = intPtr(1001)
		assert.True(t, ValidateCampaign(req, testClock(), event.DefaultPolicy).Has("card_ceiling"))
	})

	t.Run("自动复制需要唯一基础卡片", func(t *testing.T) {
		req := validAutoRequest()
		req.Cards = validManualRequest().Cards
		assert.True(t, ValidateCampaign(req, testClock(), event.DefaultPolicy).Has("cards"))

		req = validAutoRequest()
		req.Cards[0].Sequence = 2
		assert.True(t, ValidateCampaign(req, testClock(), event.DefaultPolicy).Has("cards"))
	})

	t.Run("手动模式序号不连续", func(t *testing.T) {
		req := validManualRequest()
		req.Cards[2].Sequence = 4
		assert.True(t, ValidateCampaign(req, testClock(), event.DefaultPolicy).Has("cards"))
	})

	t.Run("手动模式不能设置上限", func(t *testing.T) {
		req := validManualRequest()
		req.CardCeiling = intPtr(5)
		assert.True(t, ValidateCampaign(req, testClock(), event.DefaultPolicy).Has("card_ceiling"))
	})

	t.Run("无效的卡片模式", func(t *testing.T) {
		req := validManualRequest()
		req.CardMode = "SEMI"
		assert.True(t, ValidateCampaign(req, testClock(), event.DefaultPolicy).Has("card_mode"))
	})
}

func TestValidateCampaign_Tree(t *testing.T) {
	req := validManualRequest()
	req.Title = "Oi"
	req.Cards[0].Requirements[0].Quantity = 0
	req.Cards[0].Requirements = append(req.Cards[0].Requirements, lensRequirement(1, 3))
	req.Cards[1].Requirements[0].Conditions[0].Operator = models.OperatorMaiorQue
	req.Cards[1].Requirements[0].Conditions[1].Value = "cem reais"
	req.Cards[2].Requirements[0].Conditions = nil

	r := ValidateCampaign(req, testClock(), event.DefaultPolicy)
	require.False(t, r.Valid())

	for _, field := range []string{
		"title",
		"cards[0].requirements[0].quantity",
		"cards[0].requirements[1].ordem",
		"cards[1].requirements[0].conditions[0].operator",
		"cards[1].requirements[0].conditions[1].value",
		"cards[2].requirements[0].conditions",
	} {
		assert.True(t, r.Has(field), "缺少字段 %s，实际: %v", field, r.Fields())
	}

	err := r.Err()
	require.Error(t, err)
	appErr := errors.GetAppError(err)
	assert.Equal(t, errors.ErrDefinitionInvalid.Code, appErr.Code)
	details, ok := appErr.Details.([]validation.FieldError)
	require.True(t, ok)
	assert.Len(t, details, len(r.Errors))
}

func TestValidateCampaign_Targeting(t *testing.T) {
	req := validManualRequest()
	req.AllOpticians = false
	assert.True(t, ValidateCampaign(req, testClock(), event.DefaultPolicy).Has("optician_ids"))

	req.OpticianIDs = []int64{3, 3}
	assert.True(t, ValidateCampaign(req, testClock(), event.DefaultPolicy).Has("optician_ids[1]"))

	req.OpticianIDs = []int64{3, 4}
	assert.True(t, ValidateCampaign(req, testClock(), event.DefaultPolicy).Valid())
}

func TestValidateCampaign_Events(t *testing.T) {
	req := validManualRequest()
	req.Events = []event.Request{
		{Name: "Semana dupla", Multiplier: decimal.NewFromInt(2), StartAt: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), EndAt: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), HighlightColor: "#00AA00"},
		{Name: "Semana tripla", Multiplier: decimal.NewFromInt(3), StartAt: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), EndAt: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), HighlightColor: "#0000AA"},
	}
	assert.True(t, ValidateCampaign(req, testClock(), event.DefaultPolicy).Valid())

	req.Events[1].StartAt = time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	req.Events[0].EndAt = time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC)
	r := ValidateCampaign(req, testClock(), event.DefaultPolicy)
	assert.True(t, r.Has("events[1].start_at"), "实际: %v", r.Fields())
	assert.True(t, r.Has("events[0].end_at"), "实际: %v", r.Fields())
}
