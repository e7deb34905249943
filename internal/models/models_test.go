package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnums_IsValid(t *testing.T) {
	assert.True(t, CardModeManual.IsValid())
	assert.True(t, CardModeAutoReplicante.IsValid())
	assert.False(t, CardMode("AUTO").IsValid())

	assert.True(t, IncrementNenhum.IsValid())
	assert.True(t, IncrementMultiplicador.IsValid())
	assert.False(t, IncrementType("").IsValid())

	assert.True(t, FieldValorVenda.IsValid())
	assert.False(t, ConditionField("MARCA").IsValid())

	assert.True(t, OperatorMenorQue.IsValid())
	assert.False(t, ConditionOperator("ENTRE").IsValid())

	assert.True(t, UnitPar.IsValid())
	assert.False(t, UnitKind("CAIXA").IsValid())

	assert.True(t, RedemptionCancelado.IsValid())
	assert.False(t, RedemptionStatus("ENTREGUE").IsValid())

	assert.True(t, RoleSeller.IsValid())
	assert.False(t, Role("GUEST").IsValid())

	assert.True(t, LedgerRedemptionRefund.IsValid())
	assert.False(t, LedgerKind("BONUS").IsValid())
}

func TestConditionOperator_Supports(t *testing.T) {
	tests := []struct {
		name  string
		op    ConditionOperator
		field ConditionField
		want  bool
	}{
		{"文本包含", OperatorContem, FieldNomeProduto, true},
		{"文本不包含", OperatorNaoContem, FieldCategoriaProduto, true},
		{"文本大于", OperatorMaiorQue, FieldNomeProduto, false},
		{"数值大于", OperatorMaiorQue, FieldValorVenda, true},
		{"数值小于", OperatorMenorQue, FieldValorVenda, true},
		{"数值包含", OperatorContem, FieldValorVenda, false},
		{"数值等于", OperatorIgualA, FieldValorVenda, true},
		{"文本不等于", OperatorNaoIgualA, FieldCodigoProduto, true},
		{"未知字段", OperatorIgualA, ConditionField("MARCA"), false},
		{"未知运算符", ConditionOperator("ENTRE"), FieldValorVenda, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op.Supports(tt.field))
		})
	}
}

func TestLedgerKind_IsCoin(t *testing.T) {
	assert.True(t, LedgerCoins.IsCoin())
	assert.True(t, LedgerRedemption.IsCoin())
	assert.True(t, LedgerRedemptionRefund.IsCoin())
	assert.False(t, LedgerReal.IsCoin())
	assert.False(t, LedgerCommission.IsCoin())
}

func TestCampaign_InPeriod(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	c := &Campaign{StartAt: start, EndAt: start.Add(30 * 24 * time.Hour)}

	assert.True(t, c.InPeriod(start))
	assert.True(t, c.InPeriod(c.EndAt))
	assert.True(t, c.InPeriod(start.Add(time.Hour)))
	assert.False(t, c.InPeriod(start.Add(-time.Second)))
	assert.False(t, c.InPeriod(c.EndAt.Add(time.Second)))
}

func TestCampaign_Targets(t *testing.T) {
	t.Run("全部门店", func(t *testing.T) {
		c := &Campaign{AllOpticians: true}
		assert.True(t, c.Targets(99))
	})

	t.Run("指定门店", func(t *testing.T) {
		c := &Campaign{Opticians: []CampaignOptician{{OpticianID: 1}, {OpticianID: 3}}}
		assert.True(t, c.Targets(3))
		assert.False(t, c.Targets(2))
		assert.Equal(t, []int64{1, 3}, c.OpticianIDs())
	})
}

func TestSpecialEvent_Covers(t *testing.T) {
	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	e := &SpecialEvent{StartAt: start, EndAt: start.Add(2 * time.Hour)}

	assert.True(t, e.Covers(start))
	assert.True(t, e.Covers(e.EndAt))
	assert.False(t, e.Covers(e.EndAt.Add(time.Nanosecond)))
}

func TestUser_IsSeller(t *testing.T) {
	assert.True(t, (&User{Role: RoleSeller, Status: StatusActive}).IsSeller())
	assert.False(t, (&User{Role: RoleSeller, Status: StatusDisabled}).IsSeller())
	assert.False(t, (&User{Role: RoleManager, Status: StatusActive}).IsSeller())
}

func TestAll(t *testing.T) {
	assert.Len(t, All(), 15)
}
