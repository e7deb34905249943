// Package models 定义数据模型
package models

// CardMode 卡片创建模式
type CardMode string

const (
	CardModeManual         CardMode = "MANUAL"          // 手动定义全部卡片
	CardModeAutoReplicante CardMode = "AUTO_REPLICANTE" // 基于基础卡片自动复制
)

// IsValid 是否为已知模式
func (m CardMode) IsValid() bool {
	switch m {
	case CardModeManual, CardModeAutoReplicante:
		return true
	default:
		return false
	}
}

// IncrementType 自动复制时的数量递增方式
type IncrementType string

const (
	IncrementNenhum        IncrementType = "NENHUM"        // 不递增
	IncrementMultiplicador IncrementType = "MULTIPLICADOR" // 每张卡片增加固定数量
)

// IsValid 是否为已知递增方式
func (t IncrementType) IsValid() bool {
	switch t {
	case IncrementNenhum, IncrementMultiplicador:
		return true
	default:
		return false
	}
}

// ConditionField 条件字段
type ConditionField string

const (
	FieldNomeProduto      ConditionField = "NOME_PRODUTO"
	FieldCodigoProduto    ConditionField = "CODIGO_PRODUTO"
	FieldValorVenda       ConditionField = "VALOR_VENDA"
	FieldCategoriaProduto ConditionField = "CATEGORIA_PRODUTO"
)

// IsValid 是否为已知字段
func (f ConditionField) IsValid() bool {
	switch f {
	case FieldNomeProduto, FieldCodigoProduto, FieldValorVenda, FieldCategoriaProduto:
		return true
	default:
		return false
	}
}

// IsNumeric 是否为数值字段
func (f ConditionField) IsNumeric() bool {
	return f == FieldValorVenda
}

// ConditionOperator 条件运算符
type ConditionOperator string

const (
	OperatorContem    ConditionOperator = "CONTEM"
	OperatorNaoContem ConditionOperator = "NAO_CONTEM"
	OperatorIgualA    ConditionOperator = "IGUAL_A"
	OperatorNaoIgualA ConditionOperator = "NAO_IGUAL_A"
	OperatorMaiorQue  ConditionOperator = "MAIOR_QUE"
	OperatorMenorQue  ConditionOperator = "MENOR_QUE"
)

// IsValid 是否为已知运算符
func (o ConditionOperator) IsValid() bool {
	switch o {
	case OperatorContem, OperatorNaoContem, OperatorIgualA, OperatorNaoIgualA, OperatorMaiorQue, OperatorMenorQue:
		return true
	default:
		return false
	}
}

// Supports 字段与运算符组合是否受支持
// 文本字段不支持大小比较，数值字段不支持包含判断
func (o ConditionOperator) Supports(f ConditionField) bool {
	if !o.IsValid() || !f.IsValid() {
		return false
	}
	switch o {
	case OperatorContem, OperatorNaoContem:
		return !f.IsNumeric()
	case OperatorMaiorQue, OperatorMenorQue:
		return f.IsNumeric()
	default:
		return true
	}
}

// UnitKind 数量单位
type UnitKind string

const (
	UnitPar     UnitKind = "PAR"     // 副
	UnitUnidade UnitKind = "UNIDADE" // 件
)

// IsValid 是否为已知单位
func (u UnitKind) IsValid() bool {
	switch u {
	case UnitPar, UnitUnidade:
		return true
	default:
		return false
	}
}

// RedemptionStatus 兑换状态
type RedemptionStatus string

const (
	RedemptionSolicitado RedemptionStatus = "SOLICITADO" // 已申请
	RedemptionEnviado    RedemptionStatus = "ENVIADO"    // 已发货
	RedemptionCancelado  RedemptionStatus = "CANCELADO"  // 已取消
)

// IsValid 是否为已知状态
func (s RedemptionStatus) IsValid() bool {
	switch s {
	case RedemptionSolicitado, RedemptionEnviado, RedemptionCancelado:
		return true
	default:
		return false
	}
}

// Role 用户角色
type Role string

const (
	RoleSeller  Role = "SELLER"
	RoleManager Role = "MANAGER"
	RoleAdmin   Role = "ADMIN"
)

// IsValid 是否为已知角色
func (r Role) IsValid() bool {
	switch r {
	case RoleSeller, RoleManager, RoleAdmin:
		return true
	default:
		return false
	}
}

// LedgerKind 账本条目类型
type LedgerKind string

const (
	LedgerCoins            LedgerKind = "COINS"             // 卡片奖励金币
	LedgerReal             LedgerKind = "REAL"              // 卡片奖励现金积分
	LedgerCommission       LedgerKind = "COMMISSION"        // 店长佣金
	LedgerRedemption       LedgerKind = "REDEMPTION"        // 兑换扣减金币
	LedgerRedemptionRefund LedgerKind = "REDEMPTION_REFUND" // 取消兑换退回金币
)

// IsValid 是否为已知类型
func (k LedgerKind) IsValid() bool {
	switch k {
	case LedgerCoins, LedgerReal, LedgerCommission, LedgerRedemption, LedgerRedemptionRefund:
		return true
	default:
		return false
	}
}

// IsCoin 是否影响金币余额
func (k LedgerKind) IsCoin() bool {
	return k == LedgerCoins || k == LedgerRedemption || k == LedgerRedemptionRefund
}

// SaleOutcome 销售明细处理结果
type SaleOutcome string

const (
	SaleProcessed SaleOutcome = "PROCESSED" // 已计入进度
	SaleSkipped   SaleOutcome = "SKIPPED"   // 已跳过
)

// 销售明细跳过原因
const (
	SkipCampaignDisabled = "campaign_disabled"
	SkipOutOfPeriod      = "out_of_period"
	SkipNotSeller        = "not_seller"
	SkipNotTargeted      = "optician_not_targeted"
	SkipTrackExhausted   = "track_exhausted"
	SkipConfigError      = "config_error"
)

// 通用启用状态
const (
	StatusDisabled int8 = 0 // 禁用
	StatusActive   int8 = 1 // 启用
)
