package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Campaign 激励活动
type Campaign struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Title           string          `gorm:"type:varchar(120);not null" json:"title"`
	Description     string          `gorm:"type:text" json:"description"`
	StartAt         time.Time       `gorm:"not null;index" json:"start_at"`
	EndAt           time.Time       `gorm:"not null;index" json:"end_at"`
	CoinReward      int64           `gorm:"not null" json:"coin_reward"`
	RealReward      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"real_reward"`
	CommissionRate  decimal.Decimal `gorm:"type:decimal(5,4);not null" json:"commission_rate"`
	AllOpticians    bool            `gorm:"not null" json:"all_opticians"`
	CardMode        CardMode        `gorm:"type:varchar(20);not null" json:"card_mode"`
	IncrementType   IncrementType   `gorm:"type:varchar(20);not null" json:"increment_type"`
	IncrementFactor *int            `json:"increment_factor,omitempty"`
	CardCeiling     *int            `json:"card_ceiling,omitempty"`
	Status          int8            `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Cards     []Card             `gorm:"foreignKey:CampaignID" json:"cards,omitempty"`
	Opticians []CampaignOptician `gorm:"foreignKey:CampaignID" json:"opticians,omitempty"`
	Events    []SpecialEvent     `gorm:"foreignKey:CampaignID" json:"events,omitempty"`
}

// TableName 表名
func (Campaign) TableName() string {
	return "campaigns"
}

// IsEnabled 活动是否启用
func (c *Campaign) IsEnabled() bool {
	return c.Status == StatusActive
}

// InPeriod at 是否落在活动时间内（含边界）
func (c *Campaign) InPeriod(at time.Time) bool {
	return !at.Before(c.StartAt) && !at.After(c.EndAt)
}

// Targets 活动是否面向该门店
func (c *Campaign) Targets(opticianID int64) bool {
	if c.AllOpticians {
		return true
	}
	for _, o := range c.Opticians {
		if o.OpticianID == opticianID {
			return true
		}
	}
	return false
}

// OpticianIDs 指定门店 ID 列表
func (c *Campaign) OpticianIDs() []int64 {
	ids := make([]int64, 0, len(c.Opticians))
	for _, o := range c.Opticians {
		ids = append(ids, o.OpticianID)
	}
	return ids
}

// CampaignOptician 活动指定门店
type CampaignOptician struct {
	CampaignID int64 `gorm:"primaryKey" json:"campaign_id"`
	OpticianID int64 `gorm:"primaryKey;index" json:"optician_id"`
}

// TableName 表名
func (CampaignOptician) TableName() string {
	return "campaign_opticians"
}

// Card 卡片（cartela）
type Card struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	CampaignID  int64  `gorm:"uniqueIndex:uk_card_sequence;not null" json:"campaign_id"`
	Sequence    int    `gorm:"uniqueIndex:uk_card_sequence;not null" json:"sequence"`
	Description string `gorm:"type:varchar(255)" json:"description"`

	// 关联
	Requirements []Requirement `gorm:"foreignKey:CardID" json:"requirements"`
}

// TableName 表名
func (Card) TableName() string {
	return "cards"
}

// Requirement 卡片要求
type Requirement struct {
	ID          int64    `gorm:"primaryKey;autoIncrement" json:"id"`
	CardID      int64    `gorm:"index;not null" json:"card_id"`
	Description string   `gorm:"type:varchar(255);not null" json:"description"`
	Quantity    int      `gorm:"not null" json:"quantity"`
	Unit        UnitKind `gorm:"type:varchar(20);not null" json:"unit"`
	Ordem       int      `gorm:"not null" json:"ordem"`

	// 关联
	Conditions []Condition `gorm:"foreignKey:RequirementID" json:"conditions"`
}

// TableName 表名
func (Requirement) TableName() string {
	return "requirements"
}

// Condition 匹配条件
type Condition struct {
	ID            int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	RequirementID int64             `gorm:"index;not null" json:"requirement_id"`
	Field         ConditionField    `gorm:"type:varchar(30);not null" json:"field"`
	Operator      ConditionOperator `gorm:"type:varchar(20);not null" json:"operator"`
	Value         string            `gorm:"type:varchar(255);not null" json:"value"`
}

// TableName 表名
func (Condition) TableName() string {
	return "conditions"
}

// SpecialEvent 特殊活动（奖励倍数时段）
type SpecialEvent struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CampaignID     int64           `gorm:"index;not null" json:"campaign_id"`
	Name           string          `gorm:"type:varchar(100);not null" json:"name"`
	Description    string          `gorm:"type:varchar(500)" json:"description"`
	Multiplier     decimal.Decimal `gorm:"type:decimal(4,2);not null" json:"multiplier"`
	StartAt        time.Time       `gorm:"not null" json:"start_at"`
	EndAt          time.Time       `gorm:"not null" json:"end_at"`
	Active         bool            `gorm:"not null" json:"active"`
	HighlightColor string          `gorm:"type:varchar(7);not null" json:"highlight_color"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (SpecialEvent) TableName() string {
	return "special_events"
}

// Covers at 是否在活动时段内（含两端）
func (e *SpecialEvent) Covers(at time.Time) bool {
	return !at.Before(e.StartAt) && !at.After(e.EndAt)
}
