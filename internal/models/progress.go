package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SellerProgress 销售员在某活动中的卡片进度
type SellerProgress struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SellerID       int64     `gorm:"uniqueIndex:uk_seller_campaign;not null" json:"seller_id"`
	CampaignID     int64     `gorm:"uniqueIndex:uk_seller_campaign;not null" json:"campaign_id"`
	ActiveSequence int       `gorm:"not null;default:1" json:"active_sequence"`
	Exhausted      bool      `gorm:"not null;default:false" json:"exhausted"`
	Version        int64     `gorm:"not null;default:0" json:"version"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Requirements []RequirementProgress `gorm:"foreignKey:ProgressID" json:"requirements,omitempty"`
}

// TableName 表名
func (SellerProgress) TableName() string {
	return "seller_progress"
}

// RequirementProgress 某张卡片某个 ordem 的累计数量
type RequirementProgress struct {
	ID          int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ProgressID  int64 `gorm:"uniqueIndex:uk_progress_slot;not null" json:"progress_id"`
	Sequence    int   `gorm:"uniqueIndex:uk_progress_slot;not null" json:"sequence"`
	Ordem       int   `gorm:"uniqueIndex:uk_progress_slot;not null" json:"ordem"`
	Accumulated int   `gorm:"not null;default:0" json:"accumulated"`
	Target      int   `gorm:"not null" json:"target"`
}

// TableName 表名
func (RequirementProgress) TableName() string {
	return "requirement_progress"
}

// SaleLine 已处理的销售明细，(campaign_id, external_id) 保证幂等
type SaleLine struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	ExternalID     string          `gorm:"type:varchar(64);uniqueIndex:uk_sale_external;not null" json:"external_id"`
	CampaignID     int64           `gorm:"uniqueIndex:uk_sale_external;not null" json:"campaign_id"`
	SellerID       int64           `gorm:"index;not null" json:"seller_id"`
	ProductName    string          `gorm:"type:varchar(255)" json:"product_name"`
	ProductCode    string          `gorm:"type:varchar(100)" json:"product_code"`
	Category       string          `gorm:"type:varchar(100)" json:"category"`
	Value          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"value"`
	Quantity       int             `gorm:"not null" json:"quantity"`
	SoldAt         time.Time       `gorm:"not null" json:"sold_at"`
	Outcome        SaleOutcome     `gorm:"type:varchar(20);not null" json:"outcome"`
	SkipReason     string          `gorm:"type:varchar(50)" json:"skip_reason,omitempty"`
	UnitsAllocated int             `gorm:"not null;default:0" json:"units_allocated"`
	UnitsDiscarded int             `gorm:"not null;default:0" json:"units_discarded"`
	CardsCompleted int             `gorm:"not null;default:0" json:"cards_completed"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (SaleLine) TableName() string {
	return "sale_lines"
}

// CardCompletion 卡片完成记录，同一销售员同一活动同一序号只记一次
type CardCompletion struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	SellerID    int64           `gorm:"uniqueIndex:uk_completion;not null" json:"seller_id"`
	CampaignID  int64           `gorm:"uniqueIndex:uk_completion;not null;index" json:"campaign_id"`
	Sequence    int             `gorm:"uniqueIndex:uk_completion;not null" json:"sequence"`
	SaleLineID  int64           `gorm:"index" json:"sale_line_id"`
	Multiplier  decimal.Decimal `gorm:"type:decimal(4,2);not null" json:"multiplier"`
	EventID     *int64          `json:"event_id,omitempty"`
	Coins       int64           `gorm:"not null" json:"coins"`
	Real        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"real"`
	Commission  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"commission"`
	ManagerID   *int64          `json:"manager_id,omitempty"`
	CompletedAt time.Time       `gorm:"not null" json:"completed_at"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (CardCompletion) TableName() string {
	return "card_completions"
}
