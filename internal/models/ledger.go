package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry 奖励账本条目，金币类条目金额为整数
type LedgerEntry struct {
	ID           int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       int64            `gorm:"index;not null" json:"user_id"`
	Kind         LedgerKind       `gorm:"type:varchar(30);not null;index" json:"kind"`
	Amount       decimal.Decimal  `gorm:"type:decimal(14,2);not null" json:"amount"`
	CampaignID   *int64           `gorm:"index" json:"campaign_id,omitempty"`
	CardSequence *int             `json:"card_sequence,omitempty"`
	Multiplier   *decimal.Decimal `gorm:"type:decimal(4,2)" json:"multiplier,omitempty"`
	EventID      *int64           `json:"event_id,omitempty"`
	RedemptionID *int64           `gorm:"index" json:"redemption_id,omitempty"`
	Remark       string           `gorm:"type:varchar(255)" json:"remark,omitempty"`
	CreatedAt    time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}
