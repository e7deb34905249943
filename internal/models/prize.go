package models

import (
	"time"
)

// Prize 可兑换奖品
type Prize struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	Description string    `gorm:"type:varchar(500)" json:"description"`
	CoinCost    int64     `gorm:"not null" json:"coin_cost"`
	Stock       int       `gorm:"not null;default:0" json:"stock"`
	Status      int8      `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Prize) TableName() string {
	return "prizes"
}

// Redemption 奖品兑换记录
type Redemption struct {
	ID           int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	RedemptionNo string           `gorm:"type:varchar(32);uniqueIndex;not null" json:"redemption_no"`
	SellerID     int64            `gorm:"index;not null" json:"seller_id"`
	PrizeID      int64            `gorm:"index;not null" json:"prize_id"`
	CoinCost     int64            `gorm:"not null" json:"coin_cost"`
	Status       RedemptionStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	VoucherCode  string           `gorm:"type:varchar(16);not null" json:"voucher_code"`
	SentAt       *time.Time       `json:"sent_at,omitempty"`
	CancelledAt  *time.Time       `json:"cancelled_at,omitempty"`
	CreatedAt    time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Prize *Prize `gorm:"foreignKey:PrizeID" json:"prize,omitempty"`
}

// TableName 表名
func (Redemption) TableName() string {
	return "redemptions"
}
