package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Optician 门店（眼镜店）
type Optician struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	ManagerID *int64    `gorm:"index" json:"manager_id,omitempty"`
	Status    int8      `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (Optician) TableName() string {
	return "opticians"
}

// User 用户（销售员、店长、管理员）
type User struct {
	ID                int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name              string          `gorm:"type:varchar(100);not null" json:"name"`
	Email             *string         `gorm:"type:varchar(120);uniqueIndex" json:"email,omitempty"`
	Role              Role            `gorm:"type:varchar(20);not null" json:"role"`
	OpticianID        *int64          `gorm:"index" json:"optician_id,omitempty"`
	CoinBalance       int64           `gorm:"not null;default:0" json:"coin_balance"`
	RealBalance       decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"real_balance"`
	CommissionBalance decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"commission_balance"`
	Status            int8            `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Optician *Optician `gorm:"foreignKey:OpticianID" json:"optician,omitempty"`
}

// TableName 表名
func (User) TableName() string {
	return "users"
}

// IsSeller 是否为可参与活动的销售员
func (u *User) IsSeller() bool {
	return u.Role == RoleSeller && u.Status == StatusActive
}
