// Package repository 提供数据访问层
package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dumeirei/incentive-backend/internal/models"
)

// UserRepository 用户仓储
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create 创建用户
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID 根据 ID 获取用户
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.GetByIDTx(ctx, r.db, id)
}

// GetByIDTx 在事务中根据 ID 获取用户
func (r *UserRepository) GetByIDTx(ctx context.Context, tx *gorm.DB, id int64) (*models.User, error) {
	var user models.User
	err := tx.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetWithOptician 获取用户及所属门店
func (r *UserRepository) GetWithOptician(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Preload("Optician").First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreditRewardsTx 在事务中增加金币与现金积分
func (r *UserRepository) CreditRewardsTx(ctx context.Context, tx *gorm.DB, userID int64, coins int64, real decimal.Decimal) error {
	result := tx.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumns(map[string]interface{}{
			"coin_balance": gorm.Expr("coin_balance + ?", coins),
			"real_balance": gorm.Expr("real_balance + ?", real),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreditCommissionTx 在事务中增加佣金
func (r *UserRepository) CreditCommissionTx(ctx context.Context, tx *gorm.DB, userID int64, amount decimal.Decimal) error {
	result := tx.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("commission_balance", gorm.Expr("commission_balance + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeductCoinsTx 在事务中扣减金币，余额不足时返回 false
func (r *UserRepository) DeductCoinsTx(ctx context.Context, tx *gorm.DB, userID int64, coins int64) (bool, error) {
	result := tx.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND coin_balance >= ?", userID, coins).
		UpdateColumn("coin_balance", gorm.Expr("coin_balance - ?", coins))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RefundCoinsTx 在事务中退回金币
func (r *UserRepository) RefundCoinsTx(ctx context.Context, tx *gorm.DB, userID int64, coins int64) error {
	return tx.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("coin_balance", gorm.Expr("coin_balance + ?", coins)).Error
}

// OpticianRepository 门店仓储
type OpticianRepository struct {
	db *gorm.DB
}

// NewOpticianRepository 创建门店仓储
func NewOpticianRepository(db *gorm.DB) *OpticianRepository {
	return &OpticianRepository{db: db}
}

// Create 创建门店
func (r *OpticianRepository) Create(ctx context.Context, optician *models.Optician) error {
	return r.db.WithContext(ctx).Create(optician).Error
}

// GetByID 根据 ID 获取门店
func (r *OpticianRepository) GetByID(ctx context.Context, id int64) (*models.Optician, error) {
	var optician models.Optician
	err := r.db.WithContext(ctx).First(&optician, id).Error
	if err != nil {
		return nil, err
	}
	return &optician, nil
}

// CountExisting 统计给定 ID 中存在的门店数量
func (r *OpticianRepository) CountExisting(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Optician{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}
