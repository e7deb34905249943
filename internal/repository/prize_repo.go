package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/incentive-backend/internal/models"
)

// PrizeRepository 奖品仓储
type PrizeRepository struct {
	db *gorm.DB
}

// NewPrizeRepository 创建奖品仓储
func NewPrizeRepository(db *gorm.DB) *PrizeRepository {
	return &PrizeRepository{db: db}
}

// Create 创建奖品
func (r *PrizeRepository) Create(ctx context.Context, prize *models.Prize) error {
	return r.db.WithContext(ctx).Create(prize).Error
}

// GetByID 根据 ID 获取奖品
func (r *PrizeRepository) GetByID(ctx context.Context, id int64) (*models.Prize, error) {
	return r.GetByIDTx(ctx, r.db, id)
}

// GetByIDTx 在事务中获取奖品
func (r *PrizeRepository) GetByIDTx(ctx context.Context, tx *gorm.DB, id int64) (*models.Prize, error) {
	var prize models.Prize
	if err := tx.WithContext(ctx).First(&prize, id).Error; err != nil {
		return nil, err
	}
	return &prize, nil
}

// List 获取奖品列表，status 为 nil 时不过滤
func (r *PrizeRepository) List(ctx context.Context, offset, limit int, status *int8) ([]*models.Prize, int64, error) {
	var prizes []*models.Prize
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Prize{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("coin_cost ASC, id ASC").Offset(offset).Limit(limit).Find(&prizes).Error; err != nil {
		return nil, 0, err
	}
	return prizes, total, nil
}

// UpdateStatus 更新奖品上下架状态
func (r *PrizeRepository) UpdateStatus(ctx context.Context, id int64, status int8) error {
	result := r.db.WithContext(ctx).Model(&models.Prize{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementStockTx 在事务中扣减库存，库存不足时返回 false
func (r *PrizeRepository) DecrementStockTx(ctx context.Context, tx *gorm.DB, id int64) (bool, error) {
	result := tx.WithContext(ctx).Model(&models.Prize{}).
		Where("id = ? AND stock > 0", id).
		UpdateColumn("stock", gorm.Expr("stock - 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// IncrementStockTx 在事务中恢复库存
func (r *PrizeRepository) IncrementStockTx(ctx context.Context, tx *gorm.DB, id int64) error {
	return tx.WithContext(ctx).Model(&models.Prize{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + 1")).Error
}
