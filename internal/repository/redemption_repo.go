package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/incentive-backend/internal/models"
)

// RedemptionRepository 兑换记录仓储
type RedemptionRepository struct {
	db *gorm.DB
}

// NewRedemptionRepository 创建兑换记录仓储
func NewRedemptionRepository(db *gorm.DB) *RedemptionRepository {
	return &RedemptionRepository{db: db}
}

// CreateTx 在事务中创建兑换记录
func (r *RedemptionRepository) CreateTx(ctx context.Context, tx *gorm.DB, redemption *models.Redemption) error {
	return tx.WithContext(ctx).Create(redemption).Error
}

// GetByID 根据 ID 获取兑换记录（含奖品）
func (r *RedemptionRepository) GetByID(ctx context.Context, id int64) (*models.Redemption, error) {
	return r.GetByIDTx(ctx, r.db, id)
}

// GetByIDTx 在事务中获取兑换记录
func (r *RedemptionRepository) GetByIDTx(ctx context.Context, tx *gorm.DB, id int64) (*models.Redemption, error) {
	var redemption models.Redemption
	if err := tx.WithContext(ctx).Preload("Prize").First(&redemption, id).Error; err != nil {
		return nil, err
	}
	return &redemption, nil
}

// GetByNo 根据兑换单号获取
func (r *RedemptionRepository) GetByNo(ctx context.Context, no string) (*models.Redemption, error) {
	var redemption models.Redemption
	if err := r.db.WithContext(ctx).Preload("Prize").Where("redemption_no = ?", no).First(&redemption).Error; err != nil {
		return nil, err
	}
	return &redemption, nil
}

// RedemptionListParams 兑换记录查询参数
type RedemptionListParams struct {
	Offset   int
	Limit    int
	SellerID int64
	Status   models.RedemptionStatus
}

// List 获取兑换记录列表
func (r *RedemptionRepository) List(ctx context.Context, params RedemptionListParams) ([]*models.Redemption, int64, error) {
	var list []*models.Redemption
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Redemption{})
	if params.SellerID > 0 {
		query = query.Where("seller_id = ?", params.SellerID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Preload("Prize").Order("id DESC").Offset(params.Offset).Limit(params.Limit).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// TransitionTx 在事务中按当前状态迁移，状态不符时返回 false
func (r *RedemptionRepository) TransitionTx(ctx context.Context, tx *gorm.DB, id int64, from, to models.RedemptionStatus, extra map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	result := tx.WithContext(ctx).Model(&models.Redemption{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
