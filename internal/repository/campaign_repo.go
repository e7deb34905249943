// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/incentive-backend/internal/models"
)

// CampaignRepository 活动仓储
type CampaignRepository struct {
	db *gorm.DB
}

// NewCampaignRepository 创建活动仓储
func NewCampaignRepository(db *gorm.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// CreateTreeTx 在事务中创建活动及其卡片、要求、条件与指定门店
func (r *CampaignRepository) CreateTreeTx(ctx context.Context, tx *gorm.DB, campaign *models.Campaign) error {
	return tx.WithContext(ctx).Omit("Events").Create(campaign).Error
}

// GetByID 根据 ID 获取活动（不含卡片）
func (r *CampaignRepository) GetByID(ctx context.Context, id int64) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.WithContext(ctx).First(&campaign, id).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// GetTree 获取活动完整定义：卡片按序号、要求按 ordem 排序
func (r *CampaignRepository) GetTree(ctx context.Context, id int64) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.WithContext(ctx).
		Preload("Cards", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		}).
		Preload("Cards.Requirements", func(db *gorm.DB) *gorm.DB {
			return db.Order("ordem ASC, id ASC")
		}).
		Preload("Cards.Requirements.Conditions", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Preload("Opticians").
		First(&campaign, id).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// UpdateStatus 更新活动状态
func (r *CampaignRepository) UpdateStatus(ctx context.Context, id int64, status int8) error {
	result := r.db.WithContext(ctx).Model(&models.Campaign{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CampaignListParams 活动列表查询参数
type CampaignListParams struct {
	Offset   int
	Limit    int
	Status   *int8
	Keyword  string
	ActiveAt *time.Time // 仅返回该时刻处于活动期内的活动
}

// List 获取活动列表
func (r *CampaignRepository) List(ctx context.Context, params CampaignListParams) ([]*models.Campaign, int64, error) {
	var campaigns []*models.Campaign
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Campaign{})

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Keyword != "" {
		query = query.Where("title LIKE ?", "%"+params.Keyword+"%")
	}
	if params.ActiveAt != nil {
		query = query.Where("start_at <= ? AND end_at >= ?", *params.ActiveAt, *params.ActiveAt)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("start_at DESC, id DESC").Offset(params.Offset).Limit(params.Limit).Find(&campaigns).Error; err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

// CountActive 统计 at 时刻启用且在活动期内的活动数量
func (r *CampaignRepository) CountActive(ctx context.Context, at time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Campaign{}).
		Where("status = ?", models.StatusActive).
		Where("start_at <= ? AND end_at >= ?", at, at).
		Count(&count).Error
	return count, err
}
