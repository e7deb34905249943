package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dumeirei/incentive-backend/internal/models"
)

// ErrVersionConflict 乐观锁版本不一致
var ErrVersionConflict = errors.New("repository: version conflict")

// ProgressRepository 销售员进度仓储
type ProgressRepository struct {
	db *gorm.DB
}

// NewProgressRepository 创建进度仓储
func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Get 获取销售员在活动中的进度（含各要求累计）
func (r *ProgressRepository) Get(ctx context.Context, sellerID, campaignID int64) (*models.SellerProgress, error) {
	return r.GetTx(ctx, r.db, sellerID, campaignID)
}

// GetTx 在事务中获取进度
func (r *ProgressRepository) GetTx(ctx context.Context, tx *gorm.DB, sellerID, campaignID int64) (*models.SellerProgress, error) {
	var progress models.SellerProgress
	err := tx.WithContext(ctx).
		Preload("Requirements", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC, ordem ASC")
		}).
		Where("seller_id = ? AND campaign_id = ?", sellerID, campaignID).
		First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// GetOrCreateTx 在事务中获取进度，不存在时创建初始进度
func (r *ProgressRepository) GetOrCreateTx(ctx context.Context, tx *gorm.DB, sellerID, campaignID int64) (*models.SellerProgress, error) {
	progress, err := r.GetTx(ctx, tx, sellerID, campaignID)
	if err == nil {
		return progress, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	progress = &models.SellerProgress{
		SellerID:       sellerID,
		CampaignID:     campaignID,
		ActiveSequence: 1,
	}
	if err := tx.WithContext(ctx).Create(progress).Error; err != nil {
		return nil, err
	}
	return progress, nil
}

// SaveTx 按版本号保存进度并写入各要求累计
// progress.Version 为读取时的版本，成功后加一；版本不一致返回 ErrVersionConflict
func (r *ProgressRepository) SaveTx(ctx context.Context, tx *gorm.DB, progress *models.SellerProgress, rows []models.RequirementProgress) error {
	result := tx.WithContext(ctx).Model(&models.SellerProgress{}).
		Where("id = ? AND version = ?", progress.ID, progress.Version).
		Updates(map[string]interface{}{
			"active_sequence": progress.ActiveSequence,
			"exhausted":       progress.Exhausted,
			"version":         gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	progress.Version++

	if len(rows) == 0 {
		return nil
	}
	for i := range rows {
		rows[i].ProgressID = progress.ID
	}
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "progress_id"}, {Name: "sequence"}, {Name: "ordem"}},
		DoUpdates: clause.AssignmentColumns([]string{"accumulated", "target"}),
	}).Create(&rows).Error
}

// CountByCampaign 统计参与活动的销售员数量
func (r *ProgressRepository) CountByCampaign(ctx context.Context, campaignID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SellerProgress{}).
		Where("campaign_id = ?", campaignID).
		Count(&count).Error
	return count, err
}

// SaleLineRepository 销售明细仓储
type SaleLineRepository struct {
	db *gorm.DB
}

// NewSaleLineRepository 创建销售明细仓储
func NewSaleLineRepository(db *gorm.DB) *SaleLineRepository {
	return &SaleLineRepository{db: db}
}

// GetByExternalID 根据外部 ID 获取已处理的销售明细
func (r *SaleLineRepository) GetByExternalID(ctx context.Context, campaignID int64, externalID string) (*models.SaleLine, error) {
	var line models.SaleLine
	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND external_id = ?", campaignID, externalID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// Create 记录销售明细
func (r *SaleLineRepository) Create(ctx context.Context, line *models.SaleLine) error {
	return r.CreateTx(ctx, r.db, line)
}

// CreateTx 在事务中记录销售明细
func (r *SaleLineRepository) CreateTx(ctx context.Context, tx *gorm.DB, line *models.SaleLine) error {
	return tx.WithContext(ctx).Create(line).Error
}

// SaleLineListParams 销售明细查询参数
type SaleLineListParams struct {
	Offset     int
	Limit      int
	SellerID   int64
	CampaignID int64
	Outcome    models.SaleOutcome
}

// List 获取销售明细列表
func (r *SaleLineRepository) List(ctx context.Context, params SaleLineListParams) ([]*models.SaleLine, int64, error) {
	var lines []*models.SaleLine
	var total int64

	query := r.db.WithContext(ctx).Model(&models.SaleLine{})
	if params.SellerID > 0 {
		query = query.Where("seller_id = ?", params.SellerID)
	}
	if params.CampaignID > 0 {
		query = query.Where("campaign_id = ?", params.CampaignID)
	}
	if params.Outcome != "" {
		query = query.Where("outcome = ?", params.Outcome)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("id DESC").Offset(params.Offset).Limit(params.Limit).Find(&lines).Error; err != nil {
		return nil, 0, err
	}
	return lines, total, nil
}

// CompletionRepository 卡片完成记录仓储
type CompletionRepository struct {
	db *gorm.DB
}

// NewCompletionRepository 创建卡片完成记录仓储
func NewCompletionRepository(db *gorm.DB) *CompletionRepository {
	return &CompletionRepository{db: db}
}

// CreateTx 在事务中写入完成记录
func (r *CompletionRepository) CreateTx(ctx context.Context, tx *gorm.DB, completion *models.CardCompletion) error {
	return tx.WithContext(ctx).Create(completion).Error
}

// ListBySellerCampaign 获取销售员在活动中的完成记录
func (r *CompletionRepository) ListBySellerCampaign(ctx context.Context, sellerID, campaignID int64) ([]models.CardCompletion, error) {
	var completions []models.CardCompletion
	err := r.db.WithContext(ctx).
		Where("seller_id = ? AND campaign_id = ?", sellerID, campaignID).
		Order("sequence ASC").
		Find(&completions).Error
	return completions, err
}

// CountByCampaign 统计活动的卡片完成数
func (r *CompletionRepository) CountByCampaign(ctx context.Context, campaignID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CardCompletion{}).
		Where("campaign_id = ?", campaignID).
		Count(&count).Error
	return count, err
}
