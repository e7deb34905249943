package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dumeirei/incentive-backend/internal/models"
)

// LedgerRepository 奖励账本仓储
type LedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository 创建账本仓储
func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Create 写入账本条目
func (r *LedgerRepository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	return r.CreateTx(ctx, r.db, entry)
}

// CreateTx 在事务中写入账本条目
func (r *LedgerRepository) CreateTx(ctx context.Context, tx *gorm.DB, entry *models.LedgerEntry) error {
	return tx.WithContext(ctx).Create(entry).Error
}

// LedgerListParams 账本查询参数
type LedgerListParams struct {
	Offset     int
	Limit      int
	UserID     int64
	CampaignID *int64
	Kind       models.LedgerKind
	StartDate  *time.Time
	EndDate    *time.Time
}

// List 获取账本条目列表
func (r *LedgerRepository) List(ctx context.Context, params LedgerListParams) ([]*models.LedgerEntry, int64, error) {
	var entries []*models.LedgerEntry
	var total int64

	query := r.db.WithContext(ctx).Model(&models.LedgerEntry{})
	if params.UserID > 0 {
		query = query.Where("user_id = ?", params.UserID)
	}
	if params.CampaignID != nil {
		query = query.Where("campaign_id = ?", *params.CampaignID)
	}
	if params.Kind != "" {
		query = query.Where("kind = ?", params.Kind)
	}
	if params.StartDate != nil {
		query = query.Where("created_at >= ?", *params.StartDate)
	}
	if params.EndDate != nil {
		query = query.Where("created_at <= ?", *params.EndDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("id DESC").Offset(params.Offset).Limit(params.Limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// KindTotal 按类型汇总的金额
type KindTotal struct {
	Kind   models.LedgerKind
	Amount decimal.Decimal
	Count  int64
}

type kindTotalRow struct {
	Kind   string
	Amount float64
	Count  int64
}

// SumByKind 按类型汇总用户账本
func (r *LedgerRepository) SumByKind(ctx context.Context, userID int64) (map[models.LedgerKind]KindTotal, error) {
	return r.sumByKind(ctx, "user_id = ?", userID)
}

// SumByKindForCampaign 按类型汇总活动产生的账本
func (r *LedgerRepository) SumByKindForCampaign(ctx context.Context, campaignID int64) (map[models.LedgerKind]KindTotal, error) {
	return r.sumByKind(ctx, "campaign_id = ?", campaignID)
}

func (r *LedgerRepository) sumByKind(ctx context.Context, where string, arg interface{}) (map[models.LedgerKind]KindTotal, error) {
	var rows []kindTotalRow
	err := r.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Select("kind, COALESCE(SUM(amount), 0) AS amount, COUNT(*) AS count").
		Where(where, arg).
		Group("kind").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := make(map[models.LedgerKind]KindTotal, len(rows))
	for _, row := range rows {
		kind := models.LedgerKind(row.Kind)
		totals[kind] = KindTotal{
			Kind:   kind,
			Amount: decimal.NewFromFloat(row.Amount).Round(2),
			Count:  row.Count,
		}
	}
	return totals, nil
}
