package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/incentive-backend/internal/models"
)

// EventRepository 特殊活动仓储
type EventRepository struct {
	db *gorm.DB
}

// NewEventRepository 创建特殊活动仓储
func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// CreateTx 在事务中创建特殊活动
func (r *EventRepository) CreateTx(ctx context.Context, tx *gorm.DB, event *models.SpecialEvent) error {
	return tx.WithContext(ctx).Create(event).Error
}

// GetByID 根据 ID 获取特殊活动
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.SpecialEvent, error) {
	var event models.SpecialEvent
	err := r.db.WithContext(ctx).First(&event, id).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// SaveTx 在事务中保存特殊活动
func (r *EventRepository) SaveTx(ctx context.Context, tx *gorm.DB, event *models.SpecialEvent) error {
	return tx.WithContext(ctx).Save(event).Error
}

// Delete 删除特殊活动
func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.SpecialEvent{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByCampaign 获取活动下的全部特殊活动，按开始时间排序
func (r *EventRepository) ListByCampaign(ctx context.Context, campaignID int64) ([]models.SpecialEvent, error) {
	return r.ListByCampaignTx(ctx, r.db, campaignID)
}

// ListByCampaignTx 在事务中获取活动下的全部特殊活动
func (r *EventRepository) ListByCampaignTx(ctx context.Context, tx *gorm.DB, campaignID int64) ([]models.SpecialEvent, error) {
	var events []models.SpecialEvent
	err := tx.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("start_at ASC, id ASC").
		Find(&events).Error
	return events, err
}

// ListActiveAt 获取 at 时刻生效的启用中特殊活动
func (r *EventRepository) ListActiveAt(ctx context.Context, at time.Time) ([]models.SpecialEvent, error) {
	var events []models.SpecialEvent
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Where("start_at <= ? AND end_at >= ?", at, at).
		Order("campaign_id ASC, start_at ASC").
		Find(&events).Error
	return events, err
}

// ListChangedBetween 获取在 (from, to] 区间内开始或结束的启用中特殊活动
func (r *EventRepository) ListChangedBetween(ctx context.Context, from, to time.Time) ([]models.SpecialEvent, error) {
	var events []models.SpecialEvent
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Where("(start_at > ? AND start_at <= ?) OR (end_at > ? AND end_at <= ?)", from, to, from, to).
		Order("start_at ASC").
		Find(&events).Error
	return events, err
}
