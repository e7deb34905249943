package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dumeirei/incentive-backend/internal/models"
)

func newTestEvent(campaignID int64, start time.Time, hours int, active bool) *models.SpecialEvent {
	return &models.SpecialEvent{
		CampaignID:     campaignID,
		Name:           "Dobro de moedas",
		Multiplier:     decimal.NewFromInt(2),
		StartAt:        start,
		EndAt:          start.Add(time.Duration(hours) * time.Hour),
		Active:         active,
		HighlightColor: "#FF0000",
	}
}

func TestEventRepository_CRUD(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	event := newTestEvent(1, start, 2, true)
	require.NoError(t, repo.CreateTx(ctx, db, event))
	require.NotZero(t, event.ID)

	got, err := repo.GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)
	assert.True(t, got.Multiplier.Equal(decimal.NewFromInt(2)))

	t.Run("暂停后保存", func(t *testing.T) {
		got.Active = false
		got.Multiplier = decimal.RequireFromString("1.5")
		require.NoError(t, repo.SaveTx(ctx, db, got))

		reloaded, err := repo.GetByID(ctx, event.ID)
		require.NoError(t, err)
		assert.False(t, reloaded.Active)
		assert.Equal(t, "1.50", reloaded.Multiplier.StringFixed(2))
	})

	t.Run("删除", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, event.ID))
		_, err := repo.GetByID(ctx, event.ID)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, event.ID), gorm.ErrRecordNotFound)
	})
}

func TestEventRepository_Lists(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	e1 := newTestEvent(1, base.Add(10*time.Hour), 2, true)  // 10:00-12:00
	e2 := newTestEvent(1, base.Add(1*time.Hour), 2, true)   // 01:00-03:00
	e3 := newTestEvent(1, base.Add(10*time.Hour), 4, false) // 已暂停
	e4 := newTestEvent(2, base.Add(11*time.Hour), 2, true)  // 其他活动 11:00-13:00
	for _, e := range []*models.SpecialEvent{e1, e2, e3, e4} {
		require.NoError(t, repo.CreateTx(ctx, db, e))
	}

	t.Run("按活动列出并排序", func(t *testing.T) {
		events, err := repo.ListByCampaign(ctx, 1)
		require.NoError(t, err)
		require.Len(t, events, 3)
		assert.Equal(t, e2.ID, events[0].ID)
	})

	t.Run("某时刻生效", func(t *testing.T) {
		events, err := repo.ListActiveAt(ctx, base.Add(11*time.Hour+30*time.Minute))
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, e1.ID, events[0].ID)
		assert.Equal(t, e4.ID, events[1].ID)
	})

	t.Run("区间内开始或结束", func(t *testing.T) {
		events, err := repo.ListChangedBetween(ctx, base.Add(9*time.Hour), base.Add(12*time.Hour))
		require.NoError(t, err)
		ids := []int64{}
		for _, e := range events {
			ids = append(ids, e.ID)
		}
		assert.ElementsMatch(t, []int64{e1.ID, e4.ID}, ids)
	})
}
