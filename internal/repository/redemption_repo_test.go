package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dumeirei/incentive-backend/internal/models"
)

func TestRedemptionRepository_Transition(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRedemptionRepository(db)
	ctx := context.Background()

	prize := &models.Prize{Name: "Mochila", CoinCost: 5000, Stock: 3, Status: models.StatusActive}
	require.NoError(t, db.Create(prize).Error)

	redemption := &models.Redemption{
		RedemptionNo: "RD20260301000001",
		SellerID:     1,
		PrizeID:      prize.ID,
		CoinCost:     prize.CoinCost,
		Status:       models.RedemptionSolicitado,
		VoucherCode:  "ABCD2345",
	}
	require.NoError(t, repo.CreateTx(ctx, db, redemption))

	got, err := repo.GetByNo(ctx, "RD20260301000001")
	require.NoError(t, err)
	require.NotNil(t, got.Prize)
	assert.Equal(t, "Mochila", got.Prize.Name)

	now := time.Now().UTC()
	ok, err := repo.TransitionTx(ctx, db, redemption.ID, models.RedemptionSolicitado, models.RedemptionEnviado,
		map[string]interface{}{"sent_at": now})
	require.NoError(t, err)
	assert.True(t, ok)

	t.Run("状态不符时不迁移", func(t *testing.T) {
		ok, err := repo.TransitionTx(ctx, db, redemption.ID, models.RedemptionSolicitado, models.RedemptionCancelado, nil)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	got, err = repo.GetByID(ctx, redemption.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionEnviado, got.Status)
	assert.NotNil(t, got.SentAt)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRedemptionRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRedemptionRepository(db)
	ctx := context.Background()

	for i, status := range []models.RedemptionStatus{models.RedemptionSolicitado, models.RedemptionCancelado, models.RedemptionSolicitado} {
		r := &models.Redemption{
			RedemptionNo: "RD" + string(rune('A'+i)),
			SellerID:     1,
			PrizeID:      1,
			CoinCost:     100,
			Status:       status,
			VoucherCode:  "CODE",
		}
		require.NoError(t, repo.CreateTx(ctx, db, r))
	}

	_, total, err := repo.List(ctx, RedemptionListParams{Limit: 10, SellerID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	list, total, err := repo.List(ctx, RedemptionListParams{Limit: 10, SellerID: 1, Status: models.RedemptionSolicitado})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "RDC", list[0].RedemptionNo)
}
