package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "[9006] 活动不存在", ErrCampaignNotFound.Error())
	assert.Equal(t, "[1004] 数据库错误: conexão recusada",
		ErrDatabaseError.WithError(stderrors.New("conexão recusada")).Error())
}

func TestAppError_DerivedCopies(t *testing.T) {
	cause := stderrors.New("estoque zerado")
	details := []string{"prize_id"}

	derived := ErrPrizeOutOfStock.WithMessage("奖品 7 库存不足").WithError(cause).WithDetails(details)

	assert.Equal(t, ErrPrizeOutOfStock.Code, derived.Code)
	assert.Equal(t, "奖品 7 库存不足", derived.Message)
	assert.Equal(t, details, derived.Details)
	assert.Same(t, cause, derived.Unwrap())

	assert.Equal(t, "奖品库存不足", ErrPrizeOutOfStock.Message)
	assert.Nil(t, ErrPrizeOutOfStock.Err)
	assert.Nil(t, ErrPrizeOutOfStock.Details)
}

func TestAppError_Is(t *testing.T) {
	derived := ErrRedemptionStatus.WithMessage("已发货的兑换不能取消")
	assert.ErrorIs(t, derived, ErrRedemptionStatus)
	assert.NotErrorIs(t, derived, ErrRedemptionNotFound)

	wrapped := fmt.Errorf("cancelar: %w", derived)
	assert.ErrorIs(t, wrapped, ErrRedemptionStatus)

	cause := stderrors.New("deadlock")
	assert.ErrorIs(t, ErrDatabaseError.WithError(cause), cause)
}

func TestGetAppError(t *testing.T) {
	t.Run("错误链中的业务错误", func(t *testing.T) {
		err := fmt.Errorf("processar venda: %w", ErrProgressLocked)
		assert.True(t, IsAppError(err))
		assert.Equal(t, ErrProgressLocked.Code, GetAppError(err).Code)
	})

	t.Run("普通错误包装为未知错误", func(t *testing.T) {
		cause := stderrors.New("boom")
		assert.False(t, IsAppError(cause))
		appErr := GetAppError(cause)
		require.NotNil(t, appErr)
		assert.Equal(t, ErrUnknown.Code, appErr.Code)
		assert.Same(t, cause, appErr.Err)
	})

	t.Run("nil", func(t *testing.T) {
		assert.False(t, IsAppError(nil))
	})
}

func TestErrorCodesUnique(t *testing.T) {
	all := []*AppError{
		ErrUnknown, ErrInvalidParams, ErrNotFound, ErrDatabaseError, ErrCacheError,
		ErrInternalError, ErrRateLimitExceed, ErrExportFailed,
		ErrUserNotFound, ErrUserNotSeller, ErrOpticianNotFound, ErrBalanceInsufficient, ErrBalanceMismatch,
		ErrCampaignNotFound, ErrDefinitionInvalid, ErrCardNotFound, ErrUnsupportedCondition,
		ErrProgressConflict, ErrProgressLocked, ErrProgressNotFound,
		ErrEventNotFound, ErrEventInvalid, ErrEventOverlap, ErrEventLocked,
		ErrPrizeNotFound, ErrPrizeOutOfStock, ErrPrizeDisabled, ErrRedemptionNotFound, ErrRedemptionStatus,
	}
	seen := map[int]string{}
	for _, e := range all {
		prev, dup := seen[e.Code]
		assert.False(t, dup, "错误码 %d 重复: %s / %s", e.Code, prev, e.Message)
		seen[e.Code] = e.Message
		assert.NotEmpty(t, e.Message)
	}
}
