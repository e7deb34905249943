// Package finance 提供奖励账本查询、对账与导出服务
package finance

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dumeirei/incentive-backend/internal/common/errors"
	"github.com/dumeirei/incentive-backend/internal/common/logger"
	"github.com/dumeirei/incentive-backend/internal/common/utils"
	"github.com/dumeirei/incentive-backend/internal/models"
	"github.com/dumeirei/incentive-backend/internal/repository"
)

// LedgerService 账本服务
type LedgerService struct {
	userRepo       *repository.UserRepository
	campaignRepo   *repository.CampaignRepository
	progressRepo   *repository.ProgressRepository
	completionRepo *repository.CompletionRepository
	ledgerRepo     *repository.LedgerRepository
}

// NewLedgerService 创建账本服务
func NewLedgerService(
	userRepo *repository.UserRepository,
	campaignRepo *repository.CampaignRepository,
	progressRepo *repository.ProgressRepository,
	completionRepo *repository.CompletionRepository,
	ledgerRepo *repository.LedgerRepository,
) *LedgerService {
	return &LedgerService{
		userRepo:       userRepo,
		campaignRepo:   campaignRepo,
		progressRepo:   progressRepo,
		completionRepo: completionRepo,
		ledgerRepo:     ledgerRepo,
	}
}

// KindTotal 单一类型的汇总
type KindTotal struct {
	Kind   models.LedgerKind `json:"kind"`
	Amount decimal.Decimal   `json:"amount"`
	Count  int64             `json:"count"`
}

// Statement 用户账单
type Statement struct {
	UserID            int64           `json:"user_id"`
	Name              string          `json:"name"`
	Role              models.Role     `json:"role"`
	CoinBalance       int64           `json:"coin_balance"`
	RealBalance       decimal.Decimal `json:"real_balance"`
	CommissionBalance decimal.Decimal `json:"commission_balance"`
	Totals            []KindTotal     `json:"totals"`
}

// kindOrder 账单中各类型的展示顺序
var kindOrder = []models.LedgerKind{
	models.LedgerCoins,
	models.LedgerReal,
	models.LedgerCommission,
	models.LedgerRedemption,
	models.LedgerRedemptionRefund,
}

// Statement 获取用户余额与各类型流水汇总
func (s *LedgerService) Statement(ctx context.Context, userID int64) (*Statement, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	sums, err := s.ledgerRepo.SumByKind(ctx, userID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	st := &Statement{
		UserID:            user.ID,
		Name:              user.Name,
		Role:              user.Role,
		CoinBalance:       user.CoinBalance,
		RealBalance:       user.RealBalance,
		CommissionBalance: user.CommissionBalance,
		Totals:            make([]KindTotal, 0, len(kindOrder)),
	}
	for _, kind := range kindOrder {
		t := sums[kind]
		st.Totals = append(st.Totals, KindTotal{Kind: kind, Amount: t.Amount, Count: t.Count})
	}
	return st, nil
}

// CampaignSummary 活动奖励汇总
type CampaignSummary struct {
	CampaignID     int64           `json:"campaign_id"`
	Title          string          `json:"title"`
	Participants   int64           `json:"participants"`
	CardsCompleted int64           `json:"cards_completed"`
	Coins          int64           `json:"coins"`
	Real           decimal.Decimal `json:"real"`
	Commission     decimal.Decimal `json:"commission"`
}

// CampaignSummary 统计活动参与人数、完成卡片数与已发放奖励
func (s *LedgerService) CampaignSummary(ctx context.Context, campaignID int64) (*CampaignSummary, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrCampaignNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	summary := &CampaignSummary{CampaignID: campaign.ID, Title: campaign.Title}
	if summary.Participants, err = s.progressRepo.CountByCampaign(ctx, campaignID); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if summary.CardsCompleted, err = s.completionRepo.CountByCampaign(ctx, campaignID); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	sums, err := s.ledgerRepo.SumByKindForCampaign(ctx, campaignID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	summary.Coins = sums[models.LedgerCoins].Amount.IntPart()
	summary.Real = sums[models.LedgerReal].Amount
	summary.Commission = sums[models.LedgerCommission].Amount
	return summary, nil
}

// ListEntriesRequest 流水列表请求
type ListEntriesRequest struct {
	Page       int
	PageSize   int
	UserID     int64
	CampaignID *int64
	Kind       models.LedgerKind
	StartDate  *time.Time
	EndDate    *time.Time
}

// ListEntries 分页获取账本流水
func (s *LedgerService) ListEntries(ctx context.Context, req *ListEntriesRequest) ([]*models.LedgerEntry, int64, error) {
	if req.Kind != "" && !req.Kind.IsValid() {
		return nil, 0, errors.ErrInvalidParams.WithMessage("无效的流水类型")
	}
	p := utils.Pagination{Page: req.Page, PageSize: req.PageSize}
	p.Normalize()

	list, total, err := s.ledgerRepo.List(ctx, repository.LedgerListParams{
		Offset:     p.Offset(),
		Limit:      p.Limit(),
		UserID:     req.UserID,
		CampaignID: req.CampaignID,
		Kind:       req.Kind,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
	})
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return list, total, nil
}

// Mismatch 余额与流水之差
type Mismatch struct {
	Balance string          `json:"balance"`
	Stored  decimal.Decimal `json:"stored"`
	Ledger  decimal.Decimal `json:"ledger"`
}

// Reconciliation 对账结果
type Reconciliation struct {
	UserID     int64      `json:"user_id"`
	Balanced   bool       `json:"balanced"`
	Mismatches []Mismatch `json:"mismatches,omitempty"`
}

// Reconcile 核对用户余额与账本流水之和，不一致时返回 ErrBalanceMismatch 并附带差异
func (s *LedgerService) Reconcile(ctx context.Context, userID int64) (*Reconciliation, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	sums, err := s.ledgerRepo.SumByKind(ctx, userID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	coins := decimal.Zero
	for kind, t := range sums {
		if kind.IsCoin() {
			coins = coins.Add(t.Amount)
		}
	}

	rec := &Reconciliation{UserID: userID}
	check := func(name string, stored, ledger decimal.Decimal) {
		if !stored.Round(2).Equal(ledger.Round(2)) {
			rec.Mismatches = append(rec.Mismatches, Mismatch{Balance: name, Stored: stored, Ledger: ledger})
		}
	}
	check("coin_balance", decimal.NewFromInt(user.CoinBalance), coins)
	check("real_balance", user.RealBalance, sums[models.LedgerReal].Amount)
	check("commission_balance", user.CommissionBalance, sums[models.LedgerCommission].Amount)

	rec.Balanced = len(rec.Mismatches) == 0
	if !rec.Balanced {
		logger.Warn("余额与流水不一致", logger.UserID(userID), logger.Action("reconcile"))
		return rec, errors.ErrBalanceMismatch.WithDetails(rec.Mismatches)
	}
	return rec, nil
}
