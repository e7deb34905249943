// Package redemption 提供金币兑换奖品服务
package redemption

import (
	"context"
	"crypto/subtle"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/incentive-backend/internal/common/errors"
	"github.com/dumeirei/incentive-backend/internal/common/logger"
	"github.com/dumeirei/incentive-backend/internal/common/metrics"
	"github.com/dumeirei/incentive-backend/internal/common/qrcode"
	"github.com/dumeirei/incentive-backend/internal/common/tracing"
	"github.com/dumeirei/incentive-backend/internal/common/utils"
	"github.com/dumeirei/incentive-backend/internal/common/validation"
	"github.com/dumeirei/incentive-backend/internal/models"
	"github.com/dumeirei/incentive-backend/internal/repository"
)

// voucherCodeLength 兑换凭证码长度
const voucherCodeLength = 8

// Service 兑换服务
type Service struct {
	db             *gorm.DB
	prizeRepo      *repository.PrizeRepository
	redemptionRepo *repository.RedemptionRepository
	userRepo       *repository.UserRepository
	ledgerRepo     *repository.LedgerRepository
	qr             *qrcode.Encoder
	metrics        *metrics.Metrics
	now            func() time.Time
}

// NewService 创建兑换服务
func NewService(
	db *gorm.DB,
	prizeRepo *repository.PrizeRepository,
	redemptionRepo *repository.RedemptionRepository,
	userRepo *repository.UserRepository,
	ledgerRepo *repository.LedgerRepository,
	m *metrics.Metrics,
) *Service {
	return &Service{
		db:             db,
		prizeRepo:      prizeRepo,
		redemptionRepo: redemptionRepo,
		userRepo:       userRepo,
		ledgerRepo:     ledgerRepo,
		qr:             qrcode.NewEncoder(qrcode.WithHighRecovery()),
		metrics:        m,
		now:            time.Now,
	}
}

// PrizeRequest 创建奖品请求
type PrizeRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	CoinCost    int64  `json:"coin_cost" binding:"required"`
	Stock       int    `json:"stock"`
}

// CreatePrize 创建奖品
func (s *Service) CreatePrize(ctx context.Context, req *PrizeRequest) (*models.Prize, error) {
	r := &validation.Result{}
	validation.RuneLength(r, "name", req.Name, 2, 100)
	validation.RuneLength(r, "description", req.Description, 0, 500)
	if req.CoinCost < 1 {
		r.Add("coin_cost", "兑换所需金币必须大于0")
	}
	if req.Stock < 0 {
		r.Add("stock", "库存不能为负数")
	}
	if err := r.ErrAs(errors.ErrInvalidParams); err != nil {
		return nil, err
	}

	prize := &models.Prize{
		Name:        req.Name,
		Description: req.Description,
		CoinCost:    req.CoinCost,
		Stock:       req.Stock,
		Status:      models.StatusActive,
	}
	if err := s.prizeRepo.Create(ctx, prize); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return prize, nil
}

// ListPrizes 获取奖品列表，activeOnly 时仅返回上架奖品
func (s *Service) ListPrizes(ctx context.Context, page, pageSize int, activeOnly bool) ([]*models.Prize, int64, error) {
	p := utils.Pagination{Page: page, PageSize: pageSize}
	p.Normalize()

	var status *int8
	if activeOnly {
		active := models.StatusActive
		status = &active
	}
	list, total, err := s.prizeRepo.List(ctx, p.Offset(), p.Limit(), status)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return list, total, nil
}

// SetPrizeStatus 上架或下架奖品
func (s *Service) SetPrizeStatus(ctx context.Context, id int64, enabled bool) error {
	status := models.StatusDisabled
	if enabled {
		status = models.StatusActive
	}
	if err := s.prizeRepo.UpdateStatus(ctx, id, status); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrPrizeNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// Solicit 申请兑换：扣减金币与库存并记录流水，任一条件不满足时整体回滚
func (s *Service) Solicit(ctx context.Context, sellerID, prizeID int64) (*models.Redemption, error) {
	ctx, span := tracing.StartSpan(ctx, "redemption.solicit",
		tracing.WithSellerID(sellerID),
		tracing.WithOperation("redemption_solicit"),
	)
	defer span.End()

	var redemption *models.Redemption
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seller, err := s.userRepo.GetByIDTx(ctx, tx, sellerID)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.ErrUserNotFound
			}
			return errors.ErrDatabaseError.WithError(err)
		}
		if !seller.IsSeller() {
			return errors.ErrUserNotSeller
		}

		prize, err := s.prizeRepo.GetByIDTx(ctx, tx, prizeID)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.ErrPrizeNotFound
			}
			return errors.ErrDatabaseError.WithError(err)
		}
		if prize.Status != models.StatusActive {
			return errors.ErrPrizeDisabled
		}

		ok, err := s.userRepo.DeductCoinsTx(ctx, tx, sellerID, prize.CoinCost)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if !ok {
			return errors.ErrBalanceInsufficient
		}

		ok, err = s.prizeRepo.DecrementStockTx(ctx, tx, prizeID)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if !ok {
			return errors.ErrPrizeOutOfStock
		}

		redemption = &models.Redemption{
			RedemptionNo: utils.GenerateSerialNo("RD"),
			SellerID:     sellerID,
			PrizeID:      prizeID,
			CoinCost:     prize.CoinCost,
			Status:       models.RedemptionSolicitado,
			VoucherCode:  utils.GenerateVoucherCode(voucherCodeLength),
		}
		if err := s.redemptionRepo.CreateTx(ctx, tx, redemption); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		redemption.Prize = prize

		return s.writeLedger(ctx, tx, redemption, models.LedgerRedemption,
			decimal.NewFromInt(-prize.CoinCost), fmt.Sprintf("兑换 %s", prize.Name))
	})
	if err != nil {
		tracing.SetError(ctx, err)
		return nil, err
	}

	s.record(models.RedemptionSolicitado)
	logger.Info("兑换已申请",
		logger.SellerID(sellerID),
		logger.RedemptionNo(redemption.RedemptionNo),
		zap.Int64("coin_cost", redemption.CoinCost),
	)
	return redemption, nil
}

// Cancel 取消兑换：仅 SOLICITADO 可取消，原额退回金币并恢复库存
// sellerID 为 0 时不校验归属
func (s *Service) Cancel(ctx context.Context, sellerID, id int64) (*models.Redemption, error) {
	ctx, span := tracing.StartSpan(ctx, "redemption.cancel",
		tracing.WithRedemptionID(id),
		tracing.WithOperation("redemption_cancel"),
	)
	defer span.End()

	var redemption *models.Redemption
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		redemption, err = s.loadTx(ctx, tx, sellerID, id)
		if err != nil {
			return err
		}

		now := s.now()
		ok, err := s.redemptionRepo.TransitionTx(ctx, tx, id,
			models.RedemptionSolicitado, models.RedemptionCancelado,
			map[string]interface{}{"cancelled_at": now})
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if !ok {
			return errors.ErrRedemptionStatus
		}

		if err := s.userRepo.RefundCoinsTx(ctx, tx, redemption.SellerID, redemption.CoinCost); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if err := s.prizeRepo.IncrementStockTx(ctx, tx, redemption.PrizeID); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		redemption.Status = models.RedemptionCancelado
		redemption.CancelledAt = &now
		return s.writeLedger(ctx, tx, redemption, models.LedgerRedemptionRefund,
			decimal.NewFromInt(redemption.CoinCost), "取消兑换退回")
	})
	if err != nil {
		tracing.SetError(ctx, err)
		return nil, err
	}

	s.record(models.RedemptionCancelado)
	logger.Info("兑换已取消",
		logger.SellerID(redemption.SellerID),
		logger.RedemptionNo(redemption.RedemptionNo),
	)
	return redemption, nil
}

// MarkSent 标记奖品已发出，仅 SOLICITADO 可操作
func (s *Service) MarkSent(ctx context.Context, id int64) (*models.Redemption, error) {
	var redemption *models.Redemption
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		redemption, err = s.loadTx(ctx, tx, 0, id)
		if err != nil {
			return err
		}

		now := s.now()
		ok, err := s.redemptionRepo.TransitionTx(ctx, tx, id,
			models.RedemptionSolicitado, models.RedemptionEnviado,
			map[string]interface{}{"sent_at": now})
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if !ok {
			return errors.ErrRedemptionStatus
		}
		redemption.Status = models.RedemptionEnviado
		redemption.SentAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(models.RedemptionEnviado)
	logger.Info("兑换已发货", logger.RedemptionNo(redemption.RedemptionNo))
	return redemption, nil
}

// Get 获取兑换记录，sellerID 非 0 时校验归属
func (s *Service) Get(ctx context.Context, sellerID, id int64) (*models.Redemption, error) {
	redemption, err := s.redemptionRepo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrRedemptionNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if sellerID != 0 && redemption.SellerID != sellerID {
		return nil, errors.ErrRedemptionNotFound
	}
	return redemption, nil
}

// ListRequest 兑换记录列表请求
type ListRequest struct {
	Page     int
	PageSize int
	SellerID int64
	Status   models.RedemptionStatus
}

// List 获取兑换记录列表
func (s *Service) List(ctx context.Context, req *ListRequest) ([]*models.Redemption, int64, error) {
	if req.Status != "" && !req.Status.IsValid() {
		return nil, 0, errors.ErrInvalidParams.WithMessage("无效的兑换状态")
	}
	p := utils.Pagination{Page: req.Page, PageSize: req.PageSize}
	p.Normalize()

	list, total, err := s.redemptionRepo.List(ctx, repository.RedemptionListParams{
		Offset:   p.Offset(),
		Limit:    p.Limit(),
		SellerID: req.SellerID,
		Status:   req.Status,
	})
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return list, total, nil
}

// VerifyVoucher 核验扫码得到的凭证内容，返回对应的有效兑换
func (s *Service) VerifyVoucher(ctx context.Context, content string) (*models.Redemption, error) {
	payload, err := qrcode.Parse(content)
	if err != nil {
		return nil, errors.ErrInvalidParams.WithMessage("无效的凭证内容")
	}
	redemption, err := s.redemptionRepo.GetByNo(ctx, payload.RedemptionNo)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrRedemptionNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if subtle.ConstantTimeCompare([]byte(redemption.VoucherCode), []byte(payload.Code)) != 1 {
		return nil, errors.ErrRedemptionNotFound
	}
	if redemption.Status == models.RedemptionCancelado {
		return nil, errors.ErrRedemptionStatus
	}
	return redemption, nil
}

// Voucher 生成销售员本人兑换的领奖凭证二维码（PNG），已取消的兑换不生成
func (s *Service) Voucher(ctx context.Context, sellerID, id int64) ([]byte, error) {
	redemption, err := s.Get(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}
	if redemption.Status == models.RedemptionCancelado {
		return nil, errors.ErrRedemptionStatus
	}
	png, err := s.qr.PNG(voucherPayload(redemption))
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}
	return png, nil
}

// VoucherContent 凭证二维码内容
func VoucherContent(r *models.Redemption) string {
	return voucherPayload(r).String()
}

func voucherPayload(r *models.Redemption) qrcode.Payload {
	return qrcode.Payload{RedemptionNo: r.RedemptionNo, Code: r.VoucherCode}
}

func (s *Service) loadTx(ctx context.Context, tx *gorm.DB, sellerID, id int64) (*models.Redemption, error) {
	redemption, err := s.redemptionRepo.GetByIDTx(ctx, tx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrRedemptionNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if sellerID != 0 && redemption.SellerID != sellerID {
		return nil, errors.ErrRedemptionNotFound
	}
	return redemption, nil
}

func (s *Service) writeLedger(ctx context.Context, tx *gorm.DB, r *models.Redemption, kind models.LedgerKind, amount decimal.Decimal, remark string) error {
	entry := &models.LedgerEntry{
		UserID:       r.SellerID,
		Kind:         kind,
		Amount:       amount,
		RedemptionID: utils.Ptr(r.ID),
		Remark:       remark,
	}
	if err := s.ledgerRepo.CreateTx(ctx, tx, entry); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

func (s *Service) record(status models.RedemptionStatus) {
	if s.metrics != nil {
		s.metrics.RecordRedemption(string(status))
	}
}
