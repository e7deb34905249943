package progression

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/incentive-backend/internal/common/cache"
	"github.com/dumeirei/incentive-backend/internal/common/errors"
	"github.com/dumeirei/incentive-backend/internal/common/logger"
	"github.com/dumeirei/incentive-backend/internal/common/metrics"
	"github.com/dumeirei/incentive-backend/internal/common/tracing"
	"github.com/dumeirei/incentive-backend/internal/common/utils"
	"github.com/dumeirei/incentive-backend/internal/models"
	"github.com/dumeirei/incentive-backend/internal/repository"
	"github.com/dumeirei/incentive-backend/internal/service/event"
	"github.com/dumeirei/incentive-backend/internal/service/rules"
)

// CampaignSource 活动树来源
type CampaignSource interface {
	Get(ctx context.Context, id int64) (*models.Campaign, error)
}

// Publisher 奖励事件发布
type Publisher interface {
	PublishWithContext(ctx context.Context, topic string, payload interface{}) error
}

// Repositories 进度服务依赖的仓储
type Repositories struct {
	Users       *repository.UserRepository
	Events      *repository.EventRepository
	Progress    *repository.ProgressRepository
	Sales       *repository.SaleLineRepository
	Completions *repository.CompletionRepository
	Ledger      *repository.LedgerRepository
}

// Options 进度服务可选配置
type Options struct {
	Locker   cache.Locker
	Metrics  *metrics.Metrics
	Pub      Publisher
	Topic    string
	LockTTL  time.Duration
	LockWait time.Duration
}

// Service 进度服务
type Service struct {
	db        *gorm.DB
	campaigns CampaignSource
	repos     Repositories
	locker    cache.Locker
	metrics   *metrics.Metrics
	pub       Publisher
	topic     string
	lockTTL   time.Duration
	lockWait  time.Duration
	now       func() time.Time
}

// NewService 创建进度服务
func NewService(db *gorm.DB, campaigns CampaignSource, repos Repositories, opts Options) *Service {
	if opts.Locker == nil {
		opts.Locker = cache.NewLocalLocker()
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 10 * time.Second
	}
	if opts.LockWait <= 0 {
		opts.LockWait = 2 * time.Second
	}
	return &Service{
		db:        db,
		campaigns: campaigns,
		repos:     repos,
		locker:    opts.Locker,
		metrics:   opts.Metrics,
		pub:       opts.Pub,
		topic:     opts.Topic,
		lockTTL:   opts.LockTTL,
		lockWait:  opts.LockWait,
		now:       time.Now,
	}
}

// MaxSaleQuantity 单条销售明细允许的最大数量
const MaxSaleQuantity = 10000

// SaleInput 销售明细
type SaleInput struct {
	ExternalID  string          `json:"external_id" binding:"required,max=64"`
	CampaignID  int64           `json:"campaign_id" binding:"required"`
	SellerID    int64           `json:"seller_id" binding:"required"`
	ProductName string          `json:"product_name" binding:"max=255"`
	ProductCode string          `json:"product_code" binding:"max=100"`
	Category    string          `json:"category" binding:"max=100"`
	Value       decimal.Decimal `json:"value"`
	Quantity    int             `json:"quantity" binding:"required,min=1,max=10000"`
	SoldAt      time.Time       `json:"sold_at"`
}

func (in *SaleInput) check() error {
	switch {
	case strings.TrimSpace(in.ExternalID) == "" || len(in.ExternalID) > 64:
		return errors.ErrInvalidParams.WithMessage("external_id 不能为空且不超过64个字符")
	case in.CampaignID <= 0:
		return errors.ErrInvalidParams.WithMessage("无效的活动ID")
	case in.SellerID <= 0:
		return errors.ErrInvalidParams.WithMessage("无效的销售员ID")
	case in.Quantity < 1:
		return errors.ErrInvalidParams.WithMessage("数量必须大于0")
	case in.Quantity > MaxSaleQuantity:
		return errors.ErrInvalidParams.WithMessage(fmt.Sprintf("数量不能超过%d", MaxSaleQuantity))
	case in.Value.IsNegative():
		return errors.ErrInvalidParams.WithMessage("销售金额不能为负数")
	}
	return nil
}

func (in *SaleInput) fact() rules.Fact {
	return rules.Fact{
		ProductName: in.ProductName,
		ProductCode: in.ProductCode,
		Category:    in.Category,
		Value:       in.Value,
	}
}

func (in *SaleInput) line(outcome models.SaleOutcome, reason string) *models.SaleLine {
	return &models.SaleLine{
		ExternalID:  in.ExternalID,
		CampaignID:  in.CampaignID,
		SellerID:    in.SellerID,
		ProductName: in.ProductName,
		ProductCode: in.ProductCode,
		Category:    in.Category,
		Value:       in.Value.Round(2),
		Quantity:    in.Quantity,
		SoldAt:      in.SoldAt.UTC(),
		Outcome:     outcome,
		SkipReason:  reason,
	}
}

// CompletedCard 本次销售完成的卡片及其奖励
type CompletedCard struct {
	Sequence    int       `json:"sequence"`
	Reward      Reward    `json:"reward"`
	EventID     *int64    `json:"event_id,omitempty"`
	ManagerID   *int64    `json:"manager_id,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// SaleResult 销售明细处理结果
type SaleResult struct {
	ExternalID     string             `json:"external_id"`
	Outcome        models.SaleOutcome `json:"outcome"`
	SkipReason     string             `json:"skip_reason,omitempty"`
	Duplicate      bool               `json:"duplicate"`
	UnitsAllocated int                `json:"units_allocated"`
	UnitsDiscarded int                `json:"units_discarded"`
	CardsCompleted int                `json:"cards_completed"`
	Allocations    []Allocation       `json:"allocations,omitempty"`
	Completions    []CompletedCard    `json:"completions,omitempty"`
}

func resultFromLine(line *models.SaleLine, duplicate bool) *SaleResult {
	return &SaleResult{
		ExternalID:     line.ExternalID,
		Outcome:        line.Outcome,
		SkipReason:     line.SkipReason,
		Duplicate:      duplicate,
		UnitsAllocated: line.UnitsAllocated,
		UnitsDiscarded: line.UnitsDiscarded,
		CardsCompleted: line.CardsCompleted,
	}
}

// RewardCredited 卡片完成奖励入账事件
type RewardCredited struct {
	ExternalID  string          `json:"external_id"`
	CampaignID  int64           `json:"campaign_id"`
	SellerID    int64           `json:"seller_id"`
	Sequence    int             `json:"sequence"`
	Coins       int64           `json:"coins"`
	Real        decimal.Decimal `json:"real"`
	Commission  decimal.Decimal `json:"commission"`
	ManagerID   *int64          `json:"manager_id,omitempty"`
	Multiplier  decimal.Decimal `json:"multiplier"`
	EventID     *int64          `json:"event_id,omitempty"`
	CompletedAt time.Time       `json:"completed_at"`
}

// ProcessSale 处理一条销售明细：匹配条件、分配数量、推进卡片并发放奖励
// 同一活动内 external_id 重复时直接返回首次处理结果
func (s *Service) ProcessSale(ctx context.Context, in SaleInput) (*SaleResult, error) {
	if err := in.check(); err != nil {
		return nil, err
	}
	if in.SoldAt.IsZero() {
		in.SoldAt = s.now()
	}

	ctx, span := tracing.StartSpan(ctx, "progression.process_sale",
		tracing.WithCampaignID(in.CampaignID),
		tracing.WithSellerID(in.SellerID),
		tracing.WithOperation("process_sale"),
	)
	defer span.End()
	start := time.Now()

	if res, err := s.lookup(ctx, in); res != nil || err != nil {
		return res, err
	}

	campaign, err := s.campaigns.Get(ctx, in.CampaignID)
	if err != nil {
		return nil, err
	}
	seller, err := s.repos.Users.GetWithOptician(ctx, in.SellerID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if reason := skipReason(campaign, seller, in.SoldAt); reason != "" {
		res, err := s.recordSkipped(ctx, in, reason)
		if err == nil && !res.Duplicate {
			s.observe(res, campaign, start)
		}
		return res, err
	}

	key := cache.BuildKey(cache.KeyPrefixProgress,
		strconv.FormatInt(in.SellerID, 10), strconv.FormatInt(in.CampaignID, 10))
	release, err := s.locker.Acquire(ctx, key, s.lockTTL, s.lockWait)
	if err != nil {
		if stderrors.Is(err, cache.ErrLockNotObtained) {
			return nil, errors.ErrProgressLocked
		}
		return nil, errors.ErrCacheError.WithError(err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("释放进度锁失败", logger.SellerID(in.SellerID), logger.CampaignID(in.CampaignID), logger.Err(err))
		}
	}()

	// 等锁期间可能已有相同明细处理完成
	if res, err := s.lookup(ctx, in); res != nil || err != nil {
		return res, err
	}

	res, events, err := s.apply(ctx, in, campaign, seller)
	if err != nil {
		tracing.SetError(ctx, err)
		return nil, err
	}

	s.observe(res, campaign, start)
	s.publish(ctx, events)
	if res.Outcome == models.SaleProcessed {
		logger.Info("销售明细已处理",
			logger.ExternalID(in.ExternalID),
			logger.SellerID(in.SellerID),
			logger.CampaignID(in.CampaignID),
			zap.Int("units_allocated", res.UnitsAllocated),
			zap.Int("cards_completed", res.CardsCompleted),
		)
	}
	return res, nil
}

// lookup 查询已处理的明细，未处理返回 nil, nil
func (s *Service) lookup(ctx context.Context, in SaleInput) (*SaleResult, error) {
	line, err := s.repos.Sales.GetByExternalID(ctx, in.CampaignID, in.ExternalID)
	if err == nil {
		return resultFromLine(line, true), nil
	}
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, errors.ErrDatabaseError.WithError(err)
}

// skipReason 不计入进度的原因，按活动状态、时间、角色、门店依次判断
func skipReason(c *models.Campaign, seller *models.User, at time.Time) string {
	switch {
	case !c.IsEnabled():
		return models.SkipCampaignDisabled
	case !c.InPeriod(at):
		return models.SkipOutOfPeriod
	case !seller.IsSeller():
		return models.SkipNotSeller
	case seller.OpticianID == nil || !c.Targets(*seller.OpticianID):
		return models.SkipNotTargeted
	}
	return ""
}

// recordSkipped 记录跳过的明细；并发写入同一明细时返回已存在的记录
func (s *Service) recordSkipped(ctx context.Context, in SaleInput, reason string) (*SaleResult, error) {
	line := in.line(models.SaleSkipped, reason)
	if err := s.repos.Sales.Create(ctx, line); err != nil {
		if existing, getErr := s.repos.Sales.GetByExternalID(ctx, in.CampaignID, in.ExternalID); getErr == nil {
			return resultFromLine(existing, true), nil
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	logger.Info("销售明细已跳过",
		logger.ExternalID(in.ExternalID),
		logger.SellerID(in.SellerID),
		logger.CampaignID(in.CampaignID),
		zap.String("reason", reason),
	)
	return resultFromLine(line, false), nil
}

// apply 在单个事务内完成进度推进、奖励入账与明细记录
func (s *Service) apply(ctx context.Context, in SaleInput, campaign *models.Campaign, seller *models.User) (*SaleResult, []RewardCredited, error) {
	plan := NewPlan(campaign)
	var managerID *int64
	if seller.Optician != nil {
		managerID = seller.Optician.ManagerID
	}

	var (
		res    *SaleResult
		events []RewardCredited
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		progress, err := s.repos.Progress.GetOrCreateTx(ctx, tx, in.SellerID, in.CampaignID)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		track := restoreTrack(plan, progress)

		if managerID, err = s.resolveManager(ctx, tx, in, managerID); err != nil {
			return err
		}

		if track.Exhausted {
			line := in.line(models.SaleSkipped, models.SkipTrackExhausted)
			if err := s.repos.Sales.CreateTx(ctx, tx, line); err != nil {
				return errors.ErrDatabaseError.WithError(err)
			}
			res = resultFromLine(line, false)
			return nil
		}

		allocations, err := track.Apply(in.Quantity, rules.Matcher(in.fact()))
		if err != nil {
			if !isConfigError(err) {
				return err
			}
			logger.Error("活动配置错误，销售明细未计入",
				logger.ExternalID(in.ExternalID),
				logger.CampaignID(in.CampaignID),
				logger.Err(err),
			)
			line := in.line(models.SaleSkipped, models.SkipConfigError)
			if err := s.repos.Sales.CreateTx(ctx, tx, line); err != nil {
				return errors.ErrDatabaseError.WithError(err)
			}
			res = resultFromLine(line, false)
			return nil
		}
		completions := track.Advance(in.SoldAt)

		line := in.line(models.SaleProcessed, "")
		for _, a := range allocations {
			line.UnitsAllocated += a.Allocated()
			line.UnitsDiscarded += a.Discarded
		}
		line.CardsCompleted = len(completions)
		if err := s.repos.Sales.CreateTx(ctx, tx, line); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		res = resultFromLine(line, false)
		res.Allocations = allocations

		var specials []models.SpecialEvent
		if len(completions) > 0 {
			specials, err = s.repos.Events.ListByCampaignTx(ctx, tx, in.CampaignID)
			if err != nil {
				return errors.ErrDatabaseError.WithError(err)
			}
		}
		for _, c := range completions {
			card, err := s.credit(ctx, tx, campaign, seller.ID, managerID, line.ID, c, specials)
			if err != nil {
				return err
			}
			res.Completions = append(res.Completions, card)
			events = append(events, RewardCredited{
				ExternalID:  in.ExternalID,
				CampaignID:  in.CampaignID,
				SellerID:    in.SellerID,
				Sequence:    card.Sequence,
				Coins:       card.Reward.Coins,
				Real:        card.Reward.Real,
				Commission:  card.Reward.Commission,
				ManagerID:   card.ManagerID,
				Multiplier:  card.Reward.Multiplier,
				EventID:     card.EventID,
				CompletedAt: card.CompletedAt,
			})
		}

		progress.ActiveSequence = track.ActiveSequence
		progress.Exhausted = track.Exhausted
		if err := s.repos.Progress.SaveTx(ctx, tx, progress, touchedRows(track, allocations)); err != nil {
			if stderrors.Is(err, repository.ErrVersionConflict) {
				return errors.ErrProgressConflict
			}
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
	if err != nil {
		if errors.IsAppError(err) {
			return nil, nil, err
		}
		return nil, nil, errors.ErrDatabaseError.WithError(err)
	}
	return res, events, nil
}

// resolveManager 确认门店经理仍存在，不存在时不发放佣金
func (s *Service) resolveManager(ctx context.Context, tx *gorm.DB, in SaleInput, managerID *int64) (*int64, error) {
	if managerID == nil {
		return nil, nil
	}
	_, err := s.repos.Users.GetByIDTx(ctx, tx, *managerID)
	switch {
	case err == nil:
		return managerID, nil
	case stderrors.Is(err, gorm.ErrRecordNotFound):
		logger.Warn("门店经理不存在，跳过佣金",
			logger.ExternalID(in.ExternalID),
			logger.SellerID(in.SellerID),
			logger.UserID(*managerID),
		)
		return nil, nil
	default:
		return nil, errors.ErrDatabaseError.WithError(err)
	}
}

// credit 写入卡片完成记录、账本条目并增加余额
func (s *Service) credit(
	ctx context.Context,
	tx *gorm.DB,
	campaign *models.Campaign,
	sellerID int64,
	managerID *int64,
	lineID int64,
	c Completion,
	specials []models.SpecialEvent,
) (CompletedCard, error) {
	multiplier, source := event.Resolve(specials, c.CompletedAt)
	reward := ComputeReward(campaign, multiplier)
	var eventID *int64
	if source != nil {
		eventID = utils.Ptr(source.ID)
	}

	card := CompletedCard{
		Sequence:    c.Sequence,
		Reward:      reward,
		EventID:     eventID,
		CompletedAt: c.CompletedAt,
	}
	payCommission := managerID != nil && reward.Commission.IsPositive()
	if payCommission {
		card.ManagerID = managerID
	}

	completion := &models.CardCompletion{
		SellerID:    sellerID,
		CampaignID:  campaign.ID,
		Sequence:    c.Sequence,
		SaleLineID:  lineID,
		Multiplier:  reward.Multiplier,
		EventID:     eventID,
		Coins:       reward.Coins,
		Real:        reward.Real,
		Commission:  reward.Commission,
		ManagerID:   card.ManagerID,
		CompletedAt: c.CompletedAt.UTC(),
	}
	if err := s.repos.Completions.CreateTx(ctx, tx, completion); err != nil {
		return card, errors.ErrDatabaseError.WithError(err)
	}

	entry := func(userID int64, kind models.LedgerKind, amount decimal.Decimal) *models.LedgerEntry {
		m := reward.Multiplier
		return &models.LedgerEntry{
			UserID:       userID,
			Kind:         kind,
			Amount:       amount,
			CampaignID:   utils.Ptr(campaign.ID),
			CardSequence: utils.Ptr(c.Sequence),
			Multiplier:   &m,
			EventID:      eventID,
			Remark:       fmt.Sprintf("完成第%d张卡片", c.Sequence),
		}
	}

	entries := []*models.LedgerEntry{
		entry(sellerID, models.LedgerCoins, decimal.NewFromInt(reward.Coins)),
		entry(sellerID, models.LedgerReal, reward.Real),
	}
	if err := s.repos.Users.CreditRewardsTx(ctx, tx, sellerID, reward.Coins, reward.Real); err != nil {
		return card, errors.ErrDatabaseError.WithError(err)
	}
	if payCommission {
		if err := s.repos.Users.CreditCommissionTx(ctx, tx, *managerID, reward.Commission); err != nil {
			return card, errors.ErrDatabaseError.WithError(err)
		}
		entries = append(entries, entry(*managerID, models.LedgerCommission, reward.Commission))
	}
	for _, e := range entries {
		if err := s.repos.Ledger.CreateTx(ctx, tx, e); err != nil {
			return card, errors.ErrDatabaseError.WithError(err)
		}
	}
	return card, nil
}

// restoreTrack 由持久化进度重建 Track
func restoreTrack(plan *Plan, p *models.SellerProgress) *Track {
	track := NewTrack(plan)
	if p.ActiveSequence > 0 {
		track.ActiveSequence = p.ActiveSequence
	}
	track.Exhausted = p.Exhausted
	entries := make([]Entry, 0, len(p.Requirements))
	for _, r := range p.Requirements {
		entries = append(entries, Entry{Sequence: r.Sequence, Ordem: r.Ordem, Accumulated: r.Accumulated, Target: r.Target})
	}
	track.Restore(entries)
	return track
}

// touchedRows 本次分配涉及的要求累计行
func touchedRows(track *Track, allocations []Allocation) []models.RequirementProgress {
	seen := make(map[slot]struct{})
	var rows []models.RequirementProgress
	for _, a := range allocations {
		for _, c := range a.Credits {
			k := slot{c.Sequence, c.Ordem}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			target, _ := track.Plan.TargetFor(c.Sequence, c.Ordem)
			rows = append(rows, models.RequirementProgress{
				Sequence:    c.Sequence,
				Ordem:       c.Ordem,
				Accumulated: track.Accumulated(c.Sequence, c.Ordem),
				Target:      target,
			})
		}
	}
	return rows
}

func isConfigError(err error) bool {
	return stderrors.Is(err, errors.ErrUnsupportedCondition) || stderrors.Is(err, errors.ErrDefinitionInvalid)
}

func (s *Service) observe(res *SaleResult, campaign *models.Campaign, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordSaleLine(strings.ToLower(string(res.Outcome)), time.Since(start))
	s.metrics.RecordUnits(res.UnitsAllocated, res.UnitsDiscarded)
	for _, c := range res.Completions {
		s.metrics.RecordCardCompleted(string(campaign.CardMode))
		s.metrics.RecordReward(string(models.LedgerCoins), float64(c.Reward.Coins))
		s.metrics.RecordReward(string(models.LedgerReal), c.Reward.Real.InexactFloat64())
		if c.ManagerID != nil {
			s.metrics.RecordReward(string(models.LedgerCommission), c.Reward.Commission.InexactFloat64())
		}
	}
}

// publish 发布奖励事件，失败只记录日志
func (s *Service) publish(ctx context.Context, events []RewardCredited) {
	if s.pub == nil || s.topic == "" {
		return
	}
	for _, e := range events {
		err := s.pub.PublishWithContext(ctx, s.topic, e)
		if s.metrics != nil {
			s.metrics.RecordPublish(s.topic, err)
		}
		if err != nil {
			logger.Warn("发布奖励事件失败",
				logger.SellerID(e.SellerID),
				logger.CampaignID(e.CampaignID),
				logger.CardSequence(e.Sequence),
				logger.Err(err),
			)
		}
	}
}

// BatchItem 批量处理中单条明细的结果
type BatchItem struct {
	ExternalID string      `json:"external_id"`
	Result     *SaleResult `json:"result,omitempty"`
	Code       int         `json:"code"`
	Message    string      `json:"message,omitempty"`
}

// ProcessBatch 逐条处理销售明细，单条失败不影响其余明细
func (s *Service) ProcessBatch(ctx context.Context, inputs []SaleInput) []BatchItem {
	items := make([]BatchItem, 0, len(inputs))
	for _, in := range inputs {
		item := BatchItem{ExternalID: in.ExternalID}
		res, err := s.ProcessSale(ctx, in)
		if err != nil {
			appErr := errors.GetAppError(err)
			if appErr == nil {
				appErr = errors.ErrInternalError
			}
			item.Code = appErr.Code
			item.Message = appErr.Message
		} else {
			item.Result = res
		}
		items = append(items, item)
	}
	return items
}

// GetSnapshot 获取销售员在活动中的进度快照，未参与时返回初始进度
func (s *Service) GetSnapshot(ctx context.Context, sellerID, campaignID int64) (*Snapshot, error) {
	campaign, err := s.campaigns.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	plan := NewPlan(campaign)

	track := NewTrack(plan)
	progress, err := s.repos.Progress.Get(ctx, sellerID, campaignID)
	switch {
	case err == nil:
		track = restoreTrack(plan, progress)
	case !stderrors.Is(err, gorm.ErrRecordNotFound):
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	snap := track.Snapshot()
	return &snap, nil
}

// Card 获取指定序号的卡片，AUTO_REPLICANTE 按需派生
func (s *Service) Card(ctx context.Context, campaignID int64, seq int) (*models.Card, error) {
	campaign, err := s.campaigns.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	card, ok := NewPlan(campaign).Card(seq)
	if !ok {
		return nil, errors.ErrCardNotFound
	}
	return &card, nil
}

// ListSalesRequest 销售明细列表请求
type ListSalesRequest struct {
	Page       int
	PageSize   int
	SellerID   int64
	CampaignID int64
	Outcome    models.SaleOutcome
}

// ListSales 获取已处理的销售明细
func (s *Service) ListSales(ctx context.Context, req *ListSalesRequest) ([]*models.SaleLine, int64, error) {
	p := utils.Pagination{Page: req.Page, PageSize: req.PageSize}
	p.Normalize()

	list, total, err := s.repos.Sales.List(ctx, repository.SaleLineListParams{
		Offset:     p.Offset(),
		Limit:      p.Limit(),
		SellerID:   req.SellerID,
		CampaignID: req.CampaignID,
		Outcome:    req.Outcome,
	})
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return list, total, nil
}

// Completions 销售员在活动中已完成的卡片
func (s *Service) Completions(ctx context.Context, sellerID, campaignID int64) ([]models.CardCompletion, error) {
	list, err := s.repos.Completions.ListBySellerCampaign(ctx, sellerID, campaignID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return list, nil
}
