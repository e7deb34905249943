package event

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dumeirei/incentive-backend/internal/common/cache"
	"github.com/dumeirei/incentive-backend/internal/common/errors"
	"github.com/dumeirei/incentive-backend/internal/common/logger"
	"github.com/dumeirei/incentive-backend/internal/common/validation"
	"github.com/dumeirei/incentive-backend/internal/models"
	"github.com/dumeirei/incentive-backend/internal/repository"
)

// Service 特殊活动服务
type Service struct {
	db           *gorm.DB
	eventRepo    *repository.EventRepository
	campaignRepo *repository.CampaignRepository
	locker       cache.Locker
	lockTTL      time.Duration
	lockWait     time.Duration
	policy       Policy
	loc          *time.Location
	now          func() time.Time
}

const (
	eventLockTTL  = 10 * time.Second
	eventLockWait = 2 * time.Second
)

// NewService 创建特殊活动服务
func NewService(
	db *gorm.DB,
	eventRepo *repository.EventRepository,
	campaignRepo *repository.CampaignRepository,
	locker cache.Locker,
	policy Policy,
	loc *time.Location,
) *Service {
	if locker == nil {
		locker = cache.NewLocalLocker()
	}
	return &Service{
		db:           db,
		eventRepo:    eventRepo,
		campaignRepo: campaignRepo,
		locker:       locker,
		lockTTL:      eventLockTTL,
		lockWait:     eventLockWait,
		policy:       policy,
		loc:          loc,
		now:          time.Now,
	}
}

func (s *Service) clock() validation.Clock {
	return validation.NewClock(s.now(), s.loc)
}

func (s *Service) loadCampaign(ctx context.Context, id int64) (*models.Campaign, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrCampaignNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return campaign, nil
}

func (s *Service) loadEvent(ctx context.Context, id int64) (*models.SpecialEvent, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrEventNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return event, nil
}

// saveChecked 持有活动级锁，在事务中检查重叠后保存
func (s *Service) saveChecked(ctx context.Context, event *models.SpecialEvent, create bool) error {
	key := cache.BuildKey(cache.KeyPrefixEvents, strconv.FormatInt(event.CampaignID, 10))
	release, err := s.locker.Acquire(ctx, key, s.lockTTL, s.lockWait)
	if err != nil {
		if stderrors.Is(err, cache.ErrLockNotObtained) {
			return errors.ErrEventLocked
		}
		return errors.ErrCacheError.WithError(err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("释放特殊活动锁失败", logger.CampaignID(event.CampaignID), logger.Err(err))
		}
	}()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.eventRepo.ListByCampaignTx(ctx, tx, event.CampaignID)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if other := FindOverlap(event, existing); other != nil {
			return errors.ErrEventOverlap.WithMessage(fmt.Sprintf("与特殊活动「%s」时间重叠", other.Name))
		}

		if create {
			err = s.eventRepo.CreateTx(ctx, tx, event)
		} else {
			err = s.eventRepo.SaveTx(ctx, tx, event)
		}
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
}

func apply(event *models.SpecialEvent, req *Request) {
	event.Name = req.Name
	event.Description = req.Description
	event.Multiplier = req.Multiplier
	event.StartAt = req.StartAt.UTC()
	event.EndAt = req.EndAt.UTC()
	event.HighlightColor = req.HighlightColor
	if req.Active != nil {
		event.Active = *req.Active
	}
}

// Create 创建特殊活动，默认启用
func (s *Service) Create(ctx context.Context, campaignID int64, req *Request) (*models.SpecialEvent, error) {
	campaign, err := s.loadCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if err := Validate(req, campaign, s.clock(), s.policy, true).ErrAs(errors.ErrEventInvalid); err != nil {
		return nil, err
	}

	event := &models.SpecialEvent{CampaignID: campaignID, Active: true}
	apply(event, req)
	if err := s.saveChecked(ctx, event, true); err != nil {
		return nil, err
	}

	logger.Info("特殊活动已创建",
		logger.CampaignID(campaignID),
		logger.EventID(event.ID),
		logger.Action("event_create"),
	)
	return event, nil
}

// Update 修改特殊活动，开始时间变更时重新检查提前量
func (s *Service) Update(ctx context.Context, id int64, req *Request) (*models.SpecialEvent, error) {
	event, err := s.loadEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	campaign, err := s.loadCampaign(ctx, event.CampaignID)
	if err != nil {
		return nil, err
	}

	startChanged := !req.StartAt.Equal(event.StartAt)
	if err := Validate(req, campaign, s.clock(), s.policy, startChanged).ErrAs(errors.ErrEventInvalid); err != nil {
		return nil, err
	}

	apply(event, req)
	if err := s.saveChecked(ctx, event, false); err != nil {
		return nil, err
	}
	return event, nil
}

// SetActive 启用或暂停特殊活动，重新启用时检查重叠
func (s *Service) SetActive(ctx context.Context, id int64, active bool) (*models.SpecialEvent, error) {
	event, err := s.loadEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.Active == active {
		return event, nil
	}

	event.Active = active
	if err := s.saveChecked(ctx, event, false); err != nil {
		return nil, err
	}

	action := "event_pause"
	if active {
		action = "event_resume"
	}
	logger.Info("特殊活动状态已变更",
		logger.CampaignID(event.CampaignID),
		logger.EventID(event.ID),
		logger.Action(action),
	)
	return event, nil
}

// Delete 删除特殊活动
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.eventRepo.Delete(ctx, id); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrEventNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// ListByCampaign 获取活动下的特殊活动
func (s *Service) ListByCampaign(ctx context.Context, campaignID int64) ([]models.SpecialEvent, error) {
	if _, err := s.loadCampaign(ctx, campaignID); err != nil {
		return nil, err
	}
	events, err := s.eventRepo.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return events, nil
}

// Multiplier 某时刻生效的倍数
type Multiplier struct {
	Value decimal.Decimal      `json:"value"`
	At    time.Time            `json:"at"`
	Event *models.SpecialEvent `json:"event,omitempty"`
}

// CurrentMultiplier 获取活动在 at 时刻的奖励倍数
func (s *Service) CurrentMultiplier(ctx context.Context, campaignID int64, at time.Time) (*Multiplier, error) {
	events, err := s.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	value, source := Resolve(events, at)
	return &Multiplier{Value: value, At: at, Event: source}, nil
}
