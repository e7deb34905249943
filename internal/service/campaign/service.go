package campaign

import (
	"context"
	stderrors "errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/dumeirei/incentive-backend/internal/common/cache"
	"github.com/dumeirei/incentive-backend/internal/common/errors"
	"github.com/dumeirei/incentive-backend/internal/common/logger"
	"github.com/dumeirei/incentive-backend/internal/common/metrics"
	"github.com/dumeirei/incentive-backend/internal/common/tracing"
	"github.com/dumeirei/incentive-backend/internal/common/utils"
	"github.com/dumeirei/incentive-backend/internal/common/validation"
	"github.com/dumeirei/incentive-backend/internal/models"
	"github.com/dumeirei/incentive-backend/internal/repository"
	"github.com/dumeirei/incentive-backend/internal/service/event"
)

// treeCacheTTL 活动树缓存有效期
const treeCacheTTL = 10 * time.Minute

// Service 活动服务
type Service struct {
	db           *gorm.DB
	campaignRepo *repository.CampaignRepository
	opticianRepo *repository.OpticianRepository
	eventRepo    *repository.EventRepository
	trees        *cache.JSONStore
	metrics      *metrics.Metrics
	policy       event.Policy
	loc          *time.Location
	now          func() time.Time
}

// NewService 创建活动服务，rdb 为空时不缓存活动树
func NewService(
	db *gorm.DB,
	campaignRepo *repository.CampaignRepository,
	opticianRepo *repository.OpticianRepository,
	eventRepo *repository.EventRepository,
	rdb *redis.Client,
	m *metrics.Metrics,
	policy event.Policy,
	loc *time.Location,
) *Service {
	return &Service{
		db:           db,
		campaignRepo: campaignRepo,
		opticianRepo: opticianRepo,
		eventRepo:    eventRepo,
		trees:        cache.NewJSONStore(rdb, cache.KeyPrefixCampaign, treeCacheTTL),
		metrics:      m,
		policy:       policy,
		loc:          loc,
		now:          time.Now,
	}
}

// Validate 校验活动定义，包含门店是否存在
func (s *Service) Validate(ctx context.Context, req *CreateRequest) (*validation.Result, error) {
	r := ValidateCampaign(req, validation.NewClock(s.now(), s.loc), s.policy)
	if req.AllOpticians || len(req.OpticianIDs) == 0 || r.Has("optician_ids") {
		return r, nil
	}

	ids := utils.Unique(req.OpticianIDs)
	count, err := s.opticianRepo.CountExisting(ctx, ids)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if count != int64(len(ids)) {
		r.Add("optician_ids", "包含不存在的门店")
	}
	return r, nil
}

// Create 校验并原子创建活动、卡片、要求、条件与特殊活动
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*models.Campaign, error) {
	ctx, span := tracing.StartSpan(ctx, "campaign.create", tracing.WithOperation("campaign_create"))
	defer span.End()

	r, err := s.Validate(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := r.Err(); err != nil {
		return nil, err
	}

	campaign := req.ToModel()
	events := req.EventModels()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.campaignRepo.CreateTreeTx(ctx, tx, campaign); err != nil {
			return err
		}
		for i := range events {
			events[i].CampaignID = campaign.ID
			if err := s.eventRepo.CreateTx(ctx, tx, &events[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		tracing.SetError(ctx, err)
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	campaign.Events = events

	logger.Info("活动已创建",
		logger.CampaignID(campaign.ID),
		logger.Action("campaign_create"),
	)
	return campaign, nil
}

// Get 获取完整活动树，优先读取缓存
func (s *Service) Get(ctx context.Context, id int64) (*models.Campaign, error) {
	if c := s.cached(ctx, id); c != nil {
		return c, nil
	}

	campaign, err := s.campaignRepo.GetTree(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrCampaignNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	s.store(ctx, campaign)
	return campaign, nil
}

// GetWithEvents 获取活动树及其特殊活动
func (s *Service) GetWithEvents(ctx context.Context, id int64) (*models.Campaign, error) {
	campaign, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	events, err := s.eventRepo.ListByCampaign(ctx, id)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	campaign.Events = events
	return campaign, nil
}

// SetStatus 启用或停用活动
func (s *Service) SetStatus(ctx context.Context, id int64, enabled bool) error {
	status := models.StatusDisabled
	if enabled {
		status = models.StatusActive
	}
	if err := s.campaignRepo.UpdateStatus(ctx, id, status); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrCampaignNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	s.invalidate(ctx, id)

	logger.Info("活动状态已变更",
		logger.CampaignID(id),
		logger.Action("campaign_status"),
	)
	return nil
}

// ListRequest 活动列表请求
type ListRequest struct {
	Page       int
	PageSize   int
	Status     *int8
	Keyword    string
	ActiveOnly bool
}

// List 获取活动列表（不含卡片树）
func (s *Service) List(ctx context.Context, req *ListRequest) ([]*models.Campaign, int64, error) {
	p := utils.Pagination{Page: req.Page, PageSize: req.PageSize}
	p.Normalize()

	params := repository.CampaignListParams{
		Offset:  p.Offset(),
		Limit:   p.Limit(),
		Status:  req.Status,
		Keyword: req.Keyword,
	}
	if req.ActiveOnly {
		now := s.now().UTC()
		params.ActiveAt = &now
	}

	list, total, err := s.campaignRepo.List(ctx, params)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return list, total, nil
}

func treeKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (s *Service) cached(ctx context.Context, id int64) *models.Campaign {
	if !s.trees.Enabled() {
		return nil
	}
	var campaign models.Campaign
	ok, err := s.trees.Load(ctx, treeKey(id), &campaign)
	if err != nil {
		logger.Warn("读取活动缓存失败", logger.CampaignID(id), logger.Err(err))
	}
	s.recordCache(ok)
	if !ok {
		return nil
	}
	return &campaign
}

func (s *Service) store(ctx context.Context, campaign *models.Campaign) {
	if err := s.trees.Save(ctx, treeKey(campaign.ID), campaign); err != nil {
		logger.Warn("写入活动缓存失败", logger.CampaignID(campaign.ID), logger.Err(err))
	}
}

func (s *Service) invalidate(ctx context.Context, id int64) {
	if err := s.trees.Delete(ctx, treeKey(id)); err != nil {
		logger.Warn("清除活动缓存失败", logger.CampaignID(id), logger.Err(err))
	}
}

func (s *Service) recordCache(hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.RecordCacheHit("campaign_tree")
	} else {
		s.metrics.RecordCacheMiss("campaign_tree")
	}
}
