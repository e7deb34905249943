package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dumeirei/incentive-backend/internal/common/logger"
	"github.com/dumeirei/incentive-backend/internal/common/metrics"
	"github.com/dumeirei/incentive-backend/internal/repository"
)

// TaskHandler 任务处理器
type TaskHandler struct {
	campaignRepo *repository.CampaignRepository
	eventRepo    *repository.EventRepository
	metrics      *metrics.Metrics
	now          func() time.Time

	mu       sync.Mutex
	lastTick time.Time
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(
	campaignRepo *repository.CampaignRepository,
	eventRepo *repository.EventRepository,
	m *metrics.Metrics,
) *TaskHandler {
	return &TaskHandler{
		campaignRepo: campaignRepo,
		eventRepo:    eventRepo,
		metrics:      m,
		now:          time.Now,
	}
}

// RefreshActiveGauges 刷新进行中活动与生效特殊活动的数量指标
func (h *TaskHandler) RefreshActiveGauges(ctx context.Context) error {
	now := h.now()

	campaigns, err := h.campaignRepo.CountActive(ctx, now)
	if err != nil {
		return err
	}
	events, err := h.eventRepo.ListActiveAt(ctx, now)
	if err != nil {
		return err
	}

	if h.metrics != nil {
		h.metrics.SetActiveCampaigns(float64(campaigns))
		h.metrics.SetActiveEvents(float64(len(events)))
	}
	return nil
}

// LogEventTransitions 记录上次执行以来开始或结束的特殊活动
func (h *TaskHandler) LogEventTransitions(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	if h.lastTick.IsZero() {
		h.lastTick = now
		return nil
	}

	events, err := h.eventRepo.ListChangedBetween(ctx, h.lastTick, now)
	if err != nil {
		return err
	}

	for _, e := range events {
		state := "started"
		if !e.EndAt.After(now) {
			state = "ended"
		}
		logger.Info("特殊活动状态变化",
			logger.Module("scheduler"),
			logger.CampaignID(e.CampaignID),
			logger.EventID(e.ID),
			zap.String("state", state),
			zap.String("multiplier", e.Multiplier.String()),
		)
	}
	h.lastTick = now
	return nil
}

// SetupTasks 注册维护任务
func SetupTasks(s *Scheduler, h *TaskHandler, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	s.Register(Task{Name: "refresh_active_gauges", Interval: interval, Run: h.RefreshActiveGauges})
	s.Register(Task{Name: "log_event_transitions", Interval: interval, Run: h.LogEventTransitions})
}
