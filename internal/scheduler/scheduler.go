// Package scheduler 周期执行后台维护任务
package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dumeirei/incentive-backend/internal/common/metrics"
)

// defaultTaskTimeout 任务未设置超时时使用
const defaultTaskTimeout = time.Minute

// Task 周期任务
type Task struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler 每个任务独占一个 goroutine，启动时先执行一次
type Scheduler struct {
	log     *zap.Logger
	metrics *metrics.Metrics
	tasks   []Task

	once   sync.Once
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler 创建调度器，m 可为 nil
func NewScheduler(log *zap.Logger, m *metrics.Metrics) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{log: log.Named("scheduler"), metrics: m}
}

// Register 注册任务，须在 Start 之前调用
func (s *Scheduler) Register(t Task) {
	if t.Timeout <= 0 {
		t.Timeout = defaultTaskTimeout
	}
	s.tasks = append(s.tasks, t)
}

// Tasks 已注册任务
func (s *Scheduler) Tasks() []Task {
	return s.tasks
}

// Start 启动全部任务，重复调用无效
func (s *Scheduler) Start(parent context.Context) {
	s.once.Do(func() {
		ctx, cancel := context.WithCancel(parent)
		s.cancel = cancel
		for _, t := range s.tasks {
			s.wg.Add(1)
			go s.loop(ctx, t)
		}
		s.log.Info("调度器启动", zap.Int("tasks", len(s.tasks)))
	})
}

// Stop 取消所有任务并等待正在执行的任务返回
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.log.Info("调度器已停止")
}

func (s *Scheduler) loop(ctx context.Context, t Task) {
	defer s.wg.Done()

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		s.execute(ctx, t)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) execute(parent context.Context, t Task) {
	ctx, cancel := context.WithTimeout(parent, t.Timeout)
	defer cancel()

	start := time.Now()
	err := safeRun(ctx, t.Run)
	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.RecordTask(t.Name, elapsed, err)
	}
	if err != nil {
		s.log.Error("定时任务执行失败", zap.String("task", t.Name), zap.Error(err))
		return
	}
	s.log.Debug("定时任务执行完成", zap.String("task", t.Name), zap.Duration("latency", elapsed))
}

// safeRun 将任务 panic 转为错误
func safeRun(ctx context.Context, run func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("任务 panic: %v\n%s", r, debug.Stack())
		}
	}()
	return run(ctx)
}
