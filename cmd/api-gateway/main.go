// Package main 激励活动服务入口
//
//	@title			Incentive Backend API
//	@version		1.0
//	@description	眼镜门店销售激励活动：活动配置、销售录入、卡片进度与奖励兑换
//	@BasePath		/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dumeirei/incentive-backend/internal/common/cache"
	"github.com/dumeirei/incentive-backend/internal/common/config"
	"github.com/dumeirei/incentive-backend/internal/common/database"
	"github.com/dumeirei/incentive-backend/internal/common/logger"
	"github.com/dumeirei/incentive-backend/internal/common/metrics"
	"github.com/dumeirei/incentive-backend/internal/common/tracing"
	"github.com/dumeirei/incentive-backend/internal/models"
	"github.com/dumeirei/incentive-backend/internal/repository"
	"github.com/dumeirei/incentive-backend/internal/scheduler"
	"github.com/dumeirei/incentive-backend/internal/service/progression"
	"github.com/dumeirei/incentive-backend/pkg/mqtt"
)

const version = "1.0.0"

// defaultShutdownTimeout 未配置时的优雅退出等待时间
const defaultShutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load(os.Getenv("INCENTIVE_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger.GetLogger()); err != nil {
		logger.Error("服务异常退出", logger.Err(err))
		logger.Sync()
		os.Exit(1)
	}
}

// run 初始化依赖并阻塞到 ctx 结束，返回前按相反顺序释放资源
func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	log.Info("服务启动", zap.String("version", version), zap.String("mode", cfg.Server.Mode))

	tp, err := tracing.Init(&tracing.Config{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Server.Mode,
		Endpoint:       cfg.Tracing.Endpoint,
		SampleRate:     cfg.Tracing.SampleRate,
		Enabled:        cfg.Tracing.Enabled,
	})
	if err != nil {
		return fmt.Errorf("初始化链路追踪失败: %w", err)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.Init(cfg.Metrics.Namespace)
	}

	db, err := database.Init(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	log.Info("数据库已连接", zap.String("driver", cfg.Database.Driver))

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db, models.All()...); err != nil {
			return err
		}
		log.Info("数据表已迁移")
	}

	// 未启用 Redis 时使用进程内锁，活动树不缓存
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		if rdb, err = cache.Init(&cfg.Redis); err != nil {
			return err
		}
		defer rdb.Close()
		log.Info("Redis 已连接", zap.String("addr", cfg.Redis.Addr()))
	}

	var (
		publisher progression.Publisher
		topic     string
	)
	if cfg.MQTT.Enabled {
		client, err := connectMQTT(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer client.Disconnect()
		name := cfg.Business.Incentive.RewardTopic
		if name == "" {
			name = mqtt.TopicRewardCredited
		}
		publisher, topic = client, client.Topic(name)
		log.Info("MQTT 已连接", zap.String("topic", topic))
	}

	gin.SetMode(cfg.GinMode())
	engine := gin.New()
	setupRouter(engine, &routerDeps{
		cfg:         cfg,
		logger:      log,
		db:          db,
		redisClient: rdb,
		metrics:     m,
		publisher:   publisher,
		rewardTopic: topic,
	})

	sched := scheduler.NewScheduler(log, m)
	scheduler.SetupTasks(sched,
		scheduler.NewTaskHandler(repository.NewCampaignRepository(db), repository.NewEventRepository(db), m),
		time.Duration(cfg.Business.Incentive.SchedulerInterval)*time.Second)
	sched.Start(ctx)
	defer sched.Stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP 服务监听", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("HTTP 服务启动失败: %w", err)
	case <-ctx.Done():
	}
	log.Info("收到退出信号，开始优雅退出")

	timeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP 服务强制关闭", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error("关闭链路追踪失败", zap.Error(err))
	}
	log.Info("服务已退出")
	return nil
}

func connectMQTT(ctx context.Context, cfg *config.Config, log *zap.Logger) (*mqtt.Client, error) {
	mc := &cfg.MQTT
	client := mqtt.NewClient(&mqtt.Config{
		Broker:         mc.Broker,
		ClientIDPrefix: mc.ClientIDPrefix,
		Username:       mc.Username,
		Password:       mc.Password,
		KeepAlive:      mc.KeepAlive,
		AutoReconnect:  mc.AutoReconnect,
		ConnectTimeout: mc.ConnectTimeout,
		QoS:            mc.QoS,
		Retained:       mc.Retained,
		TopicPrefix:    mc.TopicPrefix,
	}, log)

	connectCtx, cancel := context.WithTimeout(ctx, time.Duration(mc.ConnectTimeout+1)*time.Second)
	defer cancel()
	if err := client.Connect(connectCtx); err != nil {
		return nil, err
	}
	return client, nil
}
