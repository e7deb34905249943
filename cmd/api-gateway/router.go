// Package main 是应用程序入口
package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/incentive-backend/internal/common/cache"
	"github.com/dumeirei/incentive-backend/internal/common/config"
	"github.com/dumeirei/incentive-backend/internal/common/metrics"
	commonMiddleware "github.com/dumeirei/incentive-backend/internal/common/middleware"
	adminHandler "github.com/dumeirei/incentive-backend/internal/handler/admin"
	salesHandler "github.com/dumeirei/incentive-backend/internal/handler/sales"
	sellerHandler "github.com/dumeirei/incentive-backend/internal/handler/seller"
	"github.com/dumeirei/incentive-backend/internal/middleware"
	"github.com/dumeirei/incentive-backend/internal/repository"
	campaignService "github.com/dumeirei/incentive-backend/internal/service/campaign"
	eventService "github.com/dumeirei/incentive-backend/internal/service/event"
	financeService "github.com/dumeirei/incentive-backend/internal/service/finance"
	"github.com/dumeirei/incentive-backend/internal/service/progression"
	redemptionService "github.com/dumeirei/incentive-backend/internal/service/redemption"
)

// maxSalesBodyBytes 销售录入请求体上限，足够容纳单批 500 条明细
const maxSalesBodyBytes = 1 << 20

// routerDeps 路由依赖
type routerDeps struct {
	cfg         *config.Config
	logger      *zap.Logger
	db          *gorm.DB
	redisClient *redis.Client
	metrics     *metrics.Metrics
	publisher   progression.Publisher
	rewardTopic string
}

// setupRouter 设置路由
func setupRouter(r *gin.Engine, deps *routerDeps) {
	cfg := deps.cfg
	incentive := &cfg.Business.Incentive
	loc := incentive.Location()
	policy := eventService.Policy{
		MinLead:     incentive.EventMinLead(),
		MinDuration: incentive.EventMinDuration(),
	}

	// 初始化仓储
	db := deps.db
	userRepo := repository.NewUserRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	eventRepo := repository.NewEventRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	completionRepo := repository.NewCompletionRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)

	locker := cache.NewLocker(deps.redisClient)

	// 初始化服务
	campaignSvc := campaignService.NewService(db, campaignRepo, repository.NewOpticianRepository(db), eventRepo,
		deps.redisClient, deps.metrics, policy, loc)
	eventSvc := eventService.NewService(db, eventRepo, campaignRepo, locker, policy, loc)
	progressionSvc := progression.NewService(db, campaignSvc, progression.Repositories{
		Users:       userRepo,
		Events:      eventRepo,
		Progress:    progressRepo,
		Sales:       repository.NewSaleLineRepository(db),
		Completions: completionRepo,
		Ledger:      ledgerRepo,
	}, progression.Options{
		Locker:   locker,
		Metrics:  deps.metrics,
		Pub:      deps.publisher,
		Topic:    deps.rewardTopic,
		LockTTL:  incentive.LockTTLDuration(),
		LockWait: incentive.LockWaitDuration(),
	})
	redemptionSvc := redemptionService.NewService(db, repository.NewPrizeRepository(db),
		repository.NewRedemptionRepository(db), userRepo, ledgerRepo, deps.metrics)
	ledgerSvc := financeService.NewLedgerService(userRepo, campaignRepo, progressRepo, completionRepo, ledgerRepo)
	exportSvc := financeService.NewExportService(ledgerRepo)

	// 全局中间件
	r.Use(middleware.Recovery(deps.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.SecureHeaders())
	if mc := corsConfig(&cfg.CORS); mc != nil {
		r.Use(middleware.CORS(mc))
	}
	r.Use(commonMiddleware.Tracing(&commonMiddleware.TracingConfig{
		ServiceName: cfg.Tracing.ServiceName,
		SkipPaths:   []string{"/health", "/ping", "/ready", cfg.Metrics.Path},
	}))
	r.Use(middleware.AccessLog(deps.logger, cfg.Metrics.Path))
	if deps.metrics != nil {
		r.Use(deps.metrics.Middleware(cfg.Metrics.Path, "/health", "/ping", "/ready"))
		r.GET(cfg.Metrics.Path, metrics.Handler())
	}

	// 健康检查
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(dbProbe(db), redisProbe(deps.redisClient), mqttProbe(deps.publisher)))

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 销售员与销售录入接口
	v1 := r.Group("/api/v1")
	{
		salesMW := []gin.HandlerFunc{middleware.BodyLimit(maxSalesBodyBytes)}
		if cfg.RateLimit.Enabled {
			salesMW = append(salesMW, middleware.SellerRateLimit(deps.redisClient, cfg.RateLimit.Limit,
				time.Duration(cfg.RateLimit.Window)*time.Second))
		}
		salesHandler.NewHandler(progressionSvc).RegisterRoutes(v1, salesMW...)
		sellerHandler.NewHandler(progressionSvc, redemptionSvc, ledgerSvc).RegisterRoutes(v1)
	}

	// 管理后台 API
	admin := r.Group("/api/admin")
	{
		adminHandler.NewCampaignHandler(campaignSvc, ledgerSvc).RegisterRoutes(admin)
		adminHandler.NewEventHandler(eventSvc, loc).RegisterRoutes(admin)
		adminHandler.NewPrizeHandler(redemptionSvc).RegisterRoutes(admin)
		adminHandler.NewLedgerHandler(ledgerSvc, exportSvc, progressionSvc).RegisterRoutes(admin)
	}
}

// corsConfig 将配置文件中的跨域设置转换为中间件配置，未配置来源时不启用跨域
func corsConfig(c *config.CORSConfig) *middleware.CORSConfig {
	if len(c.AllowedOrigins) == 0 {
		return nil
	}
	mc := middleware.DefaultCORSConfig()
	mc.AllowOrigins = c.AllowedOrigins
	if len(c.AllowedMethods) > 0 {
		mc.AllowMethods = c.AllowedMethods
	}
	if len(c.AllowedHeaders) > 0 {
		mc.AllowHeaders = c.AllowedHeaders
	}
	if len(c.ExposedHeaders) > 0 {
		mc.ExposeHeaders = c.ExposedHeaders
	}
	mc.AllowCredentials = c.AllowCredentials
	if c.MaxAge > 0 {
		mc.MaxAge = c.MaxAge
	}
	return mc
}
