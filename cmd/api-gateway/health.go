package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// probeTimeout 单个依赖检查超时
const probeTimeout = 3 * time.Second

const (
	checkOK       = "ok"
	checkDisabled = "disabled"
)

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp int64             `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// probe 依赖检查项，check 为 nil 表示未启用
type probe struct {
	name  string
	check func(ctx context.Context) error
}

func dbProbe(db *gorm.DB) probe {
	return probe{name: "database", check: func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}}
}

func redisProbe(rdb *redis.Client) probe {
	p := probe{name: "redis"}
	if rdb != nil {
		p.check = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return p
}

// mqttProbe 发布端支持连接状态查询时才检查
func mqttProbe(pub interface{}) probe {
	p := probe{name: "mqtt"}
	if conn, ok := pub.(interface{ IsConnected() bool }); ok {
		p.check = func(context.Context) error {
			if !conn.IsConnected() {
				return errors.New("未连接")
			}
			return nil
		}
	}
	return p
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Timestamp: time.Now().Unix()})
}

func pingHandler(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

// readyHandler 依次执行依赖检查，任一失败返回 503
func readyHandler(probes ...probe) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := HealthResponse{
			Status:    "ready",
			Timestamp: time.Now().Unix(),
			Checks:    make(map[string]string, len(probes)),
		}
		status := http.StatusOK
		for _, p := range probes {
			result := runProbe(c.Request.Context(), p)
			resp.Checks[p.name] = result
			if result != checkOK && result != checkDisabled {
				status = http.StatusServiceUnavailable
				resp.Status = "not ready"
			}
		}
		c.JSON(status, resp)
	}
}

func runProbe(parent context.Context, p probe) string {
	if p.check == nil {
		return checkDisabled
	}
	ctx, cancel := context.WithTimeout(parent, probeTimeout)
	defer cancel()
	if err := p.check(ctx); err != nil {
		return "error: " + err.Error()
	}
	return checkOK
}
