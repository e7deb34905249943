package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/incentive-backend/internal/common/config"
	"github.com/dumeirei/incentive-backend/internal/models"
)

func setupTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.All()...))

	engine := gin.New()
	setupRouter(engine, &routerDeps{
		cfg:    config.Get(),
		logger: zap.NewNop(),
		db:     db,
	})
	return engine
}

func TestRouter_Health(t *testing.T) {
	engine := setupTestEngine(t)

	t.Run("ping", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "pong", w.Body.String())
	})

	t.Run("未启用 Redis 时就绪", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "ready", resp.Status)
		assert.Equal(t, "ok", resp.Checks["database"])
		assert.Equal(t, "disabled", resp.Checks["redis"])
	})

	t.Run("请求ID回写", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})
}

func TestRouter_Routes(t *testing.T) {
	engine := setupTestEngine(t)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/campaigns/999", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(`[]`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sellers/1/statement", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSConfig(t *testing.T) {
	assert.Nil(t, corsConfig(&config.CORSConfig{}))

	mc := corsConfig(&config.CORSConfig{
		AllowedOrigins: []string{"https://painel.example.com"},
		MaxAge:         600,
	})
	require.NotNil(t, mc)
	assert.Equal(t, []string{"https://painel.example.com"}, mc.AllowOrigins)
	assert.Equal(t, 600, mc.MaxAge)
	assert.False(t, mc.AllowCredentials)
	assert.NotEmpty(t, mc.AllowMethods)
}

type fakeConn bool

func (f fakeConn) IsConnected() bool { return bool(f) }

func TestReadyHandler_Probes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	serve := func(probes ...probe) (*httptest.ResponseRecorder, HealthResponse) {
		r := gin.New()
		r.GET("/ready", readyHandler(probes...))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
		var resp HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return w, resp
	}

	t.Run("MQTT 断开时不可用", func(t *testing.T) {
		w, resp := serve(mqttProbe(fakeConn(false)))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "not ready", resp.Status)
		assert.Contains(t, resp.Checks["mqtt"], "error")
	})

	t.Run("MQTT 已连接", func(t *testing.T) {
		w, resp := serve(mqttProbe(fakeConn(true)), redisProbe(nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", resp.Checks["mqtt"])
		assert.Equal(t, "disabled", resp.Checks["redis"])
	})

	t.Run("未配置发布端", func(t *testing.T) {
		_, resp := serve(mqttProbe(nil))
		assert.Equal(t, "disabled", resp.Checks["mqtt"])
	})
}
