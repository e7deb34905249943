package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dumeirei/incentive-backend/internal/common/errors"
	"github.com/dumeirei/incentive-backend/internal/common/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		s.Close()
	})
	return s, client
}

func doRequest(r *gin.Engine, method, path string, header map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	t.Run("自动生成", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/ping", nil)
		id := w.Header().Get(HeaderRequestID)
		assert.Len(t, id, 36)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("沿用合法的上游ID", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/ping", map[string]string{HeaderRequestID: "erp-2026.03_15"})
		assert.Equal(t, "erp-2026.03_15", w.Header().Get(HeaderRequestID))
		assert.Equal(t, "erp-2026.03_15", w.Body.String())
	})

	t.Run("非法上游ID被替换", func(t *testing.T) {
		for _, bad := range []string{"a b", "<script>", strings.Repeat("x", 65)} {
			w := doRequest(r, http.MethodGet, "/ping", map[string]string{HeaderRequestID: bad})
			assert.NotEqual(t, bad, w.Header().Get(HeaderRequestID))
			assert.Len(t, w.Header().Get(HeaderRequestID), 36)
		}
	})
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	r := gin.New()
	r.Use(RequestID(), Recovery(zap.New(core)))
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := doRequest(r, http.MethodGet, "/panic", map[string]string{HeaderRequestID: "req-9"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, errors.ErrInternalError.Code, resp.Code)
	assert.Equal(t, "req-9", resp.RequestID)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "boom", fields["panic"])
	assert.Equal(t, "/panic", fields["route"])
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(8))
	r.POST("/sales", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	t.Run("声明长度超限", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader(`{"quantity":10}`)))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("未声明长度时读取受限", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader(`{"quantity":10}`))
		req.ContentLength = -1
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("未超限", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader(`[]`)))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestSecureHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecureHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := doRequest(r, http.MethodGet, "/", nil)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestCORS(t *testing.T) {
	newEngine := func(cfg *CORSConfig) *gin.Engine {
		r := gin.New()
		r.Use(CORS(cfg))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
		return r
	}
	panel := DefaultCORSConfig()
	panel.AllowOrigins = []string{"https://painel.example.com", "https://*.oticas.example.com"}
	panel.AllowCredentials = true

	t.Run("精确匹配", func(t *testing.T) {
		w := doRequest(newEngine(panel), http.MethodGet, "/", map[string]string{"Origin": "https://painel.example.com"})
		assert.Equal(t, "https://painel.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
	})

	t.Run("子域通配", func(t *testing.T) {
		w := doRequest(newEngine(panel), http.MethodGet, "/", map[string]string{"Origin": "https://centro.oticas.example.com"})
		assert.Equal(t, "https://centro.oticas.example.com", w.Header().Get("Access-Control-Allow-Origin"))

		w = doRequest(newEngine(panel), http.MethodGet, "/", map[string]string{"Origin": "https://oticas.example.com.evil.io"})
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("未允许的源", func(t *testing.T) {
		w := doRequest(newEngine(panel), http.MethodGet, "/", map[string]string{"Origin": "https://evil.example.com"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

		w = doRequest(newEngine(panel), http.MethodOptions, "/", map[string]string{"Origin": "https://evil.example.com"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("预检请求", func(t *testing.T) {
		w := doRequest(newEngine(nil), http.MethodOptions, "/", map[string]string{"Origin": "https://a.example.com"})
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "3600", w.Header().Get("Access-Control-Max-Age"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
	})
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestID(), AccessLog(zap.New(core), "/metrics"))
	r.GET("/api/v1/sellers/:seller_id/campaigns/:campaign_id/progress", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/api/admin/campaigns/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	doRequest(r, http.MethodGet, "/health", nil)
	doRequest(r, http.MethodGet, "/metrics", nil)
	assert.Equal(t, 0, logs.Len())

	doRequest(r, http.MethodGet, "/api/v1/sellers/7/campaigns/3/progress", map[string]string{HeaderRequestID: "req-7"})
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zap.InfoLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "7", fields["seller_id"])
	assert.Equal(t, "3", fields["campaign_id"])
	assert.Equal(t, "req-7", fields["request_id"])
	assert.Equal(t, "/api/v1/sellers/:seller_id/campaigns/:campaign_id/progress", fields["route"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])

	doRequest(r, http.MethodGet, "/api/admin/campaigns/99", nil)
	require.Equal(t, 2, logs.Len())
	entry = logs.All()[1]
	assert.Equal(t, zap.WarnLevel, entry.Level)
	assert.Equal(t, "99", entry.ContextMap()["id"])
}

func TestRateLimiter(t *testing.T) {
	srv, client := setupRedis(t)

	r := gin.New()
	r.Use(NewRateLimiter(client, 2, time.Minute).Handler(ByIP))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/", nil).Code)
	w := doRequest(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = doRequest(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, errors.ErrRateLimitExceed.Code, resp.Code)

	t.Run("窗口结束后重新计数", func(t *testing.T) {
		srv.FastForward(time.Minute)
		assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/", nil).Code)
	})
}

func TestSellerRateLimit(t *testing.T) {
	_, client := setupRedis(t)

	r := gin.New()
	r.Use(SellerRateLimit(client, 1, time.Minute))
	r.GET("/sellers/:seller_id", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/sellers/1", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(r, http.MethodGet, "/sellers/1", nil).Code)
	// 不同销售员独立计数
	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/sellers/2", nil).Code)
}

func TestRateLimiter_Passthrough(t *testing.T) {
	t.Run("未配置 Redis", func(t *testing.T) {
		r := gin.New()
		r.Use(NewRateLimiter(nil, 1, time.Minute).Handler(ByIP))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		for i := 0; i < 3; i++ {
			assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/", nil).Code)
		}
	})

	t.Run("Redis 不可用时放行", func(t *testing.T) {
		client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
		t.Cleanup(func() { _ = client.Close() })

		r := gin.New()
		r.Use(NewRateLimiter(client, 1, time.Minute).Handler(ByIP))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		for i := 0; i < 2; i++ {
			assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/", nil).Code)
		}
	})

	t.Run("空维度不限流", func(t *testing.T) {
		_, client := setupRedis(t)
		r := gin.New()
		r.Use(NewRateLimiter(client, 1, time.Minute).Handler(func(*gin.Context) string { return "" }))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		for i := 0; i < 2; i++ {
			assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/", nil).Code)
		}
	})
}
