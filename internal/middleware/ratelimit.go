package middleware

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/dumeirei/incentive-backend/internal/common/cache"
	"github.com/dumeirei/incentive-backend/internal/common/response"
)

// KeyFunc 从请求中提取限流维度，返回空串表示不限流
type KeyFunc func(c *gin.Context) string

// ByIP 按客户端 IP 计数
func ByIP(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// BySeller 按路径中的 seller_id 计数，缺失时按 IP
func BySeller(c *gin.Context) string {
	if id := c.Param("seller_id"); id != "" {
		return "seller:" + id
	}
	return ByIP(c)
}

// RateLimiter 基于 Redis 的固定窗口计数器
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewRateLimiter client 为 nil 时所有请求放行
func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, window: window}
}

// hit 计数并返回当前窗口内的次数与剩余时间
func (l *RateLimiter) hit(ctx context.Context, key string) (int64, time.Duration, error) {
	var (
		incr *redis.IntCmd
		pttl *redis.DurationCmd
	)
	_, err := l.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		pttl = p.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	ttl := pttl.Val()
	if ttl <= 0 {
		ttl = l.window
		if err := l.client.PExpire(ctx, key, l.window).Err(); err != nil {
			return 0, 0, err
		}
	}
	return incr.Val(), ttl, nil
}

// Handler 超限返回 429，Redis 异常时放行
func (l *RateLimiter) Handler(keyFn KeyFunc) gin.HandlerFunc {
	limit := strconv.Itoa(l.limit)
	return func(c *gin.Context) {
		if l.client == nil {
			c.Next()
			return
		}
		dim := keyFn(c)
		if dim == "" {
			c.Next()
			return
		}

		count, ttl, err := l.hit(c.Request.Context(), cache.BuildKey(cache.KeyPrefixRateLimit, c.FullPath(), dim))
		if err != nil {
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", limit)
		if count > int64(l.limit) {
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(ttl.Seconds()))))
			response.TooManyRequests(c, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(int64(l.limit)-count, 10))
		c.Next()
	}
}

// SellerRateLimit 销售录入接口使用的限流
func SellerRateLimit(client *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return NewRateLimiter(client, limit, window).Handler(BySeller)
}
