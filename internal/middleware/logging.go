package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dumeirei/incentive-backend/internal/common/logger"
)

// 访问日志默认跳过的探活路径
var defaultSkipPaths = []string{"/health", "/ping", "/ready"}

// routeParams 记录到访问日志的路由参数
var routeParams = []string{"seller_id", "campaign_id", "id"}

// AccessLog 访问日志，按状态码区分级别；skipPaths 追加到探活路径之后
func AccessLog(log *zap.Logger, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(defaultSkipPaths)+len(skipPaths))
	for _, p := range append(append([]string{}, defaultSkipPaths...), skipPaths...) {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			logger.RequestID(GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", c.FullPath()),
			zap.Int("status", status),
			logger.Latency(time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.Int("size", c.Writer.Size()),
		}
		for _, name := range routeParams {
			if v := c.Param(name); v != "" {
				fields = append(fields, zap.String(name, v))
			}
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			log.Error("HTTP 请求", fields...)
		case status >= 400:
			log.Warn("HTTP 请求", fields...)
		default:
			log.Info("HTTP 请求", fields...)
		}
	}
}
