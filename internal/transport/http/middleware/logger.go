package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/newsline/accounts-service/internal/infra/logger"
)

// RequestLogger emits one structured log line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		log := logger.WithContext(c.Request.Context())
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", logger.MaskIP(c.ClientIP())),
		}

		switch {
		case c.Writer.Status() >= 500:
			log.Error("request failed", fields...)
		case c.Writer.Status() >= 400:
			log.Warn("request rejected", fields...)
		default:
			log.Info("request completed", fields...)
		}
	}
}
