package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/newsline/accounts-service/internal/core/port"
	"github.com/newsline/accounts-service/internal/infra/logger"
)

// RateLimitRule caps attempts per client IP inside a sliding window.
type RateLimitRule struct {
	Name        string
	MaxAttempts int
	Window      time.Duration
}

// RateLimit enforces the rule against the shared attempt store. The
// store is injected, so the limiter holds no global state and tests can
// swap in an in-memory implementation. On store failure the request is
// let through: the limiter protects against brute force, it is not a
// correctness gate.
func RateLimit(store port.RateLimitStore, rule RateLimitRule) gin.HandlerFunc {
	return func(c *gin.Context) {
		identifier := fmt.Sprintf("%s:%s", rule.Name, c.ClientIP())
		now := time.Now()
		log := logger.WithContext(c.Request.Context())

		if err := store.TrimWindow(c.Request.Context(), identifier, rule.Window, now); err != nil {
			log.Error("rate limit trim failed", zap.Error(err))
			c.Next()
			return
		}

		count, err := store.CountAttempts(c.Request.Context(), identifier, rule.Window, now)
		if err != nil {
			log.Error("rate limit count failed", zap.Error(err))
			c.Next()
			return
		}

		if count >= rule.MaxAttempts {
			retryAfter := rule.Window
			if oldest, ok, err := store.OldestAttempt(c.Request.Context(), identifier, rule.Window, now); err == nil && ok {
				retryAfter = oldest.Add(rule.Window).Sub(now)
			}
			if retryAfter < time.Second {
				retryAfter = time.Second
			}

			log.Warn("rate limit exceeded",
				zap.String("rule", rule.Name),
				zap.String("client_ip", logger.MaskIP(c.ClientIP())),
			)

			c.Header("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many attempts, retry later",
				"code":  "rate_limited",
			})
			return
		}

		if err := store.RecordAttempt(c.Request.Context(), identifier, now); err != nil {
			log.Error("rate limit record failed", zap.Error(err))
		}

		c.Next()
	}
}
