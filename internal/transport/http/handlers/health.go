package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/newsline/accounts-service/internal/infra/logger"
)

// DependencyCheck pings one backing service.
type DependencyCheck func(ctx context.Context) error

// HealthHandler serves liveness and readiness probes. Readiness checks
// the backing stores with a short deadline so a wedged dependency can't
// hang the probe.
type HealthHandler struct {
	checks map[string]DependencyCheck
}

func NewHealthHandler(checks map[string]DependencyCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := gin.H{}

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			logger.WithContext(c.Request.Context()).Warn("readiness check failed",
				zap.String("dependency", name),
				zap.Error(err),
			)
			results[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	c.JSON(status, results)
}
