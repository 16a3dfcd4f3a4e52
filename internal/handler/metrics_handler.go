package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/screen-admin-api/internal/service"
	"github.com/noah-isme/screen-admin-api/pkg/logger"
)

const readyTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	db      Pinger
}

// NewMetricsHandler constructs a metrics handler. db may be nil, in which
// case readiness always succeeds.
func NewMetricsHandler(metrics *service.MetricsService, db Pinger) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, db: db}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health godoc
// @Summary Liveness probe
// @Tags Ops
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
}

// Ready godoc
// @Summary Readiness probe
// @Description Pings the database and answers 503 when it is unreachable
// @Tags Ops
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /ready [get]
func (h *MetricsHandler) Ready(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			logger.FromContext(c).Warn("readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "database": "up"})
}
