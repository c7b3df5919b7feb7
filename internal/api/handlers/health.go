package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Pinger is implemented by cache backends that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatus is the health endpoint payload.
type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	cache  Pinger
	logger *logrus.Entry
}

// NewHealthHandler creates a new health handler. cache may be nil when the
// service runs without Redis.
func NewHealthHandler(cache Pinger, logger *logrus.Entry) *HealthHandler {
	return &HealthHandler{cache: cache, logger: logger}
}

// GetHealth returns the basic health status. A cache failure degrades the
// service but does not make it unhealthy: solves still work, just slower.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	response := HealthStatus{
		Status:    "ok",
		Service:   "fpl-optimizer",
		Timestamp: time.Now(),
		Checks:    make(map[string]string),
	}

	if h.cache != nil {
		if err := h.cache.Ping(c.Request.Context()); err != nil {
			response.Status = "degraded"
			response.Checks["cache"] = "failed: " + err.Error()
		} else {
			response.Checks["cache"] = "ok"
		}
	} else {
		response.Checks["cache"] = "not_configured"
	}

	statusCode := http.StatusOK
	if response.Status == "degraded" {
		statusCode = http.StatusPartialContent
	}
	c.JSON(statusCode, response)
}

// GetReady returns the readiness status.
func (h *HealthHandler) GetReady(c *gin.Context) {
	c.JSON(http.StatusOK, HealthStatus{
		Status:    "ready",
		Service:   "fpl-optimizer",
		Timestamp: time.Now(),
		Checks:    map[string]string{},
	})
}
