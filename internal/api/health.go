package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mirror/internal/capture"
	"mirror/pkg/health"
)

type HealthResponse struct {
	health.Health
	Lifecycle string `json:"lifecycle"`
}

// HealthHandler reports dependency checks plus the capture lifecycle state.
// A destroyed service is unhealthy regardless of its dependencies.
func HealthHandler(registry *health.CheckerRegistry, lifecycle func() string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := registry.Check(c.Request.Context())
		state := lifecycle()
		if state == capture.StateDestroyed.String() {
			h.Status = health.StatusUnhealthy
		}

		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, HealthResponse{Health: h, Lifecycle: state})
	}
}
