package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/civigo/civigo/internal/monitoring"
	"github.com/civigo/civigo/pkg/response"
)

// HealthHandler exposes liveness and readiness probes.
type HealthHandler struct {
	manager *monitoring.HealthManager
}

// NewHealthHandler builds the handler. A nil manager yields always-up probes.
func NewHealthHandler(manager *monitoring.HealthManager) *HealthHandler {
	if manager == nil {
		manager = monitoring.NewHealthManager()
	}
	return &HealthHandler{manager: manager}
}

// Overview merges liveness and readiness into one payload for /health.
func (h *HealthHandler) Overview(c *gin.Context) {
	ctx := requestContext(c)
	report := monitoring.MergeReports(h.manager.EvaluateLiveness(ctx), h.manager.EvaluateReadiness(ctx))
	response.Success(c, statusCode(report), report)
}

// Live reports process liveness.
func (h *HealthHandler) Live(c *gin.Context) {
	report := h.manager.EvaluateLiveness(requestContext(c))
	response.Success(c, statusCode(report), report)
}

// Ready reports whether dependencies are able to serve traffic.
func (h *HealthHandler) Ready(c *gin.Context) {
	report := h.manager.EvaluateReadiness(requestContext(c))
	response.Success(c, statusCode(report), report)
}

func statusCode(report monitoring.HealthReport) int {
	if report.Status == monitoring.StatusDown {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}
