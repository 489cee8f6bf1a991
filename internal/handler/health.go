package handler

import (
	"log/slog"
	"net/http"

	"nodetree/internal/domain/services"
	"nodetree/internal/httputil"
)

// HealthHandler reports liveness together with the node count
type HealthHandler struct {
	nodeService services.NodeHierarchyManager
	logger      *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(nodeService services.NodeHierarchyManager, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		nodeService: nodeService,
		logger:      logger,
	}
}

// HealthCheck returns 200 when the store answers, 503 otherwise
// GET /health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	stats, err := h.nodeService.Stats(r.Context())
	if err != nil {
		h.logger.Warn("health check failed", "error", err)
		httputil.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
		})
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"nodes":  stats.Nodes,
	})
}
