package handler

import (
	"log/slog"
	"net/http"

	"nodetree/internal/domain/services"
	"nodetree/internal/httputil"
)

// TreeHandler handles HTTP requests for tree operations
type TreeHandler struct {
	nodeService services.NodeHierarchyManager
	logger      *slog.Logger
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(nodeService services.NodeHierarchyManager, logger *slog.Logger) *TreeHandler {
	return &TreeHandler{
		nodeService: nodeService,
		logger:      logger,
	}
}

// GetTree returns the whole hierarchy as nested nodes
// GET /api/tree
func (h *TreeHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.nodeService.GetTree(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, tree)
}
