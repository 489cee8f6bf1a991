package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"nodetree/internal/domain"
	"nodetree/internal/domain/models"
	"nodetree/internal/domain/services"
	"nodetree/internal/httputil"
)

// NodeHandler handles node HTTP requests
type NodeHandler struct {
	nodeService services.NodeHierarchyManager
	logger      *slog.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(nodeService services.NodeHierarchyManager, logger *slog.Logger) *NodeHandler {
	return &NodeHandler{
		nodeService: nodeService,
		logger:      logger,
	}
}

// CreateNode creates a file or folder
// POST /api/nodes
func (h *NodeHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req models.CreateNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.RespondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	node, err := h.nodeService.CreateNode(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	w.Header().Set("Location", "/api/nodes/"+node.ID.String())
	httputil.RespondJSON(w, http.StatusCreated, node)
}

// DeleteNode deletes a node and its subtree
// DELETE /api/nodes/{id}
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	id, ok := pathNodeID(w, r)
	if !ok {
		return
	}

	deleted, err := h.nodeService.DeleteNode(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}
	if !deleted {
		handleError(w, &domain.NotFoundError{Message: "node " + id.String() + " not found"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetNode retrieves a node by ID
// GET /api/nodes/{id}
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	id, ok := pathNodeID(w, r)
	if !ok {
		return
	}

	node, err := h.nodeService.GetNode(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// GetChildren lists the direct children of a folder
// GET /api/nodes/{id}/children
func (h *NodeHandler) GetChildren(w http.ResponseWriter, r *http.Request) {
	id, ok := pathNodeID(w, r)
	if !ok {
		return
	}

	children, err := h.nodeService.GetChildren(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, children)
}

// SearchInParent finds descendants of a folder by exact name
// GET /api/nodes/{id}/search?name=
func (h *NodeHandler) SearchInParent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathNodeID(w, r)
	if !ok {
		return
	}
	name, ok := requiredQuery(w, r, "name")
	if !ok {
		return
	}

	nodes, err := h.nodeService.SearchInParent(r.Context(), id, name)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, nodes)
}

// SearchFiles finds every file with the exact name
// GET /api/files/search?name=
func (h *NodeHandler) SearchFiles(w http.ResponseWriter, r *http.Request) {
	name, ok := requiredQuery(w, r, "name")
	if !ok {
		return
	}

	files, err := h.nodeService.SearchAllFilesByName(r.Context(), name)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, files)
}

// Autocomplete suggests files by name prefix
// GET /api/files/autocomplete?query=
func (h *NodeHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		httputil.RespondJSON(w, http.StatusOK, []models.Node{})
		return
	}

	files, err := h.nodeService.SearchAutocomplete(r.Context(), query)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, files)
}
