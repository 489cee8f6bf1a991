package handler

import "net/http"

// RegisterRoutes wires the node, tree and health endpoints onto mux
func RegisterRoutes(mux *http.ServeMux, nodes *NodeHandler, tree *TreeHandler, health *HealthHandler) {
	// Health check
	mux.HandleFunc("GET /health", health.HealthCheck)

	// Node routes
	mux.HandleFunc("POST /api/nodes", nodes.CreateNode)
	mux.HandleFunc("GET /api/nodes/{id}", nodes.GetNode)
	mux.HandleFunc("DELETE /api/nodes/{id}", nodes.DeleteNode)
	mux.HandleFunc("GET /api/nodes/{id}/children", nodes.GetChildren)
	mux.HandleFunc("GET /api/nodes/{id}/search", nodes.SearchInParent)

	// File search routes
	mux.HandleFunc("GET /api/files/search", nodes.SearchFiles)
	mux.HandleFunc("GET /api/files/autocomplete", nodes.Autocomplete)

	// Tree
	mux.HandleFunc("GET /api/tree", tree.GetTree)
}
