package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"nodetree/internal/domain"
	"nodetree/internal/httputil"
)

// handleError converts domain errors to HTTP responses.
// Typed domain errors carry their own status; bare sentinels are mapped here.
func handleError(w http.ResponseWriter, err error) {
	var (
		invalidParent *domain.InvalidParentError
		httpErr       domain.HTTPError
	)

	switch {
	case errors.Is(err, domain.ErrStoreFailure):
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	case errors.As(err, &invalidParent):
		httputil.RespondErrorWithExtras(w, invalidParent.StatusCode(), "creation failed: "+invalidParent.Error(),
			map[string]interface{}{"parent_id": invalidParent.ParentID})
	case errors.As(err, &httpErr):
		httputil.RespondError(w, httpErr.StatusCode(), httpErr.Error())
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidParent):
		httputil.RespondError(w, http.StatusBadRequest, "creation failed: "+err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// pathNodeID parses the {id} path value, writing a 400 when it is not a UUID
func pathNodeID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.PathValue("id")
	if raw == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Node ID is required")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Node ID must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// requiredQuery returns the named query parameter, writing a 400 when it is empty
func requiredQuery(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	value := r.URL.Query().Get(name)
	if value == "" {
		httputil.RespondError(w, http.StatusBadRequest, "query parameter '"+name+"' is required")
		return "", false
	}
	return value, true
}
