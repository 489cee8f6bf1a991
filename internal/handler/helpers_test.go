package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodetree/internal/domain"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
		wantParent string
	}{
		{
			name:       "typed validation error",
			err:        &domain.ValidationError{Message: "validation failed: name: cannot be blank"},
			wantStatus: http.StatusBadRequest,
			wantDetail: "validation failed: name: cannot be blank",
		},
		{
			name:       "typed not found",
			err:        fmt.Errorf("lookup: %w", &domain.NotFoundError{Message: "node 42 not found"}),
			wantStatus: http.StatusNotFound,
			wantDetail: "node 42 not found",
		},
		{
			name:       "invalid parent carries parent id",
			err:        &domain.InvalidParentError{Message: "parent p1 is a file", ParentID: "p1"},
			wantStatus: http.StatusBadRequest,
			wantDetail: "creation failed: parent p1 is a file",
			wantParent: "p1",
		},
		{
			name:       "bare invalid parent sentinel",
			err:        fmt.Errorf("parent of node 'a': %w", domain.ErrInvalidParent),
			wantStatus: http.StatusBadRequest,
			wantDetail: "creation failed: parent of node 'a': invalid parent",
		},
		{
			name:       "bare not found sentinel",
			err:        fmt.Errorf("node x: %w", domain.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantDetail: "node x: not found",
		},
		{
			name:       "store failure hides the cause",
			err:        fmt.Errorf("get node: %w: %w", domain.ErrStoreFailure, domain.ErrNotFound),
			wantStatus: http.StatusInternalServerError,
			wantDetail: "internal server error",
		},
		{
			name:       "unknown error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantDetail: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantDetail, body["detail"])
			assert.EqualValues(t, tt.wantStatus, body["status"])
			if tt.wantParent != "" {
				assert.Equal(t, tt.wantParent, body["parent_id"])
			} else {
				assert.NotContains(t, body, "parent_id")
			}
		})
	}
}
