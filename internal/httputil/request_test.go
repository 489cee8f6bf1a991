package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"nodetree/internal/config"
)

func TestParseJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid", body: `{"name":"a"}`},
		{name: "empty body", body: "", wantErr: "request body is empty"},
		{name: "malformed", body: `{"name":`, wantErr: "invalid JSON"},
		{name: "unknown field", body: `{"nme":"a"}`, wantErr: "unknown field"},
		{name: "trailing object", body: `{"name":"a"}{"name":"b"}`, wantErr: "single object"},
		{name: "too large", body: `{"name":"` + strings.Repeat("x", config.MaxRequestBodySize) + `"}`, wantErr: "too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			var dest payload
			err := ParseJSON(w, r, &dest)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, "a", dest.Name)
		})
	}
}
