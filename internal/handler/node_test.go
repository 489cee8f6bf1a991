package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodetree/internal/domain"
	"nodetree/internal/domain/models"
	"nodetree/internal/domain/services"
	"nodetree/internal/repository/memory"
	"nodetree/internal/service"
)

type testServer struct {
	mux *http.ServeMux
	svc services.NodeHierarchyManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	svc := service.NewNodeService(memory.NewNodeStore(logger), memory.NewTransactionManager(), service.Options{}, logger)
	return newTestServerWith(svc)
}

func newTestServerWith(svc services.NodeHierarchyManager) *testServer {
	logger := slog.New(slog.DiscardHandler)
	mux := http.NewServeMux()
	RegisterRoutes(mux,
		NewNodeHandler(svc, logger),
		NewTreeHandler(svc, logger),
		NewHealthHandler(svc, logger),
	)
	return &testServer{mux: mux, svc: svc}
}

func (s *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) create(t *testing.T, name string, isFolder bool, parent *models.Node) *models.Node {
	t.Helper()
	req := models.CreateNodeRequest{Name: name, IsFolder: isFolder}
	if parent != nil {
		req.ParentID = &parent.ID
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)

	rec := s.do(t, http.MethodPost, "/api/nodes", string(body))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var node models.Node
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &node))
	return &node
}

func decodeNodes(t *testing.T, rec *httptest.ResponseRecorder) []models.Node {
	t.Helper()
	var nodes []models.Node
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &nodes))
	return nodes
}

func TestCreateNodeHandler(t *testing.T) {
	s := newTestServer(t)
	folder := s.create(t, "Root", true, nil)
	file := s.create(t, "a.txt", false, folder)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantDetail string
	}{
		{
			name:       "root file",
			body:       `{"name":"b.txt","is_folder":false}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "child of folder",
			body:       fmt.Sprintf(`{"name":"c.txt","parent_id":%q}`, folder.ID),
			wantStatus: http.StatusCreated,
		},
		{
			name:       "explicit null parent",
			body:       `{"name":"d","is_folder":true,"parent_id":null}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "parent is a file",
			body:       fmt.Sprintf(`{"name":"e.txt","parent_id":%q}`, file.ID),
			wantStatus: http.StatusBadRequest,
			wantDetail: "creation failed",
		},
		{
			name:       "missing parent",
			body:       fmt.Sprintf(`{"name":"f.txt","parent_id":%q}`, uuid.New()),
			wantStatus: http.StatusBadRequest,
			wantDetail: "creation failed",
		},
		{
			name:       "empty name",
			body:       `{"name":""}`,
			wantStatus: http.StatusBadRequest,
			wantDetail: "validation failed",
		},
		{
			name:       "malformed parent id",
			body:       `{"name":"g.txt","parent_id":"not-a-uuid"}`,
			wantStatus: http.StatusBadRequest,
			wantDetail: "invalid JSON",
		},
		{
			name:       "malformed body",
			body:       `{"name":`,
			wantStatus: http.StatusBadRequest,
			wantDetail: "invalid JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/nodes", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantStatus == http.StatusCreated {
				var node models.Node
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &node))
				assert.Equal(t, "/api/nodes/"+node.ID.String(), rec.Header().Get("Location"))
				return
			}

			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), tt.wantDetail)
		})
	}
}

func TestDeleteNodeHandler(t *testing.T) {
	s := newTestServer(t)
	root := s.create(t, "Root", true, nil)
	sub := s.create(t, "Sub", true, root)
	leaf := s.create(t, "leaf.txt", false, sub)

	rec := s.do(t, http.MethodDelete, "/api/nodes/"+root.ID.String(), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	for _, id := range []uuid.UUID{root.ID, sub.ID, leaf.ID} {
		rec = s.do(t, http.MethodGet, "/api/nodes/"+id.String(), "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	rec = s.do(t, http.MethodDelete, "/api/nodes/"+root.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/nodes/123", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetNodeHandler(t *testing.T) {
	s := newTestServer(t)
	root := s.create(t, "Root", true, nil)

	rec := s.do(t, http.MethodGet, "/api/nodes/"+root.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, root.ID.String(), body["id"])
	assert.Equal(t, "Root", body["name"])
	assert.Equal(t, true, body["is_folder"])
	assert.Nil(t, body["parent_id"])
	assert.Contains(t, body, "created_at")

	rec = s.do(t, http.MethodGet, "/api/nodes/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/nodes/nope", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetChildrenHandler(t *testing.T) {
	s := newTestServer(t)
	root := s.create(t, "Root", true, nil)
	s.create(t, "Sub", true, root)
	file := s.create(t, "file1.txt", false, root)

	rec := s.do(t, http.MethodGet, "/api/nodes/"+root.ID.String()+"/children", "")
	require.Equal(t, http.StatusOK, rec.Code)
	children := decodeNodes(t, rec)
	assert.Len(t, children, 2)

	rec = s.do(t, http.MethodGet, "/api/nodes/"+file.ID.String()+"/children", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/nodes/"+uuid.NewString()+"/children", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchHandlers(t *testing.T) {
	s := newTestServer(t)
	root := s.create(t, "Root", true, nil)
	sub := s.create(t, "Sub", true, root)
	file2 := s.create(t, "file2.txt", false, sub)
	s.create(t, "file1.txt", false, root)

	t.Run("search in parent", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/nodes/"+root.ID.String()+"/search?name=file2.txt", "")
		require.Equal(t, http.StatusOK, rec.Code)
		nodes := decodeNodes(t, rec)
		require.Len(t, nodes, 1)
		assert.Equal(t, file2.ID, nodes[0].ID)
	})

	t.Run("search in parent without name", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/nodes/"+root.ID.String()+"/search", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("search in missing parent", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/nodes/"+uuid.NewString()+"/search?name=x", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("search files", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/files/search?name=file2.txt", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeNodes(t, rec), 1)

		rec = s.do(t, http.MethodGet, "/api/files/search", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("autocomplete", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/files/autocomplete?query=file", "")
		require.Equal(t, http.StatusOK, rec.Code)
		nodes := decodeNodes(t, rec)
		require.Len(t, nodes, 2)
		assert.Equal(t, "file1.txt", nodes[0].Name)
		assert.Equal(t, "file2.txt", nodes[1].Name)
	})

	t.Run("autocomplete empty query", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/files/autocomplete?query=", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})
}

func TestTreeHandler(t *testing.T) {
	s := newTestServer(t)
	root := s.create(t, "Root", true, nil)
	s.create(t, "b.txt", false, root)
	s.create(t, "a.txt", false, root)

	rec := s.do(t, http.MethodGet, "/api/tree", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var tree []models.TreeNode
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tree))
	require.Len(t, tree, 1)
	assert.Equal(t, "Root", tree[0].Name)
	require.Len(t, tree[0].Children, 2)
	assert.Equal(t, "a.txt", tree[0].Children[0].Name)
	assert.Equal(t, "b.txt", tree[0].Children[1].Name)
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t)
	s.create(t, "a.txt", false, nil)

	rec := s.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","nodes":1}`, rec.Body.String())
}

func TestStoreFailureResponses(t *testing.T) {
	s := newTestServerWith(&brokenService{})

	tests := []struct {
		method, target, body string
		wantStatus           int
	}{
		{http.MethodPost, "/api/nodes", `{"name":"a"}`, http.StatusInternalServerError},
		{http.MethodDelete, "/api/nodes/" + uuid.NewString(), "", http.StatusInternalServerError},
		{http.MethodGet, "/api/nodes/" + uuid.NewString(), "", http.StatusInternalServerError},
		{http.MethodGet, "/api/tree", "", http.StatusInternalServerError},
		{http.MethodGet, "/api/files/autocomplete?query=a", "", http.StatusInternalServerError},
		{http.MethodGet, "/health", "", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.NotContains(t, rec.Body.String(), "connection refused")
		})
	}
}

func TestAutocompleteEmptyQuerySkipsService(t *testing.T) {
	s := newTestServerWith(&brokenService{})

	rec := s.do(t, http.MethodGet, "/api/files/autocomplete", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateNodeHandler_BodyTooLarge(t *testing.T) {
	s := newTestServer(t)
	body := bytes.Repeat([]byte("x"), 2<<20)

	rec := s.do(t, http.MethodPost, "/api/nodes", `{"name":"`+string(body)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

// brokenService fails every call the way a manager with an unreachable store does
type brokenService struct{}

var errBroken = fmt.Errorf("get node: %w: connection refused", domain.ErrStoreFailure)

func (*brokenService) CreateNode(context.Context, *models.CreateNodeRequest) (*models.Node, error) {
	return nil, errBroken
}
func (*brokenService) DeleteNode(context.Context, uuid.UUID) (bool, error) { return false, errBroken }
func (*brokenService) GetNode(context.Context, uuid.UUID) (*models.Node, error) {
	return nil, errBroken
}
func (*brokenService) GetChildren(context.Context, uuid.UUID) ([]models.Node, error) {
	return nil, errBroken
}
func (*brokenService) SearchInParent(context.Context, uuid.UUID, string) ([]models.Node, error) {
	return nil, errBroken
}
func (*brokenService) SearchAllFilesByName(context.Context, string) ([]models.Node, error) {
	return nil, errBroken
}
func (*brokenService) SearchAutocomplete(context.Context, string) ([]models.Node, error) {
	return nil, errBroken
}
func (*brokenService) GetTree(context.Context) ([]*models.TreeNode, error) { return nil, errBroken }
func (*brokenService) Stats(context.Context) (*models.Stats, error) { return nil, errBroken }
