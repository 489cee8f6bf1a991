// Package memory provides a process-local NodeStore. It has no native cascade:
// callers pass every id to delete.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"

	"nodetree/internal/domain"
	"nodetree/internal/domain/models"
	"nodetree/internal/domain/repositories"
)

// NodeStore keeps nodes in a concurrent map.
// Point reads are lock-free. Scans hold mu.RLock; Insert and Delete hold mu.Lock
// so a multi-record delete is never observed half done.
type NodeStore struct {
	mu     sync.RWMutex
	nodes  *xsync.Map[uuid.UUID, models.Node]
	logger *slog.Logger
}

// NewNodeStore creates an empty store
func NewNodeStore(logger *slog.Logger) *NodeStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &NodeStore{
		nodes:  xsync.NewMap[uuid.UUID, models.Node](),
		logger: logger,
	}
}

var _ repositories.NodeStore = (*NodeStore)(nil)

func (s *NodeStore) Get(ctx context.Context, id uuid.UUID) (*models.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	node, ok := s.nodes.Load(id)
	if !ok {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	return &node, nil
}

func (s *NodeStore) FindByParent(ctx context.Context, parentID uuid.UUID) ([]models.Node, error) {
	return s.filter(ctx, func(n *models.Node) bool {
		return n.HasParent(parentID)
	})
}

func (s *NodeStore) FindByNameExact(ctx context.Context, name string, filesOnly bool) ([]models.Node, error) {
	return s.filter(ctx, func(n *models.Node) bool {
		return n.Name == name && !(filesOnly && n.IsFolder)
	})
}

func (s *NodeStore) FindFilesByPrefix(ctx context.Context, prefix string, limit int) ([]models.Node, error) {
	nodes, err := s.filter(ctx, func(n *models.Node) bool {
		return !n.IsFolder && strings.HasPrefix(n.Name, prefix)
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(nodes, func(a, b models.Node) int {
		return cmp.Compare(a.Name, b.Name)
	})
	if limit >= 0 && len(nodes) > limit {
		nodes = nodes[:limit]
	}
	return nodes, nil
}

func (s *NodeStore) ExistsFolderWithParent(ctx context.Context, parentID uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := false
	s.nodes.Range(func(_ uuid.UUID, n models.Node) bool {
		found = n.IsFolder && n.HasParent(parentID)
		return !found
	})
	return found, nil
}

// Insert stores node, refusing duplicates and parents that are absent,
// the way a foreign key would.
func (s *NodeStore) Insert(ctx context.Context, node *models.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if node.ParentID != nil {
		if _, ok := s.nodes.Load(*node.ParentID); !ok {
			return fmt.Errorf("parent of node '%s': %w", node.Name, domain.ErrInvalidParent)
		}
	}
	if _, loaded := s.nodes.LoadOrStore(node.ID, *node); loaded {
		return fmt.Errorf("node %s already exists", node.ID)
	}
	return nil
}

// Delete removes ids atomically. Nodes left without a parent by the removal
// (inserted after the caller collected the subtree) are swept in the same step.
func (s *NodeStore) Delete(ctx context.Context, ids ...uuid.UUID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := s.nodes.LoadAndDelete(id); ok {
			removed[id] = struct{}{}
		}
	}
	requested := int64(len(removed))

	for swept := true; swept && len(removed) > 0; {
		swept = false
		s.nodes.Range(func(id uuid.UUID, n models.Node) bool {
			if n.ParentID == nil {
				return true
			}
			if _, gone := removed[*n.ParentID]; gone {
				s.nodes.Delete(id)
				removed[id] = struct{}{}
				swept = true
			}
			return true
		})
	}

	if orphans := int64(len(removed)) - requested; orphans > 0 {
		s.logger.Warn("swept nodes created during delete", "count", orphans)
	}
	return requested, nil
}

func (s *NodeStore) All(ctx context.Context) ([]models.Node, error) {
	nodes, err := s.filter(ctx, func(*models.Node) bool { return true })
	if err != nil {
		return nil, err
	}
	slices.SortFunc(nodes, func(a, b models.Node) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return nodes, nil
}

func (s *NodeStore) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return int64(s.nodes.Size()), nil
}

// Clear removes every node
func (s *NodeStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes.Clear()
}

func (s *NodeStore) filter(ctx context.Context, keep func(*models.Node) bool) ([]models.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := []models.Node{}
	s.nodes.Range(func(_ uuid.UUID, n models.Node) bool {
		if keep(&n) {
			nodes = append(nodes, n)
		}
		return true
	})
	return nodes, nil
}
