package repositories

import (
	"context"

	"github.com/google/uuid"

	"nodetree/internal/domain/models"
)

// NodeStore defines data access operations for nodes.
// Implementations return errors wrapping domain.ErrNotFound for missing records
// and domain.ErrInvalidParent when an insert references a missing parent.
type NodeStore interface {
	// Get retrieves a node by ID
	Get(ctx context.Context, id uuid.UUID) (*models.Node, error)

	// FindByParent lists the direct children of parentID (files and folders)
	FindByParent(ctx context.Context, parentID uuid.UUID) ([]models.Node, error)

	// FindByNameExact lists nodes whose name equals name (case-sensitive).
	// When filesOnly is set, folders are excluded.
	FindByNameExact(ctx context.Context, name string, filesOnly bool) ([]models.Node, error)

	// FindFilesByPrefix lists up to limit files whose name starts with prefix,
	// ordered by name ascending (byte-wise)
	FindFilesByPrefix(ctx context.Context, prefix string, limit int) ([]models.Node, error)

	// ExistsFolderWithParent reports whether any folder has parentID as its parent
	ExistsFolderWithParent(ctx context.Context, parentID uuid.UUID) (bool, error)

	// Insert persists a new node
	Insert(ctx context.Context, node *models.Node) error

	// Delete removes all given nodes in one atomic operation and returns the
	// number of records removed
	Delete(ctx context.Context, ids ...uuid.UUID) (int64, error)

	// All retrieves every node (flat list)
	All(ctx context.Context) ([]models.Node, error)

	// Count returns the total number of nodes
	Count(ctx context.Context) (int64, error)
}
