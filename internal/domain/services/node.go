package services

import (
	"context"

	"github.com/google/uuid"

	"nodetree/internal/domain/models"
)

// NodeHierarchyManager handles node hierarchy business logic.
// It owns tree invariants, cascade delete and the search algorithms; all state
// lives in the injected store.
type NodeHierarchyManager interface {
	// CreateNode creates a file or folder, optionally under a parent folder.
	// Fails with domain.ErrInvalidParent when the parent is missing or a file.
	CreateNode(ctx context.Context, req *models.CreateNodeRequest) (*models.Node, error)

	// DeleteNode deletes a node and its whole subtree.
	// Returns false with a nil error when the node does not exist.
	DeleteNode(ctx context.Context, id uuid.UUID) (bool, error)

	// GetNode retrieves a node by ID
	GetNode(ctx context.Context, id uuid.UUID) (*models.Node, error)

	// GetChildren lists the direct children of a folder
	GetChildren(ctx context.Context, parentID uuid.UUID) ([]models.Node, error)

	// SearchInParent finds descendants of parentID (at any depth) named name
	SearchInParent(ctx context.Context, parentID uuid.UUID, name string) ([]models.Node, error)

	// SearchAllFilesByName finds every file named name
	SearchAllFilesByName(ctx context.Context, name string) ([]models.Node, error)

	// SearchAutocomplete suggests files whose name starts with prefix
	SearchAutocomplete(ctx context.Context, prefix string) ([]models.Node, error)

	// GetTree returns the whole forest as nested nodes
	GetTree(ctx context.Context) ([]*models.TreeNode, error)

	// Stats summarizes the hierarchy
	Stats(ctx context.Context) (*models.Stats, error)
}
