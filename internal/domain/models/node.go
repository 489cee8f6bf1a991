package models

import (
	"time"

	"github.com/google/uuid"
)

// Node is a file or folder in the hierarchy.
// Nodes are never mutated after creation; only deleted.
type Node struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	IsFolder  bool       `json:"is_folder" db:"is_folder"`
	ParentID  *uuid.UUID `json:"parent_id" db:"parent_id"` // NULL = root
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool {
	return n.ParentID == nil
}

// HasParent reports whether the node's parent is id.
func (n *Node) HasParent(id uuid.UUID) bool {
	return n.ParentID != nil && *n.ParentID == id
}

// CreateNodeRequest represents a node creation request
type CreateNodeRequest struct {
	Name     string     `json:"name"`
	IsFolder bool       `json:"is_folder"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"` // null for root
}
