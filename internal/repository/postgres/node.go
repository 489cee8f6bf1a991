package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nodetree/internal/domain"
	"nodetree/internal/domain/models"
	"nodetree/internal/domain/repositories"
)

const (
	nodeColumns = "id, name, is_folder, parent_id, created_at"
	// IDs are read back as text
	nodeSelectColumns = "id::text, name, is_folder, parent_id::text, created_at"
)

// NodeRepository implements the NodeStore interface on PostgreSQL
type NodeRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewNodeRepository creates a new node repository
func NewNodeRepository(config *RepositoryConfig) repositories.NodeStore {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &NodeRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: logger,
	}
}

// Get retrieves a node by ID
func (r *NodeRepository) Get(ctx context.Context, id uuid.UUID) (*models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, nodeSelectColumns, r.tables.Nodes)

	node, err := scanNode(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id.String()))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get node: %w", err)
	}

	return node, nil
}

// FindByParent lists the direct children of a node
func (r *NodeRepository) FindByParent(ctx context.Context, parentID uuid.UUID) ([]models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE parent_id = $1
	`, nodeSelectColumns, r.tables.Nodes)

	return r.queryNodes(ctx, "find children", query, parentID.String())
}

// FindByNameExact lists nodes with exactly the given name
func (r *NodeRepository) FindByNameExact(ctx context.Context, name string, filesOnly bool) ([]models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE name = $1 AND ($2 = FALSE OR is_folder = FALSE)
	`, nodeSelectColumns, r.tables.Nodes)

	return r.queryNodes(ctx, "find by name", query, name, filesOnly)
}

// FindFilesByPrefix lists files whose name starts with prefix, ordered by name.
// starts_with avoids LIKE wildcard escaping; COLLATE "C" gives byte-wise order.
func (r *NodeRepository) FindFilesByPrefix(ctx context.Context, prefix string, limit int) ([]models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE is_folder = FALSE AND starts_with(name, $1)
		ORDER BY name COLLATE "C" ASC
		LIMIT $2
	`, nodeSelectColumns, r.tables.Nodes)

	return r.queryNodes(ctx, "find by prefix", query, prefix, limit)
}

// ExistsFolderWithParent reports whether any folder is a child of parentID
func (r *NodeRepository) ExistsFolderWithParent(ctx context.Context, parentID uuid.UUID) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1 FROM %s WHERE parent_id = $1 AND is_folder = TRUE
		)
	`, r.tables.Nodes)

	var exists bool
	if err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, parentID.String()).Scan(&exists); err != nil {
		return false, fmt.Errorf("check folder children: %w", err)
	}
	return exists, nil
}

// Insert persists a new node
func (r *NodeRepository) Insert(ctx context.Context, node *models.Node) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5)
	`, r.tables.Nodes, nodeColumns)

	_, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		node.ID.String(),
		node.Name,
		node.IsFolder,
		uuidArg(node.ParentID),
		node.CreatedAt,
	)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("parent of node '%s': %w", node.Name, domain.ErrInvalidParent)
		}
		if IsPgCheckError(err) {
			return fmt.Errorf("node '%s': %w", node.Name, domain.ErrValidation)
		}
		return fmt.Errorf("insert node: %w", err)
	}

	return nil
}

// Delete removes all given nodes with a single statement
func (r *NodeRepository) Delete(ctx context.Context, ids ...uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = ANY($1::uuid[])
	`, r.tables.Nodes)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, ids)
	if err != nil {
		return 0, fmt.Errorf("delete nodes: %w", err)
	}

	r.logger.Debug("nodes deleted", "requested", len(ids), "deleted", result.RowsAffected())
	return result.RowsAffected(), nil
}

// All retrieves every node ordered by creation time
func (r *NodeRepository) All(ctx context.Context) ([]models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		ORDER BY created_at ASC
	`, nodeSelectColumns, r.tables.Nodes)

	return r.queryNodes(ctx, "list nodes", query)
}

// Count returns the total number of nodes
func (r *NodeRepository) Count(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, r.tables.Nodes)

	var n int64
	if err := GetExecutor(ctx, r.pool).QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count nodes: %w", err)
	}
	return n, nil
}

func (r *NodeRepository) queryNodes(ctx context.Context, op, query string, args ...any) ([]models.Node, error) {
	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	nodes := []models.Node{}
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, *node)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}

	return nodes, nil
}

// scanNode reads one row selected with nodeSelectColumns.
func scanNode(row pgx.Row) (*models.Node, error) {
	var (
		node     models.Node
		id       string
		parentID *string
	)
	if err := row.Scan(&id, &node.Name, &node.IsFolder, &parentID, &node.CreatedAt); err != nil {
		return nil, err
	}

	var err error
	if node.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse id %q: %w", id, err)
	}
	if parentID != nil {
		pid, err := uuid.Parse(*parentID)
		if err != nil {
			return nil, fmt.Errorf("parse parent id %q: %w", *parentID, err)
		}
		node.ParentID = &pid
	}

	return &node, nil
}

func uuidArg(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
