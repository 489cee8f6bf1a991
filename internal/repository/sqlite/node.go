package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"nodetree/internal/domain"
	"nodetree/internal/domain/models"
	"nodetree/internal/domain/repositories"
)

const (
	nodeColumns = "id, name, is_folder, parent_id, created_at"
	// deleteBatchSize keeps IN lists well below SQLite's bound-parameter limit
	deleteBatchSize = 500
	// timeLayout is fixed width so created_at sorts lexically
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// NodeRepository implements the NodeStore interface on SQLite
type NodeRepository struct {
	d *DB
}

// NewNodeRepository creates a new node repository
func NewNodeRepository(d *DB) repositories.NodeStore {
	return &NodeRepository{d: d}
}

func (r *NodeRepository) Get(ctx context.Context, id uuid.UUID) (*models.Node, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", nodeColumns, r.d.tables.Nodes)

	node, err := scanNode(r.d.executor(ctx).QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get node: %w", err)
	}
	return node, nil
}

func (r *NodeRepository) FindByParent(ctx context.Context, parentID uuid.UUID) ([]models.Node, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE parent_id = ?", nodeColumns, r.d.tables.Nodes)
	return r.queryNodes(ctx, "find children", query, parentID.String())
}

func (r *NodeRepository) FindByNameExact(ctx context.Context, name string, filesOnly bool) ([]models.Node, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE name = ?", nodeColumns, r.d.tables.Nodes)
	if filesOnly {
		query += " AND is_folder = 0"
	}
	return r.queryNodes(ctx, "find by name", query, name)
}

// FindFilesByPrefix compares the leading characters directly so LIKE wildcards
// and case folding never apply. Ordering uses the default BINARY collation.
func (r *NodeRepository) FindFilesByPrefix(ctx context.Context, prefix string, limit int) ([]models.Node, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s
WHERE is_folder = 0 AND substr(name, 1, length(?1)) = ?1
ORDER BY name ASC
LIMIT ?2`, nodeColumns, r.d.tables.Nodes)
	return r.queryNodes(ctx, "find by prefix", query, prefix, limit)
}

func (r *NodeRepository) ExistsFolderWithParent(ctx context.Context, parentID uuid.UUID) (bool, error) {
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE parent_id = ? AND is_folder = 1)", r.d.tables.Nodes)

	var exists bool
	if err := r.d.executor(ctx).QueryRowContext(ctx, query, parentID.String()).Scan(&exists); err != nil {
		return false, fmt.Errorf("check folder children: %w", err)
	}
	return exists, nil
}

func (r *NodeRepository) Insert(ctx context.Context, node *models.Node) error {
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?)", r.d.tables.Nodes, nodeColumns)

	var parentID any
	if node.ParentID != nil {
		parentID = node.ParentID.String()
	}

	_, err := r.d.executor(ctx).ExecContext(ctx, query,
		node.ID.String(),
		node.Name,
		node.IsFolder,
		parentID,
		node.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("parent of node '%s': %w", node.Name, domain.ErrInvalidParent)
		}
		if isCheckError(err) {
			return fmt.Errorf("node '%s': %w", node.Name, domain.ErrValidation)
		}
		return fmt.Errorf("insert node: %w", err)
	}
	return nil
}

// Delete removes all ids inside one transaction, joining the caller's when present.
// The foreign key cascade removes listed descendants before their own batch runs,
// so the result counts the listed rows present up front rather than RowsAffected.
func (r *NodeRepository) Delete(ctx context.Context, ids ...uuid.UUID) (int64, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}

	var total int64
	err := NewTransactionManager(r.d).ExecTx(ctx, func(ctx context.Context) error {
		for start := 0; start < len(ids); start += deleteBatchSize {
			placeholders, args := inList(ids[start:min(start+deleteBatchSize, len(ids))])
			query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE id IN (%s)", r.d.tables.Nodes, placeholders)

			var n int64
			if err := r.d.executor(ctx).QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
				return fmt.Errorf("count nodes to delete: %w", err)
			}
			total += n
		}

		for start := 0; start < len(ids); start += deleteBatchSize {
			placeholders, args := inList(ids[start:min(start+deleteBatchSize, len(ids))])
			query := fmt.Sprintf("DELETE FROM %s WHERE id IN (%s)", r.d.tables.Nodes, placeholders)

			if _, err := r.d.executor(ctx).ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("delete nodes: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.d.logger.Debug("nodes deleted", "requested", len(ids), "deleted", total)
	return total, nil
}

func (r *NodeRepository) All(ctx context.Context) ([]models.Node, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY created_at ASC", nodeColumns, r.d.tables.Nodes)
	return r.queryNodes(ctx, "list nodes", query)
}

func (r *NodeRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.d.executor(ctx).QueryRowContext(ctx, "SELECT COUNT(*) FROM "+r.d.tables.Nodes).Scan(&n); err != nil {
		return 0, fmt.Errorf("count nodes: %w", err)
	}
	return n, nil
}

func (r *NodeRepository) queryNodes(ctx context.Context, op, query string, args ...any) ([]models.Node, error) {
	rows, err := r.d.executor(ctx).QueryContext(ctx, query, args...)
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

// inList returns the "?,?,..." placeholders and arguments for an IN clause
func inList(ids []uuid.UUID) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id.String()
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNode(row scanner) (*models.Node, error) {
	var (
		node      models.Node
		id        string
		parentID  sql.NullString
		createdAt string
	)
	if err := row.Scan(&id, &node.Name, &node.IsFolder, &parentID, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if node.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse id %q: %w", id, err)
	}
	if parentID.Valid {
		pid, err := uuid.Parse(parentID.String)
		if err != nil {
			return nil, fmt.Errorf("parse parent id %q: %w", parentID.String, err)
		}
		node.ParentID = &pid
	}
	if node.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}

	return &node, nil
}
