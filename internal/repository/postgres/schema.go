package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the nodes table and its indexes if missing.
// Children reference their parent with ON DELETE CASCADE, so the database also
// removes any descendant a caller did not list explicitly.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	statements := []string{
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL CHECK (name <> ''),
			is_folder BOOLEAN NOT NULL DEFAULT FALSE,
			parent_id UUID REFERENCES %[1]s(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, tables.Nodes),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_parent_idx ON %[1]s (parent_id)`, tables.Nodes),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_name_idx ON %[1]s (name COLLATE "C")`, tables.Nodes),
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// DropSchema drops the nodes table
func DropSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+tables.Nodes+" CASCADE"); err != nil {
		return fmt.Errorf("drop %s: %w", tables.Nodes, err)
	}
	return nil
}

// ClearNodes removes every node, keeping the schema
func ClearNodes(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	if _, err := pool.Exec(ctx, "DELETE FROM "+tables.Nodes); err != nil {
		return fmt.Errorf("clear %s: %w", tables.Nodes, err)
	}
	return nil
}
