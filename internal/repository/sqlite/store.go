package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const driverName = "sqlite"

// DB wraps the SQLite handle shared by the node repository and the
// transaction manager
type DB struct {
	path   string
	db     *sql.DB
	tables *TableNames
	logger *slog.Logger
}

// TableNames holds prefixed table names
type TableNames struct {
	Nodes string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{Nodes: prefix + "nodes"}
}

// Open opens (creating if needed) the database file at path and ensures the schema.
func Open(ctx context.Context, path, tablePrefix string, logger *slog.Logger) (*DB, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("sqlite path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("sqlite path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory %q: %w", dir, err)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	// foreign_keys(ON) is required for ON DELETE CASCADE and parent checks on insert.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", cleanPath, err)
	}
	// Single writer; pragmas are per connection
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %q: %w", cleanPath, err)
	}

	d := &DB{path: cleanPath, db: db, tables: NewTableNames(tablePrefix), logger: logger}
	if err := d.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return d, nil
}

// EnsureSchema creates the nodes table and indexes if missing
func (d *DB) EnsureSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL CHECK (length(name) BETWEEN 1 AND 255),
  is_folder INTEGER NOT NULL DEFAULT 0,
  parent_id TEXT REFERENCES %[1]s(id) ON DELETE CASCADE,
  created_at TEXT NOT NULL
)`, d.tables.Nodes),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_parent_idx ON %[1]s (parent_id)`, d.tables.Nodes),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_name_idx ON %[1]s (name)`, d.tables.Nodes),
	}
	for _, stmt := range statements {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Clear removes every node
func (d *DB) Clear(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM "+d.tables.Nodes); err != nil {
		return fmt.Errorf("clear nodes: %w", err)
	}
	return nil
}

// Path returns the database file path
func (d *DB) Path() string {
	return d.path
}

func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// isConstraint reports whether err is the given extended SQLite constraint code.
func isConstraint(err error, code int, fragment string) bool {
	var sqErr *sqlite.Error
	if !errors.As(err, &sqErr) {
		return false
	}
	if sqErr.Code() == code {
		return true
	}
	// Primary result code only; fall back to the message
	return sqErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqErr.Error(), fragment)
}

func isForeignKeyError(err error) bool {
	return isConstraint(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, "FOREIGN KEY")
}

func isCheckError(err error) bool {
	return isConstraint(err, sqlite3.SQLITE_CONSTRAINT_CHECK, "CHECK")
}
