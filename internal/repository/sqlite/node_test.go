package sqlite

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodetree/internal/domain"
	"nodetree/internal/domain/models"
	"nodetree/internal/domain/repositories"
	"nodetree/internal/repository/storetest"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(context.Background(), filepath.Join(t.TempDir(), "nodes.db"), "test_", slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestNodeRepository(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repositories.NodeStore {
		return NewNodeRepository(openTestDB(t))
	})
}

func TestOpen_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, "  ", "", nil)
	assert.Error(t, err)

	_, err = Open(ctx, t.TempDir(), "", nil)
	assert.ErrorContains(t, err, "is a directory")
}

func TestOpen_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "nodes.db")

	d, err := Open(ctx, path, "", nil)
	require.NoError(t, err)
	node := storetest.Insert(t, NewNodeRepository(d), "persisted.txt", false, nil)
	require.NoError(t, d.Close())

	d, err = Open(ctx, path, "", nil)
	require.NoError(t, err)
	defer d.Close()

	got, err := NewNodeRepository(d).Get(ctx, node.ID)
	require.NoError(t, err)
	assert.Equal(t, "persisted.txt", got.Name)
	assert.Equal(t, path, d.Path())
}

func TestInsert_CheckConstraint(t *testing.T) {
	repo := NewNodeRepository(openTestDB(t))

	err := repo.Insert(context.Background(), &models.Node{ID: uuid.New(), Name: ""})
	assert.ErrorIs(t, err, domain.ErrValidation)

	// length() counts characters, not bytes
	err = repo.Insert(context.Background(), &models.Node{ID: uuid.New(), Name: strings.Repeat("é", 255), CreatedAt: time.Now()})
	assert.NoError(t, err)

	err = repo.Insert(context.Background(), &models.Node{ID: uuid.New(), Name: strings.Repeat("é", 256), CreatedAt: time.Now()})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDelete_LargeBatch(t *testing.T) {
	d := openTestDB(t)
	repo := NewNodeRepository(d)
	ctx := context.Background()

	root := storetest.Insert(t, repo, "Root", true, nil)
	ids := []uuid.UUID{root.ID}
	for range deleteBatchSize + 25 {
		ids = append(ids, storetest.Insert(t, repo, "f.txt", false, root).ID)
	}

	n, err := repo.Delete(ctx, ids...)
	require.NoError(t, err)
	assert.EqualValues(t, len(ids), n)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestTransactionManager_Rollback(t *testing.T) {
	d := openTestDB(t)
	repo := NewNodeRepository(d)
	tm := NewTransactionManager(d)
	ctx := context.Background()

	node := storetest.Insert(t, repo, "a.txt", false, nil)

	err := tm.ExecTx(ctx, func(ctx context.Context) error {
		if _, err := repo.Delete(ctx, node.ID); err != nil {
			return err
		}
		return domain.ErrStoreFailure
	})
	assert.ErrorIs(t, err, domain.ErrStoreFailure)

	_, err = repo.Get(ctx, node.ID)
	assert.NoError(t, err, "delete must roll back")
}

func TestClear(t *testing.T) {
	d := openTestDB(t)
	repo := NewNodeRepository(d)
	root := storetest.Insert(t, repo, "Root", true, nil)
	storetest.Insert(t, repo, "a.txt", false, root)

	require.NoError(t, d.Clear(context.Background()))

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}
