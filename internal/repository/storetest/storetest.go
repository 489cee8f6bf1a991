// Package storetest holds behaviour checks shared by every NodeStore engine.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodetree/internal/domain"
	"nodetree/internal/domain/models"
	"nodetree/internal/domain/repositories"
)

// Factory returns an empty store for one subtest
type Factory func(t *testing.T) repositories.NodeStore

// Run exercises store against the NodeStore contract
func Run(t *testing.T, newStore Factory) {
	t.Run("insert and get", func(t *testing.T) { testInsertGet(t, newStore(t)) })
	t.Run("insert rejects missing parent", func(t *testing.T) { testInsertMissingParent(t, newStore(t)) })
	t.Run("find by parent", func(t *testing.T) { testFindByParent(t, newStore(t)) })
	t.Run("find by name", func(t *testing.T) { testFindByName(t, newStore(t)) })
	t.Run("find files by prefix", func(t *testing.T) { testFindFilesByPrefix(t, newStore(t)) })
	t.Run("exists folder with parent", func(t *testing.T) { testExistsFolderWithParent(t, newStore(t)) })
	t.Run("delete", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("delete counts listed nodes once", func(t *testing.T) { testDeleteCount(t, newStore(t)) })
	t.Run("delete leaves no orphans", func(t *testing.T) { testDeleteNoOrphans(t, newStore(t)) })
	t.Run("all and count", func(t *testing.T) { testAllCount(t, newStore(t)) })
}

var clock = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// Insert stores a node with a creation time strictly after every earlier call
func Insert(t *testing.T, store repositories.NodeStore, name string, isFolder bool, parent *models.Node) *models.Node {
	t.Helper()
	clock = clock.Add(time.Millisecond)
	node := &models.Node{
		ID:        uuid.New(),
		Name:      name,
		IsFolder:  isFolder,
		CreatedAt: clock,
	}
	if parent != nil {
		node.ParentID = &parent.ID
	}
	require.NoError(t, store.Insert(context.Background(), node))
	return node
}

func nodeNames(nodes []models.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

func testInsertGet(t *testing.T, store repositories.NodeStore) {
	ctx := context.Background()
	root := Insert(t, store, "Root", true, nil)
	child := Insert(t, store, "child.txt", false, root)

	got, err := store.Get(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, root.ID, got.ID)
	assert.Equal(t, "Root", got.Name)
	assert.True(t, got.IsFolder)
	assert.Nil(t, got.ParentID)
	assert.True(t, root.CreatedAt.Equal(got.CreatedAt), "created_at round trip")

	got, err = store.Get(ctx, child.ID)
	require.NoError(t, err)
	assert.False(t, got.IsFolder)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, root.ID, *got.ParentID)

	_, err = store.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testInsertMissingParent(t *testing.T, store repositories.NodeStore) {
	ctx := context.Background()
	missing := uuid.New()

	err := store.Insert(ctx, &models.Node{
		ID:        uuid.New(),
		Name:      "orphan.txt",
		ParentID:  &missing,
		CreatedAt: clock,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidParent)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func testFindByParent(t *testing.T, store repositories.NodeStore) {
	ctx := context.Background()
	root := Insert(t, store, "Root", true, nil)
	sub := Insert(t, store, "Sub", true, root)
	Insert(t, store, "file1.txt", false, root)
	Insert(t, store, "file2.txt", false, sub)

	children, err := store.FindByParent(ctx, root.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Sub", "file1.txt"}, nodeNames(children))

	children, err = store.FindByParent(ctx, uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, children)
	assert.Empty(t, children)
}

func testFindByName(t *testing.T, store repositories.NodeStore) {
	ctx := context.Background()
	root := Insert(t, store, "notes", true, nil)
	Insert(t, store, "notes", false, root)
	Insert(t, store, "Notes", false, nil)

	all, err := store.FindByNameExact(ctx, "notes", false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	files, err := store.FindByNameExact(ctx, "notes", true)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.False(t, files[0].IsFolder)

	none, err := store.FindByNameExact(ctx, "note", true)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testFindFilesByPrefix(t *testing.T, store repositories.NodeStore) {
	ctx := context.Background()
	for _, name := range []string{"b.txt", "a2.txt", "B.txt", "a1.txt", "a10.txt", "100%_done.txt", "1000_done.txt"} {
		Insert(t, store, name, false, nil)
	}
	Insert(t, store, "a-folder", true, nil)

	tests := []struct {
		prefix string
		limit  int
		want   []string
	}{
		{prefix: "a", limit: 10, want: []string{"a1.txt", "a10.txt", "a2.txt"}},
		{prefix: "a", limit: 2, want: []string{"a1.txt", "a10.txt"}},
		{prefix: "B", limit: 10, want: []string{"B.txt"}},
		{prefix: "100%", limit: 10, want: []string{"100%_done.txt"}},
		{prefix: "100_", limit: 10, want: []string{}},
		{prefix: "z", limit: 10, want: []string{}},
	}

	for _, tt := range tests {
		got, err := store.FindFilesByPrefix(ctx, tt.prefix, tt.limit)
		require.NoError(t, err, "prefix %q", tt.prefix)
		assert.Equal(t, tt.want, nodeNames(got), "prefix %q limit %d", tt.prefix, tt.limit)
	}
}

func testExistsFolderWithParent(t *testing.T, store repositories.NodeStore) {
	ctx := context.Background()
	root := Insert(t, store, "Root", true, nil)
	onlyFiles := Insert(t, store, "OnlyFiles", true, root)
	Insert(t, store, "a.txt", false, onlyFiles)

	exists, err := store.ExistsFolderWithParent(ctx, root.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.ExistsFolderWithParent(ctx, onlyFiles.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = store.ExistsFolderWithParent(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, exists)
}

func testDelete(t *testing.T, store repositories.NodeStore) {
	ctx := context.Background()
	root := Insert(t, store, "Root", true, nil)
	sub := Insert(t, store, "Sub", true, root)
	file := Insert(t, store, "file.txt", false, sub)
	keep := Insert(t, store, "keep.txt", false, nil)

	n, err := store.Delete(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = store.Delete(ctx, root.ID, sub.ID, file.ID, uuid.New())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	_, err = store.Get(ctx, keep.ID)
	assert.NoError(t, err)
}

func testDeleteCount(t *testing.T, store repositories.NodeStore) {
	ctx := context.Background()
	root := Insert(t, store, "Root", true, nil)
	sub := Insert(t, store, "Sub", true, root)
	file := Insert(t, store, "file.txt", false, sub)
	other := Insert(t, store, "other.txt", false, root)

	// Descendants first, parent in the middle, repeats included
	n, err := store.Delete(ctx, file.ID, root.ID, file.ID, sub.ID, other.ID, root.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func testDeleteNoOrphans(t *testing.T, store repositories.NodeStore) {
	ctx := context.Background()
	root := Insert(t, store, "Root", true, nil)
	sub := Insert(t, store, "Sub", true, root)
	leaf := Insert(t, store, "leaf.txt", false, sub)

	n, err := store.Delete(ctx, root.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	for _, id := range []uuid.UUID{sub.ID, leaf.ID} {
		_, err := store.Get(ctx, id)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
}

func testAllCount(t *testing.T, store repositories.NodeStore) {
	ctx := context.Background()

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	root := Insert(t, store, "Root", true, nil)
	Insert(t, store, "b.txt", false, root)
	Insert(t, store, "a.txt", false, nil)

	all, err = store.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Root", "b.txt", "a.txt"}, nodeNames(all))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}
