package repository

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodetree/internal/config"
	"nodetree/internal/repository/storetest"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	tests := []struct {
		name    string
		cfg     config.Config
		wantErr string
	}{
		{name: "memory", cfg: config.Config{Store: config.StoreMemory}},
		{name: "sqlite", cfg: config.Config{Store: config.StoreSQLite, SQLitePath: filepath.Join(t.TempDir(), "n.db"), TablePrefix: "test_"}},
		{name: "postgres without url", cfg: config.Config{Store: config.StorePostgres}, wantErr: "DATABASE_URL"},
		{name: "unknown", cfg: config.Config{Store: "redis"}, wantErr: "unknown store"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, err := Open(ctx, &tt.cfg, logger)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer backend.Close()

			assert.Equal(t, tt.cfg.Store, backend.Name)
			storetest.Insert(t, backend.Store, "a.txt", false, nil)

			require.NoError(t, backend.Clear(ctx))
			count, err := backend.Store.Count(ctx)
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	}
}
