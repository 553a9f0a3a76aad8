package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	herosvc "hero-server/internal/app/hero"
	"hero-server/internal/platform/db"
	"hero-server/internal/storage/storagetest"
)

// Set POSTGRES_TEST_URL to run against a live server. Each subtest gets its
// own schema.
func TestStoreConformance(t *testing.T) {
	url := os.Getenv("POSTGRES_TEST_URL")
	if url == "" {
		t.Skip("POSTGRES_TEST_URL not set")
	}
	ctx := context.Background()

	storagetest.Run(t, func(t *testing.T) herosvc.Repository {
		schema := "heroes_test_" + uuid.NewString()[:8]
		admin, err := db.Connect(ctx, url, db.DefaultPoolOptions())
		require.NoError(t, err)
		_, err = admin.Exec(ctx, fmt.Sprintf(`CREATE SCHEMA %q`, schema))
		require.NoError(t, err)

		cfg, err := pgxpool.ParseConfig(url)
		require.NoError(t, err)
		cfg.ConnConfig.RuntimeParams["search_path"] = schema
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		require.NoError(t, err)

		t.Cleanup(func() {
			pool.Close()
			_, _ = admin.Exec(ctx, fmt.Sprintf(`DROP SCHEMA %q CASCADE`, schema))
			admin.Close()
		})

		s, err := New(ctx, pool)
		require.NoError(t, err)
		return s
	})
}

func TestEscapeLike(t *testing.T) {
	require.Equal(t, `50\%\_off`, escapeLike(`50%_off`))
}
