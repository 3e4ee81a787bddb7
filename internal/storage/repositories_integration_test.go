//go:build integration

package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestCatalogRepository_Postgres(t *testing.T) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("crossref_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://test:test@%s:%s/crossref_test?sslmode=disable", host, port.Port())

	db, err := Open(ctx, DialectPostgres, dsn, OpenOptions{MaxOpenConns: 4})
	require.NoError(t, err)
	defer db.Close()

	repo := NewCatalogRepository(db, DialectPostgres)
	require.NoError(t, repo.Migrate(ctx))

	_, err = repo.Import(ctx, testDataset(), "fixtures", true)
	require.NoError(t, err)

	ds, err := repo.LoadDataset(ctx)
	require.NoError(t, err)
	assert.Equal(t, testDataset().Competitors, ds.Competitors)
	assert.Equal(t, testDataset().Legacy, ds.Legacy)

	latest, err := repo.LatestImport(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fixtures", latest.Source)
}
