//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
PostgreSQL test helpers backed by testcontainers
- starts a postgres:16-alpine container
- applies the schema through Migrate
- terminates the container on cleanup

Run with: go test -tags=integration ./trigger/postgres/...
*/

const (
	defaultDatabase = "golive"
	defaultUser     = "testuser"
	defaultPassword = "testpass"
)

type PostgresContainer struct {
	Container testcontainers.Container
	DB        *sql.DB
	ConnStr   string
}

// SetupPostgresContainer starts a PostgreSQL container and returns a migrated repository
func SetupPostgresContainer(t *testing.T, ctx context.Context) (*PostgresContainer, *Repository, func()) {
	t.Helper()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(defaultDatabase),
		postgres.WithUsername(defaultUser),
		postgres.WithPassword(defaultPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	repo, err := NewRepository(connStr)
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(ctx))

	container := &PostgresContainer{
		Container: pgContainer,
		DB:        repo.DB,
		ConnStr:   connStr,
	}

	cleanup := func() {
		_ = repo.Close(ctx)
		_ = pgContainer.Terminate(ctx)
	}

	return container, repo, cleanup
}

// AssertRecordCount checks the number of rows in go_live_triggers
func AssertRecordCount(t *testing.T, ctx context.Context, db *sql.DB, expected int) {
	t.Helper()

	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM go_live_triggers").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, expected, count)
}
