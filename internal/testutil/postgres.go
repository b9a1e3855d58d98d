package testutil

import (
	"context"
	"testing"
	"time"

	"ezcode-server/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Postgres - запущенный тестовый контейнер с примененными миграциями.
type Postgres struct {
	DSN  string
	Pool *pgxpool.Pool
}

// StartPostgres поднимает PostgreSQL, применяет миграции и регистрирует очистку.
func StartPostgres(t *testing.T) *Postgres {
	t.Helper()
	RequireDocker(t)
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("ezcode_test"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(t, err, "Failed to start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, database.NewMigrator(dsn, zerolog.Nop()).Up(), "Failed to run migrations")

	pool, err := database.Connect(ctx, database.PoolConfig{DSN: dsn, MaxConns: 5})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return &Postgres{DSN: dsn, Pool: pool}
}
