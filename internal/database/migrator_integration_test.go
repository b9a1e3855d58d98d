package database_test

import (
	"context"
	"testing"

	"ezcode-server/internal/database"
	"ezcode-server/internal/testutil"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrator_UpDownVersion(t *testing.T) {
	pg := testutil.StartPostgres(t)
	ctx := context.Background()
	m := database.NewMigrator(pg.DSN, zerolog.Nop())

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(4), version)
	assert.False(t, dirty)

	// Повторный Up - без изменений.
	require.NoError(t, m.Up())

	var tools int
	require.NoError(t, pg.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM tools`).Scan(&tools))
	assert.Equal(t, 6, tools)

	require.NoError(t, m.Down(2))
	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	require.NoError(t, pg.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM tools`).Scan(&tools))
	assert.Equal(t, 0, tools)

	require.NoError(t, m.ForceVersion(2))
	require.NoError(t, m.Up())
	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(4), version)
}

func TestIsUniqueViolation(t *testing.T) {
	pg := testutil.StartPostgres(t)
	ctx := context.Background()

	_, err := pg.Pool.Exec(ctx, `INSERT INTO categories (name, slug) VALUES ('Dup', 'ai-assistant')`)
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
	assert.False(t, database.IsForeignKeyViolation(err))
	assert.False(t, database.IsUniqueViolation(nil))
}
