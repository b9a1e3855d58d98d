package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq" // драйвер "postgres" для database/sql
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator применяет встроенные SQL-миграции.
type Migrator struct {
	dsn    string
	logger zerolog.Logger
}

func NewMigrator(dsn string, logger zerolog.Logger) *Migrator {
	return &Migrator{dsn: dsn, logger: logger.With().Str("component", "migrator").Logger()}
}

// Up применяет все новые миграции.
func (m *Migrator) Up() error {
	return m.run(func(mg *migrate.Migrate) error {
		if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		m.logger.Info().Msg("database migrations applied")
		return nil
	})
}

// Down откатывает steps миграций; steps <= 0 откатывает все.
func (m *Migrator) Down(steps int) error {
	return m.run(func(mg *migrate.Migrate) error {
		var err error
		if steps > 0 {
			err = mg.Steps(-steps)
		} else {
			err = mg.Down()
		}
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to roll back migrations: %w", err)
		}
		m.logger.Info().Int("steps", steps).Msg("database migrations rolled back")
		return nil
	})
}

// Version возвращает текущую версию схемы. Пустая база - версия 0.
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	err = m.run(func(mg *migrate.Migrate) error {
		v, d, verr := mg.Version()
		if verr != nil {
			if errors.Is(verr, migrate.ErrNilVersion) {
				return nil
			}
			return fmt.Errorf("failed to get migration version: %w", verr)
		}
		version, dirty = v, d
		return nil
	})
	return version, dirty, err
}

// ForceVersion выставляет версию без выполнения миграций (снятие dirty-флага).
func (m *Migrator) ForceVersion(version int) error {
	return m.run(func(mg *migrate.Migrate) error {
		if err := mg.Force(version); err != nil {
			return fmt.Errorf("failed to force migration version: %w", err)
		}
		m.logger.Warn().Int("version", version).Msg("database migration version forced")
		return nil
	})
}

func (m *Migrator) run(fn func(*migrate.Migrate) error) error {
	db, err := sql.Open("postgres", m.dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: "schema_migrations"})
	if err != nil {
		return fmt.Errorf("failed to create migrate driver: %w", err)
	}
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migrations source: %w", err)
	}
	mg, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	mg.LockTimeout = 30 * time.Second
	defer mg.Close()

	return fn(mg)
}
