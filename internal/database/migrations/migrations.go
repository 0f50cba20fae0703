package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Schema versions recorded in the databases this tool produces. They track
// the migration file numbering and are stored in db_info.db_version.
const (
	CatalogSchemaVersion int64 = 1
	MergeSchemaVersion   int64 = 1
)

//go:embed catalog/*.sql merge/*.sql
var migrationFiles embed.FS

// CatalogUp applies all pending catalog-schema migrations.
func CatalogUp(db *sql.DB) error {
	return up(db, "catalog")
}

// MergeUp applies all pending merge-schema migrations.
func MergeUp(db *sql.DB) error {
	return up(db, "merge")
}

// up applies the migrations from the named embedded directory.
func up(db *sql.DB, dir string) error {
	m, err := newMigrate(db, dir)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	// Note: We don't close m here because it would close the db connection
	// The caller owns the db and is responsible for closing it

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			// Database is already at latest version - this is fine
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// newMigrate creates a migrate instance for the given database and
// embedded migration directory.
func newMigrate(db *sql.DB, dir string) (*migrate.Migrate, error) {
	sourceDriver, err := iofs.New(migrationFiles, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}

	// Create database driver (wraps *sql.DB with SQLite-specific migration logic)
	dbDriver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		sourceDriver.Close()
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", dbDriver)
	if err != nil {
		sourceDriver.Close()
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return m, nil
}
