package iocache

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/huangsam/skillmine/internal/contract"
	"github.com/huangsam/skillmine/schema"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

// LatestVersion migrates the run ledger to its newest schema.
const LatestVersion = -1

// MigrationResult describes what a migration did.
type MigrationResult struct {
	From    uint
	To      uint
	Changed bool
}

// MigrateRuns moves the run ledger schema to targetVersion.
// A negative target means latest, zero rolls everything back.
func MigrateRuns(backend schema.DatabaseBackend, connStr string, targetVersion int) (MigrationResult, error) {
	if backend == schema.NoneBackend {
		return MigrationResult{}, fmt.Errorf("migrations are not supported for the %s backend", backend)
	}

	m, err := newMigrator(backend, connStr)
	if err != nil {
		return MigrationResult{}, err
	}
	defer func() { _, _ = m.Close() }()

	current, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return MigrationResult{}, fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		return MigrationResult{From: current}, fmt.Errorf("database is in a dirty state at version %d. Please fix manually or force version", current)
	}

	switch {
	case targetVersion < 0:
		err = m.Up()
	case targetVersion == 0:
		err = m.Down()
	default:
		err = m.Migrate(uint(targetVersion))
	}
	result := MigrationResult{From: current, To: current}
	if errors.Is(err, migrate.ErrNoChange) {
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("failed to migrate to version %d: %w", targetVersion, err)
	}

	result.Changed = true
	if v, _, verr := m.Version(); verr == nil {
		result.To = v
	} else {
		result.To = 0
	}
	return result, nil
}

// newMigrator builds a migrate instance over a dedicated connection.
func newMigrator(backend schema.DatabaseBackend, connStr string) (*migrate.Migrate, error) {
	db, err := openDB(backend, connStr, contract.GetRunsDBFilePath())
	if err != nil {
		return nil, err
	}

	var (
		driver database.Driver
		dir    string
	)
	switch backend {
	case schema.SQLiteBackend:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
		dir = "migrations/sqlite"
	case schema.MySQLBackend:
		driver, err = mysql.WithInstance(db, &mysql.Config{})
		dir = "migrations/mysql"
	case schema.PostgreSQLBackend:
		driver, err = postgres.WithInstance(db, &postgres.Config{})
		dir = "migrations/postgres"
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create %s migrate driver: %w", backend, err)
	}

	sub, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to access migrations directory: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "skillmine", driver)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}
