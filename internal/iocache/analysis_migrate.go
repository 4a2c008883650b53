package iocache

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/huangsam/fundscore/schema"
)

// migrationsTable records the applied schema version of the run history store.
const migrationsTable = "fundscore_schema_migrations"

//go:embed migrations
var migrationsFS embed.FS

// migrationDirs maps each backend to its SQL dialect directory.
var migrationDirs = map[schema.DatabaseBackend]string{
	schema.SQLiteBackend:     "migrations/sqlite",
	schema.MySQLBackend:      "migrations/mysql",
	schema.PostgreSQLBackend: "migrations/postgres",
}

// MigrationResult describes the outcome of a migration.
type MigrationResult struct {
	From    uint
	To      uint
	Changed bool
}

// newMigrator wraps db in a migrate instance reading the embedded SQL for backend.
func newMigrator(db *sql.DB, backend schema.DatabaseBackend) (*migrate.Migrate, error) {
	dir, ok := migrationDirs[backend]
	if !ok {
		return nil, fmt.Errorf("migrations are not supported for backend %q", backend)
	}

	var driver database.Driver
	var err error
	switch backend {
	case schema.SQLiteBackend:
		driver, err = migratesqlite.WithInstance(db, &migratesqlite.Config{MigrationsTable: migrationsTable})
	case schema.MySQLBackend:
		driver, err = migratemysql.WithInstance(db, &migratemysql.Config{MigrationsTable: migrationsTable})
	case schema.PostgreSQLBackend:
		driver, err = migratepgx.WithInstance(db, &migratepgx.Config{MigrationsTable: migrationsTable})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s migrate driver: %w", backend, err)
	}

	sub, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access migrations directory: %w", err)
	}
	sourceDriver, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}
	return migrate.NewWithInstance("iofs", sourceDriver, string(backend), driver)
}

// migrateAnalysisDB moves the run history schema to targetVersion.
//   - targetVersion < 0 migrates to the latest version.
//   - targetVersion == 0 rolls back every migration.
//   - targetVersion > 0 migrates to that version.
func migrateAnalysisDB(backend schema.DatabaseBackend, connStr string, targetVersion int) (MigrationResult, error) {
	var res MigrationResult
	if backend == schema.NoneBackend {
		return res, errors.New("migrations are not supported for the none backend")
	}

	db, err := openDB(backend, connStr, GetAnalysisDBFilePath())
	if err != nil {
		return res, err
	}
	m, err := newMigrator(db, backend)
	if err != nil {
		_ = db.Close()
		return res, err
	}
	defer func() { _, _ = m.Close() }()

	current, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return res, fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		return res, fmt.Errorf("database is in a dirty state at version %d. Please fix manually or force version", current)
	}
	res.From = current

	switch {
	case targetVersion < 0:
		err = m.Up()
	case targetVersion == 0:
		err = m.Down()
	default:
		err = m.Migrate(uint(targetVersion))
	}
	if errors.Is(err, migrate.ErrNoChange) {
		res.To = current
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("failed to migrate from version %d: %w", current, err)
	}

	res.Changed = true
	res.To, _, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		res.To, err = 0, nil
	}
	return res, err
}

// MigrateAnalysis runs database migrations for the analysis store and
// reports the outcome on stdout.
func MigrateAnalysis(backend schema.DatabaseBackend, connStr string, targetVersion int) error {
	res, err := migrateAnalysisDB(backend, connStr, targetVersion)
	if err != nil {
		return err
	}
	if !res.Changed {
		fmt.Printf("No migration needed. Database is already at version %d\n", res.To)
		return nil
	}
	fmt.Printf("Successfully migrated from version %d to version %d\n", res.From, res.To)
	return nil
}
