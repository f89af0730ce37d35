package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed files/*.sql
var migrationFiles embed.FS

// Status is the cache_documents schema version recorded in a database next
// to the newest version embedded in this binary.
type Status struct {
	Version uint // 0 when no migration has run
	Latest  uint
	Dirty   bool
}

// Current reports whether the schema needs no migration.
func (s Status) Current() bool {
	return !s.Dirty && s.Version == s.Latest
}

// Err describes what is wrong with the schema, or returns nil when it is current.
func (s Status) Err() error {
	switch {
	case s.Dirty:
		return fmt.Errorf("cache_documents schema is dirty at version %d (a migration failed previously)", s.Version)
	case s.Version == 0 && s.Latest > 0:
		return errors.New("cache database has no cache_documents schema (needs migration)")
	case s.Version < s.Latest:
		return fmt.Errorf("cache_documents schema is at version %d but latest is %d (%d migrations behind)",
			s.Version, s.Latest, s.Latest-s.Version)
	case s.Version > s.Latest:
		return fmt.Errorf("cache_documents schema version %d is newer than this si supports (%d), upgrade si",
			s.Version, s.Latest)
	}
	return nil
}

// ReadStatus reads the schema version of db.
func ReadStatus(db *sql.DB) (Status, error) {
	latest, err := latestVersion()
	if err != nil {
		return Status{}, fmt.Errorf("failed to determine latest version: %w", err)
	}

	m, err := newMigrate(db)
	if err != nil {
		return Status{}, err
	}
	// m is not closed: that would close db, which the caller owns.

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return Status{}, fmt.Errorf("failed to get cache schema version: %w", err)
	}

	return Status{Version: version, Latest: latest, Dirty: dirty}, nil
}

// CheckDBMigrationStatus returns nil when the cache_documents schema matches
// the latest embedded migration, and a descriptive error otherwise.
func CheckDBMigrationStatus(db *sql.DB) error {
	status, err := ReadStatus(db)
	if err != nil {
		return err
	}
	return status.Err()
}

// MigrateUp brings the cache_documents schema up to date. An up-to-date
// database is not an error; a dirty one or one written by a newer si is.
func MigrateUp(db *sql.DB) error {
	status, err := ReadStatus(db)
	if err != nil {
		return err
	}
	if status.Dirty || status.Version > status.Latest {
		return status.Err()
	}
	if status.Current() {
		return nil
	}

	m, err := newMigrate(db)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrating cache_documents from version %d: %w", status.Version, err)
	}
	return nil
}

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	sourceDriver, err := iofs.New(migrationFiles, "files")
	if err != nil {
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}

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

// latestVersion returns the highest embedded migration version.
func latestVersion() (uint, error) {
	src, err := iofs.New(migrationFiles, "files")
	if err != nil {
		return 0, fmt.Errorf("failed to read migration files: %w", err)
	}
	defer src.Close()

	return lastVersion(src)
}

// lastVersion walks src until Next reports no further version.
func lastVersion(src source.Driver) (uint, error) {
	version, err := src.First()
	if err != nil {
		return 0, err
	}

	for {
		next, err := src.Next(version)
		if err != nil {
			return version, nil
		}
		version = next
	}
}
