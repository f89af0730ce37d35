package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"si-go/internal/database/migrations"
	"si-go/internal/si"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements si.CacheStore with one row per profile in the
// cache_documents table.
type SQLiteStore struct {
	db      *sql.DB
	profile string
	path    string
	now     func() time.Time
}

// NewSQLiteStore opens (creating if needed) the database at path, brings its
// schema up to date and returns a store for profile.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteStore(path, profile string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating cache database: %w", err)
	}

	return NewSQLiteStoreFromDB(db, profile), nil
}

// NewSQLiteStoreFromDB wraps an existing, migrated database connection.
func NewSQLiteStoreFromDB(db *sql.DB, profile string) *SQLiteStore {
	return &SQLiteStore{
		db:      db,
		profile: profile,
		now:     time.Now,
	}
}

// OpenConnection opens and configures a SQLite database connection.
// A single connection is used: the CLI is one process doing sequential work,
// and ":memory:" databases are per connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// IsInitialized reports whether a document exists for the profile.
func (s *SQLiteStore) IsInitialized() bool {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM cache_documents WHERE profile = ?", s.profile).Scan(&n)
	return err == nil && n > 0
}

// Load reads and decodes the profile's document.
func (s *SQLiteStore) Load() (*si.CacheDocument, error) {
	var body string
	err := s.db.QueryRow("SELECT body FROM cache_documents WHERE profile = ?", s.profile).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no document for profile %q, run setup first", si.ErrCacheNotFound, s.profile)
		}
		return nil, fmt.Errorf("reading cache document: %w", err)
	}
	return si.DecodeDocument([]byte(body))
}

// Save inserts or replaces the profile's document.
func (s *SQLiteStore) Save(doc *si.CacheDocument) error {
	data, err := si.EncodeDocument(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", si.ErrCacheWrite, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO cache_documents (profile, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(profile) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		s.profile, string(data), s.now().UTC())
	if err != nil {
		return fmt.Errorf("%w: saving profile %q: %v", si.ErrCacheWrite, s.profile, err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Compile-time check that SQLiteStore implements si.CacheStore interface
var _ si.CacheStore = (*SQLiteStore)(nil)
