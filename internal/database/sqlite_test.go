package database

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"si-go/internal/si"
)

func newTestStore(t *testing.T, profile string) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:", profile)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleDocument() *si.CacheDocument {
	doc := si.NewCacheDocument()
	doc.Me = &si.Me{ID: "me-1", IsManager: true}
	doc.BaseURL = "https://acme.small-improvements.com"
	doc.Manager = &si.Teammate{ID: "boss", FirstName: "Alex", Name: "Alex Apricot", Relationship: si.RelationshipManager}
	doc.Team["Alice Appleton"] = &si.Teammate{ID: "a1", FirstName: "Alice", Name: "Alice Appleton", Nickname: "Ali", Relationship: si.RelationshipReport}
	return doc
}

func TestSQLiteStore_LoadBeforeSave(t *testing.T) {
	store := newTestStore(t, "default")

	if store.IsInitialized() {
		t.Error("IsInitialized() = true on empty database, want false")
	}

	_, err := store.Load()
	if !errors.Is(err, si.ErrCacheNotFound) {
		t.Errorf("Load() error = %v, want ErrCacheNotFound", err)
	}
}

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	store := newTestStore(t, "default")

	if err := store.Save(sampleDocument()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !store.IsInitialized() {
		t.Error("IsInitialized() = false after Save, want true")
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Me.ID != "me-1" {
		t.Errorf("Me.ID = %q, want %q", got.Me.ID, "me-1")
	}
	if got.Team["Alice Appleton"].Nickname != "Ali" {
		t.Errorf("Nickname = %q, want %q", got.Team["Alice Appleton"].Nickname, "Ali")
	}
}

func TestSQLiteStore_SaveReplaces(t *testing.T) {
	store := newTestStore(t, "default")

	doc := sampleDocument()
	if err := store.Save(doc); err != nil {
		t.Fatalf("first Save() error = %v", err)
	}

	doc.BaseURL = "https://other.small-improvements.com"
	if err := store.Save(doc); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.BaseURL != "https://other.small-improvements.com" {
		t.Errorf("BaseURL = %q, want the second value", got.BaseURL)
	}

	var rows int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM cache_documents").Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if rows != 1 {
		t.Errorf("rows = %d, want 1", rows)
	}
}

func TestSQLiteStore_ProfilesAreIsolated(t *testing.T) {
	work := newTestStore(t, "work")
	if err := work.Save(sampleDocument()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	personal := NewSQLiteStoreFromDB(work.db, "personal")
	if personal.IsInitialized() {
		t.Error("IsInitialized() = true for a profile that was never saved")
	}
	if _, err := personal.Load(); !errors.Is(err, si.ErrCacheNotFound) {
		t.Errorf("Load() error = %v, want ErrCacheNotFound", err)
	}
}

func TestSQLiteStore_CorruptBody(t *testing.T) {
	store := newTestStore(t, "default")

	_, err := store.db.Exec("INSERT INTO cache_documents (profile, body, updated_at) VALUES ('default', 'not json', datetime('now'))")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := store.Load(); !errors.Is(err, si.ErrCacheCorrupt) {
		t.Errorf("Load() error = %v, want ErrCacheCorrupt", err)
	}
}

func TestNewSQLiteStore_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "si.db")

	store, err := NewSQLiteStore(path, "default")
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	if err := store.Save(sampleDocument()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	store.Close()

	reopened, err := NewSQLiteStore(path, "default")
	if err != nil {
		t.Fatalf("reopening NewSQLiteStore() error = %v", err)
	}
	defer reopened.Close()

	if !reopened.IsInitialized() {
		t.Error("document did not survive reopening the database")
	}
}

func TestNewSQLiteStore_NewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "si.db")

	store, err := NewSQLiteStore(path, "default")
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	if _, err := store.db.Exec("UPDATE schema_migrations SET version = 2"); err != nil {
		t.Fatal(err)
	}
	store.Close()

	_, err = NewSQLiteStore(path, "default")
	if err == nil || !strings.Contains(err.Error(), "newer than this si supports") {
		t.Errorf("NewSQLiteStore() error = %v, want a newer-schema error", err)
	}
}
