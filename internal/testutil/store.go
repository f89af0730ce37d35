package testutil

import (
	"path/filepath"
	"testing"

	"si-go/internal/cache"
	"si-go/internal/si"
)

// NewTestStore creates an in-memory cache store. When doc is non-nil it is
// saved first, so the store starts out initialized.
func NewTestStore(t *testing.T, doc *si.CacheDocument) *cache.MemoryStore {
	t.Helper()

	store := cache.NewMemoryStore()
	if doc != nil {
		if err := store.Save(doc); err != nil {
			t.Fatalf("failed to seed store: %v", err)
		}
	}
	return store
}

// NewEncryptedFileStore creates a file-backed store in a temp directory that
// encrypts with the test encryptor.
func NewEncryptedFileStore(t *testing.T) *cache.FileSystemStore {
	t.Helper()
	return cache.NewFileSystemStore(filepath.Join(t.TempDir(), cache.DefaultFileName), NewTestEncryptor())
}

// ExampleDocument returns a cached team with a manager and three reports.
// In roster order they are: Alex Apricot (manager), Alice Appleton,
// Charlie Chaplin, Robert Rogers ("Bob").
func ExampleDocument() *si.CacheDocument {
	doc := si.NewCacheDocument()
	doc.Me = &si.Me{ID: "me-1", IsManager: true}
	doc.BaseURL = "https://acme.small-improvements.com"
	doc.Manager = &si.Teammate{ID: "boss-1", FirstName: "Alex", Name: "Alex Apricot", Relationship: si.RelationshipManager}
	doc.Team["Alice Appleton"] = &si.Teammate{ID: "alice-1", FirstName: "Alice", Name: "Alice Appleton", Relationship: si.RelationshipReport}
	doc.Team["Charlie Chaplin"] = &si.Teammate{ID: "charlie-1", FirstName: "Charlie", Name: "Charlie Chaplin", Relationship: si.RelationshipReport}
	doc.Team["Robert Rogers"] = &si.Teammate{ID: "bob-1", FirstName: "Robert", Name: "Robert Rogers", Nickname: "Bob", Relationship: si.RelationshipReport}
	return doc
}
