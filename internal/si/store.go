package si

import "errors"

var (
	// ErrCacheNotFound means no cache document has been saved yet. Run setup.
	ErrCacheNotFound = errors.New("cache not found")

	// ErrCacheCorrupt means the stored document could not be parsed. Re-run setup.
	ErrCacheCorrupt = errors.New("cache is corrupt")

	// ErrCacheWrite means the document could not be persisted.
	ErrCacheWrite = errors.New("cache write failed")
)

// CacheStore persists the single cache document for the current user.
// Implementations are not safe for concurrent use by multiple processes.
type CacheStore interface {
	// IsInitialized reports whether a document has been saved.
	IsInitialized() bool

	// Load returns the stored document. It fails with ErrCacheNotFound when
	// nothing has been saved and ErrCacheCorrupt when the stored bytes are
	// not a valid document.
	Load() (*CacheDocument, error)

	// Save replaces the stored document. Failures wrap ErrCacheWrite.
	Save(doc *CacheDocument) error
}
