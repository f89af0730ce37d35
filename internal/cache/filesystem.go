package cache

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"si-go/internal/si"
)

// DefaultFileName is the cache file created in the user's home directory.
const DefaultFileName = ".small-improvements-cache"

// FileSystemStore keeps the cache document in a single file. When an
// Encryptor is set the file holds ciphertext instead of JSON.
type FileSystemStore struct {
	path      string
	encryptor si.Encryptor
}

// NewFileSystemStore creates a store for the file at path. encryptor may be nil.
func NewFileSystemStore(path string, encryptor si.Encryptor) *FileSystemStore {
	return &FileSystemStore{path: path, encryptor: encryptor}
}

// Path returns the cache file location.
func (s *FileSystemStore) Path() string {
	return s.path
}

// IsInitialized reports whether the cache file exists.
func (s *FileSystemStore) IsInitialized() bool {
	info, err := os.Stat(s.path)
	return err == nil && info.Mode().IsRegular()
}

// Load reads and decodes the cache file.
func (s *FileSystemStore) Load() (*si.CacheDocument, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: could not find %s, run setup first", si.ErrCacheNotFound, s.path)
		}
		return nil, fmt.Errorf("%w: could not read %s, re-run setup to fix: %v", si.ErrCacheCorrupt, s.path, err)
	}

	if s.encryptor != nil {
		var plain bytes.Buffer
		if err := s.encryptor.Decrypt(bytes.NewReader(data), &plain); err != nil {
			return nil, fmt.Errorf("%w: could not decrypt %s, re-run setup to fix: %v", si.ErrCacheCorrupt, s.path, err)
		}
		data = plain.Bytes()
	}

	doc, err := si.DecodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s was not valid JSON, re-run setup to fix: %w", s.path, err)
	}
	return doc, nil
}

// Save encodes doc and writes it using an atomic write (temp file + rename).
func (s *FileSystemStore) Save(doc *si.CacheDocument) error {
	data, err := si.EncodeDocument(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", si.ErrCacheWrite, err)
	}

	if s.encryptor != nil {
		var sealed bytes.Buffer
		if err := s.encryptor.Encrypt(bytes.NewReader(data), &sealed); err != nil {
			return fmt.Errorf("%w: encrypting %s: %v", si.ErrCacheWrite, s.path, err)
		}
		data = sealed.Bytes()
	}

	if err := s.writeFile(data); err != nil {
		return fmt.Errorf("%w: could not write %s: %v", si.ErrCacheWrite, s.path, err)
	}
	return nil
}

// writeFile replaces the cache file. The temp file lives in the same
// directory so the rename stays on one filesystem.
func (s *FileSystemStore) writeFile(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".si-cache-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing data: %w", err)
	}
	if err := tmpFile.Chmod(0600); err != nil {
		tmpFile.Close()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	success = true
	return nil
}

// Compile-time check that FileSystemStore implements si.CacheStore interface
var _ si.CacheStore = (*FileSystemStore)(nil)
