// Package session owns the admin credential: its durable storage, the
// in-memory session state, and the centralized 401 side effect.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/content"
)

// Credential is the bearer token plus the user it was issued to. A non-nil
// credential always corresponds to a previously accepted login; no local
// validation of authenticity or expiry is performed.
type Credential struct {
	Token string       `json:"token"`
	User  content.User `json:"user"`
}

// Store is the durable storage abstraction for the credential. Load returns
// apperr.ErrNoCredential when nothing is stored.
type Store interface {
	Load() (*Credential, error)
	Save(*Credential) error
	Clear() error
}

// FileStore persists the credential as a JSON file with owner-only
// permissions. Writes are atomic: tmp file, fsync, rename.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore at path, creating the parent directory
// if needed.
func NewFileStore(path string) (*FileStore, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("session: resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o700); err != nil {
		return nil, fmt.Errorf("session: create dir: %w", err)
	}
	return &FileStore{path: abs}, nil
}

// Path returns the absolute file path backing the store.
func (f *FileStore) Path() string { return f.path }

// Load reads and decodes the stored credential.
func (f *FileStore) Load() (*Credential, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, apperr.ErrNoCredential
	}
	if err != nil {
		return nil, fmt.Errorf("session: read credential: %w", err)
	}
	var c Credential
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("session: decode credential: %w", err)
	}
	if c.Token == "" {
		return nil, apperr.ErrNoCredential
	}
	return &c, nil
}

// Save atomically writes the credential.
func (f *FileStore) Save(c *Credential) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("session: encode credential: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".ansuz-cred-*")
	if err != nil {
		return fmt.Errorf("session: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err := tmp.Chmod(0o600); err != nil {
		return fmt.Errorf("session: chmod temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("session: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("session: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("session: close temp: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("session: rename: %w", err)
	}
	success = true
	return nil
}

// Clear removes the stored credential. Clearing an absent credential is not
// an error.
func (f *FileStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session: clear credential: %w", err)
	}
	return nil
}

// MemoryStore is an in-process Store used in tests.
type MemoryStore struct {
	mu   sync.Mutex
	cred *Credential
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

// Load returns the stored credential or apperr.ErrNoCredential.
func (m *MemoryStore) Load() (*Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil {
		return nil, apperr.ErrNoCredential
	}
	c := *m.cred
	return &c, nil
}

// Save stores a copy of the credential.
func (m *MemoryStore) Save(c *Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.cred = &cp
	return nil
}

// Clear drops the stored credential.
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = nil
	return nil
}
