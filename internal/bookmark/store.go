package bookmark

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store persists the bookmark collection as a single JSON file, replaced
// wholesale on every write.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a Store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Init writes an empty collection if the file does not exist yet.
func (s *Store) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat bookmarks file: %w", err)
	}
	return s.replaceLocked(EmptyCollection())
}

// Load reads the full collection from disk.
func (s *Store) Load() (Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// Replace overwrites the whole collection.
func (s *Store) Replace(c Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceLocked(c)
}

func (s *Store) loadLocked() (Collection, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Collection{}, fmt.Errorf("read bookmarks file: %w", err)
	}
	var c Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return Collection{}, fmt.Errorf("parse bookmarks file: %w", err)
	}
	return c, nil
}

// replaceLocked writes to a temp file in the same directory and renames it
// over the target, so readers never observe a partial file.
func (s *Store) replaceLocked(c Collection) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode bookmarks: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".bookmarks-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace bookmarks file: %w", err)
	}
	return nil
}
