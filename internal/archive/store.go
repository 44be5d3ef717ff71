package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileRecordStore persists archive records as a JSON array file, replaced
// wholesale on every write. The mutex serializes the read-modify-write so
// concurrent completions cannot drop each other's outcome within a process.
type FileRecordStore struct {
	mu   sync.Mutex
	path string
}

// NewFileRecordStore creates a store backed by the given file path.
func NewFileRecordStore(path string) *FileRecordStore {
	return &FileRecordStore{path: path}
}

// Init writes an empty array if the file does not exist yet.
func (s *FileRecordStore) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat archives file: %w", err)
	}
	return s.replaceLocked([]Record{})
}

// Write stores rec, replacing any existing record with the same bookmark id.
func (s *FileRecordStore) Write(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadLocked()
	if err != nil {
		return err
	}

	replaced := false
	for i, existing := range records {
		if existing.BookmarkID == rec.BookmarkID {
			records[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, rec)
	}
	return s.replaceLocked(records)
}

// FindByBookmarkID returns the record for the bookmark, if any.
func (s *FileRecordStore) FindByBookmarkID(bookmarkID string) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadLocked()
	if err != nil {
		return Record{}, false, err
	}
	for _, rec := range records {
		if rec.BookmarkID == bookmarkID {
			return rec, true, nil
		}
	}
	return Record{}, false, nil
}

// All returns every persisted record.
func (s *FileRecordStore) All() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *FileRecordStore) loadLocked() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read archives file: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse archives file: %w", err)
	}
	return records, nil
}

func (s *FileRecordStore) replaceLocked(records []Record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode archives: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".archives-*.json")
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
		return fmt.Errorf("replace archives file: %w", err)
	}
	return nil
}
