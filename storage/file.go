package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists one JSON file per session key under a root directory.
type FileStore struct {
	root string
}

// NewFileStore creates a file-backed store rooted at dir. The directory is
// created on first save, not here.
func NewFileStore(dir string) *FileStore {
	return &FileStore{root: dir}
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.root, key+".json")
}

// Save writes the record as JSON, replacing any previous file.
func (s *FileStore) Save(_ context.Context, rec Record) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := os.WriteFile(s.path(rec.Key), data, 0o644); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// Load reads the record for the key.
func (s *FileStore) Load(_ context.Context, key string) (Record, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("read session file: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, false, fmt.Errorf("decode session file: %w", err)
	}
	return rec, true, nil
}

// Delete removes the record file if it exists.
func (s *FileStore) Delete(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete session file: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}

// Verify FileStore implements Store
var _ Store = (*FileStore)(nil)
