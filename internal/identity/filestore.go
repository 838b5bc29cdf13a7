package identity

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists the current user id as a small JSON file, the client
// equivalent of the site's uid cookie. A missing or unreadable file resolves
// to Unset rather than an error.
type FileStore struct {
	path string
}

type fileState struct {
	UID int64 `json:"uid"`
}

// NewFileStore creates a FileStore backed by the given path. The parent
// directory is created on the first Persist, not here.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Resolve() int64 {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return Unset
	}

	var state fileState
	if err := json.Unmarshal(b, &state); err != nil {
		return Unset
	}
	return state.UID
}

func (s *FileStore) Persist(id int64) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create identity directory: %w", err)
	}

	b, err := json.Marshal(fileState{UID: id})
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}

	// Write-then-rename so a crash mid-write never leaves a truncated file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("failed to write identity: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace identity file: %w", err)
	}
	return nil
}
