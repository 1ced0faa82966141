package documents

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FileStore keeps rendered PDFs on local disk as <dir>/<id>.pdf.
type FileStore struct {
	dir string
}

// NewFileStore creates dir when missing.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("documents: create storage dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes data atomically under id.
func (s *FileStore) Save(id string, data []byte) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, "render-*.tmp")
	if err != nil {
		return fmt.Errorf("documents: temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("documents: write %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("documents: close %s: %w", id, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("documents: store %s: %w", id, err)
	}
	return nil
}

// Open returns the stored file for id. The caller closes it.
func (s *FileStore) Open(id string) (*os.File, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

// path only accepts UUIDs so ids can never escape dir.
func (s *FileStore) path(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", ErrNotFound
	}
	return filepath.Join(s.dir, parsed.String()+".pdf"), nil
}
