// Package blob stores uploaded attachments on local disk and returns the
// public URL they are served from.
package blob

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

type Store struct {
	dir     string
	baseURL string
}

func NewStore(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir, baseURL: baseURL}, nil
}

// Save writes the file under a generated name, keeping only the original
// extension, and returns its URL.
func (s *Store) Save(originalName string, r io.Reader) (string, error) {
	name := uuid.NewString() + filepath.Ext(filepath.Base(originalName))
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return s.baseURL + "/" + name, nil
}
