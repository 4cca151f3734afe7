package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pharmacy/analytics/internal/application/report"
)

var _ report.Archive = (*LocalArchive)(nil)

// LocalArchive writes reports below a directory, mirroring the object key layout
type LocalArchive struct {
	root string
}

// NewLocalArchive creates the root directory if needed
func NewLocalArchive(root string) (*LocalArchive, error) {
	if root == "" {
		return nil, errors.New("archive directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	return &LocalArchive{root: root}, nil
}

// Put writes body to root/key. Keys may not escape the root.
func (a *LocalArchive) Put(ctx context.Context, key, contentType string, body []byte) error {
	path, err := a.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (a *LocalArchive) resolve(key string) (string, error) {
	if key == "" {
		return "", errors.New("archive key is required")
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("archive key %q escapes the archive root", key)
	}
	return filepath.Join(a.root, clean), nil
}
