// Package storage persists uploaded document files on the local filesystem.
// Files are stored under a configured root with random names; document rows
// reference them by path. Removing a file that is already gone is a no-op so
// compensating deletes stay idempotent.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/docvault/docvault/internal/uniuri"
)

var (
	// ErrRootEmpty is returned when the store is created without a root directory.
	ErrRootEmpty = errors.New("storage root cannot be empty")
	// ErrOutsideRoot is returned when a path escapes the storage root.
	ErrOutsideRoot = errors.New("path is outside the storage root")
)

// storedNameLen is the length of the random part of stored file names.
const storedNameLen = 24

// Store is a local-disk file store.
type Store struct {
	root string
}

// New creates a file store rooted at the given directory, creating it if needed.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, ErrRootEmpty
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root: %w", err)
	}

	if err := os.MkdirAll(absRoot, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}

	return &Store{root: absRoot}, nil
}

// Root returns the absolute storage root directory.
func (s *Store) Root() string {
	return s.root
}

// Save writes the content to a new file under the store root and returns its
// path and size. The stored name is random; only the extension of the
// original name is kept.
func (s *Store) Save(src io.Reader, originalName string) (string, int64, error) {
	name := uniuri.NewLen(storedNameLen) + sanitizeExt(originalName)
	path := filepath.Join(s.root, name)

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(dst, src)
	if err != nil {
		dst.Close()
		os.Remove(path)

		return "", 0, fmt.Errorf("failed to write file: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(path)

		return "", 0, fmt.Errorf("failed to close file: %w", err)
	}

	return path, written, nil
}

// Remove deletes a stored file. A missing file is not an error.
func (s *Store) Remove(path string) error {
	if err := s.check(path); err != nil {
		return err
	}

	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove file: %w", err)
	}

	return nil
}

// Exists reports whether a stored file is present on disk.
func (s *Store) Exists(path string) bool {
	if err := s.check(path); err != nil {
		return false
	}

	_, err := os.Stat(path)

	return err == nil
}

// check guards against paths escaping the storage root.
func (s *Store) check(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	if abs != s.root && !strings.HasPrefix(abs, s.root+string(os.PathSeparator)) {
		return ErrOutsideRoot
	}

	return nil
}

// sanitizeExt keeps only a plain file extension from the original name.
func sanitizeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	for _, r := range ext {
		if r != '.' && (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}

	return ext
}
