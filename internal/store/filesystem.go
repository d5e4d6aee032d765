// Package store provides the destinations a catalog index is written to.
// The filesystem store is the production target; the memory store backs
// tests and the s3 store uploads records to an object bucket.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"cfs-go/internal/cfs"
)

// FilesystemStore writes the index as a real directory tree rooted at a
// base path. Entries are never overwritten: creation fails when the path
// is already occupied, and Exists lets the caller claim paths up front.
type FilesystemStore struct {
	root string
}

// NewFilesystemStore creates a store writing under root. The root itself
// must already exist.
func NewFilesystemStore(root string) *FilesystemStore {
	return &FilesystemStore{root: root}
}

func (s *FilesystemStore) abs(relativePath string) string {
	return filepath.Join(s.root, filepath.FromSlash(relativePath))
}

// Exists reports whether any entry occupies the path, without following
// symlinks: a dangling symlink still occupies its name.
func (s *FilesystemStore) Exists(relativePath string) (bool, error) {
	_, err := os.Lstat(s.abs(relativePath))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat output entry: %w", err)
}

// MkDir creates a directory entry. Permissions are widened here and
// tightened later by ApplyAttrs, after the directory's children are written.
func (s *FilesystemStore) MkDir(relativePath string) error {
	if err := os.Mkdir(s.abs(relativePath), 0777); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return nil
}

// WriteRecord creates a file entry holding an encoded record.
func (s *FilesystemStore) WriteRecord(relativePath string, data []byte) error {
	f, err := os.OpenFile(s.abs(relativePath), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("creating record file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing record: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	return nil
}

// WriteSymlink creates a symlink entry pointing at target.
func (s *FilesystemStore) WriteSymlink(relativePath, target string) error {
	if err := os.Symlink(target, s.abs(relativePath)); err != nil {
		return fmt.Errorf("creating symlink: %w", err)
	}
	return nil
}

// Compile-time check that FilesystemStore implements cfs.Store interface
var _ cfs.Store = (*FilesystemStore)(nil)
