//go:build unix

package store

import (
	"fmt"
	"os"
	"syscall"

	"cfs-go/internal/cfs"
)

// ApplyAttrs mirrors mode, ownership and times onto an existing entry.
// Each attribute is attempted independently: chown typically needs
// privileges the process does not have, and that must not block the rest.
// Mode goes first so a restrictive mode does not prevent the time update.
func (s *FilesystemStore) ApplyAttrs(relativePath string, attrs cfs.Attrs) []error {
	path := s.abs(relativePath)
	var errs []error

	if err := syscall.Chmod(path, attrs.Mode&07777); err != nil {
		errs = append(errs, fmt.Errorf("chmod: %w", err))
	}
	if err := os.Lchown(path, attrs.UID, attrs.GID); err != nil {
		errs = append(errs, fmt.Errorf("chown: %w", err))
	}
	if err := os.Chtimes(path, attrs.Atime, attrs.Mtime); err != nil {
		errs = append(errs, fmt.Errorf("utime: %w", err))
	}
	return errs
}
