package fs

import (
	"fmt"
	"io"
	"io/fs"
	"os"

	"cfs-go/internal/cfs"
	"cfs-go/internal/cfsfile"
)

// OSSourceTree is the real filesystem implementation of cfs.SourceTree.
// It never follows symlinks: entries are classified by lstat.
type OSSourceTree struct {
	ignore *IgnoreMatcher
}

// NewOSSourceTree creates a source tree reading the real filesystem, with
// the given ignore patterns applied to relative entry paths.
func NewOSSourceTree(ignorePatterns []string) *OSSourceTree {
	return &OSSourceTree{ignore: NewIgnoreMatcher(ignorePatterns)}
}

// ReadDir returns the child names of a directory in lexical order.
func (t *OSSourceTree) ReadDir(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}

// Lstat stats an entry without following symlinks and captures its full
// metadata record.
func (t *OSSourceTree) Lstat(path string) (*cfs.EntryInfo, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, fmt.Errorf("stat entry: %w", err)
	}

	rec, err := cfsfile.FromFileInfo(info)
	if err != nil {
		return nil, err
	}

	return &cfs.EntryInfo{
		Kind:   entryKind(info.Mode()),
		Size:   info.Size(),
		Record: rec,
	}, nil
}

// Readlink returns the target of a symlink.
func (t *OSSourceTree) Readlink(path string) (string, error) {
	return os.Readlink(path)
}

// Open opens a file for reading.
func (t *OSSourceTree) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// IsIgnored reports whether the relative path matches the ignore patterns.
func (t *OSSourceTree) IsIgnored(relativePath string) bool {
	return t.ignore.Match(relativePath)
}

func entryKind(mode fs.FileMode) cfs.EntryKind {
	switch {
	case mode&fs.ModeSymlink != 0:
		return cfs.EntrySymlink
	case mode.IsDir():
		return cfs.EntryDir
	case mode.IsRegular():
		return cfs.EntryFile
	default:
		return cfs.EntryOther
	}
}

// Compile-time check that OSSourceTree implements cfs.SourceTree interface
var _ cfs.SourceTree = (*OSSourceTree)(nil)
