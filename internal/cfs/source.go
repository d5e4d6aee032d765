package cfs

import (
	"io"

	"cfs-go/internal/cfsfile"
)

// EntryKind classifies a source entry by its lstat type.
type EntryKind int

const (
	EntryDir EntryKind = iota
	EntryFile
	EntrySymlink
	// EntryOther covers devices, sockets, pipes and anything else the
	// catalog does not represent.
	EntryOther
)

// EntryInfo is the lstat snapshot of one source entry.
type EntryInfo struct {
	Kind EntryKind
	Size int64
	// Record carries the full stat-derived metadata for the entry.
	Record cfsfile.Record
}

// SourceTree abstracts read access to the tree being indexed.
// It enables testing the orchestrator without touching the real filesystem.
type SourceTree interface {
	// ReadDir returns the child names of a directory in lexical order.
	ReadDir(path string) ([]string, error)

	// Lstat returns entry info without following symlinks.
	Lstat(path string) (*EntryInfo, error)

	// Readlink returns the target of a symlink.
	Readlink(path string) (string, error)

	// Open opens a regular file for reading.
	Open(path string) (io.ReadCloser, error)

	// IsIgnored reports whether the entry at the given path, relative to
	// the tree root, matches the configured ignore patterns.
	IsIgnored(relativePath string) bool
}
