package testutil

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"cfs-go/internal/cfs"
	"cfs-go/internal/cfsfile"
)

// fakeEntry represents one entry in the fake source tree.
type fakeEntry struct {
	kind    cfs.EntryKind
	content []byte
	target  string
	record  cfsfile.Record
}

// FakeSourceTree is an in-memory source tree for testing the snapshot
// orchestrator. Entries are keyed by their full path; errors can be
// injected per path to exercise failure handling.
type FakeSourceTree struct {
	entries map[string]*fakeEntry
	ignored map[string]bool

	// Injected errors, keyed by path.
	ReadDirErrs map[string]error
	StatErrs    map[string]error
	OpenErrs    map[string]error
}

// NewFakeSourceTree creates an empty fake source tree.
func NewFakeSourceTree() *FakeSourceTree {
	return &FakeSourceTree{
		entries:     make(map[string]*fakeEntry),
		ignored:     make(map[string]bool),
		ReadDirErrs: make(map[string]error),
		StatErrs:    make(map[string]error),
		OpenErrs:    make(map[string]error),
	}
}

// AddDir adds a directory entry with the given stat record.
func (t *FakeSourceTree) AddDir(path string, rec cfsfile.Record) {
	t.entries[path] = &fakeEntry{kind: cfs.EntryDir, record: rec}
}

// AddFile adds a regular file entry. When rec carries no size, the content
// length is used.
func (t *FakeSourceTree) AddFile(path string, content []byte, rec cfsfile.Record) {
	if !rec.Size.Valid {
		rec.Size = cfsfile.Int64(int64(len(content)))
	}
	t.entries[path] = &fakeEntry{kind: cfs.EntryFile, content: content, record: rec}
}

// AddSymlink adds a symlink entry pointing at target.
func (t *FakeSourceTree) AddSymlink(path, target string) {
	t.entries[path] = &fakeEntry{kind: cfs.EntrySymlink, target: target}
}

// AddOther adds an entry the catalog does not represent (device, socket).
func (t *FakeSourceTree) AddOther(path string) {
	t.entries[path] = &fakeEntry{kind: cfs.EntryOther}
}

// SetIgnored marks tree-relative paths as ignored.
func (t *FakeSourceTree) SetIgnored(relativePaths ...string) {
	for _, p := range relativePaths {
		t.ignored[p] = true
	}
}

func (t *FakeSourceTree) ReadDir(path string) ([]string, error) {
	if err := t.ReadDirErrs[path]; err != nil {
		return nil, err
	}

	var names []string
	for p := range t.entries {
		if filepath.Dir(p) == path {
			names = append(names, filepath.Base(p))
		}
	}
	sort.Strings(names)
	return names, nil
}

func (t *FakeSourceTree) Lstat(path string) (*cfs.EntryInfo, error) {
	if err := t.StatErrs[path]; err != nil {
		return nil, err
	}

	e, ok := t.entries[path]
	if !ok {
		return nil, fmt.Errorf("entry not found: %s", path)
	}
	return &cfs.EntryInfo{
		Kind:   e.kind,
		Size:   int64(len(e.content)),
		Record: e.record,
	}, nil
}

func (t *FakeSourceTree) Readlink(path string) (string, error) {
	e, ok := t.entries[path]
	if !ok || e.kind != cfs.EntrySymlink {
		return "", fmt.Errorf("not a symlink: %s", path)
	}
	return e.target, nil
}

func (t *FakeSourceTree) Open(path string) (io.ReadCloser, error) {
	if err := t.OpenErrs[path]; err != nil {
		return nil, err
	}

	e, ok := t.entries[path]
	if !ok {
		return nil, fmt.Errorf("entry not found: %s", path)
	}
	if e.kind != cfs.EntryFile {
		return nil, fmt.Errorf("cannot open non-file entry: %s", path)
	}
	return io.NopCloser(bytes.NewReader(e.content)), nil
}

func (t *FakeSourceTree) IsIgnored(relativePath string) bool {
	return t.ignored[relativePath]
}

// Compile-time check
var _ cfs.SourceTree = (*FakeSourceTree)(nil)
