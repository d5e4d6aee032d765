package store

import (
	"fmt"
	"sync"

	"cfs-go/internal/cfs"
)

// entryType classifies a MemoryStore entry.
type entryType int

const (
	entryDir entryType = iota
	entryRecord
	entrySymlink
)

type memoryEntry struct {
	typ      entryType
	data     []byte // record bytes for entryRecord
	target   string // symlink target for entrySymlink
	attrs    cfs.Attrs
	hasAttrs bool
}

// MemoryStore is an in-memory implementation of the Store interface,
// useful for testing the snapshot orchestrator without touching the
// filesystem. This implementation is safe for concurrent use.
type MemoryStore struct {
	entries map[string]*memoryEntry
	mu      sync.RWMutex
}

// NewMemoryStore creates a new empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memoryEntry)}
}

// Exists reports whether any entry already occupies the path.
func (m *MemoryStore) Exists(relativePath string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.entries[relativePath]
	return ok, nil
}

// MkDir creates a directory entry.
func (m *MemoryStore) MkDir(relativePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[relativePath]; ok {
		return fmt.Errorf("entry already exists: %s", relativePath)
	}
	m.entries[relativePath] = &memoryEntry{typ: entryDir}
	return nil
}

// WriteRecord creates a file entry holding an encoded record.
func (m *MemoryStore) WriteRecord(relativePath string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[relativePath]; ok {
		return fmt.Errorf("entry already exists: %s", relativePath)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	m.entries[relativePath] = &memoryEntry{typ: entryRecord, data: buf}
	return nil
}

// WriteSymlink creates a symlink entry pointing at target.
func (m *MemoryStore) WriteSymlink(relativePath, target string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[relativePath]; ok {
		return fmt.Errorf("entry already exists: %s", relativePath)
	}
	m.entries[relativePath] = &memoryEntry{typ: entrySymlink, target: target}
	return nil
}

// ApplyAttrs records the attributes for later inspection.
func (m *MemoryStore) ApplyAttrs(relativePath string, attrs cfs.Attrs) []error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[relativePath]
	if !ok {
		return []error{fmt.Errorf("entry not found: %s", relativePath)}
	}
	e.attrs = attrs
	e.hasAttrs = true
	return nil
}

// Record returns the record bytes written at a path, for test assertions.
func (m *MemoryStore) Record(relativePath string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[relativePath]
	if !ok || e.typ != entryRecord {
		return nil, false
	}
	return e.data, true
}

// Symlink returns the target of a symlink entry, for test assertions.
func (m *MemoryStore) Symlink(relativePath string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[relativePath]
	if !ok || e.typ != entrySymlink {
		return "", false
	}
	return e.target, true
}

// IsDir reports whether a directory entry exists at a path.
func (m *MemoryStore) IsDir(relativePath string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[relativePath]
	return ok && e.typ == entryDir
}

// Attrs returns the attributes applied to a path, for test assertions.
func (m *MemoryStore) Attrs(relativePath string) (cfs.Attrs, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[relativePath]
	if !ok || !e.hasAttrs {
		return cfs.Attrs{}, false
	}
	return e.attrs, true
}

// Len returns the number of entries in the store.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

// Compile-time check that MemoryStore implements cfs.Store interface
var _ cfs.Store = (*MemoryStore)(nil)
