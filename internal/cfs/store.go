package cfs

import (
	"time"

	"cfs-go/internal/cfsfile"
)

// Attrs are the source attributes mirrored onto an output entry after its
// record is written. Mirroring is cosmetic: the record's content is the
// deliverable, so every attribute is applied best-effort.
type Attrs struct {
	Mode  uint32
	UID   int
	GID   int
	Atime time.Time
	Mtime time.Time
}

// AttrsFromRecord derives output attributes from a stat-derived record.
func AttrsFromRecord(rec cfsfile.Record) Attrs {
	var a Attrs
	if rec.Mode.Valid {
		a.Mode = uint32(rec.Mode.Int64)
	}
	if rec.UID.Valid {
		a.UID = int(rec.UID.Int64)
	}
	if rec.GID.Valid {
		a.GID = int(rec.GID.Int64)
	}
	a.Atime = time.Unix(rec.Atime.Int64, rec.AtimeNsec.Int64)
	a.Mtime = time.Unix(rec.Mtime.Int64, rec.MtimeNsec.Int64)
	return a
}

// Store abstracts the destination an index is written to. Paths are
// slash-separated and relative to the store root. Implementations must not
// overwrite existing entries: claiming a path is the orchestrator's
// check-then-act via Exists.
type Store interface {
	// Exists reports whether any entry already occupies the path.
	Exists(relativePath string) (bool, error)

	// MkDir creates a directory entry.
	MkDir(relativePath string) error

	// WriteRecord creates a file entry holding an encoded record.
	WriteRecord(relativePath string, data []byte) error

	// WriteSymlink creates a symlink entry pointing at target.
	WriteSymlink(relativePath, target string) error

	// ApplyAttrs mirrors mode, ownership and times onto an existing entry.
	// Each attribute that cannot be applied yields its own error; none of
	// them invalidate the entry.
	ApplyAttrs(relativePath string, attrs Attrs) []error
}
