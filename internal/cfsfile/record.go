// Package cfsfile implements the CatalogFS record format: small textual
// sidecar files that carry the stat metadata of one filesystem entry and
// optionally a content hash, but never any file content.
//
// The writer always emits the current format (version 3). The reader also
// accepts the two frozen legacy formats (versions 1 and 2) and normalizes
// them into the same Record shape.
package cfsfile

import "database/sql"

// Record holds the metadata snapshot of one catalog entry.
//
// Every field is optional: an invalid Null value means "not captured",
// which is distinct from a captured zero. Records are self-contained and
// order-independent; they carry no identity beyond their storage location.
type Record struct {
	Size      sql.NullInt64
	Blocks    sql.NullInt64
	Mode      sql.NullInt64
	UID       sql.NullInt64
	GID       sql.NullInt64
	Atime     sql.NullInt64
	Mtime     sql.NullInt64
	Ctime     sql.NullInt64
	AtimeNsec sql.NullInt64
	MtimeNsec sql.NullInt64
	CtimeNsec sql.NullInt64
	Nlink     sql.NullInt64
	Blksize   sql.NullInt64
	SHA256    sql.NullString
}

// Int64 wraps v in a valid sql.NullInt64.
func Int64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: true}
}

// String wraps s in a valid sql.NullString.
func String(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

// Merge overlays the present fields of o onto r. Fields absent in o keep
// their value in r. Used when re-ingesting an existing record: the record
// starts from the sidecar file's own stat and the decoded fields win.
func (r *Record) Merge(o Record) {
	if o.Size.Valid {
		r.Size = o.Size
	}
	if o.Blocks.Valid {
		r.Blocks = o.Blocks
	}
	if o.Mode.Valid {
		r.Mode = o.Mode
	}
	if o.UID.Valid {
		r.UID = o.UID
	}
	if o.GID.Valid {
		r.GID = o.GID
	}
	if o.Atime.Valid {
		r.Atime = o.Atime
	}
	if o.Mtime.Valid {
		r.Mtime = o.Mtime
	}
	if o.Ctime.Valid {
		r.Ctime = o.Ctime
	}
	if o.AtimeNsec.Valid {
		r.AtimeNsec = o.AtimeNsec
	}
	if o.MtimeNsec.Valid {
		r.MtimeNsec = o.MtimeNsec
	}
	if o.CtimeNsec.Valid {
		r.CtimeNsec = o.CtimeNsec
	}
	if o.Nlink.Valid {
		r.Nlink = o.Nlink
	}
	if o.Blksize.Valid {
		r.Blksize = o.Blksize
	}
	if o.SHA256.Valid {
		r.SHA256 = o.SHA256
	}
}
