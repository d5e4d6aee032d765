package cfsfile

import (
	"bytes"
	"database/sql"
	"strconv"
)

// On-disk format constants. The header line of the current format is
// "CatalogFS=3\n"; legacy headers are the prefix immediately followed by
// the version digit, e.g. "CatalogFS.File.2\n".
const (
	headerName         = "CatalogFS"
	legacyHeaderPrefix = "CatalogFS.File."

	// CurrentVersion is the only version Encode emits and the only
	// current-format version Decode accepts.
	CurrentVersion = 3

	// MaxRecordSize caps the input Decode accepts. Real records are a few
	// hundred bytes; anything larger is not a catalog record.
	MaxRecordSize = 1 << 20

	fieldDelimiter = "="
	trimChars      = " \t\r\n"
)

// Profile selects which Record fields Encode emits.
type Profile int

const (
	// ProfileFull emits every present field.
	ProfileFull Profile = iota
	// ProfileDataOnly emits size and sha256 only, for content comparison.
	ProfileDataOnly
	// ProfileDataAndTime emits size, mtime, mtimensec and sha256.
	ProfileDataAndTime
)

// Encode serializes rec in the current format under the given profile.
// Absent fields are omitted; the nanosecond remainder fields are also
// omitted when zero. Values are decimal integers or a hex digest, so no
// escaping is needed. Encoding is total over any Record and performs no I/O.
func Encode(rec Record, profile Profile) []byte {
	var b bytes.Buffer
	b.WriteString(headerName)
	b.WriteString(fieldDelimiter)
	b.WriteString(strconv.Itoa(CurrentVersion))
	b.WriteByte('\n')

	switch profile {
	case ProfileDataOnly:
		writeIntField(&b, "size", rec.Size)
		writeStringField(&b, "sha256", rec.SHA256)
	case ProfileDataAndTime:
		writeIntField(&b, "size", rec.Size)
		writeIntField(&b, "mtime", rec.Mtime)
		writeNsecField(&b, "mtimensec", rec.MtimeNsec)
		writeStringField(&b, "sha256", rec.SHA256)
	default:
		writeIntField(&b, "size", rec.Size)
		writeIntField(&b, "blocks", rec.Blocks)
		writeIntField(&b, "mode", rec.Mode)
		writeIntField(&b, "uid", rec.UID)
		writeIntField(&b, "gid", rec.GID)
		writeIntField(&b, "atime", rec.Atime)
		writeIntField(&b, "mtime", rec.Mtime)
		writeIntField(&b, "ctime", rec.Ctime)
		writeNsecField(&b, "atimensec", rec.AtimeNsec)
		writeNsecField(&b, "mtimensec", rec.MtimeNsec)
		writeNsecField(&b, "ctimensec", rec.CtimeNsec)
		writeIntField(&b, "nlink", rec.Nlink)
		writeIntField(&b, "blksize", rec.Blksize)
		writeStringField(&b, "sha256", rec.SHA256)
	}

	return b.Bytes()
}

func writeIntField(b *bytes.Buffer, name string, v sql.NullInt64) {
	if !v.Valid {
		return
	}
	b.WriteString(name)
	b.WriteString(fieldDelimiter)
	b.WriteString(strconv.FormatInt(v.Int64, 10))
	b.WriteByte('\n')
}

// writeNsecField is writeIntField with zero suppressed: a zero remainder is
// never written, since zero is the common case.
func writeNsecField(b *bytes.Buffer, name string, v sql.NullInt64) {
	if !v.Valid || v.Int64 == 0 {
		return
	}
	writeIntField(b, name, v)
}

func writeStringField(b *bytes.Buffer, name string, v sql.NullString) {
	if !v.Valid {
		return
	}
	b.WriteString(name)
	b.WriteString(fieldDelimiter)
	b.WriteString(v.String)
	b.WriteByte('\n')
}
