package cfsfile

import (
	"database/sql"
	"strconv"
	"strings"
)

// Legacy reader for format versions 1 and 2, which share one body grammar.
//
// The legacy body differs from the current format in two ways: the field
// separator is the two-character ": ", and the path-valued fields "name"
// and "path" may contain embedded newlines, so their extent runs to a NUL
// byte followed by '\n' instead of the next newline. Those two fields are
// parsed and discarded: entry identity comes from the record's location,
// not from a redundant embedded name.

const legacyFieldSep = ": "

func decodeLegacy(data string) (Record, error) {
	headerEnd := strings.IndexByte(data, '\n')
	if headerEnd < 0 {
		return Record{}, &DecodeError{Kind: ErrInvalidHeader}
	}

	versionStr := data[len(legacyHeaderPrefix):headerEnd]
	version, err := strconv.Atoi(versionStr)
	if err != nil {
		return Record{}, &DecodeError{Kind: ErrInvalidHeader, Value: versionStr}
	}
	if version != 1 && version != 2 {
		return Record{}, &DecodeError{Kind: ErrUnsupportedVersion, Value: versionStr}
	}

	return decodeLegacyBody(data[headerEnd+1:])
}

func decodeLegacyBody(data string) (Record, error) {
	var rec Record

	pos := 0
	for pos < len(data) {
		lineEnd := strings.IndexByte(data[pos:], '\n')
		if lineEnd < 0 {
			lineEnd = len(data)
		} else {
			lineEnd += pos
		}

		sep := strings.Index(data[pos:lineEnd], legacyFieldSep)
		if sep < 0 {
			if line := strings.Trim(data[pos:lineEnd], trimChars); line != "" {
				return rec, &DecodeError{Kind: ErrMalformedLine, Value: line}
			}
			pos = lineEnd + 1
			continue
		}

		// The field name is not trimmed: legacy writers never padded it.
		name := data[pos : pos+sep]
		valueStart := pos + sep + len(legacyFieldSep)

		var err error
		switch name {
		case "size":
			pos, rec.Size, err = legacyIntField(data, valueStart, name)
		case "blocks":
			pos, rec.Blocks, err = legacyIntField(data, valueStart, name)
		case "mode":
			pos, rec.Mode, err = legacyIntField(data, valueStart, name)
		case "uid":
			pos, rec.UID, err = legacyIntField(data, valueStart, name)
		case "gid":
			pos, rec.GID, err = legacyIntField(data, valueStart, name)
		case "atime":
			pos, rec.Atime, err = legacyIntField(data, valueStart, name)
		case "mtime":
			pos, rec.Mtime, err = legacyIntField(data, valueStart, name)
		case "ctime":
			pos, rec.Ctime, err = legacyIntField(data, valueStart, name)
		case "atimensec":
			pos, rec.AtimeNsec, err = legacyIntField(data, valueStart, name)
		case "mtimensec":
			pos, rec.MtimeNsec, err = legacyIntField(data, valueStart, name)
		case "ctimensec":
			pos, rec.CtimeNsec, err = legacyIntField(data, valueStart, name)
		case "nlink":
			pos, rec.Nlink, err = legacyIntField(data, valueStart, name)
		case "blksize":
			pos, rec.Blksize, err = legacyIntField(data, valueStart, name)
		case "sha256":
			var s string
			pos, s = legacyStringField(data, valueStart)
			rec.SHA256 = String(s)
		case "name", "path":
			pos = skipLegacyPath(data, valueStart)
		default:
			return rec, &DecodeError{Kind: ErrUnknownField, Field: name}
		}
		if err != nil {
			return rec, err
		}
	}

	return rec, nil
}

// legacyIntField reads a newline-terminated integer value starting at pos
// and returns the position past the terminator.
func legacyIntField(data string, pos int, name string) (int, sql.NullInt64, error) {
	end := legacyLineEnd(data, pos)
	raw := data[pos:end]
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, sql.NullInt64{}, &DecodeError{Kind: ErrInvalidInteger, Field: name, Value: raw}
	}
	return end + 1, Int64(n), nil
}

// legacyStringField reads a newline-terminated, whitespace-trimmed string
// value starting at pos.
func legacyStringField(data string, pos int) (int, string) {
	end := legacyLineEnd(data, pos)
	return end + 1, strings.TrimSpace(data[pos:end])
}

// skipLegacyPath consumes a path value whose extent runs to NUL+'\n' (or
// end of input) and discards it.
func skipLegacyPath(data string, pos int) int {
	end := strings.Index(data[pos:], "\x00\n")
	if end < 0 {
		end = len(data)
	} else {
		end += pos
	}
	return end + 2
}

// legacyLineEnd finds the next '\n' at or after pos, or len(data). The
// legacy format never used bare '\r' terminators.
func legacyLineEnd(data string, pos int) int {
	if i := strings.IndexByte(data[pos:], '\n'); i >= 0 {
		return pos + i
	}
	return len(data)
}
