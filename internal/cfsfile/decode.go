package cfsfile

import (
	"database/sql"
	"strconv"
	"strings"
)

// Decode parses a catalog record in any supported format version and
// returns the normalized Record. The format version is sniffed from the
// header line: the legacy prefix dispatches to the legacy reader, anything
// else is parsed as a current-format header.
//
// Inputs larger than MaxRecordSize are rejected before any parsing.
func Decode(data []byte) (Record, error) {
	if len(data) > MaxRecordSize {
		return Record{}, &DecodeError{Kind: ErrTooLarge}
	}

	s := string(data)
	if strings.HasPrefix(s, legacyHeaderPrefix) {
		return decodeLegacy(s)
	}
	return decodeCurrent(s)
}

// decodeCurrent parses a version 3 record: a "CatalogFS=3" header followed
// by an unordered bag of "name=value" lines.
func decodeCurrent(data string) (Record, error) {
	var rec Record

	pos, name, value, ok, err := nextPair(data, 0)
	if err != nil {
		return rec, err
	}
	if !ok || name != headerName {
		return rec, &DecodeError{Kind: ErrInvalidHeader}
	}

	version, convErr := strconv.Atoi(strings.Trim(value, trimChars))
	if convErr != nil {
		return rec, &DecodeError{Kind: ErrInvalidHeader, Value: value}
	}
	if version != CurrentVersion {
		return rec, &DecodeError{Kind: ErrUnsupportedVersion, Value: strconv.Itoa(version)}
	}

	for {
		next, name, value, ok, err := nextPair(data, pos)
		if err != nil {
			return rec, err
		}
		if !ok {
			break
		}
		pos = next

		switch name {
		case "size":
			rec.Size, err = parseIntField(name, value)
		case "blocks":
			rec.Blocks, err = parseIntField(name, value)
		case "mode":
			rec.Mode, err = parseIntField(name, value)
		case "uid":
			rec.UID, err = parseIntField(name, value)
		case "gid":
			rec.GID, err = parseIntField(name, value)
		case "atime":
			rec.Atime, err = parseIntField(name, value)
		case "mtime":
			rec.Mtime, err = parseIntField(name, value)
		case "ctime":
			rec.Ctime, err = parseIntField(name, value)
		case "atimensec":
			rec.AtimeNsec, err = parseIntField(name, value)
		case "mtimensec":
			rec.MtimeNsec, err = parseIntField(name, value)
		case "ctimensec":
			rec.CtimeNsec, err = parseIntField(name, value)
		case "nlink":
			rec.Nlink, err = parseIntField(name, value)
		case "blksize":
			rec.Blksize, err = parseIntField(name, value)
		case "sha256":
			rec.SHA256 = String(strings.Trim(value, trimChars))
		default:
			return rec, &DecodeError{Kind: ErrUnknownField, Field: name}
		}
		if err != nil {
			return rec, err
		}
	}

	return rec, nil
}

// nextPair extracts the next non-blank name/value line at or after pos.
// Lines end at '\n', at a bare '\r', or at end of input. Whitespace-only
// lines are skipped; a non-blank line without the delimiter is malformed.
// The name is trimmed, the value is returned raw through end of line.
func nextPair(data string, pos int) (next int, name, value string, ok bool, err error) {
	for pos < len(data) {
		lineEnd := findNewline(data, pos)

		eq := strings.Index(data[pos:lineEnd], fieldDelimiter)
		if eq < 0 {
			if line := strings.Trim(data[pos:lineEnd], trimChars); line != "" {
				return 0, "", "", false, &DecodeError{Kind: ErrMalformedLine, Value: line}
			}
			pos = lineEnd + 1
			continue
		}

		name = strings.Trim(data[pos:pos+eq], trimChars)
		value = data[pos+eq+len(fieldDelimiter) : lineEnd]
		return lineEnd + 1, name, value, true, nil
	}
	return 0, "", "", false, nil
}

// findNewline returns the index of the first line terminator at or after
// pos, or len(data) when the input ends without one (an implicit final
// line boundary).
func findNewline(data string, pos int) int {
	for i := pos; i < len(data); i++ {
		if data[i] == '\n' || data[i] == '\r' {
			return i
		}
	}
	return len(data)
}

func parseIntField(name, value string) (sql.NullInt64, error) {
	n, err := strconv.ParseInt(strings.Trim(value, trimChars), 10, 64)
	if err != nil {
		return sql.NullInt64{}, &DecodeError{Kind: ErrInvalidInteger, Field: name, Value: value}
	}
	return Int64(n), nil
}
