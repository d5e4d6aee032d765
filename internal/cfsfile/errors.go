package cfsfile

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes decode failures.
type ErrorKind int

const (
	// ErrInvalidHeader means the input has no valid header line, or the
	// version token is not an integer.
	ErrInvalidHeader ErrorKind = iota
	// ErrUnsupportedVersion means the header parsed but names a version we
	// do not read: current-format versions other than 3, or legacy versions
	// other than 1 and 2.
	ErrUnsupportedVersion
	// ErrMalformedLine means a non-blank body line lacks the field separator.
	ErrMalformedLine
	// ErrUnknownField means a body line names a field the format does not define.
	ErrUnknownField
	// ErrInvalidInteger means a numeric field's value did not parse as a
	// decimal integer.
	ErrInvalidInteger
	// ErrTooLarge means the input exceeds MaxRecordSize and was rejected
	// before parsing.
	ErrTooLarge
)

// DecodeError describes why an input could not be decoded as a catalog
// record. A decode failure is final for that record; callers log it against
// the source path, skip the entry and keep going.
type DecodeError struct {
	Kind  ErrorKind
	Field string // field name, for ErrUnknownField and ErrInvalidInteger
	Value string // offending raw text, where one exists
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case ErrInvalidHeader:
		if e.Value != "" {
			return fmt.Sprintf("catalog record has invalid version string %q", e.Value)
		}
		return "catalog record expected but no valid header found"
	case ErrUnsupportedVersion:
		return fmt.Sprintf("catalog record has unsupported version %q", e.Value)
	case ErrMalformedLine:
		return fmt.Sprintf("invalid line in catalog record: %q", e.Value)
	case ErrUnknownField:
		return fmt.Sprintf("unknown field name in catalog record: %q", e.Field)
	case ErrInvalidInteger:
		return fmt.Sprintf("field %q is not an integer: %q", e.Field, e.Value)
	case ErrTooLarge:
		return fmt.Sprintf("input exceeds maximum record size of %d bytes", MaxRecordSize)
	default:
		return "invalid catalog record"
	}
}

// IsKind reports whether err is a DecodeError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var de *DecodeError
	return errors.As(err, &de) && de.Kind == kind
}
