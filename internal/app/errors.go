package app

import "errors"

// Sentinel errors for CLI exit-code mapping.
var (
	// ErrSourceMissing means the source path does not exist.
	ErrSourceMissing = errors.New("source path does not exist")
	// ErrSourceInvalid means the source path exists but is not a directory.
	ErrSourceInvalid = errors.New("source path is not a directory")
	// ErrOutputInvalid means the output location cannot be used.
	ErrOutputInvalid = errors.New("output location is not usable")
	// ErrFlagConflict means mutually exclusive options were combined.
	ErrFlagConflict = errors.New("conflicting options")
	// ErrPartialFailure means the snapshot finished but some entries failed.
	ErrPartialFailure = errors.New("snapshot completed with failures")
)

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrSourceMissing):
		return 1
	case errors.Is(err, ErrSourceInvalid):
		return 2
	case errors.Is(err, ErrOutputInvalid):
		return 3
	case errors.Is(err, ErrFlagConflict):
		return 4
	case errors.Is(err, ErrPartialFailure):
		return 5
	default:
		return 1
	}
}
