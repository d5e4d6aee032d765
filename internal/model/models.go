package model

import (
	"database/sql"
	"time"
)

// SnapshotRun records one invocation of the snapshot engine.
type SnapshotRun struct {
	ID         string       // UUID
	Operation  string       // "snapshot", "export" or "import"
	Source     string       // Absolute source path on host
	Output     string       // Output directory, bucket or archive path
	StartedAt  time.Time    // When the run started
	FinishedAt sql.NullTime // When the run finished; unset while running
	Status     string       // "running", "completed" or "failed"
	Dirs       int64        // Directories created
	Files      int64        // Records written
	Symlinks   int64        // Symlinks copied
	Skipped    int64        // Entries skipped (ignored or already present)
	Failed     int64        // Per-entry failures
}
