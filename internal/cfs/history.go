package cfs

import "cfs-go/internal/model"

// RunLog persists the outcome of snapshot runs so past invocations can be
// inspected later.
type RunLog interface {
	// CreateRun inserts a new run in "running" state and returns it.
	CreateRun(operation, source, output string) (*model.SnapshotRun, error)

	// FinishRun marks a run finished with the given status and counters.
	FinishRun(id string, status string, stats SnapshotStats) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]*model.SnapshotRun, error)

	// Close releases the underlying storage.
	Close() error
}
