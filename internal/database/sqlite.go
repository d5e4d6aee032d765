package database

import (
	"database/sql"
	"fmt"
	"time"

	"cfs-go/internal/cfs"
	"cfs-go/internal/database/migrations"
	"cfs-go/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteRunLog implements the RunLog interface using SQLite.
type SQLiteRunLog struct {
	db    *sql.DB
	ids   cfs.IDGenerator
	clock cfs.Clock
	path  string
}

// NewSQLiteRunLog opens (or creates) a run log database at path and brings
// its schema up to date. path can be ":memory:" for an in-memory database.
func NewSQLiteRunLog(path string, ids cfs.IDGenerator, clock cfs.Clock) (*SQLiteRunLog, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating run log database: %w", err)
	}

	if ids == nil {
		ids = cfs.UUIDGenerator{}
	}
	if clock == nil {
		clock = cfs.RealClock{}
	}

	return &SQLiteRunLog{db: db, ids: ids, clock: clock, path: path}, nil
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// An in-memory database lives in a single connection; a second pool
	// connection would see an empty schema.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// CreateRun inserts a new run in "running" state and returns it.
func (s *SQLiteRunLog) CreateRun(operation, source, output string) (*model.SnapshotRun, error) {
	run := &model.SnapshotRun{
		ID:        s.ids.New(),
		Operation: operation,
		Source:    source,
		Output:    output,
		StartedAt: s.clock.Now(),
		Status:    "running",
	}

	_, err := s.db.Exec(
		`INSERT INTO snapshot_runs (id, operation, source, output, started_at, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Operation, run.Source, run.Output, run.StartedAt, run.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}
	return run, nil
}

// FinishRun marks a run finished with the given status and counters.
func (s *SQLiteRunLog) FinishRun(id string, status string, stats cfs.SnapshotStats) error {
	res, err := s.db.Exec(
		`UPDATE snapshot_runs
		 SET finished_at = ?, status = ?, dirs = ?, files = ?, symlinks = ?, skipped = ?, failed = ?
		 WHERE id = ?`,
		sql.NullTime{Time: s.clock.Now(), Valid: true}, status,
		stats.Dirs, stats.Files, stats.Symlinks, stats.Skipped, stats.Failed,
		id,
	)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteRunLog) ListRuns(limit int) ([]*model.SnapshotRun, error) {
	rows, err := s.db.Query(
		`SELECT id, operation, source, output, started_at, finished_at, status,
		        dirs, files, symlinks, skipped, failed
		 FROM snapshot_runs
		 ORDER BY started_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.SnapshotRun
	for rows.Next() {
		var run model.SnapshotRun
		var startedAt time.Time
		if err := rows.Scan(
			&run.ID, &run.Operation, &run.Source, &run.Output,
			&startedAt, &run.FinishedAt, &run.Status,
			&run.Dirs, &run.Files, &run.Symlinks, &run.Skipped, &run.Failed,
		); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.StartedAt = startedAt
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteRunLog) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteRunLog) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Close closes the database connection.
func (s *SQLiteRunLog) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteRunLog implements cfs.RunLog interface
var _ cfs.RunLog = (*SQLiteRunLog)(nil)
