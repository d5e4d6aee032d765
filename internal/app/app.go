package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"cfs-go/internal/archive"
	"cfs-go/internal/cfs"
	"cfs-go/internal/cfsfile"
	"cfs-go/internal/config"
	"cfs-go/internal/database"
	"cfs-go/internal/encryption"
	"cfs-go/internal/fs"
	"cfs-go/internal/model"
	"cfs-go/internal/store"
)

// App is the application layer between the CLI and the snapshot service.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw string paths, and manages resource lifecycles on Close.
type App struct {
	cfg       *config.Config
	runLog    cfs.RunLog
	encryptor cfs.Encryptor
	logger    cfs.Logger
	logFile   *os.File
}

// NewApp creates a fully wired App from the given config.
// operation identifies the CLI command being run (e.g. "snapshot", "export").
// The caller must call Close when done.
func NewApp(cfg *config.Config, operation string) (*App, error) {
	runLog, err := database.NewRunLogFromConfig(cfg.Database, cfg.HostID)
	if err != nil {
		return nil, fmt.Errorf("creating run log: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		runLog.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	opID := cfs.UUIDGenerator{}.New()
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		runLog.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	return &App{
		cfg:       cfg,
		runLog:    runLog,
		encryptor: enc,
		logger:    &slogAdapter{l: logger},
		logFile:   logFile,
	}, nil
}

// SnapshotFlags carry the snapshot command's options.
type SnapshotFlags struct {
	Hash         bool // compute sha256 per file
	SkipExisting bool // skip entries already present in the output
	DataOnly     bool // write only size and sha256
	DataAndTime  bool // write size, mtime and sha256
	FromRecords  bool // source files are themselves catalog records
}

// profile resolves the flag pair to a record profile. DataOnly wins when
// both are given.
func (f SnapshotFlags) profile() cfsfile.Profile {
	switch {
	case f.DataOnly:
		return cfsfile.ProfileDataOnly
	case f.DataAndTime:
		return cfsfile.ProfileDataAndTime
	default:
		return cfsfile.ProfileFull
	}
}

// Snapshot indexes the source tree into the configured store rooted at
// output. The returned stats are valid even when the error is
// ErrPartialFailure.
func (a *App) Snapshot(source, output string, flags SnapshotFlags) (*cfs.SnapshotStats, error) {
	if flags.FromRecords && flags.Hash {
		return nil, fmt.Errorf("%w: sha256 calculation cannot be combined with record re-ingest", ErrFlagConflict)
	}

	info, err := os.Stat(source)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceMissing, source)
		}
		return nil, fmt.Errorf("checking source: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrSourceInvalid, source)
	}

	if a.cfg.Store.Type == "filesystem" || a.cfg.Store.Type == "" {
		if err := ensureOutputDir(output); err != nil {
			return nil, err
		}
	}

	st, err := store.NewStoreFromConfig(context.Background(), a.cfg.Store, output, a.logger)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	run, err := a.runLog.CreateRun("snapshot", source, output)
	if err != nil {
		return nil, fmt.Errorf("recording run: %w", err)
	}

	tree := fs.NewOSSourceTree(a.cfg.Filesystem.Ignore)
	svc := cfs.NewService(tree, st, cfs.SHA256Hasher{}, a.logger)

	stats, err := svc.Snapshot(source, cfs.SnapshotOptions{
		Hash:         flags.Hash,
		SkipExisting: flags.SkipExisting,
		Profile:      flags.profile(),
		FromRecords:  flags.FromRecords,
	})
	if err != nil {
		a.finishRun(run.ID, "failed", cfs.SnapshotStats{})
		return nil, err
	}

	status := "completed"
	if stats.Failed > 0 {
		status = "failed"
	}
	a.finishRun(run.ID, status, *stats)

	if stats.Failed > 0 {
		return stats, fmt.Errorf("%w: %d entries failed", ErrPartialFailure, stats.Failed)
	}
	return stats, nil
}

// ensureOutputDir creates the output directory if needed and verifies it is
// a directory.
func ensureOutputDir(output string) error {
	info, err := os.Stat(output)
	switch {
	case err == nil:
		if !info.IsDir() {
			return fmt.Errorf("%w: %s is not a directory", ErrOutputInvalid, output)
		}
		return nil
	case os.IsNotExist(err):
		if err := os.MkdirAll(output, 0755); err != nil {
			return fmt.Errorf("%w: %v", ErrOutputInvalid, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %v", ErrOutputInvalid, err)
	}
}

// finishRun closes out a run record; failures are logged, not returned, so
// run bookkeeping never masks the snapshot outcome.
func (a *App) finishRun(id, status string, stats cfs.SnapshotStats) {
	if err := a.runLog.FinishRun(id, status, stats); err != nil {
		a.logger.Warn("failed to record run outcome", "run", id, "error", err)
	}
}

// Inspect decodes a single record file and returns its fields.
func (a *App) Inspect(path string) (cfsfile.Record, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfsfile.Record{}, fmt.Errorf("%w: %s", ErrSourceMissing, path)
		}
		return cfsfile.Record{}, fmt.Errorf("checking record file: %w", err)
	}
	if info.Size() > cfsfile.MaxRecordSize {
		return cfsfile.Record{}, fmt.Errorf("file is too big (%d bytes) to be a valid catalog record: %w",
			info.Size(), &cfsfile.DecodeError{Kind: cfsfile.ErrTooLarge})
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfsfile.Record{}, fmt.Errorf("reading record file: %w", err)
	}
	return cfsfile.Decode(data)
}

// History returns the most recent snapshot runs, newest first.
func (a *App) History(limit int) ([]*model.SnapshotRun, error) {
	return a.runLog.ListRuns(limit)
}

// SetupKeys generates the export key pair, protecting the private key with
// the passphrase.
func (a *App) SetupKeys(passphrase string) error {
	return a.encryptor.Setup(passphrase)
}

// Export packs the index tree at indexDir into an encrypted archive at
// outPath. The archive can only be opened with the private key passphrase.
func (a *App) Export(indexDir, outPath string) error {
	info, err := os.Stat(indexDir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrSourceMissing, indexDir)
		}
		return fmt.Errorf("checking index directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrSourceInvalid, indexDir)
	}

	if !a.encryptor.IsConfigured() {
		return fmt.Errorf("encryption keys not configured: run 'cfs config init' first")
	}

	run, err := a.runLog.CreateRun("export", indexDir, outPath)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}

	err = a.exportArchive(indexDir, outPath)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	a.finishRun(run.ID, status, cfs.SnapshotStats{})
	return err
}

func (a *App) exportArchive(indexDir, outPath string) error {
	var packed bytes.Buffer
	if err := archive.Pack(indexDir, &packed); err != nil {
		return fmt.Errorf("packing index: %w", err)
	}

	out, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutputInvalid, err)
	}

	if err := a.encryptor.Encrypt(&packed, out); err != nil {
		out.Close()
		os.Remove(outPath)
		return fmt.Errorf("encrypting archive: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("writing archive: %w", err)
	}

	a.logger.Info("index exported", "index", indexDir, "archive", outPath)
	return nil
}

// Import decrypts the archive at inPath with the passphrase and unpacks it
// into destDir.
func (a *App) Import(inPath, destDir, passphrase string) error {
	in, err := os.Open(inPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrSourceMissing, inPath)
		}
		return fmt.Errorf("opening archive: %w", err)
	}
	defer in.Close()

	if err := ensureOutputDir(destDir); err != nil {
		return err
	}

	ctx, err := a.encryptor.Unlock(passphrase)
	if err != nil {
		return fmt.Errorf("unlocking private key: %w", err)
	}

	run, err := a.runLog.CreateRun("import", inPath, destDir)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}

	err = importArchive(ctx, in, destDir)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	a.finishRun(run.ID, status, cfs.SnapshotStats{})
	if err == nil {
		a.logger.Info("index imported", "archive", inPath, "index", destDir)
	}
	return err
}

func importArchive(ctx cfs.DecryptionContext, in io.Reader, destDir string) error {
	var packed bytes.Buffer
	if err := ctx.Decrypt(in, &packed); err != nil {
		return fmt.Errorf("decrypting archive: %w", err)
	}
	if err := archive.Unpack(&packed, destDir); err != nil {
		return fmt.Errorf("unpacking archive: %w", err)
	}
	return nil
}

// Close releases the run log and the log file.
func (a *App) Close() error {
	var firstErr error
	if err := a.runLog.Close(); err != nil {
		firstErr = fmt.Errorf("closing run log: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
