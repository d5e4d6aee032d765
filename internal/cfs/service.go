package cfs

import (
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"

	"cfs-go/internal/cfsfile"
)

// ErrHashFromRecords is returned when hash computation is requested while
// re-ingesting existing records: there is no content to hash.
var ErrHashFromRecords = errors.New("sha256 calculation cannot be used when source files are catalog records")

// Service is the snapshot orchestrator. It walks a source tree and
// materializes one catalog record per source entry in the store, mirroring
// the tree's shape exactly. Per-entry failures are logged and counted but
// never abort the walk.
type Service struct {
	source SourceTree
	store  Store
	hasher Hasher
	logger Logger
}

// NewService creates a Service with the provided dependencies.
func NewService(source SourceTree, store Store, hasher Hasher, logger Logger) *Service {
	return &Service{
		source: source,
		store:  store,
		hasher: hasher,
		logger: logger,
	}
}

// SnapshotOptions control a single Snapshot run.
type SnapshotOptions struct {
	// Hash computes and stores a sha256 digest per regular file.
	Hash bool
	// SkipExisting skips output entries that already exist instead of
	// counting them as failures ("continue" mode).
	SkipExisting bool
	// Profile selects the field subset written to each record.
	Profile cfsfile.Profile
	// FromRecords marks the source as an existing index: each regular file
	// is decoded as a record and re-encoded in the current format.
	FromRecords bool
}

// SnapshotStats counts the outcome of a Snapshot run.
type SnapshotStats struct {
	Dirs     int
	Files    int
	Symlinks int
	Skipped  int
	Failed   int
}

// Snapshot indexes the tree rooted at root into the store. Directory
// attributes are applied in a second pass, after every record is written:
// mirroring a read-only mode first would block writes beneath it.
func (s *Service) Snapshot(root string, opts SnapshotOptions) (*SnapshotStats, error) {
	if opts.FromRecords && opts.Hash {
		return nil, ErrHashFromRecords
	}

	stats := &SnapshotStats{}
	var dirs []dirEntry

	s.walkDir(root, ".", opts, stats, &dirs)

	for _, d := range dirs {
		for _, err := range s.store.ApplyAttrs(d.rel, d.attrs) {
			s.logger.Warn("failed to apply directory attribute", "path", d.rel, "error", err)
		}
	}

	s.logger.Info("snapshot complete",
		"dirs", stats.Dirs,
		"files", stats.Files,
		"symlinks", stats.Symlinks,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
	)
	return stats, nil
}

// dirEntry remembers a created directory for the attribute pass.
type dirEntry struct {
	rel   string
	attrs Attrs
}

func (s *Service) walkDir(dir, rel string, opts SnapshotOptions, stats *SnapshotStats, dirs *[]dirEntry) {
	names, err := s.source.ReadDir(dir)
	if err != nil {
		s.logger.Error("directory is not accessible and its content will be skipped", "path", dir, "error", err)
		stats.Failed++
		return
	}

	for _, name := range names {
		srcPath := filepath.Join(dir, name)
		relPath := childPath(rel, name)

		if s.source.IsIgnored(relPath) {
			s.logger.Debug("entry ignored", "path", srcPath)
			stats.Skipped++
			continue
		}

		info, err := s.source.Lstat(srcPath)
		if err != nil {
			s.logger.Error("failed to stat entry", "path", srcPath, "error", err)
			stats.Failed++
			continue
		}

		switch info.Kind {
		case EntryDir:
			s.makeDir(srcPath, relPath, info, opts, stats, dirs)
			// Descend regardless of the outcome above: children are
			// claimed (or fail) individually.
			s.walkDir(srcPath, relPath, opts, stats, dirs)
		case EntrySymlink:
			s.copySymlink(srcPath, relPath, opts, stats)
		case EntryFile:
			s.processFile(srcPath, relPath, info, opts, stats)
		default:
			s.logger.Error("entry skipped: not a regular file, directory or symlink", "path", srcPath)
			stats.Failed++
		}
	}
}

// claimPath checks whether the output path is free. Returns false when the
// caller must not write there; skipped and failed are counted here.
func (s *Service) claimPath(srcPath, relPath string, opts SnapshotOptions, stats *SnapshotStats) bool {
	exists, err := s.store.Exists(relPath)
	if err != nil {
		s.logger.Error("failed to check output entry", "path", relPath, "error", err)
		stats.Failed++
		return false
	}
	if !exists {
		return true
	}
	if opts.SkipExisting {
		s.logger.Info("output entry already exists, skipping it", "path", relPath)
		stats.Skipped++
	} else {
		s.logger.Error("output entry already exists and will not be modified", "path", relPath, "source", srcPath)
		stats.Failed++
	}
	return false
}

func (s *Service) makeDir(srcPath, relPath string, info *EntryInfo, opts SnapshotOptions, stats *SnapshotStats, dirs *[]dirEntry) {
	if !s.claimPath(srcPath, relPath, opts, stats) {
		return
	}
	if err := s.store.MkDir(relPath); err != nil {
		s.logger.Error("failed to create output directory", "path", relPath, "error", err)
		stats.Failed++
		return
	}
	*dirs = append(*dirs, dirEntry{rel: relPath, attrs: AttrsFromRecord(info.Record)})
	stats.Dirs++
	s.logger.Info("directory created", "path", relPath)
}

func (s *Service) copySymlink(srcPath, relPath string, opts SnapshotOptions, stats *SnapshotStats) {
	if !s.claimPath(srcPath, relPath, opts, stats) {
		return
	}
	target, err := s.source.Readlink(srcPath)
	if err != nil {
		s.logger.Error("failed to read symlink", "path", srcPath, "error", err)
		stats.Failed++
		return
	}
	if err := s.store.WriteSymlink(relPath, target); err != nil {
		s.logger.Error("failed to copy symlink", "path", relPath, "error", err)
		stats.Failed++
		return
	}
	stats.Symlinks++
	s.logger.Info("symlink copied", "path", relPath)
}

func (s *Service) processFile(srcPath, relPath string, info *EntryInfo, opts SnapshotOptions, stats *SnapshotStats) {
	if !s.claimPath(srcPath, relPath, opts, stats) {
		return
	}

	rec := info.Record

	if opts.FromRecords {
		decoded, err := s.readRecord(srcPath, info)
		if err != nil {
			s.logger.Error("failed to read catalog record", "path", srcPath, "error", err)
			stats.Failed++
			return
		}
		// The record starts from the sidecar file's own stat; decoded
		// fields win.
		rec.Merge(decoded)
	} else if opts.Hash {
		digest, err := s.hashFile(srcPath)
		if err != nil {
			// Hash failures leave the field absent; the entry is still
			// listed.
			s.logger.Error("failed to calculate sha256", "path", srcPath, "error", err)
		} else {
			rec.SHA256 = cfsfile.String(digest)
		}
	}

	if err := s.store.WriteRecord(relPath, cfsfile.Encode(rec, opts.Profile)); err != nil {
		s.logger.Error("failed to write record", "path", relPath, "error", err)
		stats.Failed++
		return
	}

	for _, err := range s.store.ApplyAttrs(relPath, AttrsFromRecord(info.Record)) {
		s.logger.Warn("failed to apply file attribute", "path", relPath, "error", err)
	}

	stats.Files++
	s.logger.Info("file listed", "path", relPath)
}

// readRecord decodes an existing record file. The size guard runs before
// any read: a larger file cannot be a catalog record.
func (s *Service) readRecord(srcPath string, info *EntryInfo) (cfsfile.Record, error) {
	if info.Size > cfsfile.MaxRecordSize {
		return cfsfile.Record{}, fmt.Errorf("file is too big (%d bytes) to be a valid catalog record: %w",
			info.Size, &cfsfile.DecodeError{Kind: cfsfile.ErrTooLarge})
	}

	f, err := s.source.Open(srcPath)
	if err != nil {
		return cfsfile.Record{}, fmt.Errorf("opening record: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return cfsfile.Record{}, fmt.Errorf("reading record: %w", err)
	}
	return cfsfile.Decode(data)
}

func (s *Service) hashFile(srcPath string) (string, error) {
	f, err := s.source.Open(srcPath)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return s.hasher.Sum(f)
}

// childPath joins slash-separated store paths, keeping the root as ".".
func childPath(rel, name string) string {
	if rel == "." {
		return name
	}
	return path.Join(rel, name)
}
