//go:build unix

package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"cfs-go/internal/cfs"
)

func TestFilesystemStore_Exists(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	s := NewFilesystemStore(root)

	exists, err := s.Exists("missing")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if exists {
		t.Error("missing entry should not exist")
	}

	if err := os.WriteFile(filepath.Join(root, "present"), []byte("x"), 0644); err != nil {
		t.Fatalf("writing test file: %v", err)
	}
	exists, err = s.Exists("present")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !exists {
		t.Error("present entry should exist")
	}
}

func TestFilesystemStore_ExistsDanglingSymlink(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	s := NewFilesystemStore(root)

	if err := s.WriteSymlink("dangling", filepath.Join(root, "nowhere")); err != nil {
		t.Fatalf("WriteSymlink() error = %v", err)
	}
	exists, err := s.Exists("dangling")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !exists {
		t.Error("dangling symlink should still occupy its name")
	}
}

func TestFilesystemStore_MkDir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	s := NewFilesystemStore(root)

	if err := s.MkDir("sub"); err != nil {
		t.Fatalf("MkDir() error = %v", err)
	}
	info, err := os.Stat(filepath.Join(root, "sub"))
	if err != nil {
		t.Fatalf("stat created dir: %v", err)
	}
	if !info.IsDir() {
		t.Error("created entry is not a directory")
	}

	// Creating over an existing entry must fail.
	if err := s.MkDir("sub"); err == nil {
		t.Error("expected error creating existing directory")
	}
}

func TestFilesystemStore_WriteRecord(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	s := NewFilesystemStore(root)

	data := []byte("CatalogFS=3\nsize=42\n")
	if err := s.WriteRecord("file.txt", data); err != nil {
		t.Fatalf("WriteRecord() error = %v", err)
	}
	got, err := os.ReadFile(filepath.Join(root, "file.txt"))
	if err != nil {
		t.Fatalf("reading record back: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("record = %q, want %q", got, data)
	}
}

func TestFilesystemStore_WriteSymlink(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	s := NewFilesystemStore(root)

	if err := s.WriteSymlink("link", "/some/target"); err != nil {
		t.Fatalf("WriteSymlink() error = %v", err)
	}
	target, err := os.Readlink(filepath.Join(root, "link"))
	if err != nil {
		t.Fatalf("readlink: %v", err)
	}
	if target != "/some/target" {
		t.Errorf("target = %q, want /some/target", target)
	}
}

func TestFilesystemStore_ApplyAttrs(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	s := NewFilesystemStore(root)

	if err := s.WriteRecord("file", []byte("CatalogFS=3\n")); err != nil {
		t.Fatalf("WriteRecord() error = %v", err)
	}

	mtime := time.Unix(1700000000, 0)
	attrs := cfs.Attrs{
		Mode:  0400,
		UID:   os.Getuid(),
		GID:   os.Getgid(),
		Atime: mtime,
		Mtime: mtime,
	}
	if errs := s.ApplyAttrs("file", attrs); len(errs) != 0 {
		t.Fatalf("ApplyAttrs() errors = %v", errs)
	}

	info, err := os.Stat(filepath.Join(root, "file"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0400 {
		t.Errorf("mode = %o, want 0400", info.Mode().Perm())
	}
	if !info.ModTime().Equal(mtime) {
		t.Errorf("mtime = %v, want %v", info.ModTime(), mtime)
	}
}

func TestFilesystemStore_ApplyAttrsMissingEntry(t *testing.T) {
	t.Parallel()
	s := NewFilesystemStore(t.TempDir())

	errs := s.ApplyAttrs("missing", cfs.Attrs{Mode: 0644})
	if len(errs) == 0 {
		t.Error("expected errors applying attrs to missing entry")
	}
}
