//go:build unix

package archive

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestPackUnpack_RoundTrip(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	if err := os.Mkdir(filepath.Join(src, "sub"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "a.txt"), []byte("alpha"), 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "sub", "b.txt"), []byte("beta"), 0600); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	if err := os.Symlink("a.txt", filepath.Join(src, "link")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	var buf bytes.Buffer
	if err := Pack(src, &buf); err != nil {
		t.Fatalf("Pack() error = %v", err)
	}

	dest := t.TempDir()
	if err := Unpack(&buf, dest); err != nil {
		t.Fatalf("Unpack() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dest, "a.txt"))
	if err != nil {
		t.Fatalf("reading extracted file: %v", err)
	}
	if string(data) != "alpha" {
		t.Errorf("a.txt = %q, want alpha", data)
	}

	data, err = os.ReadFile(filepath.Join(dest, "sub", "b.txt"))
	if err != nil {
		t.Fatalf("reading extracted file: %v", err)
	}
	if string(data) != "beta" {
		t.Errorf("sub/b.txt = %q, want beta", data)
	}

	info, err := os.Stat(filepath.Join(dest, "sub", "b.txt"))
	if err != nil {
		t.Fatalf("stat extracted file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %o, want 0600", info.Mode().Perm())
	}

	target, err := os.Readlink(filepath.Join(dest, "link"))
	if err != nil {
		t.Fatalf("readlink: %v", err)
	}
	if target != "a.txt" {
		t.Errorf("link target = %q, want a.txt", target)
	}
}

func TestUnpack_DoesNotOverwrite(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "f"), []byte("new"), 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	var buf bytes.Buffer
	if err := Pack(src, &buf); err != nil {
		t.Fatalf("Pack() error = %v", err)
	}

	dest := t.TempDir()
	if err := os.WriteFile(filepath.Join(dest, "f"), []byte("old"), 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	if err := Unpack(&buf, dest); err == nil {
		t.Error("Unpack() should fail on an existing file")
	}
	data, err := os.ReadFile(filepath.Join(dest, "f"))
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}
	if string(data) != "old" {
		t.Errorf("f = %q, existing content must survive", data)
	}
}

func TestUnpack_RejectsUnsafeEntries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		entry string
	}{
		{name: "absolute path", entry: "/etc/passwd"},
		{name: "parent traversal", entry: "../escape"},
		{name: "nested traversal", entry: "sub/../../escape"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			tw := tar.NewWriter(&buf)
			if err := tw.WriteHeader(&tar.Header{
				Name:     tt.entry,
				Typeflag: tar.TypeReg,
				Mode:     0644,
				Size:     4,
			}); err != nil {
				t.Fatalf("writing header: %v", err)
			}
			if _, err := tw.Write([]byte("evil")); err != nil {
				t.Fatalf("writing body: %v", err)
			}
			if err := tw.Close(); err != nil {
				t.Fatalf("closing archive: %v", err)
			}

			if err := Unpack(&buf, t.TempDir()); err == nil {
				t.Errorf("Unpack() accepted unsafe entry %q", tt.entry)
			}
		})
	}
}

func TestPack_SkipsSpecialFiles(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "keep"), []byte("x"), 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	var buf bytes.Buffer
	if err := Pack(src, &buf); err != nil {
		t.Fatalf("Pack() error = %v", err)
	}

	tr := tar.NewReader(&buf)
	var names []string
	for {
		hdr, err := tr.Next()
		if err != nil {
			break
		}
		names = append(names, hdr.Name)
	}
	if len(names) != 1 || names[0] != "keep" {
		t.Errorf("archive entries = %v, want [keep]", names)
	}
}
