package cfs_test

import (
	"errors"
	"strings"
	"testing"

	"cfs-go/internal/cfs"
	"cfs-go/internal/cfsfile"
	"cfs-go/internal/store"
	"cfs-go/internal/testutil"
)

func newService(tree cfs.SourceTree, st cfs.Store) *cfs.Service {
	return cfs.NewService(tree, st, cfs.SHA256Hasher{}, cfs.NewNopLogger())
}

func statRecord(size, mode int64) cfsfile.Record {
	return cfsfile.Record{
		Size:  cfsfile.Int64(size),
		Mode:  cfsfile.Int64(mode),
		UID:   cfsfile.Int64(1000),
		GID:   cfsfile.Int64(1000),
		Mtime: cfsfile.Int64(1700000000),
	}
}

func TestService_Snapshot(t *testing.T) {
	tree := testutil.NewFakeSourceTree()
	tree.AddFile("/src/a.txt", []byte("alpha"), statRecord(5, 0o100644))
	tree.AddDir("/src/sub", statRecord(0, 0o40755))
	tree.AddFile("/src/sub/b.txt", []byte("beta"), statRecord(4, 0o100600))
	tree.AddSymlink("/src/link", "a.txt")

	st := store.NewMemoryStore()
	svc := newService(tree, st)

	stats, err := svc.Snapshot("/src", cfs.SnapshotOptions{})
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	want := cfs.SnapshotStats{Dirs: 1, Files: 2, Symlinks: 1}
	if *stats != want {
		t.Errorf("stats = %+v, want %+v", *stats, want)
	}

	data, ok := st.Record("a.txt")
	if !ok {
		t.Fatal("record a.txt not written")
	}
	s := string(data)
	if !strings.HasPrefix(s, "CatalogFS=3\n") {
		t.Errorf("record missing header: %q", s)
	}
	if !strings.Contains(s, "size=5\n") || !strings.Contains(s, "mode=33188\n") {
		t.Errorf("record missing stat fields: %q", s)
	}

	if !st.IsDir("sub") {
		t.Error("directory sub not created")
	}
	if _, ok := st.Record("sub/b.txt"); !ok {
		t.Error("record sub/b.txt not written")
	}

	target, ok := st.Symlink("link")
	if !ok {
		t.Fatal("symlink not copied")
	}
	if target != "a.txt" {
		t.Errorf("symlink target = %q, want a.txt", target)
	}
}

func TestService_Snapshot_AppliesDirAttrs(t *testing.T) {
	tree := testutil.NewFakeSourceTree()
	tree.AddDir("/src/sub", statRecord(0, 0o40500))
	tree.AddFile("/src/sub/b.txt", []byte("beta"), statRecord(4, 0o100644))

	st := store.NewMemoryStore()
	svc := newService(tree, st)

	if _, err := svc.Snapshot("/src", cfs.SnapshotOptions{}); err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	// The read-only directory mode must not have blocked the child write.
	if _, ok := st.Record("sub/b.txt"); !ok {
		t.Fatal("record under restricted directory not written")
	}

	attrs, ok := st.Attrs("sub")
	if !ok {
		t.Fatal("directory attributes not applied")
	}
	if attrs.Mode != 0o40500 {
		t.Errorf("Mode = %o, want 40500", attrs.Mode)
	}
	if attrs.UID != 1000 || attrs.GID != 1000 {
		t.Errorf("ownership = %d:%d, want 1000:1000", attrs.UID, attrs.GID)
	}
}

func TestService_Snapshot_Hash(t *testing.T) {
	content := []byte("hash me")
	tree := testutil.NewFakeSourceTree()
	tree.AddFile("/src/a.txt", content, statRecord(int64(len(content)), 0o100644))

	st := store.NewMemoryStore()
	svc := newService(tree, st)

	if _, err := svc.Snapshot("/src", cfs.SnapshotOptions{Hash: true}); err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	data, _ := st.Record("a.txt")
	want := "sha256=" + testutil.SHA256Hex(content) + "\n"
	if !strings.Contains(string(data), want) {
		t.Errorf("record missing digest %q: %q", want, data)
	}
}

func TestService_Snapshot_HashFailureLeavesFieldAbsent(t *testing.T) {
	tree := testutil.NewFakeSourceTree()
	tree.AddFile("/src/a.txt", []byte("alpha"), statRecord(5, 0o100644))
	tree.OpenErrs["/src/a.txt"] = errors.New("permission denied")

	st := store.NewMemoryStore()
	svc := newService(tree, st)

	stats, err := svc.Snapshot("/src", cfs.SnapshotOptions{Hash: true})
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	// The entry is still listed; only the digest is missing.
	if stats.Files != 1 || stats.Failed != 0 {
		t.Errorf("stats = %+v, want Files=1 Failed=0", *stats)
	}
	data, ok := st.Record("a.txt")
	if !ok {
		t.Fatal("record not written")
	}
	if strings.Contains(string(data), "sha256=") {
		t.Errorf("record carries a digest despite hash failure: %q", data)
	}
}

func TestService_Snapshot_Profiles(t *testing.T) {
	rec := statRecord(5, 0o100644)
	rec.MtimeNsec = cfsfile.Int64(123456789)

	tests := []struct {
		name       string
		profile    cfsfile.Profile
		wantFields []string
		banFields  []string
	}{
		{
			name:       "data only",
			profile:    cfsfile.ProfileDataOnly,
			wantFields: []string{"size=5\n", "sha256="},
			banFields:  []string{"mode=", "mtime="},
		},
		{
			name:       "data and time",
			profile:    cfsfile.ProfileDataAndTime,
			wantFields: []string{"size=5\n", "mtime=1700000000\n", "mtimensec=123456789\n", "sha256="},
			banFields:  []string{"mode=", "uid="},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := testutil.NewFakeSourceTree()
			tree.AddFile("/src/a.txt", []byte("alpha"), rec)

			st := store.NewMemoryStore()
			svc := newService(tree, st)

			if _, err := svc.Snapshot("/src", cfs.SnapshotOptions{Hash: true, Profile: tt.profile}); err != nil {
				t.Fatalf("Snapshot() error = %v", err)
			}

			data, _ := st.Record("a.txt")
			s := string(data)
			for _, f := range tt.wantFields {
				if !strings.Contains(s, f) {
					t.Errorf("record missing %q: %q", f, s)
				}
			}
			for _, f := range tt.banFields {
				if strings.Contains(s, f) {
					t.Errorf("record carries %q: %q", f, s)
				}
			}
		})
	}
}

func TestService_Snapshot_Ignored(t *testing.T) {
	tree := testutil.NewFakeSourceTree()
	tree.AddFile("/src/a.txt", []byte("alpha"), statRecord(5, 0o100644))
	tree.AddDir("/src/.git", statRecord(0, 0o40755))
	tree.AddFile("/src/.git/HEAD", []byte("ref"), statRecord(3, 0o100644))
	tree.SetIgnored(".git")

	st := store.NewMemoryStore()
	svc := newService(tree, st)

	stats, err := svc.Snapshot("/src", cfs.SnapshotOptions{})
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	// The ignored directory counts once and is not descended into.
	if stats.Skipped != 1 || stats.Files != 1 || stats.Dirs != 0 {
		t.Errorf("stats = %+v, want Skipped=1 Files=1 Dirs=0", *stats)
	}
	if exists, _ := st.Exists(".git"); exists {
		t.Error("ignored directory was created")
	}
}

func TestService_Snapshot_ExistingOutput(t *testing.T) {
	newTree := func() *testutil.FakeSourceTree {
		tree := testutil.NewFakeSourceTree()
		tree.AddFile("/src/a.txt", []byte("alpha"), statRecord(5, 0o100644))
		tree.AddFile("/src/b.txt", []byte("beta"), statRecord(4, 0o100644))
		return tree
	}

	t.Run("counts as failure by default", func(t *testing.T) {
		st := store.NewMemoryStore()
		if err := st.WriteRecord("a.txt", []byte("occupied")); err != nil {
			t.Fatalf("seeding store: %v", err)
		}

		stats, err := newService(newTree(), st).Snapshot("/src", cfs.SnapshotOptions{})
		if err != nil {
			t.Fatalf("Snapshot() error = %v", err)
		}
		if stats.Failed != 1 || stats.Files != 1 {
			t.Errorf("stats = %+v, want Failed=1 Files=1", *stats)
		}

		// The occupied entry must be untouched.
		data, _ := st.Record("a.txt")
		if string(data) != "occupied" {
			t.Errorf("existing entry modified: %q", data)
		}
	})

	t.Run("skips in continue mode", func(t *testing.T) {
		st := store.NewMemoryStore()
		if err := st.WriteRecord("a.txt", []byte("occupied")); err != nil {
			t.Fatalf("seeding store: %v", err)
		}

		stats, err := newService(newTree(), st).Snapshot("/src", cfs.SnapshotOptions{SkipExisting: true})
		if err != nil {
			t.Fatalf("Snapshot() error = %v", err)
		}
		if stats.Skipped != 1 || stats.Failed != 0 || stats.Files != 1 {
			t.Errorf("stats = %+v, want Skipped=1 Failed=0 Files=1", *stats)
		}
	})
}

func TestService_Snapshot_FailuresDoNotAbort(t *testing.T) {
	t.Run("stat failure", func(t *testing.T) {
		tree := testutil.NewFakeSourceTree()
		tree.AddFile("/src/a.txt", []byte("alpha"), statRecord(5, 0o100644))
		tree.AddFile("/src/b.txt", []byte("beta"), statRecord(4, 0o100644))
		tree.StatErrs["/src/a.txt"] = errors.New("permission denied")

		st := store.NewMemoryStore()
		stats, err := newService(tree, st).Snapshot("/src", cfs.SnapshotOptions{})
		if err != nil {
			t.Fatalf("Snapshot() error = %v", err)
		}
		if stats.Failed != 1 || stats.Files != 1 {
			t.Errorf("stats = %+v, want Failed=1 Files=1", *stats)
		}
	})

	t.Run("unreadable directory", func(t *testing.T) {
		tree := testutil.NewFakeSourceTree()
		tree.AddDir("/src/sub", statRecord(0, 0o40000))
		tree.AddFile("/src/sub/b.txt", []byte("beta"), statRecord(4, 0o100644))
		tree.AddFile("/src/a.txt", []byte("alpha"), statRecord(5, 0o100644))
		tree.ReadDirErrs["/src/sub"] = errors.New("permission denied")

		st := store.NewMemoryStore()
		stats, err := newService(tree, st).Snapshot("/src", cfs.SnapshotOptions{})
		if err != nil {
			t.Fatalf("Snapshot() error = %v", err)
		}
		// The directory itself is still created; its content is lost.
		if stats.Dirs != 1 || stats.Failed != 1 || stats.Files != 1 {
			t.Errorf("stats = %+v, want Dirs=1 Failed=1 Files=1", *stats)
		}
	})

	t.Run("unsupported entry kind", func(t *testing.T) {
		tree := testutil.NewFakeSourceTree()
		tree.AddOther("/src/dev0")
		tree.AddFile("/src/a.txt", []byte("alpha"), statRecord(5, 0o100644))

		st := store.NewMemoryStore()
		stats, err := newService(tree, st).Snapshot("/src", cfs.SnapshotOptions{})
		if err != nil {
			t.Fatalf("Snapshot() error = %v", err)
		}
		if stats.Failed != 1 || stats.Files != 1 {
			t.Errorf("stats = %+v, want Failed=1 Files=1", *stats)
		}
	})
}

func TestService_Snapshot_FromRecords(t *testing.T) {
	// A source file that is itself a record: the decoded fields must win
	// over the sidecar file's own stat.
	existing := cfsfile.Encode(cfsfile.Record{
		Size:   cfsfile.Int64(123456),
		Mode:   cfsfile.Int64(0o100600),
		SHA256: cfsfile.String(strings.Repeat("ab", 32)),
	}, cfsfile.ProfileFull)

	tree := testutil.NewFakeSourceTree()
	tree.AddFile("/src/a.txt", existing, statRecord(int64(len(existing)), 0o100644))

	st := store.NewMemoryStore()
	svc := newService(tree, st)

	stats, err := svc.Snapshot("/src", cfs.SnapshotOptions{FromRecords: true})
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if stats.Files != 1 {
		t.Errorf("Files = %d, want 1", stats.Files)
	}

	data, _ := st.Record("a.txt")
	s := string(data)
	if !strings.Contains(s, "size=123456\n") {
		t.Errorf("decoded size did not win: %q", s)
	}
	if !strings.Contains(s, "mode=33152\n") {
		t.Errorf("decoded mode did not win: %q", s)
	}
	if !strings.Contains(s, "sha256="+strings.Repeat("ab", 32)+"\n") {
		t.Errorf("decoded digest not carried over: %q", s)
	}
	// Fields absent from the decoded record keep the sidecar's own stat.
	if !strings.Contains(s, "uid=1000\n") {
		t.Errorf("sidecar stat fields lost: %q", s)
	}
}

func TestService_Snapshot_FromRecords_InvalidRecord(t *testing.T) {
	tree := testutil.NewFakeSourceTree()
	tree.AddFile("/src/bad", []byte("not a record\n"), statRecord(13, 0o100644))
	tree.AddFile("/src/good", cfsfile.Encode(cfsfile.Record{Size: cfsfile.Int64(1)}, cfsfile.ProfileFull), statRecord(0, 0o100644))

	st := store.NewMemoryStore()
	stats, err := newService(tree, st).Snapshot("/src", cfs.SnapshotOptions{FromRecords: true})
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	if stats.Failed != 1 || stats.Files != 1 {
		t.Errorf("stats = %+v, want Failed=1 Files=1", *stats)
	}
	if _, ok := st.Record("bad"); ok {
		t.Error("invalid record was written to the output")
	}
}

func TestService_Snapshot_HashWithFromRecords(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newService(testutil.NewFakeSourceTree(), st)

	_, err := svc.Snapshot("/src", cfs.SnapshotOptions{Hash: true, FromRecords: true})
	if !errors.Is(err, cfs.ErrHashFromRecords) {
		t.Errorf("error = %v, want ErrHashFromRecords", err)
	}
}
