//go:build unix

package cfsfile

import (
	"fmt"
	"io/fs"
	"syscall"
)

// FromFileInfo builds a Record from live stat metadata. Times are split
// into whole seconds and a nanosecond remainder; the hash field is left
// absent and must be set by the caller if a digest was computed.
func FromFileInfo(info fs.FileInfo) (Record, error) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return Record{}, fmt.Errorf("cannot extract stat data: expected *syscall.Stat_t, got %T", info.Sys())
	}

	return Record{
		Size:      Int64(st.Size),
		Blocks:    Int64(st.Blocks),
		Mode:      Int64(int64(st.Mode)),
		UID:       Int64(int64(st.Uid)),
		GID:       Int64(int64(st.Gid)),
		Atime:     Int64(st.Atim.Sec),
		Mtime:     Int64(st.Mtim.Sec),
		Ctime:     Int64(st.Ctim.Sec),
		AtimeNsec: Int64(st.Atim.Nsec),
		MtimeNsec: Int64(st.Mtim.Nsec),
		CtimeNsec: Int64(st.Ctim.Nsec),
		Nlink:     Int64(int64(st.Nlink)),
		Blksize:   Int64(int64(st.Blksize)),
	}, nil
}
