package fusefs

import (
	iofs "io/fs"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fuse"
)

// applyStat fills out from fi, preferring the real syscall.Stat_t the
// host filesystem already populated (in the shape of the teacher's
// fs/fusekit/util.go applyStat) and falling back to the portable FileInfo
// fields otherwise.
func applyStat(out *fuse.Attr, fi iofs.FileInfo) {
	if s, ok := fi.Sys().(*syscall.Stat_t); ok {
		out.FromStat(s)
		return
	}
	out.Mtime = uint64(fi.ModTime().Unix())
	out.Mtimensec = uint32(fi.ModTime().UnixNano())
	out.Size = uint64(fi.Size())
	if fi.IsDir() {
		out.Mode = fuse.S_IFDIR | uint32(fi.Mode().Perm())
	} else {
		out.Mode = fuse.S_IFREG | uint32(fi.Mode().Perm())
	}
}
