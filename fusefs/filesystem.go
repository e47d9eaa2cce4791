// Package fusefs is the Filesystem Operation Surface: a thin
// pathfs.FileSystem adapter that composes engine.Engine's resolver,
// freeze registry, and stager with the actual host syscalls, mapping
// results to fuse.Status. Business logic — which tier, when to stage,
// when to schedule a commit — lives entirely in package engine; this
// package only dispatches and maps errors, per the teacher's
// fs/fusekit adapter shape.
package fusefs

import (
	"os"
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/hanwen/go-fuse/v2/fuse/nodefs"
	"github.com/hanwen/go-fuse/v2/fuse/pathfs"

	"tractor.dev/tierfs/engine"
)

// FileSystem adapts an *engine.Engine to pathfs.FileSystem.
type FileSystem struct {
	pathfs.FileSystem
	eng *engine.Engine
}

// New wraps eng as a pathfs.FileSystem, defaulting unimplemented methods
// (xattrs, hard links) to the library's ENOSYS stubs.
func New(eng *engine.Engine) *FileSystem {
	return &FileSystem{
		FileSystem: pathfs.NewDefaultFileSystem(),
		eng:        eng,
	}
}

func (fs *FileSystem) String() string {
	return "tierfs(" + fs.eng.UpperRoot + "," + fs.eng.LowerRoot + ")"
}

func (fs *FileSystem) GetAttr(name string, context *fuse.Context) (*fuse.Attr, fuse.Status) {
	info, err := fs.eng.Getattr(rel(name))
	if err != nil {
		return nil, statusFor(err)
	}
	out := &fuse.Attr{}
	applyStat(out, info)
	return out, fuse.OK
}

func (fs *FileSystem) Access(name string, mode uint32, context *fuse.Context) fuse.Status {
	return statusFor(fs.eng.Access(rel(name), mode))
}

func (fs *FileSystem) Readlink(name string, context *fuse.Context) (string, fuse.Status) {
	target, err := fs.eng.Readlink(rel(name))
	return target, statusFor(err)
}

func (fs *FileSystem) OpenDir(name string, context *fuse.Context) ([]fuse.DirEntry, fuse.Status) {
	entries, err := fs.eng.Readdir(rel(name))
	if err != nil {
		return nil, statusFor(err)
	}
	out := make([]fuse.DirEntry, 0, len(entries))
	for _, e := range entries {
		mode := fuse.S_IFREG
		switch {
		case e.Mode.IsDir():
			mode = fuse.S_IFDIR
		case e.Mode&os.ModeSymlink != 0:
			mode = fuse.S_IFLNK
		}
		out = append(out, fuse.DirEntry{Name: e.Name, Mode: uint32(mode)})
	}
	return out, fuse.OK
}

func (fs *FileSystem) Mknod(name string, mode uint32, dev uint32, context *fuse.Context) fuse.Status {
	return statusFor(fs.eng.Mknod(rel(name), mode, uint64(dev)))
}

func (fs *FileSystem) Mkdir(name string, mode uint32, context *fuse.Context) fuse.Status {
	return statusFor(fs.eng.Mkdir(rel(name), mode))
}

func (fs *FileSystem) Symlink(pointedTo string, linkName string, context *fuse.Context) fuse.Status {
	return statusFor(fs.eng.Symlink(pointedTo, rel(linkName)))
}

func (fs *FileSystem) Unlink(name string, context *fuse.Context) fuse.Status {
	return statusFor(fs.eng.Unlink(rel(name)))
}

func (fs *FileSystem) Rmdir(name string, context *fuse.Context) fuse.Status {
	return statusFor(fs.eng.Rmdir(rel(name)))
}

func (fs *FileSystem) Rename(oldName string, newName string, context *fuse.Context) fuse.Status {
	return statusFor(fs.eng.Rename(rel(oldName), rel(newName)))
}

func (fs *FileSystem) Chmod(name string, mode uint32, context *fuse.Context) fuse.Status {
	return statusFor(fs.eng.Chmod(rel(name), mode))
}

func (fs *FileSystem) Chown(name string, uid uint32, gid uint32, context *fuse.Context) fuse.Status {
	return statusFor(fs.eng.Chown(rel(name), int(uid), int(gid)))
}

func (fs *FileSystem) Utimens(name string, atime *time.Time, mtime *time.Time, context *fuse.Context) fuse.Status {
	a, m := atime, mtime
	if a == nil || m == nil {
		info, err := fs.eng.Getattr(rel(name))
		if err == nil {
			if a == nil {
				t := info.ModTime()
				a = &t
			}
			if m == nil {
				t := info.ModTime()
				m = &t
			}
		}
	}
	var av, mv time.Time
	if a != nil {
		av = *a
	}
	if m != nil {
		mv = *m
	}
	return statusFor(fs.eng.Utimens(rel(name), av, mv))
}

func (fs *FileSystem) Truncate(name string, size uint64, context *fuse.Context) fuse.Status {
	return statusFor(fs.eng.Truncate(rel(name), int64(size)))
}

func (fs *FileSystem) Open(name string, flags uint32, context *fuse.Context) (nodefs.File, fuse.Status) {
	p := rel(name)

	if flags&uint32(os.O_WRONLY) != 0 || flags&uint32(os.O_RDWR) != 0 {
		realPath, guard, err := fs.eng.OpenWrite(p)
		if err != nil {
			guard.Release()
			return nil, statusFor(err)
		}
		f, err := os.OpenFile(realPath, int(flags), 0o644)
		guard.Release()
		if err != nil {
			return nil, statusFor(err)
		}
		return nodefs.NewLoopbackFile(f), fuse.OK
	}

	root, _, guard := fs.eng.ResolveRead(p)
	defer guard.Release()
	f, err := os.OpenFile(root+p, int(flags), 0)
	if err != nil {
		return nil, statusFor(err)
	}
	return nodefs.NewLoopbackFile(f), fuse.OK
}

func (fs *FileSystem) Create(name string, flags uint32, mode uint32, context *fuse.Context) (nodefs.File, fuse.Status) {
	p := rel(name)
	realPath, guard, err := fs.eng.OpenWrite(p)
	if err != nil {
		guard.Release()
		return nil, statusFor(err)
	}
	f, err := os.OpenFile(realPath, int(flags)|os.O_CREATE, os.FileMode(mode))
	guard.Release()
	if err != nil {
		return nil, statusFor(err)
	}
	return nodefs.NewLoopbackFile(f), fuse.OK
}

func (fs *FileSystem) StatFs(name string) *fuse.StatfsOut {
	st, err := fs.eng.StatFS()
	if err != nil {
		return nil
	}
	out := &fuse.StatfsOut{}
	out.Blocks = uint64(st.Blocks)
	out.Bfree = uint64(st.Bfree)
	out.Bavail = uint64(st.Bavail)
	out.Files = uint64(st.Files)
	out.Ffree = uint64(st.Ffree)
	out.Bsize = uint32(st.Bsize)
	out.NameLen = uint32(st.Namelen)
	return out
}

// rel normalizes a pathfs-supplied name (which arrives without a leading
// "/", per go-fuse convention) to the engine's relative logical path
// form, which always carries one.
func rel(name string) string {
	if name == "" || name == "." {
		return "/"
	}
	if name[0] == '/' {
		return name
	}
	return "/" + name
}
