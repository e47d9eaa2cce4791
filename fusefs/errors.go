package fusefs

import (
	"log/slog"
	"os"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fuse"
)

// statusFor maps an engine error to a fuse.Status, in the shape of the
// teacher's fs/fusekit/errors.go sysErrno helper, adapted from
// syscall.Errno to fuse.Status since pathfs.FileSystem methods return the
// latter directly.
func statusFor(err error) fuse.Status {
	if err == nil {
		return fuse.OK
	}

	switch t := err.(type) {
	case syscall.Errno:
		return fuse.Status(t)
	case *os.SyscallError:
		if errno, ok := t.Err.(syscall.Errno); ok {
			return fuse.Status(errno)
		}
		return fuse.EIO
	case *os.PathError:
		return statusFor(t.Err)
	case *os.LinkError:
		return statusFor(t.Err)
	}

	switch {
	case os.IsNotExist(err):
		return fuse.ENOENT
	case os.IsExist(err):
		return fuse.Status(syscall.EEXIST)
	case os.IsPermission(err):
		return fuse.EPERM
	}

	slog.Default().Debug("fusefs: unmapped error", "err", err)
	return fuse.EIO
}
