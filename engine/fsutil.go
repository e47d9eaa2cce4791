package engine

import (
	"errors"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// errNoSymlinkSupport is returned when the backing afero.Fs for a tier
// does not implement the optional symlink interfaces at all.
var errNoSymlinkSupport = errors.New("engine: backing filesystem does not support symlinks")

// parentOf returns the parent directory of a relative logical path, using
// the spec's definition: p up to the last "/". The root "/" has parent "/".
func parentOf(p string) string {
	p = strings.TrimSuffix(p, "/")
	if p == "" {
		return "/"
	}
	idx := strings.LastIndex(p, "/")
	if idx <= 0 {
		return "/"
	}
	return p[:idx]
}

// baseOf returns the final path element of a relative logical path.
func baseOf(p string) string {
	return path.Base(p)
}

// exists reports whether p exists on fsys, following symlinks.
func exists(fsys afero.Fs, p string) bool {
	_, err := fsys.Stat(p)
	return err == nil
}

// lstat stats p without following a trailing symlink when fsys supports
// it, falling back to Stat otherwise.
func lstat(fsys afero.Fs, p string) (os.FileInfo, error) {
	if lfs, ok := fsys.(afero.Lstater); ok {
		info, _, err := lfs.LstatIfPossible(p)
		return info, err
	}
	return fsys.Stat(p)
}

// clampMtime treats negative/zero mtimes as 0 per the spec's mtime
// comparison rule.
func clampMtime(info os.FileInfo) int64 {
	if info == nil {
		return 0
	}
	m := info.ModTime().Unix()
	if m < 0 {
		return 0
	}
	return m
}

// isRegularOrSymlink reports whether info describes a plain file or a
// symlink, as opposed to a "special" file (fifo, device, socket).
func isRegularOrSymlink(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	mode := info.Mode()
	return mode.IsRegular() || mode&os.ModeSymlink != 0
}

// isSpecial reports whether info describes neither a regular file, a
// symlink, nor a directory.
func isSpecial(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	mode := info.Mode()
	return !mode.IsRegular() && !mode.IsDir() && mode&os.ModeSymlink == 0
}

// readlink resolves the target of a symlink on fsys when it supports the
// afero.LinkReader fallback interface.
func readlink(fsys afero.Fs, p string) (string, error) {
	lr, ok := fsys.(afero.LinkReader)
	if !ok {
		return "", errNoSymlinkSupport
	}
	return lr.ReadlinkIfPossible(p)
}

// symlink creates a symlink on fsys when it supports the afero.Linker
// fallback interface.
func symlink(fsys afero.Fs, target, linkname string) error {
	l, ok := fsys.(afero.Linker)
	if !ok {
		return errNoSymlinkSupport
	}
	return l.SymlinkIfPossible(target, linkname)
}

// realPath resolves p to its absolute path on the host filesystem when
// fsys is an *afero.BasePathFs, for calls that need a host path (mknod,
// access, truncate, opening the upper file). Any other fsys returns p
// unchanged.
func realPath(fsys afero.Fs, p string) (string, error) {
	if bp, ok := fsys.(*afero.BasePathFs); ok {
		return bp.RealPath(p)
	}
	return p, nil
}
