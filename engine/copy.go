package engine

import (
	"fmt"
	"io"
	"os"
	"path"

	"github.com/spf13/afero"
)

// ensureDir recursively creates p (and any missing parents) on fsys,
// equivalent to the spec's ensure_dir primitive (mkdir -p).
func ensureDir(fsys afero.Fs, p string) error {
	return fsys.MkdirAll(p, 0o755)
}

// copyTree recursively copies the file, directory, or symlink at
// srcFS/srcPath into dstFS/dstDir, preserving its base name — the Go
// equivalent of the spec's copy_tree(src, dst) primitive, grounded on
// `cp -a SRC DSTDIR` semantics: the destination is a directory that
// receives an entry named after src's base name, and existing entries
// there are overwritten rather than rejected.
func copyTree(srcFS afero.Fs, srcPath string, dstFS afero.Fs, dstDir string) error {
	dstPath := path.Join(dstDir, baseOf(srcPath))
	return copyInto(srcFS, srcPath, dstFS, dstPath)
}

func copyInto(srcFS afero.Fs, srcPath string, dstFS afero.Fs, dstPath string) error {
	info, err := lstat(srcFS, srcPath)
	if err != nil {
		return err
	}
	mode := info.Mode()
	switch {
	case mode&os.ModeSymlink != 0:
		return copySymlinkInto(srcFS, srcPath, dstFS, dstPath, mode)
	case mode.IsDir():
		return copyDirInto(srcFS, srcPath, dstFS, dstPath, mode)
	case mode.IsRegular():
		return copyFileInto(srcFS, srcPath, dstFS, dstPath, mode)
	default:
		return fmt.Errorf("engine: cannot copy special file %q", srcPath)
	}
}

func copySymlinkInto(srcFS afero.Fs, srcPath string, dstFS afero.Fs, dstPath string, mode os.FileMode) error {
	target, err := readlink(srcFS, srcPath)
	if err != nil {
		return err
	}
	_ = dstFS.Remove(dstPath)
	return symlink(dstFS, target, dstPath)
}

func copyDirInto(srcFS afero.Fs, srcPath string, dstFS afero.Fs, dstPath string, mode os.FileMode) error {
	perm := mode.Perm()
	if perm&0o500 == 0 {
		perm |= 0o500
	}
	if err := dstFS.MkdirAll(dstPath, perm); err != nil {
		return err
	}
	entries, err := afero.ReadDir(srcFS, srcPath)
	if err != nil {
		return fmt.Errorf("engine: reading directory %q: %w", srcPath, err)
	}
	for _, entry := range entries {
		if err := copyInto(srcFS, path.Join(srcPath, entry.Name()), dstFS, path.Join(dstPath, entry.Name())); err != nil {
			return err
		}
	}
	return dstFS.Chmod(dstPath, mode.Perm())
}

func copyFileInto(srcFS afero.Fs, srcPath string, dstFS afero.Fs, dstPath string, mode os.FileMode) (err error) {
	srcf, err := srcFS.Open(srcPath)
	if err != nil {
		return err
	}
	defer srcf.Close()

	dstf, err := dstFS.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := dstf.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("engine: close %q: %w", dstPath, cerr)
		}
		if cerr := dstFS.Chmod(dstPath, mode.Perm()); cerr != nil && err == nil {
			err = fmt.Errorf("engine: chmod %q: %w", dstPath, cerr)
		}
	}()

	if _, err = io.Copy(dstf, srcf); err != nil {
		return fmt.Errorf("engine: copy %q to %q: %w", srcPath, dstPath, err)
	}
	return nil
}
