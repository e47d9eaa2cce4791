package engine

import (
	"os"

	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

// DirEntry is a merged readdir result: a name and the mode of whichever
// tier's stat won the merge.
type DirEntry struct {
	Name string
	Mode os.FileMode
}

// ResolveRead runs the Path Resolver under the freeze reader lock and
// returns the chosen tier's root directory and the held guard. Callers
// (fusefs) must Release guard after performing the actual syscall against
// rootDir+p.
func (e *Engine) ResolveRead(p string) (rootDir string, tier string, guard *Guard) {
	_, tier, guard = e.HandleRead(p)
	if tier == "upper" {
		return e.UpperRoot, tier, guard
	}
	return e.LowerRoot, tier, guard
}

// Getattr implements getattr: resolver only, stat on the chosen tier.
func (e *Engine) Getattr(p string) (os.FileInfo, error) {
	fsys, _, guard := e.HandleRead(p)
	defer guard.Release()
	return lstat(fsys, p)
}

// Access implements access: resolver only, access(2) on the chosen tier's
// real path.
func (e *Engine) Access(p string, mode uint32) error {
	fsys, _, guard := e.HandleRead(p)
	defer guard.Release()
	real, err := realPath(fsys, p)
	if err != nil {
		return err
	}
	return unix.Access(real, mode)
}

// Readlink implements readlink: resolver only, readlink on the chosen
// tier.
func (e *Engine) Readlink(p string) (string, error) {
	fsys, _, guard := e.HandleRead(p)
	defer guard.Release()
	return readlink(fsys, p)
}

// Readdir implements readdir per §4.6: resolver picks the primary tier;
// when the chosen tier is upper, entries from lower/p are also merged in,
// de-duplicated by name. Entries are collected tier-by-tier and a later
// tier's entry for the same name overwrites an earlier one, so for a name
// present on both tiers the lower tier's mode is reported.
func (e *Engine) Readdir(p string) ([]DirEntry, error) {
	fsys, tier, guard := e.HandleRead(p)
	defer guard.Release()

	merged := make(map[string]DirEntry)

	primary, err := afero.ReadDir(fsys, p)
	if err != nil {
		return nil, err
	}
	for _, info := range primary {
		merged[info.Name()] = DirEntry{Name: info.Name(), Mode: info.Mode()}
	}

	if tier == "upper" {
		if lowerEntries, err := afero.ReadDir(e.Lower, p); err == nil {
			for _, info := range lowerEntries {
				merged[info.Name()] = DirEntry{Name: info.Name(), Mode: info.Mode()}
			}
		}
	}

	out := make([]DirEntry, 0, len(merged))
	for _, d := range merged {
		out = append(out, d)
	}
	return out, nil
}

// StatFS implements statfs: reports statvfs of the upper tier.
func (e *Engine) StatFS() (*unix.Statfs_t, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(e.UpperRoot, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
