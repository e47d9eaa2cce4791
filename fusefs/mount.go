package fusefs

import (
	"errors"
	"io"
	"os"
	"os/exec"

	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/hanwen/go-fuse/v2/fuse/nodefs"
	"github.com/hanwen/go-fuse/v2/fuse/pathfs"

	"tractor.dev/tierfs/engine"
)

// mountCloser wraps a *fuse.Server as an io.Closer, in the shape of the
// teacher's fusekit.fuseMount.
type mountCloser struct {
	path string
	*fuse.Server
}

func (m *mountCloser) Close() error {
	if m.Server == nil {
		exec.Command("umount", m.path).Run()
		return nil
	}
	return m.Server.Unmount()
}

// Mount builds a pathfs.FileSystem over eng, connects it through a
// nodefs.FileSystemConnector, and serves it at mountpoint. adapterFlags
// are accepted but neither interpreted nor passed to the FUSE server; the
// server is created with only the mount name set.
func Mount(eng *engine.Engine, mountpoint string, adapterFlags []string) (io.Closer, error) {
	exec.Command("umount", mountpoint).Run()

	if err := os.MkdirAll(mountpoint, 0o755); err != nil {
		return nil, errors.New("fusefs: unable to mkdir mountpoint")
	}

	nfs := pathfs.NewPathNodeFs(New(eng), nil)
	conn := nodefs.NewFileSystemConnector(nfs.Root(), nodefs.NewOptions())

	server, err := fuse.NewServer(conn.RawFS(), mountpoint, &fuse.MountOptions{
		Name: "tierfs",
	})
	if err != nil {
		return nil, err
	}

	go server.Serve()
	server.WaitMount()

	return &mountCloser{Server: server, path: mountpoint}, nil
}
