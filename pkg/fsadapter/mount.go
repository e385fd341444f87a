package fsadapter

import (
	"bazil.org/fuse"
	"bazil.org/fuse/fs"
)

// Mount opens point as a FUSE mount and serves filesys until the kernel
// tears the connection down (typically via fusermount -u). It blocks
// for the mount's whole lifetime; callers run it on its own goroutine
// alongside the audio render loop.
func Mount(point string, filesys *FS) error {
	c, err := fuse.Mount(point, fuse.FSName("kotosynth"), fuse.Subtype("kotosynth"))
	if err != nil {
		return err
	}
	defer c.Close()

	if err := fs.Serve(c, filesys); err != nil {
		return err
	}

	<-c.Ready
	return c.MountError
}
