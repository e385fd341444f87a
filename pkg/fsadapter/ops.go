package fsadapter

import (
	"context"
	"syscall"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"

	"github.com/anthropics/kotosynth/pkg/namespace"
)

func (nd *node) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	data := nd.n.Data
	off := int(req.Offset)
	if off < 0 || off > len(data) {
		off = len(data)
	}
	end := off + req.Size
	if end > len(data) {
		end = len(data)
	}
	resp.Data = data[off:end]
	return nil
}

// Write replaces a file's content on an offset-0 write and appends
// otherwise, matching the original implementation's sync_file contract:
// these files hold one current parameter value, not an arbitrary byte
// stream, so there's no random-access write to support.
func (nd *node) Write(ctx context.Context, req *fuse.WriteRequest, resp *fuse.WriteResponse) error {
	nd.fs.sync.Graph.Lock()
	defer nd.fs.sync.Graph.Unlock()

	if req.Offset == 0 {
		nd.n.Data = append([]byte(nil), req.Data...)
	} else {
		nd.n.Data = append(nd.n.Data, req.Data...)
	}
	resp.Size = len(req.Data)

	if err := nd.fs.sync.SyncFile(nd.n); err != nil {
		return fuse.Errno(syscall.EINVAL)
	}
	return nil
}

func (nd *node) Create(ctx context.Context, req *fuse.CreateRequest, resp *fuse.CreateResponse) (fs.Node, fs.Handle, error) {
	if nd.n.Attr.Kind != namespace.KindDir {
		return nil, nil, fuse.Errno(syscall.ENOTDIR)
	}

	nd.fs.sync.Graph.Lock()
	defer nd.fs.sync.Graph.Unlock()

	child := nd.fs.tree.NewFile(nd.n, req.Name)
	if err := nd.fs.sync.SyncFile(child); err != nil {
		nd.fs.tree.Detach(nd.n, child)
		return nil, nil, fuse.Errno(syscall.EINVAL)
	}
	cn := &node{fs: nd.fs, n: child}
	return cn, cn, nil
}

func (nd *node) Mkdir(ctx context.Context, req *fuse.MkdirRequest) (fs.Node, error) {
	if nd.n.Attr.Kind != namespace.KindDir {
		return nil, fuse.Errno(syscall.ENOTDIR)
	}
	_, typename, ok := namespace.ParseEntryName(req.Name)
	if !ok || !namespace.KnownOp(typename) {
		return nil, fuse.Errno(syscall.EINVAL)
	}

	nd.fs.sync.Graph.Lock()
	defer nd.fs.sync.Graph.Unlock()

	child := nd.fs.tree.NewDir(nd.n, req.Name, typename)
	if err := nd.fs.sync.SyncDirectory(child); err != nil {
		nd.fs.tree.Detach(nd.n, child)
		return nil, fuse.Errno(syscall.EINVAL)
	}
	return &node{fs: nd.fs, n: child}, nil
}

// Remove serves both unlink and rmdir; req.Dir says which the kernel
// expects this entry to be.
func (nd *node) Remove(ctx context.Context, req *fuse.RemoveRequest) error {
	child, ok := nd.n.Lookup(req.Name)
	if !ok {
		return fuse.ENOENT
	}
	if req.Dir && child.Attr.Kind != namespace.KindDir {
		return fuse.Errno(syscall.ENOTDIR)
	}
	if !req.Dir && child.Attr.Kind == namespace.KindDir {
		return fuse.Errno(syscall.EISDIR)
	}

	nd.fs.sync.Graph.Lock()
	defer nd.fs.sync.Graph.Unlock()
	nd.fs.sync.SyncRemove(child)
	return nil
}

// Rename generalizes past the original implementation's same-directory
// assumption: newDir may be a different node than the receiver.
func (nd *node) Rename(ctx context.Context, req *fuse.RenameRequest, newDir fs.Node) error {
	target, ok := newDir.(*node)
	if !ok {
		return fuse.EIO
	}
	child, ok := nd.n.Lookup(req.OldName)
	if !ok {
		return fuse.ENOENT
	}

	nd.fs.sync.Graph.Lock()
	defer nd.fs.sync.Graph.Unlock()
	if err := nd.fs.sync.SyncRename(child, nd.n, req.OldName, target.n, req.NewName); err != nil {
		return fuse.Errno(syscall.EINVAL)
	}
	return nil
}

// Setattr only honors truncation (via ftruncate/O_TRUNC); mode and time
// changes are accepted silently since units track neither.
func (nd *node) Setattr(ctx context.Context, req *fuse.SetattrRequest, resp *fuse.SetattrResponse) error {
	if req.Valid.Size() && nd.n.Attr.Kind == namespace.KindFile {
		nd.fs.sync.Graph.Lock()
		if int(req.Size) <= len(nd.n.Data) {
			nd.n.Data = nd.n.Data[:req.Size]
		} else {
			nd.n.Data = append(nd.n.Data, make([]byte, int(req.Size)-len(nd.n.Data))...)
		}
		_ = nd.fs.sync.SyncFile(nd.n)
		nd.fs.sync.Graph.Unlock()
	}
	return nd.Attr(ctx, &resp.Attr)
}

// Symlink always calls through to SyncSymlink, unlike the kfs.rs
// handler this is grounded on, which leaves a freshly created symlink
// unwired until the next unrelated mutation walks it.
func (nd *node) Symlink(ctx context.Context, req *fuse.SymlinkRequest) (fs.Node, error) {
	if nd.n.Attr.Kind != namespace.KindDir {
		return nil, fuse.Errno(syscall.ENOTDIR)
	}

	nd.fs.sync.Graph.Lock()
	defer nd.fs.sync.Graph.Unlock()

	child := nd.fs.tree.NewSymlink(nd.n, req.NewName, req.Target)
	if err := nd.fs.sync.SyncSymlink(child); err != nil {
		nd.fs.tree.Detach(nd.n, child)
		return nil, fuse.Errno(syscall.EINVAL)
	}
	return &node{fs: nd.fs, n: child}, nil
}

func (nd *node) Readlink(ctx context.Context, req *fuse.ReadlinkRequest) (string, error) {
	if nd.n.Attr.Kind != namespace.KindSymlink {
		return "", fuse.Errno(syscall.EINVAL)
	}
	return nd.n.Link, nil
}
