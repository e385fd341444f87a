// Package fsadapter exposes a namespace tree as a mounted FUSE file
// system (spec §4.7), translating each file-system operation into a
// namespace tree edit followed by a Syncer call that reconciles the
// edit into the unit graph it describes. Every mutating operation here
// holds the graph's single mutation lock while it changes the tree or
// calls the Syncer (argument checks and the lookup of an existing child
// run before the lock is taken); read-only
// operations (Attr, Lookup, ReadDirAll, Read, Readlink) take no lock at
// all, matching the namespace package's own locking discipline.
package fsadapter

import (
	"context"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
	"github.com/rs/zerolog"

	"github.com/anthropics/kotosynth/pkg/namespace"
)

// FS is the root of a mounted file system.
type FS struct {
	tree *namespace.Tree
	sync *namespace.Syncer
	log  zerolog.Logger
}

// New builds an FS over tree, routing every mutation through s.
func New(tree *namespace.Tree, s *namespace.Syncer, log zerolog.Logger) *FS {
	return &FS{tree: tree, sync: s, log: log}
}

// Root implements fs.FS.
func (f *FS) Root() (fs.Node, error) {
	return &node{fs: f, n: f.tree.Root}, nil
}

// node adapts one namespace.Node to the fs.Node capability interfaces
// bazil.org/fuse dispatches on. It also serves as its own fs.Handle:
// fsadapter never implements NodeOpener, so the kernel driver uses the
// node itself for subsequent Read/Write calls.
type node struct {
	fs *FS
	n  *namespace.Node
}

func (nd *node) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Inode = nd.n.Attr.Ino
	a.Mode = nd.n.Attr.Mode
	a.Atime = nd.n.Attr.Atime
	a.Mtime = nd.n.Attr.Mtime
	a.Ctime = nd.n.Attr.Mtime
	switch nd.n.Attr.Kind {
	case namespace.KindDir:
		a.Nlink = 2
	case namespace.KindFile:
		a.Size = uint64(len(nd.n.Data))
		a.Nlink = 1
	case namespace.KindSymlink:
		a.Size = uint64(len(nd.n.Link))
		a.Nlink = 1
	}
	return nil
}

func (nd *node) Lookup(ctx context.Context, name string) (fs.Node, error) {
	child, ok := nd.n.Lookup(name)
	if !ok {
		return nil, fuse.ENOENT
	}
	return &node{fs: nd.fs, n: child}, nil
}

func (nd *node) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	ents := make([]fuse.Dirent, 0, len(nd.n.Children))
	for _, c := range nd.n.Children {
		ents = append(ents, fuse.Dirent{Inode: c.Node.Attr.Ino, Type: direntType(c.Node.Attr.Kind), Name: c.Name})
	}
	return ents, nil
}

func direntType(k namespace.Kind) fuse.DirentType {
	switch k {
	case namespace.KindDir:
		return fuse.DT_Dir
	case namespace.KindSymlink:
		return fuse.DT_Link
	default:
		return fuse.DT_File
	}
}
