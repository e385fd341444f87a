// Package namespace maps a unit-generator graph onto a hierarchical POSIX
// tree (spec §4.5): every op becomes a directory, every scalar/table/
// pattern slot becomes a regular file, and every repeated occurrence of a
// shared node becomes a symlink to its first (canonical) occurrence.
// Apart from InodeTable's own mutex it adds no synchronization; every
// mutating call here is made
// while the caller (pkg/fsadapter) holds the graph's single mutation lock,
// and read-only calls are made without it, matching spec §5's "read-only
// file operations do not touch the lock".
package namespace

import (
	"os"
	"time"

	"github.com/anthropics/kotosynth/pkg/ugen"
)

// Kind distinguishes the three entry shapes a Node projects to.
type Kind int

const (
	KindFile Kind = iota
	KindDir
	KindSymlink
)

// Attr is a namespace entry's file-system metadata, the fields getattr
// needs to fill a fuse.Attr.
type Attr struct {
	Ino   uint64
	Size  uint64
	Kind  Kind
	Mode  os.FileMode
	Atime time.Time
	Mtime time.Time
}

// Node is one entry of the mounted namespace tree. Ug is the unit it is
// bound to; it is nil for a directory created by mkdir or a symlink
// that has not yet been synced to a unit (spec §4.6's "unmapped" state),
// and for a regular file made by create, whose writes go to its parent
// unit's slot instead. Name is this
// node's own typename (the half of "param.typename" after the dot) or
// leaf kind ("val"/"tab"/"pat"), never the full entry name, which only
// exists as the Child.Name its parent stores it under.
type Node struct {
	Ug     ugen.Node
	parent *Node

	Name     string
	Children []Child
	Data     []byte
	Link     string

	Attr Attr
}

// Child names one directory entry.
type Child struct {
	Name string
	Node *Node
}

// Parent returns n's parent directory, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Lookup returns the child named name, if any.
func (n *Node) Lookup(name string) (*Node, bool) {
	for _, c := range n.Children {
		if c.Name == name {
			return c.Node, true
		}
	}
	return nil, false
}

// EntryName returns the full "param.typename" name n is filed under in
// its parent, and the param half alone. It fails only for the root, which
// has no parent and so no entry name.
func (n *Node) EntryName() (full, param string, ok bool) {
	if n.parent == nil {
		return "", "", false
	}
	for _, c := range n.parent.Children {
		if c.Node == n {
			p, _, ok2 := ParseEntryName(c.Name)
			if !ok2 {
				return c.Name, "", false
			}
			return c.Name, p, true
		}
	}
	return "", "", false
}

func defaultMode(k Kind) os.FileMode {
	switch k {
	case KindDir:
		return os.ModeDir | 0775
	case KindSymlink:
		return os.ModeSymlink | 0777
	default:
		return 0644
	}
}
