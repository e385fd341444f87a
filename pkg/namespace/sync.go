package namespace

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/anthropics/kotosynth/pkg/mtime"
	"github.com/anthropics/kotosynth/pkg/ugen"
)

// Syncer reconciles namespace edits (file writes, mkdir, symlink, rename,
// unlink) back into the unit graph they describe, the way the original
// implementation's sync_file/sync_directory/sync_symlink/sync_ug did.
// pkg/fsadapter calls every method here while holding Graph's mutation
// lock; Syncer itself holds none.
type Syncer struct {
	Tree  *Tree
	Graph *ugen.Graph
	// Clock is the audio driver's live Time, read (never advanced) here to
	// supply the sample rate and musical position a freshly built seq or
	// delay needs. Safe to dereference only while the caller holds Graph's
	// mutation lock, since that's the same lock the render loop's TryLock
	// serializes Advance against.
	Clock *mtime.Time
	Log   zerolog.Logger
}

// SyncFile reconciles a regular file's current Data into its parent
// unit's slot (spec §4.6): an empty (or all-whitespace) write clears the
// slot back to its default, anything else is parsed by the slot's own
// SetStr.
func (s *Syncer) SyncFile(n *Node) error {
	_, param, ok := n.EntryName()
	if !ok || n.parent == nil || n.parent.Ug == nil {
		return nil
	}
	text := strings.TrimSuffix(string(n.Data), "\n")
	if strings.TrimSpace(text) == "" {
		n.parent.Ug.Clear(param)
		return nil
	}
	if err := n.parent.Ug.SetStr(param, text); err != nil {
		s.Log.Warn().Err(err).Str("param", param).Msg("namespace: write rejected")
		return err
	}
	return nil
}

// SyncDirectory (re)builds n's unit from its canonical skeleton and wires
// it into its parent's slot: a freshly mkdir'd directory builds for the
// first time, and a directory moved or renamed rebuilds fresh rather than
// reusing its old unit, recursively re-syncing its children into the new
// instance. This mirrors sync_directory's unconditional call to
// build_ug_from_node for any known-op typename regardless of whether the
// node is already mapped (original_source/src/kotonode.rs:318-335).
func (s *Syncer) SyncDirectory(n *Node) error {
	if !KnownOp(n.Name) {
		return fmt.Errorf("namespace: %q is not a known unit type", n.Name)
	}
	unit, err := BuildCanonical(n.Name, *s.Clock)
	if err != nil {
		return err
	}
	n.Ug = unit

	for _, c := range n.Children {
		if err := s.syncChild(c.Node); err != nil {
			s.Log.Warn().Err(err).Str("child", c.Name).Msg("namespace: child resync failed")
			continue
		}
		// A file child has already written its slot through SyncFile.
		if param, _, ok := ParseEntryName(c.Name); ok && c.Node.Attr.Kind != KindFile {
			_ = unit.Set(param, c.Node.Ug)
		}
	}

	_, param, ok := n.EntryName()
	if !ok || n.parent == nil || n.parent.Ug == nil {
		return nil
	}
	s.Log.Debug().Str("type", n.Name).Str("param", param).Msg("namespace: built canonical unit")
	return n.parent.Ug.Set(param, unit)
}

// syncChild re-syncs one child of a directory being rebuilt, dispatching
// by kind the way sync_ug does (kotonode.rs:398-407): a nested directory
// rebuilds recursively, a file reparses its current text, a symlink
// re-resolves against its (unchanged) parent.
func (s *Syncer) syncChild(n *Node) error {
	switch n.Attr.Kind {
	case KindDir:
		return s.SyncDirectory(n)
	case KindSymlink:
		return s.SyncSymlink(n)
	default:
		return s.SyncFile(n)
	}
}

// SyncSymlink resolves n.Link against n's parent and wires the resolved
// node's unit into the parent's slot (spec §4.7's symlink operation,
// which -- unlike the older kfs.rs variant this is grounded on -- always
// calls through to sync_ug so the freshly created symlink takes effect
// immediately rather than waiting for the next mutation).
func (s *Syncer) SyncSymlink(n *Node) error {
	_, param, ok := n.EntryName()
	if !ok || n.parent == nil || n.parent.Ug == nil {
		return nil
	}
	target, ok := ResolveSymlink(n.parent, n.Link)
	if !ok || target.Ug == nil {
		return fmt.Errorf("namespace: symlink target %q does not resolve to a mapped unit", n.Link)
	}
	n.Ug = target.Ug
	return n.parent.Ug.Set(param, target.Ug)
}

// SyncRemove clears n's slot on its parent unit back to a default and
// detaches n (and, for a directory, its whole subtree) from the tree and
// inode table, for rmdir/unlink.
func (s *Syncer) SyncRemove(n *Node) {
	if _, param, ok := n.EntryName(); ok && n.parent != nil && n.parent.Ug != nil {
		n.parent.Ug.Clear(param)
	}
	s.detach(n)
}

func (s *Syncer) detach(n *Node) {
	if n.parent != nil {
		for i, c := range n.parent.Children {
			if c.Node == n {
				n.parent.Children = append(n.parent.Children[:i], n.parent.Children[i+1:]...)
				break
			}
		}
	}
	s.Tree.Inodes.Forget(n)
}

// SyncRename moves n from oldParent (filed as oldName) to newParent
// (filed as newName), clearing the old parent's slot and, when the new
// parent is itself a mapped unit, resyncing n into the new slot (spec
// §4.7's rename, generalized beyond the original same-parent-only
// implementation to support moving across directories). A renamed
// directory whose type is a known op goes through SyncDirectory, the
// same rebuild-and-recursively-resync path a fresh mkdir takes, rather
// than just re-wiring its existing unit reference.
func (s *Syncer) SyncRename(n *Node, oldParent *Node, oldName string, newParent *Node, newName string) error {
	if oldParent != nil {
		if param, _, ok := ParseEntryName(oldName); ok && oldParent.Ug != nil {
			oldParent.Ug.Clear(param)
		}
		for i, c := range oldParent.Children {
			if c.Node == n {
				oldParent.Children = append(oldParent.Children[:i], oldParent.Children[i+1:]...)
				break
			}
		}
	}

	n.parent = newParent
	newParent.Children = append(newParent.Children, Child{Name: newName, Node: n})

	if newParent.Ug == nil {
		return nil
	}
	if n.Attr.Kind == KindDir {
		return s.SyncDirectory(n)
	}
	if n.Ug == nil {
		return nil
	}
	param, _, ok := ParseEntryName(newName)
	if !ok {
		return nil
	}
	return newParent.Ug.Set(param, n.Ug)
}
