package namespace

import (
	"fmt"
	"strings"

	"github.com/anthropics/kotosynth/pkg/ugen"
	"github.com/anthropics/kotosynth/pkg/units"
)

// Tree owns a namespace root and its inode table.
type Tree struct {
	Root   *Node
	Inodes *InodeTable
}

// Build materializes root's current structure as a fresh namespace tree
// (spec §4.5): a directory per op, a file per scalar/table/pattern leaf,
// and a symlink for every occurrence of a shared node after its first.
// The caller must hold the graph's mutation lock, since Build reads each
// unit's Dump/Get.
func Build(root ugen.Node) *Tree {
	b := &builder{inodes: newInodeTable(), shared: ugen.ComputeSharedSet(root), canonical: map[ugen.Node]*Node{}}
	n := b.build(root, nil)
	b.inodes.setRoot(n)
	return &Tree{Root: n, Inodes: b.inodes}
}

type builder struct {
	inodes    *InodeTable
	shared    map[ugen.Node]int
	canonical map[ugen.Node]*Node
}

func (b *builder) build(n ugen.Node, parent *Node) *Node {
	if canon, ok := b.canonical[n]; ok {
		return b.buildSymlink(canon, parent)
	}

	dump := n.Dump(b.shared)
	var nd *Node
	if dump.IsLeaf {
		nd = b.buildLeaf(n, dump, parent)
	} else {
		nd = b.buildOp(n, dump, parent)
	}

	if _, ok := b.shared[n]; ok {
		b.canonical[n] = nd
	}
	return nd
}

func (b *builder) buildLeaf(n ugen.Node, d ugen.DumpNode, parent *Node) *Node {
	var name string
	var data []byte
	switch d.LeafKind {
	case ugen.LeafTable:
		name = "tab"
		data = []byte(units.FormatTable(d.Table))
	case ugen.LeafPattern:
		var b strings.Builder
		for _, m := range d.Pattern {
			b.WriteString(m)
			b.WriteByte('\n')
		}
		name = "pat"
		data = []byte(b.String())
	default:
		name = "val"
		data = []byte(ugen.FormatFloat(d.Number))
	}

	nd := &Node{
		Ug: n, parent: parent, Name: name, Data: data,
		Attr: Attr{Kind: KindFile, Size: uint64(len(data)), Mode: defaultMode(KindFile)},
	}
	b.inodes.insert(nd)
	return nd
}

func (b *builder) buildOp(n ugen.Node, d ugen.DumpNode, parent *Node) *Node {
	nd := &Node{Ug: n, parent: parent, Name: d.Op, Attr: Attr{Kind: KindDir, Mode: defaultMode(KindDir)}}
	b.inodes.insert(nd)

	for _, s := range d.Slots {
		b.attachSlot(n, nd, s.Name)
	}
	for i := range d.Variadic {
		b.attachSlot(n, nd, fmt.Sprintf("%s%d", d.VariadicBase, i))
	}
	return nd
}

// attachSlot fetches the actual child unit from parentUnit via Get, rather
// than trusting the DumpSlot's own Nested/Shared fields: Dump marks every
// occurrence of a shared node as a reference (spec §8's round-trip dump
// needs this so `def` bindings print once), but the namespace projection
// needs the opposite distinction -- first occurrence materializes fully,
// later ones become symlinks -- which b.canonical tracks independently.
func (b *builder) attachSlot(parentUnit ugen.Node, parentNode *Node, slotName string) {
	child, err := parentUnit.Get(slotName)
	if err != nil || child == nil {
		return
	}
	cn := b.build(child, parentNode)
	parentNode.Children = append(parentNode.Children, Child{Name: EntryName(slotName, cn.Name), Node: cn})
}

func (b *builder) buildSymlink(target, parent *Node) *Node {
	nd := &Node{Ug: target.Ug, parent: parent, Name: target.Name, Attr: Attr{Kind: KindSymlink, Mode: defaultMode(KindSymlink)}}
	b.inodes.insert(nd)
	nd.Link = RelativeLink(parent, target)
	nd.Attr.Size = uint64(len(nd.Link))
	return nd
}
