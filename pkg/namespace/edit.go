package namespace

// NewFile creates an initially empty, unmapped regular file named
// entryName under parent and attaches it to the tree, for the create()
// operation (spec §4.7). Its Name (the half of entryName after the dot)
// is recorded even though no unit backs it yet, so a later write that
// fails to resolve a slot still has a sensible typename to report.
func (tr *Tree) NewFile(parent *Node, entryName string) *Node {
	nd := &Node{parent: parent, Attr: Attr{Kind: KindFile, Mode: defaultMode(KindFile)}}
	if _, typename, ok := ParseEntryName(entryName); ok {
		nd.Name = typename
	}
	tr.Inodes.insert(nd)
	parent.Children = append(parent.Children, Child{Name: entryName, Node: nd})
	return nd
}

// NewDir creates an initially unmapped directory named entryName (whose
// typename half is typename) under parent, for mkdir. The caller must
// follow with SyncDirectory to build and wire its unit.
func (tr *Tree) NewDir(parent *Node, entryName, typename string) *Node {
	nd := &Node{parent: parent, Name: typename, Attr: Attr{Kind: KindDir, Mode: defaultMode(KindDir)}}
	tr.Inodes.insert(nd)
	parent.Children = append(parent.Children, Child{Name: entryName, Node: nd})
	return nd
}

// NewSymlink creates a symlink named entryName under parent pointing at
// the relative path link, for the symlink() operation. The caller must
// follow with SyncSymlink to resolve the target and wire its unit.
func (tr *Tree) NewSymlink(parent *Node, entryName, link string) *Node {
	nd := &Node{parent: parent, Attr: Attr{Kind: KindSymlink, Mode: defaultMode(KindSymlink)}, Link: link}
	if _, typename, ok := ParseEntryName(entryName); ok {
		nd.Name = typename
	}
	nd.Attr.Size = uint64(len(link))
	tr.Inodes.insert(nd)
	parent.Children = append(parent.Children, Child{Name: entryName, Node: nd})
	return nd
}

// Detach removes child from parent's children and forgets its inode
// subtree without touching any unit slot. Used to roll back a create/
// mkdir/symlink whose sync step failed.
func (tr *Tree) Detach(parent, child *Node) {
	for i, c := range parent.Children {
		if c.Node == child {
			parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
			break
		}
	}
	tr.Inodes.Forget(child)
}
