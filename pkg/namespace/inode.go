package namespace

import "sync"

// InodeTable assigns and looks up the inode numbers FUSE getattr/lookup
// calls need. Root is always inode 1; every other node gets the next
// number from a counter that starts at 2. Build allocates the root's
// number before pinning it to 1, so in a built tree the first non-root
// node is 3.
type InodeTable struct {
	mu     sync.Mutex
	nodes  map[uint64]*Node
	nextNo uint64
}

func newInodeTable() *InodeTable {
	return &InodeTable{nodes: map[uint64]*Node{}, nextNo: 2}
}

func (t *InodeTable) alloc(n *Node) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	ino := t.nextNo
	t.nextNo++
	t.nodes[ino] = n
	return ino
}

func (t *InodeTable) insert(n *Node) {
	n.Attr.Ino = t.alloc(n)
}

func (t *InodeTable) setRoot(n *Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.nodes, n.Attr.Ino)
	n.Attr.Ino = 1
	t.nodes[1] = n
}

// Lookup returns the node with the given inode number.
func (t *InodeTable) Lookup(ino uint64) (*Node, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.nodes[ino]
	return n, ok
}

// Forget drops ino and the subtree rooted at its node from the table
// (unlink/rmdir); the caller is responsible for detaching the node from
// its parent's Children first.
func (t *InodeTable) Forget(n *Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.forget(n)
}

func (t *InodeTable) forget(n *Node) {
	delete(t.nodes, n.Attr.Ino)
	for _, c := range n.Children {
		t.forget(c.Node)
	}
}
