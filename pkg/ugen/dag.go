package ugen

import "sync"

// ComputeSharedSet walks the DAG rooted at root and returns the set of nodes
// reachable by more than one path, mapped to a stable slot index assigned
// in first-encounter (depth-first, pre-order) order. Dump and the namespace
// projector both use this: a node in the shared set gets one canonical
// materialization and every other reference becomes a symlink/shared-slot
// pointing at it.
//
// The traversal only recurses into a node's own inputs the first time that
// node is reached; later encounters are counted but not re-walked, so a
// pathological diamond-of-diamonds graph costs one pass over the node set
// rather than blowing up combinatorially. This slightly under-counts how
// many distinct paths reach a deeply shared node, but the Dump/namespace
// code only ever asks "is this node shared" and "what's its canonical
// index", both of which this traversal answers exactly.
func ComputeSharedSet(root Node) map[Node]int {
	counts := map[Node]int{}
	mark := func(n Node) bool {
		counts[n]++
		return counts[n] == 1
	}
	if mark(root) {
		root.Walk(mark)
	}

	shared := map[Node]int{}
	idx := 0
	visited := map[Node]bool{}
	var assign func(n Node) bool
	assign = func(n Node) bool {
		if visited[n] {
			return false
		}
		visited[n] = true
		if counts[n] > 1 {
			shared[n] = idx
			idx++
		}
		return true
	}
	if assign(root) {
		root.Walk(assign)
	}
	return shared
}

// Graph owns the DAG's root and the single mutation lock that every
// structural change (Set/SetStr/Clear, and the namespace operations that
// wrap them) must hold. The audio render thread only ever needs a read of
// the current root, which is why it locks with TryLock: a file-system
// mutation in flight just means this tick's render skips and re-reads the
// graph next tick rather than blocking real-time audio.
type Graph struct {
	mu   sync.Mutex
	root Node
}

// NewGraph wraps root as the DAG's output unit.
func NewGraph(root Node) *Graph {
	return &Graph{root: root}
}

// Root returns the current output node. Callers that only read (Dump,
// Walk, Proc) don't need the mutation lock; Base's own memo already
// guards concurrent Proc/Get access to a single node's state.
func (g *Graph) Root() Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.root
}

// SetRoot replaces the output unit.
func (g *Graph) SetRoot(n Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.root = n
}

// Lock acquires the mutation lock for a file-system write (create, rename,
// write, unlink, ...). Blocking here is fine: FUSE requests are already
// serialized per the kernel's own request queue.
func (g *Graph) Lock() { g.mu.Lock() }

// Unlock releases the mutation lock.
func (g *Graph) Unlock() { g.mu.Unlock() }

// TryLock attempts to acquire the mutation lock without blocking. The
// audio thread calls this once per render frame; on failure it re-uses the
// previous frame's render rather than stalling the real-time callback.
func (g *Graph) TryLock() bool { return g.mu.TryLock() }

// RootLocked returns the current output node without acquiring the
// mutation lock. Callers must already hold it via Lock or a successful
// TryLock; sync.Mutex isn't reentrant, so calling Root instead here would
// deadlock.
func (g *Graph) RootLocked() Node { return g.root }
