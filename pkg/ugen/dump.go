package ugen

import "fmt"

// LeafKind distinguishes the three flavors of leaf value a Dump can
// produce: a bare number, a table's contents, or a pattern's messages.
type LeafKind int

const (
	LeafNumber LeafKind = iota
	LeafTable
	LeafPattern
)

// DumpNode is a structural description of a unit (or leaf value), produced
// by Node.Dump and consumed by both the s-expression printer and the
// namespace projector.
type DumpNode struct {
	// Leaf node.
	IsLeaf   bool
	LeafKind LeafKind
	Number   float64
	Table    []float64
	Pattern  []string

	// Op node (IsLeaf == false).
	Op    string
	Slots []DumpSlot

	// Variadic tail: present when VariadicBase != "". Each element becomes
	// a namespace entry named VariadicBase+index (src0, src1, ...); each
	// is itself a DumpSlot so a variadic member can be a shared reference
	// just like a fixed slot.
	VariadicBase string
	Variadic     []DumpSlot
}

// DumpSlot is one fixed, named input slot on an op.
type DumpSlot struct {
	Name string

	// Shared is true when this slot's node is in the dump's shared set
	// (every occurrence, the first included); Index identifies it and
	// Node is the shared node's handle. Nested is valid only when Shared
	// is false.
	Shared bool
	Index  int
	Node   Node
	Nested *DumpNode
}

// Leaf builds a numeric leaf DumpNode.
func Leaf(v float64) DumpNode { return DumpNode{IsLeaf: true, LeafKind: LeafNumber, Number: v} }

// TableLeaf builds a table-contents leaf DumpNode.
func TableLeaf(vs []float64) DumpNode {
	return DumpNode{IsLeaf: true, LeafKind: LeafTable, Table: vs}
}

// PatternLeaf builds a pattern-contents leaf DumpNode.
func PatternLeaf(msgs []string) DumpNode {
	return DumpNode{IsLeaf: true, LeafKind: LeafPattern, Pattern: msgs}
}

// Slot builds a named slot: a shared reference when child is in shared,
// otherwise a nested slot from the child's own dump.
func Slot(name string, child Node, shared map[Node]int) DumpSlot {
	if idx, ok := shared[child]; ok {
		return DumpSlot{Name: name, Shared: true, Index: idx, Node: child}
	}
	d := child.Dump(shared)
	return DumpSlot{Name: name, Nested: &d}
}

// VariadicMember builds one element of a variadic tail (src0, src1, ...).
func VariadicMember(basename string, idx int, child Node, shared map[Node]int) DumpSlot {
	name := fmt.Sprintf("%s%d", basename, idx)
	if sidx, ok := shared[child]; ok {
		return DumpSlot{Name: name, Shared: true, Index: sidx, Node: child}
	}
	d := child.Dump(shared)
	return DumpSlot{Name: name, Nested: &d}
}
