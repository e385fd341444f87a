// Package ugen defines the unit-generator DAG: the Node/Operate trait
// surface every oscillator, filter, envelope and mixer in pkg/units
// implements, plus shared-node detection and per-tick memoization.
package ugen

import (
	"sync"

	"github.com/anthropics/kotosynth/pkg/mtime"
)

// Signal is a stereo sample pair.
type Signal struct {
	L, R float64
}

// Node is the fundamental DAG element. Every unit in pkg/units implements
// it. Node identity is reference identity: two Node values compare equal
// (with ==) iff they point at the same underlying unit.
type Node interface {
	// Walk invokes visit on each direct input. visit returns whether the
	// caller should recurse into that input's own inputs.
	Walk(visit func(Node) bool)

	// Dump produces this node's structural description. shared maps nodes
	// that appear more than once in the current traversal to the slot
	// index of their canonical (first) occurrence.
	Dump(shared map[Node]int) DumpNode

	// Proc computes this tick's output, consulting the per-node memo so a
	// node visited more than once in a single pull is computed once.
	Proc(t mtime.Time) Signal

	Operate
}

// Operate is the four-method parameter protocol the namespace layer uses
// to read and write a unit's slots by name.
type Operate interface {
	Get(name string) (Node, error)
	GetStr(name string) (string, error)
	Set(name string, n Node) error
	SetStr(name string, text string) error
	Clear(name string)
}

// Base is embedded by every concrete unit. It provides the per-tick memo
// (invariant: a node's Proc body runs at most once per tick) behind a
// mutex, since the file-system thread may read a unit's state (Dump,
// Get/GetStr) while the audio thread is mid-render.
type Base struct {
	mu        sync.Mutex
	lastTick  uint64
	haveTick  bool
	lastValue Signal
}

// Memo returns the memoized signal for t.Tick if one was already computed
// this tick, otherwise calls compute, stores, and returns its result.
func (b *Base) Memo(t mtime.Time, compute func() Signal) Signal {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.haveTick && b.lastTick == t.Tick {
		return b.lastValue
	}
	b.lastValue = compute()
	b.lastTick = t.Tick
	b.haveTick = true
	return b.lastValue
}

// Lock/Unlock expose Base's mutex directly for units whose Get/Set need to
// guard more than the memo (e.g. envelope gate state).
func (b *Base) Lock()   { b.mu.Lock() }
func (b *Base) Unlock() { b.mu.Unlock() }

// Oscillator is the extra capability spec §3 grants the Oscillator node
// variant: it accepts a frequency input, settable independent of its
// other slots. phase and seq reach through this to retune whatever
// concrete oscillator they wrap.
type Oscillator interface {
	Node
	SetFreq(n Node)
	Freq() Node
}

// GateState is the Attack/Decay/Sustain/Release/None state an Envelope
// node's gate carries (spec §3, §4.3).
type GateState int

const (
	GateNone GateState = iota
	GateAttack
	GateDecay
	GateSustain
	GateRelease
)

func (s GateState) String() string {
	switch s {
	case GateAttack:
		return "attack"
	case GateDecay:
		return "decay"
	case GateSustain:
		return "sustain"
	case GateRelease:
		return "release"
	default:
		return "none"
	}
}

// Envelope is the extra capability the Envelope node variant grants: a
// gate that the sequencer (or anything else) can drive directly.
type Envelope interface {
	Node
	SetGate(state GateState, elapsed uint64)
}
