// Package units implements the unit catalogue (spec §4.3): oscillators,
// mixers, envelopes, filters, the sequencer, and table/pattern values.
// Every type here implements ugen.Node and embeds ugen.Base for its
// per-tick memo.
package units

import (
	"math"

	"github.com/anthropics/kotosynth/pkg/mtime"
	"github.com/anthropics/kotosynth/pkg/ugen"
)

// Pan reads a stereo source and a scalar pan in [-1, 1]; p > 0 attenuates
// left by (1-p), p < 0 attenuates right by (1-|p|).
type Pan struct {
	ugen.Base
	pan ugen.Node
	src ugen.Node
}

func NewPan(pan, src ugen.Node) *Pan { return &Pan{pan: pan, src: src} }

func (u *Pan) Walk(visit func(ugen.Node) bool) {
	if visit(u.pan) {
		u.pan.Walk(visit)
	}
	if visit(u.src) {
		u.src.Walk(visit)
	}
}

func (u *Pan) Dump(shared map[ugen.Node]int) ugen.DumpNode {
	return ugen.DumpNode{Op: "pan", Slots: []ugen.DumpSlot{
		ugen.Slot("pan", u.pan, shared),
		ugen.Slot("src", u.src, shared),
	}}
}

func (u *Pan) Proc(t mtime.Time) ugen.Signal {
	return u.Memo(t, func() ugen.Signal {
		sig := u.src.Proc(t)
		p := u.pan.Proc(t).L
		switch {
		case p > 0:
			return ugen.Signal{L: sig.L * (1 - p), R: sig.R}
		case p < 0:
			return ugen.Signal{L: sig.L, R: sig.R * (1 - math.Abs(p))}
		default:
			return sig
		}
	})
}

func (u *Pan) Get(name string) (ugen.Node, error) {
	switch name {
	case "pan":
		return u.pan, nil
	case "src":
		return u.src, nil
	}
	return nil, ugen.Unknown("pan", name)
}

func (u *Pan) GetStr(name string) (string, error) { return getStrViaGet(u, "pan", name) }

func (u *Pan) Set(name string, n ugen.Node) error {
	u.Lock()
	defer u.Unlock()
	switch name {
	case "pan":
		u.pan = n
	case "src":
		u.src = n
	default:
		return ugen.Unknown("pan", name)
	}
	return nil
}

func (u *Pan) SetStr(name, text string) error { return setStrAsConst(u, "pan", name, text) }

func (u *Pan) Clear(name string) {
	switch name {
	case "pan":
		_ = u.Set("pan", ugen.NewConst(0))
	case "src":
		_ = u.Set("src", ugen.NewConst(0))
	}
}

// Clip clamps both channels of src to [min, max].
type Clip struct {
	ugen.Base
	min, max ugen.Node
	src      ugen.Node
}

func NewClip(min, max, src ugen.Node) *Clip { return &Clip{min: min, max: max, src: src} }

func (u *Clip) Walk(visit func(ugen.Node) bool) {
	if visit(u.min) {
		u.min.Walk(visit)
	}
	if visit(u.max) {
		u.max.Walk(visit)
	}
	if visit(u.src) {
		u.src.Walk(visit)
	}
}

func (u *Clip) Dump(shared map[ugen.Node]int) ugen.DumpNode {
	return ugen.DumpNode{Op: "clip", Slots: []ugen.DumpSlot{
		ugen.Slot("min", u.min, shared),
		ugen.Slot("max", u.max, shared),
		ugen.Slot("src", u.src, shared),
	}}
}

func (u *Clip) Proc(t mtime.Time) ugen.Signal {
	return u.Memo(t, func() ugen.Signal {
		sig := u.src.Proc(t)
		lo, hi := u.min.Proc(t).L, u.max.Proc(t).L
		return ugen.Signal{L: clampf(sig.L, lo, hi), R: clampf(sig.R, lo, hi)}
	})
}

func (u *Clip) Get(name string) (ugen.Node, error) {
	switch name {
	case "min":
		return u.min, nil
	case "max":
		return u.max, nil
	case "src":
		return u.src, nil
	}
	return nil, ugen.Unknown("clip", name)
}

func (u *Clip) GetStr(name string) (string, error) { return getStrViaGet(u, "clip", name) }

func (u *Clip) Set(name string, n ugen.Node) error {
	u.Lock()
	defer u.Unlock()
	switch name {
	case "min":
		u.min = n
	case "max":
		u.max = n
	case "src":
		u.src = n
	default:
		return ugen.Unknown("clip", name)
	}
	return nil
}

func (u *Clip) SetStr(name, text string) error { return setStrAsConst(u, "clip", name, text) }

func (u *Clip) Clear(name string) {
	switch name {
	case "min", "max", "src":
		_ = u.Set(name, ugen.NewConst(0))
	}
}

// Offset adds v to both channels of src.
type Offset struct {
	ugen.Base
	val ugen.Node
	src ugen.Node
}

func NewOffset(val, src ugen.Node) *Offset { return &Offset{val: val, src: src} }

func (u *Offset) Walk(visit func(ugen.Node) bool) {
	if visit(u.val) {
		u.val.Walk(visit)
	}
	if visit(u.src) {
		u.src.Walk(visit)
	}
}

func (u *Offset) Dump(shared map[ugen.Node]int) ugen.DumpNode {
	return ugen.DumpNode{Op: "offset", Slots: []ugen.DumpSlot{
		ugen.Slot("val", u.val, shared),
		ugen.Slot("src", u.src, shared),
	}}
}

func (u *Offset) Proc(t mtime.Time) ugen.Signal {
	return u.Memo(t, func() ugen.Signal {
		sig := u.src.Proc(t)
		v := u.val.Proc(t).L
		return ugen.Signal{L: sig.L + v, R: sig.R + v}
	})
}

func (u *Offset) Get(name string) (ugen.Node, error) {
	switch name {
	case "val":
		return u.val, nil
	case "src":
		return u.src, nil
	}
	return nil, ugen.Unknown("offset", name)
}

func (u *Offset) GetStr(name string) (string, error) { return getStrViaGet(u, "offset", name) }

func (u *Offset) Set(name string, n ugen.Node) error {
	u.Lock()
	defer u.Unlock()
	switch name {
	case "val":
		u.val = n
	case "src":
		u.src = n
	default:
		return ugen.Unknown("offset", name)
	}
	return nil
}

func (u *Offset) SetStr(name, text string) error { return setStrAsConst(u, "offset", name, text) }

func (u *Offset) Clear(name string) {
	switch name {
	case "val", "src":
		_ = u.Set(name, ugen.NewConst(0))
	}
}

// Gain multiplies both channels of src by v.
type Gain struct {
	ugen.Base
	gain ugen.Node
	src  ugen.Node
}

func NewGain(gain, src ugen.Node) *Gain { return &Gain{gain: gain, src: src} }

func (u *Gain) Walk(visit func(ugen.Node) bool) {
	if visit(u.gain) {
		u.gain.Walk(visit)
	}
	if visit(u.src) {
		u.src.Walk(visit)
	}
}

func (u *Gain) Dump(shared map[ugen.Node]int) ugen.DumpNode {
	return ugen.DumpNode{Op: "gain", Slots: []ugen.DumpSlot{
		ugen.Slot("gain", u.gain, shared),
		ugen.Slot("src", u.src, shared),
	}}
}

func (u *Gain) Proc(t mtime.Time) ugen.Signal {
	return u.Memo(t, func() ugen.Signal {
		sig := u.src.Proc(t)
		g := u.gain.Proc(t).L
		return ugen.Signal{L: sig.L * g, R: sig.R * g}
	})
}

func (u *Gain) Get(name string) (ugen.Node, error) {
	switch name {
	case "gain":
		return u.gain, nil
	case "src":
		return u.src, nil
	}
	return nil, ugen.Unknown("gain", name)
}

func (u *Gain) GetStr(name string) (string, error) { return getStrViaGet(u, "gain", name) }

func (u *Gain) Set(name string, n ugen.Node) error {
	u.Lock()
	defer u.Unlock()
	switch name {
	case "gain":
		u.gain = n
	case "src":
		u.src = n
	default:
		return ugen.Unknown("gain", name)
	}
	return nil
}

func (u *Gain) SetStr(name, text string) error { return setStrAsConst(u, "gain", name, text) }

func (u *Gain) Clear(name string) {
	switch name {
	case "gain", "src":
		_ = u.Set(name, ugen.NewConst(0))
	}
}

// variadicMixer is the shared shape behind +, *, and out: an ordered list
// of sources, materialized as a variadic "src0", "src1", ... tail.
type variadicMixer struct {
	ugen.Base
	sources []ugen.Node
}

func (u *variadicMixer) Walk(visit func(ugen.Node) bool) {
	for _, s := range u.sources {
		if visit(s) {
			s.Walk(visit)
		}
	}
}

func (u *variadicMixer) variadicSlots(shared map[ugen.Node]int) []ugen.DumpSlot {
	u.Lock()
	srcs := append([]ugen.Node(nil), u.sources...)
	u.Unlock()
	out := make([]ugen.DumpSlot, len(srcs))
	for i, s := range srcs {
		out[i] = ugen.VariadicMember("src", i, s, shared)
	}
	return out
}

func (u *variadicMixer) get(name string) (ugen.Node, error) {
	u.Lock()
	defer u.Unlock()
	idx, ok := srcIndex(name)
	if !ok || idx >= len(u.sources) {
		return nil, ugen.Unknown("", name)
	}
	return u.sources[idx], nil
}

func (u *variadicMixer) set(name string, n ugen.Node) error {
	u.Lock()
	defer u.Unlock()
	idx, ok := srcIndex(name)
	if !ok {
		return ugen.Unknown("", name)
	}
	for len(u.sources) <= idx {
		u.sources = append(u.sources, ugen.NewConst(0))
	}
	u.sources[idx] = n
	return nil
}

func (u *variadicMixer) clear(name string) {
	u.Lock()
	defer u.Unlock()
	idx, ok := srcIndex(name)
	if !ok || idx >= len(u.sources) {
		return
	}
	u.sources = append(u.sources[:idx], u.sources[idx+1:]...)
}

// Add is the "+" op: elementwise sum of any number of sources.
type Add struct{ variadicMixer }

func NewAdd(sources ...ugen.Node) *Add { return &Add{variadicMixer{sources: sources}} }

func (u *Add) Dump(shared map[ugen.Node]int) ugen.DumpNode {
	return ugen.DumpNode{Op: "+", VariadicBase: "src", Variadic: u.variadicSlots(shared)}
}

func (u *Add) Proc(t mtime.Time) ugen.Signal {
	return u.Memo(t, func() ugen.Signal {
		srcs := u.sources
		var l, r float64
		for _, s := range srcs {
			sig := s.Proc(t)
			l += sig.L
			r += sig.R
		}
		return ugen.Signal{L: l, R: r}
	})
}

func (u *Add) Get(name string) (ugen.Node, error)   { return u.get(name) }
func (u *Add) GetStr(name string) (string, error)   { return getStrViaGet(u, "+", name) }
func (u *Add) Set(name string, n ugen.Node) error   { return u.set(name, n) }
func (u *Add) SetStr(name, text string) error       { return setStrAsConst(u, "+", name, text) }
func (u *Add) Clear(name string)                    { u.clear(name) }

// Multiply is the "*" op: elementwise product of any number of sources.
type Multiply struct{ variadicMixer }

func NewMultiply(sources ...ugen.Node) *Multiply { return &Multiply{variadicMixer{sources: sources}} }

func (u *Multiply) Dump(shared map[ugen.Node]int) ugen.DumpNode {
	return ugen.DumpNode{Op: "*", VariadicBase: "src", Variadic: u.variadicSlots(shared)}
}

func (u *Multiply) Proc(t mtime.Time) ugen.Signal {
	return u.Memo(t, func() ugen.Signal {
		srcs := u.sources
		l, r := 1.0, 1.0
		for _, s := range srcs {
			sig := s.Proc(t)
			l *= sig.L
			r *= sig.R
		}
		return ugen.Signal{L: l, R: r}
	})
}

func (u *Multiply) Get(name string) (ugen.Node, error) { return u.get(name) }
func (u *Multiply) GetStr(name string) (string, error) { return getStrViaGet(u, "*", name) }
func (u *Multiply) Set(name string, n ugen.Node) error { return u.set(name, n) }
func (u *Multiply) SetStr(name, text string) error     { return setStrAsConst(u, "*", name, text) }
func (u *Multiply) Clear(name string)                  { u.clear(name) }

// Out sums sources and scales by vol. It is the canonical root unit.
type Out struct {
	variadicMixer
	vol ugen.Node
}

func NewOut(vol ugen.Node, sources ...ugen.Node) *Out {
	return &Out{variadicMixer: variadicMixer{sources: sources}, vol: vol}
}

func (u *Out) Walk(visit func(ugen.Node) bool) {
	if visit(u.vol) {
		u.vol.Walk(visit)
	}
	u.variadicMixer.Walk(visit)
}

func (u *Out) Dump(shared map[ugen.Node]int) ugen.DumpNode {
	return ugen.DumpNode{
		Op:           "out",
		Slots:        []ugen.DumpSlot{ugen.Slot("vol", u.vol, shared)},
		VariadicBase: "src",
		Variadic:     u.variadicSlots(shared),
	}
}

func (u *Out) Proc(t mtime.Time) ugen.Signal {
	return u.Memo(t, func() ugen.Signal {
		srcs := u.sources
		var l, r float64
		for _, s := range srcs {
			sig := s.Proc(t)
			l += sig.L
			r += sig.R
		}
		vol := u.vol.Proc(t).L
		return ugen.Signal{L: l * vol, R: r * vol}
	})
}

func (u *Out) Get(name string) (ugen.Node, error) {
	if name == "vol" {
		return u.vol, nil
	}
	return u.get(name)
}

func (u *Out) GetStr(name string) (string, error) { return getStrViaGet(u, "out", name) }

func (u *Out) Set(name string, n ugen.Node) error {
	if name == "vol" {
		u.Lock()
		u.vol = n
		u.Unlock()
		return nil
	}
	return u.set(name, n)
}

func (u *Out) SetStr(name, text string) error { return setStrAsConst(u, "out", name, text) }

func (u *Out) Clear(name string) {
	if name == "vol" {
		u.Lock()
		u.vol = ugen.NewConst(0)
		u.Unlock()
		return
	}
	u.clear(name)
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
