package units

import (
	"github.com/anthropics/kotosynth/pkg/mtime"
	"github.com/anthropics/kotosynth/pkg/ugen"
)

func secToSamples(sec float64, sampleRate uint) uint64 {
	return uint64(float64(sampleRate) * sec)
}

// AdsrEg is the attack/decay/sustain/release envelope generator. Its state
// machine follows the gate AdsrEg.SetGate drives; Proc advances eplaced by
// one sample every tick regardless of state.
type AdsrEg struct {
	ugen.Base
	a, d, s, r ugen.Node
	state      ugen.GateState
	eplaced    uint64
}

func NewAdsrEg(a, d, s, r ugen.Node) *AdsrEg {
	return &AdsrEg{a: a, d: d, s: s, r: r, state: ugen.GateNone}
}

func (u *AdsrEg) Walk(visit func(ugen.Node) bool) {
	if visit(u.a) {
		u.a.Walk(visit)
	}
	if visit(u.d) {
		u.d.Walk(visit)
	}
	if visit(u.s) {
		u.s.Walk(visit)
	}
	if visit(u.r) {
		u.r.Walk(visit)
	}
}

func (u *AdsrEg) Dump(shared map[ugen.Node]int) ugen.DumpNode {
	return ugen.DumpNode{Op: "adsr", Slots: []ugen.DumpSlot{
		ugen.Slot("a", u.a, shared),
		ugen.Slot("d", u.d, shared),
		ugen.Slot("s", u.s, shared),
		ugen.Slot("r", u.r, shared),
	}}
}

func (u *AdsrEg) Proc(t mtime.Time) ugen.Signal {
	return u.Memo(t, func() ugen.Signal {
		a := secToSamples(u.a.Proc(t).L, t.SampleRate)
		d := secToSamples(u.d.Proc(t).L, t.SampleRate)
		s := u.s.Proc(t).L
		r := secToSamples(u.r.Proc(t).L, t.SampleRate)
		state := u.state
		elapsed := u.eplaced

		var v float64
		switch state {
		case ugen.GateAttack:
			if elapsed < a {
				v = float64(elapsed) / float64(a)
			} else {
				v = 1.0
				state = ugen.GateDecay
				elapsed = 0
			}
		case ugen.GateDecay:
			if elapsed < d {
				v = 1.0 - (1.0-s)*(float64(elapsed)/float64(d))
			} else {
				v = s
				state = ugen.GateSustain
				elapsed = 0
			}
		case ugen.GateSustain:
			v = s
		case ugen.GateRelease:
			if elapsed < r {
				v = s - s*(float64(elapsed)/float64(r))
			} else {
				v = 0.0
				state = ugen.GateNone
				elapsed = 0
			}
		default:
			v = 0.0
		}

		u.state = state
		u.eplaced = elapsed + 1

		return ugen.Signal{L: v, R: v}
	})
}

// SetGate implements ugen.Envelope: the sequencer drives Attack on note-on
// and Release on note-off.
func (u *AdsrEg) SetGate(state ugen.GateState, elapsed uint64) {
	u.Lock()
	u.state = state
	u.eplaced = elapsed
	u.Unlock()
}

func (u *AdsrEg) Get(name string) (ugen.Node, error) {
	switch name {
	case "a":
		return u.a, nil
	case "d":
		return u.d, nil
	case "s":
		return u.s, nil
	case "r":
		return u.r, nil
	}
	return nil, ugen.Unknown("adsr", name)
}

func (u *AdsrEg) GetStr(name string) (string, error) { return getStrViaGet(u, "adsr", name) }

func (u *AdsrEg) Set(name string, n ugen.Node) error {
	u.Lock()
	defer u.Unlock()
	switch name {
	case "a":
		u.a = n
	case "d":
		u.d = n
	case "s":
		u.s = n
	case "r":
		u.r = n
	default:
		return ugen.Unknown("adsr", name)
	}
	return nil
}

func (u *AdsrEg) SetStr(name, text string) error { return setStrAsConst(u, "adsr", name, text) }

func (u *AdsrEg) Clear(name string) {
	switch name {
	case "a", "d", "s", "r":
		_ = u.Set(name, ugen.NewConst(0))
	}
}

// Trigger is the "trig" op: an envelope and a variadic tail of auxiliary
// envelopes sharing one gate. SetGate broadcasts to every envelope; Proc
// ticks the whole group but returns only the primary's value.
type Trigger struct {
	ugen.Base
	eg  ugen.Node
	egs []ugen.Node
}

// NewTrigger builds a trig node. The patch evaluator's oneshot op also
// builds its node with NewTrigger; the distinction (forcing sustain to 0 on the wired adsr children) is made by
// the patch evaluator when it constructs the envelopes, not by this type.
func NewTrigger(eg ugen.Node, egs ...ugen.Node) *Trigger {
	return &Trigger{eg: eg, egs: egs}
}

func (u *Trigger) Walk(visit func(ugen.Node) bool) {
	if visit(u.eg) {
		u.eg.Walk(visit)
	}
	for _, e := range u.egs {
		if visit(e) {
			e.Walk(visit)
		}
	}
}

func (u *Trigger) Dump(shared map[ugen.Node]int) ugen.DumpNode {
	u.Lock()
	egs := append([]ugen.Node(nil), u.egs...)
	u.Unlock()
	variadic := make([]ugen.DumpSlot, len(egs))
	for i, e := range egs {
		variadic[i] = ugen.VariadicMember("src", i, e, shared)
	}
	return ugen.DumpNode{
		Op:           "trig",
		Slots:        []ugen.DumpSlot{ugen.Slot("eg", u.eg, shared)},
		VariadicBase: "src",
		Variadic:     variadic,
	}
}

func (u *Trigger) Proc(t mtime.Time) ugen.Signal {
	return u.Memo(t, func() ugen.Signal {
		for _, e := range u.egs {
			e.Proc(t)
		}
		return u.eg.Proc(t)
	})
}

// SetGate broadcasts state to the primary envelope and every aggregated one.
func (u *Trigger) SetGate(state ugen.GateState, elapsed uint64) {
	u.Lock()
	eg := u.eg
	egs := append([]ugen.Node(nil), u.egs...)
	u.Unlock()
	if e, ok := eg.(ugen.Envelope); ok {
		e.SetGate(state, elapsed)
	}
	for _, n := range egs {
		if e, ok := n.(ugen.Envelope); ok {
			e.SetGate(state, elapsed)
		}
	}
}

func (u *Trigger) Get(name string) (ugen.Node, error) {
	if name == "eg" {
		return u.eg, nil
	}
	u.Lock()
	defer u.Unlock()
	idx, ok := srcIndex(name)
	if !ok || idx >= len(u.egs) {
		return nil, ugen.Unknown("trig", name)
	}
	return u.egs[idx], nil
}

func (u *Trigger) GetStr(name string) (string, error) { return getStrViaGet(u, "trig", name) }

func (u *Trigger) Set(name string, n ugen.Node) error {
	u.Lock()
	defer u.Unlock()
	if name == "eg" {
		u.eg = n
		return nil
	}
	idx, ok := srcIndex(name)
	if !ok {
		return ugen.Unknown("trig", name)
	}
	for len(u.egs) <= idx {
		u.egs = append(u.egs, ugen.NewConst(0))
	}
	u.egs[idx] = n
	return nil
}

func (u *Trigger) SetStr(name, text string) error { return setStrAsConst(u, "trig", name, text) }

func (u *Trigger) Clear(name string) {
	u.Lock()
	defer u.Unlock()
	if name == "eg" {
		return
	}
	idx, ok := srcIndex(name)
	if !ok || idx >= len(u.egs) {
		return
	}
	u.egs = append(u.egs[:idx], u.egs[idx+1:]...)
}
