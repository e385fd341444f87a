package units

import (
	"math"
	"math/rand"

	"github.com/anthropics/kotosynth/pkg/mtime"
	"github.com/anthropics/kotosynth/pkg/ugen"
)

// phaseOsc is the shared shape of sine/tri/saw: a phase accumulator
// driven by a freq input, offset by init_ph. wave computes the bipolar
// output from init_ph plus the accumulated phase, which is never wrapped
// here (tri and saw reduce it modulo 1 themselves). Pulse, which adds a
// duty slot, is a separate type.
type phaseOsc struct {
	ugen.Base
	op     string
	initPh ugen.Node
	freq   ugen.Node
	ph     float64
	scale  float64 // phase advances by freq/(sampleRate*scale) per tick
	wave   func(x float64) float64
}

func newPhaseOsc(op string, initPh, freq ugen.Node, scale float64, wave func(float64) float64) *phaseOsc {
	return &phaseOsc{op: op, initPh: initPh, freq: freq, scale: scale, wave: wave}
}

func (u *phaseOsc) Walk(visit func(ugen.Node) bool) {
	if visit(u.initPh) {
		u.initPh.Walk(visit)
	}
	if visit(u.freq) {
		u.freq.Walk(visit)
	}
}

func (u *phaseOsc) baseSlots(shared map[ugen.Node]int) []ugen.DumpSlot {
	return []ugen.DumpSlot{
		ugen.Slot("init_ph", u.initPh, shared),
		ugen.Slot("freq", u.freq, shared),
	}
}

func (u *phaseOsc) Dump(shared map[ugen.Node]int) ugen.DumpNode {
	return ugen.DumpNode{Op: u.op, Slots: u.baseSlots(shared)}
}

func (u *phaseOsc) Proc(t mtime.Time) ugen.Signal {
	return u.Memo(t, func() ugen.Signal {
		ph := u.initPh.Proc(t).L + u.ph
		phDiff := float64(t.SampleRate) * u.scale
		u.ph += u.freq.Proc(t).L / phDiff
		v := u.wave(ph)
		return ugen.Signal{L: v, R: v}
	})
}

func (u *phaseOsc) Get(name string) (ugen.Node, error) {
	switch name {
	case "init_ph":
		return u.initPh, nil
	case "freq":
		return u.freq, nil
	}
	return nil, ugen.Unknown(u.op, name)
}

func (u *phaseOsc) GetStr(name string) (string, error) { return getStrViaGet(u, u.op, name) }

func (u *phaseOsc) Set(name string, n ugen.Node) error {
	u.Lock()
	defer u.Unlock()
	switch name {
	case "init_ph":
		u.initPh = n
	case "freq":
		u.freq = n
	default:
		return ugen.Unknown(u.op, name)
	}
	return nil
}

func (u *phaseOsc) SetStr(name, text string) error { return setStrAsConst(u, u.op, name, text) }

func (u *phaseOsc) Clear(name string) {
	switch name {
	case "init_ph", "freq":
		_ = u.Set(name, ugen.NewConst(0))
	}
}

func (u *phaseOsc) SetFreq(n ugen.Node) {
	u.Lock()
	u.freq = n
	u.Unlock()
}

func (u *phaseOsc) Freq() ugen.Node {
	u.Lock()
	defer u.Unlock()
	return u.freq
}

func sineWave(ph float64) float64 { return math.Sin(ph) }

func triWave(ph float64) float64 {
	x := math.Mod(ph, 1.0)
	if x < 0 {
		x += 1.0
	}
	switch {
	case x >= 3.0/4.0:
		return 4.0*x - 4.0
	case x >= 1.0/4.0:
		return -4.0*x + 2.0
	default:
		return 4.0 * x
	}
}

func sawWave(ph float64) float64 {
	x := math.Mod(ph, 1.0)
	if x < 0 {
		x += 1.0
	}
	if x >= 0.5 {
		return 2.0*x - 2.0
	}
	return 2.0 * x
}

// Sine is a sine-wave phase-accumulator oscillator; phase advances by
// freq/(sampleRate*pi) per tick (spec §4.3's pi scale), output is
// sin(init_ph + ph).
type Sine struct{ *phaseOsc }

func NewSine(initPh, freq ugen.Node) *Sine {
	return &Sine{newPhaseOsc("sine", initPh, freq, math.Pi, sineWave)}
}

// Tri is a triangle-wave oscillator; phase advances by freq/(2*sampleRate).
type Tri struct{ *phaseOsc }

func NewTri(initPh, freq ugen.Node) *Tri {
	return &Tri{newPhaseOsc("tri", initPh, freq, 2.0, triWave)}
}

// Saw is a sawtooth-wave oscillator; phase advances by freq/(2*sampleRate).
type Saw struct{ *phaseOsc }

func NewSaw(initPh, freq ugen.Node) *Saw {
	return &Saw{newPhaseOsc("saw", initPh, freq, 2.0, sawWave)}
}

// Pulse is a pulse-wave oscillator with a duty cycle in (0, 1).
type Pulse struct {
	ugen.Base
	initPh ugen.Node
	freq   ugen.Node
	duty   ugen.Node
	ph     float64
}

func NewPulse(initPh, freq, duty ugen.Node) *Pulse {
	return &Pulse{initPh: initPh, freq: freq, duty: duty}
}

func (u *Pulse) Walk(visit func(ugen.Node) bool) {
	if visit(u.initPh) {
		u.initPh.Walk(visit)
	}
	if visit(u.freq) {
		u.freq.Walk(visit)
	}
	if visit(u.duty) {
		u.duty.Walk(visit)
	}
}

func (u *Pulse) Dump(shared map[ugen.Node]int) ugen.DumpNode {
	return ugen.DumpNode{Op: "pulse", Slots: []ugen.DumpSlot{
		ugen.Slot("init_ph", u.initPh, shared),
		ugen.Slot("freq", u.freq, shared),
		ugen.Slot("duty", u.duty, shared),
	}}
}

func (u *Pulse) Proc(t mtime.Time) ugen.Signal {
	return u.Memo(t, func() ugen.Signal {
		ph := u.initPh.Proc(t).L + u.ph
		duty := u.duty.Proc(t).L
		phDiff := float64(t.SampleRate) * 2.0
		u.ph += u.freq.Proc(t).L / phDiff
		x := math.Mod(ph, 1.0)
		if x < 0 {
			x += 1.0
		}
		v := -1.0
		if x < duty {
			v = 1.0
		}
		return ugen.Signal{L: v, R: v}
	})
}

func (u *Pulse) Get(name string) (ugen.Node, error) {
	switch name {
	case "init_ph":
		return u.initPh, nil
	case "freq":
		return u.freq, nil
	case "duty":
		return u.duty, nil
	}
	return nil, ugen.Unknown("pulse", name)
}

func (u *Pulse) GetStr(name string) (string, error) { return getStrViaGet(u, "pulse", name) }

func (u *Pulse) Set(name string, n ugen.Node) error {
	u.Lock()
	defer u.Unlock()
	switch name {
	case "init_ph":
		u.initPh = n
	case "freq":
		u.freq = n
	case "duty":
		u.duty = n
	default:
		return ugen.Unknown("pulse", name)
	}
	return nil
}

func (u *Pulse) SetStr(name, text string) error { return setStrAsConst(u, "pulse", name, text) }

func (u *Pulse) Clear(name string) {
	switch name {
	case "init_ph", "freq", "duty":
		_ = u.Set(name, ugen.NewConst(0))
	}
}

func (u *Pulse) SetFreq(n ugen.Node) {
	u.Lock()
	u.freq = n
	u.Unlock()
}

func (u *Pulse) Freq() ugen.Node {
	u.Lock()
	defer u.Unlock()
	return u.freq
}

// Rand is a seeded pseudo-random generator producing a fresh value in
// [0, 1) per tick.
type Rand struct {
	ugen.Base
	seed ugen.Node
	rng  *rand.Rand
}

func NewRand(seed ugen.Node) *Rand {
	s := int64(seed.Proc(mtime.Time{}).L)
	return &Rand{seed: seed, rng: rand.New(rand.NewSource(s))}
}

func (u *Rand) Walk(visit func(ugen.Node) bool) {
	if visit(u.seed) {
		u.seed.Walk(visit)
	}
}

func (u *Rand) Dump(shared map[ugen.Node]int) ugen.DumpNode {
	return ugen.DumpNode{Op: "rand", Slots: []ugen.DumpSlot{ugen.Slot("seed", u.seed, shared)}}
}

func (u *Rand) Proc(t mtime.Time) ugen.Signal {
	return u.Memo(t, func() ugen.Signal {
		v := u.rng.Float64()
		return ugen.Signal{L: v, R: v}
	})
}

func (u *Rand) Get(name string) (ugen.Node, error) {
	if name == "seed" {
		return u.seed, nil
	}
	return nil, ugen.Unknown("rand", name)
}

func (u *Rand) GetStr(name string) (string, error) { return getStrViaGet(u, "rand", name) }

func (u *Rand) Set(name string, n ugen.Node) error {
	if name != "seed" {
		return ugen.Unknown("rand", name)
	}
	u.Lock()
	u.seed = n
	u.rng = rand.New(rand.NewSource(int64(n.Proc(mtime.Time{}).L)))
	u.Unlock()
	return nil
}

func (u *Rand) SetStr(name, text string) error { return setStrAsConst(u, "rand", name, text) }

func (u *Rand) Clear(name string) {
	if name == "seed" {
		_ = u.Set("seed", ugen.NewConst(0))
	}
}

func (u *Rand) SetFreq(n ugen.Node) {}
func (u *Rand) Freq() ugen.Node     { return ugen.NewConst(0) }

// Phase wraps any bipolar oscillator into a [0, 1] phase signal via
// clip/gain/offset, and forwards set_freq to the wrapped oscillator.
type Phase struct {
	ugen.Base
	osc  ugen.Node
	root ugen.Node // offset(0.5, gain(0.5, clip(-1, 1, osc)))
}

func NewPhase(osc ugen.Node) *Phase {
	root := NewOffset(ugen.NewConst(0.5), NewGain(ugen.NewConst(0.5), NewClip(ugen.NewConst(-1), ugen.NewConst(1), osc)))
	return &Phase{osc: osc, root: root}
}

func (u *Phase) Walk(visit func(ugen.Node) bool) {
	if visit(u.osc) {
		u.osc.Walk(visit)
	}
}

func (u *Phase) Dump(shared map[ugen.Node]int) ugen.DumpNode {
	return ugen.DumpNode{Op: "phase", Slots: []ugen.DumpSlot{ugen.Slot("osc", u.osc, shared)}}
}

func (u *Phase) Proc(t mtime.Time) ugen.Signal {
	return u.Memo(t, func() ugen.Signal { return u.root.Proc(t) })
}

func (u *Phase) Get(name string) (ugen.Node, error) {
	if name == "osc" {
		return u.osc, nil
	}
	return nil, ugen.Unknown("phase", name)
}

func (u *Phase) GetStr(name string) (string, error) { return "", ugen.NotString("phase", name) }

func (u *Phase) Set(name string, n ugen.Node) error {
	if name != "osc" {
		return ugen.Unknown("phase", name)
	}
	u.Lock()
	u.osc = n
	u.root = NewOffset(ugen.NewConst(0.5), NewGain(ugen.NewConst(0.5), NewClip(ugen.NewConst(-1), ugen.NewConst(1), n)))
	u.Unlock()
	return nil
}

func (u *Phase) SetStr(name, text string) error { return ugen.Unknown("phase", name) }

func (u *Phase) Clear(name string) {}

func (u *Phase) SetFreq(n ugen.Node) {
	u.Lock()
	osc := u.osc
	u.Unlock()
	if o, ok := osc.(ugen.Oscillator); ok {
		o.SetFreq(n)
	}
}

func (u *Phase) Freq() ugen.Node { return ugen.NewConst(0) }

// Table is the Table node variant: a mutable ordered sequence of reals
// used as a lookup wave. It carries no audio signal of its own (Proc
// always returns silence); it is addressed only through the slot of
// whichever unit owns it (e.g. WaveTable's "table" slot).
type Table struct {
	ugen.Base
	values []float64
}

func NewTable(values []float64) *Table { return &Table{values: append([]float64(nil), values...)} }

func (u *Table) Walk(visit func(ugen.Node) bool) {}

func (u *Table) Dump(shared map[ugen.Node]int) ugen.DumpNode { return ugen.TableLeaf(u.Values()) }

func (u *Table) Proc(t mtime.Time) ugen.Signal { return ugen.Signal{} }

func (u *Table) Values() []float64 {
	u.Lock()
	defer u.Unlock()
	return append([]float64(nil), u.values...)
}

func (u *Table) SetValues(vs []float64) {
	u.Lock()
	u.values = append([]float64(nil), vs...)
	u.Unlock()
}

func (u *Table) At(i int) float64 {
	u.Lock()
	defer u.Unlock()
	n := len(u.values)
	if n == 0 {
		return 0
	}
	return u.values[((i%n)+n)%n]
}

func (u *Table) Len() int {
	u.Lock()
	defer u.Unlock()
	return len(u.values)
}

func (u *Table) Get(name string) (ugen.Node, error)       { return nil, ugen.Unknown("table", name) }
func (u *Table) GetStr(name string) (string, error)       { return "", ugen.Unknown("table", name) }
func (u *Table) Set(name string, n ugen.Node) error       { return ugen.Unknown("table", name) }
func (u *Table) SetStr(name string, text string) error    { return ugen.Unknown("table", name) }
func (u *Table) Clear(name string)                        {}

func linearInterpolate(v1, v2, r float64) float64 {
	r = math.Mod(r, 1.0)
	if r < 0 {
		r += 1.0
	}
	return v1*(1-r) + v2*r
}

// WaveTable reads a table via a phase input with linear interpolation
// between neighbouring samples. Constructed either directly from a Table
// value of any length or by rendering 256 samples of an oscillator at a
// notional 128 Hz sample rate (spec §4.3).
type WaveTable struct {
	ugen.Base
	table *Table
	ph    ugen.Node
}

// NewWaveTableFromTable builds a wavetable reading table directly.
func NewWaveTableFromTable(table *Table, ph ugen.Node) *WaveTable {
	return &WaveTable{table: table, ph: ph}
}

// NewWaveTableFromOsc renders osc for 256 samples at sample_rate=128 (spec
// §4.3) to populate a fresh Table, then reads it via ph.
func NewWaveTableFromOsc(osc ugen.Node, ph ugen.Node) *WaveTable {
	const tableLen = 256
	tm := mtime.NewTime(tableLen/2, 0)
	values := make([]float64, tableLen)
	for i := range values {
		values[i] = osc.Proc(tm).L
		tm.Advance()
	}
	return &WaveTable{table: NewTable(values), ph: ph}
}

func (u *WaveTable) Walk(visit func(ugen.Node) bool) {
	if visit(u.table) {
		u.table.Walk(visit)
	}
	if visit(u.ph) {
		u.ph.Walk(visit)
	}
}

func (u *WaveTable) Dump(shared map[ugen.Node]int) ugen.DumpNode {
	return ugen.DumpNode{Op: "wavetable", Slots: []ugen.DumpSlot{
		ugen.Slot("table", u.table, shared),
		ugen.Slot("ph", u.ph, shared),
	}}
}

func (u *WaveTable) Proc(t mtime.Time) ugen.Signal {
	return u.Memo(t, func() ugen.Signal {
		tbl := u.table
		n := tbl.Len()
		if n == 0 {
			return ugen.Signal{}
		}
		p := u.ph.Proc(t).L * float64(n)
		lo := int(math.Floor(p))
		v := linearInterpolate(tbl.At(lo), tbl.At(lo+1), p-math.Floor(p))
		return ugen.Signal{L: v, R: v}
	})
}

func (u *WaveTable) currentTable() *Table {
	u.Lock()
	defer u.Unlock()
	return u.table
}

func (u *WaveTable) Get(name string) (ugen.Node, error) {
	switch name {
	case "table":
		return u.currentTable(), nil
	case "ph":
		u.Lock()
		defer u.Unlock()
		return u.ph, nil
	}
	return nil, ugen.Unknown("wavetable", name)
}

func (u *WaveTable) GetStr(name string) (string, error) {
	if name != "table" {
		return "", ugen.NotString("wavetable", name)
	}
	return formatTable(u.currentTable().Values()), nil
}

func (u *WaveTable) Set(name string, n ugen.Node) error {
	u.Lock()
	defer u.Unlock()
	switch name {
	case "table":
		t, ok := n.(*Table)
		if !ok {
			return ugen.BadType("wavetable", name)
		}
		u.table = t
	case "ph":
		u.ph = n
	default:
		return ugen.Unknown("wavetable", name)
	}
	return nil
}

func (u *WaveTable) SetStr(name, text string) error {
	if name != "table" {
		return ugen.Unknown("wavetable", name)
	}
	vs, err := parseTable(text)
	if err != nil {
		return ugen.BadType("wavetable", name)
	}
	u.currentTable().SetValues(vs)
	return nil
}

func (u *WaveTable) Clear(name string) {
	switch name {
	case "table":
		u.currentTable().SetValues(nil)
	case "ph":
		_ = u.Set("ph", ugen.NewConst(0))
	}
}

func (u *WaveTable) SetFreq(n ugen.Node) {
	u.Lock()
	ph := u.ph
	u.Unlock()
	if o, ok := ph.(ugen.Oscillator); ok {
		o.SetFreq(n)
	}
}

func (u *WaveTable) Freq() ugen.Node { return ugen.NewConst(0) }
