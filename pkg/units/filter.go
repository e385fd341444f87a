package units

import (
	"math"

	"github.com/anthropics/kotosynth/pkg/mtime"
	"github.com/anthropics/kotosynth/pkg/ugen"
)

// LPF is a two-pole biquad low-pass filter using the coefficient
// formulation spec §4.3 specifies: w = 2*pi*freq/sampleRate,
// a = sin(w)/(2q), b0 = b2 = (1-cos w)/2, b1 = 1-cos w, a0 = 1+a,
// a1 = -2 cos w, a2 = 1-a.
type LPF struct {
	ugen.Base
	freq, q, src ugen.Node
	inbuf        [2]ugen.Signal
	outbuf       [2]ugen.Signal
}

func NewLPF(freq, q, src ugen.Node) *LPF { return &LPF{freq: freq, q: q, src: src} }

func (u *LPF) Walk(visit func(ugen.Node) bool) {
	if visit(u.freq) {
		u.freq.Walk(visit)
	}
	if visit(u.q) {
		u.q.Walk(visit)
	}
	if visit(u.src) {
		u.src.Walk(visit)
	}
}

func (u *LPF) Dump(shared map[ugen.Node]int) ugen.DumpNode {
	return ugen.DumpNode{Op: "lpf", Slots: []ugen.DumpSlot{
		ugen.Slot("freq", u.freq, shared),
		ugen.Slot("q", u.q, shared),
		ugen.Slot("src", u.src, shared),
	}}
}

func (u *LPF) Proc(t mtime.Time) ugen.Signal {
	return u.Memo(t, func() ugen.Signal {
		f := u.freq.Proc(t).L
		q := u.q.Proc(t).L
		src := u.src.Proc(t)

		w := 2 * math.Pi * f / float64(t.SampleRate)
		sw, cw := math.Sin(w), math.Cos(w)
		a := sw / (2 * q)
		b0, b1, b2 := (1-cw)/2, 1-cw, (1-cw)/2
		a0, a1, a2 := 1+a, -2*cw, 1-a

		filter := func(v, in0, in1, out0, out1 float64) float64 {
			return (b0/a0)*v + (b1/a0)*in0 + (b2/a0)*in1 - (a1/a0)*out0 - (a2/a0)*out1
		}

		l := filter(src.L, u.inbuf[0].L, u.inbuf[1].L, u.outbuf[0].L, u.outbuf[1].L)
		r := filter(src.R, u.inbuf[0].R, u.inbuf[1].R, u.outbuf[0].R, u.outbuf[1].R)

		u.inbuf[1] = u.inbuf[0]
		u.inbuf[0] = src
		u.outbuf[1] = u.outbuf[0]
		u.outbuf[0] = ugen.Signal{L: l, R: r}

		return u.outbuf[0]
	})
}

func (u *LPF) Get(name string) (ugen.Node, error) {
	switch name {
	case "freq":
		return u.freq, nil
	case "q":
		return u.q, nil
	case "src":
		return u.src, nil
	}
	return nil, ugen.Unknown("lpf", name)
}

func (u *LPF) GetStr(name string) (string, error) { return getStrViaGet(u, "lpf", name) }

func (u *LPF) Set(name string, n ugen.Node) error {
	u.Lock()
	defer u.Unlock()
	switch name {
	case "freq":
		u.freq = n
	case "q":
		u.q = n
	case "src":
		u.src = n
	default:
		return ugen.Unknown("lpf", name)
	}
	return nil
}

func (u *LPF) SetStr(name, text string) error { return setStrAsConst(u, "lpf", name, text) }

func (u *LPF) Clear(name string) {
	switch name {
	case "freq", "q", "src":
		_ = u.Set(name, ugen.NewConst(0))
	}
}

// Delay is a feedback delay line: a ring buffer of 2*sampleRate samples.
// Each tick pushes the input at the head and reads back every integer
// multiple of time*sampleRate that fits in the buffer, each tap scaled by
// feedback^n, summed and mixed back with src.
type Delay struct {
	ugen.Base
	time, feedback, mix, src ugen.Node
	buf                      []ugen.Signal
	pos                      int
}

func NewDelay(time, feedback, mix, src ugen.Node, sampleRate uint) *Delay {
	return &Delay{time: time, feedback: feedback, mix: mix, src: src, buf: make([]ugen.Signal, 2*sampleRate)}
}

func (u *Delay) Walk(visit func(ugen.Node) bool) {
	if visit(u.time) {
		u.time.Walk(visit)
	}
	if visit(u.feedback) {
		u.feedback.Walk(visit)
	}
	if visit(u.mix) {
		u.mix.Walk(visit)
	}
	if visit(u.src) {
		u.src.Walk(visit)
	}
}

func (u *Delay) Dump(shared map[ugen.Node]int) ugen.DumpNode {
	return ugen.DumpNode{Op: "delay", Slots: []ugen.DumpSlot{
		ugen.Slot("time", u.time, shared),
		ugen.Slot("feedback", u.feedback, shared),
		ugen.Slot("mix", u.mix, shared),
		ugen.Slot("src", u.src, shared),
	}}
}

func (u *Delay) Proc(t mtime.Time) ugen.Signal {
	return u.Memo(t, func() ugen.Signal {
		src := u.src.Proc(t)
		n := len(u.buf)
		if n == 0 {
			return src
		}
		u.pos = (u.pos + 1) % n
		u.buf[u.pos] = src

		dt := int(u.time.Proc(t).L * float64(t.SampleRate))
		fb := u.feedback.Proc(t).L
		mix := u.mix.Proc(t).L

		var dl, dr float64
		if dt > 0 {
			for k := 1; k*dt < n; k++ {
				tap := u.buf[((u.pos-k*dt)%n+n)%n]
				fbr := math.Pow(fb, float64(k))
				dl += tap.L * fbr
				dr += tap.R * fbr
			}
		}
		return ugen.Signal{L: src.L + dl*mix, R: src.R + dr*mix}
	})
}

func (u *Delay) Get(name string) (ugen.Node, error) {
	switch name {
	case "time":
		return u.time, nil
	case "feedback":
		return u.feedback, nil
	case "mix":
		return u.mix, nil
	case "src":
		return u.src, nil
	}
	return nil, ugen.Unknown("delay", name)
}

func (u *Delay) GetStr(name string) (string, error) { return getStrViaGet(u, "delay", name) }

func (u *Delay) Set(name string, n ugen.Node) error {
	u.Lock()
	defer u.Unlock()
	switch name {
	case "time":
		u.time = n
	case "feedback":
		u.feedback = n
	case "mix":
		u.mix = n
	case "src":
		u.src = n
	default:
		return ugen.Unknown("delay", name)
	}
	return nil
}

func (u *Delay) SetStr(name, text string) error { return setStrAsConst(u, "delay", name, text) }

func (u *Delay) Clear(name string) {
	switch name {
	case "time", "feedback", "mix", "src":
		_ = u.Set(name, ugen.NewConst(0))
	}
}
