package units

import (
	"testing"

	"github.com/anthropics/kotosynth/pkg/mtime"
	"github.com/anthropics/kotosynth/pkg/ugen"
)

func proc(n ugen.Node) ugen.Signal { return n.Proc(mtime.Time{SampleRate: 44100}) }

func TestGainProc(t *testing.T) {
	g := NewGain(ugen.NewConst(0.5), ugen.NewConst(2))
	sig := proc(g)
	if sig.L != 1 || sig.R != 1 {
		t.Errorf("Gain.Proc() = %+v, want (1, 1)", sig)
	}
}

func TestOffsetProc(t *testing.T) {
	o := NewOffset(ugen.NewConst(1), ugen.NewConst(2))
	sig := proc(o)
	if sig.L != 3 || sig.R != 3 {
		t.Errorf("Offset.Proc() = %+v, want (3, 3)", sig)
	}
}

func TestClipProc(t *testing.T) {
	c := NewClip(ugen.NewConst(-1), ugen.NewConst(1), ugen.NewConst(5))
	sig := proc(c)
	if sig.L != 1 || sig.R != 1 {
		t.Errorf("Clip.Proc() = %+v, want (1, 1)", sig)
	}
}

func TestPanAttenuation(t *testing.T) {
	cases := []struct {
		pan        float64
		wantL      float64
		wantR      float64
	}{
		{0, 1, 1},
		{1, 0, 1},
		{-1, 1, 0},
		{0.5, 0.5, 1},
	}
	for _, c := range cases {
		src := NewOffset(ugen.NewConst(1), ugen.NewConst(0)) // outputs (1, 1)
		p := NewPan(ugen.NewConst(c.pan), src)
		sig := proc(p)
		if sig.L != c.wantL || sig.R != c.wantR {
			t.Errorf("Pan(%v).Proc() = %+v, want (%v, %v)", c.pan, sig, c.wantL, c.wantR)
		}
	}
}

func TestAddSumsSources(t *testing.T) {
	a := NewAdd(ugen.NewConst(1), ugen.NewConst(2), ugen.NewConst(3))
	sig := proc(a)
	if sig.L != 6 || sig.R != 6 {
		t.Errorf("Add.Proc() = %+v, want (6, 6)", sig)
	}
}

func TestMultiplyProducts(t *testing.T) {
	m := NewMultiply(ugen.NewConst(2), ugen.NewConst(3), ugen.NewConst(4))
	sig := proc(m)
	if sig.L != 24 || sig.R != 24 {
		t.Errorf("Multiply.Proc() = %+v, want (24, 24)", sig)
	}
}

func TestMultiplyNoSourcesIsIdentity(t *testing.T) {
	m := NewMultiply()
	sig := proc(m)
	if sig.L != 1 || sig.R != 1 {
		t.Errorf("Multiply.Proc() with no sources = %+v, want (1, 1)", sig)
	}
}

func TestOutScalesSumByVol(t *testing.T) {
	o := NewOut(ugen.NewConst(0.5), ugen.NewConst(1), ugen.NewConst(1))
	sig := proc(o)
	if sig.L != 1 || sig.R != 1 {
		t.Errorf("Out.Proc() = %+v, want (1, 1)", sig)
	}
}

func TestVariadicMixerGetSetClearBySrcIndex(t *testing.T) {
	a := NewAdd(ugen.NewConst(1), ugen.NewConst(2))

	got, err := a.Get("src1")
	if err != nil {
		t.Fatalf("Get(src1): %v", err)
	}
	if c, ok := got.(*ugen.Const); !ok || c.Value() != 2 {
		t.Errorf("Get(src1) = %v, want Const(2)", got)
	}

	if err := a.Set("src2", ugen.NewConst(5)); err != nil {
		t.Fatalf("Set(src2): %v", err)
	}
	sig := proc(a)
	if sig.L != 8 {
		t.Errorf("Proc() after Set(src2) = %+v, want L=8", sig)
	}

	a.Clear("src0")
	sig = a.Proc(mtime.Time{SampleRate: 44100, Tick: 1}) // next tick: tick 0's value is memoized
	if sig.L != 7 {
		t.Errorf("Proc() after Clear(src0) = %+v, want L=7 (2+5)", sig)
	}

	if _, err := a.Get("gain"); !ugen.ErrUnknownParameter(err) {
		t.Errorf("Get(gain) err = %v, want UnknownParameter", err)
	}
}

func TestOutVolSlot(t *testing.T) {
	o := NewOut(ugen.NewConst(1), ugen.NewConst(1))
	vol, err := o.Get("vol")
	if err != nil {
		t.Fatalf("Get(vol): %v", err)
	}
	if c, ok := vol.(*ugen.Const); !ok || c.Value() != 1 {
		t.Errorf("Get(vol) = %v, want Const(1)", vol)
	}

	if err := o.Set("vol", ugen.NewConst(0)); err != nil {
		t.Fatalf("Set(vol): %v", err)
	}
	if sig := proc(o); sig.L != 0 {
		t.Errorf("Proc() after Set(vol, 0) = %+v, want L=0", sig)
	}

	o.Clear("vol")
	vol, _ = o.Get("vol")
	if c := vol.(*ugen.Const); c.Value() != 0 {
		t.Errorf("Get(vol) after Clear = %v, want Const(0)", c.Value())
	}
}

func TestGainDumpSlots(t *testing.T) {
	g := NewGain(ugen.NewConst(2), ugen.NewConst(3))
	d := g.Dump(map[ugen.Node]int{})
	if d.Op != "gain" {
		t.Errorf("Op = %q, want gain", d.Op)
	}
	if len(d.Slots) != 2 || d.Slots[0].Name != "gain" || d.Slots[1].Name != "src" {
		t.Errorf("Slots = %+v, want [gain src]", d.Slots)
	}
}

func TestAddDumpIsVariadic(t *testing.T) {
	a := NewAdd(ugen.NewConst(1), ugen.NewConst(2))
	d := a.Dump(map[ugen.Node]int{})
	if d.VariadicBase != "src" {
		t.Errorf("VariadicBase = %q, want src", d.VariadicBase)
	}
	if len(d.Variadic) != 2 || d.Variadic[0].Name != "src0" || d.Variadic[1].Name != "src1" {
		t.Errorf("Variadic = %+v, want [src0 src1]", d.Variadic)
	}
}
