package units

import (
	"math"
	"testing"

	"github.com/anthropics/kotosynth/pkg/mtime"
	"github.com/anthropics/kotosynth/pkg/ugen"
)

func TestLPFDCPassesThroughAtUnityGain(t *testing.T) {
	f := NewLPF(ugen.NewConst(1000), ugen.NewConst(0.707), ugen.NewConst(1))
	clock := mtime.NewTime(44100, 120)
	var sig ugen.Signal
	for i := 0; i < 2000; i++ {
		sig = f.Proc(clock)
		clock.Advance()
	}
	if math.Abs(sig.L-1) > 0.05 {
		t.Errorf("LPF settled DC response = %v, want ~1 (DC passes a low-pass)", sig.L)
	}
}

func TestLPFOutputStaysBounded(t *testing.T) {
	f := NewLPF(ugen.NewConst(2000), ugen.NewConst(5), ugen.NewConst(1))
	clock := mtime.NewTime(44100, 120)
	for i := 0; i < 5000; i++ {
		sig := f.Proc(clock)
		if math.IsNaN(sig.L) || math.IsInf(sig.L, 0) {
			t.Fatalf("tick %d: LPF output = %v, want finite", i, sig.L)
		}
		if math.Abs(sig.L) > 100 {
			t.Fatalf("tick %d: LPF output = %v, blew up", i, sig.L)
		}
		clock.Advance()
	}
}

func TestLPFGetSetSlots(t *testing.T) {
	f := NewLPF(ugen.NewConst(440), ugen.NewConst(1), ugen.NewConst(0))
	if err := f.Set("freq", ugen.NewConst(880)); err != nil {
		t.Fatalf("Set(freq): %v", err)
	}
	got, _ := f.Get("freq")
	if c := got.(*ugen.Const); c.Value() != 880 {
		t.Errorf("Get(freq) = %v, want Const(880)", c.Value())
	}
	if _, err := f.Get("bogus"); !ugen.ErrUnknownParameter(err) {
		t.Errorf("Get(bogus) err = %v, want UnknownParameter", err)
	}
}

func TestDelayZeroTimeSkipsTapLoop(t *testing.T) {
	d := NewDelay(ugen.NewConst(0), ugen.NewConst(0.5), ugen.NewConst(1), ugen.NewConst(0), 8)
	clock := mtime.NewTime(8, 120)

	sig := d.Proc(clock)
	if sig.L != 0 {
		t.Errorf("Delay(time=0).Proc() = %v, want 0 passthrough", sig.L)
	}
}

func TestDelayReadsBackEarlierSample(t *testing.T) {
	d := NewDelay(ugen.NewConst(0.25), ugen.NewConst(1), ugen.NewConst(1), ugen.NewConst(0), 8)
	clock := mtime.NewTime(8, 120)

	// dt = 0.25s * 8Hz = 2 samples. An impulse at the first call should
	// echo back (feedback=1, mix=1) exactly two calls later.
	inputs := []float64{1, 0, 0, 0}
	var sigs []float64
	for _, v := range inputs {
		d.src = ugen.NewConst(v)
		sig := d.Proc(clock)
		sigs = append(sigs, sig.L)
		clock.Advance()
	}
	if sigs[2] != 1 {
		t.Errorf("sigs = %v, want the impulse to echo back at index 2 (dt=2)", sigs)
	}
}

func TestDelayZeroLengthBufferIsPassthrough(t *testing.T) {
	d := NewDelay(ugen.NewConst(0.5), ugen.NewConst(0.5), ugen.NewConst(1), ugen.NewConst(0.25), 0)
	sig := d.Proc(mtime.Time{SampleRate: 8})
	if sig.L != 0.25 {
		t.Errorf("Delay with zero-length buffer = %v, want passthrough 0.25", sig.L)
	}
}

func TestDelayGetSetClear(t *testing.T) {
	d := NewDelay(ugen.NewConst(1), ugen.NewConst(0.5), ugen.NewConst(1), ugen.NewConst(0), 8)
	if _, err := d.Get("feedback"); err != nil {
		t.Fatalf("Get(feedback): %v", err)
	}
	d.Clear("mix")
	mix, _ := d.Get("mix")
	if c := mix.(*ugen.Const); c.Value() != 0 {
		t.Errorf("Get(mix) after Clear = %v, want Const(0)", c.Value())
	}
}
