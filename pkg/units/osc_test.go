package units

import (
	"math"
	"testing"

	"github.com/anthropics/kotosynth/pkg/mtime"
	"github.com/anthropics/kotosynth/pkg/ugen"
)

func TestSineAtZeroPhaseIsZero(t *testing.T) {
	s := NewSine(ugen.NewConst(0), ugen.NewConst(0))
	sig := s.Proc(mtime.Time{SampleRate: 44100})
	if math.Abs(sig.L) > 1e-9 {
		t.Errorf("Sine at phase 0 = %v, want ~0", sig.L)
	}
}

func TestSineInitPhaseOffsetsOutput(t *testing.T) {
	s := NewSine(ugen.NewConst(math.Pi/2), ugen.NewConst(0))
	sig := s.Proc(mtime.Time{SampleRate: 44100})
	if math.Abs(sig.L-1) > 1e-9 {
		t.Errorf("Sine at init_ph=pi/2 = %v, want ~1", sig.L)
	}
}

func TestSineAdvancesPhaseWithFreq(t *testing.T) {
	s := NewSine(ugen.NewConst(0), ugen.NewConst(440))
	clock := mtime.NewTime(44100, 120)
	var last float64
	for i := 0; i < 10; i++ {
		sig := s.Proc(clock)
		last = sig.L
		clock.Advance()
	}
	if last == 0 {
		t.Error("Sine output stayed at 0 across ticks, phase isn't advancing")
	}
}

func TestTriWaveShape(t *testing.T) {
	cases := []struct{ ph, want float64 }{
		{0, 0}, {0.25, 1}, {0.5, 0}, {0.75, -1},
	}
	for _, c := range cases {
		if got := triWave(c.ph); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("triWave(%v) = %v, want %v", c.ph, got, c.want)
		}
	}
}

func TestSawWaveShape(t *testing.T) {
	cases := []struct{ ph, want float64 }{
		{0, 0}, {0.25, 0.5}, {0.5, -1}, {0.75, -0.5},
	}
	for _, c := range cases {
		if got := sawWave(c.ph); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("sawWave(%v) = %v, want %v", c.ph, got, c.want)
		}
	}
}

func TestOscillatorSetFreqRetargets(t *testing.T) {
	s := NewSine(ugen.NewConst(0), ugen.NewConst(0))
	var o ugen.Oscillator = s
	o.SetFreq(ugen.NewConst(880))
	if f, ok := o.Freq().(*ugen.Const); !ok || f.Value() != 880 {
		t.Errorf("Freq() after SetFreq = %v, want Const(880)", o.Freq())
	}
}

func TestPulseDutyCycle(t *testing.T) {
	p := NewPulse(ugen.NewConst(0), ugen.NewConst(0), ugen.NewConst(0.25))
	clock := mtime.Time{SampleRate: 44100}
	sig := p.Proc(clock)
	if sig.L != 1 {
		t.Errorf("Pulse at phase 0 duty 0.25 = %v, want 1 (0 < 0.25)", sig.L)
	}
}

func TestRandProducesValuesInUnitRange(t *testing.T) {
	r := NewRand(ugen.NewConst(1))
	clock := mtime.NewTime(44100, 120)
	for i := 0; i < 100; i++ {
		sig := r.Proc(clock)
		if sig.L < 0 || sig.L >= 1 {
			t.Fatalf("Rand.Proc() = %v, want in [0, 1)", sig.L)
		}
		clock.Advance()
	}
}

func TestRandSameSeedSameSequence(t *testing.T) {
	a := NewRand(ugen.NewConst(42))
	b := NewRand(ugen.NewConst(42))
	clock := mtime.NewTime(44100, 120)
	for i := 0; i < 5; i++ {
		sa := a.Proc(clock)
		sb := b.Proc(clock)
		if sa != sb {
			t.Fatalf("tick %d: a=%v b=%v, want equal for same seed", i, sa, sb)
		}
		clock.Advance()
	}
}

func TestTableValuesRoundTrip(t *testing.T) {
	tbl := NewTable([]float64{1, 2, 3})
	if got := tbl.Values(); len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("Values() = %v, want [1 2 3]", got)
	}
	if tbl.At(4) != 2 { // wraps: index 4 % len(3) == 1
		t.Errorf("At(4) = %v, want 2 (wrapped)", tbl.At(4))
	}
	if tbl.Len() != 3 {
		t.Errorf("Len() = %d, want 3", tbl.Len())
	}
}

func TestTableAtWrapsNegativeIndex(t *testing.T) {
	tbl := NewTable([]float64{1, 2, 3})
	if got := tbl.At(-1); got != 3 { // -1 wraps to the last element
		t.Errorf("At(-1) = %v, want 3 (wrapped)", got)
	}
	if got := tbl.At(-4); got != 3 { // -4 wraps the same as -1 one cycle back
		t.Errorf("At(-4) = %v, want 3 (wrapped)", got)
	}
}

func TestWaveTableHandlesNegativePhase(t *testing.T) {
	tbl := NewTable([]float64{-1, -1, -1, 1, 1, 1})
	wt := NewWaveTableFromTable(tbl, ugen.NewConst(-0.5))
	sig := wt.Proc(mtime.Time{SampleRate: 44100})
	if math.IsNaN(sig.L) || math.IsInf(sig.L, 0) {
		t.Fatalf("WaveTable.Proc() with negative phase = %v, want finite", sig.L)
	}
}

func TestWaveTableInterpolatesBetweenSamples(t *testing.T) {
	tbl := NewTable([]float64{0, 1, 0, -1})
	wt := NewWaveTableFromTable(tbl, ugen.NewConst(0.125)) // halfway between index 0 and 1
	sig := wt.Proc(mtime.Time{SampleRate: 44100})
	if math.Abs(sig.L-0.5) > 1e-9 {
		t.Errorf("WaveTable.Proc() at ph=0.125 = %v, want ~0.5", sig.L)
	}
}

func TestWaveTableFromOscRenders256Samples(t *testing.T) {
	osc := NewSine(ugen.NewConst(0), ugen.NewConst(1))
	wt := NewWaveTableFromOsc(osc, ugen.NewConst(0))
	if wt.table.Len() != 256 {
		t.Fatalf("table length = %d, want 256", wt.table.Len())
	}
}

func TestPhaseWrapsBipolarOscToUnitRange(t *testing.T) {
	s := NewSine(ugen.NewConst(0), ugen.NewConst(0))
	p := NewPhase(s)
	sig := p.Proc(mtime.Time{SampleRate: 44100})
	if math.Abs(sig.L-0.5) > 1e-9 {
		t.Errorf("Phase.Proc() of sine(0) = %v, want ~0.5 (midpoint of [0,1])", sig.L)
	}
}

func TestPhaseSetFreqForwardsToWrappedOscillator(t *testing.T) {
	s := NewSine(ugen.NewConst(0), ugen.NewConst(0))
	p := NewPhase(s)
	p.SetFreq(ugen.NewConst(220))
	if f, ok := s.Freq().(*ugen.Const); !ok || f.Value() != 220 {
		t.Errorf("wrapped oscillator's Freq() after Phase.SetFreq = %v, want Const(220)", s.Freq())
	}
}
