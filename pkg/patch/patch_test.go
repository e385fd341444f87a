package patch

import (
	"testing"

	"github.com/anthropics/kotosynth/pkg/mtime"
	"github.com/anthropics/kotosynth/pkg/sexpr"
	"github.com/anthropics/kotosynth/pkg/ugen"
	"github.com/anthropics/kotosynth/pkg/units"
)

func evalSrc(t *testing.T, src string) (Value, *Env) {
	t.Helper()
	exprs, err := sexpr.Read(src)
	if err != nil {
		t.Fatalf("sexpr.Read(%q): %v", src, err)
	}
	env := NewEnv(mtime.NewTime(44100, 120))
	v, err := EvalAll(exprs, env)
	if err != nil {
		t.Fatalf("EvalAll(%q): %v", src, err)
	}
	return v, env
}

func TestEvalNumberIsConstUnit(t *testing.T) {
	v, _ := evalSrc(t, "1.5")
	if v.Kind != VUnit {
		t.Fatalf("Kind = %v, want VUnit", v.Kind)
	}
	sig := v.Unit.Proc(mtime.Time{})
	if sig.L != 1.5 {
		t.Errorf("Proc() = %+v, want L=1.5", sig)
	}
}

func TestEvalGainBuildsUnit(t *testing.T) {
	v, _ := evalSrc(t, "(gain 0.5 1)")
	if v.Kind != VUnit {
		t.Fatalf("Kind = %v, want VUnit", v.Kind)
	}
	if _, ok := v.Unit.(*units.Gain); !ok {
		t.Errorf("Unit = %T, want *units.Gain", v.Unit)
	}
	sig := v.Unit.Proc(mtime.Time{})
	if sig.L != 0.5 {
		t.Errorf("Proc() = %+v, want L=0.5", sig)
	}
}

func TestEvalDefBindsSymbol(t *testing.T) {
	_, env := evalSrc(t, "(def x 2) x")
	v, ok := env.bindings["x"]
	if !ok {
		t.Fatal("x not bound after def")
	}
	if v.Kind != VUnit {
		t.Errorf("bound value kind = %v, want VUnit", v.Kind)
	}
}

func TestEvalDefRejectsRebinding(t *testing.T) {
	exprs, err := sexpr.Read("(def x 1) (def x 2)")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	env := NewEnv(mtime.NewTime(44100, 120))
	_, err = EvalAll(exprs, env)
	if err == nil {
		t.Fatal("EvalAll with a duplicate def = nil error, want AlreadyBound")
	}
	if ee, ok := err.(*EvalError); !ok || ee.Kind != AlreadyBound {
		t.Errorf("err = %v, want AlreadyBound", err)
	}
}

func TestEvalUnboundVariable(t *testing.T) {
	exprs, _ := sexpr.Read("nosuchvar")
	_, err := EvalAll(exprs, NewEnv(mtime.NewTime(44100, 120)))
	if ee, ok := err.(*EvalError); !ok || ee.Kind != UnboundVariable {
		t.Errorf("err = %v, want UnboundVariable", err)
	}
}

func TestEvalUnknownOp(t *testing.T) {
	exprs, _ := sexpr.Read("(nosuchop 1 2)")
	_, err := EvalAll(exprs, NewEnv(mtime.NewTime(44100, 120)))
	if ee, ok := err.(*EvalError); !ok || ee.Kind != FnUnknown {
		t.Errorf("err = %v, want FnUnknown", err)
	}
}

func TestEvalWrongArgCount(t *testing.T) {
	exprs, _ := sexpr.Read("(gain 1)")
	_, err := EvalAll(exprs, NewEnv(mtime.NewTime(44100, 120)))
	if ee, ok := err.(*EvalError); !ok || ee.Kind != FnWrongParams {
		t.Errorf("err = %v, want FnWrongParams", err)
	}
}

func TestEvalVariadicAddAcceptsAnyArity(t *testing.T) {
	v, _ := evalSrc(t, "(+ 1 2 3 4)")
	sig := v.Unit.Proc(mtime.Time{})
	if sig.L != 10 {
		t.Errorf("Proc() = %+v, want L=10", sig)
	}
}

func TestEvalOutRequiresAtLeastVol(t *testing.T) {
	exprs, _ := sexpr.Read("(out)")
	_, err := EvalAll(exprs, NewEnv(mtime.NewTime(44100, 120)))
	if ee, ok := err.(*EvalError); !ok || ee.Kind != FnWrongParams {
		t.Errorf("err = %v, want FnWrongParams", err)
	}
}

func TestEvalTableBuildsTableValue(t *testing.T) {
	v, _ := evalSrc(t, "(table 1 2 3)")
	if v.Kind != VTable {
		t.Fatalf("Kind = %v, want VTable", v.Kind)
	}
	if len(v.Table) != 3 || v.Table[1] != 2 {
		t.Errorf("Table = %v, want [1 2 3]", v.Table)
	}
}

func TestEvalTableRejectsNonNumberArgs(t *testing.T) {
	exprs, _ := sexpr.Read("(table 1 foo)")
	_, err := EvalAll(exprs, NewEnv(mtime.NewTime(44100, 120)))
	if ee, ok := err.(*EvalError); !ok || ee.Kind != NotANumber {
		t.Errorf("err = %v, want NotANumber", err)
	}
}

func TestEvalPatBuildsMessages(t *testing.T) {
	v, _ := evalSrc(t, "(pat (c4 4) (k 1) (r 2) loop)")
	if v.Kind != VPattern {
		t.Fatalf("Kind = %v, want VPattern", v.Kind)
	}
	if len(v.Pattern) != 4 {
		t.Fatalf("len(Pattern) = %d, want 4", len(v.Pattern))
	}
	if v.Pattern[0].Kind != units.MsgNote {
		t.Errorf("Pattern[0].Kind = %v, want MsgNote", v.Pattern[0].Kind)
	}
	if v.Pattern[1].Kind != units.MsgKick {
		t.Errorf("Pattern[1].Kind = %v, want MsgKick", v.Pattern[1].Kind)
	}
	if v.Pattern[2].Kind != units.MsgRest {
		t.Errorf("Pattern[2].Kind = %v, want MsgRest", v.Pattern[2].Kind)
	}
	if v.Pattern[3].Kind != units.MsgLoop {
		t.Errorf("Pattern[3].Kind = %v, want MsgLoop", v.Pattern[3].Kind)
	}
}

func TestEvalPatRejectsUnknownSymbol(t *testing.T) {
	exprs, _ := sexpr.Read("(pat bogus)")
	_, err := EvalAll(exprs, NewEnv(mtime.NewTime(44100, 120)))
	if ee, ok := err.(*EvalError); !ok || ee.Kind != EvUnknown {
		t.Errorf("err = %v, want EvUnknown", err)
	}
}

func TestEvalPatRejectsMalformedMessage(t *testing.T) {
	exprs, _ := sexpr.Read("(pat (c4 4 5))")
	_, err := EvalAll(exprs, NewEnv(mtime.NewTime(44100, 120)))
	if ee, ok := err.(*EvalError); !ok || ee.Kind != EvMalformedEvent {
		t.Errorf("err = %v, want EvMalformedEvent", err)
	}
}

func TestEvalSeqRequiresAPatternFirstArg(t *testing.T) {
	exprs, _ := sexpr.Read("(seq 1 (sine 0 440) (adsr 0 0 1 0))")
	_, err := EvalAll(exprs, NewEnv(mtime.NewTime(44100, 120)))
	if ee, ok := err.(*EvalError); !ok || ee.Kind != NotAPattern {
		t.Errorf("err = %v, want NotAPattern", err)
	}
}

func TestEvalSeqBuildsSeqUnit(t *testing.T) {
	v, _ := evalSrc(t, "(seq (pat (c4 4)) (sine 0 440) (adsr 0 0 1 0.1))")
	if v.Kind != VUnit {
		t.Fatalf("Kind = %v, want VUnit", v.Kind)
	}
	if _, ok := v.Unit.(*units.Seq); !ok {
		t.Errorf("Unit = %T, want *units.Seq", v.Unit)
	}
}

func TestEvalWaveTableFromTable(t *testing.T) {
	v, _ := evalSrc(t, "(wavetable (table 1 2 3 4) 0)")
	if _, ok := v.Unit.(*units.WaveTable); !ok {
		t.Errorf("Unit = %T, want *units.WaveTable", v.Unit)
	}
}

func TestEvalWaveTableFromOscillator(t *testing.T) {
	v, _ := evalSrc(t, "(wavetable (sine 0 1) 0)")
	if _, ok := v.Unit.(*units.WaveTable); !ok {
		t.Errorf("Unit = %T, want *units.WaveTable", v.Unit)
	}
}

func TestEvalOneshotZeroesSustainOnWrappedEnvelope(t *testing.T) {
	v, _ := evalSrc(t, "(oneshot (adsr 0 0 0.8 0.1))")
	trig, ok := v.Unit.(*units.Trigger)
	if !ok {
		t.Fatalf("Unit = %T, want *units.Trigger", v.Unit)
	}
	eg, err := trig.Get("eg")
	if err != nil {
		t.Fatalf("Get(eg): %v", err)
	}
	adsr, ok := eg.(*units.AdsrEg)
	if !ok {
		t.Fatalf("eg = %T, want *units.AdsrEg", eg)
	}
	s, err := adsr.Get("s")
	if err != nil {
		t.Fatalf("Get(s): %v", err)
	}
	if c := s.(*ugen.Const); c.Value() != 0 {
		t.Errorf("sustain after oneshot = %v, want 0", c.Value())
	}
}

func TestEvalTrigDoesNotZeroSustain(t *testing.T) {
	v, _ := evalSrc(t, "(trig (adsr 0 0 0.8 0.1))")
	trig := v.Unit.(*units.Trigger)
	eg, _ := trig.Get("eg")
	adsr := eg.(*units.AdsrEg)
	s, _ := adsr.Get("s")
	if c := s.(*ugen.Const); c.Value() != 0.8 {
		t.Errorf("sustain after trig = %v, want unchanged 0.8", c.Value())
	}
}

func TestEvalMultipleTopLevelExprsReturnsLast(t *testing.T) {
	v, _ := evalSrc(t, "1 2 3")
	sig := v.Unit.Proc(mtime.Time{})
	if sig.L != 3 {
		t.Errorf("last value Proc() = %+v, want L=3", sig)
	}
}

func TestEvalSharedSymbolReferencesSameNode(t *testing.T) {
	v, env := evalSrc(t, "(def lfo (sine 0 1)) (+ lfo lfo)")
	lfoVal := env.bindings["lfo"]
	add := v.Unit.(*units.Add)
	s0, _ := add.Get("src0")
	s1, _ := add.Get("src1")
	if s0 != lfoVal.Unit || s1 != lfoVal.Unit {
		t.Error("(+ lfo lfo) doesn't reference the same node both times")
	}
}
