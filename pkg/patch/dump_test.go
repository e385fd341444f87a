package patch

import (
	"testing"

	"github.com/anthropics/kotosynth/pkg/mtime"
	"github.com/anthropics/kotosynth/pkg/sexpr"
)

func TestDumpRoundTripsSimpleUnit(t *testing.T) {
	v, _ := evalSrc(t, "(gain 0.5 1)")

	text := DumpString(v.Unit)
	exprs, err := sexpr.Read(text)
	if err != nil {
		t.Fatalf("sexpr.Read(DumpString(...)): %v (text=%q)", err, text)
	}

	env2 := NewEnv(mtime.NewTime(44100, 120))
	v2, err := EvalAll(exprs, env2)
	if err != nil {
		t.Fatalf("EvalAll(round-tripped): %v", err)
	}

	sig1 := v.Unit.Proc(mtime.Time{})
	sig2 := v2.Unit.Proc(mtime.Time{})
	if sig1 != sig2 {
		t.Errorf("round-tripped unit produces %+v, want %+v", sig2, sig1)
	}
}

func TestDumpEmitsOneDefPerSharedNode(t *testing.T) {
	v, _ := evalSrc(t, "(def lfo (sine 0 1)) (+ lfo lfo)")

	forms := Dump(v.Unit)
	if len(forms) != 2 {
		t.Fatalf("Dump produced %d forms, want 1 def + 1 root form", len(forms))
	}
	def := forms[0]
	if def.Kind != sexpr.List || len(def.Items) != 3 || def.Items[0].Sym != "def" {
		t.Errorf("forms[0] = %+v, want a (def shared0 ...) form", def)
	}

	root := forms[1]
	if root.Kind != sexpr.List || root.Items[0].Sym != "+" {
		t.Errorf("forms[1] = %+v, want the + root form", root)
	}
	// Both operands of + should reference the shared def by symbol, not
	// re-nest the sine's own form.
	if root.Items[1].Kind != sexpr.Symbol || root.Items[2].Kind != sexpr.Symbol {
		t.Errorf("+ operands = %+v, want both bare symbols referencing shared0", root.Items[1:])
	}
	if root.Items[1].Sym != root.Items[2].Sym {
		t.Errorf("+ operands reference different symbols: %q vs %q", root.Items[1].Sym, root.Items[2].Sym)
	}
}

func TestDumpNoSharingEmitsNoDefs(t *testing.T) {
	v, _ := evalSrc(t, "(+ 1 2)")
	forms := Dump(v.Unit)
	if len(forms) != 1 {
		t.Errorf("Dump produced %d forms, want 1 (no sharing, no defs)", len(forms))
	}
}

func TestDumpPatternRoundTrips(t *testing.T) {
	v, _ := evalSrc(t, "(seq (pat (c4 4) (k 1) loop) (sine 0 0) (adsr 0 0 1 0))")

	text := DumpString(v.Unit)
	exprs, err := sexpr.Read(text)
	if err != nil {
		t.Fatalf("sexpr.Read(DumpString(...)): %v (text=%q)", err, text)
	}
	if _, err := EvalAll(exprs, NewEnv(mtime.NewTime(44100, 120))); err != nil {
		t.Fatalf("EvalAll(round-tripped pattern): %v (text=%q)", err, text)
	}
}
