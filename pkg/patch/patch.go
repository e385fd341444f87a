// Package patch evaluates the parsed s-expression patch language (spec
// §4.4) into a unit-generator graph: eval walks sexpr.Expr trees, looks
// numbers and bound symbols up, and dispatches op calls to the
// pkg/units constructors.
package patch

import (
	"fmt"

	"github.com/anthropics/kotosynth/pkg/mtime"
	"github.com/anthropics/kotosynth/pkg/pitch"
	"github.com/anthropics/kotosynth/pkg/sexpr"
	"github.com/anthropics/kotosynth/pkg/ugen"
	"github.com/anthropics/kotosynth/pkg/units"
)

// ValueKind distinguishes the four shapes eval can return (spec §4.4).
type ValueKind int

const (
	VNil ValueKind = iota
	VUnit
	VPattern
	VTable
)

// Value is eval's result: a unit-generator node, a pattern's messages, a
// table's contents, or nil.
type Value struct {
	Kind    ValueKind
	Unit    ugen.Node
	Pattern []units.Message
	Table   []float64
}

// EvalErrorKind enumerates spec §7's evaluation error taxonomy.
type EvalErrorKind int

const (
	UnboundVariable EvalErrorKind = iota
	AlreadyBound
	FnUnknown
	FnWrongParams
	NotASymbol
	NotANumber
	NotAUnit
	NotAPattern
	EvUnknown
	EvMalformedEvent
)

// EvalError reports a failure during Eval/EvalAll, naming the offending
// symbol or sub-expression where available.
type EvalError struct {
	Kind   EvalErrorKind
	Detail string
}

func (e *EvalError) Error() string {
	switch e.Kind {
	case UnboundVariable:
		return fmt.Sprintf("patch: unbound variable %q", e.Detail)
	case AlreadyBound:
		return fmt.Sprintf("patch: %q is already bound", e.Detail)
	case FnUnknown:
		return fmt.Sprintf("patch: unknown op %q", e.Detail)
	case FnWrongParams:
		return fmt.Sprintf("patch: wrong number of arguments to %q", e.Detail)
	case NotASymbol:
		return fmt.Sprintf("patch: %q is not a symbol", e.Detail)
	case NotANumber:
		return fmt.Sprintf("patch: %q is not a number", e.Detail)
	case NotAUnit:
		return fmt.Sprintf("patch: %q is not a unit", e.Detail)
	case NotAPattern:
		return fmt.Sprintf("patch: %q is not a pattern", e.Detail)
	case EvUnknown:
		return fmt.Sprintf("patch: unknown sequencer message %q", e.Detail)
	case EvMalformedEvent:
		return fmt.Sprintf("patch: malformed sequencer message %q", e.Detail)
	default:
		return "patch: evaluation error"
	}
}

func errf(kind EvalErrorKind, detail string) error { return &EvalError{Kind: kind, Detail: detail} }

// Env holds variable bindings and the musical-time context (sample rate,
// measure, current position) new `seq`/`delay` units are constructed
// against.
type Env struct {
	Time     mtime.Time
	bindings map[string]Value
}

// NewEnv returns an Env bound to no variables, using t as the construction
// time for any seq/delay built while evaluating.
func NewEnv(t mtime.Time) *Env {
	return &Env{Time: t, bindings: make(map[string]Value)}
}

// Eval evaluates one parsed expression.
func Eval(e sexpr.Expr, env *Env) (Value, error) {
	switch e.Kind {
	case sexpr.Number:
		return Value{Kind: VUnit, Unit: ugen.NewConst(e.Num)}, nil
	case sexpr.Symbol:
		v, ok := env.bindings[e.Sym]
		if !ok {
			return Value{}, errf(UnboundVariable, e.Sym)
		}
		return v, nil
	default: // List
		if len(e.Items) == 0 {
			return Value{Kind: VNil}, nil
		}
		return evalCall(e.Items[0], e.Items[1:], env)
	}
}

// EvalAll evaluates every expression in order, returning the last value.
func EvalAll(exprs []sexpr.Expr, env *Env) (Value, error) {
	var last Value
	for _, e := range exprs {
		v, err := Eval(e, env)
		if err != nil {
			return Value{}, err
		}
		last = v
	}
	return last, nil
}

func evalCall(head sexpr.Expr, args []sexpr.Expr, env *Env) (Value, error) {
	if head.Kind != sexpr.Symbol {
		return Value{}, errf(NotASymbol, sexpr.Print(head))
	}
	switch head.Sym {
	case "def":
		return evalDef(args, env)
	case "pat":
		return evalPat(args, env)
	case "table":
		return evalTable(args, env)
	}
	n, err := buildUnit(head.Sym, args, env)
	if err != nil {
		return Value{}, err
	}
	return Value{Kind: VUnit, Unit: n}, nil
}

func evalDef(args []sexpr.Expr, env *Env) (Value, error) {
	if len(args) != 2 {
		return Value{}, errf(FnWrongParams, "def")
	}
	if args[0].Kind != sexpr.Symbol {
		return Value{}, errf(NotASymbol, sexpr.Print(args[0]))
	}
	name := args[0].Sym
	if _, bound := env.bindings[name]; bound {
		return Value{}, errf(AlreadyBound, name)
	}
	v, err := Eval(args[1], env)
	if err != nil {
		return Value{}, err
	}
	env.bindings[name] = v
	return Value{Kind: VNil}, nil
}

func evalTable(args []sexpr.Expr, env *Env) (Value, error) {
	if len(args) == 0 {
		return Value{}, errf(FnWrongParams, "table")
	}
	vs := make([]float64, len(args))
	for i, a := range args {
		if a.Kind != sexpr.Number {
			return Value{}, errf(NotANumber, sexpr.Print(a))
		}
		vs[i] = a.Num
	}
	return Value{Kind: VTable, Table: vs}, nil
}

func evalPat(args []sexpr.Expr, env *Env) (Value, error) {
	msgs := make([]units.Message, 0, len(args))
	for _, a := range args {
		m, err := evalMessage(a)
		if err != nil {
			return Value{}, err
		}
		msgs = append(msgs, m)
	}
	return Value{Kind: VPattern, Pattern: msgs}, nil
}

func evalMessage(e sexpr.Expr) (units.Message, error) {
	if e.Kind == sexpr.Symbol {
		if e.Sym == "loop" {
			return units.Message{Kind: units.MsgLoop}, nil
		}
		return units.Message{}, errf(EvUnknown, e.Sym)
	}
	if e.Kind != sexpr.List || len(e.Items) != 2 {
		return units.Message{}, errf(EvMalformedEvent, sexpr.Print(e))
	}
	nameExp, lenExp := e.Items[0], e.Items[1]
	if nameExp.Kind != sexpr.Symbol || lenExp.Kind != sexpr.Number {
		return units.Message{}, errf(EvMalformedEvent, sexpr.Print(e))
	}
	length := int(lenExp.Num)
	if nameExp.Sym == "k" {
		return units.Message{Kind: units.MsgKick, Len: length}, nil
	}
	p, err := pitch.Parse(nameExp.Sym)
	if err != nil {
		return units.Message{}, errf(EvMalformedEvent, sexpr.Print(e))
	}
	kind := units.MsgNote
	if p.Rest {
		kind = units.MsgRest
	}
	return units.Message{Kind: kind, Pitch: p, Len: length}, nil
}

func evalUnit(e sexpr.Expr, env *Env) (ugen.Node, error) {
	v, err := Eval(e, env)
	if err != nil {
		return nil, err
	}
	if v.Kind != VUnit {
		return nil, errf(NotAUnit, sexpr.Print(e))
	}
	return v.Unit, nil
}

func evalUnits(args []sexpr.Expr, env *Env) ([]ugen.Node, error) {
	ns := make([]ugen.Node, len(args))
	for i, a := range args {
		n, err := evalUnit(a, env)
		if err != nil {
			return nil, err
		}
		ns[i] = n
	}
	return ns, nil
}

func wantArgs(name string, args []sexpr.Expr, n int) error {
	if len(args) != n {
		return errf(FnWrongParams, name)
	}
	return nil
}

func wantAtLeast(name string, args []sexpr.Expr, n int) error {
	if len(args) < n {
		return errf(FnWrongParams, name)
	}
	return nil
}

// buildUnit dispatches an op call to its pkg/units constructor, per the
// builtin table spec §4.3 describes.
func buildUnit(name string, args []sexpr.Expr, env *Env) (ugen.Node, error) {
	switch name {
	case "pan":
		if err := wantArgs(name, args, 2); err != nil {
			return nil, err
		}
		ns, err := evalUnits(args, env)
		if err != nil {
			return nil, err
		}
		return units.NewPan(ns[0], ns[1]), nil
	case "clip":
		if err := wantArgs(name, args, 3); err != nil {
			return nil, err
		}
		ns, err := evalUnits(args, env)
		if err != nil {
			return nil, err
		}
		return units.NewClip(ns[0], ns[1], ns[2]), nil
	case "offset":
		if err := wantArgs(name, args, 2); err != nil {
			return nil, err
		}
		ns, err := evalUnits(args, env)
		if err != nil {
			return nil, err
		}
		return units.NewOffset(ns[0], ns[1]), nil
	case "gain":
		if err := wantArgs(name, args, 2); err != nil {
			return nil, err
		}
		ns, err := evalUnits(args, env)
		if err != nil {
			return nil, err
		}
		return units.NewGain(ns[0], ns[1]), nil
	case "+":
		ns, err := evalUnits(args, env)
		if err != nil {
			return nil, err
		}
		return units.NewAdd(ns...), nil
	case "*":
		ns, err := evalUnits(args, env)
		if err != nil {
			return nil, err
		}
		return units.NewMultiply(ns...), nil
	case "out":
		if err := wantAtLeast(name, args, 1); err != nil {
			return nil, err
		}
		ns, err := evalUnits(args, env)
		if err != nil {
			return nil, err
		}
		return units.NewOut(ns[0], ns[1:]...), nil
	case "rand":
		if err := wantArgs(name, args, 1); err != nil {
			return nil, err
		}
		ns, err := evalUnits(args, env)
		if err != nil {
			return nil, err
		}
		return units.NewRand(ns[0]), nil
	case "sine":
		if err := wantArgs(name, args, 2); err != nil {
			return nil, err
		}
		ns, err := evalUnits(args, env)
		if err != nil {
			return nil, err
		}
		return units.NewSine(ns[0], ns[1]), nil
	case "tri":
		if err := wantArgs(name, args, 2); err != nil {
			return nil, err
		}
		ns, err := evalUnits(args, env)
		if err != nil {
			return nil, err
		}
		return units.NewTri(ns[0], ns[1]), nil
	case "saw":
		if err := wantArgs(name, args, 2); err != nil {
			return nil, err
		}
		ns, err := evalUnits(args, env)
		if err != nil {
			return nil, err
		}
		return units.NewSaw(ns[0], ns[1]), nil
	case "pulse":
		if err := wantArgs(name, args, 3); err != nil {
			return nil, err
		}
		ns, err := evalUnits(args, env)
		if err != nil {
			return nil, err
		}
		return units.NewPulse(ns[0], ns[1], ns[2]), nil
	case "phase":
		if err := wantArgs(name, args, 1); err != nil {
			return nil, err
		}
		ns, err := evalUnits(args, env)
		if err != nil {
			return nil, err
		}
		return units.NewPhase(ns[0]), nil
	case "wavetable":
		return buildWaveTable(args, env)
	case "adsr":
		if err := wantArgs(name, args, 4); err != nil {
			return nil, err
		}
		ns, err := evalUnits(args, env)
		if err != nil {
			return nil, err
		}
		return units.NewAdsrEg(ns[0], ns[1], ns[2], ns[3]), nil
	case "seq":
		return buildSeq(args, env)
	case "lpf":
		if err := wantArgs(name, args, 3); err != nil {
			return nil, err
		}
		ns, err := evalUnits(args, env)
		if err != nil {
			return nil, err
		}
		return units.NewLPF(ns[0], ns[1], ns[2]), nil
	case "delay":
		if err := wantArgs(name, args, 4); err != nil {
			return nil, err
		}
		ns, err := evalUnits(args, env)
		if err != nil {
			return nil, err
		}
		return units.NewDelay(ns[0], ns[1], ns[2], ns[3], env.Time.SampleRate), nil
	case "trig":
		if err := wantAtLeast(name, args, 1); err != nil {
			return nil, err
		}
		ns, err := evalUnits(args, env)
		if err != nil {
			return nil, err
		}
		return units.NewTrigger(ns[0], ns[1:]...), nil
	case "oneshot":
		if err := wantAtLeast(name, args, 1); err != nil {
			return nil, err
		}
		ns, err := evalUnits(args, env)
		if err != nil {
			return nil, err
		}
		for _, n := range ns {
			forceZeroSustain(n)
		}
		return units.NewTrigger(ns[0], ns[1:]...), nil
	}
	return nil, errf(FnUnknown, name)
}

// forceZeroSustain is how `oneshot` differs from `trig`: every adsr it
// aggregates (directly, or nested inside another trig/oneshot) has its
// sustain pinned to 0, so the envelope releases the instant decay ends
// instead of holding (spec §4.3's REDESIGN FLAGS notes this as the
// distinguishing behavior).
func forceZeroSustain(n ugen.Node) {
	switch u := n.(type) {
	case *units.AdsrEg:
		_ = u.Set("s", ugen.NewConst(0))
	case *units.Trigger:
		if eg, err := u.Get("eg"); err == nil {
			forceZeroSustain(eg)
		}
		for i := 0; ; i++ {
			eg, err := u.Get(fmt.Sprintf("src%d", i))
			if err != nil {
				break
			}
			forceZeroSustain(eg)
		}
	}
}

func buildWaveTable(args []sexpr.Expr, env *Env) (ugen.Node, error) {
	if err := wantArgs("wavetable", args, 2); err != nil {
		return nil, err
	}
	v0, err := Eval(args[0], env)
	if err != nil {
		return nil, err
	}
	ph, err := evalUnit(args[1], env)
	if err != nil {
		return nil, err
	}
	switch v0.Kind {
	case VTable:
		return units.NewWaveTableFromTable(units.NewTable(v0.Table), ph), nil
	case VUnit:
		return units.NewWaveTableFromOsc(v0.Unit, ph), nil
	default:
		return nil, errf(NotAUnit, sexpr.Print(args[0]))
	}
}

func buildSeq(args []sexpr.Expr, env *Env) (ugen.Node, error) {
	if err := wantArgs("seq", args, 3); err != nil {
		return nil, err
	}
	v0, err := Eval(args[0], env)
	if err != nil {
		return nil, err
	}
	if v0.Kind != VPattern {
		return nil, errf(NotAPattern, sexpr.Print(args[0]))
	}
	osc, err := evalUnit(args[1], env)
	if err != nil {
		return nil, err
	}
	eg, err := evalUnit(args[2], env)
	if err != nil {
		return nil, err
	}
	return units.NewSeq(units.NewPattern(v0.Pattern), osc, eg, env.Time), nil
}
