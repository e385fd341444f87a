package namespace

import (
	"fmt"

	"github.com/anthropics/kotosynth/pkg/mtime"
	"github.com/anthropics/kotosynth/pkg/patch"
	"github.com/anthropics/kotosynth/pkg/sexpr"
	"github.com/anthropics/kotosynth/pkg/ugen"
	"github.com/anthropics/kotosynth/pkg/units"
)

// canonicalSkeleton is the zero-argument patch-language form mkdir builds
// when it sees a directory named "param.typename" for a typename it
// recognizes (spec §4.6): every op gets a fresh unit wired to constant
// zero inputs, matching the unit catalogue (spec §4.3).
var canonicalSkeleton = map[string]string{
	"pan":       "(pan 0 0)",
	"clip":      "(clip 0 0 0)",
	"offset":    "(offset 0 0)",
	"gain":      "(gain 0 0)",
	"+":         "(+)",
	"*":         "(*)",
	"out":       "(out 0)",
	"rand":      "(rand 0)",
	"sine":      "(sine 0 0)",
	"tri":       "(tri 0 0)",
	"saw":       "(saw 0 0)",
	"pulse":     "(pulse 0 0 0)",
	"phase":     "(phase 0)",
	"wavetable": "(wavetable (table -1 -1 -1 1 1 1) 0)",
	"adsr":      "(adsr 0 0 0 0)",
	"seq":       "(seq (pat) 0 0)",
	"lpf":       "(lpf 0 0 0)",
	"delay":     "(delay 0 0 0 0)",
	"trig":      "(trig 0)",
	"oneshot":   "(oneshot 0)",
	"table":     "(table 0)",
	"pat":       "(pat)",
}

// KnownOp reports whether typename names a buildable unit or leaf value,
// the same set pkg/patch's evaluator recognizes plus the two value types
// (table, pat) a directory can also stand in for.
func KnownOp(typename string) bool {
	_, ok := canonicalSkeleton[typename]
	return ok
}

// BuildCanonical evaluates typename's skeleton form and returns the
// resulting node, for mkdir on a directory with no prior content (spec
// §4.6). t supplies the sample rate and musical-time context a fresh
// seq/delay needs; its Tick/Pos don't otherwise matter since every
// skeleton's inputs are constant zero.
func BuildCanonical(typename string, t mtime.Time) (ugen.Node, error) {
	form, ok := canonicalSkeleton[typename]
	if !ok {
		return nil, fmt.Errorf("namespace: %q is not a known unit type", typename)
	}
	exprs, err := sexpr.Read(form)
	if err != nil {
		return nil, fmt.Errorf("namespace: canonical form for %q: %w", typename, err)
	}
	env := patch.NewEnv(t)
	v, err := patch.EvalAll(exprs, env)
	if err != nil {
		return nil, fmt.Errorf("namespace: building %q: %w", typename, err)
	}
	switch v.Kind {
	case patch.VUnit:
		return v.Unit, nil
	case patch.VTable:
		return units.NewTable(v.Table), nil
	case patch.VPattern:
		return units.NewPattern(v.Pattern), nil
	default:
		return nil, fmt.Errorf("namespace: %q did not evaluate to a value", typename)
	}
}
