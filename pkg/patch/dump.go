package patch

import (
	"fmt"

	"github.com/anthropics/kotosynth/pkg/sexpr"
	"github.com/anthropics/kotosynth/pkg/ugen"
)

// Dump renders root's structural description (spec §4.2's Dump) back into a
// sequence of patch-language forms: a `(def sharedN ...)` binding for every
// node in root's shared-set followed by the form for root itself, which
// references those bindings by symbol instead of nesting them again. Parsing
// and evaluating the result reproduces a graph structurally equal to root
// (spec §8 property 2, "round-trip").
func Dump(root ugen.Node) []sexpr.Expr {
	shared := ugen.ComputeSharedSet(root)
	names := make(map[int]string, len(shared))
	for _, idx := range shared {
		names[idx] = fmt.Sprintf("shared%d", idx)
	}

	var defs []sexpr.Expr
	emitted := map[int]bool{}
	var walk func(n ugen.Node)
	walk = func(n ugen.Node) {
		if idx, ok := shared[n]; ok {
			if emitted[idx] {
				return
			}
			emitted[idx] = true
		}
		n.Walk(func(child ugen.Node) bool {
			walk(child)
			return true
		})
		if idx, ok := shared[n]; ok {
			defs = append(defs, sexpr.Lst(sexpr.Sym("def"), sexpr.Sym(names[idx]), dumpToExpr(n.Dump(shared), names)))
		}
	}
	walk(root)

	return append(defs, dumpToExpr(root.Dump(shared), names))
}

// dumpToExpr converts one DumpNode into its s-expression form, substituting
// a bound shared-name symbol for any slot the dump marks as a shared
// reference rather than re-printing the nested structure.
func dumpToExpr(d ugen.DumpNode, names map[int]string) sexpr.Expr {
	if d.IsLeaf {
		switch d.LeafKind {
		case ugen.LeafTable:
			items := make([]sexpr.Expr, len(d.Table))
			for i, v := range d.Table {
				items[i] = sexpr.Num(v)
			}
			return sexpr.Lst(append([]sexpr.Expr{sexpr.Sym("table")}, items...)...)
		case ugen.LeafPattern:
			items := make([]sexpr.Expr, len(d.Pattern))
			for i, m := range d.Pattern {
				items[i] = sexpr.Sym(m)
			}
			return sexpr.Lst(append([]sexpr.Expr{sexpr.Sym("pat")}, items...)...)
		default:
			return sexpr.Num(d.Number)
		}
	}

	items := []sexpr.Expr{sexpr.Sym(d.Op)}
	for _, s := range d.Slots {
		items = append(items, slotExpr(s, names))
	}
	for _, s := range d.Variadic {
		items = append(items, slotExpr(s, names))
	}
	return sexpr.Lst(items...)
}

func slotExpr(s ugen.DumpSlot, names map[int]string) sexpr.Expr {
	if s.Shared {
		return sexpr.Sym(names[s.Index])
	}
	return dumpToExpr(*s.Nested, names)
}

// DumpString renders Dump's forms as patch-language source text, one form
// per line.
func DumpString(root ugen.Node) string {
	var out string
	for _, e := range Dump(root) {
		out += sexpr.Print(e) + "\n"
	}
	return out
}
