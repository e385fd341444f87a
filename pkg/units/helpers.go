package units

import (
	"strconv"
	"strings"

	"github.com/anthropics/kotosynth/pkg/ugen"
)

// operate is the subset of ugen.Operate the helpers below need; any unit
// satisfies it since ugen.Node embeds ugen.Operate.
type operate interface {
	Get(name string) (ugen.Node, error)
	Set(name string, n ugen.Node) error
}

// getStrViaGet implements GetStr in terms of Get for every slot whose
// current value is a plain Const: most scalar slots across the catalogue
// follow this pattern exactly, so Operate.GetStr is almost never
// hand-rolled per unit.
func getStrViaGet(u operate, unitName, name string) (string, error) {
	n, err := u.Get(name)
	if err != nil {
		return "", err
	}
	c, ok := n.(*ugen.Const)
	if !ok {
		return "", ugen.NotString(unitName, name)
	}
	return ugen.FormatFloat(c.Value()), nil
}

// setStrAsConst implements SetStr by parsing text as a float and replacing
// the named slot with a fresh Const, the behavior spec §4.6's sync_file
// drives for every "param.val" write.
func setStrAsConst(u operate, unitName, name, text string) error {
	v, err := ugen.ParseFloatText(text)
	if err != nil {
		return ugen.BadType(unitName, name)
	}
	if _, err := u.Get(name); err != nil {
		return err
	}
	return u.Set(name, ugen.NewConst(v))
}

// srcIndex parses "src3" -> (3, true); used by the variadic mixers to
// address their tail slots by name.
func srcIndex(name string) (int, bool) {
	if !strings.HasPrefix(name, "src") {
		return 0, false
	}
	n, err := strconv.Atoi(name[len("src"):])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// formatTable renders a table's contents as space-separated values
// terminated by a newline, the "tab" file format spec §4.5 defines.
func formatTable(vs []float64) string {
	var b strings.Builder
	for _, v := range vs {
		b.WriteString(ugen.FormatFloat(v))
		b.WriteByte(' ')
	}
	b.WriteByte('\n')
	return b.String()
}

// FormatTable is formatTable exported for pkg/namespace, which needs to
// produce the identical "tab" file text when materializing a Table leaf
// that wasn't reached through a unit's GetStr.
func FormatTable(vs []float64) string { return formatTable(vs) }

// ParseTable is parseTable exported for pkg/namespace's sync path.
func ParseTable(text string) ([]float64, error) { return parseTable(text) }

// parseTable parses a "tab" file's space-separated values back into a
// table's contents.
func parseTable(text string) ([]float64, error) {
	fields := strings.Fields(text)
	vs := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	return vs, nil
}
