// Package pitch converts patch-language pitch names to frequencies and
// sequencer length integers to beat positions.
package pitch

import (
	"fmt"
	"math"
)

// Pitch is a parsed note name: a step within the octave, an octave number,
// and whether it denotes a rest.
type Pitch struct {
	Step int
	Oct  int
	Rest bool
}

var steps = map[byte]int{
	'a': 0, 'b': 2, 'c': 3, 'd': 5, 'e': 7, 'f': 8, 'g': 10,
}

// Parse reads a pitch name: one of `a b c d e f g r`, an optional `+`/`-`
// accidental, and an optional single decimal digit octave (default 4). `r`
// denotes a rest and ignores any trailing digits.
func Parse(name string) (Pitch, error) {
	if name == "" {
		return Pitch{}, fmt.Errorf("pitch: empty name")
	}
	if name[0] == 'r' {
		return Pitch{Rest: true}, nil
	}

	step, ok := steps[name[0]]
	if !ok {
		return Pitch{}, fmt.Errorf("pitch: unknown letter %q", name[0])
	}

	rest := name[1:]
	if len(rest) > 0 && (rest[0] == '+' || rest[0] == '-') {
		if rest[0] == '+' {
			step++
		} else {
			step--
		}
		rest = rest[1:]
	}

	oct := 4
	if len(rest) > 0 {
		d := rest[0]
		if d < '0' || d > '9' {
			return Pitch{}, fmt.Errorf("pitch: bad octave digit %q", d)
		}
		oct = int(d - '0')
		rest = rest[1:]
	}
	if rest != "" {
		return Pitch{}, fmt.Errorf("pitch: trailing garbage %q", rest)
	}

	return Pitch{Step: mod12(step), Oct: oct}, nil
}

// Freq converts p to a frequency in Hz: 440 * 2^(n/12 + o - 5). Rests have
// no frequency; callers must check Rest first.
func (p Pitch) Freq() float64 {
	return 440.0 * math.Pow(2, float64(p.Step)/12.0+float64(p.Oct)-5.0)
}

func mod12(n int) int {
	n %= 12
	if n < 0 {
		n += 12
	}
	return n
}

// LengthToBeats maps a sequencer length integer to a duration in beats:
// 0 -> 0.125, 1..4 -> len/4, >4 -> 2^(len-4).
func LengthToBeats(length int) float64 {
	switch {
	case length == 0:
		return 0.125
	case length >= 1 && length <= 4:
		return float64(length) / 4.0
	default:
		return math.Pow(2, float64(length-4))
	}
}
