// Package mtime implements musical time: sample-tick clocks and bar/beat
// position arithmetic relative to a time signature (Measure).
package mtime

import "math"

// Measure describes a time signature: how many beats make a bar, and how
// many subdivisions ("notes") make a beat.
type Measure struct {
	BeatsPerBar  uint64
	NotePerBeat  uint64
}

// NewMeasure returns the default 4/4 measure used when a patch doesn't
// specify one.
func NewMeasure() Measure {
	return Measure{BeatsPerBar: 4, NotePerBeat: 4}
}

// Position is a bar/beat/fractional-beat triple. Two positions compare by
// lexicographic (bar, beat, pos) order.
type Position struct {
	Bar  uint64
	Beat uint64
	Pos  float64
}

// Add returns p+q, measure-relative: fractional parts combine first, whole
// beats carry into Beat, and Beat carries into Bar once BeatsPerBar is
// reached. Beat wraps modulo NotePerBeat.
func (p Position) Add(q Position, m Measure) Position {
	posDiff := p.Pos + q.Pos
	beatDiff := p.Beat + q.Beat + uint64(math.Trunc(posDiff))

	return Position{
		Bar:  p.Bar + q.Bar + beatDiff/m.BeatsPerBar,
		Beat: beatDiff % m.NotePerBeat,
		Pos:  frac(posDiff),
	}
}

// AddBeats adds a fractional number of beats to p.
func (p Position) AddBeats(beats float64, m Measure) Position {
	return p.Add(Position{Pos: beats}, m)
}

// Sub returns p-q, computed by flattening both positions into fractional
// "note" units, differencing, and re-decomposing.
func (p Position) Sub(q Position, m Measure) Position {
	toNotes := func(x Position) float64 {
		return float64((x.Bar*m.BeatsPerBar+x.Beat)*m.NotePerBeat) + x.Pos
	}
	diff := toNotes(p) - toNotes(q)
	if diff < 0 {
		return Position{}
	}

	whole := uint64(math.Trunc(diff))
	return Position{
		Bar:  whole / m.NotePerBeat / m.BeatsPerBar,
		Beat: whole / m.NotePerBeat % m.BeatsPerBar,
		Pos:  frac(diff),
	}
}

// Compare returns -1, 0, or 1 as p is less than, equal to, or greater than
// q, using the total (Bar, Beat, Pos) order.
func (p Position) Compare(q Position) int {
	switch {
	case p.Bar != q.Bar:
		return cmpUint(p.Bar, q.Bar)
	case p.Beat != q.Beat:
		return cmpUint(p.Beat, q.Beat)
	case p.Pos != q.Pos:
		if p.Pos < q.Pos {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// LessEqual reports whether p sorts at or before q.
func (p Position) LessEqual(q Position) bool {
	return p.Compare(q) <= 0
}

func cmpUint(a, b uint64) int {
	if a < b {
		return -1
	}
	return 1
}

func frac(v float64) float64 {
	return v - math.Trunc(v)
}
