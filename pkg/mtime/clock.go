package mtime

// Time is the clock handed into every render call. The audio thread owns
// the only mutable Time; everything else only ever reads a copy of it.
type Time struct {
	SampleRate uint
	Tick       uint64
	BPM        float64
	Measure    Measure
	Pos        Position
}

// NewTime returns a Time at tick 0, position (0,0,0), in 4/4.
func NewTime(sampleRate uint, bpm float64) Time {
	return Time{
		SampleRate: sampleRate,
		BPM:        bpm,
		Measure:    NewMeasure(),
		Pos:        Position{},
	}
}

// Advance increments Tick and moves Pos forward by BPM/(60*SampleRate)
// beats. Only the audio thread calls this.
func (t *Time) Advance() {
	t.Tick++
	beats := t.BPM / 60.0 / float64(t.SampleRate)
	t.Pos = t.Pos.AddBeats(beats, t.Measure)
}
