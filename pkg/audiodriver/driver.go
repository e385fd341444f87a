// Package audiodriver pulls sample-accurate stereo audio from a unit
// graph's root and hands it to the operating system's audio device
// through oto, the way the teacher's pkg/audio.RealtimeOutput pulls
// from a tracker Player.
package audiodriver

import (
	"encoding/binary"
	"math"

	"github.com/ebitengine/oto/v3"
	"github.com/rs/zerolog"

	"github.com/anthropics/kotosynth/pkg/mtime"
	"github.com/anthropics/kotosynth/pkg/ugen"
)

// bytesPerFrame is one stereo frame of 32-bit float samples: 4 bytes
// per channel, 2 channels.
const bytesPerFrame = 4 * 2

// Driver owns the live audio clock and renders one stereo frame per
// tick from the graph's root. Unlike the teacher's RealtimeOutput,
// which owns no lock at all (a tracker song's structure never changes
// during playback), Driver TryLocks the graph before every frame:
// pkg/fsadapter may be mutating the same graph concurrently from the
// FUSE thread, and losing that race is the expected case, not an
// error -- the frame is rendered by reusing the previous one rather
// than blocking the audio callback (spec §5's glitch-over-stall
// tradeoff).
type Driver struct {
	graph *ugen.Graph
	clock *mtime.Time
	log   zerolog.Logger

	ctx    *oto.Context
	player *oto.Player
	last   ugen.Signal
}

// NewDriver opens an oto output at clock's sample rate and channel
// count and starts pulling frames from graph immediately. The caller
// retains ownership of clock and graph; Driver renders from graph and
// advances clock, both from Read on oto's own goroutine and only while
// it holds the graph's lock.
func NewDriver(graph *ugen.Graph, clock *mtime.Time, log zerolog.Logger) (*Driver, error) {
	op := &oto.NewContextOptions{
		SampleRate:   int(clock.SampleRate),
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	d := &Driver{graph: graph, clock: clock, log: log, ctx: ctx}
	d.player = ctx.NewPlayer(d)
	d.player.SetBufferSize(int(clock.SampleRate) / 10)
	d.player.Play()
	return d, nil
}

// Close stops playback.
func (d *Driver) Close() error {
	return d.player.Close()
}

// Read implements io.Reader for oto's pull model: every 8 bytes
// requested is one interleaved left/right float32 frame.
func (d *Driver) Read(buf []byte) (int, error) {
	frames := len(buf) / bytesPerFrame
	for i := 0; i < frames; i++ {
		sig := d.nextFrame()
		off := i * bytesPerFrame
		putFloat32(buf[off:], clamp(sig.L))
		putFloat32(buf[off+4:], clamp(sig.R))
	}
	return frames * bytesPerFrame, nil
}

func (d *Driver) nextFrame() ugen.Signal {
	if !d.graph.TryLock() {
		return d.last
	}
	defer d.graph.Unlock()

	sig := d.graph.RootLocked().Proc(*d.clock)
	d.clock.Advance()
	d.last = sig
	return sig
}

func clamp(v float64) float32 {
	switch {
	case v > 1:
		v = 1
	case v < -1:
		v = -1
	}
	return float32(v)
}

func putFloat32(buf []byte, v float32) {
	binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
}
