package units

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/anthropics/kotosynth/pkg/mtime"
	"github.com/anthropics/kotosynth/pkg/pitch"
	"github.com/anthropics/kotosynth/pkg/ugen"
)

// MessageKind distinguishes a pattern's four message shapes (spec §4.3):
// a pitched note, a percussion kick, a rest, and a loop-back sentinel.
type MessageKind int

const (
	MsgNote MessageKind = iota
	MsgKick
	MsgRest
	MsgLoop
)

// Message is one entry of a Pattern: either `(pitch len)` for Note/Rest,
// `(k len)` for Kick, or the bare symbol `loop`.
type Message struct {
	Kind  MessageKind
	Pitch pitch.Pitch
	Len   int
}

func (m Message) String() string {
	switch m.Kind {
	case MsgLoop:
		return "loop"
	case MsgKick:
		return fmt.Sprintf("(k %d)", m.Len)
	case MsgRest:
		return fmt.Sprintf("(r %d)", m.Len)
	default:
		return fmt.Sprintf("(%s%d %d)", stepLetters[m.Pitch.Step], m.Pitch.Oct, m.Len)
	}
}

var stepLetters = map[int]string{
	0: "a", 1: "a+", 2: "b", 3: "c", 4: "c+", 5: "d",
	6: "d+", 7: "e", 8: "f", 9: "f+", 10: "g", 11: "g+",
}

// FormatMessages renders a pattern's messages as the "pat" file format:
// one parenthesized-or-bare message per line.
func FormatMessages(msgs []Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(m.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// ParseMessages parses a "pat" file's contents back into a message list.
// Each line is either the bare word "loop" or "(pitch len)"/"(k len)".
func ParseMessages(text string) ([]Message, error) {
	var msgs []Message
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "loop" {
			msgs = append(msgs, Message{Kind: MsgLoop})
			continue
		}
		line = strings.TrimSuffix(strings.TrimPrefix(line, "("), ")")
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("units: malformed pattern message %q", line)
		}
		length, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("units: bad length in %q: %w", line, err)
		}
		if fields[0] == "k" {
			msgs = append(msgs, Message{Kind: MsgKick, Len: length})
			continue
		}
		p, err := pitch.Parse(fields[0])
		if err != nil {
			return nil, err
		}
		kind := MsgNote
		if p.Rest {
			kind = MsgRest
		}
		msgs = append(msgs, Message{Kind: kind, Pitch: p, Len: length})
	}
	return msgs, nil
}

// Pattern is the Pattern node variant: an ordered sequence of sequencer
// messages. Like Table, it carries no audio signal and is addressed only
// through the slot of the Seq unit that owns it.
type Pattern struct {
	ugen.Base
	messages []Message
}

func NewPattern(msgs []Message) *Pattern {
	return &Pattern{messages: append([]Message(nil), msgs...)}
}

func (u *Pattern) Walk(visit func(ugen.Node) bool) {}

func (u *Pattern) Dump(shared map[ugen.Node]int) ugen.DumpNode {
	msgs := u.Messages()
	strs := make([]string, len(msgs))
	for i, m := range msgs {
		strs[i] = m.String()
	}
	return ugen.PatternLeaf(strs)
}

func (u *Pattern) Proc(t mtime.Time) ugen.Signal { return ugen.Signal{} }

func (u *Pattern) Messages() []Message {
	u.Lock()
	defer u.Unlock()
	return append([]Message(nil), u.messages...)
}

func (u *Pattern) SetMessages(msgs []Message) {
	u.Lock()
	u.messages = append([]Message(nil), msgs...)
	u.Unlock()
}

func (u *Pattern) Get(name string) (ugen.Node, error)     { return nil, ugen.Unknown("pat", name) }
func (u *Pattern) GetStr(name string) (string, error)     { return "", ugen.Unknown("pat", name) }
func (u *Pattern) Set(name string, n ugen.Node) error     { return ugen.Unknown("pat", name) }
func (u *Pattern) SetStr(name string, text string) error  { return ugen.Unknown("pat", name) }
func (u *Pattern) Clear(name string)                      {}

// event is one entry of Seq's runtime queue, built from a Pattern's
// messages relative to a base position (spec §4.3).
type event struct {
	kind MessageKind // MsgNote (On), MsgKick (Kick), eventOff (Off), MsgLoop
	pos  mtime.Position
	freq float64
}

const eventOff MessageKind = 100

// Seq is the `seq(pattern, osc, eg)` op: it expands pattern into an event
// queue on construction and drives osc/eg from it every tick.
type Seq struct {
	ugen.Base
	pattern *Pattern
	osc     ugen.Node
	eg      ugen.Node
	queue   []event
}

// NewSeq builds a seq node and fills its initial queue from pattern,
// relative to t's current position and measure.
func NewSeq(pattern *Pattern, osc, eg ugen.Node, t mtime.Time) *Seq {
	u := &Seq{pattern: pattern, osc: osc, eg: eg}
	u.fillQueue(t.Pos, t.Measure)
	return u
}

func (u *Seq) fillQueue(base mtime.Position, measure mtime.Measure) {
	pos := base
	for _, m := range u.pattern.Messages() {
		switch m.Kind {
		case MsgNote:
			if m.Pitch.Rest {
				pos = pos.AddBeats(pitch.LengthToBeats(m.Len), measure)
				continue
			}
			u.queue = append(u.queue, event{kind: MsgNote, pos: pos, freq: m.Pitch.Freq()})
			pos = pos.AddBeats(pitch.LengthToBeats(m.Len), measure)
			u.queue = append(u.queue, event{kind: eventOff, pos: pos})
		case MsgRest:
			pos = pos.AddBeats(pitch.LengthToBeats(m.Len), measure)
		case MsgKick:
			u.queue = append(u.queue, event{kind: MsgKick, pos: pos})
			pos = pos.AddBeats(pitch.LengthToBeats(m.Len), measure)
			u.queue = append(u.queue, event{kind: eventOff, pos: pos})
		case MsgLoop:
			u.queue = append(u.queue, event{kind: MsgLoop, pos: pos})
		}
	}
}

func (u *Seq) Walk(visit func(ugen.Node) bool) {
	if visit(u.pattern) {
		u.pattern.Walk(visit)
	}
	if visit(u.osc) {
		u.osc.Walk(visit)
	}
	if visit(u.eg) {
		u.eg.Walk(visit)
	}
}

func (u *Seq) Dump(shared map[ugen.Node]int) ugen.DumpNode {
	return ugen.DumpNode{Op: "seq", Slots: []ugen.DumpSlot{
		ugen.Slot("pattern", u.pattern, shared),
		ugen.Slot("osc", u.osc, shared),
		ugen.Slot("eg", u.eg, shared),
	}}
}

func (u *Seq) Proc(t mtime.Time) ugen.Signal {
	return u.Memo(t, func() ugen.Signal {
		osig := u.osc.Proc(t)
		esig := u.eg.Proc(t)

		if len(u.queue) > 0 {
			head := u.queue[0]
			if head.pos.LessEqual(t.Pos) {
				u.queue = u.queue[1:]
				switch head.kind {
				case MsgNote:
					if o, ok := u.osc.(ugen.Oscillator); ok {
						o.SetFreq(ugen.NewConst(head.freq))
					}
					if e, ok := u.eg.(ugen.Envelope); ok {
						e.SetGate(ugen.GateAttack, 0)
					}
				case MsgKick:
					if e, ok := u.eg.(ugen.Envelope); ok {
						e.SetGate(ugen.GateAttack, 0)
					}
				case eventOff:
					if e, ok := u.eg.(ugen.Envelope); ok {
						e.SetGate(ugen.GateRelease, 0)
					}
				case MsgLoop:
					base := mtime.Position{Bar: t.Pos.Bar}
					u.fillQueue(base, t.Measure)
				}
			}
		}

		return ugen.Signal{L: osig.L * esig.L, R: osig.R * esig.R}
	})
}

func (u *Seq) Get(name string) (ugen.Node, error) {
	switch name {
	case "pattern":
		return u.pattern, nil
	case "osc":
		return u.osc, nil
	case "eg":
		return u.eg, nil
	}
	return nil, ugen.Unknown("seq", name)
}

func (u *Seq) GetStr(name string) (string, error) {
	if name != "pattern" {
		return "", ugen.NotString("seq", name)
	}
	return FormatMessages(u.pattern.Messages()), nil
}

func (u *Seq) Set(name string, n ugen.Node) error {
	u.Lock()
	defer u.Unlock()
	switch name {
	case "pattern":
		p, ok := n.(*Pattern)
		if !ok {
			return ugen.BadType("seq", name)
		}
		u.pattern = p
	case "osc":
		u.osc = n
	case "eg":
		u.eg = n
	default:
		return ugen.Unknown("seq", name)
	}
	return nil
}

func (u *Seq) SetStr(name, text string) error {
	if name != "pattern" {
		return ugen.Unknown("seq", name)
	}
	msgs, err := ParseMessages(text)
	if err != nil {
		return ugen.BadType("seq", name)
	}
	u.pattern.SetMessages(msgs)
	return nil
}

func (u *Seq) Clear(name string) {
	switch name {
	case "osc", "eg":
		_ = u.Set(name, ugen.NewConst(0))
	case "pattern":
		u.pattern.SetMessages(nil)
	}
}
