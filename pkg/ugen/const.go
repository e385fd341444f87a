package ugen

import (
	"strconv"
	"strings"
	"sync"

	"github.com/anthropics/kotosynth/pkg/mtime"
)

// Const is the Constant node variant: a bare real value that renders as
// (v, v) every tick. Every numeric literal in a patch becomes one, and
// every scalar slot write (a regular file's "val" content) replaces or
// mutates a Const.
type Const struct {
	mu    sync.Mutex
	value float64
}

// NewConst returns a Constant node holding v.
func NewConst(v float64) *Const { return &Const{value: v} }

func (c *Const) Walk(visit func(Node) bool) {}

func (c *Const) Dump(shared map[Node]int) DumpNode { return Leaf(c.Value()) }

func (c *Const) Proc(t mtime.Time) Signal {
	v := c.Value()
	return Signal{L: v, R: v}
}

// Value returns the current numeric value.
func (c *Const) Value() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// SetValue replaces the numeric value in place, so nodes that already hold
// a reference to this Const see the update on their next Proc.
func (c *Const) SetValue(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
}

func (c *Const) Get(name string) (Node, error) { return nil, Unknown("const", name) }

func (c *Const) GetStr(name string) (string, error) {
	if name != "val" {
		return "", Unknown("const", name)
	}
	return FormatFloat(c.Value()), nil
}

func (c *Const) Set(name string, n Node) error { return Unknown("const", name) }

func (c *Const) SetStr(name string, text string) error {
	if name != "val" {
		return Unknown("const", name)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return BadType("const", name)
	}
	c.SetValue(v)
	return nil
}

func (c *Const) Clear(name string) {
	if name == "val" {
		c.SetValue(0)
	}
}

// FormatFloat renders a value the way every "val" file and s-expression
// number literal is printed: shortest round-trippable decimal form.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ParseFloatText trims a trailing newline (as every file-system write
// does) and parses the remainder as a float, for SetStr implementations.
func ParseFloatText(text string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(text), 64)
}
