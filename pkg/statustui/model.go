// Package statustui renders a read-only terminal dashboard over a
// live patch: tick count, musical position, shared-node count, and
// mount path. Unlike the teacher's pkg/tui, there is no pattern
// editor here -- every mutation to a running patch happens through
// the mounted file system, not through this program, so the model
// only ever reads.
package statustui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/anthropics/kotosynth/pkg/mtime"
	"github.com/anthropics/kotosynth/pkg/namespace"
	"github.com/anthropics/kotosynth/pkg/ugen"
)

// Model is the dashboard's state. It holds references into the live
// graph/clock/namespace rather than a copy, refreshing a local
// snapshot on every tick.
type Model struct {
	Graph     *ugen.Graph
	Clock     *mtime.Time
	Tree      *namespace.Tree
	MountPath string

	Width, Height int

	tick   uint64
	bpm    float64
	pos    mtime.Position
	shared int
	stale  bool
}

// New builds a dashboard over a live graph/clock/namespace triple.
func New(graph *ugen.Graph, clock *mtime.Time, tree *namespace.Tree, mountPath string) Model {
	return Model{Graph: graph, Clock: clock, Tree: tree, MountPath: mountPath, Width: 80, Height: 24}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, tickCmd())
}

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(_ time.Time) tea.Msg { return tickMsg{} })
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil
	case tickMsg:
		m.refresh()
		return m, tickCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	}
	return m, nil
}

// refresh snapshots the graph's clock under TryLock, the same
// graceful-degradation rule pkg/audiodriver uses: a busy graph just
// means the dashboard shows the previous tick's numbers a bit longer.
func (m *Model) refresh() {
	if !m.Graph.TryLock() {
		m.stale = true
		return
	}
	defer m.Graph.Unlock()
	m.stale = false
	m.tick = m.Clock.Tick
	m.bpm = m.Clock.BPM
	m.pos = m.Clock.Pos
	m.shared = countShared(m.Tree.Root)
}

func countShared(n *namespace.Node) int {
	count := 0
	for _, c := range n.Children {
		switch c.Node.Attr.Kind {
		case namespace.KindSymlink:
			count++
		case namespace.KindDir:
			count += countShared(c.Node)
		}
	}
	return count
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")).Render("kotosynth")
	b.WriteString(title)
	b.WriteString("  ")
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.MountPath))
	b.WriteString("\n\n")

	val := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	fmt.Fprintf(&b, "tick    %s\n", val.Render(fmt.Sprintf("%d", m.tick)))
	fmt.Fprintf(&b, "pos     %s\n", val.Render(fmt.Sprintf("%d.%d.%.3f", m.pos.Bar, m.pos.Beat, m.pos.Pos)))
	fmt.Fprintf(&b, "bpm     %.1f\n", m.bpm)
	fmt.Fprintf(&b, "shared  %d\n", m.shared)

	if m.stale {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Render("(patch busy, showing last frame)"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("q to quit"))
	return b.String()
}
