package sliders

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/optlab/internal/multibody"
)

const barWidth = 30

var (
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	nameStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(18)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Width(18)
	barStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("49"))
	valueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// Publisher receives joint positions as they change. *viewer.Server
// satisfies it.
type Publisher interface {
	PublishPoses(plant *multibody.Plant, q []float64) error
	SetCollisionVisible(plant *multibody.Plant, visible bool) error
}

// Model is a terminal panel with one slider per non-fixed joint.
type Model struct {
	plant *multibody.Plant
	pub   Publisher

	names         []string
	q             []float64
	selected      int
	showCollision bool
	lastErr       error
}

func NewModel(plant *multibody.Plant, pub Publisher) Model {
	return Model{
		plant: plant,
		pub:   pub,
		names: plant.JointNames(),
		q:     plant.DefaultPositions(),
	}
}

// Positions returns the current joint positions.
func (m Model) Positions() []float64 {
	out := make([]float64, len(m.q))
	copy(out, m.q)
	return out
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.q)-1 {
			m.selected++
		}
	case "left", "h":
		m = m.adjust(-1)
	case "right", "l":
		m = m.adjust(1)
	case "shift+left", "H":
		m = m.adjust(-10)
	case "shift+right", "L":
		m = m.adjust(10)
	case "0":
		m.q = m.plant.DefaultPositions()
		m = m.publish()
	case "c":
		m.showCollision = !m.showCollision
		m.lastErr = m.pub.SetCollisionVisible(m.plant, m.showCollision)
	}
	return m, nil
}

// adjust moves the selected joint by n fine steps, clamped to its limits.
func (m Model) adjust(n int) Model {
	if len(m.q) == 0 {
		return m
	}
	lo, hi := m.plant.JointLimits(m.selected)
	step := stepSize(lo, hi)
	m.q[m.selected] = clamp(m.q[m.selected]+float64(n)*step, lo, hi)
	return m.publish()
}

func (m Model) publish() Model {
	m.lastErr = m.pub.PublishPoses(m.plant, m.q)
	return m
}

func stepSize(lo, hi float64) float64 {
	span := hi - lo
	if span <= 0 || span > 1e6 {
		span = 2 * math.Pi
	}
	return span / 100
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("joints: %s", m.plant.Model().Name)))
	b.WriteString("\n")

	if len(m.q) == 0 {
		b.WriteString(nameStyle.Render("(no movable joints)"))
		b.WriteString("\n")
	}

	for i, name := range m.names {
		style := nameStyle
		if i == m.selected {
			style = selectedStyle
		}
		lo, hi := m.plant.JointLimits(i)
		b.WriteString(style.Render(name))
		b.WriteString(barStyle.Render(renderBar(m.q[i], lo, hi)))
		b.WriteString(valueStyle.Render(fmt.Sprintf(" %8.3f", m.q[i])))
		b.WriteString("\n")
	}

	if m.lastErr != nil {
		b.WriteString(errStyle.Render(fmt.Sprintf("publish error: %v", m.lastErr)))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("↑/↓ select  ←/→ move  H/L coarse  0 reset  c collision  q quit"))
	return b.String()
}

func renderBar(v, lo, hi float64) string {
	span := hi - lo
	if span <= 0 || span > 1e6 {
		lo, span = -math.Pi, 2*math.Pi
	}
	pos := int(math.Round((clamp(v, lo, lo+span) - lo) / span * float64(barWidth-1)))

	var b strings.Builder
	b.WriteString(" [")
	for i := 0; i < barWidth; i++ {
		if i == pos {
			b.WriteString("●")
		} else {
			b.WriteString("─")
		}
	}
	b.WriteString("]")
	return b.String()
}

// Run publishes the plant once and opens the slider panel, blocking until
// the user quits.
func Run(plant *multibody.Plant, pub Publisher) error {
	m := NewModel(plant, pub)
	if err := m.pub.PublishPoses(plant, m.q); err != nil {
		return err
	}
	p := tea.NewProgram(m)
	_, err := p.Run()
	return err
}
