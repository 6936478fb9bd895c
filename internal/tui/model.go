package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"squash/internal/search"
	"squash/internal/workflow"
)

// Model renders a running size search from the controller's event
// stream. It quits when the stream is closed.
type Model struct {
	events   <-chan workflow.Event
	cancel   func()
	budget   int
	spinner  spinner.Model
	started  time.Time
	width    int
	busy     bool
	attempts []search.Attempt
	outcome  *workflow.Outcome
	quitting bool
}

type doneMsg struct{}

type eventMsg workflow.Event

// NewModel builds a model for a run with the given byte budget. cancel
// is called when the user interrupts; it may be nil.
func NewModel(events <-chan workflow.Event, budget int, cancel func()) Model {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(ColorAccent)),
	)
	return Model{events: events, cancel: cancel, budget: budget, spinner: s, started: time.Now()}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, listenForEvents(m.events))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		m.busy = msg.InProgress
		if msg.Attempt != nil {
			m.attempts = append(m.attempts, *msg.Attempt)
		}
		if msg.Outcome != nil {
			out := *msg.Outcome
			m.outcome = &out
		}
		return m, listenForEvents(m.events)
	case doneMsg:
		m.busy = false
		m.quitting = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" && m.cancel != nil {
			m.cancel()
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

// Busy mirrors the controller's in-progress flag as last reported.
func (m Model) Busy() bool {
	return m.busy
}

func (m Model) Attempts() []search.Attempt {
	return m.attempts
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	lines := []string{titleStyle.Render("squash")}
	if m.busy {
		lines = append(lines, m.spinner.View()+labelStyle.Render(" compressing"))
	} else if m.outcome == nil {
		lines = append(lines, dimStyle.Render("waiting for an image"))
	}

	barWidth := 30
	if m.width > 0 {
		barWidth = min(40, max(10, m.width-40))
	}
	for _, a := range m.attempts {
		lines = append(lines, renderAttempt(a, m.budget, barWidth))
	}

	if m.outcome != nil {
		lines = append(lines, RenderOutcome(*m.outcome))
	}
	lines = append(lines, dimStyle.Render(fmt.Sprintf("Elapsed: %s", time.Since(m.started).Round(time.Millisecond))))
	return strings.Join(lines, "\n")
}

func renderAttempt(a search.Attempt, budget, width int) string {
	dims := "source"
	if a.MaxWidth > 0 {
		dims = fmt.Sprintf("%dx%d", a.MaxWidth, a.MaxHeight)
	}
	label := fmt.Sprintf("#%-2d q%-3d %-9s %8s", a.Index, a.Quality, dims, humanize.Bytes(uint64(a.Size)))

	ratio := 0.0
	if budget > 0 {
		ratio = float64(budget) / float64(max(a.Size, 1))
	}
	style := overStyle
	if a.Size <= budget {
		style = fitStyle
	}
	return labelStyle.Render(label) + " " + style.Render(renderBar(width, ratio))
}

func listenForEvents(events <-chan workflow.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(e)
	}
}

// renderBar fills ratio of width; ratio is clamped to [0, 1].
func renderBar(width int, ratio float64) string {
	filled := int(math.Round(ratio * float64(width)))
	filled = min(max(filled, 0), width)
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle = lipgloss.NewStyle().Foreground(ColorInk)
	dimStyle   = lipgloss.NewStyle().Foreground(ColorDim)
	fitStyle   = lipgloss.NewStyle().Foreground(ColorSuccess)
	overStyle  = lipgloss.NewStyle().Foreground(ColorWarn)
)
