package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"squash/internal/acquire"
	"squash/internal/search"
	"squash/internal/workflow"
	"squash/pkg/imgutil"
)

func feed(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

func TestModelTracksRun(t *testing.T) {
	events := make(chan workflow.Event)
	m := NewModel(events, 100000, nil)

	m = feed(t, m, eventMsg{RunID: "r", InProgress: true})
	assert.True(t, m.Busy())
	assert.Contains(t, m.View(), "compressing")

	m = feed(t, m,
		eventMsg{RunID: "r", InProgress: true, Attempt: &search.Attempt{Index: 1, Quality: 90, Size: 480000}},
		eventMsg{RunID: "r", InProgress: true, Attempt: &search.Attempt{Index: 2, Quality: 70, Size: 90000}},
	)
	require.Len(t, m.Attempts(), 2)
	view := m.View()
	assert.Contains(t, view, "#1  q90")
	assert.Contains(t, view, "#2  q70")
	assert.NotContains(t, view, "#3")
	assert.Contains(t, view, "480 kB")
	assert.Contains(t, view, "90 kB")

	out := workflow.Outcome{Kind: workflow.KindSatisfied, Image: imgutil.DataURL(strings.Repeat("A", 90000))}
	m = feed(t, m, eventMsg{RunID: "r", InProgress: false, Outcome: &out})
	assert.False(t, m.Busy())
	assert.NotContains(t, m.View(), "compressing")
	assert.Contains(t, m.View(), "satisfied")
}

func TestModelQuitsWhenStreamCloses(t *testing.T) {
	events := make(chan workflow.Event)
	close(events)
	m := NewModel(events, 0, nil)

	msg := listenForEvents(events)()
	assert.IsType(t, doneMsg{}, msg)

	next, cmd := m.Update(msg)
	require.NotNil(t, cmd)
	assert.Empty(t, next.View())
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModelCancelsOnInterrupt(t *testing.T) {
	cancelled := false
	m := NewModel(make(chan workflow.Event), 0, func() { cancelled = true })

	feed(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, cancelled)
}

func TestRenderAttemptNumbersFromOne(t *testing.T) {
	line := renderAttempt(search.Attempt{Index: 1, Quality: 90, Size: 480000}, 100000, 10)
	assert.True(t, strings.HasPrefix(line, "#1 "), line)

	line = renderAttempt(search.Attempt{Index: 6, Quality: 10, MaxWidth: 48, MaxHeight: 36, Size: 5000}, 100000, 10)
	assert.True(t, strings.HasPrefix(line, "#6 "), line)
	assert.Contains(t, line, "48x36")
}

func TestRenderBarClamps(t *testing.T) {
	assert.Equal(t, "[====]", renderBar(4, 3))
	assert.Equal(t, "[    ]", renderBar(4, -1))
	assert.Equal(t, "[==  ]", renderBar(4, 0.5))
}

func TestRenderSummaryAligns(t *testing.T) {
	out := RenderSummary([]SummaryRow{{Label: "Result", Value: "satisfied"}, {Label: "Attempts", Value: "4"}})
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, lines[0], lines[3])
	assert.Equal(t, strings.Index(lines[1], "|"), strings.Index(lines[2], "|"))
}

func TestOutcomeRows(t *testing.T) {
	out := workflow.Outcome{
		Kind:   workflow.KindBestEffort,
		Upload: acquire.Upload{FileName: "a.jpg", Image: imgutil.DataURL(strings.Repeat("A", 500000))},
		Image:  imgutil.DataURL(strings.Repeat("A", 80000)),
		Search: search.Result{Attempts: make([]search.Attempt, 5)},
	}
	rows := OutcomeRows(out, 1000)

	got := map[string]string{}
	for _, r := range rows {
		got[r.Label] = r.Value
	}
	assert.Equal(t, "best-effort", got["Result"])
	assert.Equal(t, "a.jpg", got["Source"])
	assert.Equal(t, "500 kB", got["Size before"])
	assert.Equal(t, "80 kB", got["Size after"])
	assert.Equal(t, "1.0 kB", got["Budget"])
	assert.Equal(t, "5", got["Attempts"])
}

func TestRenderOutcome(t *testing.T) {
	assert.Contains(t, RenderOutcome(workflow.Outcome{Kind: workflow.KindNoInput}), "no file selected")
	assert.Contains(t, RenderOutcome(workflow.Outcome{Kind: workflow.KindUnexpectedFailure, Err: errors.New("boom")}), "boom")
	assert.Contains(t, RenderOutcome(workflow.Outcome{Kind: workflow.KindBudgetExhausted}), "budget-exhausted")
}
