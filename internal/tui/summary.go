package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"squash/internal/workflow"
	"squash/pkg/imgutil"
)

type SummaryRow struct {
	Label string
	Value string
}

func RenderSummary(rows []SummaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		labelWidth = max(labelWidth, lipgloss.Width(row.Label))
		valueWidth = max(valueWidth, lipgloss.Width(row.Value))
	}

	hline := strings.Repeat("-", labelWidth+valueWidth+3)
	lines := []string{hline}
	for _, row := range rows {
		label := padRight(row.Label, labelWidth)
		value := padRight(row.Value, valueWidth)
		lines = append(lines, fmt.Sprintf("%s | %s", labelStyle.Render(label), valueStyle.Render(value)))
	}
	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

// OutcomeRows describes a finished run for RenderSummary.
func OutcomeRows(out workflow.Outcome, budget int) []SummaryRow {
	rows := []SummaryRow{{Label: "Result", Value: out.Kind.String()}}
	if out.Upload.FileName != "" {
		rows = append(rows, SummaryRow{Label: "Source", Value: out.Upload.FileName})
	}
	if out.Upload.Image != "" {
		rows = append(rows, SummaryRow{Label: "Size before", Value: humanize.Bytes(uint64(imgutil.ByteCount(out.Upload.Image)))})
	}
	if out.HasImage() {
		rows = append(rows, SummaryRow{Label: "Size after", Value: humanize.Bytes(uint64(imgutil.ByteCount(out.Image)))})
	}
	if budget > 0 {
		rows = append(rows, SummaryRow{Label: "Budget", Value: humanize.Bytes(uint64(budget))})
	}
	if n := len(out.Search.Attempts); n > 0 {
		rows = append(rows, SummaryRow{Label: "Attempts", Value: fmt.Sprint(n)})
	}
	return rows
}

// RenderOutcome is a one-line banner coloured by outcome kind.
func RenderOutcome(out workflow.Outcome) string {
	switch out.Kind {
	case workflow.KindSatisfied:
		return successStyle.Render("✓ " + out.String())
	case workflow.KindBestEffort, workflow.KindBudgetExhausted:
		return warnStyle.Render("! " + out.String())
	case workflow.KindNoInput:
		return dimStyle.Render("no file selected")
	default:
		return errorStyle.Render("✗ " + out.String())
	}
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

var (
	valueStyle   = lipgloss.NewStyle().Foreground(ColorInk).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(ColorWarn).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
)
