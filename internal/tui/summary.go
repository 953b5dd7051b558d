package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type SummaryRow struct {
	Label string
	Value string
}

// RenderSummary lays rows out as a two-column table between rules.
func RenderSummary(rows []SummaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		labelWidth = max(labelWidth, lipgloss.Width(row.Label))
		valueWidth = max(valueWidth, lipgloss.Width(row.Value))
	}

	hline := dimStyle.Render(strings.Repeat("-", labelWidth+valueWidth+3))
	lines := []string{hline}
	for _, row := range rows {
		label := padRight(row.Label, labelWidth)
		value := padRight(row.Value, valueWidth)
		lines = append(lines, fmt.Sprintf("%s %s %s", labelStyle.Render(label), dimStyle.Render("|"), valueStyle.Render(value)))
	}
	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

// RenderFileList renders discovered inputs as a bulleted list, used by dry runs.
func RenderFileList(title string, files []string) string {
	lines := []string{headingStyle.Render(title)}
	if len(files) == 0 {
		lines = append(lines, "  "+dimStyle.Render("- none"))
	}
	for _, f := range files {
		lines = append(lines, "  "+dimStyle.Render("-")+" "+labelStyle.Render(f))
	}
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

var (
	valueStyle   = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	headingStyle = lipgloss.NewStyle().Foreground(ColorAccentAlt).Bold(true)
)
