package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-json"

	"github.com/Dicklesworthstone/expense-e2e/internal/evidence"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func statusCell(s evidence.ResultStatus) string {
	switch s {
	case evidence.ResultPassed:
		return successStyle.Render("PASS")
	case evidence.ResultFailed:
		return errorStyle.Render("FAIL")
	default:
		return dimStyle.Render("SKIP")
	}
}

// renderSummaryTable lays out one row per test followed by the totals.
func renderSummaryTable(s evidence.Summary, res []evidence.Result) string {
	nameWidth := len("TEST")
	for _, r := range res {
		if w := lipgloss.Width(r.Name); w > nameWidth {
			nameWidth = w
		}
	}
	pad := func(s string, w int) string {
		if gap := w - lipgloss.Width(s); gap > 0 {
			return s + strings.Repeat(" ", gap)
		}
		return s
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(pad("TEST", nameWidth)) + "  " + headerStyle.Render("STATUS") + "  " + headerStyle.Render("DURATION") + "\n")
	for _, r := range res {
		fmt.Fprintf(&b, "%s  %s    %s\n", pad(r.Name, nameWidth), statusCell(r.Status), r.Duration)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %d  %s %d  %s %d\n",
		headerStyle.Render("Total:"), s.TotalTests,
		successStyle.Render("Passed:"), s.Passed,
		errorStyle.Render("Failed:"), s.Failed)
	fmt.Fprintf(&b, "%s %s\n", dimStyle.Render("Evidence:"), s.EvidenceLocation)
	return b.String()
}

func writeJSONTo(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
