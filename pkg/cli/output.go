package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/magnolia-collective/wellness-e2e/pkg/report"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// colorsEnabled determines if ANSI colors should be used
var colorsEnabled = true

func color(c string) string {
	if colorsEnabled {
		return c
	}
	return ""
}

func statusColor(s report.Status) string {
	switch s {
	case report.StatusPassed:
		return color(colorGreen)
	case report.StatusWarned:
		return color(colorYellow)
	case report.StatusFailed, report.StatusErrored:
		return color(colorRed)
	default:
		return color(colorGray)
	}
}

func statusSymbol(s report.Status) string {
	switch s {
	case report.StatusPassed:
		return "✓"
	case report.StatusWarned:
		return "!"
	case report.StatusFailed, report.StatusErrored:
		return "✗"
	default:
		return "-"
	}
}

// printSummary writes the per-case table and the run totals.
func printSummary(w io.Writer, idx *report.Index) {
	tableWidth := 80
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("═", tableWidth))
	fmt.Fprintf(w, "  %-28s %-8s %6s %6s %10s\n", "Case", "Status", "Steps", "Warn", "Duration")
	fmt.Fprintln(w, strings.Repeat("─", tableWidth))

	for _, c := range idx.Cases {
		warned := 0
		for _, s := range c.Steps {
			if s.Status == report.StatusWarned {
				warned++
			}
		}
		dur := "-"
		if c.Duration != nil {
			dur = formatDuration(*c.Duration)
		}
		fmt.Fprintf(w, "  %s%s %-26s %-8s%s %6d %6d %10s\n",
			statusColor(c.Status), statusSymbol(c.Status), c.Name, c.Status, color(colorReset),
			len(c.Steps), warned, dur)
		if c.Error != nil {
			fmt.Fprintf(w, "    %s%s: %s%s\n", color(colorGray), c.Error.Type, c.Error.Message, color(colorReset))
		}
		if c.Navigation != nil && !c.Navigation.Reached {
			fmt.Fprintf(w, "    %snavigator: %s not reached after %d attempts%s\n",
				color(colorGray), c.Navigation.Target, c.Navigation.Iterations, color(colorReset))
		}
	}

	fmt.Fprintln(w, strings.Repeat("─", tableWidth))
	s := idx.Summary
	fmt.Fprintf(w, "  %s%s%s  %d passed, %d warned, %d failed, %d errored, %d skipped\n",
		statusColor(idx.Status), strings.ToUpper(string(idx.Status)), color(colorReset),
		s.Passed, s.Warned, s.Failed, s.Errored, s.Skipped)
	fmt.Fprintln(w, strings.Repeat("═", tableWidth))
}

func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	return fmt.Sprintf("%dm %ds", mins, secs)
}
