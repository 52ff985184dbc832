package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

var summaryHeaders = []string{"stage", "status", "processed", "updated", "deleted", "truncated", "preserved", "failed", "duration"}

// RenderSummary formats the per-stage counters as a table headed by the run ID.
func RenderSummary(summary sanitize.Summary) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(summaryHeaders...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if col >= 2 && col < len(summaryHeaders)-1 {
				style = style.Align(lipgloss.Right)
			}
			return style
		})

	for _, st := range summary.Stages {
		t.Row(
			st.Name,
			st.Status.String(),
			count(st.Processed),
			count(st.Updated),
			count(st.Deleted),
			count(st.Truncated),
			count(st.Preserved),
			count(st.Failed),
			duration(st),
		)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Summary for run %s (database %q)\n", summary.RunID, summary.Database)
	b.WriteString(t.String())
	return b.String()
}

func count(n int64) string {
	if n == 0 {
		return "-"
	}
	return strconv.FormatInt(n, 10)
}

func duration(st sanitize.StageResult) string {
	if st.Status != sanitize.StageCompleted && st.Status != sanitize.StageFailed {
		return "-"
	}
	return st.Duration.Round(time.Millisecond).String()
}
