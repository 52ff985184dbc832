package logging

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ColorPrimary is used for stage headings.
var ColorPrimary = lipgloss.Color("39") // Blue

var stageStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorPrimary)

// colorEnabled reports whether stderr is a terminal and NO_COLOR is unset.
func colorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}
