package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// palette uses the 16 ANSI colours so output follows the user's terminal
// theme. lipgloss drops colour entirely when stdout is not a terminal.
var palette = struct {
	Red, Green, Yellow, Blue, Magenta, Cyan, Orange, Muted lipgloss.TerminalColor
}{
	Red:     lipgloss.Color("1"),
	Green:   lipgloss.Color("2"),
	Yellow:  lipgloss.Color("3"),
	Blue:    lipgloss.Color("4"),
	Magenta: lipgloss.Color("5"),
	Cyan:    lipgloss.Color("6"),
	Orange:  lipgloss.AdaptiveColor{Light: "166", Dark: "208"},
	Muted:   lipgloss.Color("8"),
}

var (
	mutedStyle  = lipgloss.NewStyle().Foreground(palette.Muted)
	italicStyle = lipgloss.NewStyle().Italic(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(palette.Blue)
)

// StatusStyle returns the style for a session status.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "running":
		return lipgloss.NewStyle().Foreground(palette.Green).Bold(true)
	case "starting":
		return lipgloss.NewStyle().Foreground(palette.Yellow)
	case "exited":
		return mutedStyle
	}
	return lipgloss.NewStyle()
}
