package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Severity styles shared with the command layer so report marks match the
// menu palette. The default lipgloss renderer downgrades to plain text
// when stdout is not a terminal, so piped output stays clean.
var (
	Success = successStyle
	Warning = warningStyle
	Danger  = errorStyle
	Muted   = mutedStyle
)

// DisableColor forces plain output regardless of terminal detection. The
// NO_COLOR convention is honored automatically; this covers the noColor
// config setting.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}
