package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/discwatch/internal/models"
)

const (
	colorAccent  = lipgloss.Color("#1DB954")
	colorQueued  = lipgloss.Color("#04B575")
	colorFailed  = lipgloss.Color("#FF5F5F")
	colorPartial = lipgloss.Color("#FFA500")
	colorMuted   = lipgloss.Color("#626262")
)

var theme = newWatchTheme()

// watchTheme styles the watchlist views by pass state.
type watchTheme struct {
	heading  lipgloss.Style
	complete lipgloss.Style
	partial  lipgloss.Style // also used for warnings
	failure  lipgloss.Style
	checking lipgloss.Style
	hint     lipgloss.Style
}

func newWatchTheme() watchTheme {
	return watchTheme{
		heading:  lipgloss.NewStyle().Foreground(colorAccent).Bold(true).MarginBottom(1),
		complete: lipgloss.NewStyle().Foreground(colorQueued).Bold(true),
		partial:  lipgloss.NewStyle().Foreground(colorPartial),
		failure:  lipgloss.NewStyle().Foreground(colorFailed).Bold(true),
		checking: lipgloss.NewStyle().Foreground(colorAccent),
		hint:     lipgloss.NewStyle().Foreground(colorMuted).Italic(true),
	}
}

// outcome picks the style for a batch summary.
func (t watchTheme) outcome(o models.Outcome) lipgloss.Style {
	switch o {
	case models.OutcomeComplete:
		return t.complete
	case models.OutcomeNone:
		return t.failure
	default:
		return t.partial
	}
}
