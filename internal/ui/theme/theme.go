// Package theme is the lessonplay palette and the styles shared by screens.
package theme

import (
	"charm.land/lipgloss/v2"
)

var (
	Brand     = lipgloss.Color("#2563EB") // blue
	Review    = lipgloss.Color("#F59E0B") // amber, review attempts
	Played    = lipgloss.Color("#14B8A6") // teal, elapsed video
	Pass      = lipgloss.Color("#22C55E")
	Fail      = lipgloss.Color("#F43F5E")
	Ink       = lipgloss.Color("#F8FAFC")
	Muted     = lipgloss.Color("#94A3B8")
	Backdrop  = lipgloss.Color("#0F172A")
	Surface   = lipgloss.Color("#1E293B")
	Rule      = lipgloss.Color("#334155")
	Highlight = lipgloss.Color("#FACC15")
)

var (
	Heading = lipgloss.NewStyle().Bold(true).Foreground(Brand).Align(lipgloss.Center)
	Caption = lipgloss.NewStyle().Foreground(Muted).Align(lipgloss.Center)
	Hint    = lipgloss.NewStyle().Foreground(Muted).Italic(true)
)

// Question options and lesson rows.
var (
	Focused = lipgloss.NewStyle().Foreground(Brand).Bold(true)
	Option  = lipgloss.NewStyle().Foreground(Ink)
	Locked  = lipgloss.NewStyle().Foreground(Muted)
)

// Answer marks in results.
var (
	Right = lipgloss.NewStyle().Foreground(Pass).Bold(true)
	Wrong = lipgloss.NewStyle().Foreground(Fail).Bold(true)
)

// The playback time bar.
var (
	TimePlayed = lipgloss.NewStyle().Background(Played)
	TimeLeft   = lipgloss.NewStyle().Background(Rule)
)

var (
	ButtonReady = lipgloss.NewStyle().
			Background(Brand).
			Foreground(Ink).
			Bold(true).
			Padding(0, 2)

	ButtonIdle = lipgloss.NewStyle().
			Foreground(Muted).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Rule).
			Padding(0, 2)
)
