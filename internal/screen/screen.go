package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/lessonplay/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// Leaver is implemented by screens that hold resources past their
// lifetime. The router calls Leave when the screen is popped or replaced.
type Leaver interface {
	Leave() tea.Cmd
}

// Resumer is implemented by screens that refresh when they become the
// active screen again after the one above them is popped.
type Resumer interface {
	Resume() tea.Cmd
}

// ProgressProvider is implemented by screens that run a lesson so the
// header can show answered/total.
type ProgressProvider interface {
	Progress() (answered, total int)
}

// SignInRequiredMsg is sent by screens that need a signed-in student
// and found none.
type SignInRequiredMsg struct{}
