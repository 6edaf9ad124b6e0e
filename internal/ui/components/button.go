package components

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/lessonplay/internal/ui/theme"
)

// Button submits a form on enter once Ready.
type Button struct {
	Label   string
	Ready   bool
	OnPress func() tea.Cmd
}

func NewButton(label string, onPress func() tea.Cmd) Button {
	return Button{Label: label, OnPress: onPress}
}

func (b Button) Update(msg tea.Msg) (Button, tea.Cmd) {
	k, ok := msg.(tea.KeyPressMsg)
	if !ok || !b.Ready || b.OnPress == nil || k.String() != "enter" {
		return b, nil
	}
	return b, b.OnPress()
}

func (b Button) View() string {
	if b.Ready {
		return theme.ButtonReady.Render("▸ " + b.Label)
	}
	return theme.ButtonIdle.Render(b.Label)
}
