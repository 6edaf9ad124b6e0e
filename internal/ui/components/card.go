package components

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/lessonplay/internal/ui/theme"
)

// ContentWidth returns the uniform inner width used for all screen
// sections so stacked boxes line up.
func ContentWidth(frameWidth int) int {
	w := frameWidth - 6
	if w > 72 {
		w = 72
	}
	if w < 20 {
		w = 20
	}
	return w
}

// Card wraps content in a rounded-border card at the given content width.
func Card(content string, cw int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Rule).
		Width(cw - 2).
		Padding(1, 2).
		Render(content)
}

// Banner renders a highlighted single-line box, used for outcomes.
func Banner(text string, ok bool, cw int) string {
	color := theme.Fail
	if ok {
		color = theme.Pass
	}
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Bold(true).
		Foreground(theme.Backdrop).
		Background(color).
		Padding(0, 1).
		Render(text)
}
