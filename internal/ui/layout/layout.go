// Package layout draws the frame around every screen: a header with the
// student and lesson progress, and a footer of key hints.
package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/lessonplay/internal/ui/theme"
)

// The frame needs room for the time bar and a four-option question card.
const (
	MinWidth  = 60
	MinHeight = 20
)

// KeyHint is one "key description" pair in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// IsTooSmall reports whether the terminal can't fit the frame.
func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

func RenderMinSizeMessage(width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		theme.Caption.Render(fmt.Sprintf("Make the terminal at least %d×%d.\nIt is %d×%d now.", MinWidth, MinHeight, width, height)))
}

// HeaderInfo is what the header shows besides the screen title.
type HeaderInfo struct {
	// Student is the signed-in student id, empty when signed out.
	Student string

	// Answered and Total describe the open lesson. Total is zero outside
	// a lesson.
	Answered, Total int
}

var bar = lipgloss.NewStyle().
	Background(theme.Surface).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(theme.Rule).
	Padding(0, 1)

// RenderHeader puts the app name left, title centered and the student
// (with lesson progress, if any) right.
func RenderHeader(title string, info HeaderInfo, width int) string {
	left := lipgloss.NewStyle().Foreground(theme.Brand).Bold(true).Render("lessonplay")
	center := lipgloss.NewStyle().Foreground(theme.Ink).Render(title)

	var right []string
	if info.Total > 0 {
		right = append(right, lipgloss.NewStyle().Foreground(theme.Played).Render(fmt.Sprintf("✓ %d/%d", info.Answered, info.Total)))
	}
	if info.Student != "" {
		right = append(right, lipgloss.NewStyle().Foreground(theme.Review).Render("● "+info.Student))
	} else {
		right = append(right, theme.Hint.Render("signed out"))
	}
	r := strings.Join(right, "   ")

	inner := max(width-4, 0)
	lw, cw, rw := lipgloss.Width(left), lipgloss.Width(center), lipgloss.Width(r)
	gapL := max((inner-cw)/2-lw, 1)
	gapR := max(inner-lw-gapL-cw-rw, 1)

	return bar.Width(width).Render(left + strings.Repeat(" ", gapL) + center + strings.Repeat(" ", gapR) + r)
}

func RenderFooter(hints []KeyHint, width int) string {
	key := lipgloss.NewStyle().Foreground(theme.Ink).Bold(true)
	desc := lipgloss.NewStyle().Foreground(theme.Muted)

	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = key.Render(h.Key) + " " + desc.Render(h.Description)
	}
	return bar.Width(width).Render(strings.Join(parts, "   "))
}

// RenderFrame stacks header, content and footer, giving the content
// whatever height is left.
func RenderFrame(header, content, footer string, width, height int) string {
	h := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	body := lipgloss.NewStyle().Width(width).Height(h).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}
