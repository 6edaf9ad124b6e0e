package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/lessonplay/internal/ui/theme"
)

// TimeBar shows elapsed video time with a tick for each question.
type TimeBar struct {
	Position float64
	Duration float64
	Width    int

	// Marks are question times in seconds.
	Marks []int
}

type cell byte

const (
	cellLeft cell = iota
	cellPlayed
	cellMark
)

// cells lays the bar out over n columns. Each column covers an equal
// slice of the duration; a mark wins over played time.
func (b TimeBar) cells(n int) []cell {
	out := make([]cell, n)
	if b.Duration <= 0 || n == 0 {
		return out
	}
	played := min(max(int(float64(n)*b.Position/b.Duration), 0), n)
	for i := range played {
		out[i] = cellPlayed
	}
	for _, m := range b.Marks {
		i := int(float64(n) * float64(m) / b.Duration)
		if i >= 0 && i < n {
			out[i] = cellMark
		}
	}
	return out
}

func (b TimeBar) View() string {
	label := Clock(b.Position)
	if b.Duration > 0 {
		label += " / " + Clock(b.Duration)
	}
	label = lipgloss.NewStyle().Foreground(theme.Ink).Render(label) + "  "

	var bar strings.Builder
	mark := lipgloss.NewStyle().Background(theme.Highlight)
	for _, c := range b.cells(max(b.Width-lipgloss.Width(label), 4)) {
		switch c {
		case cellPlayed:
			bar.WriteString(theme.TimePlayed.Render(" "))
		case cellMark:
			bar.WriteString(mark.Render(" "))
		default:
			bar.WriteString(theme.TimeLeft.Render(" "))
		}
	}
	return label + bar.String()
}

// Clock formats seconds as m:ss.
func Clock(seconds float64) string {
	s := max(int(seconds), 0)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
