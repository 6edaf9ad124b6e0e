package player

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/lessonplay/internal/screens/results"
	"github.com/abhisek/lessonplay/internal/ui/components"
	"github.com/abhisek/lessonplay/internal/ui/theme"
)

func (s *PlayerScreen) View(width, height int) string {
	switch {
	case s.errMsg != "":
		return renderError(width, s.errMsg)
	case s.eng == nil:
		return renderLoading(width)
	case s.results != nil:
		return s.renderResults(width, height)
	}
	return s.renderPlayback(width, height)
}

func (s *PlayerScreen) renderPlayback(width, height int) string {
	cw := components.ContentWidth(width)
	tracker := s.pb.Tracker
	var b strings.Builder

	title := s.lesson.Title
	if s.eng.Review() {
		title += "  " + lipgloss.NewStyle().Foreground(theme.Review).Render(fmt.Sprintf("review · attempt %d", s.eng.Attempt()))
	}
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Brand).Bold(true).Render(title))
	b.WriteString("\n\n")

	duration, _ := tracker.Duration()
	marks := make([]int, 0, len(s.eng.Questions()))
	for _, q := range s.eng.Questions() {
		marks = append(marks, q.ShowAtSecond)
	}
	b.WriteString(components.TimeBar{Position: tracker.Position(), Duration: duration, Width: cw, Marks: marks}.View())
	b.WriteString("\n")

	status := "❚❚ Paused"
	if tracker.Playing() {
		status = "▶ Playing"
	}
	answered, total := s.eng.Progress()
	b.WriteString(theme.Hint.Render(fmt.Sprintf("%s   %d of %d questions answered", status, answered, total)))
	b.WriteString("\n\n")

	if p, ok := s.eng.Pending(); ok {
		if p.Ready {
			b.WriteString(components.Card(s.choice.View(), cw))
		} else {
			b.WriteString(components.Card(theme.Hint.Render("Question coming up..."), cw))
		}
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top, b.String())
}

func (s *PlayerScreen) renderResults(width, height int) string {
	body := results.Render(*s.results, results.RenderOptions{
		Width:    width,
		PassMark: s.opts.Engine.PassMark,
		Attempt:  s.eng.Attempt(),
		Review:   s.eng.Review(),
	})
	body += "\n" + s.retry.View()
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top, body)
}

func renderLoading(width int) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Muted).
		Render("\n\n\n  Loading lesson...")
}

func renderError(width int, errMsg string) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Fail).
		Render(fmt.Sprintf("\n\n\n  %s\n\n  Press Esc to go back.", errMsg))
}
