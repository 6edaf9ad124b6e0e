package results

import (
	"context"
	"errors"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/lessonplay/internal/catalog"
	"github.com/abhisek/lessonplay/internal/lesson"
	"github.com/abhisek/lessonplay/internal/router"
	"github.com/abhisek/lessonplay/internal/screen"
	"github.com/abhisek/lessonplay/internal/store"
	"github.com/abhisek/lessonplay/internal/ui/layout"
	"github.com/abhisek/lessonplay/internal/ui/theme"
)

// reportMsg carries a stored attempt read from the repository.
type reportMsg struct {
	Report *lesson.Report
	Err    error
}

// ResultsScreen shows the stored results of a lesson without entering it.
// Entering a completed lesson starts a review, so this is the read-only
// way back to a finished attempt.
type ResultsScreen struct {
	repo      store.ProgressRepo
	lesson    *catalog.Lesson
	studentID string
	passMark  int

	report  *lesson.Report
	missing bool
	errMsg  string
}

var _ screen.Screen = (*ResultsScreen)(nil)
var _ screen.KeyHintProvider = (*ResultsScreen)(nil)

// New creates a ResultsScreen for studentID in l.
func New(repo store.ProgressRepo, l *catalog.Lesson, studentID string, passMark int) *ResultsScreen {
	return &ResultsScreen{repo: repo, lesson: l, studentID: studentID, passMark: passMark}
}

func (s *ResultsScreen) Init() tea.Cmd {
	repo, l, student := s.repo, s.lesson, s.studentID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		r, err := lesson.LoadReport(ctx, repo, student, l)
		return reportMsg{Report: r, Err: err}
	}
}

func (s *ResultsScreen) Title() string {
	return s.lesson.Title
}

func (s *ResultsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Back"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *ResultsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case reportMsg:
		switch {
		case errors.Is(msg.Err, lesson.ErrNoStudent):
			return s, func() tea.Msg { return screen.SignInRequiredMsg{} }
		case errors.Is(msg.Err, store.ErrNotFound):
			s.missing = true
		case msg.Err != nil:
			s.errMsg = msg.Err.Error()
		default:
			s.report = msg.Report
		}
	case tea.KeyMsg:
		if msg.String() == "enter" {
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *ResultsScreen) View(width, height int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	switch {
	case s.errMsg != "":
		return center.Foreground(theme.Fail).Render("\n\n\n  Error: " + s.errMsg)
	case s.missing:
		return center.Foreground(theme.Muted).Render("\n\n\n  You haven't started this lesson yet.")
	case s.report == nil:
		return center.Foreground(theme.Muted).Render("\n\n\n  Loading results...")
	}

	sess := s.report.Session
	var body string
	if !sess.Completed {
		body = theme.Hint.Render("In progress · results so far") + "\n\n"
	}
	body += Render(s.report.Results, RenderOptions{
		Width:    width,
		PassMark: s.passMark,
		Attempt:  sess.Attempt,
		Review:   sess.Attempt > 1,
	})
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top, body)
}
