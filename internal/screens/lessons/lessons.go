package lessons

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/abhisek/lessonplay/internal/auth"
	"github.com/abhisek/lessonplay/internal/catalog"
	"github.com/abhisek/lessonplay/internal/gating"
	"github.com/abhisek/lessonplay/internal/router"
	"github.com/abhisek/lessonplay/internal/screen"
	"github.com/abhisek/lessonplay/internal/screens/player"
	"github.com/abhisek/lessonplay/internal/screens/results"
	"github.com/abhisek/lessonplay/internal/store"
	"github.com/abhisek/lessonplay/internal/ui/components"
	"github.com/abhisek/lessonplay/internal/ui/layout"
	"github.com/abhisek/lessonplay/internal/ui/theme"
)

// Options are the collaborators of the lesson list.
type Options struct {
	Catalog *catalog.Catalog
	Repo    store.ProgressRepo
	Auth    auth.Source
	Policy  gating.Policy
	Player  player.Options
	Logger  *zap.Logger
}

// sessionsMsg carries the student's sessions.
type sessionsMsg struct {
	Sessions []store.LessonSession
	Err      error
}

// LessonsScreen lists the catalog with each lesson's lock state and
// progress.
type LessonsScreen struct {
	opts    Options
	entries []gating.Entry
	menu    components.Menu
	loaded  bool
}

var _ screen.Screen = (*LessonsScreen)(nil)
var _ screen.KeyHintProvider = (*LessonsScreen)(nil)
var _ screen.Resumer = (*LessonsScreen)(nil)

// New creates a LessonsScreen.
func New(opts Options) *LessonsScreen {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &LessonsScreen{opts: opts}
}

func (s *LessonsScreen) Init() tea.Cmd {
	return s.load()
}

// Resume reloads progress after a lesson screen is popped.
func (s *LessonsScreen) Resume() tea.Cmd {
	return s.load()
}

func (s *LessonsScreen) Title() string {
	return "Lessons"
}

func (s *LessonsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Play"},
		{Key: "R", Description: "Results"},
		{Key: "S", Description: "Switch student"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *LessonsScreen) load() tea.Cmd {
	student := s.opts.Auth.StudentID()
	if student == "" {
		return func() tea.Msg { return screen.SignInRequiredMsg{} }
	}
	repo, pending := s.opts.Repo, s.opts.Player.Queue
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if pending != nil {
			// Progress from a lesson just left may still be in flight.
			if err := pending.Wait(ctx); err != nil {
				return sessionsMsg{Err: err}
			}
		}
		sessions, err := repo.ListSessions(ctx, student)
		return sessionsMsg{Sessions: sessions, Err: err}
	}
}

func (s *LessonsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionsMsg:
		if msg.Err != nil {
			// Without sessions only the unconditional unlocks apply.
			s.opts.Logger.Warn("listing sessions failed", zap.Error(msg.Err))
		}
		s.setEntries(gating.Evaluate(s.opts.Catalog, msg.Sessions, s.opts.Policy))
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			return s, s.openResults()
		case "s":
			return s, func() tea.Msg { return screen.SignInRequiredMsg{} }
		}
	}

	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *LessonsScreen) setEntries(entries []gating.Entry) {
	selected := s.menu.Selected
	s.entries = entries
	s.loaded = true

	items := make([]components.MenuItem, len(entries))
	for i, e := range entries {
		l := e.Lesson
		items[i] = components.MenuItem{
			Label:    statusGlyph(e) + " " + l.Title,
			Detail:   detail(e),
			Disabled: !e.Unlocked(),
			Action: func() tea.Cmd {
				return func() tea.Msg {
					return router.PushScreenMsg{Screen: player.New(l, s.opts.Auth.StudentID(), s.opts.Player)}
				}
			},
		}
	}
	s.menu = components.NewMenu(items)
	if selected > 0 && selected < len(items) && !items[selected].Disabled {
		s.menu.Selected = selected
	}
}

func (s *LessonsScreen) openResults() tea.Cmd {
	if s.menu.Selected < 0 || s.menu.Selected >= len(s.entries) {
		return nil
	}
	e := s.entries[s.menu.Selected]
	if e.Session == nil {
		return nil
	}
	scr := results.New(s.opts.Repo, e.Lesson, s.opts.Auth.StudentID(), s.opts.Player.Engine.PassMark)
	return func() tea.Msg { return router.PushScreenMsg{Screen: scr} }
}

func statusGlyph(e gating.Entry) string {
	switch {
	case !e.Unlocked():
		return "🔒"
	case e.Session == nil:
		return "○"
	case e.Session.Completed && e.Session.Passed:
		return "★"
	case e.Session.Completed:
		return "✓"
	default:
		return "◐"
	}
}

func detail(e gating.Entry) string {
	var parts []string
	if e.Lesson.DurationSeconds > 0 {
		parts = append(parts, components.Clock(float64(e.Lesson.DurationSeconds)))
	}
	parts = append(parts, fmt.Sprintf("%d questions", len(e.Lesson.Questions)))
	switch {
	case !e.Unlocked():
		parts = append(parts, "locked")
	case e.Session == nil:
	case e.Session.Completed && e.Session.Passed:
		parts = append(parts, "passed")
	case e.Session.Completed:
		parts = append(parts, "completed")
	default:
		parts = append(parts, "in progress")
	}
	if e.Session != nil && e.Session.Attempt > 1 {
		parts = append(parts, fmt.Sprintf("attempt %d", e.Session.Attempt))
	}
	return strings.Join(parts, " · ")
}

func (s *LessonsScreen) View(width, height int) string {
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Muted).
			Render("\n\n\n  Loading lessons...")
	}

	cw := components.ContentWidth(width)
	var b strings.Builder
	b.WriteString(theme.Heading.Width(cw).Render("Your lessons"))
	b.WriteString("\n")
	b.WriteString(theme.Caption.Width(cw).Render("Signed in as " + s.opts.Auth.StudentID()))
	b.WriteString("\n\n")
	if len(s.entries) == 0 {
		b.WriteString(theme.Hint.Render("The catalog has no lessons."))
	} else {
		b.WriteString(components.Card(s.menu.View(), cw))
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top, b.String())
}
