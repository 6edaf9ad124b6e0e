package app

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/abhisek/lessonplay/internal/auth"
	"github.com/abhisek/lessonplay/internal/catalog"
	"github.com/abhisek/lessonplay/internal/gating"
	"github.com/abhisek/lessonplay/internal/router"
	"github.com/abhisek/lessonplay/internal/screen"
	"github.com/abhisek/lessonplay/internal/screens/lessons"
	"github.com/abhisek/lessonplay/internal/screens/player"
	"github.com/abhisek/lessonplay/internal/screens/signin"
	"github.com/abhisek/lessonplay/internal/store"
	"github.com/abhisek/lessonplay/internal/ui/layout"
)

// Options wire the application's collaborators.
type Options struct {
	Catalog *catalog.Catalog
	Repo    store.ProgressRepo
	Auth    *auth.Session
	Policy  gating.Policy
	Player  player.Options
	Logger  *zap.Logger

	// StartLesson opens this lesson straight away when a student is
	// signed in. The caller checks it is unlocked.
	StartLesson *catalog.Lesson
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	opts   Options
	router *router.Router
	width  int
	height int
}

// newAppModel creates the model with the lesson list, or sign-in when
// nobody is signed in.
func newAppModel(opts Options) AppModel {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	m := AppModel{opts: opts}
	m.router = router.New(m.rootScreen())
	return m
}

func (m AppModel) rootScreen() screen.Screen {
	if m.opts.Auth.StudentID() == "" {
		return m.signInScreen()
	}
	return m.lessonsScreen()
}

func (m AppModel) lessonsScreen() screen.Screen {
	return lessons.New(lessons.Options{
		Catalog: m.opts.Catalog,
		Repo:    m.opts.Repo,
		Auth:    m.opts.Auth,
		Policy:  m.opts.Policy,
		Player:  m.opts.Player,
		Logger:  m.opts.Logger,
	})
}

func (m AppModel) signInScreen() screen.Screen {
	return signin.New(m.opts.Auth, func() tea.Cmd {
		m.opts.Logger.Info("signed in", zap.String("student", m.opts.Auth.StudentID()))
		scr := m.lessonsScreen()
		return func() tea.Msg { return router.ReplaceScreenMsg{Screen: scr} }
	})
}

func (m AppModel) Init() tea.Cmd {
	cmd := m.router.Active().Init()
	if l := m.opts.StartLesson; l != nil && m.opts.Auth.StudentID() != "" {
		scr := player.New(l, m.opts.Auth.StudentID(), m.opts.Player)
		cmd = tea.Batch(cmd, func() tea.Msg { return router.PushScreenMsg{Screen: scr} })
	}
	return cmd
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// The active screen may remount its surface.
		return m, m.router.Update(msg)

	case screen.SignInRequiredMsg:
		leave := m.router.LeaveAll()
		m.opts.Auth.SignOut()
		scr := m.signInScreen()
		m.router = router.New(scr)
		return m, tea.Batch(leave, scr.Init())

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Sequence(m.router.LeaveAll(), tea.Quit)
		case "esc":
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	info := layout.HeaderInfo{Student: m.opts.Auth.StudentID()}
	var footerHints []layout.KeyHint
	if active != nil {
		title = active.Title()
		if p, ok := active.(screen.ProgressProvider); ok {
			info.Answered, info.Total = p.Progress()
		}
		if h, ok := active.(screen.KeyHintProvider); ok {
			footerHints = h.KeyHints()
		}
	}
	if footerHints == nil {
		footerHints = []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}

	header := layout.RenderHeader(title, info, m.width)
	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	p := tea.NewProgram(newAppModel(opts))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
