package signin

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/lessonplay/internal/auth"
	"github.com/abhisek/lessonplay/internal/screen"
	"github.com/abhisek/lessonplay/internal/ui/components"
	"github.com/abhisek/lessonplay/internal/ui/layout"
	"github.com/abhisek/lessonplay/internal/ui/theme"
)

// SignInScreen asks for a student id.
type SignInScreen struct {
	session    *auth.Session
	onSignedIn func() tea.Cmd
	input      components.TextInput
	button     components.Button
}

var _ screen.Screen = (*SignInScreen)(nil)
var _ screen.KeyHintProvider = (*SignInScreen)(nil)

// New creates a SignInScreen. onSignedIn runs after a valid id is stored.
func New(session *auth.Session, onSignedIn func() tea.Cmd) *SignInScreen {
	s := &SignInScreen{
		session:    session,
		onSignedIn: onSignedIn,
		input:      components.NewTextInput("student id", 64),
	}
	s.button = components.NewButton("Sign in", s.submit)
	return s
}

func (s *SignInScreen) Init() tea.Cmd {
	return s.input.Init()
}

func (s *SignInScreen) Title() string {
	return "Sign in"
}

func (s *SignInScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Sign in"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *SignInScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok && kmsg.String() == "enter" {
		if !s.button.Ready {
			s.input.SetError("enter your student id")
			return s, nil
		}
		var cmd tea.Cmd
		s.button, cmd = s.button.Update(msg)
		return s, cmd
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	s.button.Ready = s.input.Value() != ""
	return s, cmd
}

func (s *SignInScreen) submit() tea.Cmd {
	if err := s.session.SignIn(s.input.Value()); err != nil {
		s.input.SetError(err.Error())
		return nil
	}
	if s.onSignedIn == nil {
		return nil
	}
	return s.onSignedIn()
}

func (s *SignInScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	body := theme.Heading.Width(cw).Render("Who's learning today?") + "\n\n" +
		components.Card(s.input.View(), cw) + "\n\n" +
		s.button.View()
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, body)
}
