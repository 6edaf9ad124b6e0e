package components

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/lessonplay/internal/ui/theme"
)

// TextInput is a single focused line with a validation message under it.
// The message clears on the next key press.
type TextInput struct {
	Model textinput.Model
	err   string
}

// NewTextInput returns a focused input holding at most limit characters.
func NewTextInput(placeholder string, limit int) TextInput {
	m := textinput.New()
	m.Prompt = "› "
	m.Placeholder = placeholder
	m.CharLimit = max(limit, 0)
	m.Focus()
	return TextInput{Model: m}
}

func (t TextInput) Init() tea.Cmd {
	return t.Model.Focus()
}

func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); ok {
		t.err = ""
	}
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

func (t TextInput) View() string {
	if t.err == "" {
		return t.Model.View()
	}
	return t.Model.View() + "\n" + theme.Wrong.Render("✗ "+t.err)
}

// Value is the input with surrounding whitespace removed.
func (t TextInput) Value() string {
	return strings.TrimSpace(t.Model.Value())
}

func (t *TextInput) SetError(msg string) { t.err = msg }

func (t TextInput) Err() string { return t.err }
