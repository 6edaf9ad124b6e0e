package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/lessonplay/internal/ui/theme"
)

// MenuItem is one selectable row. Detail is drawn dimmed after the label.
type MenuItem struct {
	Label    string
	Detail   string
	Action   func() tea.Cmd
	Disabled bool
}

// Menu is a vertical list whose cursor never rests on a disabled item.
type Menu struct {
	Items    []MenuItem
	Selected int
}

func NewMenu(items []MenuItem) Menu {
	m := Menu{Items: items, Selected: -1}
	m.move(1)
	if m.Selected < 0 {
		m.Selected = 0
	}
	return m
}

// move steps the cursor to the next enabled item in direction dir.
// It stays put when there is none.
func (m *Menu) move(dir int) {
	for i := m.Selected + dir; i >= 0 && i < len(m.Items); i += dir {
		if !m.Items[i].Disabled {
			m.Selected = i
			return
		}
	}
}

func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch k.String() {
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "enter":
		if it, ok := m.Current(); ok && !it.Disabled && it.Action != nil {
			return m, it.Action()
		}
	}
	return m, nil
}

// Current returns the item under the cursor.
func (m Menu) Current() (MenuItem, bool) {
	if m.Selected < 0 || m.Selected >= len(m.Items) {
		return MenuItem{}, false
	}
	return m.Items[m.Selected], true
}

var (
	menuCursor = lipgloss.NewStyle().Foreground(theme.Brand).Bold(true)
	menuPlain  = lipgloss.NewStyle().Foreground(theme.Ink)
)

func (m Menu) View() string {
	var b strings.Builder
	for i, it := range m.Items {
		style, prefix := menuPlain, "    "
		if it.Disabled {
			style = theme.Locked
		} else if i == m.Selected {
			style, prefix = menuCursor, "  ▸ "
		}
		b.WriteString(style.Render(prefix + it.Label))
		if it.Detail != "" {
			b.WriteString("  " + theme.Hint.Render(it.Detail))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
