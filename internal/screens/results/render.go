package results

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/lessonplay/internal/lesson"
	"github.com/abhisek/lessonplay/internal/ui/components"
	"github.com/abhisek/lessonplay/internal/ui/theme"
)

// RenderOptions controls how an attempt is rendered.
type RenderOptions struct {
	Width    int
	PassMark int
	Attempt  int
	Review   bool
}

// Render draws the score banner and one line per question with the
// student's answer and the correct one.
func Render(r lesson.Results, o RenderOptions) string {
	cw := components.ContentWidth(o.Width)
	var b strings.Builder

	heading := "Results"
	if o.Review {
		heading = fmt.Sprintf("Review results · attempt %d", o.Attempt)
	}
	b.WriteString(theme.Heading.Width(cw).Render(heading))
	b.WriteString("\n\n")

	passed := r.Passed(o.PassMark)
	verdict := "Not passed"
	if passed {
		verdict = "Passed"
	}
	b.WriteString(components.Banner(fmt.Sprintf("%d%% · %s", r.Percentage, verdict), passed, cw))
	b.WriteString("\n")
	b.WriteString(theme.Caption.Width(cw).Render(
		fmt.Sprintf("%d correct · %d incorrect · %d questions · pass mark %d%%",
			r.Correct, r.Incorrect, r.Total, o.PassMark)))
	b.WriteString("\n\n")

	if len(r.Items) == 0 {
		b.WriteString(theme.Hint.Render("This lesson has no questions."))
		return b.String()
	}

	for i, it := range r.Items {
		b.WriteString(renderItem(i, it, cw))
		b.WriteString("\n")
	}
	return b.String()
}

func renderItem(n int, it lesson.ResultItem, cw int) string {
	mark := theme.Locked.Render("–")
	switch {
	case it.Answered && it.Correct:
		mark = theme.Right.Render("✓")
	case it.Answered:
		mark = theme.Wrong.Render("✗")
	}

	body := lipgloss.NewStyle().Foreground(theme.Ink).Width(cw - 6).Render(it.Variant.Body)
	line := fmt.Sprintf("%s %2d. %s", mark, n+1, body)

	if !it.Answered {
		return line + "\n" + theme.Hint.Render("       not answered")
	}

	detail := "       your answer: " + optionText(it, it.SelectedOption)
	if !it.Correct {
		detail += "   correct: " + optionText(it, it.Variant.CorrectOption)
	}
	return line + "\n" + theme.Hint.Render(detail)
}

func optionText(it lesson.ResultItem, i int) string {
	if i < 0 || i >= len(it.Variant.Options) {
		return "?"
	}
	return components.OptionLabel(i) + ") " + it.Variant.Options[i]
}
