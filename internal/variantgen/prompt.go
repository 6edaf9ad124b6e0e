package variantgen

import (
	"fmt"
	"strings"

	"github.com/abhisek/lessonplay/internal/catalog"
)

const systemPrompt = `You write quiz questions that appear while a student watches a lesson video.

Rules:
- Rewrite the given question so it tests exactly the same idea with different wording or numbers.
- Provide exactly 4 options with exactly one correct answer.
- Distractors should reflect common mistakes, not random values.
- Do not change the difficulty.
- Do not repeat any wording from the "already used" list.
- Use plain text only.`

// buildUserMessage describes the question and the wordings already in use.
func buildUserMessage(l *catalog.Lesson, q catalog.Question, used []catalog.Variant) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Lesson: %s\n", l.Title)
	fmt.Fprintf(&b, "Question: %s\n", q.Body)
	b.WriteString("Options:\n")
	for i, o := range q.Options {
		marker := ""
		if i == q.CorrectOption {
			marker = " (correct)"
		}
		fmt.Fprintf(&b, "  %d. %s%s\n", i, o, marker)
	}

	b.WriteString("\nAlready used:\n")
	if len(used) == 0 {
		b.WriteString("None")
	}
	for i, v := range used {
		fmt.Fprintf(&b, "%d. %s\n", i+1, v.Body)
	}
	return strings.TrimRight(b.String(), "\n")
}
