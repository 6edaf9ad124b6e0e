package lesson

import (
	"context"
	"fmt"
	"math"

	"github.com/abhisek/lessonplay/internal/catalog"
	"github.com/abhisek/lessonplay/internal/store"
)

// ResultItem is one question's line in the results.
type ResultItem struct {
	Question catalog.Question

	// Variant is the rendering the student answered.
	Variant catalog.Variant

	Answered       bool
	SelectedOption int
	Correct        bool
}

// Retryable reports whether the student may take this question again.
func (i ResultItem) Retryable() bool {
	return i.Answered && !i.Correct
}

// Results tallies one attempt.
type Results struct {
	Items      []ResultItem
	Total      int
	Correct    int
	Incorrect  int
	Percentage int
}

// Aggregate builds results for questions (in lesson order) from the live
// answers. Answers for questions outside the list are ignored. An attempt
// with no questions scores 100.
func Aggregate(questions []catalog.Question, answers map[string]store.Answer) Results {
	r := Results{Items: make([]ResultItem, 0, len(questions)), Total: len(questions)}

	for _, q := range questions {
		item := ResultItem{Question: q, Variant: q.Original()}
		if a, ok := answers[q.ID]; ok {
			item.Answered = true
			item.SelectedOption = a.SelectedOption
			item.Correct = a.IsCorrect
			if v, ok := q.VariantByID(a.VariantID); ok {
				item.Variant = v
			}
			if a.IsCorrect {
				r.Correct++
			} else {
				r.Incorrect++
			}
		}
		r.Items = append(r.Items, item)
	}

	r.Percentage = Percentage(r.Correct, r.Total)
	return r
}

// Percentage is round(100 * correct / total), rounding halves away from zero.
func Percentage(correct, total int) int {
	if total == 0 {
		return 100
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}

// Passed reports whether the attempt reached passMark percent.
func (r Results) Passed(passMark int) bool {
	return r.Percentage >= passMark
}

// Retryable returns the items eligible for retry.
func (r Results) Retryable() []ResultItem {
	var out []ResultItem
	for _, it := range r.Items {
		if it.Retryable() {
			out = append(out, it)
		}
	}
	return out
}

// Report is a stored attempt read back outside a live session.
type Report struct {
	Session store.LessonSession
	Results Results
}

// LoadReport reads the student's session and live answers for lesson and
// tallies them. Shadowed questions are excluded the same way the engine
// excludes them. It returns store.ErrNotFound when the student never
// entered the lesson.
func LoadReport(ctx context.Context, repo store.ProgressRepo, studentID string, lesson *catalog.Lesson) (*Report, error) {
	if studentID == "" {
		return nil, ErrNoStudent
	}
	sess, err := repo.FindSession(ctx, studentID, lesson.ID)
	if err != nil {
		return nil, err
	}
	answers, err := repo.ListAnswers(ctx, studentID, lesson.ID)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	byQuestion := make(map[string]store.Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}
	kept, _ := Schedulable(lesson.Questions)
	return &Report{Session: *sess, Results: Aggregate(kept, byQuestion)}, nil
}
