package catalog

import "fmt"

// Issue is an authoring problem that playback tolerates.
type Issue struct {
	LessonID   string
	QuestionID string
	Message    string
}

func (i Issue) String() string {
	if i.QuestionID == "" {
		return fmt.Sprintf("%s: %s", i.LessonID, i.Message)
	}
	return fmt.Sprintf("%s/%s: %s", i.LessonID, i.QuestionID, i.Message)
}

// Check reports authoring problems:
//   - duplicate lesson or question ids
//   - questions sharing a trigger second (only the first can fire)
//   - a correct option outside the option list
//   - variants that can't be graded or reuse an id
//   - a lesson with no questions and no duration, which can never complete
func Check(cat *Catalog) []Issue {
	var issues []Issue
	lessonIDs := make(map[string]bool)

	for _, l := range cat.Lessons {
		if lessonIDs[l.ID] {
			issues = append(issues, Issue{LessonID: l.ID, Message: "duplicate lesson id"})
		}
		lessonIDs[l.ID] = true

		if len(l.Questions) == 0 && l.DurationSeconds <= 0 {
			issues = append(issues, Issue{
				LessonID: l.ID,
				Message:  "no questions and no duration: it completes at the end of the video, which is unknown (run lessonplay probe)",
			})
		}

		questionIDs := make(map[string]bool)
		firstAt := make(map[int]string)

		for _, q := range l.Questions {
			if questionIDs[q.ID] {
				issues = append(issues, Issue{LessonID: l.ID, QuestionID: q.ID, Message: "duplicate question id"})
			}
			questionIDs[q.ID] = true

			if prev, ok := firstAt[q.ShowAtSecond]; ok {
				issues = append(issues, Issue{
					LessonID:   l.ID,
					QuestionID: q.ID,
					Message:    fmt.Sprintf("shares show_at %d with %s and will never fire", q.ShowAtSecond, prev),
				})
			} else {
				firstAt[q.ShowAtSecond] = q.ID
			}

			if !q.Original().Valid() {
				issues = append(issues, Issue{
					LessonID:   l.ID,
					QuestionID: q.ID,
					Message:    fmt.Sprintf("correct option %d out of range", q.CorrectOption),
				})
			}

			if l.DurationSeconds > 0 && q.ShowAtSecond >= l.DurationSeconds {
				issues = append(issues, Issue{
					LessonID:   l.ID,
					QuestionID: q.ID,
					Message:    fmt.Sprintf("show_at %d is past the end of the video", q.ShowAtSecond),
				})
			}

			variantIDs := make(map[int]bool)
			for _, v := range q.Variants {
				if v.ID == OriginalVariantID || variantIDs[v.ID] {
					issues = append(issues, Issue{
						LessonID:   l.ID,
						QuestionID: q.ID,
						Message:    fmt.Sprintf("variant id %d is reserved or duplicated", v.ID),
					})
				}
				variantIDs[v.ID] = true
				if !v.Valid() {
					issues = append(issues, Issue{
						LessonID:   l.ID,
						QuestionID: q.ID,
						Message:    fmt.Sprintf("variant %d can't be graded and will be skipped", v.ID),
					})
				}
			}
		}
	}
	return issues
}
