package lesson

import (
	"github.com/abhisek/lessonplay/internal/catalog"
	"github.com/abhisek/lessonplay/internal/playback"
)

// SchedulerState is the question scheduler's position in its cycle.
type SchedulerState int

const (
	SchedulerIdle SchedulerState = iota
	SchedulerPending
	SchedulerDisplayed
	SchedulerSubmitting
)

func (s SchedulerState) String() string {
	switch s {
	case SchedulerIdle:
		return "idle"
	case SchedulerPending:
		return "pending"
	case SchedulerDisplayed:
		return "displayed"
	case SchedulerSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// Scheduler decides when a question is due. It holds no I/O and no
// timers: feed it samples and it reports at most one due question.
type Scheduler struct {
	questions []catalog.Question
	bySecond  map[int]int // showAtSecond -> index of the first question at that second
	answered  map[string]bool
	state     SchedulerState
	current   string
}

// NewScheduler builds a scheduler over questions already reduced by
// Schedulable. answered seeds the set of questions owed no answer.
func NewScheduler(questions []catalog.Question, answered map[string]bool) *Scheduler {
	s := &Scheduler{
		questions: questions,
		bySecond:  make(map[int]int, len(questions)),
		answered:  make(map[string]bool, len(answered)),
	}
	for i, q := range questions {
		if _, ok := s.bySecond[q.ShowAtSecond]; !ok {
			s.bySecond[q.ShowAtSecond] = i
		}
	}
	for id, ok := range answered {
		if ok {
			s.answered[id] = true
		}
	}
	return s
}

// Schedulable drops questions that can never fire because an earlier
// question (in authoring order) shares their trigger second. The shadowed
// questions are returned separately for reporting.
func Schedulable(questions []catalog.Question) (kept, shadowed []catalog.Question) {
	seen := make(map[int]bool, len(questions))
	for _, q := range questions {
		if seen[q.ShowAtSecond] {
			shadowed = append(shadowed, q)
			continue
		}
		seen[q.ShowAtSecond] = true
		kept = append(kept, q)
	}
	return kept, shadowed
}

func (s *Scheduler) State() SchedulerState { return s.state }

// Current returns the id of the pending or displayed question.
func (s *Scheduler) Current() (string, bool) {
	return s.current, s.state != SchedulerIdle
}

// Due returns the question that fires at second, if any. It does not
// change state.
func (s *Scheduler) Due(second int) (catalog.Question, bool) {
	if s.state != SchedulerIdle {
		return catalog.Question{}, false
	}
	i, ok := s.bySecond[second]
	if !ok {
		return catalog.Question{}, false
	}
	q := s.questions[i]
	if s.answered[q.ID] {
		return catalog.Question{}, false
	}
	return q, true
}

// OnSample moves Idle to Pending when the sample's second matches an
// unanswered question's trigger. At most one question is ever pending.
func (s *Scheduler) OnSample(sample playback.Sample) (catalog.Question, bool) {
	q, ok := s.Due(sample.Second())
	if !ok {
		return catalog.Question{}, false
	}
	s.state = SchedulerPending
	s.current = q.ID
	return q, true
}

// Display moves Pending to Displayed.
func (s *Scheduler) Display(questionID string) bool {
	if s.state != SchedulerPending || s.current != questionID {
		return false
	}
	s.state = SchedulerDisplayed
	return true
}

// Submit moves Displayed to Submitting.
func (s *Scheduler) Submit(questionID string) bool {
	if s.state != SchedulerDisplayed || s.current != questionID {
		return false
	}
	s.state = SchedulerSubmitting
	return true
}

// Complete records the answer and returns to Idle.
func (s *Scheduler) Complete(questionID string) bool {
	if s.state != SchedulerSubmitting || s.current != questionID {
		return false
	}
	s.answered[questionID] = true
	s.state = SchedulerIdle
	s.current = ""
	return true
}

// Cancel drops any pending or displayed question without answering it.
func (s *Scheduler) Cancel() {
	s.state = SchedulerIdle
	s.current = ""
}

// Forget returns an answered question to the unanswered pool.
func (s *Scheduler) Forget(questionID string) {
	delete(s.answered, questionID)
}

func (s *Scheduler) Answered(questionID string) bool {
	return s.answered[questionID]
}

// AnsweredCount counts answered questions that belong to this schedule.
func (s *Scheduler) AnsweredCount() int {
	n := 0
	for _, q := range s.questions {
		if s.answered[q.ID] {
			n++
		}
	}
	return n
}

// Total is the number of schedulable questions.
func (s *Scheduler) Total() int { return len(s.questions) }

// AllAnswered reports whether every schedulable question has an answer.
// An empty schedule is never "all answered": lessons without questions
// complete at the end of the video instead.
func (s *Scheduler) AllAnswered() bool {
	return len(s.questions) > 0 && s.AnsweredCount() == len(s.questions)
}

// EarliestUnanswered returns the unanswered question with the lowest
// trigger second.
func (s *Scheduler) EarliestUnanswered() (catalog.Question, bool) {
	var best catalog.Question
	found := false
	for _, q := range s.questions {
		if s.answered[q.ID] {
			continue
		}
		if !found || q.ShowAtSecond < best.ShowAtSecond {
			best = q
			found = true
		}
	}
	return best, found
}
