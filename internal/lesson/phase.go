package lesson

import "errors"

var (
	// ErrNoStudent is returned when no student is signed in. It is the only
	// error that ends a session.
	ErrNoStudent = errors.New("no signed-in student")

	ErrUnknownQuestion = errors.New("question does not belong to this lesson")
	ErrNotRetryable    = errors.New("retry is only available from the results")
	ErrNotLoaded       = errors.New("session has not been entered")
)

// Phase is where the student is within a lesson.
type Phase int

const (
	PhaseNotStarted      Phase = iota // Not entered yet
	PhaseWatching                     // Video playing, no question shown
	PhaseQuestionActive               // A question is pending or displayed
	PhaseAttemptComplete              // Last answer written, results about to show
	PhaseCompleted                    // Results of a first attempt
	PhaseReviewWatching               // Watching again after completion
	PhaseReviewComplete               // Results of a review attempt
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not-started"
	case PhaseWatching:
		return "watching"
	case PhaseQuestionActive:
		return "question-active"
	case PhaseAttemptComplete:
		return "attempt-complete"
	case PhaseCompleted:
		return "completed"
	case PhaseReviewWatching:
		return "review-watching"
	case PhaseReviewComplete:
		return "review-complete"
	default:
		return "unknown"
	}
}

// Watching reports whether the video is the active surface.
func (p Phase) Watching() bool {
	return p == PhaseWatching || p == PhaseReviewWatching
}

// Finished reports whether the results are showing.
func (p Phase) Finished() bool {
	return p == PhaseCompleted || p == PhaseReviewComplete
}
