package player

import (
	"github.com/abhisek/lessonplay/internal/lesson"
)

// loadedMsg is sent when the session and answers have been read.
type loadedMsg struct {
	Loaded *lesson.Loaded
	Err    error
}

// displayMsg fires when a question's placeholder delay has elapsed.
type displayMsg struct {
	Token uint64
}

// checkpointMsg fires the periodic position checkpoint.
type checkpointMsg struct {
	Gen uint64
}

// finishMsg fires when the completion delay has elapsed.
type finishMsg struct{}

// retryMsg asks to take an incorrectly answered question again.
type retryMsg struct {
	QuestionID string
}
