package store

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// LessonSession is a student's progress through one lesson. There is at
// most one per (StudentID, LessonID).
type LessonSession struct {
	StudentID string
	LessonID  string

	// VideoPositionSeconds is the last checkpointed playback position.
	VideoPositionSeconds int

	// Completed is true only while every question of the current attempt
	// has a live answer.
	Completed bool

	// Passed latches the first time an attempt finishes at or above the
	// pass mark. Review resets never clear it.
	Passed bool

	// Attempt counts attempts, starting at 1. A review reset starts the next.
	Attempt int

	StartedAt      time.Time
	LastActivityAt time.Time
}

// Answer is the live answer to one question. There is at most one per
// (StudentID, LessonID, QuestionID).
type Answer struct {
	StudentID      string
	LessonID       string
	QuestionID     string
	VariantID      int
	SelectedOption int
	IsCorrect      bool
	Attempt        int
	AnsweredAt     time.Time
}

// ProgressRepo persists lesson sessions and answers.
type ProgressRepo interface {
	// GetOrCreateSession returns the session, creating it at position 0
	// on first entry.
	GetOrCreateSession(ctx context.Context, studentID, lessonID string) (*LessonSession, error)

	// FindSession returns ErrNotFound when the student never entered the lesson.
	FindSession(ctx context.Context, studentID, lessonID string) (*LessonSession, error)

	// ListSessions returns every session of a student.
	ListSessions(ctx context.Context, studentID string) ([]LessonSession, error)

	// ListAnswers returns live answers ordered by answer time.
	ListAnswers(ctx context.Context, studentID, lessonID string) ([]Answer, error)

	// SaveAnswer upserts the answer. A previous answer to the same
	// question is replaced in a single statement.
	SaveAnswer(ctx context.Context, a Answer) error

	// DeleteAnswer removes one answer and reopens the attempt.
	DeleteAnswer(ctx context.Context, studentID, lessonID, questionID string) error

	// CheckpointPosition records the playback position. Last write wins.
	CheckpointPosition(ctx context.Context, studentID, lessonID string, seconds int) error

	// MarkCompleted sets completed and rewinds the position to 0. When
	// passed is true the pass latch is set as well.
	MarkCompleted(ctx context.Context, studentID, lessonID string, passed bool) error

	// ResetForReview archives the finished attempt's answers, clears them
	// and starts the next attempt at position 0.
	ResetForReview(ctx context.Context, studentID, lessonID string) (*LessonSession, error)

	// ListAnswerHistory returns archived answers, oldest attempt first.
	ListAnswerHistory(ctx context.Context, studentID, lessonID string) ([]Answer, error)

	// DeleteSession removes a session and its live answers.
	DeleteSession(ctx context.Context, studentID, lessonID string) error
}
