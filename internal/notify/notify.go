package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// EventType names a lesson lifecycle notification.
type EventType string

const (
	LessonStarted   EventType = "lesson.started"
	LessonCompleted EventType = "lesson.completed"
)

// Event is a fire-and-forget lesson notification. Delivery and retry are
// the transport's concern.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	StudentID string    `json:"student_id"`
	LessonID  string    `json:"lesson_id"`
	Attempt   int       `json:"attempt"`
	Review    bool      `json:"review,omitempty"`

	// Percentage and Passed are set on completion.
	Percentage int  `json:"percentage,omitempty"`
	Passed     bool `json:"passed,omitempty"`

	At time.Time `json:"at"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(typ EventType, studentID, lessonID string, attempt int) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      typ,
		StudentID: studentID,
		LessonID:  lessonID,
		Attempt:   attempt,
		At:        time.Now().UTC(),
	}
}

// Notifier delivers lesson events.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, e Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
