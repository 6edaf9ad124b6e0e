package notify

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type failingNotifier struct{ err error }

func (f failingNotifier) Notify(context.Context, Event) error { return f.err }

func TestNewEvent(t *testing.T) {
	e := NewEvent(LessonStarted, "ada", "fractions", 2)
	if e.ID == "" {
		t.Error("expected an event id")
	}
	if e.At.IsZero() || e.At.Location().String() != "UTC" {
		t.Errorf("At = %v, want a UTC timestamp", e.At)
	}
	if e.Attempt != 2 || e.StudentID != "ada" || e.LessonID != "fractions" {
		t.Errorf("unexpected event %+v", e)
	}
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	e := NewEvent(LessonCompleted, "ada", "fractions", 1)
	e.Percentage = 80
	e.Passed = true
	if err := n.Notify(context.Background(), e); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	entries := logs.FilterMessage("lesson.completed").All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["percentage"] != int64(80) || ctx["passed"] != true {
		t.Errorf("context = %v", ctx)
	}
}

func TestMulti_JoinsErrors(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")
	core, logs := observer.New(zapcore.InfoLevel)

	m := Multi{failingNotifier{errA}, NewLogNotifier(zap.New(core)), failingNotifier{errB}}
	err := m.Notify(context.Background(), NewEvent(LessonStarted, "ada", "fractions", 1))

	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("err = %v, want both failures", err)
	}
	if logs.Len() != 1 {
		t.Error("healthy notifiers still receive the event")
	}
}

func TestNewRedisNotifier_RequiresAddr(t *testing.T) {
	if _, err := NewRedisNotifier(context.Background(), " ", "", zap.NewNop()); err == nil {
		t.Error("expected an error for an empty address")
	}
}
