// Package gating decides which lessons a student may open.
package gating

import (
	"github.com/abhisek/lessonplay/internal/catalog"
	"github.com/abhisek/lessonplay/internal/store"
)

// TierFull unlocks every lesson.
const TierFull = "full"

// Reason explains why a lesson is open.
type Reason int

const (
	Locked Reason = iota
	First
	PreviousPassed
	Started
	Override
	Tier
)

func (r Reason) String() string {
	switch r {
	case Locked:
		return "locked"
	case First:
		return "first lesson"
	case PreviousPassed:
		return "previous lesson passed"
	case Started:
		return "already started"
	case Override:
		return "unlocked by admin"
	case Tier:
		return "included in tier"
	default:
		return "unknown"
	}
}

// Policy is the per-student input to the unlock rule.
type Policy struct {
	Tier      string
	Overrides []string
}

func (p Policy) overridden(lessonID string) bool {
	for _, id := range p.Overrides {
		if id == lessonID {
			return true
		}
	}
	return false
}

// Entry is one lesson in the student's list.
type Entry struct {
	Lesson  *catalog.Lesson
	Reason  Reason
	Session *store.LessonSession
}

func (e Entry) Unlocked() bool { return e.Reason != Locked }

// Evaluate applies the unlock rule to every lesson in catalog order.
// Lesson N+1 opens when lesson N was passed, when the student already has
// a session for it, by admin override or by tier. The first lesson is
// always open.
func Evaluate(cat *catalog.Catalog, sessions []store.LessonSession, p Policy) []Entry {
	byLesson := make(map[string]*store.LessonSession, len(sessions))
	for i := range sessions {
		byLesson[sessions[i].LessonID] = &sessions[i]
	}

	entries := make([]Entry, len(cat.Lessons))
	for i := range cat.Lessons {
		l := &cat.Lessons[i]
		sess := byLesson[l.ID]
		entries[i] = Entry{Lesson: l, Session: sess, Reason: reason(cat, byLesson, i, sess, p)}
	}
	return entries
}

func reason(cat *catalog.Catalog, byLesson map[string]*store.LessonSession, i int, sess *store.LessonSession, p Policy) Reason {
	switch {
	case i == 0:
		return First
	case sess != nil:
		return Started
	case p.Tier == TierFull:
		return Tier
	case p.overridden(cat.Lessons[i].ID):
		return Override
	}
	if prev := byLesson[cat.Lessons[i-1].ID]; prev != nil && prev.Passed {
		return PreviousPassed
	}
	return Locked
}

// Unlocked evaluates a single lesson. Unknown lessons are locked.
func Unlocked(cat *catalog.Catalog, sessions []store.LessonSession, p Policy, lessonID string) bool {
	for _, e := range Evaluate(cat, sessions, p) {
		if e.Lesson.ID == lessonID {
			return e.Unlocked()
		}
	}
	return false
}
