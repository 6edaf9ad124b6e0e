package lesson

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/abhisek/lessonplay/internal/media"
	"github.com/abhisek/lessonplay/internal/notify"
	"github.com/abhisek/lessonplay/internal/playback"
	"github.com/abhisek/lessonplay/internal/store"
)

// memRepo implements store.ProgressRepo in memory for engine tests.
type memRepo struct {
	sessions map[string]*store.LessonSession
	answers  map[string]map[string]store.Answer
	history  []store.Answer
	failOn   string
	calls    []string
}

func newMemRepo() *memRepo {
	return &memRepo{
		sessions: make(map[string]*store.LessonSession),
		answers:  make(map[string]map[string]store.Answer),
	}
}

func key(studentID, lessonID string) string { return studentID + "/" + lessonID }

func (m *memRepo) fail(op string) error {
	m.calls = append(m.calls, op)
	if m.failOn == op {
		return errTestWrite
	}
	return nil
}

func (m *memRepo) GetOrCreateSession(_ context.Context, s, l string) (*store.LessonSession, error) {
	if err := m.fail("get-or-create"); err != nil {
		return nil, err
	}
	sess, ok := m.sessions[key(s, l)]
	if !ok {
		now := time.Now()
		sess = &store.LessonSession{StudentID: s, LessonID: l, Attempt: 1, StartedAt: now, LastActivityAt: now}
		m.sessions[key(s, l)] = sess
	}
	cp := *sess
	return &cp, nil
}

func (m *memRepo) FindSession(_ context.Context, s, l string) (*store.LessonSession, error) {
	sess, ok := m.sessions[key(s, l)]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (m *memRepo) ListSessions(_ context.Context, s string) ([]store.LessonSession, error) {
	var out []store.LessonSession
	for _, sess := range m.sessions {
		if sess.StudentID == s {
			out = append(out, *sess)
		}
	}
	return out, nil
}

func (m *memRepo) ListAnswers(_ context.Context, s, l string) ([]store.Answer, error) {
	var out []store.Answer
	for _, a := range m.answers[key(s, l)] {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AnsweredAt.Before(out[j].AnsweredAt) })
	return out, nil
}

func (m *memRepo) SaveAnswer(_ context.Context, a store.Answer) error {
	if err := m.fail("save-answer"); err != nil {
		return err
	}
	k := key(a.StudentID, a.LessonID)
	if m.answers[k] == nil {
		m.answers[k] = make(map[string]store.Answer)
	}
	m.answers[k][a.QuestionID] = a
	return nil
}

func (m *memRepo) DeleteAnswer(_ context.Context, s, l, q string) error {
	if err := m.fail("delete-answer"); err != nil {
		return err
	}
	delete(m.answers[key(s, l)], q)
	if sess, ok := m.sessions[key(s, l)]; ok {
		sess.Completed = false
	}
	return nil
}

func (m *memRepo) CheckpointPosition(_ context.Context, s, l string, seconds int) error {
	if err := m.fail("checkpoint"); err != nil {
		return err
	}
	if sess, ok := m.sessions[key(s, l)]; ok {
		sess.VideoPositionSeconds = seconds
	}
	return nil
}

func (m *memRepo) MarkCompleted(_ context.Context, s, l string, passed bool) error {
	if err := m.fail("mark-completed"); err != nil {
		return err
	}
	sess, ok := m.sessions[key(s, l)]
	if !ok {
		return store.ErrNotFound
	}
	sess.Completed = true
	sess.VideoPositionSeconds = 0
	sess.Passed = sess.Passed || passed
	return nil
}

func (m *memRepo) ResetForReview(_ context.Context, s, l string) (*store.LessonSession, error) {
	if err := m.fail("reset"); err != nil {
		return nil, err
	}
	sess, ok := m.sessions[key(s, l)]
	if !ok {
		return nil, store.ErrNotFound
	}
	for _, a := range m.answers[key(s, l)] {
		m.history = append(m.history, a)
	}
	delete(m.answers, key(s, l))
	sess.Completed = false
	sess.VideoPositionSeconds = 0
	sess.Attempt++
	cp := *sess
	return &cp, nil
}

func (m *memRepo) ListAnswerHistory(_ context.Context, _, _ string) ([]store.Answer, error) {
	return m.history, nil
}

func (m *memRepo) DeleteSession(_ context.Context, s, l string) error {
	delete(m.sessions, key(s, l))
	delete(m.answers, key(s, l))
	return nil
}

// fakePlayer is a manually driven media.Player.
type fakePlayer struct {
	pos      float64
	playing  bool
	duration float64
}

var _ media.Player = (*fakePlayer)(nil)

func (p *fakePlayer) Position() float64 { return p.pos }
func (p *fakePlayer) Duration() (float64, bool) {
	return p.duration, p.duration > 0
}
func (p *fakePlayer) Seek(s float64) { p.pos = s }
func (p *fakePlayer) Play()          { p.playing = true }
func (p *fakePlayer) Pause()         { p.playing = false }
func (p *fakePlayer) Playing() bool  { return p.playing }

// fixedRand always picks the same index, wrapped to n.
type fixedRand int

func (r fixedRand) IntN(n int) int { return int(r) % n }

// seqRand returns picks in order, wrapped to n, repeating the last one.
type seqRand struct {
	picks []int
	calls int
}

func (r *seqRand) IntN(n int) int {
	i := min(r.calls, len(r.picks)-1)
	r.calls++
	return r.picks[i] % n
}

func newTestContext(duration float64) (*playback.Context, *fakePlayer) {
	p := &fakePlayer{duration: duration}
	return playback.NewContext(playback.NewTracker(p, 0, 0)), p
}

type recordingNotifier struct {
	events []notify.Event
}

func (r *recordingNotifier) Notify(_ context.Context, e notify.Event) error {
	r.events = append(r.events, e)
	return nil
}

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, notify.Event) error {
	return errors.New("redis: connection refused")
}
