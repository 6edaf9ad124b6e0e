package lesson

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abhisek/lessonplay/internal/catalog"
	"github.com/abhisek/lessonplay/internal/playback"
	"github.com/abhisek/lessonplay/internal/store"
)

var errTestWrite = errors.New("write failed")

const student = "ada"

func twoQuestionLesson() *catalog.Lesson {
	return &catalog.Lesson{
		ID:              "fractions",
		Title:           "Fractions",
		DurationSeconds: 120,
		Questions: []catalog.Question{
			{ID: "q1", ShowAtSecond: 10, Body: "1/2 + 1/2?", Options: []string{"1", "2", "1/4", "0"}, CorrectOption: 0},
			{ID: "q2", ShowAtSecond: 30, Body: "1/3 of 9?", Options: []string{"1", "3", "6", "9"}, CorrectOption: 1,
				Variants: []catalog.Variant{{ID: 1, Body: "1/3 of 12?", Options: []string{"4", "3", "6", "9"}, CorrectOption: 0}}},
		},
	}
}

type harness struct {
	t      *testing.T
	repo   *memRepo
	lesson *catalog.Lesson
	pb     *playback.Context
	player *fakePlayer
	eng    *Engine
	rnd    Rand
}

func newHarness(t *testing.T, l *catalog.Lesson) *harness {
	t.Helper()
	pb, p := newTestContext(float64(l.DurationSeconds))
	return &harness{t: t, repo: newMemRepo(), lesson: l, pb: pb, player: p}
}

// enter loads persisted state, builds a fresh engine and starts it.
func (h *harness) enter() StartResult {
	h.t.Helper()
	loaded, err := Load(context.Background(), h.repo, student, h.lesson.ID)
	require.NoError(h.t, err)
	rnd := h.rnd
	if rnd == nil {
		rnd = fixedRand(0)
	}
	h.eng = New(DefaultConfig(), h.lesson, student, h.pb, Deps{Repo: h.repo, Logger: zap.NewNop(), Rand: rnd})
	res := h.eng.Start(loaded)
	h.run(res.Writes)
	return res
}

func (h *harness) run(writes []Write) {
	h.t.Helper()
	n := RunWrites(context.Background(), zap.NewNop(), writes)
	require.Equal(h.t, len(writes), n)
}

// at moves the player and samples it.
func (h *harness) at(pos float64) Transition {
	h.player.pos = pos
	return h.eng.OnSample(h.pb.Tracker.Now())
}

// answer triggers the question at pos, displays it and submits option.
func (h *harness) answer(pos float64, option int) SubmitResult {
	h.t.Helper()
	tr := h.at(pos)
	require.NotNil(h.t, tr.Due, "expected a question at %v", pos)
	require.True(h.t, h.eng.Display(tr.Due.Token))
	res, err := h.eng.Submit(option)
	require.NoError(h.t, err)
	h.run(res.Writes)
	return res
}

func TestLoad_RequiresStudent(t *testing.T) {
	_, err := Load(context.Background(), newMemRepo(), "", "fractions")
	assert.ErrorIs(t, err, ErrNoStudent)
}

func TestStart_FreshSessionPlaysFromZero(t *testing.T) {
	h := newHarness(t, twoQuestionLesson())
	res := h.enter()

	assert.Equal(t, PhaseWatching, res.Phase)
	assert.Equal(t, 0.0, res.ResumeAt)
	assert.True(t, h.player.playing)
	assert.False(t, h.eng.Review())
	assert.Equal(t, 1, h.eng.Attempt())
}

func TestStart_ResumesBeforeEarliestUnanswered(t *testing.T) {
	h := newHarness(t, twoQuestionLesson())
	h.enter()
	h.answer(10.3, 0)

	h.repo.sessions[key(student, "fractions")].VideoPositionSeconds = 45
	res := h.enter()

	assert.Equal(t, 28.0, res.ResumeAt)
	assert.Equal(t, 28.0, h.player.pos)
	answered, total := h.eng.Progress()
	assert.Equal(t, 1, answered)
	assert.Equal(t, 2, total)
}

func TestStart_ResumeClampedToEnd(t *testing.T) {
	l := &catalog.Lesson{ID: "short", DurationSeconds: 20}
	h := newHarness(t, l)
	h.enter()
	h.repo.sessions[key(student, "short")].VideoPositionSeconds = 19

	res := h.enter()
	assert.Equal(t, 15.0, res.ResumeAt)
}

func TestOnSample_FiresExactlyOnce(t *testing.T) {
	h := newHarness(t, twoQuestionLesson())
	h.enter()

	tr := h.at(10.1)
	require.NotNil(t, tr.Due)
	assert.Equal(t, "q1", tr.Due.Question.ID)
	assert.False(t, h.player.playing, "playback pauses on trigger")
	assert.True(t, h.pb.OrientationLocked())
	assert.Equal(t, PhaseQuestionActive, h.eng.Phase())

	// Another sample inside the same second while pending.
	assert.Nil(t, h.at(10.6).Due)

	require.True(t, h.eng.Display(tr.Due.Token))
	res, err := h.eng.Submit(0)
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.False(t, res.AttemptDone)
	h.run(res.Writes)

	assert.Equal(t, PhaseWatching, h.eng.Phase())
	assert.True(t, h.player.playing)
	assert.False(t, h.pb.OrientationLocked())

	assert.Nil(t, h.at(10.9).Due, "answered question must not fire again")

	// Rewinding past the trigger does not re-fire either.
	h.pb.Tracker.Seek(4)
	assert.Nil(t, h.at(10.2).Due)
}

func TestOnSample_SkippedSecondDoesNotFire(t *testing.T) {
	h := newHarness(t, twoQuestionLesson())
	h.enter()

	assert.Nil(t, h.at(9.9).Due)
	assert.Nil(t, h.at(11.0).Due)
}

func TestDisplay_StaleToken(t *testing.T) {
	h := newHarness(t, twoQuestionLesson())
	h.enter()

	tr := h.at(10)
	require.NotNil(t, tr.Due)
	assert.False(t, h.eng.Display(tr.Due.Token+1))

	_, err := h.eng.Submit(0)
	assert.Error(t, err, "submit before display must fail")

	assert.True(t, h.eng.Display(tr.Due.Token))
	p, ok := h.eng.Pending()
	require.True(t, ok)
	assert.True(t, p.Ready)
}

func TestSubmit_RejectsOutOfRangeOption(t *testing.T) {
	h := newHarness(t, twoQuestionLesson())
	h.enter()
	tr := h.at(10)
	require.True(t, h.eng.Display(tr.Due.Token))

	_, err := h.eng.Submit(7)
	assert.Error(t, err)
	_, ok := h.eng.Pending()
	assert.True(t, ok, "question stays displayed")
}

func TestAttemptCompletion(t *testing.T) {
	h := newHarness(t, twoQuestionLesson())
	h.enter()

	h.answer(10, 0)
	res := h.answer(30, 3)

	assert.False(t, res.Correct)
	assert.True(t, res.AttemptDone)
	assert.Equal(t, PhaseAttemptComplete, h.eng.Phase())
	assert.False(t, h.player.playing)

	sess := h.repo.sessions[key(student, "fractions")]
	assert.True(t, sess.Completed)
	assert.False(t, sess.Passed, "50% is below the pass mark")
	assert.Equal(t, 0, sess.VideoPositionSeconds)

	results := h.eng.FinishAttempt()
	assert.Equal(t, PhaseCompleted, h.eng.Phase())
	assert.Equal(t, 2, results.Total)
	assert.Equal(t, 1, results.Correct)
	assert.Equal(t, 50, results.Percentage)

	_, ok := h.eng.Checkpoint()
	assert.False(t, ok, "no checkpoints after completion")
}

func TestReentryAfterCompletionStartsReview(t *testing.T) {
	h := newHarness(t, twoQuestionLesson())
	h.enter()
	h.answer(10, 0)
	h.answer(30, 1)

	res := h.enter()

	assert.Equal(t, PhaseReviewWatching, res.Phase)
	assert.Equal(t, 0.0, res.ResumeAt)
	assert.True(t, h.eng.Review())
	assert.Equal(t, 2, h.eng.Attempt())
	assert.Len(t, h.repo.history, 2)
	assert.Empty(t, h.repo.answers[key(student, "fractions")])

	h.answer(10, 0)
	h.answer(30, 1)
	h.eng.FinishAttempt()
	assert.Equal(t, PhaseReviewComplete, h.eng.Phase())
	assert.True(t, h.repo.sessions[key(student, "fractions")].Passed)
}

func TestStart_AllAnsweredButNotMarked(t *testing.T) {
	h := newHarness(t, twoQuestionLesson())
	h.enter()
	h.answer(10, 0)

	// Crash between saving the last answer and marking completion.
	h.repo.answers[key(student, "fractions")]["q2"] = store.Answer{
		StudentID: student, LessonID: "fractions", QuestionID: "q2", SelectedOption: 1, IsCorrect: true, Attempt: 1,
	}

	res := h.enter()
	assert.Equal(t, PhaseCompleted, res.Phase)
	assert.True(t, h.repo.sessions[key(student, "fractions")].Completed)
	assert.Equal(t, 100, h.eng.Results().Percentage)
}

func TestRetry_RefiresWithFreshVariant(t *testing.T) {
	h := newHarness(t, twoQuestionLesson())
	h.enter()
	h.answer(10, 0)
	h.answer(30, 3)
	h.eng.FinishAttempt()

	_, err := h.eng.Retry("q1")
	assert.ErrorIs(t, err, ErrNotRetryable, "correct answers are not retryable")

	writes, err := h.eng.Retry("q2")
	require.NoError(t, err)
	h.run(writes)

	assert.Equal(t, PhaseWatching, h.eng.Phase())
	assert.Equal(t, 25.0, h.player.pos)
	assert.True(t, h.player.playing)
	assert.False(t, h.repo.sessions[key(student, "fractions")].Completed)
	_, still := h.repo.answers[key(student, "fractions")]["q2"]
	assert.False(t, still)

	tr := h.at(30.2)
	require.NotNil(t, tr.Due)
	assert.Equal(t, "q2", tr.Due.Question.ID)

	require.True(t, h.eng.Display(tr.Due.Token))
	res, err := h.eng.Submit(tr.Due.Variant.CorrectOption)
	require.NoError(t, err)
	assert.True(t, res.AttemptDone)
	h.run(res.Writes)
	assert.Equal(t, 100, h.eng.FinishAttempt().Percentage)
}

func TestRetry_Guards(t *testing.T) {
	h := newHarness(t, twoQuestionLesson())
	h.enter()

	_, err := h.eng.Retry("q1")
	assert.ErrorIs(t, err, ErrNotRetryable)

	h.answer(10, 1)
	h.answer(30, 1)
	h.eng.FinishAttempt()

	_, err = h.eng.Retry("nope")
	assert.ErrorIs(t, err, ErrUnknownQuestion)
}

func TestDuplicateShowAtKeepsFirst(t *testing.T) {
	l := twoQuestionLesson()
	l.Questions = append(l.Questions, catalog.Question{
		ID: "q3", ShowAtSecond: 10, Body: "dup", Options: []string{"a", "b"}, CorrectOption: 0,
	})
	h := newHarness(t, l)
	h.enter()

	assert.Len(t, h.eng.Questions(), 2)
	h.answer(10, 0)
	res := h.answer(30, 1)
	assert.True(t, res.AttemptDone)
	assert.Equal(t, 2, h.eng.FinishAttempt().Total)
}

func TestLessonWithoutQuestionsCompletesAtEnd(t *testing.T) {
	l := &catalog.Lesson{ID: "intro", DurationSeconds: 60}
	h := newHarness(t, l)
	h.enter()

	assert.False(t, h.at(30).AttemptDone)
	tr := h.at(60)
	require.True(t, tr.AttemptDone)
	h.run(tr.Writes)

	results := h.eng.FinishAttempt()
	assert.Equal(t, 100, results.Percentage)
	assert.True(t, h.repo.sessions[key(student, "intro")].Passed)
}

func TestCheckpoint(t *testing.T) {
	h := newHarness(t, twoQuestionLesson())
	h.enter()
	h.player.pos = 7.8

	w, ok := h.eng.Checkpoint()
	require.True(t, ok)
	h.run([]Write{w})
	assert.Equal(t, 7, h.repo.sessions[key(student, "fractions")].VideoPositionSeconds)

	gen := h.eng.CheckpointGen()
	_, _, keep := h.eng.CheckpointTick(gen)
	assert.True(t, keep)
	_, _, keep = h.eng.CheckpointTick(gen + 1)
	assert.False(t, keep, "stale checkpoint timers stop")
}

func TestTeardown(t *testing.T) {
	h := newHarness(t, twoQuestionLesson())
	h.enter()

	tr := h.at(10.4)
	require.NotNil(t, tr.Due)
	gen := h.eng.CheckpointGen()

	writes := h.eng.Teardown()
	require.Len(t, writes, 1)
	h.run(writes)

	assert.Equal(t, 10, h.repo.sessions[key(student, "fractions")].VideoPositionSeconds)
	assert.False(t, h.pb.OrientationLocked())
	assert.False(t, h.eng.Display(tr.Due.Token), "display timer after teardown is a no-op")
	_, _, keep := h.eng.CheckpointTick(gen)
	assert.False(t, keep)
	assert.Nil(t, h.eng.Teardown())
	assert.Nil(t, h.at(30).Due)
}

func TestRunWrites_StopsAtFirstFailure(t *testing.T) {
	h := newHarness(t, twoQuestionLesson())
	h.enter()
	h.answer(10, 0)

	tr := h.at(30)
	require.True(t, h.eng.Display(tr.Due.Token))
	res, err := h.eng.Submit(1)
	require.NoError(t, err)

	h.repo.failOn = "save-answer"
	n := RunWrites(context.Background(), zap.NewNop(), res.Writes)
	assert.Equal(t, 0, n)
	assert.False(t, h.repo.sessions[key(student, "fractions")].Completed,
		"completion is not recorded without its answer")
}

func TestNotifications(t *testing.T) {
	h := newHarness(t, &catalog.Lesson{ID: "intro", DurationSeconds: 30})
	loaded, err := Load(context.Background(), h.repo, student, "intro")
	require.NoError(t, err)

	rec := &recordingNotifier{}
	h.eng = New(DefaultConfig(), h.lesson, student, h.pb, Deps{Repo: h.repo, Notifier: rec})
	h.run(h.eng.Start(loaded).Writes)

	tr := h.at(30)
	require.True(t, tr.AttemptDone)
	h.run(tr.Writes)

	require.Len(t, rec.events, 2)
	assert.Equal(t, "lesson.started", string(rec.events[0].Type))
	assert.Equal(t, "lesson.completed", string(rec.events[1].Type))
	assert.True(t, rec.events[1].Passed)
	assert.Equal(t, 100, rec.events[1].Percentage)
}

func TestNotifications_FailureDoesNotBlockCompletion(t *testing.T) {
	h := newHarness(t, twoQuestionLesson())
	h.enter()
	h.answer(10, 0)

	// The last answer was saved but completion never recorded.
	h.repo.answers[key(student, "fractions")]["q2"] = store.Answer{
		StudentID: student, LessonID: "fractions", QuestionID: "q2", SelectedOption: 1, IsCorrect: true, Attempt: 1,
	}

	loaded, err := Load(context.Background(), h.repo, student, "fractions")
	require.NoError(t, err)
	h.eng = New(DefaultConfig(), h.lesson, student, h.pb, Deps{Repo: h.repo, Notifier: failingNotifier{}})
	res := h.eng.Start(loaded)
	require.Equal(t, PhaseCompleted, res.Phase)

	var ops []string
	for _, w := range res.Writes {
		ops = append(ops, w.Op)
	}
	assert.Equal(t, []string{"lesson.started", "mark-completed", "lesson.completed"}, ops)

	n := RunWrites(context.Background(), zap.NewNop(), res.Writes)
	assert.Equal(t, 1, n, "only mark-completed succeeds")
	assert.True(t, h.repo.sessions[key(student, "fractions")].Completed)
}

func TestRetry_DrawsVariantAgain(t *testing.T) {
	h := newHarness(t, twoQuestionLesson())
	h.rnd = &seqRand{picks: []int{0, 1}}
	h.enter()
	h.answer(10, 0)

	tr := h.at(30)
	require.NotNil(t, tr.Due)
	assert.Equal(t, catalog.OriginalVariantID, tr.Due.Variant.ID)
	require.True(t, h.eng.Display(tr.Due.Token))
	res, err := h.eng.Submit(3)
	require.NoError(t, err)
	h.run(res.Writes)
	h.eng.FinishAttempt()

	writes, err := h.eng.Retry("q2")
	require.NoError(t, err)
	h.run(writes)

	tr = h.at(30.4)
	require.NotNil(t, tr.Due)
	assert.Equal(t, 1, tr.Due.Variant.ID, "a retried question gets a fresh draw")
}

func TestNew_WithoutRandStillVaries(t *testing.T) {
	l := &catalog.Lesson{
		ID:              "shapes",
		DurationSeconds: 60,
		Questions: []catalog.Question{{
			ID: "q1", ShowAtSecond: 10, Body: "sides of a square?", Options: []string{"3", "4"}, CorrectOption: 1,
			Variants: []catalog.Variant{
				{ID: 1, Body: "sides of a triangle?", Options: []string{"3", "4"}, CorrectOption: 0},
				{ID: 2, Body: "corners of a square?", Options: []string{"3", "4"}, CorrectOption: 1},
			},
		}},
	}

	seen := make(map[int]int)
	for range 60 {
		h := newHarness(t, l)
		loaded, err := Load(context.Background(), h.repo, student, l.ID)
		require.NoError(t, err)
		h.eng = New(DefaultConfig(), l, student, h.pb, Deps{Repo: h.repo})
		h.eng.Start(loaded)

		tr := h.at(10.2)
		require.NotNil(t, tr.Due)
		seen[tr.Due.Variant.ID]++
	}
	assert.Greater(t, len(seen), 1, "variants drawn: %v", seen)
}
