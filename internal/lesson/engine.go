package lesson

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/lessonplay/internal/catalog"
	"github.com/abhisek/lessonplay/internal/notify"
	"github.com/abhisek/lessonplay/internal/playback"
	"github.com/abhisek/lessonplay/internal/store"
)

const (
	// resumeLead is how far before the next owed question playback resumes.
	resumeLead = 2
	// retryLead is how far before a retried question playback rewinds.
	retryLead = 5
)

// Config holds engine timing and grading settings.
type Config struct {
	// DisplayDelay is how long the placeholder shows before a question.
	DisplayDelay time.Duration

	// CheckpointInterval is the periodic position checkpoint interval.
	CheckpointInterval time.Duration

	// CompletionDelay is the pause between the last answer and the results.
	CompletionDelay time.Duration

	// PassMark is the minimum percentage that counts as passing.
	PassMark int
}

// DefaultConfig returns the standard engine settings.
func DefaultConfig() Config {
	return Config{
		DisplayDelay:       800 * time.Millisecond,
		CheckpointInterval: 5 * time.Second,
		CompletionDelay:    600 * time.Millisecond,
		PassMark:           70,
	}
}

// Deps are the engine's collaborators. Notifier and Rand are optional; a
// nil Rand draws variants from math/rand/v2.
type Deps struct {
	Repo     store.ProgressRepo
	Notifier notify.Notifier
	Logger   *zap.Logger
	Rand     Rand
}

// Loaded is the persisted state read when entering a lesson.
type Loaded struct {
	Session store.LessonSession
	Answers []store.Answer

	// ReviewReset is true when this entry found a completed attempt and
	// started the next one.
	ReviewReset bool
}

// Load performs the I/O of entering a lesson: it creates the session on
// first entry, resets a completed one for review and reads the answers.
func Load(ctx context.Context, repo store.ProgressRepo, studentID, lessonID string) (*Loaded, error) {
	if studentID == "" {
		return nil, ErrNoStudent
	}

	sess, err := repo.GetOrCreateSession(ctx, studentID, lessonID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	if sess.Completed {
		sess, err = repo.ResetForReview(ctx, studentID, lessonID)
		if err != nil {
			return nil, fmt.Errorf("reset for review: %w", err)
		}
		return &Loaded{Session: *sess, ReviewReset: true}, nil
	}

	answers, err := repo.ListAnswers(ctx, studentID, lessonID)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	return &Loaded{Session: *sess, Answers: answers}, nil
}

// Pending is the question between trigger and answer.
type Pending struct {
	Question catalog.Question
	Variant  catalog.Variant

	// Token identifies this trigger. Display timers carry it so a timer
	// that outlives its question never renders.
	Token uint64

	// Ready is false while the placeholder shows.
	Ready bool
}

// StartResult describes where playback begins.
type StartResult struct {
	Phase    Phase
	ResumeAt float64
	Writes   []Write
}

// Transition is the outcome of a playback sample.
type Transition struct {
	// Due is set when a question just triggered. The caller shows the
	// placeholder and calls Display(Due.Token) after the display delay.
	Due *Pending

	// AttemptDone is set when the attempt just completed. The caller calls
	// FinishAttempt after the completion delay.
	AttemptDone bool

	Writes []Write
}

// SubmitResult is the outcome of answering the displayed question.
type SubmitResult struct {
	Correct     bool
	AttemptDone bool
	Writes      []Write
}

// Engine is the session state machine for one student in one lesson.
// It is not safe for concurrent use; drive it from a single event loop.
type Engine struct {
	cfg       Config
	lesson    *catalog.Lesson
	questions []catalog.Question
	studentID string

	repo     store.ProgressRepo
	notifier notify.Notifier
	log      *zap.Logger
	rnd      Rand
	pb       *playback.Context

	phase   Phase
	attempt int
	review  bool

	sched    *Scheduler
	answers  map[string]store.Answer
	variants map[string]catalog.Variant
	pending  *Pending
	token    uint64

	checkpointGen uint64
	tornDown      bool
}

// New creates an engine for lesson. Questions sharing a trigger second
// with an earlier one are dropped and logged.
func New(cfg Config, lesson *catalog.Lesson, studentID string, pb *playback.Context, deps Deps) *Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("lesson").With(zap.String("lesson", lesson.ID), zap.String("student", studentID))

	kept, shadowed := Schedulable(lesson.Questions)
	for _, q := range shadowed {
		log.Warn("question shares a trigger second and will never fire",
			zap.String("question", q.ID), zap.Int("show_at", q.ShowAtSecond))
	}

	rnd := deps.Rand
	if rnd == nil {
		rnd = globalRand{}
	}

	return &Engine{
		cfg:       cfg,
		lesson:    lesson,
		questions: kept,
		studentID: studentID,
		repo:      deps.Repo,
		notifier:  deps.Notifier,
		log:       log,
		rnd:       rnd,
		pb:        pb,
		phase:     PhaseNotStarted,
		answers:   make(map[string]store.Answer),
		variants:  make(map[string]catalog.Variant),
	}
}

func (e *Engine) Phase() Phase                  { return e.phase }
func (e *Engine) Lesson() *catalog.Lesson       { return e.lesson }
func (e *Engine) Questions() []catalog.Question { return e.questions }
func (e *Engine) Attempt() int                  { return e.attempt }
func (e *Engine) Review() bool                  { return e.review }
func (e *Engine) Config() Config                { return e.cfg }
func (e *Engine) CheckpointGen() uint64         { return e.checkpointGen }
func (e *Engine) TornDown() bool                { return e.tornDown }

// Pending returns the question between trigger and answer, if any.
func (e *Engine) Pending() (Pending, bool) {
	if e.pending == nil {
		return Pending{}, false
	}
	return *e.pending, true
}

// Progress returns answered and total question counts.
func (e *Engine) Progress() (answered, total int) {
	if e.sched == nil {
		return 0, len(e.questions)
	}
	return e.sched.AnsweredCount(), e.sched.Total()
}

// Results tallies the current attempt.
func (e *Engine) Results() Results {
	return Aggregate(e.questions, e.answers)
}

// Start applies the loaded state: it builds the answered set, positions
// playback and picks the starting phase.
func (e *Engine) Start(l *Loaded) StartResult {
	e.attempt = l.Session.Attempt
	if e.attempt < 1 {
		e.attempt = 1
	}
	e.review = e.attempt > 1

	answered := make(map[string]bool)
	for _, a := range l.Answers {
		if _, ok := e.question(a.QuestionID); !ok {
			e.log.Warn("ignoring answer to a question outside the lesson", zap.String("question", a.QuestionID))
			continue
		}
		e.answers[a.QuestionID] = a
		answered[a.QuestionID] = true
	}
	e.sched = NewScheduler(e.questions, answered)

	writes := []Write{e.notifyWrite(notify.LessonStarted, nil)}

	tracker := e.pb.Tracker
	if e.sched.AllAnswered() {
		tracker.Pause()
		e.phase = PhaseAttemptComplete
		if !l.Session.Completed {
			writes = append(writes, e.completionWrites()...)
		}
		e.FinishAttempt()
		return StartResult{Phase: e.phase, Writes: writes}
	}

	if len(e.questions) == 0 {
		if _, known := tracker.Duration(); !known {
			e.log.Warn("lesson has no questions and no known duration; it completes only once the player reports one")
		}
	}

	resume := 0.0
	if !l.ReviewReset {
		resume = float64(l.Session.VideoPositionSeconds)
		if q, ok := e.sched.EarliestUnanswered(); ok && (l.Session.VideoPositionSeconds > 0 || len(e.answers) > 0) {
			resume = math.Max(0, float64(q.ShowAtSecond-resumeLead))
		}
	}
	resume = tracker.ClampResume(resume)

	tracker.Seek(resume)
	tracker.Play()
	e.phase = e.watchingPhase()

	e.log.Info("lesson entered",
		zap.Int("attempt", e.attempt),
		zap.Bool("review_reset", l.ReviewReset),
		zap.Int("answered", e.sched.AnsweredCount()),
		zap.Float64("resume_at", resume),
	)

	return StartResult{Phase: e.phase, ResumeAt: resume, Writes: writes}
}

// OnSample feeds one playback sample through the scheduler.
func (e *Engine) OnSample(s playback.Sample) Transition {
	if e.tornDown || !e.phase.Watching() {
		return Transition{}
	}

	if len(e.questions) == 0 {
		if e.pb.Tracker.AtEnd() {
			return Transition{AttemptDone: true, Writes: e.completeAttempt()}
		}
		return Transition{}
	}

	q, ok := e.sched.OnSample(s)
	if !ok {
		return Transition{}
	}

	// Pause and lock before anything that can be slow.
	e.pb.Tracker.Pause()
	e.pb.LockOrientation()

	v, chosen := e.variants[q.ID]
	if !chosen {
		var existing *store.Answer
		if a, ok := e.answers[q.ID]; ok {
			existing = &a
		}
		v = SelectVariant(q, existing, e.rnd)
		e.variants[q.ID] = v
	}

	e.token++
	e.pending = &Pending{Question: q, Variant: v, Token: e.token}
	e.phase = PhaseQuestionActive

	e.log.Debug("question due", zap.String("question", q.ID), zap.Int("variant", v.ID), zap.Int("second", s.Second()))

	p := *e.pending
	return Transition{Due: &p}
}

// Display reveals the pending question once its placeholder delay has
// elapsed. It reports false for a token that no longer matches, e.g.
// after teardown.
func (e *Engine) Display(token uint64) bool {
	if e.tornDown || e.pending == nil || e.pending.Token != token {
		return false
	}
	if !e.sched.Display(e.pending.Question.ID) {
		return false
	}
	e.pending.Ready = true
	return true
}

// Submit grades option against the displayed variant, records the answer
// and either resumes playback or completes the attempt.
func (e *Engine) Submit(option int) (SubmitResult, error) {
	if e.tornDown || e.pending == nil || !e.pending.Ready {
		return SubmitResult{}, errors.New("no question is displayed")
	}
	p := e.pending
	if option < 0 || option >= len(p.Variant.Options) {
		return SubmitResult{}, fmt.Errorf("option %d out of range", option)
	}
	if !e.sched.Submit(p.Question.ID) {
		return SubmitResult{}, fmt.Errorf("question %s is not awaiting an answer", p.Question.ID)
	}

	ans := store.Answer{
		StudentID:      e.studentID,
		LessonID:       e.lesson.ID,
		QuestionID:     p.Question.ID,
		VariantID:      p.Variant.ID,
		SelectedOption: option,
		IsCorrect:      option == p.Variant.CorrectOption,
		Attempt:        e.attempt,
		AnsweredAt:     time.Now().UTC(),
	}
	e.answers[ans.QuestionID] = ans
	e.sched.Complete(ans.QuestionID)
	e.pending = nil
	e.pb.UnlockOrientation()

	repo := e.repo
	writes := []Write{{
		Op:  "save-answer",
		Run: func(ctx context.Context) error { return repo.SaveAnswer(ctx, ans) },
	}}

	res := SubmitResult{Correct: ans.IsCorrect}
	if e.sched.AllAnswered() {
		res.AttemptDone = true
		writes = append(writes, e.completeAttempt()...)
	} else {
		e.phase = e.watchingPhase()
		e.pb.Tracker.Play()
	}
	res.Writes = writes
	return res, nil
}

// completeAttempt moves to AttemptComplete and records completion.
func (e *Engine) completeAttempt() []Write {
	e.pb.Tracker.Pause()
	e.phase = PhaseAttemptComplete
	return e.completionWrites()
}

func (e *Engine) completionWrites() []Write {
	results := e.Results()
	passed := results.Passed(e.cfg.PassMark)
	repo, student, lessonID := e.repo, e.studentID, e.lesson.ID

	e.log.Info("attempt complete",
		zap.Int("attempt", e.attempt),
		zap.Int("percentage", results.Percentage),
		zap.Bool("passed", passed),
	)

	return []Write{
		{
			Op:  "mark-completed",
			Run: func(ctx context.Context) error { return repo.MarkCompleted(ctx, student, lessonID, passed) },
		},
		e.notifyWrite(notify.LessonCompleted, func(ev *notify.Event) {
			ev.Percentage = results.Percentage
			ev.Passed = passed
		}),
	}
}

// FinishAttempt shows the results after the completion delay.
func (e *Engine) FinishAttempt() Results {
	if e.phase == PhaseAttemptComplete {
		if e.review {
			e.phase = PhaseReviewComplete
		} else {
			e.phase = PhaseCompleted
		}
	}
	return e.Results()
}

// Retry deletes the incorrect answer to questionID and rewinds to just
// before it.
// The question fires again with a freshly chosen variant.
func (e *Engine) Retry(questionID string) ([]Write, error) {
	if e.tornDown || !e.phase.Finished() {
		return nil, ErrNotRetryable
	}
	q, ok := e.question(questionID)
	if !ok {
		return nil, ErrUnknownQuestion
	}
	if a, answered := e.answers[questionID]; !answered || a.IsCorrect {
		return nil, ErrNotRetryable
	}

	delete(e.answers, questionID)
	delete(e.variants, questionID)
	e.sched.Forget(questionID)

	tracker := e.pb.Tracker
	tracker.Seek(tracker.ClampResume(math.Max(0, float64(q.ShowAtSecond-retryLead))))
	tracker.Play()
	e.phase = e.watchingPhase()

	repo, student, lessonID := e.repo, e.studentID, e.lesson.ID
	return []Write{{
		Op:  "delete-answer",
		Run: func(ctx context.Context) error { return repo.DeleteAnswer(ctx, student, lessonID, questionID) },
	}}, nil
}

// Checkpoint returns a position write while the video is the active
// surface. Once an attempt is complete the stored position stays at 0.
func (e *Engine) Checkpoint() (Write, bool) {
	if e.tornDown || !(e.phase.Watching() || e.phase == PhaseQuestionActive) {
		return Write{}, false
	}
	seconds := int(math.Floor(e.pb.Tracker.StablePosition()))
	repo, student, lessonID := e.repo, e.studentID, e.lesson.ID
	return Write{
		Op:  "checkpoint",
		Run: func(ctx context.Context) error { return repo.CheckpointPosition(ctx, student, lessonID, seconds) },
	}, true
}

// CheckpointTick handles one firing of the periodic checkpoint timer.
// keep reports whether the timer should be rescheduled.
func (e *Engine) CheckpointTick(gen uint64) (w Write, ok, keep bool) {
	if e.tornDown || gen != e.checkpointGen {
		return Write{}, false, false
	}
	w, ok = e.Checkpoint()
	return w, ok, true
}

// Teardown ends the session when the screen goes away: one last
// checkpoint, the periodic checkpoint is cancelled, the orientation lock
// is released and any pending question is dropped. Safe to call twice.
func (e *Engine) Teardown() []Write {
	if e.tornDown {
		return nil
	}
	var writes []Write
	if w, ok := e.Checkpoint(); ok {
		writes = append(writes, w)
	}

	e.tornDown = true
	e.checkpointGen++
	e.pending = nil
	if e.sched != nil {
		e.sched.Cancel()
	}
	e.pb.UnlockOrientation()
	e.pb.Tracker.Pause()

	e.log.Info("lesson left", zap.String("phase", e.phase.String()))
	return writes
}

func (e *Engine) watchingPhase() Phase {
	if e.review {
		return PhaseReviewWatching
	}
	return PhaseWatching
}

func (e *Engine) question(id string) (catalog.Question, bool) {
	for _, q := range e.questions {
		if q.ID == id {
			return q, true
		}
	}
	return catalog.Question{}, false
}

func (e *Engine) notifyWrite(typ notify.EventType, fill func(*notify.Event)) Write {
	ev := notify.NewEvent(typ, e.studentID, e.lesson.ID, e.attempt)
	ev.Review = e.review
	if fill != nil {
		fill(&ev)
	}
	n := e.notifier
	return Write{
		Op:         string(typ),
		BestEffort: true,
		Run: func(ctx context.Context) error {
			if n == nil {
				return nil
			}
			return n.Notify(ctx, ev)
		},
	}
}
