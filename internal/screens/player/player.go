package player

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap"

	"github.com/abhisek/lessonplay/internal/catalog"
	"github.com/abhisek/lessonplay/internal/lesson"
	"github.com/abhisek/lessonplay/internal/media"
	"github.com/abhisek/lessonplay/internal/notify"
	"github.com/abhisek/lessonplay/internal/playback"
	"github.com/abhisek/lessonplay/internal/router"
	"github.com/abhisek/lessonplay/internal/screen"
	"github.com/abhisek/lessonplay/internal/store"
	"github.com/abhisek/lessonplay/internal/ui/components"
	"github.com/abhisek/lessonplay/internal/ui/layout"
)

// rewindStep is how far the left arrow rewinds.
const rewindStep = 10

// Options are the collaborators a player screen needs.
type Options struct {
	Repo     store.ProgressRepo
	Notifier notify.Notifier
	Logger   *zap.Logger
	Engine   lesson.Config
	Rand     lesson.Rand

	// TickInterval is the playback sampling interval.
	TickInterval time.Duration

	// WriteTimeout bounds each batch of persistence writes.
	WriteTimeout time.Duration

	// Queue, when set, is shared with every other screen of the app:
	// entering a lesson waits for writes left by the previous visit.
	// Without it each screen runs and drains its own queue.
	Queue *lesson.Queue

	// NewPlayer builds the media player for a lesson. Defaults to a
	// wall-clock player over the lesson's duration.
	NewPlayer func(*catalog.Lesson) media.Player
}

// PlayerScreen plays one lesson and asks its questions as playback
// reaches them.
type PlayerScreen struct {
	opts      Options
	lesson    *catalog.Lesson
	studentID string
	log       *zap.Logger

	pb    *playback.Context
	eng   *lesson.Engine
	queue *lesson.Queue

	choice  components.MultiChoice
	results *lesson.Results
	retry   components.Menu
	errMsg  string
}

var _ screen.Screen = (*PlayerScreen)(nil)
var _ screen.KeyHintProvider = (*PlayerScreen)(nil)
var _ screen.Leaver = (*PlayerScreen)(nil)
var _ screen.ProgressProvider = (*PlayerScreen)(nil)

// New creates a PlayerScreen for studentID in l.
func New(l *catalog.Lesson, studentID string, opts Options) *PlayerScreen {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Engine == (lesson.Config{}) {
		opts.Engine = lesson.DefaultConfig()
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if opts.NewPlayer == nil {
		opts.NewPlayer = func(l *catalog.Lesson) media.Player {
			return media.NewClockPlayer(float64(l.DurationSeconds))
		}
	}

	tracker := playback.NewTracker(opts.NewPlayer(l), opts.TickInterval, l.DurationSeconds)
	pb := playback.NewContext(tracker)
	log := opts.Logger.Named("player").With(zap.String("lesson", l.ID))
	pb.OnEffect = func(e playback.Effect) {
		log.Debug("orientation", zap.Stringer("effect", e))
	}

	return &PlayerScreen{
		opts:      opts,
		lesson:    l,
		studentID: studentID,
		log:       log,
		pb:        pb,
	}
}

func (s *PlayerScreen) Init() tea.Cmd {
	repo, student, lessonID, timeout := s.opts.Repo, s.studentID, s.lesson.ID, s.opts.WriteTimeout
	shared := s.opts.Queue
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if shared != nil {
			if err := shared.Wait(ctx); err != nil {
				return loadedMsg{Err: fmt.Errorf("wait for pending writes: %w", err)}
			}
		}
		loaded, err := lesson.Load(ctx, repo, student, lessonID)
		return loadedMsg{Loaded: loaded, Err: err}
	}
}

func (s *PlayerScreen) Title() string {
	return s.lesson.Title
}

// Progress implements screen.ProgressProvider.
func (s *PlayerScreen) Progress() (answered, total int) {
	if s.eng == nil {
		return 0, 0
	}
	return s.eng.Progress()
}

func (s *PlayerScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.eng == nil:
		return []layout.KeyHint{{Key: "Esc", Description: "Back"}}
	case s.results != nil:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Select"},
			{Key: "Esc", Description: "Lessons"},
		}
	}
	if p, ok := s.eng.Pending(); ok {
		if !p.Ready {
			return []layout.KeyHint{{Key: "Esc", Description: "Leave"}}
		}
		return []layout.KeyHint{
			{Key: "1-4", Description: "Answer"},
			{Key: "↑↓ Enter", Description: "Choose"},
			{Key: "Esc", Description: "Leave"},
		}
	}
	return []layout.KeyHint{
		{Key: "Space", Description: "Play/Pause"},
		{Key: "←", Description: "Rewind"},
		{Key: "Esc", Description: "Leave"},
	}
}

func (s *PlayerScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		return s.handleLoaded(msg)
	}

	if s.eng == nil || s.eng.TornDown() {
		return s, nil
	}

	switch msg := msg.(type) {
	case playback.TickMsg:
		return s.handleTick(msg)

	case displayMsg:
		if !s.eng.Display(msg.Token) {
			s.log.Debug("stale display timer", zap.Uint64("token", msg.Token))
		}
		return s, nil

	case checkpointMsg:
		w, ok, keep := s.eng.CheckpointTick(msg.Gen)
		if ok {
			s.queue.Enqueue([]lesson.Write{w})
		}
		if keep {
			return s, s.checkpointCmd()
		}
		return s, nil

	case finishMsg:
		r := s.eng.FinishAttempt()
		s.showResults(r)
		return s, nil

	case retryMsg:
		return s.handleRetry(msg)

	case tea.WindowSizeMsg:
		// A layout change remounts the surface unless a question holds the
		// orientation lock.
		if s.pb.OrientationLocked() || !s.eng.Phase().Watching() {
			return s, nil
		}
		return s, s.pb.Tracker.BeginRemount()

	case playback.RemountedMsg:
		if s.pb.Tracker.CompleteRemount(msg) {
			return s, s.keepTicking()
		}
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	return s, nil
}

// Leave tears the session down when the screen is popped: the final
// checkpoint is written and the write queue drained.
func (s *PlayerScreen) Leave() tea.Cmd {
	if s.eng == nil {
		return nil
	}
	s.queue.Enqueue(s.eng.Teardown())
	if s.opts.Queue != nil {
		return nil
	}
	q := s.queue
	return func() tea.Msg {
		q.Close()
		return nil
	}
}

func (s *PlayerScreen) handleLoaded(msg loadedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		if errors.Is(msg.Err, lesson.ErrNoStudent) {
			return s, tea.Sequence(
				func() tea.Msg { return router.PopScreenMsg{} },
				func() tea.Msg { return screen.SignInRequiredMsg{} },
			)
		}
		s.log.Error("entering lesson failed", zap.Error(msg.Err))
		s.errMsg = "Could not open this lesson. Please try again."
		return s, nil
	}

	s.queue = s.opts.Queue
	if s.queue == nil {
		s.queue = lesson.NewQueue(s.log, s.opts.WriteTimeout)
	}
	s.eng = lesson.New(s.opts.Engine, s.lesson, s.studentID, s.pb, lesson.Deps{
		Repo:     s.opts.Repo,
		Notifier: s.opts.Notifier,
		Logger:   s.opts.Logger,
		Rand:     s.opts.Rand,
	})

	res := s.eng.Start(msg.Loaded)
	s.queue.Enqueue(res.Writes)

	if res.Phase.Finished() {
		s.showResults(s.eng.Results())
		return s, s.checkpointCmd()
	}
	return s, tea.Batch(s.keepTicking(), s.checkpointCmd())
}

func (s *PlayerScreen) handleTick(msg playback.TickMsg) (screen.Screen, tea.Cmd) {
	sample, ok := s.pb.Tracker.Sample(msg)
	if !ok {
		return s, nil
	}

	tr := s.eng.OnSample(sample)
	s.queue.Enqueue(tr.Writes)

	cmds := []tea.Cmd{s.keepTicking()}
	if tr.Due != nil {
		s.choice = components.NewMultiChoice(tr.Due.Variant.Body, tr.Due.Variant.Options, components.NoCorrect)
		token := tr.Due.Token
		cmds = append(cmds, tea.Tick(s.opts.Engine.DisplayDelay, func(time.Time) tea.Msg {
			return displayMsg{Token: token}
		}))
	}
	if tr.AttemptDone {
		cmds = append(cmds, s.finishCmd())
	}
	return s, tea.Batch(cmds...)
}

func (s *PlayerScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if s.results != nil {
		var cmd tea.Cmd
		s.retry, cmd = s.retry.Update(msg)
		return s, cmd
	}

	if p, ok := s.eng.Pending(); ok {
		if !p.Ready {
			return s, nil
		}
		s.choice, _ = s.choice.Update(msg)
		if !s.choice.Submitted {
			return s, nil
		}
		return s.submit(s.choice.ChosenIndex)
	}

	if !s.eng.Phase().Watching() {
		return s, nil
	}

	tracker := s.pb.Tracker
	switch msg.String() {
	case "space", " ":
		if tracker.Playing() {
			tracker.Pause()
		} else {
			tracker.Play()
		}
	case "left", "h":
		tracker.Seek(math.Max(0, tracker.Position()-rewindStep))
		return s, s.keepTicking()
	}
	return s, nil
}

func (s *PlayerScreen) submit(option int) (screen.Screen, tea.Cmd) {
	res, err := s.eng.Submit(option)
	if err != nil {
		s.log.Debug("submit rejected", zap.Error(err))
		return s, nil
	}
	s.queue.Enqueue(res.Writes)
	if res.AttemptDone {
		return s, s.finishCmd()
	}
	return s, s.keepTicking()
}

func (s *PlayerScreen) handleRetry(msg retryMsg) (screen.Screen, tea.Cmd) {
	writes, err := s.eng.Retry(msg.QuestionID)
	if err != nil {
		s.log.Warn("retry refused", zap.String("question", msg.QuestionID), zap.Error(err))
		return s, nil
	}
	s.queue.Enqueue(writes)
	s.results = nil
	return s, s.keepTicking()
}

func (s *PlayerScreen) showResults(r lesson.Results) {
	s.results = &r

	var items []components.MenuItem
	for _, it := range r.Retryable() {
		id := it.Question.ID
		items = append(items, components.MenuItem{
			Label:  "Retry: " + truncate(it.Variant.Body, 48),
			Action: func() tea.Cmd { return func() tea.Msg { return retryMsg{QuestionID: id} } },
		})
	}
	items = append(items, components.MenuItem{
		Label:  "Back to lessons",
		Action: func() tea.Cmd { return func() tea.Msg { return router.PopScreenMsg{} } },
	})
	s.retry = components.NewMenu(items)
}

// keepTicking schedules the next sample while the video is the active
// surface.
func (s *PlayerScreen) keepTicking() tea.Cmd {
	if s.eng == nil || s.eng.TornDown() || !s.eng.Phase().Watching() {
		return nil
	}
	return s.pb.Tracker.EnsureTicking()
}

func (s *PlayerScreen) checkpointCmd() tea.Cmd {
	gen := s.eng.CheckpointGen()
	return tea.Tick(s.opts.Engine.CheckpointInterval, func(time.Time) tea.Msg {
		return checkpointMsg{Gen: gen}
	})
}

func (s *PlayerScreen) finishCmd() tea.Cmd {
	return tea.Tick(s.opts.Engine.CompletionDelay, func(time.Time) tea.Msg {
		return finishMsg{}
	})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
