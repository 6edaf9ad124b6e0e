package playback

import (
	"math"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/lessonplay/internal/media"
)

const (
	// DefaultTickInterval is how often position samples are taken.
	DefaultTickInterval = 500 * time.Millisecond

	// EndMargin keeps resume targets this far from the end of the media.
	EndMargin = 5.0
)

// Sample is one observation of the player.
type Sample struct {
	Position   float64
	Playing    bool
	Generation uint64
}

// Second is the whole second the sample falls in.
func (s Sample) Second() int {
	return int(math.Floor(s.Position))
}

// TickMsg asks the tracker for a sample. It carries the seek generation
// it was scheduled under.
type TickMsg struct {
	Generation uint64
	At         time.Time
}

// RemountedMsg is delivered on the frame after a forced re-mount.
type RemountedMsg struct {
	Generation uint64
}

type snapshot struct {
	position float64
	playing  bool
}

// Tracker wraps a media.Player and turns it into a stream of samples.
//
// Every seek starts a new generation. Ticks scheduled before the seek
// arrive with an older generation and are dropped by Sample, so nothing
// downstream sees a pre-seek position after the seek returned.
type Tracker struct {
	player   media.Player
	interval time.Duration
	hint     float64

	gen       uint64
	scheduled bool
	remount   *snapshot
}

// NewTracker creates a tracker over player. durationHint (seconds, 0 for
// unknown) is used until the player reports its own duration.
func NewTracker(player media.Player, interval time.Duration, durationHint int) *Tracker {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Tracker{
		player:   player,
		interval: interval,
		hint:     float64(durationHint),
	}
}

func (t *Tracker) Position() float64 { return t.player.Position() }
func (t *Tracker) Playing() bool      { return t.player.Playing() }
func (t *Tracker) Generation() uint64 { return t.gen }

// Duration returns the media duration once known.
func (t *Tracker) Duration() (float64, bool) {
	if d, ok := t.player.Duration(); ok {
		return d, true
	}
	return t.hint, t.hint > 0
}

func (t *Tracker) Play()  { t.player.Play() }
func (t *Tracker) Pause() { t.player.Pause() }

// Seek moves the player and invalidates every in-flight tick.
func (t *Tracker) Seek(seconds float64) {
	t.player.Seek(math.Max(0, seconds))
	t.gen++
	t.scheduled = false
}

// ClampResume bounds a resume target to [0, duration-5] so a resume never
// lands past the end. With an unknown duration only the lower bound applies.
func (t *Tracker) ClampResume(seconds float64) float64 {
	if d, ok := t.Duration(); ok {
		seconds = math.Min(seconds, d-EndMargin)
	}
	return math.Max(0, seconds)
}

// AtEnd reports whether playback has reached the end of known media.
func (t *Tracker) AtEnd() bool {
	d, ok := t.Duration()
	return ok && t.player.Position() >= d
}

// EnsureTicking schedules the next tick for the current generation unless
// one is already in flight.
func (t *Tracker) EnsureTicking() tea.Cmd {
	if t.scheduled {
		return nil
	}
	t.scheduled = true
	gen := t.gen
	return tea.Tick(t.interval, func(at time.Time) tea.Msg {
		return TickMsg{Generation: gen, At: at}
	})
}

// Sample consumes a tick. It reports false for ticks from an earlier
// generation; those must not reschedule.
func (t *Tracker) Sample(msg TickMsg) (Sample, bool) {
	if msg.Generation != t.gen {
		return Sample{}, false
	}
	t.scheduled = false
	return Sample{
		Position:   t.player.Position(),
		Playing:    t.player.Playing(),
		Generation: t.gen,
	}, true
}

// Now samples the player outside the tick loop.
func (t *Tracker) Now() Sample {
	return Sample{Position: t.player.Position(), Playing: t.player.Playing(), Generation: t.gen}
}

// BeginRemount snapshots position and playing state, remounts the player
// surface and returns a command that completes the remount on the next
// frame. Ticks issued before the remount become stale.
func (t *Tracker) BeginRemount() tea.Cmd {
	if t.remount == nil {
		t.remount = &snapshot{position: t.player.Position(), playing: t.player.Playing()}
	}
	if r, ok := t.player.(media.Remounter); ok {
		r.Remount()
	}
	t.gen++
	t.scheduled = false
	gen := t.gen
	return func() tea.Msg { return RemountedMsg{Generation: gen} }
}

// CompleteRemount reapplies the snapshot taken by BeginRemount. Messages
// from superseded remounts are ignored.
func (t *Tracker) CompleteRemount(msg RemountedMsg) bool {
	if t.remount == nil || msg.Generation != t.gen {
		return false
	}
	snap := t.remount
	t.remount = nil
	t.Seek(snap.position)
	if snap.playing {
		t.player.Play()
	} else {
		t.player.Pause()
	}
	return true
}

// Remounting reports whether a remount is waiting for its next frame.
func (t *Tracker) Remounting() bool { return t.remount != nil }

// StablePosition is the position to persist: while a remount is in
// progress the player reads 0, so the snapshot is used instead.
func (t *Tracker) StablePosition() float64 {
	if t.remount != nil {
		return t.remount.position
	}
	return t.player.Position()
}
