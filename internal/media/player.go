package media

import (
	"math"
	"sync"
	"time"
)

// Player is the media collaborator the playback tracker drives. Decoding
// and rendering are the player's business; the engine only needs a clock.
type Player interface {
	// Position returns the current playback position in seconds.
	Position() float64

	// Duration returns the media length in seconds once known.
	Duration() (float64, bool)

	Seek(seconds float64)
	Play()
	Pause()
	Playing() bool
}

// Remounter is implemented by players whose surface is torn down and
// rebuilt on layout changes. A remount loses position and playing state.
type Remounter interface {
	Remount()
}

// ClockPlayer is a Player whose position advances with wall-clock time
// while playing. It stands in for a video surface in the terminal: the
// lesson's video runs in an external viewer or not at all, and the
// engine follows the clock.
type ClockPlayer struct {
	mu       sync.Mutex
	now      func() time.Time
	base     float64
	since    time.Time
	playing  bool
	duration float64
}

// NewClockPlayer creates a paused player at position 0. A duration of 0
// means unknown.
func NewClockPlayer(durationSeconds float64) *ClockPlayer {
	return newClockPlayer(durationSeconds, time.Now)
}

func newClockPlayer(durationSeconds float64, now func() time.Time) *ClockPlayer {
	return &ClockPlayer{now: now, duration: durationSeconds}
}

func (p *ClockPlayer) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

func (p *ClockPlayer) positionLocked() float64 {
	pos := p.base
	if p.playing {
		pos += p.now().Sub(p.since).Seconds()
	}
	if p.duration > 0 && pos >= p.duration {
		pos = p.duration
	}
	return pos
}

func (p *ClockPlayer) Duration() (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration, p.duration > 0
}

func (p *ClockPlayer) Seek(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	seconds = math.Max(0, seconds)
	if p.duration > 0 {
		seconds = math.Min(seconds, p.duration)
	}
	p.base = seconds
	p.since = p.now()
}

func (p *ClockPlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		return
	}
	p.since = p.now()
	p.playing = true
}

func (p *ClockPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return
	}
	p.base = p.positionLocked()
	p.playing = false
}

// Remount rebuilds the surface: the clock is paused and rewound to 0.
func (p *ClockPlayer) Remount() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.base = 0
	p.playing = false
}

// Playing reports whether the clock is running. Reaching the end of the
// media stops playback.
func (p *ClockPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing && p.duration > 0 && p.positionLocked() >= p.duration {
		p.base = p.duration
		p.playing = false
	}
	return p.playing
}
