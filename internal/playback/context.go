package playback

// Effect is a side effect on ambient UI state.
type Effect int

const (
	EffectLockOrientation Effect = iota
	EffectUnlockOrientation
)

func (e Effect) String() string {
	switch e {
	case EffectLockOrientation:
		return "lock-orientation"
	case EffectUnlockOrientation:
		return "unlock-orientation"
	default:
		return "unknown"
	}
}

// Context carries the playback state the engine and the screen share:
// the tracker and the orientation lock. Lock and unlock are idempotent
// and every actual change is reported to OnEffect.
type Context struct {
	Tracker *Tracker

	// OnEffect, when set, observes lock changes.
	OnEffect func(Effect)

	locked bool
}

// NewContext creates a Context around tracker with orientation unlocked.
func NewContext(tracker *Tracker) *Context {
	return &Context{Tracker: tracker}
}

func (c *Context) LockOrientation() {
	if c.locked {
		return
	}
	c.locked = true
	c.emit(EffectLockOrientation)
}

func (c *Context) UnlockOrientation() {
	if !c.locked {
		return
	}
	c.locked = false
	c.emit(EffectUnlockOrientation)
}

// OrientationLocked reports whether layout changes are currently frozen.
func (c *Context) OrientationLocked() bool { return c.locked }

func (c *Context) emit(e Effect) {
	if c.OnEffect != nil {
		c.OnEffect(e)
	}
}
