package ground

import (
	"time"

	"go.uber.org/zap"
)

// minAnimDuration is the shortest duration that still animates. Anything
// shorter disables animation outright.
const minAnimDuration = 70 * time.Millisecond

// FrameSource runs a callback once before the next frame is painted.
// now is the host's monotonic timestamp for that frame.
type FrameSource interface {
	RequestFrame(fn func(now time.Duration))
}

// Clock is a monotonic timestamp source.
type Clock interface {
	Now() time.Duration
}

// RenderSink receives render requests. Redraw is coalesced to at most one
// pass per frame; RedrawNow reconciles synchronously and skips overlay work
// when skipOverlay is set.
type RenderSink interface {
	Redraw()
	RedrawNow(skipOverlay bool)
}

// SystemClock reads a monotonic clock anchored at its creation.
type SystemClock struct {
	origin time.Time
}

// NewSystemClock returns a clock whose zero is now.
func NewSystemClock() *SystemClock {
	return &SystemClock{origin: time.Now()}
}

// Now returns the time elapsed since the clock was created.
func (c *SystemClock) Now() time.Duration {
	return time.Since(c.origin)
}

// AnimRun is one live animation cycle.
type AnimRun struct {
	Start     time.Duration
	Frequency float64 // 1 / duration in milliseconds
	Plan      AnimPlan
}

// rest returns the remaining fraction of the run at now: 1 at Start,
// reaching 0 once the configured duration has elapsed.
func (r *AnimRun) rest(now time.Duration) float64 {
	elapsedMs := float64(now-r.Start) / float64(time.Millisecond)
	return 1 - elapsedMs*r.Frequency
}

// Animator owns the single animation slot of a board. It is driven entirely
// by frame callbacks; at most one callback chain is scheduled at any time.
type Animator struct {
	frames    FrameSource
	clock     Clock
	sink      RenderSink
	destroyed func() bool
	log       *zap.Logger

	current *AnimRun
	looping bool
}

// NewAnimator wires an animator to its collaborators. destroyed may be nil.
func NewAnimator(frames FrameSource, clock Clock, sink RenderSink, destroyed func() bool, log *zap.Logger) *Animator {
	if destroyed == nil {
		destroyed = func() bool { return false }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Animator{
		frames:    frames,
		clock:     clock,
		sink:      sink,
		destroyed: destroyed,
		log:       log,
	}
}

// Current returns the live run, or nil when idle.
func (a *Animator) Current() *AnimRun {
	return a.current
}

// Running reports whether a run is live.
func (a *Animator) Running() bool {
	return a.current != nil
}

// Vector returns the live vector for k, if any.
func (a *Animator) Vector(k Key) (*AnimVector, bool) {
	if a.current == nil {
		return nil, false
	}
	v, ok := a.current.Plan.Anims[k]
	return v, ok
}

// Fading returns the piece fading out of k, if any.
func (a *Animator) Fading(k Key) (Piece, bool) {
	if a.current == nil {
		return Piece{}, false
	}
	p, ok := a.current.Plan.Fadings[k]
	return p, ok
}

// Start installs a fresh run for plan. If a frame chain is already scheduled
// only the run is replaced; the pending frame picks it up. Otherwise the first
// step runs synchronously.
func (a *Animator) Start(plan AnimPlan, duration time.Duration) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	superseded := a.current != nil
	a.current = &AnimRun{
		Start:     a.clock.Now(),
		Frequency: 1 / (float64(duration) / float64(time.Millisecond)),
		Plan:      plan,
	}
	a.log.Debug("animation started",
		zap.Int("vectors", len(plan.Anims)),
		zap.Int("fadings", len(plan.Fadings)),
		zap.Duration("duration", duration),
		zap.Bool("superseded", superseded))
	if a.looping {
		return
	}
	a.looping = true
	a.step(a.clock.Now())
}

// Cancel clears the live run. A scheduled frame still fires once and renders
// the board at rest.
func (a *Animator) Cancel() {
	if a.current == nil {
		return
	}
	a.current = nil
	a.log.Debug("animation cancelled")
}

// DropVector removes the vector of k from the live run so the square is no
// longer animated through.
func (a *Animator) DropVector(k Key) {
	if a.current == nil {
		return
	}
	if _, ok := a.current.Plan.Anims[k]; !ok {
		return
	}
	delete(a.current.Plan.Anims, k)
	a.log.Debug("animation vector dropped", zap.String("key", string(k)))
}

// step advances the run to now. It is the only frame callback the animator
// ever schedules.
func (a *Animator) step(now time.Duration) {
	if a.destroyed() {
		a.current = nil
		a.looping = false
		a.sink.RedrawNow(false)
		return
	}
	cur := a.current
	if cur == nil {
		a.looping = false
		a.sink.RedrawNow(false)
		return
	}
	rest := cur.rest(now)
	if rest <= 0 {
		a.current = nil
		a.looping = false
		a.log.Debug("animation finished")
		a.sink.RedrawNow(false)
		return
	}
	e := Easing(rest)
	for _, v := range cur.Plan.Anims {
		v[2] = v[0] * e
		v[3] = v[1] * e
	}
	a.sink.RedrawNow(true)
	a.frames.RequestFrame(a.step)
}
