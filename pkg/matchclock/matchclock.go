// Package matchclock implements the practice match phase timer:
// pre -> auto -> teleop -> endgame -> post, with configurable phase
// durations and start/stop/pause/resume/reset controls.
//
// Grounded in the reference driver station's PracticeMatchManager
// (practice_match_manager.cpp): the same phase sequence and the same
// pause/resume behavior of re-deriving the phase start time from the
// remaining time rather than tracking elapsed-while-paused directly.
package matchclock

import (
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/gizmo-platform/dstation/pkg/config"
	"github.com/gizmo-platform/dstation/pkg/protocol"
)

// Event is emitted on phase or time-remaining changes.
type Event struct {
	Phase           protocol.MatchPhase
	TimeRemaining   time.Duration
	PhaseTransition bool
}

// Handler receives clock events.
type Handler func(Event)

// Clock is a phase timer driven by an external tick call; it performs
// no I/O and owns no goroutine, matching the single-threaded
// cooperative scheduling model the rest of the control loop uses.
type Clock struct {
	l hclog.Logger

	durations config.MatchDurations

	running bool
	paused  bool
	engaged bool
	phase   protocol.MatchPhase

	phaseStart    time.Time
	timeRemaining time.Duration

	onEvent Handler
}

// Option configures a Clock.
type Option func(*Clock)

// WithLogger attaches a logger to the clock.
func WithLogger(l hclog.Logger) Option {
	return func(c *Clock) { c.l = l.Named("matchclock") }
}

// WithDurations overrides the default phase durations.
func WithDurations(d config.MatchDurations) Option {
	return func(c *Clock) { c.durations = d }
}

// WithHandler registers the callback invoked on phase or
// time-remaining changes.
func WithHandler(h Handler) Option {
	return func(c *Clock) { c.onEvent = h }
}

// New returns a Clock in phase Pre, stopped.
func New(opts ...Option) *Clock {
	c := &Clock{
		l:         hclog.NewNullLogger(),
		durations: config.DefaultMatchDurations(),
		phase:     protocol.PhasePre,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Phase returns the current match phase.
func (c *Clock) Phase() protocol.MatchPhase { return c.phase }

// TimeRemaining returns time left in the current phase.
func (c *Clock) TimeRemaining() time.Duration { return c.timeRemaining }

// Running reports whether the clock is running (regardless of pause).
func (c *Clock) Running() bool { return c.running }

// Paused reports whether a running match is currently frozen.
func (c *Clock) Paused() bool { return c.paused }

// Active reports whether the clock should drive fusion: true from
// Start until the next Reset, spanning Auto/Teleop/Endgame/Post so a
// stopped or paused match keeps forcing its disable through rather
// than releasing control back to the operator's own Enabled toggle.
func (c *Clock) Active() bool { return c.engaged }

// Start begins a match at the autonomous phase. A no-op if already
// running.
func (c *Clock) Start(now time.Time) {
	c.engaged = true
	if c.running {
		return
	}
	c.running = true
	c.paused = false
	c.transitionTo(now, protocol.PhaseAuto)
	c.l.Info("match started")
}

// Stop ends the match immediately, transitioning to Post.
func (c *Clock) Stop(now time.Time) {
	if !c.running {
		return
	}
	c.running = false
	c.paused = false
	c.transitionTo(now, protocol.PhasePost)
	c.l.Info("match stopped")
}

// Pause freezes the countdown without changing phase.
func (c *Clock) Pause() {
	if !c.running || c.paused {
		return
	}
	c.paused = true
	c.l.Info("match paused", "phase", c.phase, "remaining", c.timeRemaining)
}

// Resume unfreezes the countdown, re-deriving the phase start time
// from the currently remaining duration.
func (c *Clock) Resume(now time.Time) {
	if !c.running || !c.paused {
		return
	}
	c.paused = false
	elapsed := c.phaseDuration(c.phase) - c.timeRemaining
	c.phaseStart = now.Add(-elapsed)
	c.l.Info("match resumed", "phase", c.phase, "remaining", c.timeRemaining)
}

// Reset stops the match, returns to phase Pre, and disengages the
// clock from fusion, handing enable authority back to the operator
// until the next Start.
func (c *Clock) Reset(now time.Time) {
	wasRunning := c.running
	c.running = false
	c.paused = false
	c.engaged = false
	c.transitionTo(now, protocol.PhasePre)
	if wasRunning {
		c.l.Info("match reset")
	}
}

// Tick advances the countdown and applies phase transitions. It is a
// no-op unless the clock is running and not paused. Callers drive
// Tick from the control loop's own tick, not from an internal timer.
func (c *Clock) Tick(now time.Time) {
	if !c.running || c.paused {
		return
	}

	remaining := c.phaseDuration(c.phase) - now.Sub(c.phaseStart)
	if remaining < 0 {
		remaining = 0
	}
	changed := remaining != c.timeRemaining
	c.timeRemaining = remaining

	if c.timeRemaining <= 0 {
		switch c.phase {
		case protocol.PhaseAuto:
			c.transitionTo(now, protocol.PhaseTeleop)
			return
		case protocol.PhaseTeleop:
			if c.durations.Endgame > 0 {
				c.transitionTo(now, protocol.PhaseEndgame)
			} else {
				c.Stop(now)
			}
			return
		case protocol.PhaseEndgame:
			c.Stop(now)
			return
		}
	}

	if changed && c.onEvent != nil {
		c.onEvent(Event{Phase: c.phase, TimeRemaining: c.timeRemaining})
	}
}

func (c *Clock) transitionTo(now time.Time, phase protocol.MatchPhase) {
	c.phase = phase
	c.phaseStart = now
	c.timeRemaining = c.phaseDuration(phase)
	if c.onEvent != nil {
		c.onEvent(Event{Phase: phase, TimeRemaining: c.timeRemaining, PhaseTransition: true})
	}
}

func (c *Clock) phaseDuration(phase protocol.MatchPhase) time.Duration {
	switch phase {
	case protocol.PhaseAuto:
		return c.durations.Auto
	case protocol.PhaseTeleop:
		return c.durations.Teleop
	case protocol.PhaseEndgame:
		return c.durations.Endgame
	default:
		return 0
	}
}
