// Package battery implements the rolling voltage monitor: it derives
// an alert level from the most recent reading and raises a
// force-disable condition when the average voltage has been at or
// below the critical threshold for a sustained period.
//
// Semantics are cross-checked against the reference driver station's
// battery manager (updateBatteryLevel/checkBatteryLevel in
// battery_manager.cpp): level thresholds are simple ceilings on the
// latest reading, but force-disable is driven off a short rolling
// average so a single noisy sample can't trip it.
package battery

import (
	"time"

	"github.com/hashicorp/go-hclog"
)

// Level is the battery alert level derived from the latest voltage.
type Level int

const (
	// LevelUnknown means no voltage reading has been seen yet, or the
	// last reading was non-positive.
	LevelUnknown Level = iota
	LevelCritical
	LevelWarning
	LevelNormal
)

// String renders the level for logging and telemetry.
func (l Level) String() string {
	switch l {
	case LevelCritical:
		return "critical"
	case LevelWarning:
		return "warning"
	case LevelNormal:
		return "normal"
	default:
		return "unknown"
	}
}

// maxHistory bounds the rolling window to one hour at 1Hz, matching
// the reference implementation.
const maxHistory = 3600

// sustainedWindow is how long the average voltage must remain at or
// below the critical threshold before force-disable engages.
const sustainedWindow = 2 * time.Second

type reading struct {
	at      time.Time
	voltage float64
}

// Monitor tracks a bounded history of voltage samples and derives a
// Level and force-disable condition from them.
type Monitor struct {
	l hclog.Logger

	criticalThreshold float64
	warningThreshold  float64
	autoDisable       bool

	history       []reading
	current       float64
	forceDisable  bool
	criticalSince time.Time
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger attaches a logger to the monitor.
func WithLogger(l hclog.Logger) Option {
	return func(m *Monitor) { m.l = l.Named("battery") }
}

// WithThresholds sets the critical and warning voltage thresholds.
func WithThresholds(critical, warning float64) Option {
	return func(m *Monitor) {
		m.criticalThreshold = critical
		m.warningThreshold = warning
	}
}

// WithAutoDisable enables or disables the sustained-critical
// force-disable behavior. It is enabled by default.
func WithAutoDisable(enabled bool) Option {
	return func(m *Monitor) { m.autoDisable = enabled }
}

// New returns a Monitor with the reference defaults (10.5V critical,
// 11.5V warning, auto-disable enabled).
func New(opts ...Option) *Monitor {
	m := &Monitor{
		l:                 hclog.NewNullLogger(),
		criticalThreshold: 10.5,
		warningThreshold:  11.5,
		autoDisable:       true,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Update records a new voltage reading, taken at "now", and refreshes
// the derived level and force-disable state.
func (m *Monitor) Update(now time.Time, voltage float64) {
	m.current = voltage
	m.history = append(m.history, reading{at: now, voltage: voltage})
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}

	if !m.autoDisable {
		m.forceDisable = false
		m.criticalSince = time.Time{}
		return
	}

	avg, ok := m.averageSince(now.Add(-sustainedWindow))
	if !ok || avg <= 0 || avg > m.criticalThreshold {
		m.forceDisable = false
		m.criticalSince = time.Time{}
		return
	}
	if m.criticalSince.IsZero() {
		m.criticalSince = now
	}
	sustained := now.Sub(m.criticalSince) >= sustainedWindow
	if sustained && !m.forceDisable {
		m.l.Error("sustained critical voltage, forcing disable", "average", avg)
	}
	m.forceDisable = sustained
}

// Level returns the alert level derived from the most recent reading.
func (m *Monitor) Level() Level {
	return m.level()
}

func (m *Monitor) level() Level {
	switch {
	case m.current <= 0:
		return LevelUnknown
	case m.current <= m.criticalThreshold:
		return LevelCritical
	case m.current <= m.warningThreshold:
		return LevelWarning
	default:
		return LevelNormal
	}
}

// ForceDisable reports whether sustained critical voltage has raised
// the force-disable condition. It stays raised until the rolling
// average recovers above the critical threshold.
func (m *Monitor) ForceDisable() bool {
	return m.forceDisable
}

// averageSince returns the mean voltage of samples at or after since,
// and whether any such sample exists.
func (m *Monitor) averageSince(since time.Time) (float64, bool) {
	var sum float64
	var n int
	for _, r := range m.history {
		if r.at.Before(since) {
			continue
		}
		sum += r.voltage
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Reset clears all history and returns the monitor to LevelUnknown.
// Used when the link is lost and voltage telemetry is zeroed.
func (m *Monitor) Reset() {
	m.history = nil
	m.current = 0
	m.forceDisable = false
	m.criticalSince = time.Time{}
}
