// Package config contains the configuration surface consumed by the
// driver station core at construction and on mutation events.  It is
// intentionally a plain, JSON-serializable value: persistence and
// editing UI live outside the core.
package config

import "time"

// ConnectionMode selects how the robot's address is derived.
type ConnectionMode string

const (
	// ModeTeam derives the robot's address from a team number.
	ModeTeam ConnectionMode = "team"

	// ModeDirect uses an explicit IPv4 address.
	ModeDirect ConnectionMode = "direct"
)

// Station encodes a driver station's alliance and position on the
// field, which together pack into the wire "station" byte (0..5).
type Station struct {
	// Alliance is 0 for red, 1 for blue.
	Alliance int
	// Position is 1, 2, or 3.
	Position int
}

// Encode packs the station into the wire byte. An unset Position (the
// zero value, before a station is ever configured) is treated as
// position 1 rather than underflowing to 255.
func (s Station) Encode() uint8 {
	pos := s.Position
	if pos < 1 {
		pos = 1
	}
	return uint8(s.Alliance*3 + (pos - 1))
}

// MatchDurations holds the configurable length of each timed match
// phase.  Pre and post have no configurable duration; they last until
// an explicit transition.
type MatchDurations struct {
	Auto    time.Duration
	Teleop  time.Duration
	Endgame time.Duration
}

// DefaultMatchDurations returns the durations spec.md documents as
// the defaults: 15s auto, 135s teleop, 30s endgame.
func DefaultMatchDurations() MatchDurations {
	return MatchDurations{
		Auto:    15 * time.Second,
		Teleop:  135 * time.Second,
		Endgame: 30 * time.Second,
	}
}

// Config is the full configuration surface read at construction and
// on mutation events; see spec.md §6.
type Config struct {
	Mode          ConnectionMode
	Team          int
	DirectAddress string

	Station Station

	MatchClockEnabled bool
	MatchDurations    MatchDurations

	BatteryCriticalVolts         float64
	BatteryWarningVolts          float64
	AutoDisableOnCriticalBattery bool

	WatchdogTimeout time.Duration
	DiscoveryWindow time.Duration
	SendInterval    time.Duration

	// FieldFeedBroker is the MQTT broker URL used for the
	// field-control feed.  Empty means "no field controller";
	// whether the driver station then runs its own match clock is
	// set by MatchClockEnabled.
	FieldFeedBroker string
}

// DefaultConfig returns a Config with every timing/threshold default
// documented in spec.md §6, and no connection configured yet.
func DefaultConfig() Config {
	return Config{
		MatchDurations:               DefaultMatchDurations(),
		BatteryCriticalVolts:         10.5,
		BatteryWarningVolts:          11.5,
		AutoDisableOnCriticalBattery: true,
		WatchdogTimeout:              3 * time.Second,
		DiscoveryWindow:              5 * time.Second,
		SendInterval:                 20 * time.Millisecond,
	}
}
