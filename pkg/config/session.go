package config

import "github.com/google/uuid"

// SessionID correlates every log line and telemetry event from one
// connect-discover-run lifecycle, the way the
// teacher's config/team.go generates a UUID per team credential set.
type SessionID string

// NewSessionID returns a fresh session identifier.
func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

// String satisfies fmt.Stringer so a SessionID can be passed straight
// to a logger or telemetry option without an explicit cast.
func (s SessionID) String() string { return string(s) }
