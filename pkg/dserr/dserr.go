// Package dserr contains the sentinel errors surfaced by the driver
// station core.  Callers should compare against these with
// errors.Is; none of them carry dynamic state, so they are safe to
// compare directly as well.
package dserr

import "errors"

var (
	// ErrInvalidTeam is returned when a team number falls outside
	// [1, 9999].
	ErrInvalidTeam = errors.New("dserr: team number out of range")

	// ErrInvalidAddress is returned when a direct-mode address
	// fails to parse as IPv4.
	ErrInvalidAddress = errors.New("dserr: malformed IPv4 address")

	// ErrNotFound is returned when the discovery window elapses
	// with no candidate responding.
	ErrNotFound = errors.New("dserr: robot not found")

	// ErrLinkLost is emitted when the watchdog elapses while
	// connected.
	ErrLinkLost = errors.New("dserr: link lost")

	// ErrTransport wraps a non-fatal send/receive failure.
	ErrTransport = errors.New("dserr: transport error")

	// ErrDecode is returned when an inbound frame is rejected.
	ErrDecode = errors.New("dserr: decode error")

	// ErrConfig is returned when a configuration mutation would
	// leave the system in an inconsistent state.
	ErrConfig = errors.New("dserr: invalid configuration")

	// ErrSlotOutOfRange is returned by the joystick aggregator when
	// asked to bind or unbind a slot outside [0,5].
	ErrSlotOutOfRange = errors.New("dserr: slot out of range")

	// ErrTooShort is returned by the codec when a buffer is too
	// small to contain a frame.
	ErrTooShort = errors.New("dserr: buffer too short")

	// ErrInvalidChecksum is returned by the codec when the trailing
	// checksum does not match the computed value.
	ErrInvalidChecksum = errors.New("dserr: invalid checksum")

	// ErrMalformed is returned by the codec when a field cannot be
	// interpreted even though the buffer was long enough.
	ErrMalformed = errors.New("dserr: malformed frame")
)
