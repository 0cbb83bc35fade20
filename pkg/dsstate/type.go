package dsstate

import (
	"github.com/gizmo-platform/dstation/pkg/config"
	"github.com/gizmo-platform/dstation/pkg/protocol"
)

// State is one of the four top-level connection states.
type State string

const (
	Disconnected   State = "disconnected"
	Discovering    State = "discovering"
	Connected      State = "connected"
	ConnectionLost State = "connection_lost"
)

// Mode is the operator/field-directed robot mode, distinct from the
// wire's autonomous/test bits so fusion has one place to reason about
// "what should the robot be doing".
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeTeleop Mode = "teleop"
	ModeTest   Mode = "test"
)

// OperatorInputs is the full set of commands an operator (or the CLI
// layer on their behalf) can issue to state fusion. Every field is an
// assignment, not a delta; callers read-modify-write via OperatorInputs().
type OperatorInputs struct {
	Enabled     bool
	EStop       bool
	Mode        Mode
	Station     config.Station
	Reboot      bool
	RestartCode bool
}

// FieldDirective mirrors fieldfeed.Directive without importing that
// package, keeping dsstate's dependency graph a leaf.
type FieldDirective struct {
	Attached bool
	Enabled  bool
	Mode     Mode
}

// Telemetry is the subset of an inbound StatusFrame that state fusion
// and its consumers care about.
type Telemetry struct {
	VoltageMillivolts uint16
	CPUPercent        uint8
	RAMPercent        uint8
	DiskPercent       uint8
	CANUtilTenths     uint16
	CodeRunning       bool
	Phase             protocol.MatchPhase
	SecondsRemaining  uint16
}

// Snapshot is the immutable value telemetry consumers receive after
// every tick. Nothing external ever holds a reference into DSState's
// own mutable fields.
type Snapshot struct {
	State     State
	Operator  OperatorInputs
	Field     FieldDirective
	Telemetry Telemetry

	ForceDisabled bool
	LastError     error

	Enabled       bool
	Autonomous    bool
	Test          bool
	EStop         bool
	FieldAttached bool
}
