// Package dsstate implements the driver station's central state
// machine and per-tick fusion rules. It holds the current connection
// state (Disconnected/Discovering/Connected/ConnectionLost), the
// latest operator inputs, field directive, and telemetry, and applies
// spec's ordered fusion rules to produce the flags that go into the
// next outbound control frame.
//
// Restructured from the teacher's central-struct-plus-functional-
// options shape (pkg/ds/type.go, pkg/ds/option.go) into a single type
// that returns an immutable Snapshot after each tick rather than
// exposing a mutable singleton with per-field change notifications.
package dsstate

import (
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/gizmo-platform/dstation/pkg/protocol"
)

// DSState owns the connection state machine and the inputs fusion
// combines on every tick. It is exclusively mutated by the control
// loop; every other consumer sees only Snapshot values.
type DSState struct {
	l hclog.Logger

	state    State
	operator OperatorInputs
	field    FieldDirective
	tele     Telemetry

	forceDisabled bool
	lastError     error

	discoveryDeadline time.Time
}

// Option configures a DSState.
type Option func(*DSState)

// WithLogger attaches a logger to the state machine.
func WithLogger(l hclog.Logger) Option {
	return func(d *DSState) { d.l = l.Named("dsstate") }
}

// New returns a DSState in Disconnected.
func New(opts ...Option) *DSState {
	d := &DSState{
		l:     hclog.NewNullLogger(),
		state: Disconnected,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// State returns the current top-level connection state.
func (d *DSState) State() State { return d.state }

// Connect transitions Disconnected -> Discovering, arming a discovery
// deadline.
func (d *DSState) Connect(now time.Time, discoveryWindow time.Duration) {
	if d.state != Disconnected {
		return
	}
	d.state = Discovering
	d.discoveryDeadline = now.Add(discoveryWindow)
	d.l.Info("connecting", "deadline", d.discoveryDeadline)
}

// Disconnect forces the state machine back to Disconnected from any
// state, per spec's operator-disconnect transition.
func (d *DSState) Disconnect() {
	d.state = Disconnected
	d.lastError = nil
	d.l.Info("disconnected by operator")
}

// DiscoveryExceeded reports whether the discovery deadline has passed
// while still in Discovering, and if so transitions to Disconnected
// with a NotFound error.
func (d *DSState) DiscoveryExceeded(now time.Time, err error) bool {
	if d.state != Discovering || now.Before(d.discoveryDeadline) {
		return false
	}
	d.state = Disconnected
	d.lastError = err
	d.l.Warn("discovery window exceeded", "error", err)
	return true
}

// OnTelemetry is called by the control loop whenever a valid status
// frame is decoded. It advances Discovering/ConnectionLost to
// Connected and records the telemetry fields state fusion needs.
func (d *DSState) OnTelemetry(t Telemetry) {
	if d.state == Discovering || d.state == ConnectionLost {
		d.state = Connected
		d.l.Info("link established")
	}
	d.tele = t
}

// OnWatchdogExpired is called when the link watchdog fires while
// Connected; it transitions to ConnectionLost and zeroes derived
// telemetry per spec §4.5.
func (d *DSState) OnWatchdogExpired(err error) {
	if d.state != Connected {
		return
	}
	d.state = ConnectionLost
	d.lastError = err
	d.tele = Telemetry{}
	d.l.Warn("link lost", "error", err)
}

// SetOperatorInputs replaces the current operator input set wholesale.
func (d *DSState) SetOperatorInputs(in OperatorInputs) { d.operator = in }

// OperatorInputs returns the current operator input set.
func (d *DSState) OperatorInputs() OperatorInputs { return d.operator }

// SetFieldDirective replaces the current field directive.
func (d *DSState) SetFieldDirective(fd FieldDirective) { d.field = fd }

// SetForceDisabled is called by the control loop with the battery
// monitor's current force-disable condition.
func (d *DSState) SetForceDisabled(v bool) { d.forceDisabled = v }

// FusedFlags is the result of applying spec's ordered fusion rules:
// the flags that belong in the next outbound control frame.
type FusedFlags struct {
	Enabled       bool
	Autonomous    bool
	Test          bool
	EStop         bool
	FieldAttached bool
	Request       protocol.RequestType
}

// Fuse applies the six ordered rules from spec §4.4 and returns the
// flags for the next outbound frame. matchPhase/matchActive let the
// match clock drive mode when no field directive is present; pass
// matchActive=false to always defer to the operator's mode. matchPaused
// forces disable while a match is frozen, independent of matchPhase.
func (d *DSState) Fuse(matchActive, matchPaused bool, matchPhase protocol.MatchPhase) FusedFlags {
	f := FusedFlags{
		Enabled: d.operator.Enabled,
		Request: protocol.RequestNormal,
	}

	switch d.operator.Mode {
	case ModeAuto:
		f.Autonomous = true
	case ModeTest:
		f.Test = true
	}

	// Rule 4: field directive, if attached, overrides operator's
	// enabled/mode.
	if d.field.Attached {
		f.FieldAttached = true
		f.Enabled = d.field.Enabled
		f.Autonomous = d.field.Mode == ModeAuto
		f.Test = d.field.Mode == ModeTest
	} else if matchActive {
		// Rule 5: match clock drives mode when field control is
		// absent and a match is active. A paused match forces
		// disable outright, regardless of what phase it's paused in.
		if matchPaused {
			f.Enabled = false
			f.Autonomous = false
			f.Test = false
		} else {
			switch matchPhase {
			case protocol.PhasePre, protocol.PhasePost:
				f.Enabled = false
				f.Autonomous = false
				f.Test = false
			case protocol.PhaseAuto:
				f.Autonomous = true
				f.Test = false
			case protocol.PhaseTeleop, protocol.PhaseEndgame:
				f.Autonomous = false
				f.Test = false
			}
		}
	}

	// Rule 1: not connected forces disabled.
	if d.state != Connected {
		f.Enabled = false
	}

	// Rule 2: emergency stop dominates everything else.
	if d.operator.EStop {
		f.Enabled = false
		f.EStop = true
	}

	// Rule 3: sustained battery critical forces disabled.
	if d.forceDisabled {
		f.Enabled = false
	}

	// Rule 6: pending reboot/restart-code fires once.
	if d.operator.Reboot {
		f.Request = protocol.RequestReboot
		d.operator.Reboot = false
	} else if d.operator.RestartCode {
		f.Request = protocol.RequestRestartCode
		d.operator.RestartCode = false
	}

	return f
}

// Snapshot returns an immutable copy of the current state for
// telemetry fan-out. Callers pass the FusedFlags already computed by
// this tick's Fuse call rather than triggering a second fusion pass,
// since Fuse consumes one-shot reboot/restart-code requests.
func (d *DSState) Snapshot(fused FusedFlags) Snapshot {
	return Snapshot{
		State:         d.state,
		Operator:      d.operator,
		Field:         d.field,
		Telemetry:     d.tele,
		ForceDisabled: d.forceDisabled,
		LastError:     d.lastError,
		Enabled:       fused.Enabled,
		Autonomous:    fused.Autonomous,
		Test:          fused.Test,
		EStop:         fused.EStop,
		FieldAttached: fused.FieldAttached,
	}
}
