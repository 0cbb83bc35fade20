package dsstate

import (
	"errors"
	"testing"
	"time"

	"github.com/gizmo-platform/dstation/pkg/protocol"
)

var base = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestConnectTransitionsToDiscovering(t *testing.T) {
	d := New()
	d.Connect(base, 5*time.Second)
	if d.State() != Discovering {
		t.Fatalf("state = %v, want discovering", d.State())
	}
}

func TestTelemetryAdvancesToConnected(t *testing.T) {
	d := New()
	d.Connect(base, 5*time.Second)
	d.OnTelemetry(Telemetry{VoltageMillivolts: 12500})
	if d.State() != Connected {
		t.Fatalf("state = %v, want connected", d.State())
	}
}

func TestDiscoveryExceededReturnsToDisconnected(t *testing.T) {
	d := New()
	d.Connect(base, 1*time.Second)
	if d.DiscoveryExceeded(base.Add(500*time.Millisecond), errors.New("not found")) {
		t.Fatal("discovery reported exceeded before the deadline")
	}
	if !d.DiscoveryExceeded(base.Add(2*time.Second), errors.New("not found")) {
		t.Fatal("expected discovery exceeded after the deadline")
	}
	if d.State() != Disconnected {
		t.Fatalf("state = %v, want disconnected", d.State())
	}
}

func TestWatchdogExpiredZeroesTelemetry(t *testing.T) {
	d := New()
	d.Connect(base, time.Second)
	d.OnTelemetry(Telemetry{VoltageMillivolts: 12500})
	d.OnWatchdogExpired(errors.New("link lost"))

	if d.State() != ConnectionLost {
		t.Fatalf("state = %v, want connection_lost", d.State())
	}
	snap := d.Snapshot(d.Fuse(false, false, protocol.PhasePre))
	if snap.Telemetry.VoltageMillivolts != 0 {
		t.Fatalf("voltage = %d after watchdog expiry, want 0", snap.Telemetry.VoltageMillivolts)
	}
}

func TestRule1NotConnectedForcesDisabled(t *testing.T) {
	d := New()
	d.SetOperatorInputs(OperatorInputs{Enabled: true})
	fused := d.Fuse(false, false, protocol.PhasePre)
	if fused.Enabled {
		t.Fatal("expected enabled=false while not connected")
	}
}

func TestRule2EstopDominates(t *testing.T) {
	d := New()
	d.Connect(base, time.Second)
	d.OnTelemetry(Telemetry{VoltageMillivolts: 12000})
	d.SetOperatorInputs(OperatorInputs{Enabled: true, EStop: true})

	fused := d.Fuse(false, false, protocol.PhasePre)
	if fused.Enabled {
		t.Fatal("estop should force enabled=false")
	}
	if !fused.EStop {
		t.Fatal("expected EStop flag set")
	}
}

func TestRule3BatteryForceDisable(t *testing.T) {
	d := New()
	d.Connect(base, time.Second)
	d.OnTelemetry(Telemetry{VoltageMillivolts: 10000})
	d.SetOperatorInputs(OperatorInputs{Enabled: true})
	d.SetForceDisabled(true)

	fused := d.Fuse(false, false, protocol.PhasePre)
	if fused.Enabled {
		t.Fatal("expected enabled=false when battery forceDisable is raised")
	}
}

func TestRule4FieldDirectiveOverridesOperator(t *testing.T) {
	d := New()
	d.Connect(base, time.Second)
	d.OnTelemetry(Telemetry{})
	d.SetOperatorInputs(OperatorInputs{Enabled: false, Mode: ModeTeleop})
	d.SetFieldDirective(FieldDirective{Attached: true, Enabled: true, Mode: ModeAuto})

	fused := d.Fuse(false, false, protocol.PhasePre)
	if !fused.Enabled || !fused.Autonomous || !fused.FieldAttached {
		t.Fatalf("field directive not applied: %+v", fused)
	}
}

func TestRule5MatchClockDrivesModeWithoutField(t *testing.T) {
	d := New()
	d.Connect(base, time.Second)
	d.OnTelemetry(Telemetry{})
	d.SetOperatorInputs(OperatorInputs{Enabled: true})

	fused := d.Fuse(true, false, protocol.PhaseAuto)
	if !fused.Autonomous {
		t.Fatal("expected autonomous mode during match auto phase")
	}

	fused = d.Fuse(true, false, protocol.PhasePre)
	if fused.Enabled {
		t.Fatal("expected disabled during match pre phase")
	}
}

func TestRule5MatchPauseForcesDisable(t *testing.T) {
	d := New()
	d.Connect(base, time.Second)
	d.OnTelemetry(Telemetry{})
	d.SetOperatorInputs(OperatorInputs{Enabled: true})

	fused := d.Fuse(true, false, protocol.PhaseTeleop)
	if !fused.Enabled {
		t.Fatal("expected enabled during teleop with an unpaused match")
	}

	fused = d.Fuse(true, true, protocol.PhaseTeleop)
	if fused.Enabled {
		t.Fatal("expected disabled while the match is paused, even mid-teleop")
	}
}

func TestRule6RebootFiresOnce(t *testing.T) {
	d := New()
	d.Connect(base, time.Second)
	d.OnTelemetry(Telemetry{})
	d.SetOperatorInputs(OperatorInputs{Reboot: true})

	fused := d.Fuse(false, false, protocol.PhasePre)
	if fused.Request != protocol.RequestReboot {
		t.Fatalf("request = %v, want reboot", fused.Request)
	}

	fused = d.Fuse(false, false, protocol.PhasePre)
	if fused.Request != protocol.RequestNormal {
		t.Fatalf("reboot request did not clear after one tick: %v", fused.Request)
	}
}
