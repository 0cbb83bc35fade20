package matchclock

import (
	"testing"
	"time"

	"github.com/gizmo-platform/dstation/pkg/config"
	"github.com/gizmo-platform/dstation/pkg/protocol"
)

var base = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func shortDurations() config.MatchDurations {
	return config.MatchDurations{
		Auto:    2 * time.Second,
		Teleop:  3 * time.Second,
		Endgame: 1 * time.Second,
	}
}

func TestStartEntersAutonomous(t *testing.T) {
	c := New(WithDurations(shortDurations()))
	c.Start(base)
	if c.Phase() != protocol.PhaseAuto {
		t.Fatalf("phase = %v, want auto", c.Phase())
	}
	if c.TimeRemaining() != 2*time.Second {
		t.Fatalf("remaining = %v, want 2s", c.TimeRemaining())
	}
}

func TestFullMatchProgression(t *testing.T) {
	c := New(WithDurations(shortDurations()))
	c.Start(base)

	c.Tick(base.Add(2100 * time.Millisecond))
	if c.Phase() != protocol.PhaseTeleop {
		t.Fatalf("phase after auto expires = %v, want teleop", c.Phase())
	}

	c.Tick(base.Add(2100*time.Millisecond + 3100*time.Millisecond))
	if c.Phase() != protocol.PhaseEndgame {
		t.Fatalf("phase after teleop expires = %v, want endgame", c.Phase())
	}

	c.Tick(base.Add(2100*time.Millisecond + 3100*time.Millisecond + 1100*time.Millisecond))
	if c.Phase() != protocol.PhasePost {
		t.Fatalf("phase after endgame expires = %v, want post", c.Phase())
	}
	if c.Running() {
		t.Fatal("clock should have stopped running after match completed")
	}
}

func TestPauseFreezesCountdown(t *testing.T) {
	c := New(WithDurations(shortDurations()))
	c.Start(base)
	c.Tick(base.Add(500 * time.Millisecond))
	remaining := c.TimeRemaining()

	c.Pause()
	c.Tick(base.Add(5 * time.Second)) // should be ignored while paused
	if c.TimeRemaining() != remaining {
		t.Fatalf("remaining changed while paused: got %v, want %v", c.TimeRemaining(), remaining)
	}

	c.Resume(base.Add(5 * time.Second))
	c.Tick(base.Add(5*time.Second + 500*time.Millisecond))
	if c.TimeRemaining() >= remaining {
		t.Fatalf("countdown did not resume: remaining=%v, before-pause=%v", c.TimeRemaining(), remaining)
	}
}

func TestResetReturnsToPre(t *testing.T) {
	c := New(WithDurations(shortDurations()))
	c.Start(base)
	c.Tick(base.Add(time.Second))
	c.Reset(base.Add(time.Second))

	if c.Phase() != protocol.PhasePre {
		t.Fatalf("phase after reset = %v, want pre", c.Phase())
	}
	if c.Running() {
		t.Fatal("clock should not be running after reset")
	}
	if c.Active() {
		t.Fatal("clock should not be active after reset")
	}
}

func TestActiveSpansStopButNotReset(t *testing.T) {
	c := New(WithDurations(shortDurations()))
	if c.Active() {
		t.Fatal("a fresh clock should not be active")
	}

	c.Start(base)
	if !c.Active() {
		t.Fatal("clock should be active once started")
	}

	c.Stop(base.Add(time.Second))
	if c.Running() {
		t.Fatal("clock should not be running after stop")
	}
	if !c.Active() {
		t.Fatal("clock should stay active through post so fusion keeps forcing disable")
	}

	c.Reset(base.Add(2 * time.Second))
	if c.Active() {
		t.Fatal("clock should no longer be active after reset")
	}
}

func TestPausedReflectsFreezeState(t *testing.T) {
	c := New(WithDurations(shortDurations()))
	c.Start(base)
	if c.Paused() {
		t.Fatal("clock should not be paused right after start")
	}

	c.Pause()
	if !c.Paused() {
		t.Fatal("expected paused after Pause")
	}

	c.Resume(base.Add(time.Second))
	if c.Paused() {
		t.Fatal("expected not paused after Resume")
	}
}

func TestSkipsEndgameWhenDurationZero(t *testing.T) {
	d := shortDurations()
	d.Endgame = 0
	c := New(WithDurations(d))
	c.Start(base)
	c.Tick(base.Add(2100 * time.Millisecond))
	c.Tick(base.Add(2100*time.Millisecond + 3100*time.Millisecond))

	if c.Phase() != protocol.PhasePost {
		t.Fatalf("phase = %v, want post (endgame skipped)", c.Phase())
	}
}
