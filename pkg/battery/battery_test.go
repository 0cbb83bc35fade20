package battery

import (
	"testing"
	"time"
)

var base = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestLevelDerivation(t *testing.T) {
	cases := []struct {
		voltage float64
		want    Level
	}{
		{0, LevelUnknown},
		{-1, LevelUnknown},
		{10.0, LevelCritical},
		{10.5, LevelCritical},
		{11.0, LevelWarning},
		{11.5, LevelWarning},
		{12.5, LevelNormal},
	}
	for _, c := range cases {
		m := New()
		m.Update(base, c.voltage)
		if got := m.Level(); got != c.want {
			t.Errorf("voltage=%.2f level=%v, want %v", c.voltage, got, c.want)
		}
	}
}

func TestForceDisableRequiresSustainedCritical(t *testing.T) {
	m := New()

	m.Update(base, 10.0)
	if m.ForceDisable() {
		t.Fatal("force-disable raised on a single critical sample")
	}

	m.Update(base.Add(500*time.Millisecond), 10.0)
	m.Update(base.Add(1*time.Second), 10.0)
	m.Update(base.Add(1500*time.Millisecond), 10.0)
	m.Update(base.Add(2*time.Second), 10.0)
	if !m.ForceDisable() {
		t.Fatal("expected force-disable after 2s of sustained critical voltage")
	}
}

func TestForceDisableClearsOnRecovery(t *testing.T) {
	m := New()
	for i := 0; i < 5; i++ {
		m.Update(base.Add(time.Duration(i)*time.Second), 10.0)
	}
	if !m.ForceDisable() {
		t.Fatal("expected force-disable engaged")
	}

	m.Update(base.Add(6*time.Second), 12.6)
	if m.ForceDisable() {
		t.Fatal("expected force-disable to clear once voltage recovers above critical")
	}
	if m.Level() != LevelNormal {
		t.Fatalf("level = %v, want normal", m.Level())
	}
}

func TestForceDisableDisabledByOption(t *testing.T) {
	m := New(WithAutoDisable(false))
	for i := 0; i < 5; i++ {
		m.Update(base.Add(time.Duration(i)*time.Second), 9.0)
	}
	if m.ForceDisable() {
		t.Fatal("force-disable should never engage when auto-disable is off")
	}
}

func TestResetClearsHistory(t *testing.T) {
	m := New()
	m.Update(base, 9.0)
	m.Update(base.Add(time.Second), 9.0)
	m.Reset()

	if m.Level() != LevelUnknown {
		t.Fatalf("level after reset = %v, want unknown", m.Level())
	}
	if m.ForceDisable() {
		t.Fatal("force-disable should clear on reset")
	}
}

func TestCustomThresholds(t *testing.T) {
	m := New(WithThresholds(9.0, 10.0))
	m.Update(base, 9.5)
	if m.Level() != LevelWarning {
		t.Fatalf("level = %v, want warning with custom thresholds", m.Level())
	}
}
