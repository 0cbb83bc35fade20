package protocol

import (
	"errors"
	"testing"

	"github.com/gizmo-platform/dstation/pkg/dserr"
)

func sampleControlFrame() *ControlFrame {
	f := &ControlFrame{
		Seq:        42,
		Enabled:    true,
		Autonomous: false,
		Test:       false,
		Station:    3,
		Request:    RequestNormal,
	}
	for i := range f.Joysticks {
		f.Joysticks[i] = NeutralJoystickSample()
	}
	f.Joysticks[0].Axes[0] = 0.5
	f.Joysticks[0].Buttons = 0xBEEF
	f.Joysticks[0].Povs[0] = 90
	return f
}

func TestControlFrameRoundTrip(t *testing.T) {
	f := sampleControlFrame()
	buf := EncodeControlFrame(f)

	if len(buf) != ControlFrameSize {
		t.Fatalf("encoded size = %d, want %d", len(buf), ControlFrameSize)
	}

	got, err := DecodeControlFrame(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if *got != *f {
		t.Fatalf("round trip mismatch:\n got  %+v\n want %+v", got, f)
	}
}

func TestControlFrameNeutralUnboundSlots(t *testing.T) {
	f := &ControlFrame{}
	for i := range f.Joysticks {
		f.Joysticks[i] = NeutralJoystickSample()
	}
	buf := EncodeControlFrame(f)
	got, err := DecodeControlFrame(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i, js := range got.Joysticks {
		for _, p := range js.Povs {
			if p != -1 {
				t.Fatalf("slot %d: expected neutral pov -1, got %d", i, p)
			}
		}
		if js.Buttons != 0 {
			t.Fatalf("slot %d: expected zero buttons, got %d", i, js.Buttons)
		}
	}
}

func TestControlFrameChecksumSensitivity(t *testing.T) {
	f := sampleControlFrame()
	buf := EncodeControlFrame(f)

	// Flip a bit inside an axis value (offset 10 falls within the
	// first joystick's axis block).
	buf[10] ^= 0x01

	_, err := DecodeControlFrame(buf)
	if !errors.Is(err, dserr.ErrInvalidChecksum) && !errors.Is(err, dserr.ErrMalformed) {
		t.Fatalf("expected checksum or malformed error, got %v", err)
	}
}

func TestControlFrameTooShort(t *testing.T) {
	_, err := DecodeControlFrame(make([]byte, ControlFrameSize-1))
	if !errors.Is(err, dserr.ErrTooShort) {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
}

func TestControlFlagsBitfield(t *testing.T) {
	f := &ControlFrame{Enabled: true, EStop: true}
	c := f.Control()
	if c&FlagEnabled == 0 || c&FlagEmergencyStop == 0 {
		t.Fatalf("expected enabled and estop bits set, got %#x", c)
	}
	if c&FlagAutonomous != 0 || c&FlagTest != 0 {
		t.Fatalf("expected mutually exclusive mode bits clear, got %#x", c)
	}
}
