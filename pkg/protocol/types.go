// Package protocol implements the wire-exact control/status frame
// codec shared with the robot side of the link.  Every multi-byte
// integer and float is big-endian; nothing here allocates a socket or
// blocks, it only turns bytes into structs and back.
package protocol

const (
	// JoystickSlots is the number of joystick blocks carried by
	// every ControlFrame, whether or not that many devices are
	// actually bound.
	JoystickSlots = 6

	// AxesPerJoystick is the number of analog axes per joystick
	// block.
	AxesPerJoystick = 6

	// PovsPerJoystick is the number of POV (hat switch) angles per
	// joystick block.
	PovsPerJoystick = 4

	joystickBlockSize = AxesPerJoystick*4 + 2 + PovsPerJoystick*2 // 34
	controlHeaderSize = 6
	checksumSize       = 2

	// ControlFrameSize is the total wire size of an encoded
	// ControlFrame, checksum included.
	ControlFrameSize = controlHeaderSize + JoystickSlots*joystickBlockSize + checksumSize // 212

	statusBodySize = 16

	// StatusFrameSize is the total wire size of an encoded
	// StatusFrame, checksum included.
	StatusFrameSize = statusBodySize + checksumSize // 18
)

// Control bitfield flags, as carried in ControlFrame.Control() and
// echoed back in StatusFrame.Control.
const (
	FlagEnabled       uint8 = 0x01
	FlagAutonomous    uint8 = 0x02
	FlagTest          uint8 = 0x04
	FlagEmergencyStop uint8 = 0x08
	FlagFieldAttached uint8 = 0x10
	FlagDSAttached    uint8 = 0x20
)

// RequestType identifies a one-shot high-authority request carried in
// a ControlFrame.
type RequestType uint8

const (
	// RequestNormal indicates no pending request.
	RequestNormal RequestType = 0x00
	// RequestReboot asks the robot to reboot its controller.
	RequestReboot RequestType = 0x01
	// RequestRestartCode asks the robot to restart user code only.
	RequestRestartCode RequestType = 0x02
)

// MatchPhase identifies the phase of a match as reported by the
// robot's telemetry, or driven locally by the match clock.
type MatchPhase uint8

const (
	PhasePre     MatchPhase = 0
	PhaseAuto    MatchPhase = 1
	PhaseTeleop  MatchPhase = 2
	PhaseEndgame MatchPhase = 3
	PhasePost    MatchPhase = 4
)

func (p MatchPhase) String() string {
	switch p {
	case PhasePre:
		return "pre"
	case PhaseAuto:
		return "auto"
	case PhaseTeleop:
		return "teleop"
	case PhaseEndgame:
		return "endgame"
	case PhasePost:
		return "post"
	default:
		return "unknown"
	}
}

// JoystickSample is one joystick's worth of live input, in the exact
// widths the wire format carries.
type JoystickSample struct {
	Axes    [AxesPerJoystick]float32
	Buttons uint16
	Povs    [PovsPerJoystick]int16
}

// NeutralJoystickSample returns the filler sample used for unbound
// slots: zeroed axes and buttons, and every POV reporting "not
// pressed" (-1).
func NeutralJoystickSample() JoystickSample {
	s := JoystickSample{}
	for i := range s.Povs {
		s.Povs[i] = -1
	}
	return s
}

// ControlFrame is one outbound tick's worth of driver-station-to-robot
// data.
type ControlFrame struct {
	Seq           uint16
	Enabled       bool
	Autonomous    bool
	Test          bool
	EStop         bool
	FieldAttached bool
	DSAttached    bool
	Request       RequestType
	Station       uint8
	Joysticks     [JoystickSlots]JoystickSample
}

// Control packs the boolean fields of the frame into the wire
// bitfield.
func (f *ControlFrame) Control() uint8 {
	var c uint8
	if f.Enabled {
		c |= FlagEnabled
	}
	if f.Autonomous {
		c |= FlagAutonomous
	}
	if f.Test {
		c |= FlagTest
	}
	if f.EStop {
		c |= FlagEmergencyStop
	}
	if f.FieldAttached {
		c |= FlagFieldAttached
	}
	if f.DSAttached {
		c |= FlagDSAttached
	}
	return c
}

// setControl unpacks a wire bitfield into the frame's boolean fields.
func (f *ControlFrame) setControl(c uint8) {
	f.Enabled = c&FlagEnabled != 0
	f.Autonomous = c&FlagAutonomous != 0
	f.Test = c&FlagTest != 0
	f.EStop = c&FlagEmergencyStop != 0
	f.FieldAttached = c&FlagFieldAttached != 0
	f.DSAttached = c&FlagDSAttached != 0
}

// StatusFrame is one inbound tick's worth of robot-to-driver-station
// telemetry.
type StatusFrame struct {
	Seq               uint16
	Control           uint8
	Status            uint8
	VoltageMillivolts uint16
	CPUPercent        uint8
	RAMPercent        uint8
	DiskPercent       uint8
	CANUtilTenths     uint16
	CANBusOff         uint8
	CodeRunning       bool
	Phase             MatchPhase
	SecondsRemaining  uint16
}

// Enabled reports whether the robot last saw itself enabled.
func (s *StatusFrame) Enabled() bool { return s.Control&FlagEnabled != 0 }

// Autonomous reports whether the robot last saw autonomous mode.
func (s *StatusFrame) Autonomous() bool { return s.Control&FlagAutonomous != 0 }

// Test reports whether the robot last saw test mode.
func (s *StatusFrame) Test() bool { return s.Control&FlagTest != 0 }

// EmergencyStopped reports whether the robot last saw the estop flag.
func (s *StatusFrame) EmergencyStopped() bool { return s.Control&FlagEmergencyStop != 0 }
