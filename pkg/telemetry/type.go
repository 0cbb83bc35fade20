package telemetry

// EventType identifies what kind of event is crossing the wire.
// Collapsed from the teacher's four fine-grained event types down to
// the three this system's telemetry fan-out actually needs.
type EventType uint8

const (
	// EventTypeUnknown is the zero value; a well-formed event never
	// carries it.
	EventTypeUnknown EventType = iota

	// EventTypeStateChanged fires whenever the driver station's
	// top-level state (Disconnected/Discovering/Connected/
	// ConnectionLost) transitions.
	EventTypeStateChanged

	// EventTypeStatusUpdate fires on every control-loop send tick,
	// carrying the fields a UI would want to show live.
	EventTypeStatusUpdate

	// EventTypeError fires on any error the driver station wants to
	// surface without changing its current connection state.
	EventTypeError
)

// EventStateChanged reports a top-level state transition.
type EventStateChanged struct {
	Type    EventType
	Session string `json:",omitempty"`
	From    string
	To      string
}

// EventStatusUpdate reports the latest fused telemetry snapshot.
type EventStatusUpdate struct {
	Type              EventType
	Session           string `json:",omitempty"`
	Enabled           bool
	Autonomous        bool
	Test              bool
	EmergencyStopped  bool
	VoltageMillivolts uint16
	BatteryLevel      string
	Phase             string
	SecondsRemaining  uint16
	LatencyMillis     float64
	PacketLossPercent float64
	DecodeErrors      uint64
	TransmitErrors    uint64
}

// EventError reports a non-fatal error condition.
type EventError struct {
	Type    EventType
	Session string `json:",omitempty"`
	Error   string
}
