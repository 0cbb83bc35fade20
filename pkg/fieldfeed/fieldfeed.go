// Package fieldfeed defines the abstract field-control-feed contract
// and ships the implementations a standalone driver station needs:
// Null (no field controller present), MQTT (subscribe to a real
// broker), and Practice (an embedded local broker for practice
// matches without an external FMS).
package fieldfeed

// Mode mirrors the match mode a field controller directs.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeTeleop Mode = "teleop"
	ModeTest   Mode = "test"
)

// Directive is a single message from the field-control feed.
type Directive struct {
	Attached    bool
	Enabled     bool
	Mode        Mode
	MatchNumber int
	MatchType   string
}

// Feed is the abstract field-control-feed contract. Directives yields
// every directive received. MQTT (and Practice, through it) closes the
// channel when Close is called; Null never closes it.
type Feed interface {
	Directives() <-chan Directive
	Close() error
}
