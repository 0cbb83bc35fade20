package controlloop

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/gizmo-platform/dstation/pkg/battery"
	"github.com/gizmo-platform/dstation/pkg/config"
	"github.com/gizmo-platform/dstation/pkg/discovery"
	"github.com/gizmo-platform/dstation/pkg/dsstate"
	"github.com/gizmo-platform/dstation/pkg/fieldfeed"
	"github.com/gizmo-platform/dstation/pkg/gamepad"
	"github.com/gizmo-platform/dstation/pkg/matchclock"
	"github.com/gizmo-platform/dstation/pkg/metrics"
	"github.com/gizmo-platform/dstation/pkg/telemetry"
	"github.com/gizmo-platform/dstation/pkg/watchdog"
)

const (
	sendRate     = 20 * time.Millisecond
	watchdogRate = time.Second

	pendingSendTTL = 5 * time.Second
)

// pendingSend records when a control frame with a given sequence
// number was transmitted, for round-trip latency measurement.
type pendingSend struct {
	seq uint16
	at  time.Time
}

// Loop drives the UDP protocol at a fixed cadence and owns every
// piece of per-tick state: the socket, the state machine, the
// joystick snapshot source, the battery/match clock advisors, the
// field-control feed, and the telemetry/metrics sinks.
//
// Grounded on the teacher's per-concern time.NewTicker + select loops
// (pkg/ds.go's doGamepad/doLocation/doMetaPublish) and pkg/watchdog,
// reused unmodified for the link watchdog: its bite callback only ever
// signals a channel the select loop reads, so every state mutation
// still happens on the loop's own goroutine.
type Loop struct {
	l       hclog.Logger
	cfg     config.Config
	session config.SessionID

	conn *net.UDPConn
	addr string

	resolver *discovery.Resolver
	state    *dsstate.DSState
	joy      *gamepad.Aggregator
	batt     *battery.Monitor
	clock    *matchclock.Clock
	field    fieldfeed.Feed
	pub      telemetry.Publisher
	metrics  *metrics.Metrics

	linkDog     *watchdog.Dog
	linkExpired chan struct{}

	seq         uint16
	pending     []pendingSend
	sentBuckets [5]int
	recvBuckets [5]int
	bucketIdx   int
	lastPacket  time.Time
	latencyEMA  time.Duration
	packetLoss  float64

	lastSnapshot dsstate.Snapshot

	// decodeErrors and transmitErrors are touched from both the
	// reader goroutine (decode) and the tick loop (transmit, and
	// reading both for reporting), so they're atomics rather than
	// plain fields.
	decodeErrors   atomic.Uint64
	transmitErrors atomic.Uint64
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger attaches a logger.
func WithLogger(l hclog.Logger) Option {
	return func(lp *Loop) { lp.l = l.Named("controlloop") }
}

// WithGamepad supplies the joystick aggregator.
func WithGamepad(a *gamepad.Aggregator) Option {
	return func(lp *Loop) { lp.joy = a }
}

// WithBattery supplies the battery monitor.
func WithBattery(b *battery.Monitor) Option {
	return func(lp *Loop) { lp.batt = b }
}

// WithMatchClock supplies the match clock.
func WithMatchClock(c *matchclock.Clock) Option {
	return func(lp *Loop) { lp.clock = c }
}

// WithFieldFeed supplies the field-control feed.
func WithFieldFeed(f fieldfeed.Feed) Option {
	return func(lp *Loop) { lp.field = f }
}

// WithTelemetry supplies the telemetry publisher.
func WithTelemetry(p telemetry.Publisher) Option {
	return func(lp *Loop) { lp.pub = p }
}

// WithMetrics supplies the Prometheus metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(lp *Loop) { lp.metrics = m }
}

// WithSession tags the loop's logger with a session identifier that
// correlates its log lines with the telemetry events published for
// the same connect-discover-run lifecycle. Callers that don't supply
// one get a fresh identifier generated in New.
func WithSession(id config.SessionID) Option {
	return func(lp *Loop) { lp.session = id }
}

// New returns a Loop configured for cfg. Any unset dependency gets an
// inert default (null gamepad, null field feed, null telemetry) so
// the loop is safe to run stand-alone in tests.
func New(cfg config.Config, opts ...Option) *Loop {
	lp := &Loop{
		l:        hclog.NewNullLogger(),
		cfg:      cfg,
		resolver: discovery.New(),
		state:    dsstate.New(),
		joy:      gamepad.New(),
		batt: battery.New(
			battery.WithThresholds(cfg.BatteryCriticalVolts, cfg.BatteryWarningVolts),
			battery.WithAutoDisable(cfg.AutoDisableOnCriticalBattery),
		),
		clock: matchclock.New(matchclock.WithDurations(cfg.MatchDurations)),
		field: fieldfeed.NewNull(),
		pub:   telemetry.NewNullStream(),
	}
	for _, o := range opts {
		o(lp)
	}
	if lp.session == "" {
		lp.session = config.NewSessionID()
	}
	lp.l = lp.l.With("session", lp.session.String())
	lp.linkExpired = make(chan struct{}, 1)
	lp.linkDog = watchdog.New(
		watchdog.WithName("link"),
		watchdog.WithFoodDuration(cfg.WatchdogTimeout),
		watchdog.WithHandFunction(lp.onLinkExpired),
		watchdog.WithLogger(lp.l),
	)
	return lp
}

// onLinkExpired is the watchdog's bite callback. It runs on the
// watchdog's own timer goroutine, so it only ever signals the select
// loop rather than touching any loop state directly.
func (lp *Loop) onLinkExpired() {
	select {
	case lp.linkExpired <- struct{}{}:
	default:
	}
}
