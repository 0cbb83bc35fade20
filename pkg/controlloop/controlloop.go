package controlloop

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/gizmo-platform/dstation/pkg/config"
	"github.com/gizmo-platform/dstation/pkg/dserr"
	"github.com/gizmo-platform/dstation/pkg/dsstate"
	"github.com/gizmo-platform/dstation/pkg/fieldfeed"
	"github.com/gizmo-platform/dstation/pkg/protocol"
)

// SetOperatorInputs forwards to the underlying state machine. This is
// the seam the CLI layer (and any future UI) drives operator intent
// through.
func (lp *Loop) SetOperatorInputs(in dsstate.OperatorInputs) { lp.state.SetOperatorInputs(in) }

// Snapshot returns the most recently fused state. It never blocks on
// the tick loop, but it reads loop state without synchronisation, so
// it is not safe to call from another goroutine while Run is running.
func (lp *Loop) Snapshot() dsstate.Snapshot { return lp.lastSnapshot }

// Config exposes the loop's configuration for callers that need it
// read-only, e.g. the CLI layer rendering the current connection
// target.
func (lp *Loop) Config() config.Config { return lp.cfg }

// Run drives the control loop until ctx is cancelled or discovery
// fails outright. It resolves a robot address, opens the UDP socket,
// and then processes send/watchdog ticks, inbound frames, and field
// directives from a single select loop so no two ticks ever race on
// loop state.
func (lp *Loop) Run(ctx context.Context) error {
	if err := lp.cfg.Validate(); err != nil {
		return err
	}

	now := time.Now()
	lp.state.Connect(now, lp.cfg.DiscoveryWindow)
	lp.pub.PublishStateChanged("", string(lp.state.State()))

	discCtx, cancel := context.WithTimeout(ctx, lp.cfg.DiscoveryWindow)
	addr, probeSeq, err := lp.resolver.Discover(discCtx, lp.cfg)
	cancel()
	if err != nil {
		lp.state.DiscoveryExceeded(time.Now(), fmt.Errorf("%w: %v", dserr.ErrNotFound, err))
		lp.pub.PublishStateChanged(string(dsstate.Discovering), string(lp.state.State()))
		return dserr.ErrNotFound
	}
	lp.addr = addr
	lp.seq = probeSeq
	lp.pub.PublishStateChanged(string(dsstate.Discovering), string(lp.state.State()))

	raddr, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("%s:1110", addr))
	if err != nil {
		return err
	}
	conn, err := net.DialUDP("udp4", nil, raddr)
	if err != nil {
		return err
	}
	lp.conn = conn
	defer conn.Close()

	recvCh := make(chan inboundFrame, 8)
	done := make(chan struct{})
	go lp.readLoop(conn, recvCh, done)
	defer close(done)

	sendTicker := time.NewTicker(sendRate)
	defer sendTicker.Stop()
	watchdogTicker := time.NewTicker(watchdogRate)
	defer watchdogTicker.Stop()

	if lp.cfg.MatchClockEnabled {
		lp.clock.Start(now)
	}

	directives := lp.field.Directives()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-sendTicker.C:
			lp.onSendTick(time.Now())

		case in := <-recvCh:
			lp.onReceive(in)

		case <-watchdogTicker.C:
			lp.onWatchdogTick(time.Now())

		case <-lp.linkExpired:
			lp.handleLinkExpired(time.Now())

		case d, ok := <-directives:
			if !ok {
				directives = nil
				continue
			}
			lp.onFieldDirective(d)
		}
	}
}

// onSendTick builds and transmits the next outbound control frame
// from the current fused state and gamepad snapshot. Fuse is called
// exactly once per tick, since it also consumes one-shot
// reboot/restart-code requests.
func (lp *Loop) onSendTick(now time.Time) {
	if lp.cfg.MatchClockEnabled {
		lp.clock.Tick(now)
	}
	lp.state.SetForceDisabled(lp.batt.ForceDisable())

	matchActive := lp.cfg.MatchClockEnabled && lp.clock.Active()
	fused := lp.state.Fuse(matchActive, lp.clock.Paused(), lp.clock.Phase())

	lp.seq++
	frame := &protocol.ControlFrame{
		Seq:           lp.seq,
		Enabled:       fused.Enabled,
		Autonomous:    fused.Autonomous,
		Test:          fused.Test,
		EStop:         fused.EStop,
		FieldAttached: fused.FieldAttached,
		DSAttached:    true,
		Request:       fused.Request,
		Station:       lp.state.OperatorInputs().Station.Encode(),
		Joysticks:     lp.joy.Snapshot(),
	}

	if _, err := lp.conn.Write(protocol.EncodeControlFrame(frame)); err != nil {
		lp.transmitErrors.Add(1)
		lp.l.Warn("send failed", "error", err)
		lp.pub.PublishError(fmt.Errorf("%w: %v", dserr.ErrTransport, err))
		if lp.metrics != nil {
			lp.metrics.IncTransmitError(lp.team())
		}
	}

	lp.recordSent(lp.seq, now)
	lp.publishSnapshot(fused)
}

// onReceive processes one decoded status frame: it feeds the link
// watchdog, the battery monitor, the latency tracker, and the state
// machine.
func (lp *Loop) onReceive(in inboundFrame) {
	lp.linkDog.Feed()
	lp.lastPacket = in.at
	lp.recordReceived(in.frame.Seq, in.at)

	f := in.frame
	lp.batt.Update(in.at, float64(f.VoltageMillivolts)/1000.0)

	lp.state.OnTelemetry(dsstate.Telemetry{
		VoltageMillivolts: f.VoltageMillivolts,
		CPUPercent:        f.CPUPercent,
		RAMPercent:        f.RAMPercent,
		DiskPercent:       f.DiskPercent,
		CANUtilTenths:     f.CANUtilTenths,
		CodeRunning:       f.CodeRunning,
		Phase:             f.Phase,
		SecondsRemaining:  f.SecondsRemaining,
	})
}

// handleLinkExpired reacts to the link watchdog's bite: it moves the
// state machine to ConnectionLost and clears the battery history and
// derived link statistics, since none of them reflect anything real
// once the robot has stopped answering.
func (lp *Loop) handleLinkExpired(now time.Time) {
	if lp.state.State() != dsstate.Connected {
		return
	}
	from := lp.state.State()
	lp.state.OnWatchdogExpired(dserr.ErrLinkLost)
	lp.batt.Reset()
	lp.resetLinkTracking()
	lp.pub.PublishStateChanged(string(from), string(lp.state.State()))
}

// onWatchdogTick rotates the packet-loss window and pushes the
// current derived values into the metrics sink. It runs once a
// second, independent of the 50Hz send/receive cadence.
func (lp *Loop) onWatchdogTick(now time.Time) {
	lp.rotateLossWindow()

	if lp.metrics == nil {
		return
	}
	snap := lp.lastSnapshot
	watchdogOK := lp.state.State() == dsstate.Connected
	lp.metrics.Update(lp.team(),
		float64(snap.Telemetry.VoltageMillivolts)/1000.0,
		lp.latencyEMA.Seconds(),
		lp.packetLoss,
		watchdogOK,
		snap.Enabled,
	)
}

// team renders the configured team number as the label value the
// metrics registry keys every series on.
func (lp *Loop) team() string {
	return fmt.Sprintf("%d", lp.cfg.Team)
}

// onFieldDirective translates a field-control-feed directive into the
// state machine's own FieldDirective representation, keeping dsstate
// free of any dependency on the fieldfeed package.
func (lp *Loop) onFieldDirective(d fieldfeed.Directive) {
	lp.state.SetFieldDirective(dsstate.FieldDirective{
		Attached: d.Attached,
		Enabled:  d.Enabled,
		Mode:     dsstate.Mode(d.Mode),
	})
}

func (lp *Loop) publishSnapshot(fused dsstate.FusedFlags) {
	lp.lastSnapshot = lp.state.Snapshot(fused)
	snap := lp.lastSnapshot
	lp.pub.PublishStatusUpdate(telemetryStatusUpdate(snap, lp.batt.Level().String(), lp.latencyEMA, lp.packetLoss,
		lp.decodeErrors.Load(), lp.transmitErrors.Load()))
}
