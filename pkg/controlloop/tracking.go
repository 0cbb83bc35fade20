package controlloop

import (
	"time"

	"github.com/gizmo-platform/dstation/pkg/dsstate"
	"github.com/gizmo-platform/dstation/pkg/telemetry"
)

// latencySmoothing is the exponential moving average weight applied
// to each new round-trip sample.
const latencySmoothing = 0.2

// recordSent tallies an outbound frame into the current loss-window
// bucket and remembers its send time for latency measurement once the
// matching status frame arrives.
func (lp *Loop) recordSent(seq uint16, at time.Time) {
	lp.sentBuckets[lp.bucketIdx]++
	lp.pending = append(lp.pending, pendingSend{seq: seq, at: at})

	cutoff := at.Add(-pendingSendTTL)
	fresh := lp.pending[:0]
	for _, p := range lp.pending {
		if p.at.After(cutoff) {
			fresh = append(fresh, p)
		}
	}
	lp.pending = fresh
}

// recordReceived tallies an inbound frame into the current loss-window
// bucket and, if it matches a still-pending send, folds its round-trip
// time into the latency moving average.
func (lp *Loop) recordReceived(seq uint16, at time.Time) {
	lp.recvBuckets[lp.bucketIdx]++

	for i, p := range lp.pending {
		if p.seq != seq {
			continue
		}
		rtt := at.Sub(p.at)
		if lp.latencyEMA == 0 {
			lp.latencyEMA = rtt
		} else {
			lp.latencyEMA = time.Duration((1-latencySmoothing)*float64(lp.latencyEMA) + latencySmoothing*float64(rtt))
		}
		lp.pending = append(lp.pending[:i], lp.pending[i+1:]...)
		break
	}
}

// rotateLossWindow advances the five-second ring of per-second
// sent/received counts and recomputes the packet-loss ratio over the
// whole window. Called once a second from the watchdog tick.
func (lp *Loop) rotateLossWindow() {
	lp.bucketIdx = (lp.bucketIdx + 1) % len(lp.sentBuckets)
	lp.sentBuckets[lp.bucketIdx] = 0
	lp.recvBuckets[lp.bucketIdx] = 0

	var sent, recv int
	for i := range lp.sentBuckets {
		sent += lp.sentBuckets[i]
		recv += lp.recvBuckets[i]
	}
	if sent == 0 {
		lp.packetLoss = 0
		return
	}
	loss := 1 - float64(recv)/float64(sent)
	if loss < 0 {
		loss = 0
	}
	lp.packetLoss = loss
}

// resetLinkTracking clears every derived link statistic once the
// watchdog declares the link lost, so a stale latency/loss reading
// doesn't linger in telemetry after the robot stops answering.
func (lp *Loop) resetLinkTracking() {
	lp.pending = nil
	lp.latencyEMA = 0
	lp.sentBuckets = [5]int{}
	lp.recvBuckets = [5]int{}
	lp.bucketIdx = 0
	lp.packetLoss = 0
}

// telemetryStatusUpdate renders a dsstate.Snapshot plus the loop's own
// derived link metrics into the wire shape the telemetry stream
// publishes.
func telemetryStatusUpdate(snap dsstate.Snapshot, batteryLevel string, latency time.Duration, packetLoss float64, decodeErrors, transmitErrors uint64) telemetry.EventStatusUpdate {
	return telemetry.EventStatusUpdate{
		Enabled:           snap.Enabled,
		Autonomous:        snap.Autonomous,
		Test:              snap.Test,
		EmergencyStopped:  snap.EStop,
		VoltageMillivolts: snap.Telemetry.VoltageMillivolts,
		BatteryLevel:      batteryLevel,
		Phase:             snap.Telemetry.Phase.String(),
		SecondsRemaining:  snap.Telemetry.SecondsRemaining,
		LatencyMillis:     float64(latency) / float64(time.Millisecond),
		PacketLossPercent: packetLoss * 100,
		DecodeErrors:      decodeErrors,
		TransmitErrors:    transmitErrors,
	}
}
