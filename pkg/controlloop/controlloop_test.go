package controlloop

import (
	"net"
	"testing"
	"time"

	"github.com/gizmo-platform/dstation/pkg/config"
	"github.com/gizmo-platform/dstation/pkg/dsstate"
	"github.com/gizmo-platform/dstation/pkg/fieldfeed"
	"github.com/gizmo-platform/dstation/pkg/protocol"
)

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Mode = config.ModeTeam
	cfg.Team = 254
	return cfg
}

// udpPair returns a connected UDP socket pair for exercising send/
// receive without going through discovery.
func udpPair(t *testing.T) (*net.UDPConn, *net.UDPConn) {
	t.Helper()

	server, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	client, err := net.DialUDP("udp4", nil, server.LocalAddr().(*net.UDPAddr))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return client, server
}

func TestOnSendTickIncrementsSequence(t *testing.T) {
	client, server := udpPair(t)
	defer client.Close()
	defer server.Close()

	lp := New(testConfig())
	lp.conn = client
	lp.state.Connect(time.Now(), time.Second)

	now := time.Now()
	lp.onSendTick(now)
	lp.onSendTick(now)
	lp.onSendTick(now)

	if lp.seq != 3 {
		t.Fatalf("seq = %d, want 3", lp.seq)
	}

	buf := make([]byte, protocol.ControlFrameSize)
	server.SetReadDeadline(time.Now().Add(time.Second))
	for want := uint16(1); want <= 3; want++ {
		n, err := server.Read(buf)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		frame, err := protocol.DecodeControlFrame(buf[:n])
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if frame.Seq != want {
			t.Fatalf("frame seq = %d, want %d", frame.Seq, want)
		}
	}
}

func TestRecordSentReceivedTracksLatency(t *testing.T) {
	lp := New(testConfig())

	sentAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	lp.recordSent(1, sentAt)
	lp.recordReceived(1, sentAt.Add(50*time.Millisecond))

	if lp.latencyEMA != 50*time.Millisecond {
		t.Fatalf("latencyEMA = %v, want 50ms on first sample", lp.latencyEMA)
	}
	if len(lp.pending) != 0 {
		t.Fatalf("pending should be empty after the matching receive, got %d", len(lp.pending))
	}

	lp.recordSent(2, sentAt)
	lp.recordReceived(2, sentAt.Add(150*time.Millisecond))
	if lp.latencyEMA <= 50*time.Millisecond {
		t.Fatalf("latencyEMA should move toward the new sample, got %v", lp.latencyEMA)
	}
}

func TestPendingSendsExpireAfterTTL(t *testing.T) {
	lp := New(testConfig())

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	lp.recordSent(1, base)
	lp.recordSent(2, base.Add(pendingSendTTL+time.Second))

	if len(lp.pending) != 1 {
		t.Fatalf("expected the stale pending send to be pruned, got %d entries", len(lp.pending))
	}
	if lp.pending[0].seq != 2 {
		t.Fatalf("expected seq 2 to survive, got %d", lp.pending[0].seq)
	}
}

func TestRotateLossWindowComputesRatio(t *testing.T) {
	lp := New(testConfig())

	// One second: 10 sent, 10 received. No loss.
	for i := 0; i < 10; i++ {
		lp.sentBuckets[lp.bucketIdx]++
		lp.recvBuckets[lp.bucketIdx]++
	}
	lp.rotateLossWindow()
	if lp.packetLoss != 0 {
		t.Fatalf("packetLoss = %v, want 0 after a perfect second", lp.packetLoss)
	}

	// Next second: 10 sent, 5 received. The window is cumulative over
	// five seconds, so the prior second's perfect 10/10 still counts:
	// 20 sent, 15 received overall.
	for i := 0; i < 10; i++ {
		lp.sentBuckets[lp.bucketIdx]++
	}
	for i := 0; i < 5; i++ {
		lp.recvBuckets[lp.bucketIdx]++
	}
	lp.rotateLossWindow()
	want := 1 - float64(15)/float64(20)
	if lp.packetLoss != want {
		t.Fatalf("packetLoss = %v, want %v", lp.packetLoss, want)
	}
}

func TestHandleLinkExpiredTransitionsToConnectionLost(t *testing.T) {
	lp := New(testConfig())

	now := time.Now()
	lp.state.Connect(now, time.Second)
	lp.state.OnTelemetry(dsstate.Telemetry{VoltageMillivolts: 12500})
	lp.batt.Update(now, 12.5)
	lp.recordSent(1, now)
	lp.recordReceived(1, now.Add(50*time.Millisecond))
	lp.sentBuckets[lp.bucketIdx] = 4
	lp.recvBuckets[lp.bucketIdx] = 3
	lp.rotateLossWindow()

	lp.handleLinkExpired(now)

	if lp.state.State() != dsstate.ConnectionLost {
		t.Fatalf("state = %v, want connection_lost", lp.state.State())
	}
	if lp.batt.Level() != 0 {
		t.Fatalf("expected battery history reset, level = %v", lp.batt.Level())
	}
	if lp.latencyEMA != 0 {
		t.Fatalf("expected latencyEMA zeroed on link loss, got %v", lp.latencyEMA)
	}
	if len(lp.pending) != 0 {
		t.Fatalf("expected pending sends cleared on link loss, got %d", len(lp.pending))
	}
	if lp.packetLoss != 0 {
		t.Fatalf("expected packetLoss zeroed on link loss, got %v", lp.packetLoss)
	}
}

func TestHandleLinkExpiredNoopWhenNotConnected(t *testing.T) {
	lp := New(testConfig())
	lp.handleLinkExpired(time.Now())
	if lp.state.State() != dsstate.Disconnected {
		t.Fatalf("state = %v, want disconnected (no-op)", lp.state.State())
	}
}

func TestOnFieldDirectiveAppliesToFusion(t *testing.T) {
	lp := New(testConfig())
	now := time.Now()
	lp.state.Connect(now, time.Second)
	lp.state.OnTelemetry(dsstate.Telemetry{})
	lp.SetOperatorInputs(dsstate.OperatorInputs{Enabled: false})

	lp.onFieldDirective(fieldfeed.Directive{Attached: true, Enabled: true, Mode: fieldfeed.ModeAuto})

	fused := lp.state.Fuse(false, false, protocol.PhasePre)
	if !fused.Enabled || !fused.Autonomous || !fused.FieldAttached {
		t.Fatalf("field directive not reflected in fusion: %+v", fused)
	}
}
