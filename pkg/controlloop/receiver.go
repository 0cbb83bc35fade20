package controlloop

import (
	"fmt"
	"net"
	"time"

	"github.com/gizmo-platform/dstation/pkg/dserr"
	"github.com/gizmo-platform/dstation/pkg/protocol"
)

// inboundFrame pairs a decoded status frame with the moment it was
// pulled off the socket, since the reader goroutine and the tick
// processing loop run at different rates.
type inboundFrame struct {
	frame *protocol.StatusFrame
	at    time.Time
}

// readLoop owns the blocking UDP read and feeds decoded frames to ch.
// It is the only goroutine that touches conn.Read. Everything it
// touches directly rather than through ch is either already
// goroutine-safe (the telemetry publisher, the metrics registry) or
// an atomic counter (decodeErrors); every other piece of loop state
// is only ever mutated from Run's own select loop.
func (lp *Loop) readLoop(conn *net.UDPConn, ch chan<- inboundFrame, done <-chan struct{}) {
	buf := make([]byte, protocol.StatusFrameSize)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			select {
			case <-done:
				return
			default:
			}
			lp.l.Debug("read error", "error", err)
			continue
		}

		frame, err := protocol.DecodeStatusFrame(buf[:n])
		if err != nil {
			lp.decodeErrors.Add(1)
			lp.l.Debug("dropped malformed status frame", "error", err)
			lp.pub.PublishError(fmt.Errorf("%w: %v", dserr.ErrDecode, err))
			if lp.metrics != nil {
				lp.metrics.IncDecodeError(lp.team())
			}
			continue
		}

		select {
		case ch <- inboundFrame{frame: frame, at: time.Now()}:
		case <-done:
			return
		}
	}
}
