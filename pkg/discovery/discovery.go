// Package discovery derives the set of candidate robot addresses for
// a connection configuration and probes them to find a live robot.
//
// The candidate list mirrors the well-known FRC network topology: a
// team-number-derived primary address, the fixed USB and bridged
// fallback addresses, and a best-effort mDNS hostname lookup. See
// pkg/ds/template.go in the field-management tooling this was
// adapted from for the team-number-to-address arithmetic.
package discovery

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/mdns"

	"github.com/gizmo-platform/dstation/pkg/config"
	"github.com/gizmo-platform/dstation/pkg/protocol"
)

const (
	usbFallbackAddr     = "172.22.11.2"
	bridgedFallbackAddr = "192.168.1.2"
	robotUDPPort        = 1110
	mdnsLookupTimeout   = 500 * time.Millisecond
)

// Resolver probes a fixed candidate list to find a live robot.
type Resolver struct {
	l hclog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger attaches a logger to the resolver.
func WithLogger(l hclog.Logger) Option {
	return func(r *Resolver) { r.l = l }
}

// New returns a configured Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{l: hclog.NewNullLogger()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// ip4prefix reproduces the team-number-to-10.TE.AM addressing scheme
// used across the FRC field network.
func ip4prefix(team int) string {
	return fmt.Sprintf("10.%d.%d", team/100, team%100)
}

// Candidates returns the ordered list of addresses worth probing for
// the given configuration. Order matters: the primary team address is
// tried first, then the fixed fallback addresses, then the mDNS
// hostname lookup (which is the slowest and least reliable).
func (r *Resolver) Candidates(cfg config.Config) []string {
	if cfg.Mode == config.ModeDirect {
		return []string{cfg.DirectAddress}
	}

	addrs := []string{
		ip4prefix(cfg.Team) + ".2",
		usbFallbackAddr,
		bridgedFallbackAddr,
	}

	if addr, ok := r.lookupMDNS(cfg.Team); ok {
		addrs = append(addrs, addr)
	}

	return addrs
}

// lookupMDNS performs a best-effort mDNS lookup of
// roboRIO-<team>-FRC.local, returning its address if a responder
// answers within mdnsLookupTimeout.
func (r *Resolver) lookupMDNS(team int) (string, bool) {
	host := fmt.Sprintf("roboRIO-%d-FRC.local", team)

	entries := make(chan *mdns.ServiceEntry, 1)
	params := mdns.DefaultParams(host)
	params.Timeout = mdnsLookupTimeout
	params.Entries = entries
	params.DisableIPv6 = true

	done := make(chan struct{})
	var found string
	go func() {
		defer close(done)
		for e := range entries {
			if e.AddrV4 != nil {
				found = e.AddrV4.String()
				return
			}
		}
	}()

	if err := mdns.Query(params); err != nil {
		r.l.Debug("mdns query failed", "host", host, "error", err)
	}
	close(entries)
	<-done

	if found == "" {
		return "", false
	}
	r.l.Debug("mdns resolved robot address", "host", host, "address", found)
	return found, true
}

// Discover probes each candidate address in order with a neutral
// control frame, returning the first one that answers with a valid
// status frame before ctx is done, along with the sequence number that
// probe frame carried. Probing is bounded per-candidate so a single
// unreachable address cannot consume the whole discovery window.
//
// Each probe advances its own seq, so the control loop can start its
// own sequence at the successor of whichever probe actually got
// answered rather than restarting at zero.
func (r *Resolver) Discover(ctx context.Context, cfg config.Config) (string, uint16, error) {
	candidates := r.Candidates(cfg)
	if len(candidates) == 0 {
		return "", 0, fmt.Errorf("discovery: no candidate addresses for configuration")
	}

	perCandidate := time.Duration(int64(time.Until(deadlineOrDefault(ctx))) / int64(len(candidates)))
	if perCandidate <= 0 {
		perCandidate = 200 * time.Millisecond
	}

	var seq uint16
	for _, addr := range candidates {
		select {
		case <-ctx.Done():
			return "", 0, ctx.Err()
		default:
		}

		seq++
		if r.probe(ctx, addr, perCandidate, seq) {
			r.l.Info("robot discovered", "address", addr, "seq", seq)
			return addr, seq, nil
		}
	}

	return "", 0, fmt.Errorf("discovery: no candidate address responded")
}

func deadlineOrDefault(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		return dl
	}
	return time.Now().Add(time.Second)
}

// probe sends a single neutral control frame carrying seq to addr and
// waits up to timeout for a well-formed status frame in reply.
func (r *Resolver) probe(ctx context.Context, addr string, timeout time.Duration, seq uint16) bool {
	raddr, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("%s:%d", addr, robotUDPPort))
	if err != nil {
		return false
	}

	conn, err := net.DialUDP("udp4", nil, raddr)
	if err != nil {
		return false
	}
	defer conn.Close()

	frame := &protocol.ControlFrame{
		Seq:       seq,
		Station:   0,
		Joysticks: [protocol.JoystickSlots]protocol.JoystickSample{},
	}
	for i := range frame.Joysticks {
		frame.Joysticks[i] = protocol.NeutralJoystickSample()
	}

	if _, err := conn.Write(protocol.EncodeControlFrame(frame)); err != nil {
		return false
	}

	conn.SetReadDeadline(time.Now().Add(timeout))
	buf := make([]byte, protocol.StatusFrameSize)
	n, err := conn.Read(buf)
	if err != nil {
		return false
	}

	_, err = protocol.DecodeStatusFrame(buf[:n])
	return err == nil
}
