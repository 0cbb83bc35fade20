package config

import (
	"net"

	"github.com/gizmo-platform/dstation/pkg/dserr"
)

// Validate enforces the ConnectionConfig invariant from spec.md §3:
// team mode requires a nonzero team in [1,9999]; direct mode requires
// a non-empty, parseable IPv4 address.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeTeam:
		if c.Team < 1 || c.Team > 9999 {
			return dserr.ErrInvalidTeam
		}
	case ModeDirect:
		if c.DirectAddress == "" {
			return dserr.ErrInvalidAddress
		}
		addr := net.ParseIP(c.DirectAddress)
		if addr == nil || addr.To4() == nil {
			return dserr.ErrInvalidAddress
		}
	default:
		return dserr.ErrConfig
	}
	return nil
}
