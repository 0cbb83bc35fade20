package protocol

import (
	"encoding/binary"

	"github.com/gizmo-platform/dstation/pkg/dserr"
)

// EncodeStatusFrame renders a StatusFrame into its wire
// representation.  This side of the link is normally produced by the
// robot; the driver station encodes it only in tests and in the
// loopback fixtures used to exercise discovery.
func EncodeStatusFrame(s *StatusFrame) []byte {
	buf := make([]byte, StatusFrameSize)

	binary.BigEndian.PutUint16(buf[0:2], s.Seq)
	buf[2] = s.Control
	buf[3] = s.Status
	binary.BigEndian.PutUint16(buf[4:6], s.VoltageMillivolts)
	buf[6] = s.CPUPercent
	buf[7] = s.RAMPercent
	buf[8] = s.DiskPercent
	binary.BigEndian.PutUint16(buf[9:11], s.CANUtilTenths)
	buf[11] = s.CANBusOff
	if s.CodeRunning {
		buf[12] = 1
	}
	buf[13] = uint8(s.Phase)
	binary.BigEndian.PutUint16(buf[14:16], s.SecondsRemaining)

	binary.BigEndian.PutUint16(buf[statusBodySize:StatusFrameSize], checksum(buf[:statusBodySize]))
	return buf
}

// DecodeStatusFrame parses a wire StatusFrame, requiring at least
// StatusFrameSize bytes and a valid trailing checksum.
func DecodeStatusFrame(b []byte) (*StatusFrame, error) {
	if len(b) < StatusFrameSize {
		return nil, dserr.ErrTooShort
	}
	body := b[:statusBodySize]
	want := binary.BigEndian.Uint16(b[statusBodySize:StatusFrameSize])
	if checksum(body) != want {
		return nil, dserr.ErrInvalidChecksum
	}

	phase := b[13]
	if phase > uint8(PhasePost) {
		return nil, dserr.ErrMalformed
	}

	s := &StatusFrame{}
	s.Seq = binary.BigEndian.Uint16(b[0:2])
	s.Control = b[2]
	s.Status = b[3]
	s.VoltageMillivolts = binary.BigEndian.Uint16(b[4:6])
	s.CPUPercent = b[6]
	s.RAMPercent = b[7]
	s.DiskPercent = b[8]
	s.CANUtilTenths = binary.BigEndian.Uint16(b[9:11])
	s.CANBusOff = b[11]
	s.CodeRunning = b[12] != 0
	s.Phase = MatchPhase(phase)
	s.SecondsRemaining = binary.BigEndian.Uint16(b[14:16])

	return s, nil
}
