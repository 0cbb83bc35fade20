package protocol

import (
	"encoding/binary"
	"math"

	"github.com/gizmo-platform/dstation/pkg/dserr"
)

// EncodeControlFrame renders a ControlFrame into its wire
// representation.  Encoding cannot fail: every field width is fixed
// and every value is already bounds-checked by the types that produce
// a ControlFrame.
func EncodeControlFrame(f *ControlFrame) []byte {
	buf := make([]byte, ControlFrameSize)

	binary.BigEndian.PutUint16(buf[0:2], f.Seq)
	buf[2] = f.Control()
	buf[3] = uint8(f.Request)
	buf[4] = f.Station
	buf[5] = JoystickSlots

	off := controlHeaderSize
	for _, js := range f.Joysticks {
		for a := 0; a < AxesPerJoystick; a++ {
			binary.BigEndian.PutUint32(buf[off:off+4], math.Float32bits(js.Axes[a]))
			off += 4
		}
		binary.BigEndian.PutUint16(buf[off:off+2], js.Buttons)
		off += 2
		for p := 0; p < PovsPerJoystick; p++ {
			binary.BigEndian.PutUint16(buf[off:off+2], uint16(js.Povs[p]))
			off += 2
		}
	}

	binary.BigEndian.PutUint16(buf[off:off+2], checksum(buf[:off]))
	return buf
}

// DecodeControlFrame parses a wire ControlFrame, validating length
// and checksum before touching any field.  It is primarily used by
// tests and by the discovery probe echo path, since production robots
// are the usual decoder of this frame.
func DecodeControlFrame(b []byte) (*ControlFrame, error) {
	if len(b) < ControlFrameSize {
		return nil, dserr.ErrTooShort
	}
	body := b[:ControlFrameSize-checksumSize]
	want := binary.BigEndian.Uint16(b[ControlFrameSize-checksumSize : ControlFrameSize])
	if checksum(body) != want {
		return nil, dserr.ErrInvalidChecksum
	}

	f := &ControlFrame{}
	f.Seq = binary.BigEndian.Uint16(b[0:2])
	f.setControl(b[2])
	f.Request = RequestType(b[3])
	f.Station = b[4]
	count := b[5]
	if count != JoystickSlots {
		return nil, dserr.ErrMalformed
	}

	off := controlHeaderSize
	for i := 0; i < JoystickSlots; i++ {
		var js JoystickSample
		for a := 0; a < AxesPerJoystick; a++ {
			js.Axes[a] = math.Float32frombits(binary.BigEndian.Uint32(b[off : off+4]))
			off += 4
		}
		js.Buttons = binary.BigEndian.Uint16(b[off : off+2])
		off += 2
		for p := 0; p < PovsPerJoystick; p++ {
			js.Povs[p] = int16(binary.BigEndian.Uint16(b[off : off+2]))
			off += 2
		}
		f.Joysticks[i] = js
	}

	return f, nil
}
