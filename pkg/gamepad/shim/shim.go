// Package shim is the one platform-specific device backend this repo
// ships: a deviceapi.Feed implementation backed by
// github.com/0xcafed00d/joystick. It is never imported by pkg/gamepad
// or pkg/controlloop directly, only wired in through the deviceapi
// interface at the CLI layer, so a build that has no need of physical
// joysticks (e.g. an automated test harness) never links against the
// OS-specific joystick library at all.
//
// Adapted from the polling shape of the teacher's
// JSController.UpdateState: open by numeric ID, read on a fixed
// interval, translate the raw axis/button layout into the wire's
// six-axis, four-pov shape.
package shim

import (
	"context"
	"fmt"
	"time"

	"github.com/0xcafed00d/joystick"
	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"

	"github.com/gizmo-platform/dstation/pkg/deviceapi"
)

const pollRate = 20 * time.Millisecond

// axisScale converts the joystick library's raw int32 axis range
// (approximately ±32767) into the wire's float32 range of [-1, 1].
const axisScale = 1.0 / 32767.0

// JSDeviceFeed polls a single OS joystick device by numeric ID and
// republishes its state as deviceapi events.
type JSDeviceFeed struct {
	l      hclog.Logger
	id     int
	device string
}

// New returns a feed that will poll joystick device id under the
// device identifier deviceID.
func New(deviceID string, id int, l hclog.Logger) *JSDeviceFeed {
	if l == nil {
		l = hclog.NewNullLogger()
	}
	return &JSDeviceFeed{l: l.Named("gamepad-shim"), id: id, device: deviceID}
}

// Subscribe starts a background goroutine that opens the joystick and
// polls it for the life of the process; the goroutine ends only if
// the device cannot be opened or reopened. Subscribe itself never
// blocks.
func (f *JSDeviceFeed) Subscribe(h deviceapi.DeviceEventHandler) {
	go f.run(context.Background(), h)
}

func (f *JSDeviceFeed) run(ctx context.Context, h deviceapi.DeviceEventHandler) {
	js, err := f.open()
	if err != nil {
		f.l.Error("could not open joystick device, giving up", "device", f.device, "jsid", f.id, "error", err)
		return
	}

	h.OnAttached(f.device, deviceapi.Capabilities{
		Axes:    js.AxisCount(),
		Buttons: js.ButtonCount(),
		Povs:    0,
	})

	ticker := time.NewTicker(pollRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.OnDetached(f.device)
			return
		case <-ticker.C:
			state, err := js.Read()
			if err != nil {
				f.l.Warn("lost joystick, attempting rebind", "device", f.device, "error", err)
				h.OnDetached(f.device)
				js, err = f.open()
				if err != nil {
					f.l.Error("permanent joystick loss", "device", f.device, "error", err)
					return
				}
				h.OnAttached(f.device, deviceapi.Capabilities{Axes: js.AxisCount(), Buttons: js.ButtonCount()})
				continue
			}
			h.OnSample(f.device, translate(state))
		}
	}
}

// open retries joystick.Open with a bounded backoff, since a physical
// controller may be plugged in slightly after this feed starts.
func (f *JSDeviceFeed) open() (joystick.Joystick, error) {
	var js joystick.Joystick
	openFunc := func() error {
		var err error
		js, err = joystick.Open(f.id)
		return err
	}

	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(3*time.Second), 5)
	if err := backoff.Retry(openFunc, b); err != nil {
		return nil, fmt.Errorf("shim: opening joystick %d: %w", f.id, err)
	}
	return js, nil
}

// translate maps the joystick library's raw axis/button layout onto
// the wire's fixed six-axis, four-pov sample. Axes beyond the first
// six, and any hat data (the library reports none as povs), are
// dropped; missing axes are left at neutral.
func translate(state joystick.State) deviceapi.Sample {
	var sample deviceapi.Sample
	for i := 0; i < 4; i++ {
		sample.Povs[i] = -1
	}

	for i := 0; i < 6 && i < len(state.AxisData); i++ {
		sample.Axes[i] = float32(state.AxisData[i]) * axisScale
	}
	sample.Buttons = uint16(state.Buttons)
	return sample
}
