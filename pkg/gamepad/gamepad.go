// Package gamepad implements the fixed-slot joystick aggregator: up
// to six operator input devices are bound into slots, and each
// control-loop tick takes an atomic snapshot of all six for encoding
// into the outgoing control frame.
//
// The aggregator never talks to a device library directly. Devices
// are wired in through the deviceapi.Feed interface (see
// pkg/gamepad/shim for the concrete backend this repo ships), which
// keeps the slot table free of any platform-specific dependency.
package gamepad

import (
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/gizmo-platform/dstation/pkg/deviceapi"
	"github.com/gizmo-platform/dstation/pkg/dserr"
	"github.com/gizmo-platform/dstation/pkg/protocol"
)

// Slots is the fixed number of joystick slots the wire protocol
// carries, regardless of how many are actually bound.
const Slots = protocol.JoystickSlots

// Aggregator holds the slot table and the most recent sample seen for
// each bound device.
type Aggregator struct {
	l hclog.Logger

	mu       sync.RWMutex
	slotOf   map[string]int // deviceID -> slot, only for bound devices
	deviceOf [Slots]string  // slot -> deviceID, "" if unbound
	samples  [Slots]protocol.JoystickSample
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger attaches a logger to the aggregator.
func WithLogger(l hclog.Logger) Option {
	return func(a *Aggregator) { a.l = l.Named("gamepad") }
}

// New returns an Aggregator with every slot unbound and neutral.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		l:      hclog.NewNullLogger(),
		slotOf: make(map[string]int),
	}
	for i := range a.samples {
		a.samples[i] = protocol.NeutralJoystickSample()
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Bind installs deviceID into slot, evicting whatever device
// previously held that slot and clearing any prior slot deviceID
// held. It fails with dserr.ErrSlotOutOfRange if slot is not in
// [0,5].
func (a *Aggregator) Bind(deviceID string, slot int) error {
	if slot < 0 || slot >= Slots {
		return dserr.ErrSlotOutOfRange
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if prev, ok := a.slotOf[deviceID]; ok {
		a.deviceOf[prev] = ""
		a.samples[prev] = protocol.NeutralJoystickSample()
	}

	if occupant := a.deviceOf[slot]; occupant != "" {
		delete(a.slotOf, occupant)
	}

	a.deviceOf[slot] = deviceID
	a.slotOf[deviceID] = slot
	a.samples[slot] = protocol.NeutralJoystickSample()

	a.l.Info("bound device to slot", "device", deviceID, "slot", slot)
	return nil
}

// Unbind clears slot, if it holds a device.
func (a *Aggregator) Unbind(slot int) error {
	if slot < 0 || slot >= Slots {
		return dserr.ErrSlotOutOfRange
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if occupant := a.deviceOf[slot]; occupant != "" {
		delete(a.slotOf, occupant)
	}
	a.deviceOf[slot] = ""
	a.samples[slot] = protocol.NeutralJoystickSample()
	return nil
}

// Snapshot returns an ordered array of six joystick samples. Unbound
// slots yield the neutral sample. The returned array is a copy, so
// the caller sees a consistent set of samples even as new device
// events arrive concurrently.
func (a *Aggregator) Snapshot() [Slots]protocol.JoystickSample {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.samples
}

// deviceHandler adapts device-feed events into slot-table mutations.
type deviceHandler struct {
	a *Aggregator
}

// Subscribe wires a deviceapi.Feed's events into this aggregator. A
// device attaching does not automatically claim a slot: callers bind
// devices explicitly (e.g. from the CLI layer) once they know which
// physical device should drive which slot.
func (a *Aggregator) Subscribe(feed deviceapi.Feed) {
	feed.Subscribe(&deviceHandler{a: a})
}

func (h *deviceHandler) OnAttached(deviceID string, caps deviceapi.Capabilities) {
	h.a.l.Info("device attached", "device", deviceID, "axes", caps.Axes, "buttons", caps.Buttons, "povs", caps.Povs)
}

func (h *deviceHandler) OnDetached(deviceID string) {
	h.a.mu.Lock()
	defer h.a.mu.Unlock()

	slot, ok := h.a.slotOf[deviceID]
	if !ok {
		return
	}
	h.a.samples[slot] = protocol.NeutralJoystickSample()
	h.a.l.Info("device detached, slot now neutral", "device", deviceID, "slot", slot)
}

func (h *deviceHandler) OnSample(deviceID string, sample deviceapi.Sample) {
	h.a.mu.Lock()
	defer h.a.mu.Unlock()

	slot, ok := h.a.slotOf[deviceID]
	if !ok {
		return
	}
	h.a.samples[slot] = protocol.JoystickSample{
		Axes:    sample.Axes,
		Buttons: sample.Buttons,
		Povs:    sample.Povs,
	}
}
