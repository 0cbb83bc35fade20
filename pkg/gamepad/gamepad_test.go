package gamepad

import (
	"testing"

	"github.com/gizmo-platform/dstation/pkg/deviceapi"
	"github.com/gizmo-platform/dstation/pkg/dserr"
)

func neutralPovs(t *testing.T, povs [4]int16) {
	t.Helper()
	for i, p := range povs {
		if p != -1 {
			t.Errorf("pov[%d] = %d, want -1 (neutral)", i, p)
		}
	}
}

func TestSnapshotAllNeutralInitially(t *testing.T) {
	a := New()
	snap := a.Snapshot()
	if len(snap) != Slots {
		t.Fatalf("snapshot length = %d, want %d", len(snap), Slots)
	}
	for i, s := range snap {
		if s.Buttons != 0 {
			t.Errorf("slot %d buttons = %d, want 0", i, s.Buttons)
		}
		neutralPovs(t, s.Povs)
	}
}

func TestBindRejectsOutOfRangeSlot(t *testing.T) {
	a := New()
	if err := a.Bind("dev1", -1); err != dserr.ErrSlotOutOfRange {
		t.Errorf("Bind(-1) = %v, want ErrSlotOutOfRange", err)
	}
	if err := a.Bind("dev1", Slots); err != dserr.ErrSlotOutOfRange {
		t.Errorf("Bind(%d) = %v, want ErrSlotOutOfRange", Slots, err)
	}
}

func TestBindMoveClearsPriorSlot(t *testing.T) {
	a := New()
	if err := a.Bind("dev1", 0); err != nil {
		t.Fatalf("bind slot 0: %v", err)
	}
	if err := a.Bind("dev1", 3); err != nil {
		t.Fatalf("bind slot 3: %v", err)
	}

	a.Subscribe(fakeFeed{})
	handler := &deviceHandler{a: a}
	handler.OnSample("dev1", deviceapi.Sample{Buttons: 0xBEEF})

	snap := a.Snapshot()
	if snap[0].Buttons != 0 {
		t.Errorf("old slot 0 still has device1's sample: %+v", snap[0])
	}
	if snap[3].Buttons != 0xBEEF {
		t.Errorf("slot 3 did not receive device1's sample: %+v", snap[3])
	}
}

func TestUnbindResetsToNeutral(t *testing.T) {
	a := New()
	a.Bind("dev1", 2)
	handler := &deviceHandler{a: a}
	handler.OnSample("dev1", deviceapi.Sample{Buttons: 42})

	if err := a.Unbind(2); err != nil {
		t.Fatalf("unbind: %v", err)
	}
	snap := a.Snapshot()
	if snap[2].Buttons != 0 {
		t.Errorf("slot 2 buttons = %d after unbind, want 0", snap[2].Buttons)
	}
}

func TestOnDetachedResetsSlotToNeutral(t *testing.T) {
	a := New()
	a.Bind("dev1", 1)
	handler := &deviceHandler{a: a}
	handler.OnSample("dev1", deviceapi.Sample{Buttons: 7})
	handler.OnDetached("dev1")

	snap := a.Snapshot()
	if snap[1].Buttons != 0 {
		t.Errorf("slot 1 buttons = %d after detach, want 0", snap[1].Buttons)
	}
}

type fakeFeed struct{}

func (fakeFeed) Subscribe(deviceapi.DeviceEventHandler) {}
