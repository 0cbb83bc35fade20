// Package telemetry is the concrete transport behind the driver
// station's telemetry fan-out: an enumerated set of events
// (state changes, status updates, errors) broadcast over a websocket
// to any number of subscribers.
//
// Adapted from the teacher's pkg/eventstream: same publish/subscribe/
// slow-consumer-eviction shape over coder/websocket, collapsed to the
// three event types this system needs.
package telemetry

import (
	"encoding/json"
)

// Publisher is implemented by anything that can push telemetry
// events; both Stream and NullStream satisfy it, so callers that
// don't care about a live websocket (tests, one-shot CLI commands)
// can use the null implementation.
type Publisher interface {
	PublishStateChanged(from, to string)
	PublishStatusUpdate(EventStatusUpdate)
	PublishError(err error)
}

// PublishStateChanged pushes a state transition into the stream.
func (s *Stream) PublishStateChanged(from, to string) {
	s.publishJSON(EventStateChanged{Type: EventTypeStateChanged, Session: s.session, From: from, To: to})
}

// PublishStatusUpdate pushes a fused telemetry snapshot into the
// stream. The Type and Session fields are set here so callers only
// fill in data.
func (s *Stream) PublishStatusUpdate(e EventStatusUpdate) {
	e.Type = EventTypeStatusUpdate
	e.Session = s.session
	s.publishJSON(e)
}

// PublishError pushes an error into the stream.
func (s *Stream) PublishError(err error) {
	s.publishJSON(EventError{Type: EventTypeError, Session: s.session, Error: err.Error()})
}

func (s *Stream) publishJSON(v interface{}) {
	bytes, err := json.Marshal(v)
	if err != nil {
		s.l.Warn("error marshaling telemetry event", "error", err)
		return
	}
	s.publish(bytes)
}
