package telemetry

// NullStream discards everything published to it. controlloop.New
// uses it as the Publisher when no telemetry stream is supplied.
type NullStream struct{}

// NewNullStream returns a Publisher that discards all events.
func NewNullStream() *NullStream {
	return new(NullStream)
}

// PublishStateChanged discards the event.
func (NullStream) PublishStateChanged(_, _ string) {}

// PublishStatusUpdate discards the event.
func (NullStream) PublishStatusUpdate(_ EventStatusUpdate) {}

// PublishError discards the event.
func (NullStream) PublishError(_ error) {}
