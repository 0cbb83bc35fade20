package fieldfeed

// Null is used when no field-control feed is available (no broker
// configured and no practice broker, or the broker could not be
// reached): it never attaches, so fusion never sees a field directive.
type Null struct {
	ch chan Directive
}

// NewNull returns a Feed that emits a single "not attached" directive
// and then stays silent.
func NewNull() *Null {
	n := &Null{ch: make(chan Directive, 1)}
	n.ch <- Directive{Attached: false}
	return n
}

// Directives returns the channel that carries the initial
// not-attached directive.
func (n *Null) Directives() <-chan Directive { return n.ch }

// Close is a no-op.
func (n *Null) Close() error { return nil }
