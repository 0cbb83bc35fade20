package telemetry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/hashicorp/go-hclog"
)

// This server implementation is adapted from the chat server example
// at https://github.com/coder/websocket/blob/master/internal/examples/chat/chat.go

// Stream binds all the components of the telemetry streaming server.
type Stream struct {
	l hclog.Logger

	session string

	maxUndelivered int

	subscribersMutex sync.Mutex
	subscribers      map[*subscriber]struct{}
}

// subscriber represents a subscriber. Messages are sent on the msgs
// channel; if the client cannot keep up, closeSlow is called.
type subscriber struct {
	msgs      chan []byte
	closeSlow func()
}

// Option configures a Stream.
type Option func(*Stream)

// WithLogger attaches a logger to the stream.
func WithLogger(l hclog.Logger) Option {
	return func(s *Stream) { s.l = l.Named("telemetry") }
}

// WithMaxUndelivered sets the per-subscriber outbound buffer depth
// before a slow consumer is evicted.
func WithMaxUndelivered(n int) Option {
	return func(s *Stream) { s.maxUndelivered = n }
}

// WithSession tags every event this stream publishes with a session
// identifier, correlating it with the log lines from the same
// connect-discover-run lifecycle.
func WithSession(id string) Option {
	return func(s *Stream) { s.session = id }
}

// New returns a Stream with no subscribers yet.
func New(opts ...Option) *Stream {
	s := &Stream{
		l:              hclog.NewNullLogger(),
		maxUndelivered: 16,
		subscribers:    make(map[*subscriber]struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler has the http.HandlerFunc signature so the stream can be
// mounted on any mux the CLI layer sets up.
func (s *Stream) Handler(w http.ResponseWriter, r *http.Request) {
	err := s.subscribe(w, r)
	if errors.Is(err, context.Canceled) {
		return
	}
	if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
		websocket.CloseStatus(err) == websocket.StatusGoingAway {
		return
	}
	if err != nil {
		s.l.Warn("error handling subscription request", "error", err)
	}
}

func (s *Stream) subscribe(w http.ResponseWriter, r *http.Request) error {
	var mu sync.Mutex
	var c *websocket.Conn
	var closed bool
	sub := &subscriber{
		msgs: make(chan []byte, s.maxUndelivered),
		closeSlow: func() {
			mu.Lock()
			defer mu.Unlock()
			closed = true
			if c != nil {
				c.Close(websocket.StatusPolicyViolation, "connection too slow to keep up with messages")
			}
		},
	}
	s.addSubscriber(sub)
	defer s.deleteSubscriber(sub)

	c2, err := websocket.Accept(w, r, nil)
	if err != nil {
		return err
	}
	mu.Lock()
	if closed {
		mu.Unlock()
		return net.ErrClosed
	}
	c = c2
	mu.Unlock()
	defer c.CloseNow()

	ctx := c.CloseRead(context.Background())

	for {
		select {
		case msg := <-sub.msgs:
			if err := writeTimeout(ctx, 5*time.Second, c, msg); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// publish sends msg to every subscriber without blocking; slow
// subscribers are evicted rather than allowed to stall the publisher.
func (s *Stream) publish(msg []byte) {
	s.subscribersMutex.Lock()
	defer s.subscribersMutex.Unlock()

	for sub := range s.subscribers {
		select {
		case sub.msgs <- msg:
		default:
			go sub.closeSlow()
		}
	}
}

func (s *Stream) addSubscriber(sub *subscriber) {
	s.subscribersMutex.Lock()
	s.subscribers[sub] = struct{}{}
	s.subscribersMutex.Unlock()
}

func (s *Stream) deleteSubscriber(sub *subscriber) {
	s.subscribersMutex.Lock()
	delete(s.subscribers, sub)
	s.subscribersMutex.Unlock()
}

func writeTimeout(ctx context.Context, timeout time.Duration, c *websocket.Conn, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.Write(ctx, websocket.MessageText, msg)
}
