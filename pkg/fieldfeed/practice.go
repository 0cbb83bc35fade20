package fieldfeed

import (
	"github.com/hashicorp/go-hclog"
	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/listeners"
)

// Practice embeds a local mochi-mqtt broker so a standalone driver
// station can exercise the MQTT transport path (e.g. from a second
// process feeding practice-match directives) without any external
// field-management system. Grounded in the teacher's
// mqttserver.Server/doLocalBroker: same InlineClient server plus TCP
// listener, minus the ACL/auth hook machinery a single-robot practice
// broker has no use for.
type Practice struct {
	l hclog.Logger
	s *mochi.Server

	mqttFeed *MQTT
}

// NewPractice starts an embedded broker bound to bind (e.g.
// "127.0.0.1:1883") and returns a Feed subscribed to it, so the
// driver station itself is just another client of its own practice
// broker.
func NewPractice(bind string, team int, l hclog.Logger) (*Practice, error) {
	if l == nil {
		l = hclog.NewNullLogger()
	}
	l = l.Named("fieldfeed-practice")

	srv := mochi.New(&mochi.Options{InlineClient: true})
	if err := srv.AddHook(new(mochi.HookBase), nil); err != nil {
		return nil, err
	}

	ln := listeners.NewTCP(listeners.Config{ID: "practice", Address: bind})
	if err := srv.AddListener(ln); err != nil {
		return nil, err
	}

	go func() {
		if err := srv.Serve(); err != nil {
			l.Error("practice broker stopped", "error", err)
		}
	}()

	feed, err := DialMQTT("mqtt://"+bind, team, l)
	if err != nil {
		srv.Close()
		return nil, err
	}

	return &Practice{l: l, s: srv, mqttFeed: feed}, nil
}

// Directives returns the channel of directives received from the
// embedded broker.
func (p *Practice) Directives() <-chan Directive { return p.mqttFeed.Directives() }

// Close shuts down the MQTT client and the embedded broker.
func (p *Practice) Close() error {
	p.mqttFeed.Close()
	return p.s.Close()
}
