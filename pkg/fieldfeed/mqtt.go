package fieldfeed

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/hashicorp/go-hclog"
)

// wireDirective is the JSON shape published on field/<team>/directive.
type wireDirective struct {
	Enabled     bool
	Mode        string
	MatchNumber int
	MatchType   string
}

// MQTT subscribes to field/<team>/directive on a broker and republishes
// each message as a Directive. Grounded directly in the teacher's
// connectMQTT (client options builder) and cfgCallback (subscribe
// callback shape), including the same backoff-guarded Subscribe.
type MQTT struct {
	l    hclog.Logger
	team int
	c    mqtt.Client
	ch   chan Directive
}

// DialMQTT connects to broker and subscribes to this team's directive
// topic. broker is a full URL, e.g. "mqtt://10.2.54.5:1883".
func DialMQTT(broker string, team int, l hclog.Logger) (*MQTT, error) {
	if l == nil {
		l = hclog.NewNullLogger()
	}
	m := &MQTT{l: l.Named("fieldfeed-mqtt"), team: team, ch: make(chan Directive, 8)}

	copts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetAutoReconnect(true).
		SetClientID(fmt.Sprintf("dstation-%d", team)).
		SetConnectRetry(true).
		SetConnectTimeout(time.Second).
		SetConnectRetryInterval(time.Second)
	m.c = mqtt.NewClient(copts)

	if tok := m.c.Connect(); tok.Wait() && tok.Error() != nil {
		m.l.Error("error connecting to field broker", "error", tok.Error())
		return nil, tok.Error()
	}
	m.l.Info("connected to field broker", "broker", broker)

	topic := fmt.Sprintf("field/%d/directive", team)
	subFunc := func() error {
		if tok := m.c.Subscribe(topic, 1, m.onMessage); tok.Wait() && tok.Error() != nil {
			m.l.Warn("error subscribing to directive topic", "error", tok.Error())
			return tok.Error()
		}
		return nil
	}
	if err := backoff.Retry(subFunc, backoff.NewExponentialBackOff()); err != nil {
		m.l.Error("permanent error subscribing to directive topic", "error", err)
		m.c.Disconnect(250)
		return nil, err
	}

	m.ch <- Directive{Attached: true}
	return m, nil
}

func (m *MQTT) onMessage(_ mqtt.Client, msg mqtt.Message) {
	var w wireDirective
	if err := json.Unmarshal(msg.Payload(), &w); err != nil {
		m.l.Warn("bad directive payload", "error", err)
		return
	}
	m.ch <- Directive{
		Attached:    true,
		Enabled:     w.Enabled,
		Mode:        Mode(w.Mode),
		MatchNumber: w.MatchNumber,
		MatchType:   w.MatchType,
	}
}

// Directives returns the channel of received directives.
func (m *MQTT) Directives() <-chan Directive { return m.ch }

// Close disconnects from the broker.
func (m *MQTT) Close() error {
	m.c.Disconnect(250)
	close(m.ch)
	return nil
}
