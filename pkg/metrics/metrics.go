package metrics

import (
	"net/http"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// New returns an initialized instance of the metrics system, with
// every gauge registered against a fresh registry.
func New(opts ...Option) *Metrics {
	x := &Metrics{
		l: hclog.NewNullLogger(),
		r: prometheus.NewRegistry(),

		voltage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "dstation",
			Subsystem: "robot",
			Name:      "battery_voltage",
			Help:      "Robot battery voltage in volts, as reported in the most recent status frame.",
		}, []string{"team"}),

		latency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "dstation",
			Subsystem: "link",
			Name:      "latency_seconds",
			Help:      "Round-trip latency between control frame send and matching status frame receipt.",
		}, []string{"team"}),

		packetLoss: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "dstation",
			Subsystem: "link",
			Name:      "packet_loss_ratio",
			Help:      "Fraction of control frames unanswered over the trailing window.",
		}, []string{"team"}),

		watchdogOK: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "dstation",
			Subsystem: "link",
			Name:      "watchdog_ok",
			Help:      "1 if the link watchdog has been fed within its timeout, else 0.",
		}, []string{"team"}),

		enabled: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "dstation",
			Subsystem: "robot",
			Name:      "enabled",
			Help:      "1 if the robot is currently enabled, else 0.",
		}, []string{"team"}),

		decodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dstation",
			Subsystem: "link",
			Name:      "decode_errors_total",
			Help:      "Count of inbound status frames dropped for failing checksum or bounds validation.",
		}, []string{"team"}),

		transmitErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dstation",
			Subsystem: "link",
			Name:      "transmit_errors_total",
			Help:      "Count of outbound control frame writes that returned an error.",
		}, []string{"team"}),
	}

	x.r.MustRegister(x.voltage)
	x.r.MustRegister(x.latency)
	x.r.MustRegister(x.packetLoss)
	x.r.MustRegister(x.watchdogOK)
	x.r.MustRegister(x.enabled)
	x.r.MustRegister(x.decodeErrors)
	x.r.MustRegister(x.transmitErrors)

	for _, o := range opts {
		o(x)
	}

	return x
}

// Registry provides access to the registry that this instance
// manages, for embedding in an http.ServeMux elsewhere.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.r
}

// Handler returns the promhttp handler for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.r, promhttp.HandlerOpts{Registry: m.r})
}

// Update sets every gauge for team from one control-loop tick's
// derived values.
func (m *Metrics) Update(team string, voltage, latencySeconds, packetLossRatio float64, watchdogOK, enabled bool) {
	l := prometheus.Labels{"team": team}
	m.voltage.With(l).Set(voltage)
	m.latency.With(l).Set(latencySeconds)
	m.packetLoss.With(l).Set(packetLossRatio)
	m.watchdogOK.With(l).Set(boolToFloat(watchdogOK))
	m.enabled.With(l).Set(boolToFloat(enabled))
}

// IncDecodeError counts one dropped, malformed inbound status frame
// for team. Safe to call from the reader goroutine concurrently with
// Update running on the control loop's own goroutine.
func (m *Metrics) IncDecodeError(team string) {
	m.decodeErrors.With(prometheus.Labels{"team": team}).Inc()
}

// IncTransmitError counts one failed outbound control frame write for
// team.
func (m *Metrics) IncTransmitError(team string) {
	m.transmitErrors.With(prometheus.Labels{"team": team}).Inc()
}

// DeleteTeam removes every gauge/counter series for team, used when
// the driver station reconfigures onto a different team.
func (m *Metrics) DeleteTeam(team string) {
	l := prometheus.Labels{"team": team}
	m.voltage.Delete(l)
	m.latency.Delete(l)
	m.packetLoss.Delete(l)
	m.watchdogOK.Delete(l)
	m.enabled.Delete(l)
	m.decodeErrors.Delete(l)
	m.transmitErrors.Delete(l)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
