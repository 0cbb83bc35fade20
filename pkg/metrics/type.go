package metrics

import (
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics binds the registry and the gauges the control loop updates
// once a second from its watchdog tick.
type Metrics struct {
	l hclog.Logger

	r *prometheus.Registry

	voltage    *prometheus.GaugeVec
	latency    *prometheus.GaugeVec
	packetLoss *prometheus.GaugeVec
	watchdogOK *prometheus.GaugeVec
	enabled    *prometheus.GaugeVec

	decodeErrors   *prometheus.CounterVec
	transmitErrors *prometheus.CounterVec
}

// Option configures a Metrics instance.
type Option func(m *Metrics)
