package catbox

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics mirrors the same counts Stats() computes as Prometheus gauges, for
// the optional side listener (SPEC_FULL.md Domain Stack). It never reads or
// mutates World itself — Observe is called from the LUSERS handler with
// an already-computed Snapshot, so the metrics listener adds no extra read
// traffic against the reactor's single-threaded state.
type Metrics struct {
	registry  *prometheus.Registry
	users     prometheus.Gauge
	invisible prometheus.Gauge
	opers     prometheus.Gauge
	channels  prometheus.Gauge
	servers   prometheus.Gauge
	unknown   prometheus.Gauge
}

// NewMetrics builds a fresh metrics registry with the gauges registered.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry:  reg,
		users:     prometheus.NewGauge(prometheus.GaugeOpts{Name: "catboxd_users"}),
		invisible: prometheus.NewGauge(prometheus.GaugeOpts{Name: "catboxd_invisible_users"}),
		opers:     prometheus.NewGauge(prometheus.GaugeOpts{Name: "catboxd_opers"}),
		channels:  prometheus.NewGauge(prometheus.GaugeOpts{Name: "catboxd_channels"}),
		servers:   prometheus.NewGauge(prometheus.GaugeOpts{Name: "catboxd_servers"}),
		unknown:   prometheus.NewGauge(prometheus.GaugeOpts{Name: "catboxd_unknown_connections"}),
	}
	reg.MustRegister(m.users, m.invisible, m.opers, m.channels, m.servers, m.unknown)
	return m
}

// Observe records a Snapshot taken from Stats().
func (m *Metrics) Observe(snap Snapshot) {
	m.users.Set(float64(snap.Users))
	m.invisible.Set(float64(snap.Invisible))
	m.opers.Set(float64(snap.Opers))
	m.channels.Set(float64(snap.Channels))
	m.servers.Set(float64(snap.Servers))
	m.unknown.Set(float64(snap.Unknown))
}

// Handler returns the HTTP handler for the /metrics exposition endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
