// Package metrics defines the Prometheus collectors for the viewer's poller
// and the reference backend. Collectors are registered on a caller-supplied
// registry; every method is safe on a nil receiver so metrics stay optional.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch and command outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeDropped = "dropped" // completed after a start/reset superseded it
	OutcomeSkipped = "skipped" // cadence due but in-flight cap reached
)

// Poller instruments the snapshot poller.
type Poller struct {
	fetches  *prometheus.CounterVec
	latency  prometheus.Histogram
	inFlight prometheus.Gauge
	commands *prometheus.CounterVec
}

// NewPoller creates poller collectors and registers them on reg when reg is non-nil.
func NewPoller(reg prometheus.Registerer) *Poller {
	m := &Poller{
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orbitview_snapshot_fetches_total",
				Help: "Snapshot fetches by outcome",
			},
			[]string{"outcome"},
		),
		latency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "orbitview_snapshot_fetch_seconds",
				Help:    "Time from issuing a snapshot fetch to its completion",
				Buckets: prometheus.ExponentialBuckets(0.002, 2, 12),
			},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "orbitview_snapshot_fetches_in_flight",
				Help: "Snapshot fetches currently awaiting a response",
			},
		),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orbitview_commands_total",
				Help: "Discrete commands sent to the backend by kind and outcome",
			},
			[]string{"command", "outcome"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.fetches, m.latency, m.inFlight, m.commands)
	}
	return m
}

// FetchStarted marks one more fetch in flight.
func (m *Poller) FetchStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

// FetchDone records a finished fetch.
func (m *Poller) FetchDone(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.fetches.WithLabelValues(outcome).Inc()
	m.latency.Observe(d.Seconds())
}

// FetchSkipped records a cadence slot lost to the in-flight cap.
func (m *Poller) FetchSkipped() {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(OutcomeSkipped).Inc()
}

// Command records a discrete command result.
func (m *Poller) Command(command, outcome string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, outcome).Inc()
}

// Server instruments the reference backend.
type Server struct {
	requests      *prometheus.CounterVec
	steps         prometheus.Counter
	streamClients prometheus.Gauge
}

// NewServer creates backend collectors and registers them on reg when reg is non-nil.
func NewServer(reg prometheus.Registerer) *Server {
	m := &Server{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orbitd_requests_total",
				Help: "HTTP requests by endpoint and status code",
			},
			[]string{"endpoint", "code"},
		),
		steps: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "orbitd_physics_steps_total",
				Help: "Physics integration steps taken",
			},
		),
		streamClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "orbitd_stream_clients",
				Help: "Connected WebSocket snapshot streams",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.steps, m.streamClients)
	}
	return m
}

// Request records one handled request.
func (m *Server) Request(endpoint string, code int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(endpoint, http.StatusText(code)).Inc()
}

// Step records one physics step.
func (m *Server) Step() {
	if m == nil {
		return
	}
	m.steps.Inc()
}

// StreamOpened and StreamClosed track live WebSocket streams.
func (m *Server) StreamOpened() {
	if m == nil {
		return
	}
	m.streamClients.Inc()
}

func (m *Server) StreamClosed() {
	if m == nil {
		return
	}
	m.streamClients.Dec()
}

// Handler serves the metrics in reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
