// Package metrics holds the Prometheus collectors for parsing, scanning and live alerting.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Scan outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	LinesParsed  prometheus.Counter
	LinesDropped prometheus.Counter
	Threats      *prometheus.CounterVec
	Scans        *prometheus.CounterVec
	HubDropped   prometheus.Counter
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		LinesParsed: f.NewCounter(prometheus.CounterOpts{
			Name: "cyberdetect_lines_parsed_total",
			Help: "Total number of log lines parsed into entries",
		}),
		LinesDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "cyberdetect_lines_dropped_total",
			Help: "Total number of log lines that did not match the access-log grammar",
		}),
		Threats: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cyberdetect_threats_total",
			Help: "Total number of flagged records by attack type",
		}, []string{"attack_type"}),
		Scans: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cyberdetect_scans_total",
			Help: "Total number of detector runs by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		HubDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "cyberdetect_hub_dropped_total",
			Help: "Total number of live alerts dropped for slow subscribers",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveParse records one parse pass.
func (m *Metrics) ObserveParse(parsed, dropped int) {
	if m == nil {
		return
	}
	m.LinesParsed.Add(float64(parsed))
	m.LinesDropped.Add(float64(dropped))
}

// ObserveScan records one detector run and the records it produced.
func (m *Metrics) ObserveScan(endpoint, attackType string, flagged int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.Scans.WithLabelValues(endpoint, OutcomeError).Inc()
		return
	}
	m.Scans.WithLabelValues(endpoint, OutcomeOK).Inc()
	if flagged > 0 {
		m.Threats.WithLabelValues(attackType).Add(float64(flagged))
	}
}

// ObserveHubDrop records one alert dropped by the hub.
func (m *Metrics) ObserveHubDrop() {
	if m == nil {
		return
	}
	m.HubDropped.Inc()
}
