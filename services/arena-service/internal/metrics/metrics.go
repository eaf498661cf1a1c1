package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "arena"

// View request outcomes.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
)

type Metrics struct {
	IngestMessages prometheus.Counter
	DecodeErrors   prometheus.Counter
	StreamErrors   prometheus.Counter
	PipelineState  prometheus.Gauge
	ViewRequests   *prometheus.CounterVec
}

// New registers the collectors on reg. cacheEntries is sampled on scrape.
func New(reg prometheus.Registerer, cacheEntries func() int) *Metrics {
	m := &Metrics{
		IngestMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_messages_total",
			Help:      "Arena documents decoded and stored.",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Arena documents rejected by the decoder.",
		}),
		StreamErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_errors_total",
			Help:      "Upstream subscription failures, each followed by a reconnect.",
		}),
		PipelineState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_state",
			Help:      "Ingestion state: 0 disconnected, 1 connecting, 2 subscribed.",
		}),
		ViewRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_requests_total",
			Help:      "Arena view requests by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.IngestMessages,
		m.DecodeErrors,
		m.StreamErrors,
		m.PipelineState,
		m.ViewRequests,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_entries",
			Help:      "Arena snapshots held in memory.",
		}, func() float64 { return float64(cacheEntries()) }),
	)

	return m
}

// Discard returns collectors that are not registered anywhere.
func Discard() *Metrics {
	return New(prometheus.NewRegistry(), func() int { return 0 })
}
