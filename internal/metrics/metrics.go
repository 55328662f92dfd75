package metrics

import (
	"net/http"
	"time"

	"github.com/mikey/llm-reply-generator/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const outcomeSuccess = "success"

// ReplyMetrics exposes counters/histograms for reply generation.
// It implements core.Observer.
type ReplyMetrics struct {
	repliesTotal      *prometheus.CounterVec
	generationLatency *prometheus.HistogramVec
}

// NewReplyMetrics registers the reply metrics with reg, or with the default
// registerer when reg is nil
func NewReplyMetrics(reg prometheus.Registerer) *ReplyMetrics {
	m := &ReplyMetrics{
		repliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reply_generator",
			Subsystem: "llm",
			Name:      "replies_total",
			Help:      "Total reply generations by provider and outcome",
		}, []string{"provider", "outcome"}),
		generationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "reply_generator",
			Subsystem: "llm",
			Name:      "generation_seconds",
			Help:      "Latency of reply generation including the LLM call",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		}, []string{"provider"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.repliesTotal, m.generationLatency)
	return m
}

// ObserveReply implements core.Observer
func (m *ReplyMetrics) ObserveReply(provider string, kind core.FailureKind, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := outcomeSuccess
	if kind != "" {
		outcome = string(kind)
	}
	m.repliesTotal.WithLabelValues(provider, outcome).Inc()
	m.generationLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// NewRegistry creates a registry carrying the Go runtime and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the metrics gathered by g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
