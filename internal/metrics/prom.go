package metrics

import (
	"net/http"
	"strconv"
	"time"

	"ecochef/internal/shared"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exposes Prometheus metrics for generations and HTTP traffic.
type Collector struct {
	registry *prometheus.Registry

	generations        *prometheus.CounterVec
	generationDuration prometheus.Histogram
	tokens             *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	busyRejections     prometheus.Counter
}

// NewCollector registers all metrics on a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Collector{
		registry: reg,
		generations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ecochef_generations_total",
			Help: "Plan generations by outcome.",
		}, []string{"outcome"}),
		generationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "ecochef_generation_duration_seconds",
			Help:    "Time spent waiting for the model.",
			Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 90},
		}),
		tokens: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ecochef_llm_tokens_total",
			Help: "Tokens consumed by model calls.",
		}, []string{"model", "kind"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ecochef_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ecochef_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		busyRejections: f.NewCounter(prometheus.CounterOpts{
			Name: "ecochef_busy_rejections_total",
			Help: "Generations refused because one was already running for the session.",
		}),
	}
}

// ObserveGeneration records one generation attempt.
func (c *Collector) ObserveGeneration(meta shared.AgentMeta, outcome string) {
	c.generations.WithLabelValues(outcome).Inc()
	if meta.Latency > 0 {
		c.generationDuration.Observe(meta.Latency.Seconds())
	}
	if !meta.Empty() {
		model := meta.Usage.Model
		c.tokens.WithLabelValues(model, "prompt").Add(float64(meta.Usage.PromptTokens))
		c.tokens.WithLabelValues(model, "completion").Add(float64(meta.Usage.CompletionTokens))
	}
}

// ObserveBusy counts a refused concurrent generation.
func (c *Collector) ObserveBusy() {
	c.busyRejections.Inc()
}

// ObserveHTTP records one served request.
func (c *Collector) ObserveHTTP(method, route string, status int, d time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry gives tests access to gathered values.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
