package pipeline

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Avatar outcomes recorded by Metrics.
const (
	OutcomeAccepted  = "accepted"
	OutcomeAutomatic = "automatic"
	OutcomeFailed    = "failed"
)

// Metrics holds the pipeline's Prometheus collectors.
type Metrics struct {
	Avatars     *prometheus.CounterVec
	CacheLookup *prometheus.CounterVec
	Detect      prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Avatars: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "avatar_mosaic_avatars_total",
				Help: "Avatars processed, by outcome",
			},
			[]string{"outcome"},
		),
		CacheLookup: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "avatar_mosaic_cache_lookups_total",
				Help: "Avatar cache lookups, by result",
			},
			[]string{"result"},
		),
		Detect: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "avatar_mosaic_detect_seconds",
				Help:    "Time spent deciding whether an avatar is a generated placeholder",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
	}
	reg.MustRegister(m.Avatars, m.CacheLookup, m.Detect)
	return m
}

func (m *Metrics) avatar(outcome string) {
	if m != nil {
		m.Avatars.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) cache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookup.WithLabelValues(result).Inc()
}

func (m *Metrics) detect(seconds float64) {
	if m != nil {
		m.Detect.Observe(seconds)
	}
}

// MetricsHandler serves /metrics from g and a trivial /healthz.
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}
