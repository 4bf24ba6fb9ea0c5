package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline collectors. Each run owns its registry so
// tests and repeated runs never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	DocumentsProcessed *prometheus.CounterVec
	ClaimsProcessed    *prometheus.CounterVec
	TrustScore         prometheus.Histogram
	ExternalCalls      *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		DocumentsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "claimtrust_documents_processed_total",
				Help: "Documents analyzed, by classified document type",
			},
			[]string{"doc_type"},
		),
		ClaimsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "claimtrust_claims_processed_total",
				Help: "Claims reconciled, by record status",
			},
			[]string{"status"},
		),
		TrustScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "claimtrust_trust_score",
				Help:    "Distribution of per-claim trust scores",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		),
		ExternalCalls: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "claimtrust_external_call_duration_seconds",
				Help: "Duration of calls into the semantic index and narrative generator",
			},
			[]string{"service", "outcome"},
		),
	}
}

// ObserveCall records an external call duration
func (m *Metrics) ObserveCall(service string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.ExternalCalls.WithLabelValues(service, outcome).Observe(time.Since(start).Seconds())
}

// Document counts one analyzed document
func (m *Metrics) Document(docType string) {
	if m == nil {
		return
	}
	m.DocumentsProcessed.WithLabelValues(docType).Inc()
}

// Claim counts one reconciled claim and records its score
func (m *Metrics) Claim(status string, trustScore float64) {
	if m == nil {
		return
	}
	m.ClaimsProcessed.WithLabelValues(status).Inc()
	m.TrustScore.Observe(trustScore)
}

// Serve exposes /metrics on addr until ctx is cancelled
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
