// Package metrics exposes pipeline counters over Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cyberguard/internal/logger"
	"cyberguard/pkg/models"
)

var (
	ingestedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cyberguard",
		Name:      "threats_ingested_total",
		Help:      "Threats ingested, by severity tier.",
	}, []string{"severity"})

	storeDegraded = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cyberguard",
		Name:      "store_degraded",
		Help:      "1 when the store is running on the in-memory fallback.",
	})

	commitFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cyberguard",
		Name:      "store_commit_failures_total",
		Help:      "Durable-store commit failures absorbed by the fallback.",
	})

	hubDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cyberguard",
		Name:      "hub_dropped_messages_total",
		Help:      "Broadcast messages dropped on full subscriber queues.",
	})

	alertsDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cyberguard",
		Name:      "alerts_dispatched_total",
		Help:      "Alert notifications handed to the transport.",
	})

	alertFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cyberguard",
		Name:      "alert_failures_total",
		Help:      "Alert notifications the transport failed to deliver.",
	})

	alertsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cyberguard",
		Name:      "alerts_skipped_total",
		Help:      "Alert submissions skipped by policy or missing configuration.",
	})
)

// ObserveIngest records one ingested threat.
func ObserveIngest(sev models.Severity) {
	ingestedTotal.WithLabelValues(string(sev)).Inc()
}

// SetDegraded flips the store-degraded gauge.
func SetDegraded(degraded bool) {
	if degraded {
		storeDegraded.Set(1)
		return
	}
	storeDegraded.Set(0)
}

// CommitFailure records a durable-store commit failure.
func CommitFailure() { commitFailures.Inc() }

// HubDrop records a dropped broadcast message.
func HubDrop() { hubDropped.Inc() }

// AlertDispatched records an alert handed to the transport.
func AlertDispatched() { alertsDispatched.Inc() }

// AlertFailed records a transport delivery failure.
func AlertFailed() { alertFailures.Inc() }

// AlertSkipped records a skipped alert submission.
func AlertSkipped() { alertsSkipped.Inc() }

// Serve exposes /metrics on addr. It returns once the listener stops.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Errorf("Metrics listener stopped: %v", err)
	}
}
