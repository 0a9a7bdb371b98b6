// Package metrics exposes application Prometheus collectors and the /metrics handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	// TransfersTotal counts transfer outcomes by status (completed, rejected).
	TransfersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flashpay",
			Subsystem: "ledger",
			Name:      "transfers_total",
			Help:      "Total number of transfer requests by outcome.",
		},
		[]string{"status"},
	)

	// TokensIssued counts issued tokens by kind (access, refresh).
	TokensIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flashpay",
			Subsystem: "auth",
			Name:      "tokens_issued_total",
			Help:      "Total number of tokens issued by kind.",
		},
		[]string{"kind"},
	)

	// TokensSwept counts refresh tokens deleted by the sweep, by reason
	// (expired, revoked).
	TokensSwept = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flashpay",
			Subsystem: "auth",
			Name:      "tokens_swept_total",
			Help:      "Total number of refresh tokens deleted by the sweep.",
		},
		[]string{"reason"},
	)
)

func init() {
	Registry.MustRegister(
		TransfersTotal,
		TokensIssued,
		TokensSwept,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler returns the HTTP handler serving the registry, for a standalone
// metrics listener.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
