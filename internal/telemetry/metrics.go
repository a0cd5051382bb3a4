// Package telemetry provides application-level observability for the talentTree directory.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and are served by the
// side-channel HTTP server started by `server serve`:
//
//	GET http://<host>:<TT_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090. The endpoint is not served by the Gin router.
//
// # Metric Groups
//
//   - HTTP request counters and latency histograms (labelled by route template, not raw URL)
//   - Contact map render latency and per-cell lookup counters
//   - Invitation and redemption outcome counters
//   - Outbound email counters
//   - Database connection pool gauge (polled every 30 s)
//
// # Label Cardinality
//
// HTTP metrics use c.FullPath() (route template such as /api/v1/organizations/:org_id/maps/:id)
// rather than the raw request URL, so organization and record ids never become label values.
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics, labelled by method, route template and status code.
//
// Example PromQL queries:
//   - Request rate (req/s, 5 m window):  rate(http_requests_total[5m])
//   - Error rate (%):                    sum(rate(http_requests_total{status=~"5.."}[5m])) / sum(rate(http_requests_total[5m])) * 100
//   - p99 latency per route:             histogram_quantile(0.99, sum by (path, le) (rate(http_request_duration_seconds_bucket[5m])))
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Contact map metrics, recorded by the map engine on every render.
//
// A map render issues one point query per (company, function) cell, so
// contact_map_cell_lookups_total / contact_map_render_duration_seconds_count is the average
// grid size.
//
// Example PromQL queries:
//   - p95 render time:       histogram_quantile(0.95, rate(contact_map_render_duration_seconds_bucket[15m]))
//   - Vacancy ratio:         rate(contact_map_cell_lookups_total{result="vacant"}[1h]) / rate(contact_map_cell_lookups_total[1h])
var (
	ContactMapRenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "contact_map_render_duration_seconds",
			Help:    "Duration of a full contact map render, including every cell lookup.",
			Buckets: prometheus.DefBuckets,
		},
	)

	ContactMapCellLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_map_cell_lookups_total",
			Help: "Total number of contact map cell lookups, by result (occupied or vacant).",
		},
		[]string{"result"},
	)
)

// Invitation lifecycle metrics.
//
// InvitationsTotal outcomes: sent, already_registered, invalid_email, delivery_failed, error.
// InvitationRedemptionsTotal outcomes: redeemed, invalid, expired, error.
var (
	InvitationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invitations_total",
			Help: "Total number of invitation attempts, by outcome.",
		},
		[]string{"outcome"},
	)

	InvitationRedemptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invitation_redemptions_total",
			Help: "Total number of invitation token redemptions, by outcome.",
		},
		[]string{"outcome"},
	)
)

// EmailsSentTotal counts outbound mail by kind (invitation, confirmation) and status
// (sent, error). A rising error series points at the SMTP relay.
var EmailsSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "emails_sent_total",
		Help: "Total number of outbound emails, by kind and delivery status.",
	},
	[]string{"kind", "status"},
)

// ExpiredInvitationsSweptTotal counts pending invitations removed by the sweeper job.
var ExpiredInvitationsSweptTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "expired_invitations_swept_total",
		Help: "Total number of expired pending invitations deleted by the background sweeper.",
	},
)

// DBOpenConnections is a Gauge that tracks the number of open connections currently
// held by the sql.DB connection pool. It is sampled every 30 seconds by
// StartDBStatsCollector rather than per-request to avoid the overhead of sql.DB.Stats().
//
// Example PromQL queries:
//   - Pool utilisation (%): db_open_connections / <TT_DATABASE_MAX_CONNECTIONS> * 100
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector launches a background goroutine that samples sql.DB connection
// pool statistics every 30 seconds and updates the DBOpenConnections gauge.
// The goroutine exits once the database becomes unreachable, which happens when the
// application shuts down and closes the pool.
func StartDBStatsCollector(db *sql.DB) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := db.Ping(); err != nil {
				slog.Warn("db stats collector: database unreachable, stopping collector", "error", err)
				return
			}
			DBOpenConnections.Set(float64(db.Stats().OpenConnections))
		}
	}()
}
