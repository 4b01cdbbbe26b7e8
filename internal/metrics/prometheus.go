// Package metrics exposes Prometheus instrumentation for the dashboard.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Analysis metrics
	PostsIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coinwhisperer_posts_ingested_total",
			Help: "Total number of posts stored by analysis runs",
		},
	)

	DuplicatePostsSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coinwhisperer_duplicate_posts_skipped_total",
			Help: "Total number of fetched posts skipped as already seen",
		},
	)

	TradesCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinwhisperer_trades_created_total",
			Help: "Total number of simulated trades",
		},
		[]string{"type"}, // type: BUY|SELL
	)

	AnalysisRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinwhisperer_analysis_runs_total",
			Help: "Total number of analysis runs",
		},
		[]string{"status"}, // status: success|error
	)

	AnalysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "coinwhisperer_analysis_duration_seconds",
			Help:    "Analysis run duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30},
		},
	)

	// HTTP metrics
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coinwhisperer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "path", "status"},
	)

	// Realtime metrics
	WebSocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "coinwhisperer_websocket_clients",
			Help: "Current number of connected WebSocket clients",
		},
	)

	EventsBroadcast = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinwhisperer_events_broadcast_total",
			Help: "Total number of events pushed to clients",
		},
		[]string{"type"},
	)
)

// Init registers all metrics with Prometheus
func Init() {
	prometheus.MustRegister(PostsIngested)
	prometheus.MustRegister(DuplicatePostsSkipped)
	prometheus.MustRegister(TradesCreated)
	prometheus.MustRegister(AnalysisRuns)
	prometheus.MustRegister(AnalysisDuration)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(WebSocketClients)
	prometheus.MustRegister(EventsBroadcast)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAnalysisRun records the outcome of one analysis run
func RecordAnalysisRun(duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	AnalysisRuns.WithLabelValues(status).Inc()
	AnalysisDuration.Observe(duration.Seconds())
}

// RecordTrade records a simulated trade
func RecordTrade(tradeType string) {
	TradesCreated.WithLabelValues(tradeType).Inc()
}
