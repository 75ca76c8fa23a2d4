// Package metrics exposes Prometheus collectors for sync, linking and enrichment work.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// syncedItemsTotal counts upserted source records by entity and outcome.
	syncedItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lineup_synced_items_total",
		Help: "Source records upserted, by entity (artist|event) and result (created|updated|failed)",
	}, []string{"entity", "result"})

	// phaseDuration measures comprehensive sync phase durations.
	phaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lineup_sync_phase_duration_seconds",
		Help:    "Duration of comprehensive sync phases in seconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"phase", "status"})

	// linksCreatedTotal counts artist/event links written, by source.
	linksCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lineup_links_created_total",
		Help: "Artist/event links created, by source",
	}, []string{"source"})

	// lineupsParsedTotal counts event detail pages parsed.
	lineupsParsedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lineup_lineups_parsed_total",
		Help: "Event detail pages parsed for lineups, by result (found|empty|error)",
	}, []string{"result"})

	// enrichmentsTotal counts enrichment attempts by result.
	enrichmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lineup_enrichments_total",
		Help: "Artist enrichment attempts, by result (success|not_found|rate_limited|skipped|error)",
	}, []string{"result"})

	// spotifyRequestsTotal counts Spotify API responses by endpoint and status code.
	spotifyRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lineup_spotify_requests_total",
		Help: "Spotify API requests, by endpoint and status code",
	}, []string{"endpoint", "code"})

	// spotifyRequestDuration measures Spotify API latency.
	spotifyRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lineup_spotify_request_duration_seconds",
		Help:    "Spotify API request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	// activeSessions is the number of progress sessions held in memory.
	activeSessions = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "lineup_active_sessions",
		Help: "Progress sessions currently held in memory, by kind",
	}, []string{"kind"})

	// breakerState mirrors the detail-page circuit breaker (0 closed, 1 half-open, 2 open).
	breakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lineup_source_breaker_state",
		Help: "Festival detail page circuit breaker state (0 closed, 1 half-open, 2 open)",
	})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lineup_http_requests_total",
		Help: "HTTP API requests by route pattern and status code",
	}, []string{"route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lineup_http_request_duration_seconds",
		Help:    "HTTP API request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

// RecordSyncedItem records one upserted source record.
func RecordSyncedItem(entity, result string) {
	syncedItemsTotal.WithLabelValues(entity, result).Inc()
}

// ObservePhase records how long a sync phase ran.
func ObservePhase(phase, status string, d time.Duration) {
	phaseDuration.WithLabelValues(phase, status).Observe(d.Seconds())
}

// RecordLinkCreated records a new artist/event link.
func RecordLinkCreated(source string) {
	linksCreatedTotal.WithLabelValues(source).Inc()
}

// RecordLineupParsed records a detail page parse result.
func RecordLineupParsed(result string) {
	lineupsParsedTotal.WithLabelValues(result).Inc()
}

// RecordEnrichment records an enrichment attempt result.
func RecordEnrichment(result string) {
	enrichmentsTotal.WithLabelValues(result).Inc()
}

// ObserveSpotifyRequest records a Spotify response. A status of 0 means a transport error.
func ObserveSpotifyRequest(endpoint string, status int, d time.Duration) {
	spotifyRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	spotifyRequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// SetActiveSessions sets the number of in-memory sessions of a kind.
func SetActiveSessions(kind string, n int) {
	activeSessions.WithLabelValues(kind).Set(float64(n))
}

// SetBreakerState records the detail-page breaker state.
func SetBreakerState(state int) {
	breakerState.Set(float64(state))
}

// ObserveHTTPRequest records a served API request. route is the mux pattern, not the raw path.
func ObserveHTTPRequest(route string, status int, d time.Duration) {
	httpRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
