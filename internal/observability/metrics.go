package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CatalogResyncs counts snapshot reloads by outcome ("ok" or "error").
	CatalogResyncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "estatehub_catalog_resyncs_total",
		Help: "Total number of catalog snapshot reloads by result",
	}, []string{"result"})

	// CatalogSnapshotSize is the number of listings in the current snapshot.
	CatalogSnapshotSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "estatehub_catalog_snapshot_size",
		Help: "Number of listings held in the catalog snapshot",
	})

	// CatalogResyncLatency records how long a full reload takes.
	CatalogResyncLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "estatehub_catalog_resync_latency_seconds",
		Help:    "Catalog reload latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// ChangeEventsReceived counts change notifications by table and kind.
	ChangeEventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "estatehub_change_events_received_total",
		Help: "Total change notifications received from the change feed",
	}, []string{"table", "kind"})

	// AnalyticsFallbacks counts counter increments kept locally after a remote failure.
	AnalyticsFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "estatehub_analytics_local_fallbacks_total",
		Help: "Counter increments retained locally because the remote increment failed",
	}, []string{"counter"})

	// RedisErrors counts Redis command errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "estatehub_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// ActiveWebSockets is the number of open catalog websocket connections.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "estatehub_websocket_connections",
		Help: "Number of active catalog websocket connections",
	})

	// WebSocketDrops counts catalog notices dropped by reason ("full" or "closed").
	WebSocketDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "estatehub_websocket_drops_total",
		Help: "Catalog notices dropped before reaching a websocket client",
	}, []string{"reason"})
)
