package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Fetch engine metrics
	FetchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reklami_fetch_requests_total",
			Help: "Total number of HTTP attempts made by the fetch engine",
		},
		[]string{"host", "method", "outcome"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reklami_fetch_duration_seconds",
			Help:    "Duration of single HTTP attempts in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"host"},
	)

	FetchAbandonedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reklami_fetch_abandoned_total",
			Help: "URLs given up on after exhausting retries",
		},
		[]string{"host"},
	)

	// Pipeline metrics
	AdsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reklami_ads_processed_total",
			Help: "Ad summaries seen by the page processor, by outcome",
		},
		[]string{"source", "outcome"},
	)

	AdsPersistedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reklami_ads_persisted_total",
			Help: "Ads handed to the sink, by result",
		},
		[]string{"source", "result"},
	)

	BatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reklami_batch_duration_seconds",
			Help:    "Duration of one fetch-process-persist batch in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"source"},
	)

	AdsPrunedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reklami_ads_pruned_total",
			Help: "Stored ads deleted because their link is gone",
		},
	)

	PublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reklami_published_total",
			Help: "Ads published to the downstream stream",
		},
		[]string{"source", "status"},
	)

	ApplicationInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reklami_application_info",
			Help: "Application information",
		},
		[]string{"environment", "sources"},
	)
)

// Init records static application labels
func Init(environment, sources string) {
	ApplicationInfo.WithLabelValues(environment, sources).Set(1)
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
