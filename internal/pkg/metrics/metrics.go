package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mediaCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "practicelog",
		Subsystem: "media_cache",
		Name:      "lookups_total",
		Help:      "Media cache lookups by result (hit, miss, stale).",
	}, []string{"result"})

	mediaWalks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "practicelog",
		Subsystem: "media",
		Name:      "walks_total",
		Help:      "Content tree walks by outcome.",
	}, []string{"outcome"})

	mediaWalkItems = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "practicelog",
		Subsystem: "media",
		Name:      "walk_items",
		Help:      "Media URLs found per completed walk.",
		Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
	})

	associationTiers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "practicelog",
		Subsystem: "association",
		Name:      "tier_total",
		Help:      "Association strategy used to answer a member's submission listing.",
	}, []string{"tier"})

	providerRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "practicelog",
		Subsystem: "provider",
		Name:      "request_duration_seconds",
		Help:      "Provider request latency by operation and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "status"})
)

// CacheLookup records a media cache lookup result
func CacheLookup(result string) {
	mediaCacheLookups.WithLabelValues(result).Inc()
}

// MediaWalk records a finished walk
func MediaWalk(outcome string, items int) {
	mediaWalks.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		mediaWalkItems.Observe(float64(items))
	}
}

// AssociationTier records which association tier produced a listing
func AssociationTier(tier string) {
	associationTiers.WithLabelValues(tier).Inc()
}

// ObserveProviderRequest records one provider HTTP round trip
func ObserveProviderRequest(operation, status string, elapsed time.Duration) {
	providerRequests.WithLabelValues(operation, status).Observe(elapsed.Seconds())
}
