package feeds

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	feedQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unionfeed_feed_queries_total",
		Help: "The total number of feed operations executed, by operation",
	}, []string{"op"})

	feedQueryErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unionfeed_feed_query_errors_total",
		Help: "The total number of feed operations that failed, by operation",
	}, []string{"op"})

	feedQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "unionfeed_feed_query_duration_seconds",
		Help:    "Duration of feed operations including record reloads",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
	}, []string{"op"})

	feedIntegrityErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unionfeed_feed_integrity_errors_total",
		Help: "Rows returned by a combined query whose record was gone on reload",
	})
)

// track records one operation. Call the returned func with the operation's error.
func track(op string) func(err error) {
	start := time.Now()
	return func(err error) {
		feedQueries.WithLabelValues(op).Inc()
		feedQueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		if err != nil {
			feedQueryErrors.WithLabelValues(op).Inc()
		}
	}
}
