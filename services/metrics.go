package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the transfer counters exposed on /metrics.
type Metrics struct {
	TransfersStarted   prometheus.Counter
	TransfersCompleted prometheus.Counter
	TransfersFailed    prometheus.Counter
	TracksMatched      prometheus.Counter
	TracksMissing      prometheus.Counter
}

// NewMetrics registers the transfer counters on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TransfersStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "crossfade",
			Name:      "transfers_started_total",
			Help:      "Number of transfer tasks started.",
		}),
		TransfersCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "crossfade",
			Name:      "transfers_completed_total",
			Help:      "Number of transfer tasks that completed successfully.",
		}),
		TransfersFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "crossfade",
			Name:      "transfers_failed_total",
			Help:      "Number of transfer tasks that ended in error.",
		}),
		TracksMatched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "crossfade",
			Name:      "tracks_matched_total",
			Help:      "Number of source tracks matched to a Spotify track.",
		}),
		TracksMissing: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "crossfade",
			Name:      "tracks_missing_total",
			Help:      "Number of source tracks with no acceptable Spotify match.",
		}),
	}
}
