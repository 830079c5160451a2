package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kits"

// Metrics holds the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	planDuration         prometheus.Histogram
	planOutcomes         *prometheus.CounterVec
	shortages            prometheus.Counter
	completionTransition *prometheus.CounterVec
	locationSyncFailures prometheus.Counter
	feedPublishFailures  prometheus.Counter
	watchers             prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		planDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_duration_seconds",
			Help:      "Time spent computing a transfer plan, including snapshot fetch.",
			Buckets:   prometheus.DefBuckets,
		}),
		planOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_moves_total",
			Help:      "Planned moves by outcome.",
		}, []string{"outcome"}),
		shortages: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shortages_detected_total",
			Help:      "Shortages reported by shortage computations.",
		}),
		completionTransition: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_transitions_total",
			Help:      "Completion tracker transitions by operation and result.",
		}, []string{"operation", "result"}),
		locationSyncFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "location_sync_failures_total",
			Help:      "Deliveries saved whose kit location update failed.",
		}),
		feedPublishFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_publish_failures_total",
			Help:      "Change feed events that could not be published.",
		}),
		watchers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "completion_watchers",
			Help:      "Connected completion stream watchers.",
		}),
	}
}

func (m *Metrics) ObservePlan(d time.Duration, suggested, missed, unfulfilled int) {
	if m == nil {
		return
	}
	m.planDuration.Observe(d.Seconds())
	m.planOutcomes.WithLabelValues("suggested").Add(float64(suggested))
	m.planOutcomes.WithLabelValues("missed").Add(float64(missed))
	m.planOutcomes.WithLabelValues("unfulfilled").Add(float64(unfulfilled))
}

func (m *Metrics) ObserveShortages(n int) {
	if m == nil {
		return
	}
	m.shortages.Add(float64(n))
}

// ObserveTransition records one completion operation; result is "ok", "rejected" or "error".
func (m *Metrics) ObserveTransition(operation, result string) {
	if m == nil {
		return
	}
	m.completionTransition.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) LocationSyncFailed() {
	if m == nil {
		return
	}
	m.locationSyncFailures.Inc()
}

func (m *Metrics) FeedPublishFailed() {
	if m == nil {
		return
	}
	m.feedPublishFailures.Inc()
}

func (m *Metrics) WatcherAdded() {
	if m == nil {
		return
	}
	m.watchers.Inc()
}

func (m *Metrics) WatcherRemoved() {
	if m == nil {
		return
	}
	m.watchers.Dec()
}
