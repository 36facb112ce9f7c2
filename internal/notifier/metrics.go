package notifier

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments a Notifier. It implements prometheus.Collector; a nil
// *Metrics records nothing.
type Metrics struct {
	publishTotal       *prometheus.CounterVec
	handlerInvocations *prometheus.CounterVec
	handlerErrors      *prometheus.CounterVec
	handlerDuration    *prometheus.HistogramVec
	trackedBags        prometheus.Gauge
	prunedBags         prometheus.Counter
}

// NewMetrics builds the collector. An empty namespace defaults to "bark".
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "bark"
	}
	return &Metrics{
		publishTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "notifier",
				Name:      "publish_total",
				Help:      "Total number of publish calls",
			},
			[]string{"name"},
		),
		handlerInvocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "notifier",
				Name:      "handler_invocations_total",
				Help:      "Total number of handler invocations that returned",
			},
			[]string{"name"},
		),
		handlerErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "notifier",
				Name:      "handler_errors_total",
				Help:      "Total number of handler invocations that returned an error",
			},
			[]string{"name"},
		),
		handlerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "notifier",
				Name:      "handler_duration_seconds",
				Help:      "Duration of handler invocations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"name"},
		),
		trackedBags: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "notifier",
			Name:      "tracked_bags",
			Help:      "Bags currently held in the tracking list",
		}),
		prunedBags: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifier",
			Name:      "pruned_bags_total",
			Help:      "Total number of dead tracking entries dropped",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.publishTotal, m.handlerInvocations, m.handlerErrors,
		m.handlerDuration, m.trackedBags, m.prunedBags,
	}
}

func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors() {
		c.Describe(ch)
	}
}

func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors() {
		c.Collect(ch)
	}
}

func (m *Metrics) observePublish(name Name) {
	if m == nil {
		return
	}
	m.publishTotal.WithLabelValues(name.String()).Inc()
}

func (m *Metrics) observeHandler(name Name, d time.Duration, err error) {
	if m == nil {
		return
	}
	label := name.String()
	m.handlerInvocations.WithLabelValues(label).Inc()
	m.handlerDuration.WithLabelValues(label).Observe(d.Seconds())
	if err != nil {
		m.handlerErrors.WithLabelValues(label).Inc()
	}
}

func (m *Metrics) setTracked(n int, pruned int) {
	if m == nil {
		return
	}
	m.trackedBags.Set(float64(n))
	if pruned > 0 {
		m.prunedBags.Add(float64(pruned))
	}
}
