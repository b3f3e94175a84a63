package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sealdesk/sealdesk/internal/domain"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	PaymentsPersisted *prometheus.CounterVec
	PaymentsFailed    *prometheus.CounterVec
	CycleDuration     prometheus.Histogram
	QueueDepth        prometheus.Gauge
	RemindersSent     *prometheus.CounterVec
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PaymentsPersisted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payments_persisted_total",
			Help: "Total number of payment records written by the batch processor.",
		}, []string{"kind"}),

		PaymentsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payments_failed_total",
			Help: "Total number of payment records that failed to persist.",
		}, []string{"kind"}),

		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "payment_cycle_seconds",
			Help:    "Wall-clock duration of one batch processing cycle.",
			Buckets: prometheus.DefBuckets,
		}),

		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "payment_queue_depth",
			Help: "Current number of payments waiting in the in-memory queue.",
		}),

		RemindersSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reminders_sent_total",
			Help: "Total number of reminder emails sent, by stage.",
		}, []string{"stage"}),
	}

	reg.MustRegister(
		m.PaymentsPersisted,
		m.PaymentsFailed,
		m.CycleDuration,
		m.QueueDepth,
		m.RemindersSent,
	)

	return m
}

// ProcessorHooks returns the metric callbacks expected by
// worker.MetricHooks. Centralises the prometheus observation calls so the
// worker package stays free of prometheus imports.
func (m *Metrics) ProcessorHooks() (
	onPersisted func(domain.PaymentKind),
	onFailed func(domain.PaymentKind),
	onCycle func(drained int, elapsed time.Duration),
) {
	onPersisted = func(kind domain.PaymentKind) {
		m.PaymentsPersisted.WithLabelValues(string(kind)).Inc()
	}
	onFailed = func(kind domain.PaymentKind) {
		m.PaymentsFailed.WithLabelValues(string(kind)).Inc()
	}
	onCycle = func(_ int, elapsed time.Duration) {
		m.CycleDuration.Observe(elapsed.Seconds())
	}
	return
}

// ReminderHook returns the callback the reminder scheduler invokes after
// each successful send.
func (m *Metrics) ReminderHook() func(stage int) {
	labels := [...]string{1: "1", 2: "2", 3: "3"}
	return func(stage int) {
		if stage >= 1 && stage <= len(labels)-1 {
			m.RemindersSent.WithLabelValues(labels[stage]).Inc()
		}
	}
}
