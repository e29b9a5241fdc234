package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeConflict = "conflict"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
	OutcomeReplay   = "replay"
)

// StorefrontMetrics covers checkout, lock and webhook traffic.
type StorefrontMetrics struct {
	checkouts        *prometheus.CounterVec
	checkoutDuration prometheus.Histogram
	lockConflicts    prometheus.Counter
	webhooks         *prometheus.CounterVec
	rollbacks        prometheus.Counter
}

func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	m := &StorefrontMetrics{
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Checkout attempts by outcome.",
		}, []string{"outcome"}),
		checkoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_duration_seconds",
			Help:      "End to end checkout latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		lockConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inventory_lock_conflicts_total",
			Help:      "Lock acquisitions rejected because a product was busy.",
		}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Inbound webhook events by provider and outcome.",
		}, []string{"provider", "outcome"}),
		rollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_rollbacks_total",
			Help:      "Compensating rollbacks run after order creation.",
		}),
	}
	reg.MustRegister(m.checkouts, m.checkoutDuration, m.lockConflicts, m.webhooks, m.rollbacks)
	return m
}

func (m *StorefrontMetrics) ObserveCheckout(outcome string, duration time.Duration) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(outcome)).Inc()
	m.checkoutDuration.Observe(duration.Seconds())
}

func (m *StorefrontMetrics) IncLockConflict() {
	if m == nil || m.lockConflicts == nil {
		return
	}
	m.lockConflicts.Inc()
}

func (m *StorefrontMetrics) IncRollback() {
	if m == nil || m.rollbacks == nil {
		return
	}
	m.rollbacks.Inc()
}

func (m *StorefrontMetrics) IncWebhook(provider, outcome string) {
	if m == nil || m.webhooks == nil {
		return
	}
	m.webhooks.WithLabelValues(normalizeLabel(provider), normalizeLabel(outcome)).Inc()
}
