package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for checkout-funnel and cache
// observability. All recording methods are safe on a nil receiver so
// components can be constructed without metrics in tests.
type Metrics struct {
	// Cache
	cacheHits           *prometheus.CounterVec
	cacheMisses         prometheus.Counter
	cacheStaleFallbacks prometheus.Counter

	// Checkout funnel
	checkoutStarted   prometheus.Counter
	checkoutStep      *prometheus.CounterVec
	checkoutCompleted *prometheus.CounterVec
	checkoutAbandoned prometheus.Counter

	// Payments
	paymentAttempts  *prometheus.CounterVec
	paymentSucceeded *prometheus.CounterVec
	paymentFailed    *prometheus.CounterVec

	// Leads
	leadsSubmitted prometheus.Counter
}

// NewMetrics creates and registers all collectors with the given registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "luma"
	}
	factory := promauto.With(reg)

	return &Metrics{
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Cache hits by tier",
			},
			[]string{"tier"},
		),
		cacheMisses: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Cache misses requiring a remote fetch",
			},
		),
		cacheStaleFallbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_stale_fallbacks_total",
				Help:      "Stale entries served because a remote fetch failed",
			},
		),
		checkoutStarted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkout_started_total",
				Help:      "Checkout sessions opened",
			},
		),
		checkoutStep: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkout_step_total",
				Help:      "Checkout step transitions by destination step",
			},
			[]string{"step"},
		),
		checkoutCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkout_completed_total",
				Help:      "Checkout sessions completed by gateway",
			},
			[]string{"gateway"},
		),
		checkoutAbandoned: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkout_abandoned_total",
				Help:      "Checkout sessions closed without completing payment",
			},
		),
		paymentAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payment_attempts_total",
				Help:      "Payment attempts by gateway",
			},
			[]string{"gateway"},
		),
		paymentSucceeded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payment_succeeded_total",
				Help:      "Verified payments by gateway",
			},
			[]string{"gateway"},
		),
		paymentFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payment_failed_total",
				Help:      "Failed payments by gateway and stage",
			},
			[]string{"gateway", "stage"},
		),
		leadsSubmitted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "leads_submitted_total",
				Help:      "Installment inquiry leads submitted",
			},
		),
	}
}

func (m *Metrics) CacheHit(tier string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(tier).Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

func (m *Metrics) CacheStaleFallback() {
	if m == nil {
		return
	}
	m.cacheStaleFallbacks.Inc()
}

func (m *Metrics) CheckoutStarted() {
	if m == nil {
		return
	}
	m.checkoutStarted.Inc()
}

func (m *Metrics) CheckoutStep(step string) {
	if m == nil {
		return
	}
	m.checkoutStep.WithLabelValues(step).Inc()
}

func (m *Metrics) CheckoutCompleted(gateway string) {
	if m == nil {
		return
	}
	m.checkoutCompleted.WithLabelValues(gateway).Inc()
}

func (m *Metrics) CheckoutAbandoned() {
	if m == nil {
		return
	}
	m.checkoutAbandoned.Inc()
}

func (m *Metrics) PaymentAttempt(gateway string) {
	if m == nil {
		return
	}
	m.paymentAttempts.WithLabelValues(gateway).Inc()
}

func (m *Metrics) PaymentSucceeded(gateway string) {
	if m == nil {
		return
	}
	m.paymentSucceeded.WithLabelValues(gateway).Inc()
}

func (m *Metrics) PaymentFailed(gateway, stage string) {
	if m == nil {
		return
	}
	m.paymentFailed.WithLabelValues(gateway, stage).Inc()
}

func (m *Metrics) LeadSubmitted() {
	if m == nil {
		return
	}
	m.leadsSubmitted.Inc()
}
