package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics tracks hosted checkout activity and payment outcomes.
type CheckoutMetrics struct {
	sessions         *prometheus.CounterVec
	providerFailures *prometheus.CounterVec
	ordersPaid       *prometheus.CounterVec
	remoteRefs       *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	sessions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkout_sessions_created_total",
		Help: "Hosted checkout sessions created, by kind (item/order).",
	}, []string{"kind"})
	providerFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_payment_provider_failures_total",
		Help: "Payment provider calls that returned an error, by operation.",
	}, []string{"operation"})
	ordersPaid := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_orders_marked_paid_total",
		Help: "Orders transitioned to paid, by source.",
	}, []string{"source"})
	remoteRefs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_remote_refs_created_total",
		Help: "Provider coupons and tax rates created and cached locally.",
	}, []string{"kind"})
	reg.MustRegister(sessions, providerFailures, ordersPaid, remoteRefs)
	return &CheckoutMetrics{
		sessions:         sessions,
		providerFailures: providerFailures,
		ordersPaid:       ordersPaid,
		remoteRefs:       remoteRefs,
	}
}

func (c *CheckoutMetrics) IncSessionCreated(kind string) {
	if c == nil || c.sessions == nil {
		return
	}
	c.sessions.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (c *CheckoutMetrics) IncProviderFailure(operation string) {
	if c == nil || c.providerFailures == nil {
		return
	}
	c.providerFailures.WithLabelValues(normalizeLabel(operation)).Inc()
}

func (c *CheckoutMetrics) IncOrderPaid(source string) {
	if c == nil || c.ordersPaid == nil {
		return
	}
	c.ordersPaid.WithLabelValues(normalizeLabel(source)).Inc()
}

func (c *CheckoutMetrics) IncRemoteRefCreated(kind string) {
	if c == nil || c.remoteRefs == nil {
		return
	}
	c.remoteRefs.WithLabelValues(normalizeLabel(kind)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
