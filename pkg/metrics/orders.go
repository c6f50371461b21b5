package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	CheckoutPlaced       = "placed"
	CheckoutInsufficient = "insufficient_stock"
	CheckoutFailed       = "failed"
)

// OrderMetrics counts checkout outcomes and status transitions.
type OrderMetrics struct {
	checkouts   *prometheus.CounterVec
	transitions *prometheus.CounterVec
}

func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retail_checkouts_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retail_order_status_transitions_total",
		Help: "Order status changes by target status.",
	}, []string{"status"})
	reg.MustRegister(checkouts, transitions)
	return &OrderMetrics{checkouts: checkouts, transitions: transitions}
}

func (m *OrderMetrics) IncCheckout(outcome string) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(outcome).Inc()
}

func (m *OrderMetrics) IncTransition(status string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(status).Inc()
}
