package order

import "github.com/prometheus/client_golang/prometheus"

// Metrics is nil-safe so tests and tools can run without a registry.
type Metrics struct {
	checkouts     prometheus.Counter
	logFailures   prometheus.Counter
	usageFailures prometheus.Counter
	amount        prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		checkouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pos",
			Name:      "checkouts_total",
			Help:      "Completed checkouts.",
		}),
		logFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pos",
			Name:      "order_log_write_failures_total",
			Help:      "Checkouts whose order could not be written to the order log.",
		}),
		usageFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pos",
			Name:      "catalog_usage_increment_failures_total",
			Help:      "Usage counter updates that failed during checkout.",
		}),
		amount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pos",
			Name:      "checkout_amount_cents",
			Help:      "Order totals in cents.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 5000, 10000, 25000},
		}),
	}
	reg.MustRegister(m.checkouts, m.logFailures, m.usageFailures, m.amount)
	return m
}

func (m *Metrics) checkout(totalCents int64) {
	if m == nil {
		return
	}
	m.checkouts.Inc()
	m.amount.Observe(float64(totalCents))
}

func (m *Metrics) logWriteFailed() {
	if m != nil {
		m.logFailures.Inc()
	}
}

func (m *Metrics) usageIncrementFailed() {
	if m != nil {
		m.usageFailures.Inc()
	}
}
