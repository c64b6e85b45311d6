package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records counters for the M-Pesa payment flow.
type PaymentMetrics struct {
	pushDuration *prometheus.HistogramVec
	pushes       *prometheus.CounterVec
	callbacks    *prometheus.CounterVec
	unmatched    prometheus.Counter
}

// NewPaymentMetrics registers the payment flow metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	pushDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mpesa_push_duration_seconds",
		Help:    "Duration of STK push requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	pushes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mpesa_push_total",
		Help: "STK push attempts by outcome.",
	}, []string{"outcome"})
	callbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mpesa_callback_total",
		Help: "Received STK callbacks by result.",
	}, []string{"result"})
	unmatched := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mpesa_callback_unmatched_total",
		Help: "Callbacks that matched no known reservation.",
	})
	reg.MustRegister(pushDuration, pushes, callbacks, unmatched)
	return &PaymentMetrics{
		pushDuration: pushDuration,
		pushes:       pushes,
		callbacks:    callbacks,
		unmatched:    unmatched,
	}
}

// ObservePush records one STK push attempt with its duration.
func (m *PaymentMetrics) ObservePush(outcome string, duration time.Duration) {
	if m == nil || m.pushes == nil {
		return
	}
	label := normalizeLabel(outcome)
	m.pushes.WithLabelValues(label).Inc()
	m.pushDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// IncCallback increments the callback counter for the given result.
func (m *PaymentMetrics) IncCallback(result string) {
	if m == nil || m.callbacks == nil {
		return
	}
	m.callbacks.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncUnmatched increments the unmatched callback counter.
func (m *PaymentMetrics) IncUnmatched() {
	if m == nil || m.unmatched == nil {
		return
	}
	m.unmatched.Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
