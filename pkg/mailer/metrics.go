package mailer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the delivery collectors. A nil *Metrics records nothing.
type Metrics struct {
	deliveries *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics creates the delivery collectors and registers them with reg
// when reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mailrelay",
			Name:      "deliveries_total",
			Help:      "Email submissions by provider and outcome.",
		}, []string{"provider", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mailrelay",
			Name:      "delivery_duration_seconds",
			Help:      "Time spent waiting for the email provider.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
	}
	if reg != nil {
		reg.MustRegister(m.deliveries, m.duration)
	}
	return m
}

func (m *Metrics) observe(provider, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(provider, outcome).Inc()
	m.duration.WithLabelValues(provider).Observe(elapsed.Seconds())
}
