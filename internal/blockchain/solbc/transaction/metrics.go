// internal/blockchain/solbc/transaction/metrics.go
package transaction

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	submittedCounter  prometheus.Counter
	confirmedCounter  prometheus.Counter
	failureCounter    prometheus.Counter
	timeoutCounter    prometheus.Counter
	durationHistogram prometheus.Histogram
}

// NewMetrics создаёт метрики и регистрирует их в reg. При reg == nil метрики
// работают, но никуда не экспортируются.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		submittedCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auction_house_tx_submitted_total",
			Help: "Total number of submitted transactions",
		}),
		confirmedCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auction_house_tx_confirmed_total",
			Help: "Total number of confirmed transactions",
		}),
		failureCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auction_house_tx_failure_total",
			Help: "Total number of rejected or failed transactions",
		}),
		timeoutCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auction_house_tx_confirmation_timeout_total",
			Help: "Total number of transactions not confirmed in time",
		}),
		durationHistogram: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "auction_house_tx_duration_seconds",
			Help:    "Time from submission to confirmation in seconds",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.submittedCounter,
			m.confirmedCounter,
			m.failureCounter,
			m.timeoutCounter,
			m.durationHistogram,
		)
	}
	return m
}

func (m *Metrics) TrackTransaction(start time.Time) {
	m.durationHistogram.Observe(time.Since(start).Seconds())
}
