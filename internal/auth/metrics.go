package auth

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess = "success"
)

// MetricsCollector records per-operation outcomes and latency for the account
// service.
type MetricsCollector struct {
	operations    *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	notifications *prometheus.CounterVec
}

func NewMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	mc := &MetricsCollector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "accounts",
			Name:      "operations_total",
			Help:      "Account operations by operation and outcome kind.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "accounts",
			Name:      "operation_duration_seconds",
			Help:      "Latency of account operations in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "accounts",
			Name:      "verification_notifications_total",
			Help:      "Verification notifications by delivery result.",
		}, []string{"result"}),
	}

	if reg != nil {
		reg.MustRegister(mc.operations, mc.duration, mc.notifications)
	}
	return mc
}

// Observe records one finished operation. A nil err counts as success,
// otherwise the outcome is the error's Kind.
func (mc *MetricsCollector) Observe(operation string, started time.Time, err error) {
	if mc == nil {
		return
	}

	outcome := outcomeSuccess
	if err != nil {
		outcome = string(KindOf(err))
	}
	mc.operations.WithLabelValues(operation, outcome).Inc()
	mc.duration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func (mc *MetricsCollector) NotificationSent(err error) {
	if mc == nil {
		return
	}

	result := "delivered"
	if err != nil {
		result = "failed"
	}
	mc.notifications.WithLabelValues(result).Inc()
}
