// internal/metrics/collector.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	signalsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aegis_health_signals_total",
			Help: "Total number of health signals processed",
		},
	)

	signalsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aegis_health_signals_dropped_total",
			Help: "Health signals rejected because the inbound queue was full",
		},
	)

	decisionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aegis_failover_decisions_total",
			Help: "Total number of failover decisions made",
		},
	)

	decisionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aegis_decision_duration_seconds",
			Help:    "Failover decision latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	failoversTriggered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aegis_failovers_triggered_total",
			Help: "Automatic failovers triggered",
		},
		[]string{"service"},
	)

	recoveriesInitiated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aegis_recoveries_initiated_total",
			Help: "Recovery operations initiated",
		},
		[]string{"service"},
	)

	recoveriesSucceeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aegis_recoveries_succeeded_total",
			Help: "Recovery operations completed successfully",
		},
		[]string{"service"},
	)

	recoveriesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aegis_recoveries_failed_total",
			Help: "Recovery operations that failed",
		},
		[]string{"service"},
	)

	activeMonitors = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aegis_active_monitors",
			Help: "Number of services currently monitored",
		},
	)

	activeRecoveries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aegis_active_recovery_operations",
			Help: "Number of recovery operations in flight",
		},
	)
)

// Collector records coordinator activity into Prometheus.
type Collector struct {
	startTime time.Time
}

// NewCollector creates a metrics collector.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// RecordSignal records one processed health signal.
func (c *Collector) RecordSignal() {
	signalsTotal.Inc()
}

// RecordDroppedSignal records a signal rejected at the queue.
func (c *Collector) RecordDroppedSignal() {
	signalsDropped.Inc()
}

// RecordDecision records one decision and its latency.
func (c *Collector) RecordDecision(d time.Duration) {
	decisionsTotal.Inc()
	decisionDuration.Observe(d.Seconds())
}

// RecordFailover records a triggered failover.
func (c *Collector) RecordFailover(service string) {
	failoversTriggered.WithLabelValues(service).Inc()
}

// RecordRecoveryInitiated records a recovery start.
func (c *Collector) RecordRecoveryInitiated(service string) {
	recoveriesInitiated.WithLabelValues(service).Inc()
}

// RecordRecoverySucceeded records a completed recovery.
func (c *Collector) RecordRecoverySucceeded(service string) {
	recoveriesSucceeded.WithLabelValues(service).Inc()
}

// RecordRecoveryFailed records a failed recovery.
func (c *Collector) RecordRecoveryFailed(service string) {
	recoveriesFailed.WithLabelValues(service).Inc()
}

// SetActiveMonitors updates the monitored-service gauge.
func (c *Collector) SetActiveMonitors(n int) {
	activeMonitors.Set(float64(n))
}

// SetActiveRecoveries updates the in-flight recovery gauge.
func (c *Collector) SetActiveRecoveries(n int) {
	activeRecoveries.Set(float64(n))
}

// Uptime returns time since the collector was created.
func (c *Collector) Uptime() time.Duration {
	return time.Since(c.startTime)
}
