// internal/alerting/manager.go
package alerting

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Severities
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Comparison operators for rule thresholds
const (
	OpGreaterOrEqual = ">="
	OpGreater        = ">"
	OpLessOrEqual    = "<="
	OpLess           = "<"
	OpEqual          = "=="
)

// Alert history is capped the same way failover history is.
const historyLimit = 1000

// Rule fires an alert when a metric in its category crosses the threshold.
type Rule struct {
	Category   string  `json:"category"`
	MetricName string  `json:"metric_name"`
	Operator   string  `json:"operator"`
	Threshold  float64 `json:"threshold"`
	Severity   string  `json:"severity"`
	Message    string  `json:"message"`
}

// Validate checks the rule shape.
func (r *Rule) Validate() error {
	if r.Category == "" {
		return errors.New("alerting: category is required")
	}
	if r.MetricName == "" {
		return errors.New("alerting: metric name is required")
	}
	switch r.Operator {
	case OpGreaterOrEqual, OpGreater, OpLessOrEqual, OpLess, OpEqual:
	default:
		return fmt.Errorf("alerting: unknown operator %q", r.Operator)
	}
	switch r.Severity {
	case SeverityInfo, SeverityWarning, SeverityCritical:
	default:
		return fmt.Errorf("alerting: unknown severity %q", r.Severity)
	}
	return nil
}

func (r *Rule) matches(value float64) bool {
	switch r.Operator {
	case OpGreaterOrEqual:
		return value >= r.Threshold
	case OpGreater:
		return value > r.Threshold
	case OpLessOrEqual:
		return value <= r.Threshold
	case OpLess:
		return value < r.Threshold
	case OpEqual:
		return value == r.Threshold
	default:
		return false
	}
}

func (r *Rule) key() string {
	return r.Category + "/" + r.MetricName
}

// Alert is one fired alert.
type Alert struct {
	ID         string    `json:"id"`
	Category   string    `json:"category"`
	MetricName string    `json:"metric_name"`
	Severity   string    `json:"severity"`
	Message    string    `json:"message"`
	Value      float64   `json:"value"`
	FiredAt    time.Time `json:"fired_at"`
}

// Manager evaluates metric observations against registered rules and fans
// fired alerts out to subscribers. A token bucket throttles the fan-out so an
// alert storm cannot amplify the incident that caused it.
type Manager struct {
	logger  *zap.Logger
	limiter *rate.Limiter

	mu          sync.RWMutex
	rules       map[string][]Rule // keyed by category/metric
	history     []Alert
	subscribers []func(Alert)
	suppressed  uint64
}

// NewManager creates a manager throttled to maxPerSecond fired alerts with
// the given burst.
func NewManager(logger *zap.Logger, maxPerSecond float64, burst int) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxPerSecond <= 0 {
		maxPerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &Manager{
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(maxPerSecond), burst),
		rules:   make(map[string][]Rule),
	}
}

// AddRule registers a rule. Multiple rules may watch the same metric.
func (m *Manager) AddRule(r Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[r.key()] = append(m.rules[r.key()], r)
	return nil
}

// Subscribe registers a callback invoked for every fired alert. Callbacks run
// on the evaluating goroutine and must not block.
func (m *Manager) Subscribe(fn func(Alert)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

// EvaluateMetric checks one observation against the rules for its metric,
// firing an alert per matching rule. Throttled alerts are counted and
// dropped, never queued.
func (m *Manager) EvaluateMetric(ctx context.Context, category, metricName string, value float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.RLock()
	rules := m.rules[category+"/"+metricName]
	subscribers := m.subscribers
	m.mu.RUnlock()

	for _, r := range rules {
		if !r.matches(value) {
			continue
		}

		if !m.limiter.Allow() {
			m.mu.Lock()
			m.suppressed++
			m.mu.Unlock()
			m.logger.Warn("alert suppressed by rate limit",
				zap.String("category", category),
				zap.String("metric", metricName))
			continue
		}

		alert := Alert{
			ID:         uuid.NewString(),
			Category:   category,
			MetricName: metricName,
			Severity:   r.Severity,
			Message:    r.Message,
			Value:      value,
			FiredAt:    time.Now(),
		}

		m.mu.Lock()
		m.history = append(m.history, alert)
		if len(m.history) > historyLimit {
			m.history = m.history[len(m.history)-historyLimit:]
		}
		m.mu.Unlock()

		m.logger.Info("alert fired",
			zap.String("category", category),
			zap.String("metric", metricName),
			zap.String("severity", r.Severity),
			zap.Float64("value", value))

		for _, fn := range subscribers {
			fn(alert)
		}
	}

	return nil
}

// History returns a copy of fired alerts, newest last.
func (m *Manager) History() []Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Alert, len(m.history))
	copy(out, m.history)
	return out
}

// Suppressed returns how many alerts the rate limit dropped.
func (m *Manager) Suppressed() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.suppressed
}
