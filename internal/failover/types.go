// internal/failover/types.go
package failover

import "time"

// Status represents where a monitored service sits in the failover lifecycle.
type Status string

const (
	StatusHealthy    Status = "healthy"
	StatusFailedOver Status = "failed-over"
	StatusRecovering Status = "recovering"
)

// FailoverType tags what kind of dependency a strategy redirects.
type FailoverType string

const (
	FailoverTypeDatabase FailoverType = "database"
	FailoverTypeKV       FailoverType = "kv"
	FailoverTypeStorage  FailoverType = "storage"
	FailoverTypeAPI      FailoverType = "api"
)

// Strategy describes how a service fails over to a standby target.
type Strategy struct {
	ID              string       `json:"id"`
	ServiceID       string       `json:"service_id"`
	FailoverType    FailoverType `json:"failover_type"`
	PrimaryTarget   string       `json:"primary_target"`
	SecondaryTarget string       `json:"secondary_target"`
}

// HealthSignalEvent is one health reading for one monitored service. It is
// produced externally, flows through the queue once, and is never persisted.
type HealthSignalEvent struct {
	ServiceID   string            `json:"service_id"`
	HealthScore float64           `json:"health_score"` // 0.0 unhealthy .. 1.0 healthy
	Timestamp   int64             `json:"timestamp"`    // epoch millis
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// ActiveMonitor is the per-service monitoring state, created on the first
// signal for a service and mutated on every one after.
//
// Invariant: ConsecutiveFailures > 0 implies ConsecutiveSuccesses == 0 and
// vice versa.
type ActiveMonitor struct {
	ServiceID             string  `json:"service_id"`
	CurrentHealthScore    float64 `json:"current_health_score"`
	ConsecutiveFailures   int     `json:"consecutive_failures"`
	ConsecutiveSuccesses  int     `json:"consecutive_successes"`
	LastCheckTimestamp    int64   `json:"last_check_timestamp"`
	FailoverState         Status  `json:"failover_state,omitempty"` // empty until first transition
	RecoveryAttempts      int     `json:"recovery_attempts"`
	LastFailoverTimestamp int64   `json:"last_failover_timestamp,omitempty"`
}

// Decision is the outcome of analyzing one health signal.
type Decision struct {
	ShouldFailover bool
	StrategyID     string
	Reason         string
	Confidence     float64 // 0.0-1.0
	FailoverType   FailoverType
}

// RecoveryDecision is the outcome of analyzing a failed-over service.
type RecoveryDecision struct {
	ShouldRecover bool
	ServiceID     string
	Method        RecoveryMethod
	Reason        string
	Confidence    float64
}

// RecoveryMethodKind discriminates the closed set of recovery shapes.
type RecoveryMethodKind string

const (
	RecoveryImmediate       RecoveryMethodKind = "immediate"
	RecoveryGradual         RecoveryMethodKind = "gradual"
	RecoveryValidationBased RecoveryMethodKind = "validation-based"
)

// RecoveryMethod is a tagged variant: Steps is set for gradual recovery,
// Checks for validation-based, neither for immediate.
type RecoveryMethod struct {
	Kind   RecoveryMethodKind `json:"kind"`
	Steps  []RecoveryStep     `json:"steps,omitempty"`
	Checks []string           `json:"checks,omitempty"`
}

// RecoveryStep is one stage of a gradual traffic ramp.
type RecoveryStep struct {
	Step               int           `json:"step"`
	TrafficPercentage  float64       `json:"traffic_percentage"` // 0.0-1.0
	Duration           time.Duration `json:"duration"`
	RequiresValidation bool          `json:"requires_validation"`
}

// EventType categorizes failover history events.
type EventType string

const (
	EventFailoverInitiated EventType = "failover_initiated"
	EventFailoverCompleted EventType = "failover_completed"
	EventRecoveryInitiated EventType = "recovery_initiated"
	EventRecoveryCompleted EventType = "recovery_completed"
	EventFailoverFailed    EventType = "failover_failed"
	EventRecoveryFailed    EventType = "recovery_failed"
)

// Event is an append-only failover history record.
type Event struct {
	ID         string    `json:"id"`
	ServiceID  string    `json:"service_id"`
	StrategyID string    `json:"strategy_id"`
	Timestamp  int64     `json:"timestamp"`
	Type       EventType `json:"event_type"`
	DurationMs int64     `json:"duration_ms,omitempty"`
	Success    bool      `json:"success"`
	Details    string    `json:"details"`
}

// RecoveryOperationStatus tracks an in-flight recovery.
type RecoveryOperationStatus string

const (
	RecoveryInProgress          RecoveryOperationStatus = "in_progress"
	RecoveryCompleted           RecoveryOperationStatus = "completed"
	RecoveryFailed              RecoveryOperationStatus = "failed"
	RecoveryPausedForValidation RecoveryOperationStatus = "paused_for_validation"
)

// RecoveryOperation is one in-flight recovery, created when a recovery
// decision is acted on and removed on completion or failure.
type RecoveryOperation struct {
	ID                 string                  `json:"id"`
	ServiceID          string                  `json:"service_id"`
	Method             RecoveryMethod          `json:"method"`
	CurrentStep        int                     `json:"current_step"`
	StartTimestamp     int64                   `json:"start_timestamp"`
	ExpectedCompletion int64                   `json:"expected_completion"`
	Status             RecoveryOperationStatus `json:"status"`
}

// Metrics is the aggregate bookkeeping for the coordinator. The two active
// counts are recomputed live on snapshot, not incrementally maintained.
type Metrics struct {
	HealthSignalsProcessed       uint64  `json:"health_signals_processed"`
	FailoverDecisionsMade        uint64  `json:"failover_decisions_made"`
	AutomaticFailoversTriggered  uint64  `json:"automatic_failovers_triggered"`
	RecoveryOperationsInitiated  uint64  `json:"recovery_operations_initiated"`
	SuccessfulRecoveries         uint64  `json:"successful_recoveries"`
	FailedRecoveries             uint64  `json:"failed_recoveries"`
	DroppedSignals               uint64  `json:"dropped_signals"`
	AvgDecisionTimeMs            float64 `json:"avg_decision_time_ms"`
	ActiveMonitorsCount          int     `json:"active_monitors_count"`
	ActiveRecoveryOperationCount int     `json:"active_recovery_operations_count"`
	LastUpdated                  int64   `json:"last_updated"`
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
