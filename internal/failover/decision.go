// internal/failover/decision.go
package failover

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/FairForge/aegis/internal/config"
)

// DecisionEngine analyzes health signals and recommends failovers. A failover
// needs both the health score below threshold AND the failure streak at
// threshold, so a single noisy low reading never triggers on its own.
type DecisionEngine struct {
	cfg     config.FailoverConfig
	limiter *RateLimit

	mu    sync.RWMutex
	flags config.FeatureFlags
}

// NewDecisionEngine creates a decision engine.
func NewDecisionEngine(cfg config.FailoverConfig, flags config.FeatureFlags) *DecisionEngine {
	return &DecisionEngine{
		cfg:     cfg,
		flags:   flags,
		limiter: NewRateLimit(cfg.MaxFailoversPerMinute, time.Minute),
	}
}

// SetFeatureFlags swaps in new flags for subsequent decisions.
func (e *DecisionEngine) SetFeatureFlags(flags config.FeatureFlags) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.flags = flags
}

func (e *DecisionEngine) featureFlags() config.FeatureFlags {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.flags
}

// AnalyzeAndDecide evaluates one signal against the service's monitor state
// and an optional resolved strategy. The rate-limit slot is consumed only on
// an actual trigger, never on evaluation alone.
func (e *DecisionEngine) AnalyzeAndDecide(ctx context.Context, signal HealthSignalEvent, monitor ActiveMonitor, strategy *Strategy) (Decision, error) {
	flags := e.featureFlags()

	decision := Decision{}
	if strategy != nil {
		decision.StrategyID = strategy.ID
		decision.FailoverType = strategy.FailoverType
	}

	if !flags.EnableAutomaticFailover {
		decision.Reason = "automatic failover disabled by feature flag"
		return decision, nil
	}

	if flags.EnableFailoverRateLimiting && !e.limiter.Check() {
		decision.Reason = "rate limited - too many recent failovers"
		return decision, nil
	}

	healthScoreTrigger := signal.HealthScore < e.cfg.HealthScoreThreshold
	consecutiveFailuresTrigger := monitor.ConsecutiveFailures >= e.cfg.ConsecutiveFailureThreshold

	switch {
	case healthScoreTrigger && consecutiveFailuresTrigger:
		decision.ShouldFailover = true

		healthFactor := (e.cfg.HealthScoreThreshold - signal.HealthScore) / e.cfg.HealthScoreThreshold
		failureFactor := float64(monitor.ConsecutiveFailures) / float64(e.cfg.ConsecutiveFailureThreshold*2)
		decision.Confidence = (clamp01(healthFactor) + clamp01(failureFactor)) / 2

		decision.Reason = fmt.Sprintf(
			"health score %.2f below threshold %.2f, %d consecutive failures",
			signal.HealthScore, e.cfg.HealthScoreThreshold, monitor.ConsecutiveFailures)

		if flags.EnableFailoverRateLimiting {
			e.limiter.Consume()
		}
	case !healthScoreTrigger:
		decision.Reason = fmt.Sprintf("health score %.2f above threshold", signal.HealthScore)
	default:
		decision.Reason = fmt.Sprintf(
			"only %d consecutive failures, threshold is %d",
			monitor.ConsecutiveFailures, e.cfg.ConsecutiveFailureThreshold)
	}

	return decision, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
