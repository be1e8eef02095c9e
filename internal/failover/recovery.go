// internal/failover/recovery.go
package failover

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/FairForge/aegis/internal/config"
)

// RecoveryEngine analyzes failed-over services and recommends restoration.
// Recovery is deliberately more conservative than failover: both the health
// threshold and the success streak are above their failover counterparts, and
// confidence is halved.
type RecoveryEngine struct {
	cfg config.FailoverConfig

	mu               sync.RWMutex
	flags            config.FeatureFlags
	validationChecks map[string][]string
}

// NewRecoveryEngine creates a recovery engine.
func NewRecoveryEngine(cfg config.FailoverConfig, flags config.FeatureFlags) *RecoveryEngine {
	return &RecoveryEngine{
		cfg:              cfg,
		flags:            flags,
		validationChecks: make(map[string][]string),
	}
}

// SetFeatureFlags swaps in new flags for subsequent decisions.
func (e *RecoveryEngine) SetFeatureFlags(flags config.FeatureFlags) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.flags = flags
}

// RegisterValidationChecks attaches named validation checks to a service.
// When gradual recovery is disabled, a service with checks recovers through
// validation instead of immediately.
func (e *RecoveryEngine) RegisterValidationChecks(serviceID string, checks []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.validationChecks[serviceID] = checks
}

// AnalyzeRecovery evaluates whether a failed-over service has demonstrated
// enough sustained health to be restored.
func (e *RecoveryEngine) AnalyzeRecovery(ctx context.Context, signal HealthSignalEvent, monitor ActiveMonitor) (RecoveryDecision, error) {
	e.mu.RLock()
	flags := e.flags
	checks := e.validationChecks[signal.ServiceID]
	e.mu.RUnlock()

	decision := RecoveryDecision{
		ServiceID: signal.ServiceID,
		Method:    RecoveryMethod{Kind: RecoveryImmediate},
	}

	if !flags.EnableAutomaticRecovery {
		decision.Reason = "automatic recovery disabled by feature flag"
		return decision, nil
	}

	if monitor.FailoverState != StatusFailedOver {
		decision.Reason = "service not in failed over state"
		return decision, nil
	}

	if monitor.RecoveryAttempts >= e.cfg.MaxRecoveryAttempts {
		decision.Reason = fmt.Sprintf("max recovery attempts (%d) exceeded", e.cfg.MaxRecoveryAttempts)
		return decision, nil
	}

	healthScoreGood := signal.HealthScore >= e.cfg.RecoveryHealthThreshold
	consecutiveSuccessesGood := monitor.ConsecutiveSuccesses >= e.cfg.RecoverySuccessThreshold

	switch {
	case healthScoreGood && consecutiveSuccessesGood:
		decision.ShouldRecover = true

		healthFactor := signal.HealthScore
		successFactor := float64(monitor.ConsecutiveSuccesses) / float64(e.cfg.RecoverySuccessThreshold*2)
		decision.Confidence = (clamp01(healthFactor) + clamp01(successFactor)) / 2 / 2

		decision.Reason = fmt.Sprintf(
			"health score %.2f above threshold %.2f, %d consecutive successes",
			signal.HealthScore, e.cfg.RecoveryHealthThreshold, monitor.ConsecutiveSuccesses)
	case !healthScoreGood:
		decision.Reason = fmt.Sprintf(
			"health score %.2f below recovery threshold %.2f",
			signal.HealthScore, e.cfg.RecoveryHealthThreshold)
	default:
		decision.Reason = fmt.Sprintf(
			"only %d consecutive successes, threshold is %d",
			monitor.ConsecutiveSuccesses, e.cfg.RecoverySuccessThreshold)
	}

	decision.Method = e.recoveryMethod(flags, checks)

	return decision, nil
}

// recoveryMethod picks the restoration shape: a staged traffic ramp when
// gradual recovery is on, validation-based when the service has registered
// checks, immediate otherwise.
func (e *RecoveryEngine) recoveryMethod(flags config.FeatureFlags, checks []string) RecoveryMethod {
	if flags.EnableGradualRecovery {
		return RecoveryMethod{
			Kind: RecoveryGradual,
			Steps: []RecoveryStep{
				{Step: 1, TrafficPercentage: 0.1, Duration: 30 * time.Second, RequiresValidation: true},
				{Step: 2, TrafficPercentage: 0.5, Duration: 60 * time.Second, RequiresValidation: true},
				{Step: 3, TrafficPercentage: 1.0, Duration: 0, RequiresValidation: false},
			},
		}
	}
	if len(checks) > 0 {
		return RecoveryMethod{Kind: RecoveryValidationBased, Checks: checks}
	}
	return RecoveryMethod{Kind: RecoveryImmediate}
}
