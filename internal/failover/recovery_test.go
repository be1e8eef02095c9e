// internal/failover/recovery_test.go
package failover

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FairForge/aegis/internal/config"
)

func failedOverMonitor(score float64, successes, attempts int) ActiveMonitor {
	return ActiveMonitor{
		ServiceID:            "postgres-primary",
		CurrentHealthScore:   score,
		ConsecutiveSuccesses: successes,
		FailoverState:        StatusFailedOver,
		RecoveryAttempts:     attempts,
	}
}

func recoverySignal(score float64) HealthSignalEvent {
	return HealthSignalEvent{ServiceID: "postgres-primary", HealthScore: score, Timestamp: 1700000000000}
}

func TestRecoveryEngine_RequiresBothConditions(t *testing.T) {
	e := NewRecoveryEngine(config.DefaultFailoverConfig(), config.DefaultFeatureFlags())
	ctx := context.Background()

	// High score, short streak: health must be sustained, not momentary.
	d, err := e.AnalyzeRecovery(ctx, recoverySignal(0.9), failedOverMonitor(0.9, 2, 0))
	require.NoError(t, err)
	assert.False(t, d.ShouldRecover)
	assert.Contains(t, d.Reason, "consecutive successes")

	// Long streak, score below the recovery bar.
	d, err = e.AnalyzeRecovery(ctx, recoverySignal(0.6), failedOverMonitor(0.6, 8, 0))
	require.NoError(t, err)
	assert.False(t, d.ShouldRecover)
	assert.Contains(t, d.Reason, "below recovery threshold")

	// Both: recover.
	d, err = e.AnalyzeRecovery(ctx, recoverySignal(0.9), failedOverMonitor(0.9, 5, 0))
	require.NoError(t, err)
	assert.True(t, d.ShouldRecover)
}

func TestRecoveryEngine_OnlyFailedOverServicesRecover(t *testing.T) {
	e := NewRecoveryEngine(config.DefaultFailoverConfig(), config.DefaultFeatureFlags())

	m := failedOverMonitor(0.95, 10, 0)
	m.FailoverState = StatusHealthy
	d, err := e.AnalyzeRecovery(context.Background(), recoverySignal(0.95), m)
	require.NoError(t, err)
	assert.False(t, d.ShouldRecover)
	assert.Equal(t, "service not in failed over state", d.Reason)

	m.FailoverState = StatusRecovering
	d, err = e.AnalyzeRecovery(context.Background(), recoverySignal(0.95), m)
	require.NoError(t, err)
	assert.False(t, d.ShouldRecover)
}

func TestRecoveryEngine_AttemptCeiling(t *testing.T) {
	e := NewRecoveryEngine(config.DefaultFailoverConfig(), config.DefaultFeatureFlags())

	d, err := e.AnalyzeRecovery(context.Background(), recoverySignal(0.95), failedOverMonitor(0.95, 10, 3))
	require.NoError(t, err)
	assert.False(t, d.ShouldRecover)
	assert.Contains(t, d.Reason, "max recovery attempts")
}

func TestRecoveryEngine_FeatureFlagDisablesRecovery(t *testing.T) {
	flags := config.DefaultFeatureFlags()
	flags.EnableAutomaticRecovery = false
	e := NewRecoveryEngine(config.DefaultFailoverConfig(), flags)

	d, err := e.AnalyzeRecovery(context.Background(), recoverySignal(0.95), failedOverMonitor(0.95, 10, 0))
	require.NoError(t, err)
	assert.False(t, d.ShouldRecover)
	assert.Equal(t, "automatic recovery disabled by feature flag", d.Reason)
}

func TestRecoveryEngine_ConfidenceHalved(t *testing.T) {
	e := NewRecoveryEngine(config.DefaultFailoverConfig(), config.DefaultFeatureFlags())

	// Score 0.9 and 5 successes against threshold 5: success factor 0.5.
	// Average of 0.9 and 0.5 is 0.7; recovery halves it to 0.35.
	d, err := e.AnalyzeRecovery(context.Background(), recoverySignal(0.9), failedOverMonitor(0.9, 5, 0))
	require.NoError(t, err)
	require.True(t, d.ShouldRecover)
	assert.InDelta(t, 0.35, d.Confidence, 0.001)

	// Even a perfect record cannot exceed 0.5.
	d, err = e.AnalyzeRecovery(context.Background(), recoverySignal(1.0), failedOverMonitor(1.0, 20, 0))
	require.NoError(t, err)
	require.True(t, d.ShouldRecover)
	assert.LessOrEqual(t, d.Confidence, 0.5)
}

func TestRecoveryEngine_GradualRamp(t *testing.T) {
	e := NewRecoveryEngine(config.DefaultFailoverConfig(), config.DefaultFeatureFlags())

	d, err := e.AnalyzeRecovery(context.Background(), recoverySignal(0.9), failedOverMonitor(0.9, 5, 0))
	require.NoError(t, err)
	require.True(t, d.ShouldRecover)
	require.Equal(t, RecoveryGradual, d.Method.Kind)
	require.Len(t, d.Method.Steps, 3)

	assert.Equal(t, 0.1, d.Method.Steps[0].TrafficPercentage)
	assert.True(t, d.Method.Steps[0].RequiresValidation)
	assert.Equal(t, 0.5, d.Method.Steps[1].TrafficPercentage)
	assert.Equal(t, 1.0, d.Method.Steps[2].TrafficPercentage)
	assert.False(t, d.Method.Steps[2].RequiresValidation)
}

func TestRecoveryEngine_MethodFallbacks(t *testing.T) {
	flags := config.DefaultFeatureFlags()
	flags.EnableGradualRecovery = false

	// Without gradual recovery and without checks: immediate.
	e := NewRecoveryEngine(config.DefaultFailoverConfig(), flags)
	d, err := e.AnalyzeRecovery(context.Background(), recoverySignal(0.9), failedOverMonitor(0.9, 5, 0))
	require.NoError(t, err)
	assert.Equal(t, RecoveryImmediate, d.Method.Kind)

	// Registered checks upgrade the fallback to validation-based.
	e.RegisterValidationChecks("postgres-primary", []string{"replication-lag", "connection-pool"})
	d, err = e.AnalyzeRecovery(context.Background(), recoverySignal(0.9), failedOverMonitor(0.9, 5, 0))
	require.NoError(t, err)
	require.Equal(t, RecoveryValidationBased, d.Method.Kind)
	assert.Equal(t, []string{"replication-lag", "connection-pool"}, d.Method.Checks)
}
