// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailoverConfig_Defaults(t *testing.T) {
	cfg := DefaultFailoverConfig()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 5*time.Second, cfg.MonitoringInterval)
	assert.Equal(t, 1*time.Second, cfg.DecisionInterval)
	assert.Equal(t, 10*time.Second, cfg.RecoveryInterval)
	assert.Equal(t, 10, cfg.MaxFailoversPerMinute)
	assert.Equal(t, 0.3, cfg.HealthScoreThreshold)
	assert.Equal(t, 3, cfg.ConsecutiveFailureThreshold)
	assert.Equal(t, 0.8, cfg.RecoveryHealthThreshold)
	assert.Equal(t, 5, cfg.RecoverySuccessThreshold)
	assert.Equal(t, 3, cfg.MaxRecoveryAttempts)
	assert.Equal(t, 1000, cfg.EventQueueSize)
	assert.NoError(t, cfg.Validate())
}

func TestFailoverConfig_Presets(t *testing.T) {
	high := HighSensitivityFailoverConfig()
	assert.NoError(t, high.Validate())
	assert.Greater(t, high.HealthScoreThreshold, DefaultFailoverConfig().HealthScoreThreshold)
	assert.Less(t, high.ConsecutiveFailureThreshold, DefaultFailoverConfig().ConsecutiveFailureThreshold)

	conservative := ConservativeFailoverConfig()
	assert.NoError(t, conservative.Validate())
	assert.Less(t, conservative.HealthScoreThreshold, DefaultFailoverConfig().HealthScoreThreshold)
	assert.Greater(t, conservative.ConsecutiveFailureThreshold, DefaultFailoverConfig().ConsecutiveFailureThreshold)
}

func TestFailoverConfig_Validate(t *testing.T) {
	cfg := DefaultFailoverConfig()
	cfg.HealthScoreThreshold = 1.5
	assert.Error(t, cfg.Validate())

	cfg = DefaultFailoverConfig()
	cfg.RecoveryHealthThreshold = -0.1
	assert.Error(t, cfg.Validate())

	// Recovery must be stricter than failover or a service flaps.
	cfg = DefaultFailoverConfig()
	cfg.HealthScoreThreshold = 0.3
	cfg.RecoveryHealthThreshold = 0.2
	assert.Error(t, cfg.Validate())

	cfg.RecoveryHealthThreshold = 0.8
	assert.NoError(t, cfg.Validate())

	cfg = DefaultFailoverConfig()
	cfg.ConsecutiveFailureThreshold = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultFailoverConfig()
	cfg.EventQueueSize = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultFailoverConfig()
	cfg.DecisionInterval = 0
	assert.Error(t, cfg.Validate())
}

func TestFeatureFlags_Validate(t *testing.T) {
	flags := DefaultFeatureFlags()
	assert.NoError(t, flags.Validate())

	// Automatic failover demands a manual escape hatch.
	flags.EnableManualOverride = false
	assert.Error(t, flags.Validate())

	flags = DefaultFeatureFlags()
	flags.EnableCoordinatedFailover = true
	flags.EnableDependencyAwareFailover = false
	assert.Error(t, flags.Validate())

	// Disabling the dependent feature resolves the conflict.
	flags.EnableCoordinatedFailover = false
	assert.NoError(t, flags.Validate())
}

func TestFeatureFlags_Presets(t *testing.T) {
	assert.False(t, DefaultFeatureFlags().EnablePredictiveFailover)

	safe := ProductionSafeFeatureFlags()
	assert.NoError(t, safe.Validate())
	assert.False(t, safe.EnableIntelligentThresholds)

	ha := HighAvailabilityFeatureFlags()
	assert.NoError(t, ha.Validate())
	assert.True(t, ha.EnablePredictiveFailover)
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DefaultFailoverConfig(), cfg.Failover)
	assert.Equal(t, DefaultFeatureFlags(), cfg.Flags)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aegis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
failover:
  health_score_threshold: 0.4
  recovery_health_threshold: 0.9
probes:
  http:
    api-gateway: http://localhost:8000/health
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 0.4, cfg.Failover.HealthScoreThreshold)
	assert.Equal(t, 0.9, cfg.Failover.RecoveryHealthThreshold)
	// Unset fields keep their defaults.
	assert.Equal(t, 3, cfg.Failover.ConsecutiveFailureThreshold)
	assert.Equal(t, "http://localhost:8000/health", cfg.Probes.HTTP["api-gateway"])
}

func TestLoad_RejectsInvalidThresholds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aegis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
failover:
  health_score_threshold: 0.5
  recovery_health_threshold: 0.4
`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("AEGIS_PORT", "7070")
	t.Setenv("AEGIS_HEALTH_SCORE_THRESHOLD", "0.25")
	t.Setenv("AEGIS_MAX_FAILOVERS_PER_MINUTE", "20")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 0.25, cfg.Failover.HealthScoreThreshold)
	assert.Equal(t, 20, cfg.Failover.MaxFailoversPerMinute)
}
