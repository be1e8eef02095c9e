// internal/config/flags.go
package config

import "errors"

// FeatureFlags gates each failover capability independently so production
// rollout can be staged one behavior at a time.
type FeatureFlags struct {
	// Enable automatic failover detection and execution
	EnableAutomaticFailover bool `yaml:"enable_automatic_failover" json:"enable_automatic_failover"`
	// Enable automatic recovery detection and restoration
	EnableAutomaticRecovery bool `yaml:"enable_automatic_recovery" json:"enable_automatic_recovery"`
	// Enable coordinated failover across multiple services
	EnableCoordinatedFailover bool `yaml:"enable_coordinated_failover" json:"enable_coordinated_failover"`
	// Enable intelligent threshold adaptation
	EnableIntelligentThresholds bool `yaml:"enable_intelligent_thresholds" json:"enable_intelligent_thresholds"`
	// Enable predictive failover based on trends
	EnablePredictiveFailover bool `yaml:"enable_predictive_failover" json:"enable_predictive_failover"`
	// Enable dependency-aware failover sequencing
	EnableDependencyAwareFailover bool `yaml:"enable_dependency_aware_failover" json:"enable_dependency_aware_failover"`
	// Enable failover rate limiting to prevent thrashing
	EnableFailoverRateLimiting bool `yaml:"enable_failover_rate_limiting" json:"enable_failover_rate_limiting"`
	// Enable cascading failure protection
	EnableCascadingProtection bool `yaml:"enable_cascading_protection" json:"enable_cascading_protection"`
	// Enable manual override capabilities
	EnableManualOverride bool `yaml:"enable_manual_override" json:"enable_manual_override"`
	// Enable database automatic failover
	EnableDatabaseAutoFailover bool `yaml:"enable_database_auto_failover" json:"enable_database_auto_failover"`
	// Enable KV store automatic failover
	EnableKVAutoFailover bool `yaml:"enable_kv_auto_failover" json:"enable_kv_auto_failover"`
	// Enable blob storage automatic failover
	EnableStorageAutoFailover bool `yaml:"enable_storage_auto_failover" json:"enable_storage_auto_failover"`
	// Enable API automatic failover
	EnableAPIAutoFailover bool `yaml:"enable_api_auto_failover" json:"enable_api_auto_failover"`
	// Enable gradual recovery with traffic shifting
	EnableGradualRecovery bool `yaml:"enable_gradual_recovery" json:"enable_gradual_recovery"`
	// Enable health score integration for decisions
	EnableHealthScoreIntegration bool `yaml:"enable_health_score_integration" json:"enable_health_score_integration"`
	// Enable circuit breaker integration
	EnableCircuitBreakerIntegration bool `yaml:"enable_circuit_breaker_integration" json:"enable_circuit_breaker_integration"`
}

// DefaultFeatureFlags enables everything except predictive failover.
func DefaultFeatureFlags() FeatureFlags {
	return FeatureFlags{
		EnableAutomaticFailover:         true,
		EnableAutomaticRecovery:         true,
		EnableCoordinatedFailover:       true,
		EnableIntelligentThresholds:     true,
		EnablePredictiveFailover:        false, // Conservative default
		EnableDependencyAwareFailover:   true,
		EnableFailoverRateLimiting:      true,
		EnableCascadingProtection:       true,
		EnableManualOverride:            true,
		EnableDatabaseAutoFailover:      true,
		EnableKVAutoFailover:            true,
		EnableStorageAutoFailover:       true,
		EnableAPIAutoFailover:           true,
		EnableGradualRecovery:           true,
		EnableHealthScoreIntegration:    true,
		EnableCircuitBreakerIntegration: true,
	}
}

// ProductionSafeFeatureFlags disables the adaptive behaviors.
func ProductionSafeFeatureFlags() FeatureFlags {
	flags := DefaultFeatureFlags()
	flags.EnablePredictiveFailover = false
	flags.EnableIntelligentThresholds = false
	return flags
}

// HighAvailabilityFeatureFlags enables aggressive failover.
func HighAvailabilityFeatureFlags() FeatureFlags {
	flags := DefaultFeatureFlags()
	flags.EnablePredictiveFailover = true
	flags.EnableIntelligentThresholds = true
	return flags
}

// Validate enforces the flag cross-requirements.
func (f *FeatureFlags) Validate() error {
	if f.EnableAutomaticFailover && !f.EnableManualOverride {
		return errors.New("config: manual override must be enabled when automatic failover is enabled")
	}
	if f.EnableCoordinatedFailover && !f.EnableDependencyAwareFailover {
		return errors.New("config: dependency-aware failover must be enabled for coordinated failover")
	}
	return nil
}
