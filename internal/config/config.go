// internal/config/config.go
package config

import (
	"errors"
	"time"
)

// Config is the root configuration for the aegis host process.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Failover FailoverConfig `yaml:"failover"`
	Flags    FeatureFlags   `yaml:"feature_flags"`
	Probes   ProbesConfig   `yaml:"probes"`
	Alerting AlertingConfig `yaml:"alerting"`
}

type ServerConfig struct {
	Port     int    `yaml:"port" default:"8080"`
	LogLevel string `yaml:"log_level" default:"info"`
}

// FailoverConfig tunes the automatic failover coordinator.
type FailoverConfig struct {
	Enabled bool `yaml:"enabled"`

	// Loop intervals
	MonitoringInterval time.Duration `yaml:"monitoring_interval"`
	DecisionInterval   time.Duration `yaml:"decision_interval"`
	RecoveryInterval   time.Duration `yaml:"recovery_interval"`

	// Failover triggers
	MaxFailoversPerMinute       int     `yaml:"max_failovers_per_minute"`
	HealthScoreThreshold        float64 `yaml:"health_score_threshold"`
	ConsecutiveFailureThreshold int     `yaml:"consecutive_failure_threshold"`

	// Recovery triggers
	RecoveryHealthThreshold  float64 `yaml:"recovery_health_threshold"`
	RecoverySuccessThreshold int     `yaml:"recovery_success_threshold"`
	MaxRecoveryAttempts      int     `yaml:"max_recovery_attempts"`

	// Multi-service coordination
	CoordinationTimeout time.Duration `yaml:"coordination_timeout"`

	// Event processing
	EventQueueSize int `yaml:"event_queue_size"`

	EnableDetailedLogging bool `yaml:"enable_detailed_logging"`
	EnableMetrics         bool `yaml:"enable_metrics"`
}

// DefaultFailoverConfig returns the baseline tuning.
func DefaultFailoverConfig() FailoverConfig {
	return FailoverConfig{
		Enabled:                     true,
		MonitoringInterval:          5 * time.Second,
		DecisionInterval:            1 * time.Second,
		RecoveryInterval:            10 * time.Second,
		MaxFailoversPerMinute:       10,
		HealthScoreThreshold:        0.3,
		ConsecutiveFailureThreshold: 3,
		RecoveryHealthThreshold:     0.8,
		RecoverySuccessThreshold:    5,
		MaxRecoveryAttempts:         3,
		CoordinationTimeout:         30 * time.Second,
		EventQueueSize:              1000,
		EnableDetailedLogging:       true,
		EnableMetrics:               true,
	}
}

// HighSensitivityFailoverConfig reacts quickly, for critical services.
func HighSensitivityFailoverConfig() FailoverConfig {
	cfg := DefaultFailoverConfig()
	cfg.MonitoringInterval = 2 * time.Second
	cfg.DecisionInterval = 500 * time.Millisecond
	cfg.HealthScoreThreshold = 0.5
	cfg.ConsecutiveFailureThreshold = 2
	cfg.RecoveryHealthThreshold = 0.9
	cfg.MaxFailoversPerMinute = 20
	return cfg
}

// ConservativeFailoverConfig tolerates more noise, for stable services.
func ConservativeFailoverConfig() FailoverConfig {
	cfg := DefaultFailoverConfig()
	cfg.MonitoringInterval = 15 * time.Second
	cfg.DecisionInterval = 5 * time.Second
	cfg.HealthScoreThreshold = 0.2
	cfg.ConsecutiveFailureThreshold = 5
	cfg.RecoveryHealthThreshold = 0.7
	cfg.MaxFailoversPerMinute = 5
	return cfg
}

// Validate checks threshold relationships. Invalid configuration is fatal at
// construction time, never silently corrected.
func (c *FailoverConfig) Validate() error {
	if c.HealthScoreThreshold < 0.0 || c.HealthScoreThreshold > 1.0 {
		return errors.New("config: health score threshold must be between 0.0 and 1.0")
	}
	if c.RecoveryHealthThreshold < 0.0 || c.RecoveryHealthThreshold > 1.0 {
		return errors.New("config: recovery health threshold must be between 0.0 and 1.0")
	}
	if c.RecoveryHealthThreshold <= c.HealthScoreThreshold {
		return errors.New("config: recovery health threshold must be higher than failover threshold")
	}
	if c.ConsecutiveFailureThreshold <= 0 {
		return errors.New("config: consecutive failure threshold must be greater than 0")
	}
	if c.EventQueueSize <= 0 {
		return errors.New("config: event queue size must be greater than 0")
	}
	if c.MonitoringInterval <= 0 || c.DecisionInterval <= 0 || c.RecoveryInterval <= 0 {
		return errors.New("config: loop intervals must be greater than 0")
	}
	return nil
}

// ProbesConfig configures the host-side health probes.
type ProbesConfig struct {
	Interval time.Duration     `yaml:"interval"`
	Timeout  time.Duration     `yaml:"timeout"`
	Postgres map[string]string `yaml:"postgres"` // service_id -> DSN
	Redis    map[string]string `yaml:"redis"`    // service_id -> addr
	S3       map[string]string `yaml:"s3"`       // service_id -> bucket
	HTTP     map[string]string `yaml:"http"`     // service_id -> URL
}

// AlertingConfig configures the alert sink.
type AlertingConfig struct {
	MaxAlertsPerSecond int `yaml:"max_alerts_per_second"`
	Burst              int `yaml:"burst"`
}
