// internal/config/loader.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file, falling back to defaults for
// anything unset. An empty path returns the defaults untouched.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server:   ServerConfig{Port: 8080, LogLevel: "info"},
		Failover: DefaultFailoverConfig(),
		Flags:    DefaultFeatureFlags(),
		Probes:   ProbesConfig{Interval: 5 * time.Second, Timeout: 3 * time.Second},
		Alerting: AlertingConfig{MaxAlertsPerSecond: 5, Burst: 10},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	LoadFromEnv(cfg)

	if err := cfg.Failover.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Flags.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromEnv applies environment variable overrides.
func LoadFromEnv(cfg *Config) {
	if port := os.Getenv("AEGIS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	if logLevel := os.Getenv("AEGIS_LOG_LEVEL"); logLevel != "" {
		cfg.Server.LogLevel = logLevel
	}

	if threshold := os.Getenv("AEGIS_HEALTH_SCORE_THRESHOLD"); threshold != "" {
		if v, err := strconv.ParseFloat(threshold, 64); err == nil {
			cfg.Failover.HealthScoreThreshold = v
		}
	}

	if threshold := os.Getenv("AEGIS_RECOVERY_HEALTH_THRESHOLD"); threshold != "" {
		if v, err := strconv.ParseFloat(threshold, 64); err == nil {
			cfg.Failover.RecoveryHealthThreshold = v
		}
	}

	if limit := os.Getenv("AEGIS_MAX_FAILOVERS_PER_MINUTE"); limit != "" {
		if v, err := strconv.Atoi(limit); err == nil {
			cfg.Failover.MaxFailoversPerMinute = v
		}
	}

	// Add more as needed for production
}

// GetEnvOrDefault returns environment variable or default value
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
