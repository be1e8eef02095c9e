// internal/failover/executor.go
package failover

import (
	"context"

	"go.uber.org/zap"
)

// Executor performs the actual traffic redirection for a decided failover or
// recovery. The coordinator decides; the executor acts. Implementations live
// with the host (DNS swaps, connection-string rotation, LB reconfiguration).
type Executor interface {
	// ExecuteFailover redirects serviceID away from its primary. strategy may
	// be nil when no strategy is registered for the service.
	ExecuteFailover(ctx context.Context, serviceID string, strategy *Strategy) error

	// SetTrafficPercent routes the given fraction (0.0-1.0) of traffic back
	// to the recovering service.
	SetTrafficPercent(ctx context.Context, serviceID string, percent float64) error

	// RestoreService returns serviceID fully to its primary.
	RestoreService(ctx context.Context, serviceID string) error
}

// AlertSink receives metric evaluations from the decision loop. Failures are
// logged and absorbed; observability must never block mitigation.
type AlertSink interface {
	EvaluateMetric(ctx context.Context, category, metricName string, value float64) error
}

// Validator gates recovery steps and runs validation-based recovery checks.
type Validator interface {
	ValidateStep(ctx context.Context, serviceID string, step RecoveryStep) error
	RunCheck(ctx context.Context, serviceID, check string) error
}

// LogExecutor is a reference Executor that only logs. Hosts without a real
// redirection layer can run the coordinator end to end with it.
type LogExecutor struct {
	logger *zap.Logger
}

// NewLogExecutor creates a logging executor.
func NewLogExecutor(logger *zap.Logger) *LogExecutor {
	return &LogExecutor{logger: logger}
}

func (e *LogExecutor) ExecuteFailover(ctx context.Context, serviceID string, strategy *Strategy) error {
	if strategy != nil {
		e.logger.Info("executing failover",
			zap.String("service", serviceID),
			zap.String("strategy", strategy.ID),
			zap.String("type", string(strategy.FailoverType)),
			zap.String("target", strategy.SecondaryTarget))
		return nil
	}
	e.logger.Info("executing failover", zap.String("service", serviceID))
	return nil
}

func (e *LogExecutor) SetTrafficPercent(ctx context.Context, serviceID string, percent float64) error {
	e.logger.Info("shifting traffic",
		zap.String("service", serviceID),
		zap.Float64("percent", percent))
	return nil
}

func (e *LogExecutor) RestoreService(ctx context.Context, serviceID string) error {
	e.logger.Info("restoring service", zap.String("service", serviceID))
	return nil
}
