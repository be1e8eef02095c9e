// internal/failover/recovery_runner.go
package failover

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// initiateRecovery bumps the monitor into the recovering state, registers an
// in-flight operation, and hands execution to a runner goroutine.
func (c *Coordinator) initiateRecovery(decision RecoveryDecision) {
	c.monitorsMu.Lock()
	m, ok := c.monitors[decision.ServiceID]
	if !ok {
		c.monitorsMu.Unlock()
		return
	}
	m.RecoveryAttempts++
	m.FailoverState = StatusRecovering
	c.monitorsMu.Unlock()

	now := nowMillis()
	op := &RecoveryOperation{
		ID:                 uuid.NewString(),
		ServiceID:          decision.ServiceID,
		Method:             decision.Method,
		StartTimestamp:     now,
		ExpectedCompletion: now + methodDuration(decision.Method).Milliseconds(),
		Status:             RecoveryInProgress,
	}

	c.opsMu.Lock()
	c.operations[op.ID] = op
	c.opsMu.Unlock()

	c.metricsMu.Lock()
	c.metrics.RecoveryOperationsInitiated++
	c.metricsMu.Unlock()
	if c.observer != nil {
		c.observer.RecordRecoveryInitiated(decision.ServiceID)
	}

	c.appendEvent(Event{
		ID:        uuid.NewString(),
		ServiceID: decision.ServiceID,
		Timestamp: now,
		Type:      EventRecoveryInitiated,
		Success:   true,
		Details:   decision.Reason,
	})

	c.wg.Add(1)
	go c.runRecovery(op.ID, decision)
}

// methodDuration sums the ramp durations of a gradual method; immediate and
// validation-based recoveries have no scheduled duration.
func methodDuration(m RecoveryMethod) time.Duration {
	var total time.Duration
	for _, step := range m.Steps {
		total += step.Duration
	}
	return total
}

// runRecovery executes one recovery operation to completion. The runner
// observes the shutdown signal through its context, so a ramp mid-sleep is
// abandoned cleanly on stop.
func (c *Coordinator) runRecovery(opID string, decision RecoveryDecision) {
	defer c.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-c.shutdown.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	start := time.Now()
	var err error
	switch decision.Method.Kind {
	case RecoveryGradual:
		err = c.runGradual(ctx, opID, decision)
	case RecoveryValidationBased:
		err = c.runValidationBased(ctx, decision)
	default:
		err = c.executor.RestoreService(ctx, decision.ServiceID)
	}

	c.finishRecovery(opID, decision.ServiceID, start, err)
}

// runGradual walks the traffic ramp step by step, pausing for validation
// where a step requires it.
func (c *Coordinator) runGradual(ctx context.Context, opID string, decision RecoveryDecision) error {
	for _, step := range decision.Method.Steps {
		c.setOperationStep(opID, step.Step, RecoveryInProgress)

		if err := c.executor.SetTrafficPercent(ctx, decision.ServiceID, step.TrafficPercentage); err != nil {
			return err
		}

		if step.RequiresValidation && c.validator != nil {
			c.setOperationStep(opID, step.Step, RecoveryPausedForValidation)
			if err := c.validator.ValidateStep(ctx, decision.ServiceID, step); err != nil {
				return err
			}
			c.setOperationStep(opID, step.Step, RecoveryInProgress)
		}

		if step.Duration > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(step.Duration):
			}
		}
	}

	return c.executor.RestoreService(ctx, decision.ServiceID)
}

// runValidationBased runs every registered check before restoring traffic.
// With no validator wired, the checks cannot run and recovery degrades to an
// immediate restore.
func (c *Coordinator) runValidationBased(ctx context.Context, decision RecoveryDecision) error {
	if c.validator != nil {
		for _, check := range decision.Method.Checks {
			if err := c.validator.RunCheck(ctx, decision.ServiceID, check); err != nil {
				return err
			}
		}
	}
	return c.executor.RestoreService(ctx, decision.ServiceID)
}

func (c *Coordinator) setOperationStep(opID string, step int, status RecoveryOperationStatus) {
	c.opsMu.Lock()
	defer c.opsMu.Unlock()

	if op, ok := c.operations[opID]; ok {
		op.CurrentStep = step
		op.Status = status
	}
}

// finishRecovery removes the operation and settles the monitor: healthy on
// success, back to failed-over on error so a later scan can retry.
func (c *Coordinator) finishRecovery(opID, serviceID string, start time.Time, err error) {
	c.opsMu.Lock()
	delete(c.operations, opID)
	c.opsMu.Unlock()

	c.monitorsMu.Lock()
	if m, ok := c.monitors[serviceID]; ok {
		if err == nil {
			m.FailoverState = StatusHealthy
		} else {
			m.FailoverState = StatusFailedOver
		}
	}
	c.monitorsMu.Unlock()

	duration := time.Since(start).Milliseconds()
	now := nowMillis()

	if err != nil {
		c.metricsMu.Lock()
		c.metrics.FailedRecoveries++
		c.metricsMu.Unlock()
		if c.observer != nil {
			c.observer.RecordRecoveryFailed(serviceID)
		}
		c.appendEvent(Event{
			ID:         uuid.NewString(),
			ServiceID:  serviceID,
			Timestamp:  now,
			Type:       EventRecoveryFailed,
			DurationMs: duration,
			Success:    false,
			Details:    err.Error(),
		})
		c.logger.Error("recovery failed",
			zap.String("service", serviceID), zap.Error(err))
		return
	}

	c.metricsMu.Lock()
	c.metrics.SuccessfulRecoveries++
	c.metricsMu.Unlock()
	if c.observer != nil {
		c.observer.RecordRecoverySucceeded(serviceID)
	}
	c.appendEvent(Event{
		ID:         uuid.NewString(),
		ServiceID:  serviceID,
		Timestamp:  now,
		Type:       EventRecoveryCompleted,
		DurationMs: duration,
		Success:    true,
		Details:    "service restored",
	})
	c.logger.Info("recovery completed",
		zap.String("service", serviceID),
		zap.Int64("duration_ms", duration))
}
