// internal/failover/coordinator.go
package failover

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FairForge/aegis/internal/config"
	"github.com/FairForge/aegis/internal/metrics"
)

// LifecycleState is the coordinator's own run state.
type LifecycleState int32

const (
	LifecycleStopped LifecycleState = iota
	LifecycleStarting
	LifecycleRunning
	LifecycleStopping
)

func (s LifecycleState) String() string {
	switch s {
	case LifecycleStopped:
		return "stopped"
	case LifecycleStarting:
		return "starting"
	case LifecycleRunning:
		return "running"
	case LifecycleStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

var (
	// ErrAlreadyRunning is returned by Start while the coordinator runs.
	ErrAlreadyRunning = errors.New("failover: coordinator is already running")
	// ErrAlreadyStarted is returned by Start once the signal queue receiver
	// has been taken by a previous run.
	ErrAlreadyStarted = errors.New("failover: coordinator already started")
	// ErrQueueFull is returned by Enqueue when the inbound queue is full.
	ErrQueueFull = errors.New("failover: health signal queue is full")
)

// A signal below this always counts as a failure for streak purposes,
// independent of the configurable failover trigger threshold.
const unhealthyStreakCutoff = 0.5

// Failover history is capped; the oldest trimBatch entries are evicted in
// bulk once the cap is exceeded.
const (
	historyLimit = 1000
	trimBatch    = 100
)

// Deps are the coordinator's injected collaborators. Executor defaults to a
// LogExecutor and Strategies to an empty registry; Alerts and Validator may
// stay nil.
type Deps struct {
	Executor   Executor
	Alerts     AlertSink
	Validator  Validator
	Strategies *StrategyRegistry
	Observer   *metrics.Collector
	Shutdown   ShutdownSignal
	Logger     *zap.Logger
}

// Coordinator is the automatic failover control plane: it drains the health
// signal queue, keeps per-service monitors, runs the decision and recovery
// engines, and drives the executor when either one triggers.
type Coordinator struct {
	cfg config.FailoverConfig

	flagsMu sync.RWMutex
	flags   config.FeatureFlags

	logger      *zap.Logger
	decision    *DecisionEngine
	recovery    *RecoveryEngine
	coordinated *CoordinatedManager
	strategies  *StrategyRegistry
	executor    Executor
	alerts      AlertSink
	validator   Validator
	observer    *metrics.Collector

	// Each collection has its own lock; no lock is ever held across an
	// engine or executor call.
	monitorsMu sync.Mutex
	monitors   map[string]*ActiveMonitor

	historyMu sync.Mutex
	history   []Event

	opsMu      sync.Mutex
	operations map[string]*RecoveryOperation

	metricsMu sync.Mutex
	metrics   Metrics

	signals       chan HealthSignalEvent
	receiverMu    sync.Mutex
	receiverTaken bool

	state    atomic.Int32
	shutdown ShutdownSignal
	wg       sync.WaitGroup
}

// NewCoordinator validates the configuration and flags, then builds the
// coordinator. Invalid configuration fails construction.
func NewCoordinator(cfg config.FailoverConfig, flags config.FeatureFlags, deps Deps) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := flags.Validate(); err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	executor := deps.Executor
	if executor == nil {
		executor = NewLogExecutor(logger)
	}
	strategies := deps.Strategies
	if strategies == nil {
		strategies = NewStrategyRegistry()
	}
	shutdown := deps.Shutdown
	if shutdown == nil {
		shutdown = NewShutdownSignal()
	}

	return &Coordinator{
		cfg:         cfg,
		flags:       flags,
		logger:      logger,
		decision:    NewDecisionEngine(cfg, flags),
		recovery:    NewRecoveryEngine(cfg, flags),
		coordinated: NewCoordinatedManager(flags),
		strategies:  strategies,
		executor:    executor,
		alerts:      deps.Alerts,
		validator:   deps.Validator,
		observer:    deps.Observer,
		monitors:    make(map[string]*ActiveMonitor),
		history:     make([]Event, 0),
		operations:  make(map[string]*RecoveryOperation),
		metrics:     Metrics{LastUpdated: nowMillis()},
		signals:     make(chan HealthSignalEvent, cfg.EventQueueSize),
		shutdown:    shutdown,
	}, nil
}

// Start launches the monitoring, decision, and recovery loops. It returns
// immediately; the loops run until Stop or until any loop exits. Starting a
// disabled coordinator is a successful no-op. A coordinator whose queue
// receiver was taken by a previous run cannot be started again.
func (c *Coordinator) Start() error {
	if !c.cfg.Enabled {
		c.logger.Info("automatic failover coordinator disabled by configuration")
		return nil
	}

	if !c.state.CompareAndSwap(int32(LifecycleStopped), int32(LifecycleStarting)) {
		return ErrAlreadyRunning
	}

	c.receiverMu.Lock()
	if c.receiverTaken {
		c.receiverMu.Unlock()
		c.state.Store(int32(LifecycleStopped))
		return ErrAlreadyStarted
	}
	c.receiverTaken = true
	c.receiverMu.Unlock()

	c.logger.Info("starting automatic failover coordinator")
	c.state.Store(int32(LifecycleRunning))

	c.wg.Add(3)
	go c.monitoringLoop()
	go c.decisionLoop()
	go c.recoveryLoop()

	go func() {
		c.wg.Wait()
		c.state.Store(int32(LifecycleStopped))
		c.logger.Info("automatic failover coordinator stopped")
	}()

	return nil
}

// Stop raises the shutdown signal. It does not wait for loops to finish; an
// in-flight decision completes before its loop observes the signal.
func (c *Coordinator) Stop() {
	c.logger.Info("stopping automatic failover coordinator")
	c.state.CompareAndSwap(int32(LifecycleRunning), int32(LifecycleStopping))
	c.shutdown.Notify()
}

// State returns the coordinator's lifecycle state.
func (c *Coordinator) State() LifecycleState {
	return LifecycleState(c.state.Load())
}

// Enqueue submits a health signal for processing. Many producers may call
// this concurrently; one decision loop drains the queue in FIFO order. A full
// queue rejects the signal rather than blocking the producer.
func (c *Coordinator) Enqueue(signal HealthSignalEvent) error {
	select {
	case c.signals <- signal:
		return nil
	default:
		c.metricsMu.Lock()
		c.metrics.DroppedSignals++
		c.metricsMu.Unlock()
		if c.observer != nil {
			c.observer.RecordDroppedSignal()
		}
		return ErrQueueFull
	}
}

// monitoringLoop is the integration point for the external health-probe
// collaborator; the coordinator itself only reports liveness here.
func (c *Coordinator) monitoringLoop() {
	defer c.loopDone()

	ticker := time.NewTicker(c.cfg.MonitoringInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.shutdown.Done():
			return
		case <-ticker.C:
			if c.cfg.EnableDetailedLogging {
				c.monitorsMu.Lock()
				n := len(c.monitors)
				c.monitorsMu.Unlock()
				c.logger.Debug("health monitoring tick", zap.Int("active_monitors", n))
			}
		}
	}
}

// decisionLoop blocks on the signal queue, processing in strict FIFO order
// until shutdown or the queue closes.
func (c *Coordinator) decisionLoop() {
	defer c.loopDone()

	for {
		select {
		case <-c.shutdown.Done():
			return
		case signal, ok := <-c.signals:
			if !ok {
				return
			}
			c.processSignal(signal)
		}
	}
}

// loopDone propagates one loop's exit to the others, mirroring a coordinator
// that stops when any of its loops stops.
func (c *Coordinator) loopDone() {
	c.shutdown.Notify()
	c.wg.Done()
}

// processSignal runs the full decision pipeline for one health signal. The
// engine call happens on a snapshot with no lock held, so one slow decision
// cannot stall monitor updates from other code paths.
func (c *Coordinator) processSignal(signal HealthSignalEvent) {
	c.metricsMu.Lock()
	c.metrics.HealthSignalsProcessed++
	c.metrics.LastUpdated = nowMillis()
	c.metricsMu.Unlock()
	if c.observer != nil {
		c.observer.RecordSignal()
	}

	monitor := c.updateMonitor(signal)

	// A service that already failed over (or is mid-recovery) needs no new
	// decision: re-running the executor would hammer the redirection layer
	// once per signal for the whole outage. Its signals still feed the
	// streak counters the recovery loop reads.
	if monitor.FailoverState == StatusFailedOver || monitor.FailoverState == StatusRecovering {
		if c.cfg.EnableDetailedLogging {
			c.logger.Debug("signal for mitigated service",
				zap.String("service", signal.ServiceID),
				zap.String("state", string(monitor.FailoverState)))
		}
		return
	}

	strategy := c.strategies.Resolve(signal.ServiceID)

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.CoordinationTimeout)
	defer cancel()

	start := time.Now()
	decision, err := c.decision.AnalyzeAndDecide(ctx, signal, monitor, strategy)
	elapsed := time.Since(start)

	if err != nil {
		// Decision errors drop the signal; the loop continues with the next.
		c.logger.Error("failover decision failed",
			zap.String("service", signal.ServiceID), zap.Error(err))
		return
	}

	c.metricsMu.Lock()
	c.metrics.FailoverDecisionsMade++
	n := float64(c.metrics.FailoverDecisionsMade)
	sample := float64(elapsed.Microseconds()) / 1000.0
	c.metrics.AvgDecisionTimeMs += (sample - c.metrics.AvgDecisionTimeMs) / n
	c.metricsMu.Unlock()
	if c.observer != nil {
		c.observer.RecordDecision(elapsed)
	}

	if !decision.ShouldFailover {
		if c.cfg.EnableDetailedLogging {
			c.logger.Debug("no failover",
				zap.String("service", signal.ServiceID),
				zap.String("reason", decision.Reason))
		}
		return
	}

	c.triggerFailover(ctx, signal, decision)
}

// updateMonitor looks up or creates the service monitor, applies the signal,
// and returns a snapshot copy for lock-free analysis.
func (c *Coordinator) updateMonitor(signal HealthSignalEvent) ActiveMonitor {
	c.monitorsMu.Lock()
	defer c.monitorsMu.Unlock()

	m, ok := c.monitors[signal.ServiceID]
	if !ok {
		m = &ActiveMonitor{
			ServiceID:          signal.ServiceID,
			CurrentHealthScore: signal.HealthScore,
			LastCheckTimestamp: signal.Timestamp,
		}
		c.monitors[signal.ServiceID] = m
	}

	m.CurrentHealthScore = signal.HealthScore
	m.LastCheckTimestamp = signal.Timestamp

	if signal.HealthScore < unhealthyStreakCutoff {
		m.ConsecutiveFailures++
		m.ConsecutiveSuccesses = 0
	} else {
		m.ConsecutiveSuccesses++
		m.ConsecutiveFailures = 0
	}

	return *m
}

// triggerFailover records the event, alerts, and drives the executor for the
// service and its coordinated dependents.
func (c *Coordinator) triggerFailover(ctx context.Context, signal HealthSignalEvent, decision Decision) {
	c.logger.Info("triggering automatic failover",
		zap.String("service", signal.ServiceID),
		zap.String("reason", decision.Reason),
		zap.Float64("confidence", decision.Confidence))

	c.appendEvent(Event{
		ID:         uuid.NewString(),
		ServiceID:  signal.ServiceID,
		StrategyID: decision.StrategyID,
		Timestamp:  signal.Timestamp,
		Type:       EventFailoverInitiated,
		Success:    true,
		Details:    decision.Reason,
	})

	c.metricsMu.Lock()
	c.metrics.AutomaticFailoversTriggered++
	c.metricsMu.Unlock()
	if c.observer != nil {
		c.observer.RecordFailover(signal.ServiceID)
	}

	if c.alerts != nil {
		if err := c.alerts.EvaluateMetric(ctx, "automatic_failover", "failover_triggered", 1.0); err != nil {
			// Alerting failures never abort mitigation.
			c.logger.Error("failed to send failover alert", zap.Error(err))
		}
	}

	services := append([]string{signal.ServiceID}, c.coordinated.CoordinatedServices(signal.ServiceID)...)

	start := time.Now()
	for _, serviceID := range services {
		strategy := c.strategies.Resolve(serviceID)
		if err := c.executor.ExecuteFailover(ctx, serviceID, strategy); err != nil {
			c.logger.Error("failover execution failed",
				zap.String("service", serviceID), zap.Error(err))
			c.appendEvent(Event{
				ID:         uuid.NewString(),
				ServiceID:  serviceID,
				StrategyID: decision.StrategyID,
				Timestamp:  nowMillis(),
				Type:       EventFailoverFailed,
				Success:    false,
				Details:    err.Error(),
			})
			return
		}
		// Mark each monitor the moment its own redirection succeeds. If a
		// later dependent fails, the services already redirected must still
		// be tracked as failed-over or the recovery loop never restores them.
		c.markFailedOver(serviceID)
	}

	c.appendEvent(Event{
		ID:         uuid.NewString(),
		ServiceID:  signal.ServiceID,
		StrategyID: decision.StrategyID,
		Timestamp:  nowMillis(),
		Type:       EventFailoverCompleted,
		DurationMs: time.Since(start).Milliseconds(),
		Success:    true,
		Details:    decision.Reason,
	})
}

// markFailedOver transitions a service's monitor to the failed-over state,
// creating the monitor if the service (a coordinated dependent, typically)
// has not reported a signal yet.
func (c *Coordinator) markFailedOver(serviceID string) {
	c.monitorsMu.Lock()
	defer c.monitorsMu.Unlock()

	m, ok := c.monitors[serviceID]
	if !ok {
		m = &ActiveMonitor{ServiceID: serviceID}
		c.monitors[serviceID] = m
	}
	m.FailoverState = StatusFailedOver
	m.LastFailoverTimestamp = nowMillis()
}

// recoveryLoop periodically scans failed-over services for recovery.
func (c *Coordinator) recoveryLoop() {
	defer c.loopDone()

	ticker := time.NewTicker(c.cfg.RecoveryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.shutdown.Done():
			return
		case <-ticker.C:
			c.scanForRecovery()
		}
	}
}

// scanForRecovery feeds the latest known score of every failed-over monitor
// to the recovery engine, using a snapshot so no lock spans the engine call.
func (c *Coordinator) scanForRecovery() {
	for _, monitor := range c.Monitors() {
		if monitor.FailoverState != StatusFailedOver {
			continue
		}

		signal := HealthSignalEvent{
			ServiceID:   monitor.ServiceID,
			HealthScore: monitor.CurrentHealthScore,
			Timestamp:   nowMillis(),
			Metadata:    map[string]string{},
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.CoordinationTimeout)
		decision, err := c.recovery.AnalyzeRecovery(ctx, signal, monitor)
		cancel()
		if err != nil {
			c.logger.Error("recovery analysis failed",
				zap.String("service", monitor.ServiceID), zap.Error(err))
			continue
		}
		if !decision.ShouldRecover {
			continue
		}

		c.logger.Info("initiating automatic recovery",
			zap.String("service", monitor.ServiceID),
			zap.String("reason", decision.Reason),
			zap.Float64("confidence", decision.Confidence))

		c.initiateRecovery(decision)
	}
}

// appendEvent appends to the failover history, evicting the oldest batch
// when the cap is exceeded.
func (c *Coordinator) appendEvent(event Event) {
	c.historyMu.Lock()
	defer c.historyMu.Unlock()

	c.history = append(c.history, event)
	if len(c.history) > historyLimit {
		trimmed := make([]Event, len(c.history)-trimBatch)
		copy(trimmed, c.history[trimBatch:])
		c.history = trimmed
	}
}

// GetMetrics returns a point-in-time snapshot, with the two active counts
// recomputed live from current state.
func (c *Coordinator) GetMetrics() Metrics {
	c.metricsMu.Lock()
	snapshot := c.metrics
	c.metricsMu.Unlock()

	c.monitorsMu.Lock()
	snapshot.ActiveMonitorsCount = len(c.monitors)
	c.monitorsMu.Unlock()

	c.opsMu.Lock()
	snapshot.ActiveRecoveryOperationCount = len(c.operations)
	c.opsMu.Unlock()

	if c.observer != nil {
		c.observer.SetActiveMonitors(snapshot.ActiveMonitorsCount)
		c.observer.SetActiveRecoveries(snapshot.ActiveRecoveryOperationCount)
	}

	return snapshot
}

// FeatureFlags returns the current feature flags.
func (c *Coordinator) FeatureFlags() config.FeatureFlags {
	c.flagsMu.RLock()
	defer c.flagsMu.RUnlock()
	return c.flags
}

// UpdateFeatureFlags re-validates and swaps in new flags, propagating them to
// every engine. An invalid set is rejected with no state change.
func (c *Coordinator) UpdateFeatureFlags(flags config.FeatureFlags) error {
	if err := flags.Validate(); err != nil {
		return err
	}

	c.flagsMu.Lock()
	c.flags = flags
	c.flagsMu.Unlock()

	c.decision.SetFeatureFlags(flags)
	c.recovery.SetFeatureFlags(flags)
	c.coordinated.SetFeatureFlags(flags)

	c.logger.Info("feature flags updated")
	return nil
}

// HealthCheck reports the coordinator's own liveness: running, and either
// watching something or deliberately disabled.
func (c *Coordinator) HealthCheck() bool {
	running := c.State() == LifecycleRunning

	c.monitorsMu.Lock()
	hasMonitors := len(c.monitors) > 0
	c.monitorsMu.Unlock()

	return running && (hasMonitors || !c.cfg.Enabled)
}

// Monitors returns a snapshot of all active monitors.
func (c *Coordinator) Monitors() []ActiveMonitor {
	c.monitorsMu.Lock()
	defer c.monitorsMu.Unlock()

	out := make([]ActiveMonitor, 0, len(c.monitors))
	for _, m := range c.monitors {
		out = append(out, *m)
	}
	return out
}

// History returns a copy of the failover event history.
func (c *Coordinator) History() []Event {
	c.historyMu.Lock()
	defer c.historyMu.Unlock()

	out := make([]Event, len(c.history))
	copy(out, c.history)
	return out
}

// RecoveryOperations returns a snapshot of in-flight recoveries.
func (c *Coordinator) RecoveryOperations() []RecoveryOperation {
	c.opsMu.Lock()
	defer c.opsMu.Unlock()

	out := make([]RecoveryOperation, 0, len(c.operations))
	for _, op := range c.operations {
		out = append(out, *op)
	}
	return out
}

// RegisterDependencies records dependents for coordinated failover.
func (c *Coordinator) RegisterDependencies(serviceID string, dependents []string) {
	c.coordinated.RegisterDependencies(serviceID, dependents)
}

// RegisterStrategy installs a failover strategy for its service.
func (c *Coordinator) RegisterStrategy(s Strategy) {
	c.strategies.Register(s)
}

// RegisterValidationChecks attaches validation-based recovery checks.
func (c *Coordinator) RegisterValidationChecks(serviceID string, checks []string) {
	c.recovery.RegisterValidationChecks(serviceID, checks)
}
