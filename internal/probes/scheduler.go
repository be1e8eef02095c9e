// internal/probes/scheduler.go
package probes

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/FairForge/aegis/internal/failover"
)

// Sink receives scored health signals. The failover coordinator satisfies it.
type Sink interface {
	Enqueue(failover.HealthSignalEvent) error
}

// Scheduler runs every registered probe on a shared interval and feeds the
// scored results into the sink. Probes run concurrently per tick; a hung
// backend is cut off by the per-probe timeout, scored zero, and the tick
// moves on.
type Scheduler struct {
	interval time.Duration
	timeout  time.Duration
	sink     Sink
	logger   *zap.Logger

	mu      sync.Mutex
	probers []Prober

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler.
func NewScheduler(interval, timeout time.Duration, sink Sink, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		interval: interval,
		timeout:  timeout,
		sink:     sink,
		logger:   logger,
	}
}

// Register adds a probe. Safe before or after Start.
func (s *Scheduler) Register(p Prober) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.probers = append(s.probers, p)
}

// Start launches the probe loop.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)
}

// Stop halts the loop and waits for in-flight probes.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	s.mu.Lock()
	probers := make([]Prober, len(s.probers))
	copy(probers, s.probers)
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, p := range probers {
		wg.Add(1)
		go func(p Prober) {
			defer wg.Done()
			s.submit(s.runProbe(ctx, p))
		}(p)
	}
	wg.Wait()
}

func (s *Scheduler) runProbe(ctx context.Context, p Prober) Result {
	probeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := p.Probe(probeCtx)
	latency := time.Since(start)

	if err != nil {
		s.logger.Warn("probe failed",
			zap.String("service", p.Name()),
			zap.Duration("latency", latency),
			zap.Error(err))
	}

	return Result{
		ServiceID: p.Name(),
		Score:     score(latency, s.timeout, err),
		Latency:   latency,
		Err:       err,
	}
}

func (s *Scheduler) submit(r Result) {
	signal := failover.HealthSignalEvent{
		ServiceID:   r.ServiceID,
		HealthScore: r.Score,
		Timestamp:   time.Now().UnixMilli(),
		Metadata:    map[string]string{"latency_ms": r.Latency.Truncate(time.Millisecond).String()},
	}

	if err := s.sink.Enqueue(signal); err != nil {
		// A full queue drops the reading; the next tick produces a fresh one.
		s.logger.Warn("health signal rejected",
			zap.String("service", r.ServiceID), zap.Error(err))
	}
}
