// internal/probes/probe_test.go
package probes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FairForge/aegis/internal/failover"
)

func TestScore_ErrorIsZero(t *testing.T) {
	got := score(10*time.Millisecond, time.Second, errors.New("connection refused"))
	assert.Equal(t, 0.0, got)
}

func TestScore_FastProbeNearPerfect(t *testing.T) {
	got := score(10*time.Millisecond, time.Second, nil)
	assert.InDelta(t, 0.995, got, 0.001)
}

func TestScore_SlowProbeFloorsAtHalf(t *testing.T) {
	// Latency at the full timeout lands exactly on the floor.
	assert.Equal(t, 0.5, score(time.Second, time.Second, nil))
	// Even beyond it, an answered probe never drops below 0.5.
	assert.Equal(t, 0.5, score(2*time.Second, time.Second, nil))
}

func TestHTTPProbe_Statuses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthy" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	healthy := NewHTTPProbe("api", srv.URL+"/healthy")
	assert.NoError(t, healthy.Probe(context.Background()))

	unhealthy := NewHTTPProbe("api", srv.URL+"/broken")
	assert.Error(t, unhealthy.Probe(context.Background()))
}

type captureSink struct {
	mu      sync.Mutex
	signals []failover.HealthSignalEvent
}

func (s *captureSink) Enqueue(signal failover.HealthSignalEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals = append(s.signals, signal)
	return nil
}

func (s *captureSink) snapshot() []failover.HealthSignalEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]failover.HealthSignalEvent, len(s.signals))
	copy(out, s.signals)
	return out
}

type staticProbe struct {
	name string
	err  error
}

func (p *staticProbe) Name() string                  { return p.name }
func (p *staticProbe) Probe(_ context.Context) error { return p.err }

func TestScheduler_SubmitsScoredSignals(t *testing.T) {
	sink := &captureSink{}
	s := NewScheduler(20*time.Millisecond, time.Second, sink, zap.NewNop())
	s.Register(&staticProbe{name: "postgres-primary"})
	s.Register(&staticProbe{name: "redis-cache", err: errors.New("down")})

	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool {
		return len(sink.snapshot()) >= 2
	}, 2*time.Second, 10*time.Millisecond)

	byService := map[string]failover.HealthSignalEvent{}
	for _, sig := range sink.snapshot() {
		byService[sig.ServiceID] = sig
	}

	require.Contains(t, byService, "postgres-primary")
	require.Contains(t, byService, "redis-cache")
	assert.Greater(t, byService["postgres-primary"].HealthScore, 0.9)
	assert.Equal(t, 0.0, byService["redis-cache"].HealthScore)
	assert.NotZero(t, byService["postgres-primary"].Timestamp)
}
