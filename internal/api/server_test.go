// internal/api/server_test.go
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FairForge/aegis/internal/config"
	"github.com/FairForge/aegis/internal/failover"
)

func newTestServer(t *testing.T) (*Server, *failover.Coordinator) {
	t.Helper()

	cfg := config.DefaultFailoverConfig()
	cfg.DecisionInterval = 10 * time.Millisecond

	coordinator, err := failover.NewCoordinator(
		cfg,
		config.DefaultFeatureFlags(),
		failover.Deps{Logger: zap.NewNop()},
	)
	require.NoError(t, err)

	return NewServer(9000, zap.NewNop(), coordinator, nil), coordinator
}

func TestServer_Health(t *testing.T) {
	srv, coordinator := newTestServer(t)

	// Not started yet: unhealthy.
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	require.NoError(t, coordinator.Start())
	defer coordinator.Stop()
	require.NoError(t, coordinator.Enqueue(failover.HealthSignalEvent{
		ServiceID:   "postgres-primary",
		HealthScore: 0.95,
		Timestamp:   1,
	}))

	assert.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
		return rec.Code == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServer_GetFlags(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/flags", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var flags config.FeatureFlags
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&flags))
	assert.True(t, flags.EnableAutomaticFailover)
	assert.False(t, flags.EnablePredictiveFailover)
}

func TestServer_UpdateFlags_RejectsInconsistent(t *testing.T) {
	srv, coordinator := newTestServer(t)

	// Automatic failover without manual override must be refused.
	flags := config.DefaultFeatureFlags()
	flags.EnableManualOverride = false
	body, err := json.Marshal(flags)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("PUT", "/api/v1/flags", bytes.NewReader(body)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.True(t, coordinator.FeatureFlags().EnableManualOverride)
}

func TestServer_UpdateFlags_AppliesValidSet(t *testing.T) {
	srv, coordinator := newTestServer(t)

	flags := config.ProductionSafeFeatureFlags()
	body, err := json.Marshal(flags)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("PUT", "/api/v1/flags", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, flags, coordinator.FeatureFlags())
}

func TestServer_MonitorsAndHistory(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/monitors", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var monitors []failover.ActiveMonitor
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&monitors))
	assert.Empty(t, monitors)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/failover/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var history []failover.Event
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&history))
	assert.Empty(t, history)
}
