// internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/FairForge/aegis/internal/alerting"
	"github.com/FairForge/aegis/internal/config"
	"github.com/FairForge/aegis/internal/failover"
)

// Server is the operational HTTP surface: liveness, Prometheus metrics, and
// a small JSON API over the coordinator's state. It is read-mostly; the only
// write is a feature flag swap.
type Server struct {
	logger     *zap.Logger
	router     *mux.Router
	httpServer *http.Server

	coordinator *failover.Coordinator
	alerts      *alerting.Manager

	startTime time.Time
}

// NewServer wires the routes and builds the http.Server.
func NewServer(port int, logger *zap.Logger, coordinator *failover.Coordinator, alerts *alerting.Manager) *Server {
	s := &Server{
		logger:      logger,
		router:      mux.NewRouter(),
		coordinator: coordinator,
		alerts:      alerts,
		startTime:   time.Now(),
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	s.router.HandleFunc("/api/v1/status", s.handleStatus).Methods("GET")
	s.router.HandleFunc("/api/v1/flags", s.handleGetFlags).Methods("GET")
	s.router.HandleFunc("/api/v1/flags", s.handleUpdateFlags).Methods("PUT")
	s.router.HandleFunc("/api/v1/monitors", s.handleMonitors).Methods("GET")
	s.router.HandleFunc("/api/v1/failover/history", s.handleHistory).Methods("GET")
	s.router.HandleFunc("/api/v1/recovery/operations", s.handleRecoveryOperations).Methods("GET")
	s.router.HandleFunc("/api/v1/alerts", s.handleAlerts).Methods("GET")

	s.router.Use(s.loggingMiddleware)
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("starting ops API server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	healthy := s.coordinator.HealthCheck()

	status := http.StatusOK
	state := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "unhealthy"
	}

	s.writeJSON(w, status, map[string]interface{}{
		"status":      state,
		"coordinator": s.coordinator.State().String(),
		"uptime":      time.Since(s.startTime).Seconds(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.coordinator.GetMetrics())
}

func (s *Server) handleGetFlags(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.coordinator.FeatureFlags())
}

// handleUpdateFlags accepts a full flag set. The update is validated as a
// whole; inconsistent combinations are rejected and the running set stays.
func (s *Server) handleUpdateFlags(w http.ResponseWriter, r *http.Request) {
	var flags config.FeatureFlags
	if err := json.NewDecoder(r.Body).Decode(&flags); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid flag payload: %v", err))
		return
	}

	if err := s.coordinator.UpdateFeatureFlags(flags); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, s.coordinator.FeatureFlags())
}

func (s *Server) handleMonitors(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.coordinator.Monitors())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.coordinator.History())
}

func (s *Server) handleRecoveryOperations(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.coordinator.RecoveryOperations())
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if s.alerts == nil {
		s.writeJSON(w, http.StatusOK, []alerting.Alert{})
		return
	}
	s.writeJSON(w, http.StatusOK, s.alerts.History())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}
