// cmd/aegis/main.go
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/FairForge/aegis/internal/alerting"
	"github.com/FairForge/aegis/internal/api"
	"github.com/FairForge/aegis/internal/config"
	"github.com/FairForge/aegis/internal/failover"
	"github.com/FairForge/aegis/internal/metrics"
	"github.com/FairForge/aegis/internal/probes"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flagsPath := flag.String("flags", "", "path to feature flags file to hot-reload")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// No logger yet.
		panic(err)
	}

	logger := newLogger(cfg.Server.LogLevel)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting aegis",
		zap.Int("port", cfg.Server.Port),
		zap.Bool("failover_enabled", cfg.Failover.Enabled))

	alerts := alerting.NewManager(logger,
		float64(cfg.Alerting.MaxAlertsPerSecond), cfg.Alerting.Burst)
	if err := alerts.AddRule(alerting.Rule{
		Category:   "automatic_failover",
		MetricName: "failover_triggered",
		Operator:   alerting.OpGreaterOrEqual,
		Threshold:  1.0,
		Severity:   alerting.SeverityCritical,
		Message:    "automatic failover executed",
	}); err != nil {
		logger.Fatal("failed to register alert rule", zap.Error(err))
	}

	var observer *metrics.Collector
	if cfg.Failover.EnableMetrics {
		observer = metrics.NewCollector()
	}

	coordinator, err := failover.NewCoordinator(cfg.Failover, cfg.Flags, failover.Deps{
		Executor: failover.NewLogExecutor(logger),
		Alerts:   alerts,
		Observer: observer,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("failed to build coordinator", zap.Error(err))
	}

	if err := coordinator.Start(); err != nil {
		logger.Fatal("failed to start coordinator", zap.Error(err))
	}

	scheduler := probes.NewScheduler(cfg.Probes.Interval, cfg.Probes.Timeout, coordinator, logger)
	registerProbes(scheduler, cfg, logger)
	scheduler.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *flagsPath != "" {
		watcher, err := config.NewFlagWatcher(*flagsPath, coordinator.UpdateFeatureFlags, logger)
		if err != nil {
			logger.Fatal("failed to watch flags file", zap.Error(err))
		}
		go watcher.Run(ctx)
	}

	server := api.NewServer(cfg.Server.Port, logger, coordinator, alerts)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error("ops API server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("ops API shutdown failed", zap.Error(err))
	}

	scheduler.Stop()
	coordinator.Stop()
}

func newLogger(level string) *zap.Logger {
	zapCfg := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		zapCfg.Level = lvl
	}

	logger, err := zapCfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

func registerProbes(s *probes.Scheduler, cfg *config.Config, logger *zap.Logger) {
	for serviceID, dsn := range cfg.Probes.Postgres {
		p, err := probes.NewPostgresProbe(serviceID, dsn)
		if err != nil {
			logger.Fatal("failed to create postgres probe",
				zap.String("service", serviceID), zap.Error(err))
		}
		s.Register(p)
	}

	for serviceID, url := range cfg.Probes.Redis {
		p, err := probes.NewRedisProbe(serviceID, url)
		if err != nil {
			logger.Fatal("failed to create redis probe",
				zap.String("service", serviceID), zap.Error(err))
		}
		s.Register(p)
	}

	for serviceID, bucket := range cfg.Probes.S3 {
		p, err := probes.NewS3Probe(context.Background(), serviceID, probes.S3Config{
			Endpoint:  os.Getenv("AEGIS_S3_ENDPOINT"),
			Region:    config.GetEnvOrDefault("AEGIS_S3_REGION", "us-east-1"),
			Bucket:    bucket,
			AccessKey: os.Getenv("AEGIS_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("AEGIS_S3_SECRET_KEY"),
		})
		if err != nil {
			logger.Fatal("failed to create s3 probe",
				zap.String("service", serviceID), zap.Error(err))
		}
		s.Register(p)
	}

	for serviceID, url := range cfg.Probes.HTTP {
		s.Register(probes.NewHTTPProbe(serviceID, url))
	}
}
