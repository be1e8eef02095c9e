// internal/probes/probe.go
package probes

import (
	"context"
	"time"
)

// Prober checks one backing service and reports whether it answered. Each
// implementation owns its client; the scheduler owns timing and scoring.
type Prober interface {
	// Name returns the service ID the probe reports for.
	Name() string
	// Probe performs one check. A nil error means the service answered.
	Probe(ctx context.Context) error
}

// Result is one scored probe outcome.
type Result struct {
	ServiceID string
	Score     float64
	Latency   time.Duration
	Err       error
}

// score converts a probe outcome into a 0.0-1.0 health score. A failed probe
// scores zero. A successful one starts at 1.0 and degrades with latency
// relative to the probe timeout, bottoming out at 0.5 so a slow-but-answering
// service still counts as a success for streak purposes.
func score(latency, timeout time.Duration, err error) float64 {
	if err != nil {
		return 0.0
	}
	if timeout <= 0 {
		return 1.0
	}

	s := 1.0 - 0.5*(float64(latency)/float64(timeout))
	if s < 0.5 {
		s = 0.5
	}
	if s > 1.0 {
		s = 1.0
	}
	return s
}
