// internal/probes/http.go
package probes

import (
	"context"
	"fmt"
	"net/http"
)

// HTTPProbe GETs a health endpoint and expects a 2xx.
type HTTPProbe struct {
	name   string
	url    string
	client *http.Client
}

// NewHTTPProbe creates a probe for url. The scheduler's context carries the
// deadline, so the client itself has no timeout.
func NewHTTPProbe(name, url string) *HTTPProbe {
	return &HTTPProbe{name: name, url: url, client: &http.Client{}}
}

func (p *HTTPProbe) Name() string { return p.name }

func (p *HTTPProbe) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("probes: %s returned %d", p.url, resp.StatusCode)
	}
	return nil
}
