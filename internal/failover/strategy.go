// internal/failover/strategy.go
package failover

import "sync"

// StrategyRegistry resolves the active failover strategy for a service. The
// host registers strategies at bootstrap; the decision loop resolves from
// here so decisions carry a real strategy ID and failover type instead of a
// placeholder.
type StrategyRegistry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy // keyed by service ID
}

// NewStrategyRegistry creates an empty registry.
func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{strategies: make(map[string]Strategy)}
}

// Register installs or replaces the strategy for its service.
func (r *StrategyRegistry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[s.ServiceID] = s
}

// Resolve returns the strategy for serviceID, or nil if none is registered.
func (r *StrategyRegistry) Resolve(serviceID string) *Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if s, ok := r.strategies[serviceID]; ok {
		return &s
	}
	return nil
}

// List returns all registered strategies.
func (r *StrategyRegistry) List() []Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Strategy, 0, len(r.strategies))
	for _, s := range r.strategies {
		out = append(out, s)
	}
	return out
}
