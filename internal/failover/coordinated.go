// internal/failover/coordinated.go
package failover

import (
	"sync"

	"github.com/FairForge/aegis/internal/config"
)

// CoordinatedManager tracks which services must fail over together. The
// dependency graph is static, registered at bootstrap; the coordinator
// consults it before executing a failover so dependents are redirected in the
// same operation instead of discovered as broken afterward.
type CoordinatedManager struct {
	mu           sync.RWMutex
	flags        config.FeatureFlags
	dependencies map[string][]string
}

// NewCoordinatedManager creates a coordinated failover manager.
func NewCoordinatedManager(flags config.FeatureFlags) *CoordinatedManager {
	return &CoordinatedManager{
		flags:        flags,
		dependencies: make(map[string][]string),
	}
}

// SetFeatureFlags swaps in new flags.
func (m *CoordinatedManager) SetFeatureFlags(flags config.FeatureFlags) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags = flags
}

// RegisterDependencies records the services that depend on serviceID.
func (m *CoordinatedManager) RegisterDependencies(serviceID string, dependents []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dependencies[serviceID] = dependents
}

// CoordinatedServices returns the dependents that should fail over together
// with serviceID. Empty when coordinated failover is disabled or nothing is
// registered.
func (m *CoordinatedManager) CoordinatedServices(serviceID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.flags.EnableCoordinatedFailover {
		return nil
	}

	deps := m.dependencies[serviceID]
	if len(deps) == 0 {
		return nil
	}
	out := make([]string, len(deps))
	copy(out, deps)
	return out
}
