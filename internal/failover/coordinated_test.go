// internal/failover/coordinated_test.go
package failover

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FairForge/aegis/internal/config"
)

func TestCoordinatedManager_ReturnsRegisteredDependents(t *testing.T) {
	m := NewCoordinatedManager(config.DefaultFeatureFlags())
	m.RegisterDependencies("postgres-primary", []string{"api-gateway", "report-worker"})

	assert.Equal(t, []string{"api-gateway", "report-worker"}, m.CoordinatedServices("postgres-primary"))
	assert.Nil(t, m.CoordinatedServices("redis-cache"))
}

func TestCoordinatedManager_DisabledFlagReturnsNothing(t *testing.T) {
	flags := config.DefaultFeatureFlags()
	flags.EnableCoordinatedFailover = false
	flags.EnableDependencyAwareFailover = true

	m := NewCoordinatedManager(flags)
	m.RegisterDependencies("postgres-primary", []string{"api-gateway"})

	assert.Nil(t, m.CoordinatedServices("postgres-primary"))

	// Re-enabling through a flag swap brings the graph back.
	m.SetFeatureFlags(config.DefaultFeatureFlags())
	assert.Equal(t, []string{"api-gateway"}, m.CoordinatedServices("postgres-primary"))
}

func TestCoordinatedManager_ReturnsCopy(t *testing.T) {
	m := NewCoordinatedManager(config.DefaultFeatureFlags())
	m.RegisterDependencies("postgres-primary", []string{"api-gateway"})

	got := m.CoordinatedServices("postgres-primary")
	got[0] = "mutated"

	assert.Equal(t, []string{"api-gateway"}, m.CoordinatedServices("postgres-primary"))
}

func TestStrategyRegistry_ResolveAndList(t *testing.T) {
	r := NewStrategyRegistry()
	assert.Nil(t, r.Resolve("postgres-primary"))

	r.Register(Strategy{
		ID:              "pg-dr-1",
		ServiceID:       "postgres-primary",
		FailoverType:    FailoverTypeDatabase,
		PrimaryTarget:   "pg-east",
		SecondaryTarget: "pg-west",
	})

	got := r.Resolve("postgres-primary")
	if assert.NotNil(t, got) {
		assert.Equal(t, "pg-dr-1", got.ID)
		assert.Equal(t, "pg-west", got.SecondaryTarget)
	}

	// Re-registering replaces.
	r.Register(Strategy{ID: "pg-dr-2", ServiceID: "postgres-primary", FailoverType: FailoverTypeDatabase})
	assert.Equal(t, "pg-dr-2", r.Resolve("postgres-primary").ID)
	assert.Len(t, r.List(), 1)
}
