// internal/probes/redis.go
package probes

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisProbe pings a Redis instance.
type RedisProbe struct {
	name   string
	client *redis.Client
}

// NewRedisProbe builds a probe from a redis:// URL.
func NewRedisProbe(name, url string) (*RedisProbe, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisProbe{name: name, client: redis.NewClient(opts)}, nil
}

func (p *RedisProbe) Name() string { return p.name }

func (p *RedisProbe) Probe(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close releases the client.
func (p *RedisProbe) Close() error {
	return p.client.Close()
}
