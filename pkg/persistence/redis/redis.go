// Package redis provides Redis-backed persistence for the workflow state and
// schema version histories.
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

const (
	stateKey      = "studyflow:state"
	historyPrefix = "studyflow:history:"
)

// Persistence implements persistence.Persistence on a Redis client.
type Persistence struct {
	client goredis.UniversalClient
}

// NewPersistence connects to Redis using the given URL
// (redis://[user:pass@]host:port/db).
func NewPersistence(ctx context.Context, url string) (*Persistence, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := goredis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Persistence{client: client}, nil
}

// NewPersistenceWithClient wraps an existing client. Used by tests.
func NewPersistenceWithClient(client goredis.UniversalClient) *Persistence {
	return &Persistence{client: client}
}

func (p *Persistence) ReadState(ctx context.Context) ([]byte, error) {
	return p.read(ctx, stateKey)
}

func (p *Persistence) WriteState(ctx context.Context, data []byte) error {
	if err := p.client.Set(ctx, stateKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}

	return nil
}

func (p *Persistence) ReadHistory(ctx context.Context, artifactKey string) ([]byte, error) {
	return p.read(ctx, historyPrefix+artifactKey)
}

func (p *Persistence) WriteHistory(ctx context.Context, artifactKey string, data []byte) error {
	if err := p.client.Set(ctx, historyPrefix+artifactKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write history for %s: %w", artifactKey, err)
	}

	return nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}

func (p *Persistence) read(ctx context.Context, key string) ([]byte, error) {
	data, err := p.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	return data, nil
}
