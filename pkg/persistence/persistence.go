// Package persistence defines the durable storage ports for the workflow
// state blob and the per-artifact schema version histories.
package persistence

import "context"

// BlobStore persists the whole workflow state under a single fixed key.
// ReadState returns (nil, nil) when no state has been written yet.
type BlobStore interface {
	ReadState(ctx context.Context) ([]byte, error)
	WriteState(ctx context.Context, data []byte) error
}

// HistoryStore persists one schema version history per artifact key.
// ReadHistory returns (nil, nil) when no history exists for the key.
type HistoryStore interface {
	ReadHistory(ctx context.Context, artifactKey string) ([]byte, error)
	WriteHistory(ctx context.Context, artifactKey string, data []byte) error
}

// Persistence is the full storage surface an adapter must provide.
type Persistence interface {
	BlobStore
	HistoryStore

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
