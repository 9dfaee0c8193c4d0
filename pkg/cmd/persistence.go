// Package cmd wires shared infrastructure for the studyflow binaries.
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/nstri/studyflow/pkg/log"
	"github.com/nstri/studyflow/pkg/persistence"
	"github.com/nstri/studyflow/pkg/persistence/file"
	"github.com/nstri/studyflow/pkg/persistence/postgresql"
	"github.com/nstri/studyflow/pkg/persistence/redis"
)

// NewPersistence selects a persistence adapter by URL scheme: file://,
// redis:// or postgres://. A bare path is treated as a file root.
func NewPersistence(ctx context.Context, persistenceURL string) (persistence.Persistence, error) {
	switch parseProvider(persistenceURL) {
	case "redis":
		return redis.NewPersistence(ctx, persistenceURL)
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, log.WithModule("postgresql"), persistenceURL)
	case "file":
		return file.NewPersistence(persistenceURL)
	default:
		return nil, fmt.Errorf("unsupported persistence url: %s", persistenceURL)
	}
}

func parseProvider(persistenceURL string) string {
	parts := strings.SplitN(persistenceURL, "://", 2)
	if len(parts) < 2 {
		return "file"
	}

	switch parts[0] {
	case "file", "redis", "postgres", "postgresql":
		return parts[0]
	default:
		return ""
	}
}
