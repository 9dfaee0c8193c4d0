// Package snapshot owns the append-only revision history of schema
// documents, one history per artifact key.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nstri/studyflow/pkg/diff"
	"github.com/nstri/studyflow/pkg/models"
	"github.com/nstri/studyflow/pkg/otelhelper"
	"github.com/nstri/studyflow/pkg/persistence"
)

// MaxRetained is the number of snapshots kept per artifact key. Older
// snapshots are dropped from the front; survivors keep their revision
// numbers.
const MaxRetained = 20

// Store reads and writes the revision history for schema documents. Only the
// document payloads are persisted; change summaries are replayed through the
// diff engine on load, so they always reflect the current diff algorithm.
type Store struct {
	history persistence.HistoryStore
	logger  *slog.Logger
	tracer  trace.Tracer
	retain  int
}

// NewStore creates a snapshot store over the given history port.
func NewStore(history persistence.HistoryStore, logger *slog.Logger) *Store {
	return &Store{
		history: history,
		logger:  logger.With("module", "snapshot"),
		tracer:  otelhelper.NopTracer(),
		retain:  MaxRetained,
	}
}

// WithTracer enables span emission on store operations.
func (s *Store) WithTracer(tracer trace.Tracer) *Store {
	s.tracer = tracer

	return s
}

// Load returns the retained history for the artifact key, oldest first.
// Missing, malformed or non-array payloads all degrade to an empty history:
// the store never blocks the user on a corrupt read, it starts fresh.
func (s *Store) Load(ctx context.Context, artifactKey string) []*models.Snapshot {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "snapshot.load",
		attribute.String(otelhelper.ArtifactKeyKey, artifactKey))
	defer span.End()

	raw, err := s.history.ReadHistory(ctx, artifactKey)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to read history, starting fresh", "artifact_key", artifactKey, "error", err)

		return []*models.Snapshot{}
	}

	if len(raw) == 0 {
		return []*models.Snapshot{}
	}

	var documents []*models.Document

	if err := json.Unmarshal(raw, &documents); err != nil {
		s.logger.WarnContext(ctx, "Malformed history payload, starting fresh", "artifact_key", artifactKey, "error", err)

		return []*models.Snapshot{}
	}

	snapshots := make([]*models.Snapshot, 0, len(documents))

	var prev *models.Document

	for _, document := range documents {
		if document == nil {
			continue
		}

		snapshots = append(snapshots, &models.Snapshot{
			Document: document,
			Summary:  diff.Summarize(prev, document),
		})

		prev = document
	}

	return snapshots
}

// Head returns the latest snapshot, or nil when the history is empty.
func (s *Store) Head(ctx context.Context, artifactKey string) *models.Snapshot {
	history := s.Load(ctx, artifactKey)
	if len(history) == 0 {
		return nil
	}

	return history[len(history)-1]
}

// Commit appends a new revision. The revision number continues from the
// history head, or from the incoming document's own revision when that is
// higher (a working draft restored from an earlier session must never regress
// the numbering). Write failures propagate to the caller as commit failures.
func (s *Store) Commit(ctx context.Context, artifactKey string, document *models.Document, message, author string) (*models.Snapshot, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "snapshot.commit",
		attribute.String(otelhelper.ArtifactKeyKey, artifactKey))
	defer span.End()

	history := s.Load(ctx, artifactKey)

	var prev *models.Document

	maxRevision := document.Version.Revision
	if len(history) > 0 {
		prev = history[len(history)-1].Document
		if headRevision := prev.Version.Revision; headRevision > maxRevision {
			maxRevision = headRevision
		}
	}

	committed := document.Clone()
	committed.Version = models.VersionMeta{
		Revision:  maxRevision + 1,
		Author:    author,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Message:   message,
	}

	snap := &models.Snapshot{
		Document: committed,
		Summary:  diff.Summarize(prev, committed),
	}

	history = append(history, snap)
	if len(history) > s.retain {
		history = history[len(history)-s.retain:]
	}

	if err := s.persist(ctx, artifactKey, history); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int(otelhelper.RevisionKey, committed.Version.Revision))
	s.logger.InfoContext(ctx, "Committed schema revision",
		"artifact_key", artifactKey,
		"revision", committed.Version.Revision,
		"changes", len(snap.Summary),
	)

	return snap, nil
}

// Revert returns a deep copy of the document at the exact revision. A
// revision outside the retained window yields ErrRevisionNotFound; truncated
// revisions are permanently unavailable.
func (s *Store) Revert(ctx context.Context, artifactKey string, revision int) (*models.Document, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "snapshot.revert",
		attribute.String(otelhelper.ArtifactKeyKey, artifactKey),
		attribute.Int(otelhelper.RevisionKey, revision))
	defer span.End()

	for _, snap := range s.Load(ctx, artifactKey) {
		if snap.Revision() == revision {
			return snap.Document.Clone(), nil
		}
	}

	return nil, persistence.NewStoreError("Revert", artifactKey, persistence.ErrRevisionNotFound)
}

func (s *Store) persist(ctx context.Context, artifactKey string, history []*models.Snapshot) error {
	documents := make([]*models.Document, 0, len(history))
	for _, snap := range history {
		documents = append(documents, snap.Document)
	}

	payload, err := json.Marshal(documents)
	if err != nil {
		return fmt.Errorf("failed to encode history for %s: %w", artifactKey, err)
	}

	if err := s.history.WriteHistory(ctx, artifactKey, payload); err != nil {
		return fmt.Errorf("failed to persist history for %s: %w", artifactKey, err)
	}

	return nil
}
