// Package workspace mediates between edits to a schema working draft and the
// snapshot store backing it.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/nstri/studyflow/pkg/eventbus"
	"github.com/nstri/studyflow/pkg/events"
	"github.com/nstri/studyflow/pkg/models"
	"github.com/nstri/studyflow/pkg/snapshot"
	"github.com/nstri/studyflow/pkg/validation"
)

// InitialCommitMessage is the message of the auto-commit that seeds a brand
// new history.
const InitialCommitMessage = "Initial auto-extracted draft"

// Seeder produces the first working draft for a source set. Called only when
// no history exists yet for the artifact key.
type Seeder interface {
	GenerateInitialDocument(ctx context.Context, sourceIDs []string) (*models.Document, error)
}

// ValidationBlockedError reports a commit rejected by error-severity
// validation issues. Warnings never block.
type ValidationBlockedError struct {
	Issues []models.ValidationIssue
}

func (e *ValidationBlockedError) Error() string {
	errorCount := 0

	for _, issue := range e.Issues {
		if issue.Severity == models.SeverityError {
			errorCount++
		}
	}

	return fmt.Sprintf("draft has %d blocking validation issue(s)", errorCount)
}

// Workspace holds the in-memory working draft for one artifact key. The
// draft never aliases a committed snapshot: every boundary crossing clones.
type Workspace struct {
	artifactKey   string
	author        string
	store         *snapshot.Store
	sink          eventbus.Sink
	logger        *slog.Logger
	draft         *models.Document
	lastCommitted *models.Document
}

// Open loads or seeds the workspace for the given source set. An empty
// history triggers the seeder and an immediate revision-1 auto-commit; a
// returning session clones the latest snapshot into the working draft.
func Open(ctx context.Context, store *snapshot.Store, seeder Seeder, sink eventbus.Sink, logger *slog.Logger, sourceIDs []string, author string) (*Workspace, error) {
	w := &Workspace{
		artifactKey: models.ArtifactKey(sourceIDs),
		author:      author,
		store:       store,
		sink:        sink,
		logger:      logger.With("module", "workspace"),
	}

	head := store.Head(ctx, w.artifactKey)
	if head != nil {
		w.draft = head.Document.Clone()
		w.lastCommitted = head.Document.Clone()

		return w, nil
	}

	seeded, err := seeder.GenerateInitialDocument(ctx, sourceIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to seed initial document: %w", err)
	}

	w.draft = seeded.Clone()

	if _, err := w.commit(ctx, InitialCommitMessage); err != nil {
		return nil, err
	}

	return w, nil
}

// ArtifactKey returns the history identity of this workspace.
func (w *Workspace) ArtifactKey() string {
	return w.artifactKey
}

// Draft returns a copy of the current working draft.
func (w *Workspace) Draft() *models.Document {
	return w.draft.Clone()
}

// Update applies a pure mutator to a clone of the working draft and swaps the
// clone in. The previous draft value is never mutated, so reference-based
// change detection stays sound.
func (w *Workspace) Update(mutate func(*models.Document)) {
	next := w.draft.Clone()
	mutate(next)
	w.draft = next
}

// Validate runs the rule engine against the current working draft.
func (w *Workspace) Validate() []models.ValidationIssue {
	return validation.Validate(w.draft)
}

// HasUnsavedChanges reports whether the working draft differs structurally
// from the latest committed snapshot. True when nothing was committed yet.
func (w *Workspace) HasUnsavedChanges() bool {
	if w.lastCommitted == nil {
		return true
	}

	return !reflect.DeepEqual(w.draft, w.lastCommitted)
}

// SaveDraftAsVersion commits the working draft as a new revision. The commit
// is blocked with a ValidationBlockedError while any error-severity issue is
// outstanding.
func (w *Workspace) SaveDraftAsVersion(ctx context.Context, message string) (*models.Snapshot, error) {
	issues := w.Validate()
	if validation.HasErrors(issues) {
		return nil, &ValidationBlockedError{Issues: issues}
	}

	return w.commit(ctx, message)
}

// RevertToVersion replaces the working draft with a clone of the given past
// revision. History is untouched; the head stays where it was.
func (w *Workspace) RevertToVersion(ctx context.Context, revision int) error {
	document, err := w.store.Revert(ctx, w.artifactKey, revision)
	if err != nil {
		return err
	}

	w.draft = document
	w.emitReverted(ctx, revision, fmt.Sprintf("Working draft reverted to revision %d.", revision))

	return nil
}

// ResetToLatestVersion discards draft edits by cloning the history head back
// into the working draft.
func (w *Workspace) ResetToLatestVersion(ctx context.Context) error {
	head := w.store.Head(ctx, w.artifactKey)
	if head == nil {
		return fmt.Errorf("no snapshot exists for artifact key %s", w.artifactKey)
	}

	w.draft = head.Document.Clone()
	w.lastCommitted = head.Document.Clone()

	w.emitReverted(ctx, head.Revision(),
		fmt.Sprintf("Working draft reset to latest revision %d.", head.Revision()))

	return nil
}

// emitReverted audits a draft replacement from history. Every revert carries
// the warning count outstanding against the restored draft.
func (w *Workspace) emitReverted(ctx context.Context, revision int, summary string) {
	event := events.VersionReverted{
		BaseEvent:    events.NewBaseEvent(events.VersionRevertedEvent, events.CategorySchema, summary),
		ArtifactKey:  w.artifactKey,
		Revision:     revision,
		WarningCount: validation.CountWarnings(w.Validate()),
	}
	w.sink.Emit(ctx, event)
}

// History returns the retained snapshots, oldest first.
func (w *Workspace) History(ctx context.Context) []*models.Snapshot {
	return w.store.Load(ctx, w.artifactKey)
}

func (w *Workspace) commit(ctx context.Context, message string) (*models.Snapshot, error) {
	snap, err := w.store.Commit(ctx, w.artifactKey, w.draft, message, w.author)
	if err != nil {
		return nil, err
	}

	// Subsequent edits must diff against the just-saved state.
	w.draft = snap.Document.Clone()
	w.lastCommitted = snap.Document.Clone()

	warnings := validation.CountWarnings(w.Validate())

	event := events.VersionCommitted{
		BaseEvent: events.NewBaseEvent(events.VersionCommittedEvent, events.CategorySchema,
			fmt.Sprintf("Schema revision %d committed: %s", snap.Revision(), message)),
		ArtifactKey:  w.artifactKey,
		Revision:     snap.Revision(),
		Message:      message,
		Changes:      snap.Summary,
		WarningCount: warnings,
	}
	w.sink.Emit(ctx, event)

	return snap, nil
}
