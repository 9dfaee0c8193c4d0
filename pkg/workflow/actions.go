package workflow

import "github.com/nstri/studyflow/pkg/models"

// Action is one reducer input. Every action is total: when its precondition
// does not hold the reducer returns the state unchanged instead of failing.
type Action interface {
	actionName() string
}

// SetInProgress makes the step current and marks it in-progress. The reducer
// itself does not enforce that no other step is in-progress; UI entry points
// guarantee single-flight, and hydration repairs blobs that violated it.
type SetInProgress struct {
	Step models.Step
}

// MarkDone marks the step done. It never advances CurrentStep: moving on is
// always an explicit user action, never implied by completion.
type MarkDone struct {
	Step models.Step
}

// MarkError marks the step failed and makes it current.
type MarkError struct {
	Step models.Step
}

// ResetStep returns the step to idle.
type ResetStep struct {
	Step models.Step
}

// InitFromRoute updates only CurrentStep, used when the UI navigates directly
// to a step's view. Step states are untouched.
type InitFromRoute struct {
	Step models.Step
}

// SetMode switches the operating mode. Shared state is preserved; only the
// mode-specific payload is replaced with that mode's defaults.
type SetMode struct {
	Mode models.Mode
}

// SetDemoRunStatus updates the demo data run status. No-op in full mode.
type SetDemoRunStatus struct {
	Status models.RunStatus
}

// SetSearchQuery replaces the literature search query.
type SetSearchQuery struct {
	Query string
}

// SetSearchFilter sets one search filter. An empty value removes the filter.
type SetSearchFilter struct {
	Key   string
	Value string
}

// SetSearchSelection replaces the selected article id set.
type SetSearchSelection struct {
	ArticleIDs []string
}

// SetSchemaArtifact points the workflow at a committed schema revision.
type SetSchemaArtifact struct {
	ArtifactKey string
	Revision    int
}

// SetCohortResult records a synthesized cohort.
type SetCohortResult struct {
	Result models.CohortResult
}

// ClearCohortResult discards the cohort result.
type ClearCohortResult struct{}

// StartAnalysisRun appends a run to the history and makes it active.
type StartAnalysisRun struct {
	Run models.AnalysisRun
}

// CompleteAnalysisRun finishes the active run successfully. Ignored when the
// id no longer matches the active run.
type CompleteAnalysisRun struct {
	RunID  string
	Result map[string]any
}

// FailAnalysisRun finishes the active run with an error. Ignored when the id
// no longer matches the active run.
type FailAnalysisRun struct {
	RunID string
	Error string
}

// CancelAnalysisRun cancels the active run. A stale cancellation (id does not
// match the active run) is a no-op, not an error.
type CancelAnalysisRun struct {
	RunID string
}

// SetReportDraft replaces the report draft text.
type SetReportDraft struct {
	Draft string
}

// Hydrate replaces the whole state from a persisted blob, running the schema
// guard, migration and default-merging first.
type Hydrate struct {
	Payload []byte
}

func (SetInProgress) actionName() string       { return "SetInProgress" }
func (MarkDone) actionName() string            { return "MarkDone" }
func (MarkError) actionName() string           { return "MarkError" }
func (ResetStep) actionName() string           { return "ResetStep" }
func (InitFromRoute) actionName() string       { return "InitFromRoute" }
func (SetMode) actionName() string             { return "SetMode" }
func (SetDemoRunStatus) actionName() string    { return "SetDemoRunStatus" }
func (SetSearchQuery) actionName() string      { return "SetSearchQuery" }
func (SetSearchFilter) actionName() string     { return "SetSearchFilter" }
func (SetSearchSelection) actionName() string  { return "SetSearchSelection" }
func (SetSchemaArtifact) actionName() string   { return "SetSchemaArtifact" }
func (SetCohortResult) actionName() string     { return "SetCohortResult" }
func (ClearCohortResult) actionName() string   { return "ClearCohortResult" }
func (StartAnalysisRun) actionName() string    { return "StartAnalysisRun" }
func (CompleteAnalysisRun) actionName() string { return "CompleteAnalysisRun" }
func (FailAnalysisRun) actionName() string     { return "FailAnalysisRun" }
func (CancelAnalysisRun) actionName() string   { return "CancelAnalysisRun" }
func (SetReportDraft) actionName() string      { return "SetReportDraft" }
func (Hydrate) actionName() string             { return "Hydrate" }
