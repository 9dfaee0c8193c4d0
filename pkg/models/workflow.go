package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Step identifies one stage of the fixed five-stage study workflow.
type Step string

const (
	StepSearch   Step = "search"
	StepSchema   Step = "schema"
	StepCohort   Step = "cohort"
	StepAnalysis Step = "analysis"
	StepReport   Step = "report"
)

// StepOrder returns the fixed total order of workflow steps.
func StepOrder() []Step {
	return []Step{StepSearch, StepSchema, StepCohort, StepAnalysis, StepReport}
}

// Previous returns the step immediately before s in the fixed order, or ""
// when s is the first step or unknown.
func (s Step) Previous() Step {
	order := StepOrder()
	for i := 1; i < len(order); i++ {
		if order[i] == s {
			return order[i-1]
		}
	}

	return ""
}

// Valid reports whether s is one of the five fixed steps.
func (s Step) Valid() bool {
	for _, step := range StepOrder() {
		if step == s {
			return true
		}
	}

	return false
}

// StepState is the lifecycle state of a single workflow step.
type StepState string

const (
	StepStateIdle       StepState = "idle"
	StepStateInProgress StepState = "in-progress"
	StepStateDone       StepState = "done"
	StepStateError      StepState = "error"
)

// RunStatus tracks one asynchronous run (analysis, demo data generation).
type RunStatus string

const (
	RunStatusIdle    RunStatus = "idle"
	RunStatusLoading RunStatus = "loading"
	RunStatusSuccess RunStatus = "success"
	RunStatusError   RunStatus = "error"
)

// SearchState holds the literature search sub-state. The selected article ids
// double as the seed set for the schema document's artifact key.
type SearchState struct {
	Query              string            `json:"query"`
	Filters            map[string]string `json:"filters"`
	SelectedArticleIDs []string          `json:"selected_article_ids"`
}

// SchemaState is the workflow's reference to the editable schema document.
type SchemaState struct {
	ArtifactKey       string `json:"artifact_key"`
	CommittedRevision int    `json:"committed_revision"`
}

// CohortResult describes one synthesized cohort.
type CohortResult struct {
	PatientCount int    `json:"patient_count"`
	Source       string `json:"source"`
	GeneratedAt  string `json:"generated_at"`
}

// CohortState holds the cohort step sub-state.
type CohortState struct {
	Result *CohortResult `json:"result,omitempty"`
}

// AnalysisRun is one entry in the analysis run history.
type AnalysisRun struct {
	ID          string         `json:"id"          validate:"required"`
	Kind        string         `json:"kind"`
	Status      RunStatus      `json:"status"`
	StartedAt   string         `json:"started_at"`
	CompletedAt string         `json:"completed_at,omitempty"`
	Result      map[string]any `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// NewAnalysisRun creates a loading run with a fresh id.
func NewAnalysisRun(kind string) AnalysisRun {
	return AnalysisRun{
		ID:        uuid.New().String(),
		Kind:      kind,
		Status:    RunStatusLoading,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// AnalysisState holds the analysis step sub-state. ActiveRunID guards
// cancellations: a cancel for any other run id is a no-op.
type AnalysisState struct {
	Runs        []AnalysisRun `json:"runs"                    validate:"omitempty,dive"`
	ActiveRunID string        `json:"active_run_id,omitempty"`
}

// ReportState holds the report step sub-state.
type ReportState struct {
	Draft     string `json:"draft"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Mode selects the workflow's operating variant.
type Mode string

const (
	ModeFull Mode = "full"
	ModeDemo Mode = "demo"
)

// ModeState is the mode-specific payload of the workflow state. It is a
// sealed union: demo-only fields exist only on the DemoMode variant, so they
// cannot be read while the workflow runs in full mode.
type ModeState interface {
	Mode() Mode
	modeState()
}

// FullMode carries no extra state.
type FullMode struct{}

func (FullMode) Mode() Mode { return ModeFull }
func (FullMode) modeState() {}

// DemoConfig is the fixed configuration of the demo variant.
type DemoConfig struct {
	DatasetName  string `json:"dataset_name"`
	PatientCount int    `json:"patient_count"`
	Seed         int64  `json:"seed"`
}

// DefaultDemoConfig returns the built-in demo dataset configuration.
func DefaultDemoConfig() DemoConfig {
	return DemoConfig{
		DatasetName:  "synthetic-heart-failure",
		PatientCount: 250,
		Seed:         42,
	}
}

// DemoMode carries the demo configuration and the demo data run status.
type DemoMode struct {
	Config DemoConfig `json:"config"`
	Status RunStatus  `json:"status"`
}

func (DemoMode) Mode() Mode { return ModeDemo }
func (DemoMode) modeState() {}

// StateVersion tags the current shape of the persisted workflow state.
// Version 1 blobs predate the single-in-progress repair and are migrated on
// hydration.
const StateVersion = 2

// WorkflowState is the whole cross-step state. All fields except ModeState
// are shared between the two operating modes; switching modes replaces only
// ModeState.
type WorkflowState struct {
	Version     int
	CurrentStep Step
	Steps       map[Step]StepState
	Search      SearchState
	Schema      SchemaState
	Cohort      CohortState
	Analysis    AnalysisState
	Report      ReportState
	ModeState   ModeState
}

// DefaultWorkflowState returns the initial full-mode state with every step
// idle and the first step current.
func DefaultWorkflowState() WorkflowState {
	steps := make(map[Step]StepState, len(StepOrder()))
	for _, step := range StepOrder() {
		steps[step] = StepStateIdle
	}

	return WorkflowState{
		Version:     StateVersion,
		CurrentStep: StepSearch,
		Steps:       steps,
		Search:      SearchState{Filters: map[string]string{}},
		ModeState:   FullMode{},
	}
}

// Clone returns a deep copy of the state.
func (s WorkflowState) Clone() WorkflowState {
	return *deepClone(&s)
}

// CloneSteps returns a fresh copy of the step-state map.
func (s WorkflowState) CloneSteps() map[Step]StepState {
	steps := make(map[Step]StepState, len(s.Steps))
	for step, state := range s.Steps {
		steps[step] = state
	}

	return steps
}

// persistedWorkflowState is the durable JSON shape of WorkflowState. The mode
// union is flattened into a tag plus an optional demo payload.
type persistedWorkflowState struct {
	Version     int                `json:"version"`
	Mode        Mode               `json:"mode"`
	Demo        *DemoMode          `json:"demo,omitempty"`
	CurrentStep Step               `json:"current_step"`
	Steps       map[Step]StepState `json:"steps"`
	Search      SearchState        `json:"search"`
	Schema      SchemaState        `json:"schema"`
	Cohort      CohortState        `json:"cohort"`
	Analysis    AnalysisState      `json:"analysis"`
	Report      ReportState        `json:"report"`
}

func (s WorkflowState) MarshalJSON() ([]byte, error) {
	persisted := persistedWorkflowState{
		Version:     s.Version,
		Mode:        ModeFull,
		CurrentStep: s.CurrentStep,
		Steps:       s.Steps,
		Search:      s.Search,
		Schema:      s.Schema,
		Cohort:      s.Cohort,
		Analysis:    s.Analysis,
		Report:      s.Report,
	}

	if demo, ok := s.ModeState.(DemoMode); ok {
		persisted.Mode = ModeDemo
		persisted.Demo = &demo
	}

	return json.Marshal(persisted)
}

func (s *WorkflowState) UnmarshalJSON(data []byte) error {
	var persisted persistedWorkflowState

	if err := json.Unmarshal(data, &persisted); err != nil {
		return fmt.Errorf("failed to decode workflow state: %w", err)
	}

	*s = WorkflowState{
		Version:     persisted.Version,
		CurrentStep: persisted.CurrentStep,
		Steps:       persisted.Steps,
		Search:      persisted.Search,
		Schema:      persisted.Schema,
		Cohort:      persisted.Cohort,
		Analysis:    persisted.Analysis,
		Report:      persisted.Report,
		ModeState:   FullMode{},
	}

	if persisted.Mode == ModeDemo {
		demo := DemoMode{Config: DefaultDemoConfig(), Status: RunStatusIdle}
		if persisted.Demo != nil {
			demo = *persisted.Demo
		}

		s.ModeState = demo
	}

	return nil
}
