// Package workflow owns the cross-step state machine: a pure reducer over
// models.WorkflowState, prerequisite gating, durable-blob hydration and the
// controller that mirrors every settled transition to storage.
package workflow

import (
	"time"

	"github.com/nstri/studyflow/pkg/models"
)

// Apply is the reducer. It is synchronous and never blocks; every case
// produces a new state value without mutating the input, sharing unchanged
// subtrees and replacing object identities only along the changed path.
func Apply(state models.WorkflowState, action Action) models.WorkflowState {
	switch a := action.(type) {
	case SetInProgress:
		return setStepState(state, a.Step, models.StepStateInProgress, true)
	case MarkDone:
		return setStepState(state, a.Step, models.StepStateDone, false)
	case MarkError:
		return setStepState(state, a.Step, models.StepStateError, true)
	case ResetStep:
		return setStepState(state, a.Step, models.StepStateIdle, false)
	case InitFromRoute:
		if !a.Step.Valid() {
			return state
		}

		state.CurrentStep = a.Step

		return state
	case SetMode:
		return setMode(state, a.Mode)
	case SetDemoRunStatus:
		demo, ok := state.ModeState.(models.DemoMode)
		if !ok {
			return state
		}

		demo.Status = a.Status
		state.ModeState = demo

		return state
	case SetSearchQuery:
		state.Search.Query = a.Query

		return state
	case SetSearchFilter:
		filters := make(map[string]string, len(state.Search.Filters)+1)
		for key, value := range state.Search.Filters {
			filters[key] = value
		}

		if a.Value == "" {
			delete(filters, a.Key)
		} else {
			filters[a.Key] = a.Value
		}

		state.Search.Filters = filters

		return state
	case SetSearchSelection:
		state.Search.SelectedArticleIDs = append([]string(nil), a.ArticleIDs...)

		return state
	case SetSchemaArtifact:
		state.Schema = models.SchemaState{ArtifactKey: a.ArtifactKey, CommittedRevision: a.Revision}

		return state
	case SetCohortResult:
		result := a.Result
		state.Cohort = models.CohortState{Result: &result}

		return state
	case ClearCohortResult:
		state.Cohort = models.CohortState{}

		return state
	case StartAnalysisRun:
		runs := append(append([]models.AnalysisRun(nil), state.Analysis.Runs...), a.Run)
		state.Analysis = models.AnalysisState{Runs: runs, ActiveRunID: a.Run.ID}

		return state
	case CompleteAnalysisRun:
		return finishRun(state, a.RunID, func(run *models.AnalysisRun) {
			run.Status = models.RunStatusSuccess
			run.Result = a.Result
		})
	case FailAnalysisRun:
		return finishRun(state, a.RunID, func(run *models.AnalysisRun) {
			run.Status = models.RunStatusError
			run.Error = a.Error
		})
	case CancelAnalysisRun:
		return finishRun(state, a.RunID, func(run *models.AnalysisRun) {
			run.Status = models.RunStatusError
			run.Error = "cancelled by user"
		})
	case SetReportDraft:
		state.Report = models.ReportState{
			Draft:     a.Draft,
			UpdatedAt: time.Now().UTC().Format(time.RFC3339),
		}

		return state
	case Hydrate:
		hydrated, _ := HydrateState(a.Payload)

		return hydrated
	default:
		return state
	}
}

func setStepState(state models.WorkflowState, step models.Step, stepState models.StepState, makeCurrent bool) models.WorkflowState {
	if !step.Valid() {
		return state
	}

	steps := state.CloneSteps()
	steps[step] = stepState
	state.Steps = steps

	if makeCurrent {
		state.CurrentStep = step
	}

	return state
}

// setMode preserves all shared sub-state and replaces only the mode payload.
// Switching to the mode already active is a no-op.
func setMode(state models.WorkflowState, mode models.Mode) models.WorkflowState {
	if state.ModeState != nil && state.ModeState.Mode() == mode {
		return state
	}

	switch mode {
	case models.ModeDemo:
		state.ModeState = models.DemoMode{
			Config: models.DefaultDemoConfig(),
			Status: models.RunStatusIdle,
		}
	case models.ModeFull:
		state.ModeState = models.FullMode{}
	default:
		return state
	}

	return state
}

// finishRun applies update to the run with the given id, but only while that
// run is still the active one. Stale completions and cancellations are
// silently ignored.
func finishRun(state models.WorkflowState, runID string, update func(*models.AnalysisRun)) models.WorkflowState {
	if runID == "" || state.Analysis.ActiveRunID != runID {
		return state
	}

	runs := append([]models.AnalysisRun(nil), state.Analysis.Runs...)

	for i := range runs {
		if runs[i].ID != runID {
			continue
		}

		runs[i].CompletedAt = time.Now().UTC().Format(time.RFC3339)
		update(&runs[i])

		break
	}

	state.Analysis = models.AnalysisState{Runs: runs}

	return state
}
