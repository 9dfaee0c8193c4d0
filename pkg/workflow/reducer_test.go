package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nstri/studyflow/pkg/models"
)

func TestApply_SetInProgressBecomesCurrent(t *testing.T) {
	state := models.DefaultWorkflowState()

	next := Apply(state, SetInProgress{Step: models.StepSchema})

	assert.Equal(t, models.StepStateInProgress, next.Steps[models.StepSchema])
	assert.Equal(t, models.StepSchema, next.CurrentStep)

	// The input state is untouched.
	assert.Equal(t, models.StepStateIdle, state.Steps[models.StepSchema])
	assert.Equal(t, models.StepSearch, state.CurrentStep)
}

func TestApply_MarkDoneDoesNotAdvanceCurrentStep(t *testing.T) {
	state := models.DefaultWorkflowState()
	state = Apply(state, SetInProgress{Step: models.StepSearch})

	next := Apply(state, MarkDone{Step: models.StepSearch})

	assert.Equal(t, models.StepStateDone, next.Steps[models.StepSearch])
	assert.Equal(t, models.StepSearch, next.CurrentStep)
}

func TestApply_MarkErrorBecomesCurrent(t *testing.T) {
	state := models.DefaultWorkflowState()

	next := Apply(state, MarkError{Step: models.StepCohort})

	assert.Equal(t, models.StepStateError, next.Steps[models.StepCohort])
	assert.Equal(t, models.StepCohort, next.CurrentStep)
}

func TestApply_ResetStepReturnsToIdle(t *testing.T) {
	state := Apply(models.DefaultWorkflowState(), SetInProgress{Step: models.StepSchema})

	next := Apply(state, ResetStep{Step: models.StepSchema})

	assert.Equal(t, models.StepStateIdle, next.Steps[models.StepSchema])
	assert.Equal(t, models.StepSchema, next.CurrentStep, "reset does not move the current step")
}

func TestApply_InvalidStepIsIgnored(t *testing.T) {
	state := models.DefaultWorkflowState()

	next := Apply(state, SetInProgress{Step: models.Step("bogus")})

	assert.Equal(t, state, next)
}

func TestApply_InitFromRoute(t *testing.T) {
	state := models.DefaultWorkflowState()

	next := Apply(state, InitFromRoute{Step: models.StepAnalysis})
	assert.Equal(t, models.StepAnalysis, next.CurrentStep)

	same := Apply(next, InitFromRoute{Step: models.Step("nope")})
	assert.Equal(t, models.StepAnalysis, same.CurrentStep)
}

func TestApply_ModeSwitchPreservesSharedState(t *testing.T) {
	state := models.DefaultWorkflowState()
	state = Apply(state, SetSearchQuery{Query: "sepsis"})
	state = Apply(state, MarkDone{Step: models.StepSearch})
	state = Apply(state, SetSchemaArtifact{ArtifactKey: "pmid-1|pmid-2", Revision: 3})

	demo := Apply(state, SetMode{Mode: models.ModeDemo})

	require.Equal(t, models.ModeDemo, demo.ModeState.Mode())
	assert.Equal(t, "sepsis", demo.Search.Query)
	assert.Equal(t, models.StepStateDone, demo.Steps[models.StepSearch])
	assert.Equal(t, "pmid-1|pmid-2", demo.Schema.ArtifactKey)

	back := Apply(demo, SetMode{Mode: models.ModeFull})

	require.Equal(t, models.ModeFull, back.ModeState.Mode())
	assert.Equal(t, "sepsis", back.Search.Query)
	assert.Equal(t, models.StepStateDone, back.Steps[models.StepSearch])
	assert.Equal(t, 3, back.Schema.CommittedRevision)
}

func TestApply_ModeSwitchToActiveModeIsNoOp(t *testing.T) {
	state := models.DefaultWorkflowState()

	next := Apply(state, SetMode{Mode: models.ModeFull})

	assert.Equal(t, state, next)
}

func TestApply_SwitchToDemoStartsWithDefaults(t *testing.T) {
	next := Apply(models.DefaultWorkflowState(), SetMode{Mode: models.ModeDemo})

	demo, ok := next.ModeState.(models.DemoMode)
	require.True(t, ok)
	assert.Equal(t, models.DefaultDemoConfig(), demo.Config)
	assert.Equal(t, models.RunStatusIdle, demo.Status)
}

func TestApply_SetDemoRunStatusOnlyInDemoMode(t *testing.T) {
	full := Apply(models.DefaultWorkflowState(), SetDemoRunStatus{Status: models.RunStatusLoading})
	assert.Equal(t, models.ModeFull, full.ModeState.Mode())

	state := Apply(models.DefaultWorkflowState(), SetMode{Mode: models.ModeDemo})
	next := Apply(state, SetDemoRunStatus{Status: models.RunStatusSuccess})

	demo, ok := next.ModeState.(models.DemoMode)
	require.True(t, ok)
	assert.Equal(t, models.RunStatusSuccess, demo.Status)
}

func TestApply_SearchFilterProducesFreshMap(t *testing.T) {
	state := models.DefaultWorkflowState()

	next := Apply(state, SetSearchFilter{Key: "year", Value: "2020"})

	assert.Equal(t, "2020", next.Search.Filters["year"])
	assert.Empty(t, state.Search.Filters)

	cleared := Apply(next, SetSearchFilter{Key: "year", Value: ""})

	assert.NotContains(t, cleared.Search.Filters, "year")
	assert.Equal(t, "2020", next.Search.Filters["year"])
}

func TestApply_SetSearchSelectionCopiesSlice(t *testing.T) {
	ids := []string{"pmid-1", "pmid-2"}

	next := Apply(models.DefaultWorkflowState(), SetSearchSelection{ArticleIDs: ids})

	ids[0] = "mutated"

	assert.Equal(t, "pmid-1", next.Search.SelectedArticleIDs[0])
}

func TestApply_CohortResultRoundTrip(t *testing.T) {
	state := models.DefaultWorkflowState()

	next := Apply(state, SetCohortResult{Result: models.CohortResult{PatientCount: 120, Source: "demo"}})

	require.NotNil(t, next.Cohort.Result)
	assert.Equal(t, 120, next.Cohort.Result.PatientCount)

	cleared := Apply(next, ClearCohortResult{})
	assert.Nil(t, cleared.Cohort.Result)
}

func TestApply_StartAnalysisRunSetsActiveRun(t *testing.T) {
	run := models.NewAnalysisRun("kaplan-meier")

	next := Apply(models.DefaultWorkflowState(), StartAnalysisRun{Run: run})

	require.Len(t, next.Analysis.Runs, 1)
	assert.Equal(t, run.ID, next.Analysis.ActiveRunID)
	assert.Equal(t, models.RunStatusLoading, next.Analysis.Runs[0].Status)
}

func TestApply_CompleteAnalysisRun(t *testing.T) {
	run := models.NewAnalysisRun("logistic-regression")
	state := Apply(models.DefaultWorkflowState(), StartAnalysisRun{Run: run})

	next := Apply(state, CompleteAnalysisRun{RunID: run.ID, Result: map[string]any{"auc": 0.82}})

	require.Len(t, next.Analysis.Runs, 1)
	assert.Equal(t, models.RunStatusSuccess, next.Analysis.Runs[0].Status)
	assert.NotEmpty(t, next.Analysis.Runs[0].CompletedAt)
	assert.Empty(t, next.Analysis.ActiveRunID)
}

func TestApply_StaleCompletionIsIgnored(t *testing.T) {
	first := models.NewAnalysisRun("km")
	second := models.NewAnalysisRun("km")

	state := Apply(models.DefaultWorkflowState(), StartAnalysisRun{Run: first})
	state = Apply(state, StartAnalysisRun{Run: second})

	next := Apply(state, CompleteAnalysisRun{RunID: first.ID})

	assert.Equal(t, state, next)
	assert.Equal(t, second.ID, next.Analysis.ActiveRunID)
	assert.Equal(t, models.RunStatusLoading, next.Analysis.Runs[0].Status)
}

func TestApply_CancelAnalysisRun(t *testing.T) {
	run := models.NewAnalysisRun("km")
	state := Apply(models.DefaultWorkflowState(), StartAnalysisRun{Run: run})

	next := Apply(state, CancelAnalysisRun{RunID: run.ID})

	require.Len(t, next.Analysis.Runs, 1)
	assert.Equal(t, models.RunStatusError, next.Analysis.Runs[0].Status)
	assert.Equal(t, "cancelled by user", next.Analysis.Runs[0].Error)
	assert.Empty(t, next.Analysis.ActiveRunID)
}

func TestApply_StaleCancelIsIgnored(t *testing.T) {
	run := models.NewAnalysisRun("km")
	state := Apply(models.DefaultWorkflowState(), StartAnalysisRun{Run: run})
	state = Apply(state, CompleteAnalysisRun{RunID: run.ID})

	next := Apply(state, CancelAnalysisRun{RunID: run.ID})

	assert.Equal(t, models.RunStatusSuccess, next.Analysis.Runs[0].Status)
}

func TestApply_SetReportDraftStampsUpdatedAt(t *testing.T) {
	next := Apply(models.DefaultWorkflowState(), SetReportDraft{Draft: "# Findings"})

	assert.Equal(t, "# Findings", next.Report.Draft)
	assert.NotEmpty(t, next.Report.UpdatedAt)
}

func TestApply_HydrateReplacesStateWholesale(t *testing.T) {
	state := Apply(models.DefaultWorkflowState(), SetSearchQuery{Query: "stale"})

	next := Apply(state, Hydrate{Payload: []byte(`{
		"version": 2,
		"mode": "full",
		"current_step": "schema",
		"steps": {"search": "done", "schema": "in-progress"},
		"search": {"query": "restored", "filters": {}, "selected_article_ids": []}
	}`)})

	assert.Equal(t, models.StepSchema, next.CurrentStep)
	assert.Equal(t, "restored", next.Search.Query)
	assert.Equal(t, models.StepStateDone, next.Steps[models.StepSearch])
}

func TestApply_UnknownActionReturnsStateUnchanged(t *testing.T) {
	state := models.DefaultWorkflowState()

	assert.Equal(t, state, Apply(state, nil))
}

func TestCanAccessStep(t *testing.T) {
	state := models.DefaultWorkflowState()

	assert.True(t, CanAccessStep(state, models.StepSearch), "first step always accessible")
	assert.False(t, CanAccessStep(state, models.StepSchema))
	assert.False(t, CanAccessStep(state, models.StepReport))
	assert.False(t, CanAccessStep(state, models.Step("bogus")))

	state = Apply(state, MarkDone{Step: models.StepSearch})
	assert.True(t, CanAccessStep(state, models.StepSchema))
	assert.False(t, CanAccessStep(state, models.StepCohort))

	// The current step stays accessible even with its prerequisite undone.
	state.CurrentStep = models.StepAnalysis
	assert.True(t, CanAccessStep(state, models.StepAnalysis))
}
