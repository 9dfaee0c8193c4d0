package workflow

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nstri/studyflow/pkg/models"
)

func TestHydrateState_EmptyBlobYieldsDefault(t *testing.T) {
	state, report := HydrateState(nil)

	assert.Equal(t, models.DefaultWorkflowState(), state)
	assert.False(t, report.Repaired)
}

func TestHydrateState_MalformedJSONYieldsDefault(t *testing.T) {
	state, _ := HydrateState([]byte(`{"mode": "full", "steps"`))

	assert.Equal(t, models.DefaultWorkflowState(), state)
}

func TestHydrateState_SchemaGuardRejectsBadShapes(t *testing.T) {
	cases := map[string]string{
		"missing mode":       `{"version":2,"steps":{}}`,
		"unknown mode":       `{"mode":"offline","steps":{}}`,
		"steps not object":   `{"mode":"full","steps":[]}`,
		"invalid step state": `{"mode":"full","steps":{"search":"paused"}}`,
		"negative version":   `{"version":-1,"mode":"full","steps":{}}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			state, _ := HydrateState([]byte(raw))

			assert.Equal(t, models.DefaultWorkflowState(), state)
		})
	}
}

func TestHydrateState_Version1RepairsMultiInProgress(t *testing.T) {
	raw := []byte(`{
		"version": 1,
		"mode": "full",
		"current_step": "cohort",
		"steps": {
			"search": "done",
			"schema": "in-progress",
			"cohort": "in-progress",
			"analysis": "idle",
			"report": "idle"
		}
	}`)

	state, report := HydrateState(raw)

	assert.True(t, report.Repaired)
	assert.Equal(t, 1, report.FromVersion)
	assert.Equal(t, models.StateVersion, state.Version)

	// The canonically first in-progress step survives, the rest demote.
	assert.Equal(t, models.StepStateInProgress, state.Steps[models.StepSchema])
	assert.Equal(t, models.StepStateIdle, state.Steps[models.StepCohort])
	assert.Equal(t, models.StepStateDone, state.Steps[models.StepSearch])
}

func TestHydrateState_Version1SingleInProgressNeedsNoRepair(t *testing.T) {
	raw := []byte(`{
		"version": 1,
		"mode": "full",
		"current_step": "schema",
		"steps": {"search": "done", "schema": "in-progress"}
	}`)

	state, report := HydrateState(raw)

	assert.False(t, report.Repaired)
	assert.Equal(t, models.StateVersion, state.Version)
	assert.Equal(t, models.StepStateInProgress, state.Steps[models.StepSchema])
}

func TestHydrateState_CurrentVersionSkipsMigration(t *testing.T) {
	state := models.DefaultWorkflowState()
	state.Steps[models.StepSchema] = models.StepStateInProgress
	state.Steps[models.StepCohort] = models.StepStateInProgress

	raw, err := json.Marshal(state)
	require.NoError(t, err)

	hydrated, report := HydrateState(raw)

	// Version 2 blobs are trusted as-is; the repair ran when they were written.
	assert.False(t, report.Repaired)
	assert.Equal(t, models.StepStateInProgress, hydrated.Steps[models.StepSchema])
	assert.Equal(t, models.StepStateInProgress, hydrated.Steps[models.StepCohort])
}

func TestHydrateState_MergesDefaults(t *testing.T) {
	raw := []byte(`{
		"version": 2,
		"mode": "full",
		"current_step": "retired-step",
		"steps": {"search": "done", "retired-step": "done"}
	}`)

	state, _ := HydrateState(raw)

	require.Len(t, state.Steps, 5)
	assert.Equal(t, models.StepStateDone, state.Steps[models.StepSearch])
	assert.Equal(t, models.StepStateIdle, state.Steps[models.StepReport])
	assert.NotContains(t, state.Steps, models.Step("retired-step"))
	assert.Equal(t, models.StepSearch, state.CurrentStep)
	assert.NotNil(t, state.Search.Filters)
	assert.Equal(t, models.ModeFull, state.ModeState.Mode())
}

func TestHydrateState_DemoModeSurvivesRoundTrip(t *testing.T) {
	state := models.DefaultWorkflowState()
	state.ModeState = models.DemoMode{
		Config: models.DemoConfig{DatasetName: "synthetic-copd", PatientCount: 99, Seed: 3},
		Status: models.RunStatusSuccess,
	}

	raw, err := json.Marshal(state)
	require.NoError(t, err)

	hydrated, _ := HydrateState(raw)

	demo, ok := hydrated.ModeState.(models.DemoMode)
	require.True(t, ok)
	assert.Equal(t, "synthetic-copd", demo.Config.DatasetName)
	assert.Equal(t, models.RunStatusSuccess, demo.Status)
}
