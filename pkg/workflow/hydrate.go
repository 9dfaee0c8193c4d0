package workflow

import (
	"encoding/json"

	"github.com/xeipuuv/gojsonschema"

	"github.com/nstri/studyflow/pkg/models"
)

// blobSchema is the structural contract a persisted blob must meet before it
// is trusted. Anything that fails it degrades to the default state instead of
// surfacing an error to the user.
const blobSchema = `{
	"type": "object",
	"required": ["mode", "steps"],
	"properties": {
		"version": {"type": "integer", "minimum": 0},
		"mode": {"type": "string", "enum": ["full", "demo"]},
		"current_step": {"type": "string"},
		"steps": {
			"type": "object",
			"additionalProperties": {
				"type": "string",
				"enum": ["idle", "in-progress", "done", "error"]
			}
		}
	}
}`

// HydrateReport describes what hydration did to the blob.
type HydrateReport struct {
	FromVersion int
	Repaired    bool
}

// HydrateState turns a raw persisted blob into a usable state: schema guard,
// then migration, then default-merging. It never fails; corrupt or missing
// input yields the default state.
func HydrateState(raw []byte) (models.WorkflowState, HydrateReport) {
	if len(raw) == 0 {
		return models.DefaultWorkflowState(), HydrateReport{FromVersion: models.StateVersion}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(blobSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil || !result.Valid() {
		return models.DefaultWorkflowState(), HydrateReport{FromVersion: models.StateVersion}
	}

	var state models.WorkflowState

	if err := json.Unmarshal(raw, &state); err != nil {
		return models.DefaultWorkflowState(), HydrateReport{FromVersion: models.StateVersion}
	}

	report := HydrateReport{FromVersion: state.Version}

	if state.Version < models.StateVersion {
		report.Repaired = repairInProgress(&state)
		state.Version = models.StateVersion
	}

	mergeDefaults(&state)

	return state, report
}

// repairInProgress demotes all but the canonically first in-progress step to
// idle. An earlier reducer allowed several steps to be in-progress at once;
// blobs written by it are repaired exactly once, on the version bump.
func repairInProgress(state *models.WorkflowState) bool {
	repaired := false
	found := false

	for _, step := range models.StepOrder() {
		if state.Steps[step] != models.StepStateInProgress {
			continue
		}

		if !found {
			found = true

			continue
		}

		state.Steps[step] = models.StepStateIdle
		repaired = true
	}

	return repaired
}

// mergeDefaults fills in whatever the blob is missing: absent steps become
// idle, unknown steps are dropped, an invalid current step falls back to the
// first step, and nil containers are replaced so downstream code never
// branches on nil.
func mergeDefaults(state *models.WorkflowState) {
	steps := make(map[models.Step]models.StepState, len(models.StepOrder()))

	for _, step := range models.StepOrder() {
		stepState, ok := state.Steps[step]
		if !ok {
			stepState = models.StepStateIdle
		}

		steps[step] = stepState
	}

	state.Steps = steps

	if !state.CurrentStep.Valid() {
		state.CurrentStep = models.StepSearch
	}

	if state.Search.Filters == nil {
		state.Search.Filters = map[string]string{}
	}

	if state.ModeState == nil {
		state.ModeState = models.FullMode{}
	}
}
