package workflow

import "github.com/nstri/studyflow/pkg/models"

// CanAccessStep reports whether the step is enterable: it is the current
// step, or the first step, or the step immediately before it is done. This is
// a pure function of the reducer's output state.
func CanAccessStep(state models.WorkflowState, step models.Step) bool {
	if !step.Valid() {
		return false
	}

	if step == state.CurrentStep || step == models.StepSearch {
		return true
	}

	return state.Steps[step.Previous()] == models.StepStateDone
}
