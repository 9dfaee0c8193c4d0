package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nstri/studyflow/pkg/eventbus"
	"github.com/nstri/studyflow/pkg/events"
	"github.com/nstri/studyflow/pkg/models"
	"github.com/nstri/studyflow/pkg/otelhelper"
	"github.com/nstri/studyflow/pkg/persistence"
)

// Router is the navigation collaborator. The controller only asks which step
// a route belongs to and requests navigation; it holds no routing logic.
type Router interface {
	StepForRoute(route string) (models.Step, bool)
	NavigateTo(step models.Step) error
}

// Controller hosts the reducer: it applies actions, mirrors every settled
// transition to the durable blob and emits audit events. The in-memory state
// is the source of truth at every instant; there is exactly one writer, so no
// locking is involved.
type Controller struct {
	state  models.WorkflowState
	blob   persistence.BlobStore
	sink   eventbus.Sink
	router Router
	logger *slog.Logger
	tracer trace.Tracer
}

// NewController creates a controller starting from the default state. Call
// Load to hydrate from durable storage.
func NewController(blob persistence.BlobStore, sink eventbus.Sink, logger *slog.Logger) *Controller {
	return &Controller{
		state:  models.DefaultWorkflowState(),
		blob:   blob,
		sink:   sink,
		logger: logger.With("module", "workflow"),
		tracer: otelhelper.NopTracer(),
	}
}

// WithTracer enables span emission on dispatch and load.
func (c *Controller) WithTracer(tracer trace.Tracer) *Controller {
	c.tracer = tracer

	return c
}

// WithRouter wires the navigation collaborator.
func (c *Controller) WithRouter(router Router) *Controller {
	c.router = router

	return c
}

// State returns a deep copy of the current state.
func (c *Controller) State() models.WorkflowState {
	return c.state.Clone()
}

// CanAccess reports whether the step is enterable in the current state.
func (c *Controller) CanAccess(step models.Step) bool {
	return CanAccessStep(c.state, step)
}

// Load reads the durable blob once, hydrates (schema guard, migration,
// default-merge) and mirrors the hydrated state back so a repaired blob is
// repaired exactly once. Read corruption degrades to the default state; only
// the mirror write can fail.
func (c *Controller) Load(ctx context.Context) error {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "workflow.load")
	defer span.End()

	raw, err := c.blob.ReadState(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "Failed to read workflow state, starting fresh", "error", err)

		raw = nil
	}

	state, report := HydrateState(raw)
	c.state = state

	if report.Repaired {
		c.logger.InfoContext(ctx, "Repaired multi-in-progress workflow state", "from_version", report.FromVersion)
	}

	event := events.StateHydrated{
		BaseEvent: events.NewBaseEvent(events.StateHydratedEvent, events.CategoryWorkflow,
			"Workflow state restored from durable storage."),
		FromVersion: report.FromVersion,
		ToVersion:   state.Version,
		Repaired:    report.Repaired,
	}
	c.sink.Emit(ctx, event)

	return c.mirror(ctx)
}

// Dispatch applies the action and mirrors the result. The transition settles
// in memory before the mirror runs; a mirror failure is returned but the
// in-memory state keeps the applied transition.
func (c *Controller) Dispatch(ctx context.Context, action Action) error {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "workflow.dispatch",
		attribute.String(otelhelper.ActionKey, action.actionName()))
	defer span.End()

	previous := c.state
	c.state = Apply(previous, action)

	c.audit(ctx, previous, c.state, action)

	return c.mirror(ctx)
}

// SyncRoute aligns CurrentStep with an external route change. Unknown routes
// are ignored.
func (c *Controller) SyncRoute(ctx context.Context, route string) error {
	if c.router == nil {
		return nil
	}

	step, ok := c.router.StepForRoute(route)
	if !ok {
		return nil
	}

	return c.Dispatch(ctx, InitFromRoute{Step: step})
}

// OpenStep navigates to a step and marks it in-progress, refusing steps whose
// prerequisites are not done. This is the single-flight entry point the
// reducer relies on.
func (c *Controller) OpenStep(ctx context.Context, step models.Step) error {
	if !c.CanAccess(step) {
		return fmt.Errorf("step %s is not accessible: previous step is not done", step)
	}

	if c.router != nil {
		if err := c.router.NavigateTo(step); err != nil {
			return fmt.Errorf("failed to navigate to step %s: %w", step, err)
		}
	}

	return c.Dispatch(ctx, SetInProgress{Step: step})
}

func (c *Controller) mirror(ctx context.Context) error {
	payload, err := json.Marshal(c.state)
	if err != nil {
		return fmt.Errorf("failed to encode workflow state: %w", err)
	}

	if err := c.blob.WriteState(ctx, payload); err != nil {
		return persistence.NewStoreError("WriteState", "", err)
	}

	return nil
}

// audit emits one event per observable transition. No-op dispatches (stale
// cancellations, mode re-selection) emit nothing.
func (c *Controller) audit(ctx context.Context, previous, next models.WorkflowState, action Action) {
	switch a := action.(type) {
	case SetInProgress:
		c.emitStep(ctx, events.StepStartedEvent, a.Step, next)
	case MarkDone:
		c.emitStep(ctx, events.StepCompletedEvent, a.Step, next)
	case MarkError:
		c.emitStep(ctx, events.StepFailedEvent, a.Step, next)
	case ResetStep:
		c.emitStep(ctx, events.StepResetEvent, a.Step, next)
	case SetMode:
		if previous.ModeState.Mode() == next.ModeState.Mode() {
			return
		}

		event := events.ModeSwitched{
			BaseEvent: events.NewBaseEvent(events.ModeSwitchedEvent, events.CategoryWorkflow,
				fmt.Sprintf("Workflow switched to %s mode.", next.ModeState.Mode())),
			From: string(previous.ModeState.Mode()),
			To:   string(next.ModeState.Mode()),
		}
		c.sink.Emit(ctx, event)
	case CancelAnalysisRun:
		if previous.Analysis.ActiveRunID != a.RunID || next.Analysis.ActiveRunID == a.RunID {
			return
		}

		event := events.RunCancelled{
			BaseEvent: events.NewBaseEvent(events.RunCancelledEvent, events.CategoryAnalysis,
				"Analysis run cancelled."),
			RunID: a.RunID,
		}
		c.sink.Emit(ctx, event)
	}
}

func (c *Controller) emitStep(ctx context.Context, eventType events.EventType, step models.Step, next models.WorkflowState) {
	if !step.Valid() {
		return
	}

	event := events.StepTransition{
		BaseEvent: events.NewBaseEvent(eventType, events.CategoryWorkflow,
			fmt.Sprintf("Step %s is now %s.", step, next.Steps[step])),
		Step:  string(step),
		State: string(next.Steps[step]),
	}
	c.sink.Emit(ctx, event)
}
