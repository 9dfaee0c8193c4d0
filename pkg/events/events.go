// Package events defines the audit trail event types emitted by the step
// lifecycle controller and the document workspace.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Audit topic for in-process distribution.
const Topic = "studyflow.audit"

const EventTypeMetadataKey = "event_type"
const EventCategoryMetadataKey = "category"

// Event categories group entries in the audit trail.
const (
	CategoryWorkflow = "workflow"
	CategorySchema   = "schema"
	CategoryAnalysis = "analysis"
)

const (
	// Step lifecycle events.
	StepStartedEvent   EventType = "workflow.step.started"
	StepCompletedEvent EventType = "workflow.step.completed"
	StepFailedEvent    EventType = "workflow.step.failed"
	StepResetEvent     EventType = "workflow.step.reset"

	// Workflow-wide events.
	ModeSwitchedEvent  EventType = "workflow.mode.switched"
	StateHydratedEvent EventType = "workflow.state.hydrated"

	// Schema versioning events.
	VersionCommittedEvent EventType = "schema.version.committed"
	VersionRevertedEvent  EventType = "schema.version.reverted"

	// Analysis events.
	RunCancelledEvent EventType = "analysis.run.cancelled"
)

// Event is anything the audit sink accepts.
type Event interface {
	GetType() EventType
	GetCategory() string
}

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
	Summary   string    `json:"summary"`
}

func (e BaseEvent) GetType() EventType  { return e.Type }
func (e BaseEvent) GetCategory() string { return e.Category }

// NewBaseEvent stamps a base event with a fresh id and the current time.
func NewBaseEvent(eventType EventType, category, summary string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Category:  category,
		Timestamp: time.Now().UTC(),
		Summary:   summary,
	}
}

type StepTransition struct {
	BaseEvent

	Step  string `json:"step"`
	State string `json:"state"`
}

type ModeSwitched struct {
	BaseEvent

	From string `json:"from"`
	To   string `json:"to"`
}

type StateHydrated struct {
	BaseEvent

	FromVersion int  `json:"from_version"`
	ToVersion   int  `json:"to_version"`
	Repaired    bool `json:"repaired"`
}

type VersionCommitted struct {
	BaseEvent

	ArtifactKey  string   `json:"artifact_key"`
	Revision     int      `json:"revision"`
	Message      string   `json:"message"`
	Changes      []string `json:"changes"`
	WarningCount int      `json:"warning_count"`
}

type VersionReverted struct {
	BaseEvent

	ArtifactKey  string `json:"artifact_key"`
	Revision     int    `json:"revision"`
	WarningCount int    `json:"warning_count"`
}

type RunCancelled struct {
	BaseEvent

	RunID string `json:"run_id"`
}
