// Package eventbus provides the audit sink port and its in-process
// implementation.
package eventbus

import (
	"context"

	"github.com/nstri/studyflow/pkg/events"
)

// Sink receives audit events. Emit is fire-and-forget: implementations must
// never block the caller and never propagate publish failures.
type Sink interface {
	Emit(ctx context.Context, event events.Event)
}

// Handler consumes a decoded audit event.
type Handler func(ctx context.Context, event events.Event) error

// Bus is a sink that can also be subscribed to, for audit trail consumers.
type Bus interface {
	Sink

	Handle(eventType events.EventType, handler Handler)
	Subscribe(ctx context.Context) error
	Close() error
}

// NopSink discards all events. Used where no audit trail is wired.
type NopSink struct{}

func (NopSink) Emit(_ context.Context, _ events.Event) {}
