package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/nstri/studyflow/pkg/events"
)

// WatermillBus distributes audit events over a watermill pub/sub pair. In
// the shipped wiring this is the in-process gochannel pubsub; durability is
// local-only, so no broker is involved.
type WatermillBus struct {
	publisher     message.Publisher
	subscriber    message.Subscriber
	subscriptions map[events.EventType]Handler
	logger        *slog.Logger
}

func NewWatermillBus(pub message.Publisher, sub message.Subscriber, logger *slog.Logger) *WatermillBus {
	return &WatermillBus{
		publisher:     pub,
		subscriber:    sub,
		subscriptions: make(map[events.EventType]Handler),
		logger:        logger.With("module", "eventbus"),
	}
}

// Emit publishes the event. Failures are logged, never returned: the audit
// trail must not block or fail a state transition.
func (b *WatermillBus) Emit(ctx context.Context, event events.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.WarnContext(ctx, "Failed to encode audit event", "event_type", event.GetType(), "error", err)

		return
	}

	msg := message.NewMessage(watermill.NewULID(), payload)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(event.GetType()))
	msg.Metadata.Set(events.EventCategoryMetadataKey, event.GetCategory())

	if err := b.publisher.Publish(events.Topic, msg); err != nil {
		b.logger.WarnContext(ctx, "Failed to publish audit event", "event_type", event.GetType(), "error", err)
	}
}

// Handle registers a handler for one event type. Must be called before
// Subscribe.
func (b *WatermillBus) Handle(eventType events.EventType, handler Handler) {
	b.subscriptions[eventType] = handler
}

// Subscribe starts consuming the audit topic in a background goroutine.
func (b *WatermillBus) Subscribe(ctx context.Context) error {
	messages, err := b.subscriber.Subscribe(ctx, events.Topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			eventType := events.EventType(msg.Metadata.Get(events.EventTypeMetadataKey))

			handler, exists := b.subscriptions[eventType]
			if !exists {
				msg.Ack()

				continue
			}

			event, ok := decode(eventType, msg.Payload)
			if !ok {
				msg.Nack()

				continue
			}

			if err := handler(ctx, event); err != nil {
				msg.Nack()

				continue
			}

			msg.Ack()
		}
	}()

	return nil
}

func (b *WatermillBus) Close() error {
	if err := b.publisher.Close(); err != nil {
		return err
	}

	return b.subscriber.Close()
}

func decode(eventType events.EventType, payload []byte) (events.Event, bool) {
	var event events.Event

	switch eventType {
	case events.StepStartedEvent, events.StepCompletedEvent, events.StepFailedEvent, events.StepResetEvent:
		event = &events.StepTransition{}
	case events.ModeSwitchedEvent:
		event = &events.ModeSwitched{}
	case events.StateHydratedEvent:
		event = &events.StateHydrated{}
	case events.VersionCommittedEvent:
		event = &events.VersionCommitted{}
	case events.VersionRevertedEvent:
		event = &events.VersionReverted{}
	case events.RunCancelledEvent:
		event = &events.RunCancelled{}
	default:
		return nil, false
	}

	if err := json.Unmarshal(payload, event); err != nil {
		return nil, false
	}

	return event, true
}
