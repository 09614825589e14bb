package gate

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	errspkg "github.com/pageloom/eventgate/internal/gate/errors"
	loggingpkg "github.com/pageloom/eventgate/internal/gate/logging"
	metadatapkg "github.com/pageloom/eventgate/internal/gate/metadata"
)

// Event is one delivery handed to a listener.
type Event struct {
	Type string
	// Payload is the parsed typed payload produced by the catalogued schema.
	// Nil on unvalidated subscriptions.
	Payload  any
	Raw      []byte
	Metadata metadatapkg.Metadata
}

// Listener consumes deliveries for one event type. A non-nil error is
// surfaced to the router and its middleware chain.
type Listener func(ctx context.Context, evt Event) error

// OnValidated subscribes fn to eventType with re-validation: every delivery
// is checked against the catalogued schema and invalid payloads are logged
// and dropped without reaching fn. When no schema is catalogued for
// eventType the listener is subscribed directly, with a one-time warning
// that deliveries are unvalidated.
//
// Listeners must be registered before Start.
func (e *Emitter) OnValidated(eventType string, fn Listener) error {
	if eventType == "" {
		return errspkg.ErrEventTypeRequired
	}
	if fn == nil {
		return errspkg.ErrListenerRequired
	}

	if _, found := e.catalog.Schema(eventType); !found {
		e.warnUnvalidatedSubscription(eventType)
		return e.addListener(eventType, "unvalidated", func(msg *message.Message) error {
			return fn(msg.Context(), Event{
				Type:     eventType,
				Raw:      msg.Payload,
				Metadata: metadatapkg.FromWatermill(msg.Metadata),
			})
		})
	}

	return e.addListener(eventType, "validated", func(msg *message.Message) error {
		result := e.catalog.Validate(eventType, msg.Payload)
		if !result.OK {
			verr := &ValidationError{EventType: eventType, Issues: result.Issues}
			e.logger.Error("Dropping invalid delivery", verr, loggingpkg.LogFields{
				"event_type":   eventType,
				"message_uuid": msg.UUID,
			})
			// Ack without invoking the listener.
			return nil
		}
		return fn(msg.Context(), Event{
			Type:     eventType,
			Payload:  result.Payload,
			Raw:      msg.Payload,
			Metadata: metadatapkg.FromWatermill(msg.Metadata),
		})
	})
}

// OnRaw subscribes fn to eventType without validation. This is the
// deliberate escape hatch, not the default path; deliveries carry the raw
// payload bytes only.
func (e *Emitter) OnRaw(eventType string, fn Listener) error {
	if eventType == "" {
		return errspkg.ErrEventTypeRequired
	}
	if fn == nil {
		return errspkg.ErrListenerRequired
	}

	return e.addListener(eventType, "raw", func(msg *message.Message) error {
		return fn(msg.Context(), Event{
			Type:     eventType,
			Raw:      msg.Payload,
			Metadata: metadatapkg.FromWatermill(msg.Metadata),
		})
	})
}

// On registers a typed listener for eventType. T must match the payload type
// the catalogued schema produces, usually a pointer payload struct such as
// *events.ThemeChanged.
func On[T any](e *Emitter, eventType string, fn func(ctx context.Context, payload T) error) error {
	if e == nil {
		return errspkg.ErrEmitterRequired
	}
	if fn == nil {
		return errspkg.ErrListenerRequired
	}

	return e.OnValidated(eventType, func(ctx context.Context, evt Event) error {
		typed, ok := evt.Payload.(T)
		if !ok {
			return fmt.Errorf("eventgate: listener for %q expects %T, schema produced %T", eventType, typed, evt.Payload)
		}
		return fn(ctx, typed)
	})
}

func (e *Emitter) addListener(eventType, kind string, handler message.NoPublishHandlerFunc) error {
	if e.router == nil {
		return errspkg.ErrEmitterRequired
	}

	e.listenerMu.Lock()
	e.listenerSeq++
	name := fmt.Sprintf("%s_%s_listener_%d", eventType, kind, e.listenerSeq)
	e.listenerMu.Unlock()

	e.router.AddNoPublisherHandler(name, eventType, e.subscriber, handler)
	return nil
}

// warnUnvalidatedSubscription logs once per event type that a subscription
// has no schema to validate against.
func (e *Emitter) warnUnvalidatedSubscription(eventType string) {
	e.warnedMu.Lock()
	defer e.warnedMu.Unlock()

	if _, done := e.warned[eventType]; done {
		return
	}
	e.warned[eventType] = struct{}{}
	e.logger.Info("No schema catalogued for subscription; deliveries are unvalidated", loggingpkg.LogFields{
		"event_type": eventType,
	})
}
