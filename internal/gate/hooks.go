package gate

import (
	"time"

	loggingpkg "github.com/pageloom/eventgate/internal/gate/logging"
)

// EmitContext provides information about an emission to hooks.
type EmitContext struct {
	// EventType is the type literal being emitted.
	EventType string
	// MessageUUID is the bus message identifier. Empty in OnEmitStart; the
	// message is built after validation.
	MessageUUID string
	// CorrelationID is the correlation identifier stamped on the message.
	CorrelationID string
	// Validated reports whether the payload passed schema validation before
	// forwarding. False for skipped validation and uncatalogued forwards.
	Validated bool
	// StartedAt is when the emission started.
	StartedAt time.Time
	// Duration is how long the emission took (only set in OnEmitForwarded and
	// OnEmitRejected).
	Duration time.Duration
}

// EmitHooks defines callbacks for emission lifecycle events.
// All hooks are optional; nil hooks are simply not called.
type EmitHooks struct {
	// OnEmitStart is called when an emission begins, before normalization and
	// validation.
	OnEmitStart func(ctx EmitContext)

	// OnEmitForwarded is called after the payload has been handed to the bus.
	OnEmitForwarded func(ctx EmitContext)

	// OnEmitRejected is called when the gate refuses the payload: validation
	// failure in either mode, or an uncatalogued type under strict mode.
	OnEmitRejected func(ctx EmitContext, err error)
}

// Merge combines two EmitHooks, creating a new EmitHooks that calls both.
// The hooks from other are called after the hooks from h.
func (h EmitHooks) Merge(other EmitHooks) EmitHooks {
	return EmitHooks{
		OnEmitStart:     chainEmitHooks(h.OnEmitStart, other.OnEmitStart),
		OnEmitForwarded: chainEmitHooks(h.OnEmitForwarded, other.OnEmitForwarded),
		OnEmitRejected:  chainRejectHooks(h.OnEmitRejected, other.OnEmitRejected),
	}
}

func chainEmitHooks(a, b func(EmitContext)) func(EmitContext) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx EmitContext) {
		a(ctx)
		b(ctx)
	}
}

func chainRejectHooks(a, b func(EmitContext, error)) func(EmitContext, error) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx EmitContext, err error) {
		a(ctx, err)
		b(ctx, err)
	}
}

// LoggingHooks returns pre-built hooks that log emission lifecycle events.
func LoggingHooks(logger loggingpkg.ServiceLogger) EmitHooks {
	return EmitHooks{
		OnEmitStart: func(ctx EmitContext) {
			logger.Debug("Emission started", loggingpkg.LogFields{
				"event_type": ctx.EventType,
			})
		},
		OnEmitForwarded: func(ctx EmitContext) {
			logger.Info("Event forwarded", loggingpkg.LogFields{
				"event_type":   ctx.EventType,
				"message_uuid": ctx.MessageUUID,
				"validated":    ctx.Validated,
				"duration_ms":  ctx.Duration.Milliseconds(),
			})
		},
		OnEmitRejected: func(ctx EmitContext, err error) {
			logger.Error("Event rejected", err, loggingpkg.LogFields{
				"event_type":  ctx.EventType,
				"duration_ms": ctx.Duration.Milliseconds(),
			})
		},
	}
}
