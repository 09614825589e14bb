package gate

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	configpkg "github.com/pageloom/eventgate/internal/gate/config"
	errspkg "github.com/pageloom/eventgate/internal/gate/errors"
	idspkg "github.com/pageloom/eventgate/internal/gate/ids"
	jsoncodec "github.com/pageloom/eventgate/internal/gate/jsoncodec"
	loggingpkg "github.com/pageloom/eventgate/internal/gate/logging"
	metadatapkg "github.com/pageloom/eventgate/internal/gate/metadata"
	schemapkg "github.com/pageloom/eventgate/internal/gate/schema"
)

// EmitResult reports the outcome of one EmitValidated call. OK answers "was
// the payload admitted to the bus": a validation failure leaves it false,
// while a publish error after successful validation leaves it true and
// surfaces through the returned error instead.
type EmitResult struct {
	OK bool `json:"ok"`
	// Validated reports whether the payload passed schema validation before
	// forwarding. False for uncatalogued forwards and skipped validation.
	Validated   bool              `json:"validated"`
	MessageUUID string            `json:"message_uuid,omitempty"`
	Issues      []schemapkg.Issue `json:"issues,omitempty"`
}

type emitOptions struct {
	skipValidation  bool
	injectTimestamp bool
	correlationID   string
}

// EmitOption adjusts a single EmitValidated call.
type EmitOption func(*emitOptions)

// WithoutValidation bypasses normalization and validation for this emission.
// The payload is forwarded as-is and still metered. Intended for controlled
// performance experiments, not as a regular path.
func WithoutValidation() EmitOption {
	return func(o *emitOptions) { o.skipValidation = true }
}

// WithTimestampInjection overrides the configured timestamp injection for
// this emission.
func WithTimestampInjection(inject bool) EmitOption {
	return func(o *emitOptions) { o.injectTimestamp = inject }
}

// WithCorrelationID stamps the given correlation identifier onto the
// forwarded message metadata.
func WithCorrelationID(id string) EmitOption {
	return func(o *emitOptions) { o.correlationID = id }
}

// EmitValidated normalizes and validates payload against the catalogued
// schema for eventType, then forwards it to the bus. Rejected payloads never
// reach the bus. An uncatalogued event type is forwarded unvalidated in soft
// mode; in strict mode it panics with an *UncataloguedTypeError unless the
// type is on the legacy allowlist. That panic is the single deliberately
// loud path in the layer.
func (e *Emitter) EmitValidated(ctx context.Context, eventType string, payload any, opts ...EmitOption) (EmitResult, error) {
	if eventType == "" {
		return EmitResult{}, errspkg.ErrEventTypeRequired
	}
	if payload == nil {
		return EmitResult{}, errspkg.ErrPayloadRequired
	}

	options := emitOptions{injectTimestamp: e.injectTimestamp}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "eventgate.emit",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(attribute.String("event.type", eventType)),
	)
	defer span.End()

	startedAt := time.Now()
	e.invokeStartHook(EmitContext{
		EventType:     eventType,
		CorrelationID: options.correlationID,
		StartedAt:     startedAt,
	})

	raw, err := encodePayload(payload)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return EmitResult{}, fmt.Errorf("eventgate: encode payload for %q: %w", eventType, err)
	}

	if _, found := e.catalog.Schema(eventType); !found {
		return e.emitUncatalogued(ctx, span, eventType, raw, options, startedAt)
	}

	if options.skipValidation {
		// Still metered: a zero elapsed duration keeps the emission out of
		// the validation timing accounts.
		e.metrics.RecordSuccess(eventType, 0)
		span.SetAttributes(attribute.String("emit.outcome", "skipped_validation"))
		uuid, pubErr := e.publish(ctx, eventType, raw, options, false)
		if pubErr == nil {
			e.invokeForwardedHook(EmitContext{
				EventType:     eventType,
				MessageUUID:   uuid,
				CorrelationID: options.correlationID,
				StartedAt:     startedAt,
				Duration:      time.Since(startedAt),
			})
		}
		return EmitResult{OK: true, MessageUUID: uuid}, pubErr
	}

	// The validation timer covers normalization and parsing together.
	validationStart := time.Now()
	candidate := e.normalize(eventType, raw, options)
	result := e.catalog.Validate(eventType, candidate)
	elapsed := time.Since(validationStart)
	if elapsed <= 0 {
		elapsed = time.Nanosecond
	}

	if !result.OK {
		verr := &ValidationError{EventType: eventType, Issues: result.Issues}
		e.metrics.RecordFailure(eventType, verr)
		e.invokeRejectedHook(EmitContext{
			EventType:     eventType,
			CorrelationID: options.correlationID,
			StartedAt:     startedAt,
			Duration:      time.Since(startedAt),
		}, verr)
		e.logger.Error("Payload rejected by schema validation", verr, loggingpkg.LogFields{
			"event_type": eventType,
			"issues":     joinIssues(result.Issues),
		})
		span.SetAttributes(attribute.String("emit.outcome", "rejected"))
		span.SetStatus(codes.Error, "validation failed")
		return EmitResult{Issues: result.Issues}, verr
	}

	e.metrics.RecordSuccess(eventType, elapsed)
	span.SetAttributes(attribute.String("emit.outcome", "validated"))

	uuid, pubErr := e.publish(ctx, eventType, candidate, options, true)
	if pubErr != nil {
		span.SetStatus(codes.Error, pubErr.Error())
		return EmitResult{OK: true, Validated: true, MessageUUID: uuid}, pubErr
	}

	e.invokeForwardedHook(EmitContext{
		EventType:     eventType,
		MessageUUID:   uuid,
		CorrelationID: options.correlationID,
		Validated:     true,
		StartedAt:     startedAt,
		Duration:      time.Since(startedAt),
	})
	return EmitResult{OK: true, Validated: true, MessageUUID: uuid}, nil
}

// emitUncatalogued handles event types with no catalogued schema. Both modes
// count the schema gap; only strict mode without an allowlist entry refuses
// the emission.
func (e *Emitter) emitUncatalogued(ctx context.Context, span trace.Span, eventType string, raw []byte, options emitOptions, startedAt time.Time) (EmitResult, error) {
	e.metrics.RecordUncatalogued(eventType)

	if e.mode == configpkg.ModeStrict {
		if _, allowed := e.allowlist[eventType]; !allowed {
			uerr := &UncataloguedTypeError{EventType: eventType, Strict: true}
			// Observability before the crash: the failure is on record even
			// though the call path dies.
			e.metrics.RecordFailure(eventType, uerr)
			e.invokeRejectedHook(EmitContext{
				EventType:     eventType,
				CorrelationID: options.correlationID,
				StartedAt:     startedAt,
				Duration:      time.Since(startedAt),
			}, uerr)
			span.SetAttributes(attribute.String("emit.outcome", "rejected_uncatalogued"))
			span.SetStatus(codes.Error, uerr.Error())
			panic(uerr)
		}
	}

	e.metrics.RecordSuccess(eventType, 0)
	e.logger.Info("Emitting uncatalogued event type without validation", loggingpkg.LogFields{
		"event_type": eventType,
		"mode":       string(e.mode),
	})
	span.SetAttributes(attribute.String("emit.outcome", "uncatalogued"))

	uuid, pubErr := e.publish(ctx, eventType, raw, options, false)
	if pubErr == nil {
		e.invokeForwardedHook(EmitContext{
			EventType:     eventType,
			MessageUUID:   uuid,
			CorrelationID: options.correlationID,
			StartedAt:     startedAt,
			Duration:      time.Since(startedAt),
		})
	}
	return EmitResult{OK: true, MessageUUID: uuid}, pubErr
}

// publish builds the bus message and hands it to the transport publisher.
// The topic is the event type.
func (e *Emitter) publish(ctx context.Context, eventType string, payload []byte, options emitOptions, validated bool) (string, error) {
	msg := message.NewMessage(idspkg.CreateULID(), payload)
	msg.Metadata.Set(metadatapkg.KeyEventType, eventType)
	msg.Metadata.Set(metadatapkg.KeyValidated, strconv.FormatBool(validated))
	if e.origin != "" {
		msg.Metadata.Set(metadatapkg.KeyOrigin, e.origin)
	}
	if options.correlationID != "" {
		msg.Metadata.Set(metadatapkg.KeyCorrelationID, options.correlationID)
	}
	if ctx != nil {
		msg.SetContext(ctx)
	}

	if err := e.publisher.Publish(eventType, msg); err != nil {
		return msg.UUID, fmt.Errorf("eventgate: publish %q: %w", eventType, err)
	}
	return msg.UUID, nil
}

// normalize decodes object payloads, forces the envelope type to eventType,
// and stamps origin and timestamp when absent. Non-object payloads pass
// through untouched and go to validation as-is.
func (e *Emitter) normalize(eventType string, raw []byte, options emitOptions) []byte {
	var fields map[string]any
	if err := jsoncodec.Unmarshal(raw, &fields); err != nil || fields == nil {
		return raw
	}

	if current, _ := fields["type"].(string); current != eventType {
		fields["type"] = eventType
	}
	if e.origin != "" {
		if current, _ := fields["origin"].(string); current == "" {
			fields["origin"] = e.origin
		}
	}
	if options.injectTimestamp && !hasTimestamp(fields) {
		fields["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	}

	out, err := jsoncodec.Marshal(fields)
	if err != nil {
		return raw
	}
	return out
}

// hasTimestamp reports whether the payload already carries a usable
// timestamp. A marshalled zero time counts as absent so struct payloads that
// left the envelope empty still get stamped.
func hasTimestamp(fields map[string]any) bool {
	value, present := fields["timestamp"]
	if !present || value == nil {
		return false
	}
	str, isString := value.(string)
	if !isString {
		// Numeric or structured timestamps are the caller's business.
		return true
	}
	if str == "" {
		return false
	}
	if ts, err := time.Parse(time.RFC3339Nano, str); err == nil && ts.IsZero() {
		return false
	}
	return true
}

// encodePayload turns the caller's payload into raw JSON bytes. Byte slices
// are treated as pre-encoded JSON.
func encodePayload(payload any) ([]byte, error) {
	if raw, ok := payload.([]byte); ok {
		return raw, nil
	}
	return jsoncodec.Marshal(payload)
}

func (e *Emitter) invokeStartHook(ctx EmitContext) {
	if e.hooks.OnEmitStart != nil {
		e.hooks.OnEmitStart(ctx)
	}
}

func (e *Emitter) invokeForwardedHook(ctx EmitContext) {
	if e.hooks.OnEmitForwarded != nil {
		e.hooks.OnEmitForwarded(ctx)
	}
}

func (e *Emitter) invokeRejectedHook(ctx EmitContext, err error) {
	if e.hooks.OnEmitRejected != nil {
		e.hooks.OnEmitRejected(ctx, err)
	}
}
