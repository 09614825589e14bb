/*
Package gate implements the schema-governed event layer behind the public
eventgate API.

# Architecture Overview

The gate wraps an untyped Watermill pub/sub bus with runtime payload
validation. Every emission passes through one write path: normalize the
payload, validate it against the schema catalog, meter the outcome, then
forward to the bus. The subscribe side re-validates deliveries before they
reach application listeners.

# Package Structure

## Emitter (emitter.go, emit.go, listen.go)

The Emitter struct is the central orchestrator that wires together:
  - Message router (Watermill)
  - Publisher and subscriber resolved through the transport registry
  - Middleware chain
  - Emission metrics and the optional Prometheus HTTP endpoint
  - The schema catalog and enforcement mode

EmitValidated is the only sanctioned write path. OnValidated and On wrap
subscriptions with re-validation; OnRaw is the deliberate escape hatch.

## Enforcement modes

Soft mode forwards uncatalogued event types with a logged warning. Strict
mode panics with an UncataloguedTypeError unless the type is on the legacy
allowlist. Validation failures behave the same in both modes: the payload is
rejected and the bus is never invoked.

## Middleware (middleware.go)

Composable router middleware for the consume side:
  - CorrelationID: ensures message traceability
  - LogMessages: debug logging of message payloads
  - Tracer: OpenTelemetry distributed tracing
  - Metrics: Prometheus router metrics
  - Recoverer: panic recovery

## Metrics (metrics.go, models.go, resources.go)

EmissionMetrics keeps per-type counters and validation timings alongside
Prometheus collectors, plus a global uncatalogued counter, validation latency
percentiles, and coarse resource usage in snapshots.

# Sub-packages

  - catalog/: immutable event-type to schema mapping
  - config/: emitter and transport configuration with validation
  - coverage/: catalog vs. observed traffic diffing
  - errors/: sentinel errors shared across the layer
  - ids/: ULID generation for message IDs
  - jsoncodec/: JSON marshaling utilities
  - logging/: logger interface and adapters
  - metadata/: message metadata utilities
  - registry/: name-keyed descriptive schema registry with fixture checks
  - schema/: payload schemas and validation primitives

# Usage Example

	cfg := &config.Config{Transport: "channel"}
	em, err := gate.NewEmitter(cfg, logger, events.Catalog(), nil)
	if err != nil {
		return err
	}

	gate.On(em, "ui.theme_changed", func(ctx context.Context, evt *events.ThemeChanged) error {
		return applyTheme(evt.Theme)
	})

	go em.Start(ctx)
	em.EmitValidated(ctx, "ui.theme_changed", payload)
*/
package gate
