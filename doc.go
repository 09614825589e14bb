// Package eventgate is a schema-governed event layer on top of Watermill. It
// puts a single validated write path in front of the bus: every emission is
// normalized against a shared envelope, checked against an immutable schema
// catalog, metered, and only then forwarded to the configured transport
// (Kafka, RabbitMQ, AWS SNS/SQS, NATS, JetStream, HTTP, or in-memory Go
// channels). Rejected payloads never reach the bus.
//
// The Emitter is the heart of the layer. EmitValidated validates and forwards
// a payload; On, OnValidated, and OnRaw subscribe listeners that are
// re-validated on delivery. Uncatalogued event types are forwarded unvalidated
// in soft mode and counted as schema gaps; strict mode panics with an
// *UncataloguedTypeError unless the type is on the legacy allowlist, which is
// the one deliberately loud failure path in the layer.
//
// A minimal setup fills Config (or loads it from EVENTGATE_* environment
// variables via FromEnv), builds a Catalog of schemas, creates an Emitter,
// registers listeners, and calls Start; see the examples directory for
// runnable setups.
//
// # Schemas
//
// Schemas validate raw payload bytes for a single event type. MustJSONSchema
// declares a schema over a payload struct embedding Envelope; MustProtoSchema
// validates against a protobuf message via protojson. The catalog keys
// schemas by wire event type for runtime dispatch, while the Registry keys
// the same schemas by human-readable name and carries domains, descriptions,
// and fixture-based regression checks for documentation and tooling.
//
// # Middleware
//
// The router runs the default middleware chain of correlation ID injection,
// structured logging, OpenTelemetry tracing, Prometheus metrics, and panic
// recovery. Custom middleware can be added via EmitterDependencies.
//
// # Observability
//
// Every emission is metered per event type: counts, failures, and a running
// validation-latency average that covers validated emissions only. Snapshots
// are available programmatically via Emitter.Metrics and as Prometheus
// collectors when metrics are enabled.
package eventgate
