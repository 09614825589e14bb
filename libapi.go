package eventgate

import (
	"context"

	"google.golang.org/protobuf/proto"

	gatepkg "github.com/pageloom/eventgate/internal/gate"
	catalogpkg "github.com/pageloom/eventgate/internal/gate/catalog"
	configpkg "github.com/pageloom/eventgate/internal/gate/config"
	coveragepkg "github.com/pageloom/eventgate/internal/gate/coverage"
	errspkg "github.com/pageloom/eventgate/internal/gate/errors"
	idspkg "github.com/pageloom/eventgate/internal/gate/ids"
	jsoncodec "github.com/pageloom/eventgate/internal/gate/jsoncodec"
	loggingpkg "github.com/pageloom/eventgate/internal/gate/logging"
	metadatapkg "github.com/pageloom/eventgate/internal/gate/metadata"
	registrypkg "github.com/pageloom/eventgate/internal/gate/registry"
	schemapkg "github.com/pageloom/eventgate/internal/gate/schema"
	transportpkg "github.com/pageloom/eventgate/transport"
)

type (
	Config = configpkg.Config
	Mode   = configpkg.Mode

	Emitter             = gatepkg.Emitter
	EmitterDependencies = gatepkg.EmitterDependencies
	EmitResult          = gatepkg.EmitResult
	EmitOption          = gatepkg.EmitOption

	Event    = gatepkg.Event
	Listener = gatepkg.Listener

	// Emission lifecycle hooks
	EmitContext = gatepkg.EmitContext
	EmitHooks   = gatepkg.EmitHooks

	MiddlewareBuilder      = gatepkg.MiddlewareBuilder
	MiddlewareRegistration = gatepkg.MiddlewareRegistration

	// Emission metrics
	EmissionMetrics  = gatepkg.EmissionMetrics
	EmissionSnapshot = gatepkg.EmissionSnapshot
	TypeMetrics      = gatepkg.TypeMetrics
	TypeSnapshot     = gatepkg.TypeSnapshot
	LatencyMetrics   = gatepkg.LatencyMetrics
	ResourceUsage    = gatepkg.ResourceUsage

	ValidationError       = gatepkg.ValidationError
	UncataloguedTypeError = gatepkg.UncataloguedTypeError
	ConfigValidationError = errspkg.ConfigValidationError

	// Schema and catalog types
	Catalog  = catalogpkg.Catalog
	Schema   = schemapkg.Schema
	Issue    = schemapkg.Issue
	Result   = schemapkg.Result
	Envelope = schemapkg.Envelope

	// Documentation registry
	Registry       = registrypkg.Registry
	RegistryEntry  = registrypkg.Entry
	RegistryStats  = registrypkg.Stats
	FixtureReport  = registrypkg.FixtureReport
	FixtureFailure = registrypkg.FixtureFailure

	CoverageReport = coveragepkg.Report

	Metadata = metadatapkg.Metadata

	LogFields                 = loggingpkg.LogFields
	ServiceLogger             = loggingpkg.ServiceLogger
	EntryLogger               = loggingpkg.EntryLogger
	EntryLoggerAdapter[T any] = loggingpkg.EntryLoggerAdapter[T]

	// Transport layer
	Transport             = transportpkg.Transport
	TransportBuilder      = transportpkg.Builder
	TransportConfig       = transportpkg.Config
	TransportRegistry     = transportpkg.Registry
	TransportCapabilities = transportpkg.Capabilities
)

// Enforcement modes for uncatalogued event types.
const (
	ModeSoft   = configpkg.ModeSoft
	ModeStrict = configpkg.ModeStrict
)

// DefaultTransport is used when Config.Transport is empty.
const DefaultTransport = transportpkg.DefaultTransport

var (
	FromEnv        = configpkg.FromEnv
	ValidateConfig = configpkg.ValidateConfig

	NewEmitter = gatepkg.NewEmitter

	// Per-emission options
	WithoutValidation      = gatepkg.WithoutValidation
	WithTimestampInjection = gatepkg.WithTimestampInjection
	WithCorrelationID      = gatepkg.WithCorrelationID

	DefaultMiddlewares      = gatepkg.DefaultMiddlewares
	CorrelationIDMiddleware = gatepkg.CorrelationIDMiddleware
	LogMessagesMiddleware   = gatepkg.LogMessagesMiddleware
	TracerMiddleware        = gatepkg.TracerMiddleware
	MetricsMiddleware       = gatepkg.MetricsMiddleware
	RecovererMiddleware     = gatepkg.RecovererMiddleware

	LoggingHooks = gatepkg.LoggingHooks

	NewEmissionMetrics = gatepkg.NewEmissionMetrics

	NewCatalog  = catalogpkg.New
	MustCatalog = catalogpkg.MustNew

	NewRegistry  = registrypkg.New
	MustRegistry = registrypkg.MustNew

	// CoverageDiff reports observed event types missing from the catalog.
	CoverageDiff = coveragepkg.Diff

	Issuef = schemapkg.Issuef

	Marshal       = jsoncodec.Marshal
	MarshalIndent = jsoncodec.MarshalIndent
	Unmarshal     = jsoncodec.Unmarshal
	ValidJSON     = jsoncodec.Valid
	Encode        = jsoncodec.Encode
	Decode        = jsoncodec.Decode

	NewMetadata = metadatapkg.New

	NewSlogServiceLogger      = loggingpkg.NewSlogServiceLogger
	NewWatermillServiceLogger = loggingpkg.NewWatermillServiceLogger

	CreateULID = idspkg.CreateULID
	IsULID     = idspkg.IsULID

	// Modular transport registry.
	// Import individual transports via: _ "github.com/pageloom/eventgate/transport/kafka"
	// or all of them via: _ "github.com/pageloom/eventgate/transport/transports"
	DefaultTransportRegistry = transportpkg.DefaultRegistry
	RegisterTransport        = transportpkg.Register
	BuildTransport           = transportpkg.Build
	GetTransportCapabilities = transportpkg.GetCapabilities

	ErrEmitterRequired   = errspkg.ErrEmitterRequired
	ErrListenerRequired  = errspkg.ErrListenerRequired
	ErrEventTypeRequired = errspkg.ErrEventTypeRequired
	ErrPayloadRequired   = errspkg.ErrPayloadRequired
	ErrLoggerRequired    = errspkg.ErrLoggerRequired
	ErrCatalogRequired   = errspkg.ErrCatalogRequired
	ErrConfigRequired    = errspkg.ErrConfigRequired
)

// Metadata keys stamped onto every forwarded message.
const (
	MetadataKeyEventType     = metadatapkg.KeyEventType
	MetadataKeyOrigin        = metadatapkg.KeyOrigin
	MetadataKeyCorrelationID = metadatapkg.KeyCorrelationID
	MetadataKeyValidated     = metadatapkg.KeyValidated
)

// On registers a typed listener for eventType. T must match the payload type
// the catalogued schema produces, usually a pointer payload struct such as
// *events.ThemeChanged.
func On[T any](e *Emitter, eventType string, fn func(ctx context.Context, payload T) error) error {
	return gatepkg.On[T](e, eventType, fn)
}

// NewJSONSchema builds a schema that validates payloads by unmarshalling into
// T and checking the envelope. T must embed Envelope; check may be nil.
func NewJSONSchema[T any](eventType string, check func(*T) []Issue) (*schemapkg.JSON[T], error) {
	return schemapkg.NewJSON[T](eventType, check)
}

// MustJSONSchema is NewJSONSchema that panics on error, for static catalog
// declarations.
func MustJSONSchema[T any](eventType string, check func(*T) []Issue) *schemapkg.JSON[T] {
	return schemapkg.MustJSON[T](eventType, check)
}

// NewProtoSchema builds a schema backed by a protobuf message type. T must be
// a pointer message type; check may be nil.
func NewProtoSchema[T proto.Message](eventType string, check func(T) []Issue) (*schemapkg.Proto[T], error) {
	return schemapkg.NewProto[T](eventType, check)
}

// MustProtoSchema is NewProtoSchema that panics on error, for static catalog
// declarations.
func MustProtoSchema[T proto.Message](eventType string, check func(T) []Issue) *schemapkg.Proto[T] {
	return schemapkg.MustProto[T](eventType, check)
}

func NewEntryServiceLogger[T EntryLoggerAdapter[T]](entry T) ServiceLogger {
	return loggingpkg.NewEntryServiceLogger(entry)
}
