package gate

import (
	"errors"

	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	idspkg "github.com/pageloom/eventgate/internal/gate/ids"
	loggingpkg "github.com/pageloom/eventgate/internal/gate/logging"
	metadatapkg "github.com/pageloom/eventgate/internal/gate/metadata"
)

const tracerName = "eventgate"

// MiddlewareBuilder constructs a handler middleware using the provided emitter instance.
type MiddlewareBuilder func(*Emitter) (message.HandlerMiddleware, error)

// MiddlewareRegistration captures how a middleware should be registered on the
// emitter's router.
type MiddlewareRegistration struct {
	Name       string
	Middleware message.HandlerMiddleware
	Builder    MiddlewareBuilder
}

// DefaultMiddlewares returns the standard middleware chain used by NewEmitter.
func DefaultMiddlewares() []MiddlewareRegistration {
	return []MiddlewareRegistration{
		CorrelationIDMiddleware(),
		LogMessagesMiddleware(nil),
		TracerMiddleware(),
		MetricsMiddleware(),
		RecovererMiddleware(),
	}
}

// CorrelationIDMiddleware ensures each processed message carries a correlation identifier.
func CorrelationIDMiddleware() MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "correlation_id",
		Builder: func(e *Emitter) (message.HandlerMiddleware, error) {
			return e.correlationIDMiddleware(), nil
		},
	}
}

// LogMessagesMiddleware logs the full payload and metadata of handled messages.
func LogMessagesMiddleware(logger loggingpkg.ServiceLogger) MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "log_messages",
		Builder: func(e *Emitter) (message.HandlerMiddleware, error) {
			l := logger
			if l == nil {
				l = e.logger
			}
			if l == nil {
				return nil, errors.New("log messages middleware requires a logger")
			}
			return e.logMessagesMiddleware(l), nil
		},
	}
}

// TracerMiddleware wraps handler execution in an OpenTelemetry span.
func TracerMiddleware() MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "tracer",
		Builder: func(e *Emitter) (message.HandlerMiddleware, error) {
			return e.tracerMiddleware(), nil
		},
	}
}

// MetricsMiddleware adds Prometheus router metrics and serves the metrics
// endpoint when a port is configured.
func MetricsMiddleware() MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "metrics",
		Builder: func(e *Emitter) (message.HandlerMiddleware, error) {
			if !e.cfg.MetricsEnabled {
				return nil, nil
			}

			metricsBuilder := metrics.NewPrometheusMetricsBuilder(
				e.registerer,
				"eventgate",
				e.cfg.Transport,
			)

			metricsBuilder.AddPrometheusRouterMetrics(e.router)

			if e.cfg.MetricsPort > 0 {
				handler := promhttp.Handler()
				if gatherer, ok := e.registerer.(prometheus.Gatherer); ok {
					handler = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
				}
				e.RegisterHTTPHandler(e.cfg.MetricsPort, "/metrics", handler)
			}

			return metricsBuilder.NewRouterMiddleware().Middleware, nil
		},
	}
}

// RecovererMiddleware converts panics into handler errors.
func RecovererMiddleware() MiddlewareRegistration {
	return MiddlewareRegistration{
		Name:       "recoverer",
		Middleware: middleware.Recoverer,
	}
}

// RegisterMiddleware attaches the supplied middleware to the router.
func (e *Emitter) RegisterMiddleware(cfg MiddlewareRegistration) error {
	if e.router == nil {
		return errors.New("router is not initialised")
	}

	var mw message.HandlerMiddleware
	switch {
	case cfg.Middleware != nil:
		mw = cfg.Middleware
	case cfg.Builder != nil:
		var err error
		mw, err = cfg.Builder(e)
		if err != nil {
			return err
		}
	default:
		return errors.New("middleware registration requires Middleware or Builder")
	}

	if mw == nil {
		return nil
	}

	e.router.AddMiddleware(mw)
	return nil
}

// correlationIDMiddleware injects a correlation ID into the message metadata when missing.
func (e *Emitter) correlationIDMiddleware() message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			if _, ok := msg.Metadata[metadatapkg.KeyCorrelationID]; !ok {
				msg.Metadata[metadatapkg.KeyCorrelationID] = idspkg.CreateULID()
			}
			return h(msg)
		}
	}
}

// logMessagesMiddleware logs all processed messages with their metadata.
func (e *Emitter) logMessagesMiddleware(logger loggingpkg.ServiceLogger) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			logger.Debug("Processing message", loggingpkg.LogFields{
				"message_uuid": msg.UUID,
				"payload":      string(msg.Payload),
				"metadata":     msg.Metadata,
			})
			return h(msg)
		}
	}
}

// tracerMiddleware wraps message handling with an OpenTelemetry span.
func (e *Emitter) tracerMiddleware() message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			tracer := otel.Tracer(tracerName)
			ctx, span := tracer.Start(
				msg.Context(),
				"eventgate.consume",
				trace.WithSpanKind(trace.SpanKindConsumer),
			)
			defer span.End()
			msg.SetContext(ctx)

			span.SetAttributes(
				attribute.String("message.uuid", msg.UUID),
				attribute.String("event.type", msg.Metadata.Get(metadatapkg.KeyEventType)),
			)
			return h(msg)
		}
	}
}
