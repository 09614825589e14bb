package gate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/plugin"
	"github.com/prometheus/client_golang/prometheus"

	catalogpkg "github.com/pageloom/eventgate/internal/gate/catalog"
	configpkg "github.com/pageloom/eventgate/internal/gate/config"
	errspkg "github.com/pageloom/eventgate/internal/gate/errors"
	loggingpkg "github.com/pageloom/eventgate/internal/gate/logging"
	transportpkg "github.com/pageloom/eventgate/transport"
)

var routerRun = func(router *message.Router, ctx context.Context) error {
	return router.Run(ctx)
}

// EmitterDependencies holds the optional collaborators an Emitter can use.
// The zero value selects the registry transport, the default Prometheus
// registerer, and the default middleware chain.
type EmitterDependencies struct {
	// Publisher overrides the transport publisher. Mainly for tests.
	Publisher message.Publisher
	// Subscriber overrides the transport subscriber. Mainly for tests.
	Subscriber message.Subscriber
	// Hooks receives emission lifecycle callbacks.
	Hooks EmitHooks
	// Registerer receives the Prometheus collectors when metrics are enabled.
	Registerer prometheus.Registerer
	// Middlewares are appended after the default middleware chain.
	Middlewares []MiddlewareRegistration
	// DisableDefaultMiddlewares skips registering the default chain when true.
	DisableDefaultMiddlewares bool
}

// Emitter is the only sanctioned write path to the bus: it normalizes,
// validates, meters, and then forwards every emission. The enforcement mode
// and the legacy allowlist are copied from the configuration at construction
// and are immutable afterwards.
type Emitter struct {
	cfg     *configpkg.Config
	logger  loggingpkg.ServiceLogger
	catalog *catalogpkg.Catalog

	mode            configpkg.Mode
	allowlist       map[string]struct{}
	origin          string
	injectTimestamp bool

	publisher  message.Publisher
	subscriber message.Subscriber
	router     *message.Router

	transport     transportpkg.Transport
	ownsTransport bool

	hooks      EmitHooks
	metrics    *EmissionMetrics
	registerer prometheus.Registerer

	warnedMu sync.Mutex
	warned   map[string]struct{}

	listenerMu  sync.Mutex
	listenerSeq uint64

	httpServers   map[int]*http.ServeMux
	httpServersMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// NewEmitter constructs an Emitter over the supplied catalog. Register
// listeners on the returned Emitter before calling Start.
func NewEmitter(cfg *configpkg.Config, logger loggingpkg.ServiceLogger, cat *catalogpkg.Catalog, deps *EmitterDependencies) (*Emitter, error) {
	if cfg == nil {
		return nil, errspkg.ErrConfigRequired
	}
	if logger == nil {
		return nil, errspkg.ErrLoggerRequired
	}
	if cat == nil {
		return nil, errspkg.ErrCatalogRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, errspkg.NewConfigValidationError(err)
	}
	if deps == nil {
		deps = &EmitterDependencies{}
	}

	registerer := deps.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	e := &Emitter{
		cfg:             cfg,
		logger:          logger,
		catalog:         cat,
		mode:            cfg.Mode(),
		allowlist:       make(map[string]struct{}, len(cfg.LegacyAllowlist)),
		origin:          cfg.Origin,
		injectTimestamp: cfg.InjectTimestamp,
		hooks:           deps.Hooks,
		registerer:      registerer,
		metrics:         NewEmissionMetrics(registerer),
		warned:          make(map[string]struct{}),
	}
	for _, eventType := range cfg.LegacyAllowlist {
		e.allowlist[eventType] = struct{}{}
	}

	if cfg.MetricsEnabled {
		if err := e.metrics.Register(); err != nil {
			return nil, fmt.Errorf("eventgate: register metrics: %w", err)
		}
	}

	logger.Info("Creating emitter", loggingpkg.LogFields{
		"transport":     cfg.Transport,
		"mode":          e.mode,
		"catalog_types": cat.Len(),
	})

	wmLogger := loggingpkg.NewWatermillAdapter(logger)

	e.publisher = deps.Publisher
	e.subscriber = deps.Subscriber
	if e.publisher == nil || e.subscriber == nil {
		tr, err := transportpkg.Build(context.Background(), cfg, wmLogger)
		if err != nil {
			return nil, fmt.Errorf("eventgate: build transport %q: %w", cfg.Transport, err)
		}
		e.transport = tr
		e.ownsTransport = true
		if e.publisher == nil {
			e.publisher = tr.Publisher
		}
		if e.subscriber == nil {
			e.subscriber = tr.Subscriber
		}
	}

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("eventgate: create router: %w", err)
	}
	e.router = router
	e.router.AddPlugin(plugin.SignalsHandler)

	if err := e.registerConfiguredMiddlewares(deps); err != nil {
		return nil, err
	}

	return e, nil
}

func (e *Emitter) registerConfiguredMiddlewares(deps *EmitterDependencies) error {
	var defaults []MiddlewareRegistration
	if !deps.DisableDefaultMiddlewares {
		defaults = DefaultMiddlewares()
	}
	registrations := make([]MiddlewareRegistration, 0, len(defaults)+len(deps.Middlewares))
	registrations = append(registrations, defaults...)
	registrations = append(registrations, deps.Middlewares...)

	for _, reg := range registrations {
		if err := e.RegisterMiddleware(reg); err != nil {
			name := reg.Name
			if name == "" {
				name = "anonymous_middleware"
			}
			return fmt.Errorf("eventgate: register middleware %s: %w", name, err)
		}
	}
	return nil
}

// Start runs the underlying router until the provided context is cancelled.
// The Prometheus endpoint, when configured, is served for the lifetime of the
// process.
func (e *Emitter) Start(ctx context.Context) error {
	e.startHTTPServers()
	return routerRun(e.router, ctx)
}

// Running returns a channel that closes once the router is running and
// listeners receive deliveries.
func (e *Emitter) Running() <-chan struct{} {
	return e.router.Running()
}

// Close stops the router and, when the emitter built its own transport,
// closes the underlying publisher and subscriber.
func (e *Emitter) Close() error {
	e.closeOnce.Do(func() {
		errs := []error{e.router.Close()}
		if e.ownsTransport {
			if e.transport.Publisher != nil {
				errs = append(errs, e.transport.Publisher.Close())
			}
			if e.transport.Subscriber != nil {
				errs = append(errs, e.transport.Subscriber.Close())
			}
		}
		e.closeErr = errors.Join(errs...)
	})
	return e.closeErr
}

// Metrics returns a snapshot of the emission metrics stamped with the
// emitter's mode and catalog size.
func (e *Emitter) Metrics() EmissionSnapshot {
	snapshot := e.metrics.Snapshot()
	snapshot.Mode = e.mode
	snapshot.CatalogSize = e.catalog.Len()
	return snapshot
}

// Mode reports the enforcement mode the emitter was constructed with.
func (e *Emitter) Mode() configpkg.Mode {
	return e.mode
}

// Catalog returns the schema catalog the emitter validates against.
func (e *Emitter) Catalog() *catalogpkg.Catalog {
	return e.catalog
}

// RegisterHTTPHandler mounts a handler on the mux for the given port. The
// servers start together with the emitter.
func (e *Emitter) RegisterHTTPHandler(port int, pattern string, handler http.Handler) {
	e.httpServersMu.Lock()
	defer e.httpServersMu.Unlock()

	if e.httpServers == nil {
		e.httpServers = make(map[int]*http.ServeMux)
	}

	mux, ok := e.httpServers[port]
	if !ok {
		mux = http.NewServeMux()
		e.httpServers[port] = mux
	}

	mux.Handle(pattern, handler)
}

func (e *Emitter) startHTTPServers() {
	e.httpServersMu.Lock()
	defer e.httpServersMu.Unlock()

	for port, mux := range e.httpServers {
		addr := fmt.Sprintf(":%d", port)
		e.logger.Info("Starting HTTP server", loggingpkg.LogFields{"address": addr})
		go func(addr string, handler http.Handler) {
			if err := http.ListenAndServe(addr, handler); err != nil {
				e.logger.Error("Failed to start HTTP server", err, loggingpkg.LogFields{"address": addr})
			}
		}(addr, mux)
	}
}
