package runtime

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	configpkg "github.com/drblury/flowscope/internal/runtime/config"
	loggingpkg "github.com/drblury/flowscope/internal/runtime/logging"
)

// ScopeDependencies holds the optional collaborators a Scope can use. Leave
// fields zero to skip the related feature.
type ScopeDependencies struct {
	// Hooks observe warnings raised by instrumented entities.
	Hooks WarnHooks
	// Registerer receives the Prometheus collectors when metrics are enabled.
	// Nil falls back to the default registerer.
	Registerer prometheus.Registerer
	// TracerProvider enables per-processing-call spans when set.
	TracerProvider trace.TracerProvider
}

// Scope owns the instrumentation state of one pipeline graph: the entity and
// stage registries, the logger, warn hooks, and the optional metrics mirror
// and debug servers.
//
// A Scope follows the engine's cooperative model: its registries are mutated
// only from the goroutine driving the pipeline, so they carry no locks. The
// metrics mirror is independently synchronized for scrapes.
type Scope struct {
	conf   configpkg.Config
	logger loggingpkg.ServiceLogger
	hooks  WarnHooks

	metrics *StageMetrics
	tracer  trace.Tracer

	entities map[any]*Entity
	stages   []*Stage

	httpServers   map[int]*httpMux
	httpServersMu sync.Mutex
}

// NewScope constructs a Scope for the supplied configuration.
func NewScope(conf configpkg.Config, log loggingpkg.ServiceLogger, deps ScopeDependencies) (*Scope, error) {
	if err := configpkg.ValidateConfig(conf); err != nil {
		return nil, err
	}
	if log == nil {
		log = loggingpkg.NopLogger()
	}
	sc := &Scope{
		conf:     conf.WithDefaults(),
		logger:   log,
		hooks:    deps.Hooks,
		entities: make(map[any]*Entity),
	}
	if deps.TracerProvider != nil {
		sc.tracer = deps.TracerProvider.Tracer(tracerName)
	}
	if conf.MetricsEnabled {
		sc.metrics = NewStageMetrics(deps.Registerer)
		if err := sc.metrics.Register(); err != nil {
			return nil, err
		}
		registerer := deps.Registerer
		if registerer == nil {
			registerer = prometheus.DefaultRegisterer
		}
		if err := registerer.Register(NewBufferCollector(sc)); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
		sc.registerMetricsHandler()
	}
	if sc.conf.DebugServerPort > 0 {
		sc.registerDebugHandler()
	}
	return sc, nil
}

// Logger returns the scope's logger.
func (sc *Scope) Logger() loggingpkg.ServiceLogger {
	return sc.logger
}

// Metrics returns the metrics mirror, or nil when metrics are disabled.
func (sc *Scope) Metrics() *StageMetrics {
	return sc.metrics
}

// AddHooks appends hooks to the scope's warn hook chain.
func (sc *Scope) AddHooks(hooks WarnHooks) {
	sc.hooks = sc.hooks.Merge(hooks)
}

func (sc *Scope) emitWarn(ctx WarnContext) {
	fields := loggingpkg.LogFields{
		"stage": ctx.Stage,
		"kind":  ctx.Kind,
	}
	if ctx.Context != nil {
		fields["provenance"] = ctx.Context.Label()
	}
	sc.logger.Warn("pipeline warning", ctx.Err, fields)
	if sc.metrics != nil {
		sc.metrics.RecordWarn(ctx.Stage, ctx.Kind)
	}
	if sc.hooks.OnWarn != nil {
		sc.hooks.OnWarn(ctx)
	}
}

var (
	defaultScope     *Scope
	defaultScopeOnce sync.Once
)

// Default returns the package-level scope backing the convenience functions.
func Default() *Scope {
	defaultScopeOnce.Do(func() {
		sc, err := NewScope(configpkg.Config{}, loggingpkg.NopLogger(), ScopeDependencies{})
		if err != nil {
			panic(err)
		}
		defaultScope = sc
	})
	return defaultScope
}
