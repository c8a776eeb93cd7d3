package flowscope

import (
	runtimepkg "github.com/drblury/flowscope/internal/runtime"
	configpkg "github.com/drblury/flowscope/internal/runtime/config"
	errspkg "github.com/drblury/flowscope/internal/runtime/errors"
	idspkg "github.com/drblury/flowscope/internal/runtime/ids"
	jsoncodec "github.com/drblury/flowscope/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/flowscope/internal/runtime/logging"
	streampkg "github.com/drblury/flowscope/stream"
	transportpkg "github.com/drblury/flowscope/transport"
)

type (
	Config            = configpkg.Config
	Scope             = runtimepkg.Scope
	ScopeDependencies = runtimepkg.ScopeDependencies

	Entity      = runtimepkg.Entity
	Stage       = runtimepkg.Stage
	Handle      = runtimepkg.Handle
	MarshalMode = runtimepkg.MarshalMode

	Provenance = runtimepkg.Provenance
	Origin     = runtimepkg.Origin
	Source     = runtimepkg.Source

	Pipeline       = runtimepkg.Pipeline
	PipelineConfig = runtimepkg.PipelineConfig

	DumpOptions   = runtimepkg.DumpOptions
	StageSnapshot = runtimepkg.StageSnapshot

	// Warning hooks
	WarnContext = runtimepkg.WarnContext
	WarnHooks   = runtimepkg.WarnHooks

	// Stage metrics
	StageMetrics = runtimepkg.StageMetrics

	LogFields     = loggingpkg.LogFields
	ServiceLogger = loggingpkg.ServiceLogger

	ConfigValidationError = errspkg.ConfigValidationError

	// Engine types
	Stream              = streampkg.Stream
	StreamStage         = streampkg.Stage
	StreamOptions       = streampkg.Options
	TransformFunc       = streampkg.TransformFunc
	FlushFunc           = streampkg.FlushFunc
	WriteFunc           = streampkg.WriteFunc
	TransformMiddleware = streampkg.TransformMiddleware
	PushMiddleware      = streampkg.PushMiddleware
	FlushMiddleware     = streampkg.FlushMiddleware

	// Modular transport types
	Transport         = transportpkg.Transport
	TransportBuilder  = transportpkg.Builder
	TransportConfig   = transportpkg.Config
	TransportRegistry = transportpkg.Registry
	TransportSource   = transportpkg.Source
)

const (
	ModeUnspecified = runtimepkg.ModeUnspecified
	ModeMarshal     = runtimepkg.ModeMarshal
	ModeNoMarshal   = runtimepkg.ModeNoMarshal

	CounterInputs  = runtimepkg.CounterInputs
	CounterOutputs = runtimepkg.CounterOutputs

	DefaultHighWatermark = streampkg.DefaultHighWatermark
	DefaultNamePadWidth  = configpkg.DefaultNamePadWidth
)

var (
	NewScope       = runtimepkg.NewScope
	DefaultScope   = runtimepkg.Default
	ValidateConfig = configpkg.ValidateConfig

	NewProvenance = runtimepkg.NewProvenance

	// Warning hooks
	LoggingHooks  = runtimepkg.LoggingHooks
	MetricsHooks  = runtimepkg.MetricsHooks
	AlertingHooks = runtimepkg.AlertingHooks

	// Stage metrics
	NewStageMetrics    = runtimepkg.NewStageMetrics
	NewBufferCollector = runtimepkg.NewBufferCollector

	// Engine constructors
	NewTransformStream = streampkg.NewTransform
	NewReadableStream  = streampkg.NewReadable
	NewWritableStream  = streampkg.NewWritable

	// Modular transport registry. Import individual transports via:
	//   _ "github.com/drblury/flowscope/transport/channel"
	DefaultTransportRegistry = transportpkg.DefaultRegistry
	RegisterTransport        = transportpkg.Register
	BuildTransport           = transportpkg.Build

	Marshal       = jsoncodec.Marshal
	MarshalIndent = jsoncodec.MarshalIndent
	Unmarshal     = jsoncodec.Unmarshal
	Encode        = jsoncodec.Encode
	Decode        = jsoncodec.Decode

	ErrAlreadyInstrumented = errspkg.ErrAlreadyInstrumented
	ErrNotInstrumented     = errspkg.ErrNotInstrumented
	ErrNotStage            = errspkg.ErrNotStage
	ErrNotTransform        = errspkg.ErrNotTransform
	ErrLinkNotFound        = errspkg.ErrLinkNotFound
	ErrReentrantProcess    = errspkg.ErrReentrantProcess
	ErrUnexpectedCallback  = errspkg.ErrUnexpectedCallback
	ErrEmptyPipeline       = errspkg.ErrEmptyPipeline
	ErrNilWarning          = errspkg.ErrNilWarning
	ErrLoggerRequired      = errspkg.ErrLoggerRequired

	NewSlogServiceLogger = loggingpkg.NewSlogServiceLogger
	NopLogger            = loggingpkg.NopLogger

	CreateULID = idspkg.CreateULID

	// NewStageName generates a unique stage name using ULID.
	NewStageName = idspkg.StageName
)
