// Package flowscope is an observability overlay for object-mode streaming
// pipelines. It decorates existing stages with named counters, provenance
// tracking, warning hooks, and linkage introspection without the stages
// cooperating: instrumentation wraps the processing, emission, and flush
// extension points from the outside.
//
// A Scope owns the instrumentation state of one pipeline graph. Objects are
// instrumented in layers: InstrumentObject attaches a name and a lazy counter
// table, InstrumentStream adds mutual upstream/downstream linkage recorded as
// connections are observed, and InstrumentTransform wraps the processing call
// so every chunk runs under a pinned provenance context. WrapStream and
// WrapTransform compose the layers.
//
// # Provenance
//
// A Provenance pairs an immutable value with the ordered history of stages
// that produced it. Crossing an emission boundary derives a new value; history
// entries record the emitting stage and its input index at emission time, so
// any output can be traced back to the exact inputs that caused it. Whether a
// stage tags its outputs is decided by a per-stage marshal-mode state machine:
// connecting an instrumented transform downstream pins marshal, a first
// emission without one pins nomarshal.
//
// # Composite pipelines
//
// PipelineStream wraps an ordered sequence of stages behind a single
// push/pull interface. Writes enter the first stage, reads come from the
// last, and the composite's read loop respects the engine's flow control end
// to end, pausing at its outward watermark and resuming on drain.
//
// # Diagnostics
//
// Every stage renders through DumpDebug and DumpCounters; DumpPipeline walks
// a whole graph from its head. Warnings raised through Entity.Warn are always
// counted and fan out to WarnHooks for custom logging, metrics collection,
// and alerting. With metrics enabled a Scope mirrors counters and live buffer
// levels into Prometheus collectors, and the debug server serves JSON
// snapshots of the graph.
package flowscope
