package runtime

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "flowscope"

// traceProcess wraps one instrumented processing call in an OpenTelemetry
// span when the scope has a tracer configured.
func (sc *Scope) traceProcess(st *Stage, pv *Provenance, fn func() ([]any, error)) ([]any, error) {
	if sc.tracer == nil {
		return fn()
	}
	_, span := sc.tracer.Start(
		context.Background(),
		"flowscope.Process",
		trace.WithAttributes(
			attribute.String("stage.name", st.Name()),
			attribute.Int64("stage.input_index", int64(st.Counter(CounterInputs))),
			attribute.String("provenance.label", pv.Label()),
		),
	)
	defer span.End()

	results, err := fn()
	if err != nil {
		span.RecordError(err)
	}
	return results, err
}
