package runtime

import (
	"fmt"

	errspkg "github.com/drblury/flowscope/internal/runtime/errors"
	"github.com/drblury/flowscope/internal/runtime/ids"
)

// Entity is the object-instrumentation record: a name, a lazily populated
// counter table, and the single-slot provenance context of the current
// processing call. It decorates a foreign object rather than requiring the
// object to change.
type Entity struct {
	scope    *Scope
	target   any
	name     string
	counters map[string]uint64
	context  *Provenance
	stage    *Stage
}

// InstrumentObject attaches a name and an empty counter table to target.
// Instrumenting the same object twice is a programming error and fails with
// ErrAlreadyInstrumented. An empty name is replaced by a generated one.
func (sc *Scope) InstrumentObject(target any, name string) (*Entity, error) {
	if target == nil {
		return nil, errspkg.ErrNotInstrumented
	}
	if _, exists := sc.entities[target]; exists {
		return nil, fmt.Errorf("%w: %q", errspkg.ErrAlreadyInstrumented, name)
	}
	if name == "" {
		name = ids.StageName()
	}
	e := &Entity{
		scope:    sc,
		target:   target,
		name:     name,
		counters: make(map[string]uint64),
	}
	sc.entities[target] = e
	return e, nil
}

// EntityOf returns the instrumentation record previously attached to target,
// or nil.
func (sc *Scope) EntityOf(target any) *Entity {
	return sc.entities[target]
}

// Name returns the name set at instrumentation time.
func (e *Entity) Name() string {
	return e.name
}

// Target returns the wrapped object.
func (e *Entity) Target() any {
	return e.target
}

// Counter returns the current value of the named counter, or 0 if it was
// never bumped.
func (e *Entity) Counter(name string) uint64 {
	return e.counters[name]
}

// HasCounter reports whether the named counter has been bumped at least once.
// An unbumped counter is absent, not zero.
func (e *Entity) HasCounter(name string) bool {
	_, ok := e.counters[name]
	return ok
}

// Counters returns a copy of the counter table.
func (e *Entity) Counters() map[string]uint64 {
	out := make(map[string]uint64, len(e.counters))
	for k, v := range e.counters {
		out[k] = v
	}
	return out
}

// BumpCounter increments the named counter, creating it at zero first if
// absent, and returns the new value.
func (e *Entity) BumpCounter(name string) uint64 {
	e.counters[name]++
	v := e.counters[name]
	if e.scope.metrics != nil {
		e.scope.metrics.RecordBump(e.name, name)
	}
	return v
}

// Context returns the provenance value of the processing call currently
// active on this entity, or nil when idle.
func (e *Entity) Context() *Provenance {
	return e.context
}

// Warn records a non-fatal data-level problem: the kind counter is always
// bumped, then the warn observers run with a provenance context derived from
// the active processing call (nil when no call is active). Warnings never
// interrupt the flow of data.
//
// Calling Warn on a nil entity or with a nil error is a contract violation
// and panics.
func (e *Entity) Warn(err error, kind string) {
	if e == nil || e.scope == nil {
		panic(errspkg.ErrNotInstrumented)
	}
	if err == nil {
		panic(errspkg.ErrNilWarning)
	}
	e.BumpCounter(kind)
	var ctx *Provenance
	if e.context != nil {
		ctx = e.context.WithSource(e)
	}
	e.scope.emitWarn(WarnContext{
		Stage:   e.name,
		Context: ctx,
		Kind:    kind,
		Err:     err,
	})
}

// setContext pins the provenance value of the processing call about to run.
// A second processing call while one is active breaks the per-stage
// exclusivity invariant and panics.
func (e *Entity) setContext(p *Provenance) {
	if e.context != nil {
		panic(fmt.Errorf("%w: %q", errspkg.ErrReentrantProcess, e.name))
	}
	e.context = p
}

func (e *Entity) clearContext() {
	e.context = nil
}
