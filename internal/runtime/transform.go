package runtime

import (
	"fmt"

	errspkg "github.com/drblury/flowscope/internal/runtime/errors"
	"github.com/drblury/flowscope/stream"
)

// InstrumentTransform wraps the three extension points of an already
// stream-instrumented stage: the per-chunk processing call, the emission
// primitive, and the end-of-input flush hook when the stage has one.
//
// Every processing call runs under a pinned provenance context; every
// emission bumps the outputs counter and, in marshal mode, derives a new
// provenance value naming this stage and its current input index. Whether
// outputs actually carry provenance is decided by the marshal-mode state
// machine on Stage.
func (sc *Scope) InstrumentTransform(st *Stage) error {
	if st == nil || st.Entity == nil {
		return errspkg.ErrNotInstrumented
	}
	if st.transformed {
		return fmt.Errorf("%w: transform on %q", errspkg.ErrAlreadyInstrumented, st.name)
	}
	st.transformed = true
	native := st.native

	native.WrapTransform(func(next stream.TransformFunc) stream.TransformFunc {
		return func(chunk any) ([]any, error) {
			pv, ok := chunk.(*Provenance)
			if !ok {
				pv = NewProvenance(chunk)
			}
			st.BumpCounter(CounterInputs)
			st.setContext(pv)
			defer st.clearContext()

			results, err := sc.traceProcess(st, pv, func() ([]any, error) {
				return next(pv.Value())
			})
			if err != nil {
				return nil, err
			}
			// The completion protocol allows at most one direct result;
			// additional emissions go through Push.
			if len(results) > 1 {
				panic(fmt.Errorf("%w: %d results from %q", errspkg.ErrUnexpectedCallback, len(results), st.name))
			}
			for _, r := range results {
				native.Push(r)
			}
			return nil, nil
		}
	})

	native.WrapPush(func(next stream.PushFunc) stream.PushFunc {
		return func(v any) bool {
			// End-of-stream passes through unmodified.
			if v == nil {
				return next(nil)
			}
			st.BumpCounter(CounterOutputs)
			if st.mode == ModeUnspecified {
				st.mode = ModeNoMarshal
			}
			if st.mode == ModeNoMarshal {
				return next(v)
			}
			ctx := st.context
			if ctx == nil {
				ctx = NewProvenance(nil)
			}
			return next(ctx.Next(v, st))
		}
	})

	if native.HasFlush() {
		native.WrapFlush(func(next stream.FlushFunc) stream.FlushFunc {
			return func() error {
				// Values emitted during flush are attributed to this stage at
				// its most recent input index.
				st.setContext(NewProvenance(nil))
				defer st.clearContext()
				return next()
			}
		})
	}
	return nil
}

// WrapStream is the convenience composition of InstrumentObject and
// InstrumentStream.
func (sc *Scope) WrapStream(native stream.Stage, name string) (*Stage, error) {
	if _, err := sc.InstrumentObject(native, name); err != nil {
		return nil, err
	}
	return sc.InstrumentStream(native)
}

// WrapTransform is the convenience composition of WrapStream and
// InstrumentTransform.
func (sc *Scope) WrapTransform(native stream.Stage, name string) (*Stage, error) {
	st, err := sc.WrapStream(native, name)
	if err != nil {
		return nil, err
	}
	if err := sc.InstrumentTransform(st); err != nil {
		return nil, err
	}
	return st, nil
}
