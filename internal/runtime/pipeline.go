package runtime

import (
	"fmt"

	errspkg "github.com/drblury/flowscope/internal/runtime/errors"
	"github.com/drblury/flowscope/stream"
)

// PipelineConfig describes a composite pipeline stage.
type PipelineConfig struct {
	// Name identifies the composite in linkage and debug output.
	Name string
	// Streams is the ordered, non-empty internal sequence.
	Streams []stream.Stage
	// StreamOptions tunes the composite's outward buffer.
	StreamOptions stream.Options
	// NoPipe suppresses connecting adjacent internal stages at construction.
	NoPipe bool
}

// Pipeline wraps an ordered sequence of stages behind one push/pull
// interface: writes and end-of-input go to the first stage, reads come from
// the last, and internal errors surface as the composite's own. The embedded
// readable stream is the composite's outward buffer; the read loop stops
// pulling the moment it reaches the outward watermark and resumes on drain,
// so the underlying engine's flow control is preserved end to end.
type Pipeline struct {
	*stream.Stream

	scope    *Scope
	stage    *Stage
	members  []*Stage
	first    stream.Stage
	last     stream.Stage
	awaiting bool
	paused   bool
}

// PipelineStream builds a composite pipeline stage and instruments it as an
// ordinary stage in the scope. Unless cfg.NoPipe is set, adjacent internal
// stages are connected through the ordinary connection mechanism, so linkage
// sees the whole chain.
func (sc *Scope) PipelineStream(cfg PipelineConfig) (*Pipeline, error) {
	if len(cfg.Streams) == 0 {
		return nil, errspkg.ErrEmptyPipeline
	}
	members := make([]*Stage, len(cfg.Streams))
	for i, native := range cfg.Streams {
		members[i] = sc.ensureStage(native)
	}
	if !cfg.NoPipe {
		for i := 0; i < len(cfg.Streams)-1; i++ {
			if err := cfg.Streams[i].Connect(cfg.Streams[i+1]); err != nil {
				return nil, fmt.Errorf("flowscope: pipeline auto-connect: %w", err)
			}
		}
	}

	opts := cfg.StreamOptions
	if opts.ReadableHighWatermark <= 0 {
		opts.ReadableHighWatermark = sc.conf.DefaultHighWatermark
	}
	outward := stream.NewReadable(opts)

	p := &Pipeline{
		Stream:   outward,
		scope:    sc,
		members:  members,
		first:    cfg.Streams[0],
		last:     cfg.Streams[len(cfg.Streams)-1],
		awaiting: true,
	}

	last := p.last
	last.OnReadable(func() {
		if p.awaiting {
			p.awaiting = false
			p.forward()
		}
	})
	last.OnEnd(func() {
		p.Stream.Push(nil)
	})
	outward.OnDrain(func() {
		if p.paused {
			p.paused = false
			p.forward()
		}
	})
	for _, native := range cfg.Streams {
		native.OnError(p.Stream.Fail)
	}

	st, err := sc.WrapStream(p, cfg.Name)
	if err != nil {
		return nil, err
	}
	st.members = members
	p.stage = st
	// Pipe events from the embedded outward stream must resolve to the
	// composite's identity, not to an anonymous stage.
	sc.entities[outward] = st.Entity
	return p, nil
}

// Stage returns the composite's own linkage record.
func (p *Pipeline) Stage() *Stage {
	return p.stage
}

// Write forwards verbatim to the first internal stage.
func (p *Pipeline) Write(v any) bool {
	return p.first.Write(v)
}

// End propagates end-of-input to the first internal stage. The composite
// signals its own completion once the last stage completes.
func (p *Pipeline) End() error {
	return p.first.End()
}

// The writable face of the composite is the first internal stage.
func (p *Pipeline) Writable() bool             { return p.first.Writable() }
func (p *Pipeline) WritableBuffered() int      { return p.first.WritableBuffered() }
func (p *Pipeline) WritableHighWatermark() int { return p.first.WritableHighWatermark() }

// OnDrain registers on the first internal stage: drain is the writer-resume
// signal, and writers feed the first stage. The composite's own outward drain
// stays internal to the read loop.
func (p *Pipeline) OnDrain(fn func()) {
	p.first.OnDrain(fn)
}

// forward pulls one unit at a time from the last stage and hands it outward,
// stopping on outward saturation (resumed by drain) or on starvation
// (resumed by the last stage's readable event).
func (p *Pipeline) forward() {
	for {
		if p.Stream.ReadableBuffered() >= p.Stream.ReadableHighWatermark() {
			p.paused = true
			return
		}
		v, ok := p.last.Read()
		if !ok {
			p.awaiting = true
			return
		}
		p.pushOutward(v)
	}
}

// pushOutward enforces the outward-buffer invariant: the buffer must never be
// asked to hold more than one unit past its watermark. Exceeding that means a
// scheduling bug upstream, and failing loudly beats leaking memory silently.
func (p *Pipeline) pushOutward(v any) {
	if p.Stream.ReadableBuffered() > p.Stream.ReadableHighWatermark() {
		panic(fmt.Sprintf("flowscope: pipeline outward buffer exceeded watermark+1 (%d/%d)",
			p.Stream.ReadableBuffered(), p.Stream.ReadableHighWatermark()))
	}
	p.Stream.Push(v)
}
