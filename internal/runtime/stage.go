package runtime

import (
	"fmt"

	errspkg "github.com/drblury/flowscope/internal/runtime/errors"
	loggingpkg "github.com/drblury/flowscope/internal/runtime/logging"
	"github.com/drblury/flowscope/stream"
)

// Handle identifies a Stage inside its scope's registry. Linkage lists store
// handles rather than owning references so the whole graph can be dropped as
// a unit with the scope.
type Handle int

// MarshalMode is the provenance-tagging state of a stage. It starts
// unspecified and pins on the first transition: a downstream transform
// connection pins marshal, a first emission pins nomarshal. Whichever fires
// first wins; connecting to multiple downstreams with differing expectations
// is unsupported.
type MarshalMode int8

const (
	ModeUnspecified MarshalMode = iota
	ModeMarshal
	ModeNoMarshal
)

func (m MarshalMode) String() string {
	switch m {
	case ModeMarshal:
		return "marshal"
	case ModeNoMarshal:
		return "nomarshal"
	default:
		return "unspecified"
	}
}

// Stage is an Entity augmented with linkage: the mutual, non-owning
// upstream/downstream lists recorded as stages are connected. Entries are
// added when a connection is observed and removed only by RemoveConnection;
// disconnecting the underlying transport leaves linkage intact so pipelines
// stay inspectable after completion.
type Stage struct {
	*Entity

	native      stream.Stage
	handle      Handle
	upstreams   []Handle
	downstreams []Handle

	mode        MarshalMode
	transformed bool

	// members is non-empty for composite pipeline stages.
	members []*Stage
}

// InstrumentStream upgrades an object-instrumented stage with linkage
// tracking. It installs an observer on the stage's native pipe event so that
// any stage later connected as a source is auto-instrumented and recorded.
func (sc *Scope) InstrumentStream(native stream.Stage) (*Stage, error) {
	e := sc.entities[native]
	if e == nil {
		return nil, errspkg.ErrNotInstrumented
	}
	if e.stage != nil {
		return nil, fmt.Errorf("%w: %q is already a stage", errspkg.ErrAlreadyInstrumented, e.name)
	}
	st := &Stage{
		Entity: e,
		native: native,
		handle: Handle(len(sc.stages)),
	}
	e.stage = st
	sc.stages = append(sc.stages, st)

	native.OnPipe(func(src stream.Stage) {
		up := sc.ensureStage(src)
		sc.link(up, st)
	})
	return st, nil
}

// StageOf returns the stage record previously attached to native, or nil.
func (sc *Scope) StageOf(native stream.Stage) *Stage {
	if e := sc.entities[native]; e != nil {
		return e.stage
	}
	return nil
}

// ensureStage wraps native on first sight, with a generated name.
func (sc *Scope) ensureStage(native stream.Stage) *Stage {
	if st := sc.StageOf(native); st != nil {
		return st
	}
	if sc.entities[native] == nil {
		if _, err := sc.InstrumentObject(native, ""); err != nil {
			panic(err)
		}
	}
	st, err := sc.InstrumentStream(native)
	if err != nil {
		panic(err)
	}
	return st
}

// RecordConnection records upstream feeding downstream, auto-instrumenting
// either side if needed. Repeated calls for the same pair add duplicate
// entries; callers must remove the pair first if they need to re-record it.
func (sc *Scope) RecordConnection(upstream, downstream stream.Stage) (*Stage, *Stage) {
	up := sc.ensureStage(upstream)
	down := sc.ensureStage(downstream)
	sc.link(up, down)
	return up, down
}

func (sc *Scope) link(up, down *Stage) {
	up.downstreams = append(up.downstreams, down.handle)
	down.upstreams = append(down.upstreams, up.handle)
	if down.transformed && up.mode == ModeUnspecified {
		up.mode = ModeMarshal
	}
	sc.logger.Debug("connection recorded", loggingpkg.LogFields{
		"upstream":   up.name,
		"downstream": down.name,
	})
}

// RemoveConnection unrecords one linkage pair. It fails with ErrLinkNotFound
// unless the pair is currently linked in both directions; exactly one
// matching entry is removed from each list.
func (sc *Scope) RemoveConnection(upstream, downstream *Stage) error {
	di := indexOf(upstream.downstreams, downstream.handle)
	ui := indexOf(downstream.upstreams, upstream.handle)
	if di < 0 || ui < 0 {
		return fmt.Errorf("%w: %s -> %s", errspkg.ErrLinkNotFound, upstream.name, downstream.name)
	}
	upstream.downstreams = append(upstream.downstreams[:di], upstream.downstreams[di+1:]...)
	downstream.upstreams = append(downstream.upstreams[:ui], downstream.upstreams[ui+1:]...)
	return nil
}

func indexOf(handles []Handle, h Handle) int {
	for i, v := range handles {
		if v == h {
			return i
		}
	}
	return -1
}

// Native returns the underlying engine stage.
func (s *Stage) Native() stream.Stage {
	return s.native
}

// MarshalMode returns the current provenance-tagging state.
func (s *Stage) MarshalMode() MarshalMode {
	return s.mode
}

// Upstreams resolves the upstream handles in recording order.
func (s *Stage) Upstreams() []*Stage {
	return s.scope.resolve(s.upstreams)
}

// Downstreams resolves the downstream handles in recording order.
func (s *Stage) Downstreams() []*Stage {
	return s.scope.resolve(s.downstreams)
}

func (sc *Scope) resolve(handles []Handle) []*Stage {
	if len(handles) == 0 {
		return nil
	}
	out := make([]*Stage, len(handles))
	for i, h := range handles {
		out[i] = sc.stages[h]
	}
	return out
}

// Members returns the internal sequence of a composite pipeline stage, or nil.
func (s *Stage) Members() []*Stage {
	return s.members
}

// Head follows the first upstream entry repeatedly and returns the stage with
// no upstreams. With multiple upstreams only the first-recorded path is
// followed.
func (s *Stage) Head() *Stage {
	cur := s
	for len(cur.upstreams) > 0 {
		cur = cur.scope.stages[cur.upstreams[0]]
	}
	return cur
}

// Walk visits this stage and then follows the first downstream entry
// repeatedly, with the same single-path caveat as Head. Members of a
// composite pipeline stage are visited at depth+1 before the walk resumes at
// the composite's own downstream.
func (s *Stage) Walk(visit func(s *Stage, depth int)) {
	s.walk(visit, 0)
}

func (s *Stage) walk(visit func(s *Stage, depth int), depth int) {
	cur := s
	for cur != nil {
		visit(cur, depth)
		if len(cur.members) > 0 {
			cur.members[0].walk(visit, depth+1)
		}
		if len(cur.downstreams) == 0 {
			return
		}
		cur = cur.scope.stages[cur.downstreams[0]]
	}
}
