package runtime

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// DumpOptions controls what DumpDebug renders.
type DumpOptions struct {
	// Buffers includes the live buffered counts versus each side's configured
	// high watermark.
	Buffers bool
}

// Kind classifies the stage by which native buffering sides it exposes.
func (s *Stage) Kind() string {
	switch {
	case s.native == nil:
		return "unknown"
	case s.native.Readable() && s.native.Writable():
		return "duplex"
	case s.native.Readable():
		return "readable"
	case s.native.Writable():
		return "writable"
	default:
		return "unknown"
	}
}

// DumpDebug renders one line for the stage — padded name, direction, and
// optionally the buffering state — followed by one line per counter, sorted
// by counter name and indented one level deeper.
func (s *Stage) DumpDebug(w io.Writer, indent int, opts DumpOptions) error {
	pad := s.scope.conf.NamePadWidth
	prefix := strings.Repeat("  ", indent)
	line := fmt.Sprintf("%s%-*s (%s", prefix, pad, s.name, s.Kind())
	if opts.Buffers && s.native != nil {
		line += fmt.Sprintf(", wbuf: %d/%d, rbuf: %d/%d",
			s.native.WritableBuffered(), s.native.WritableHighWatermark(),
			s.native.ReadableBuffered(), s.native.ReadableHighWatermark())
	}
	if _, err := fmt.Fprintf(w, "%s)\n", line); err != nil {
		return err
	}
	counterPrefix := strings.Repeat("  ", indent+1)
	for _, name := range s.sortedCounterNames() {
		if _, err := fmt.Fprintf(w, "%s%s: %d\n", counterPrefix, name, s.counters[name]); err != nil {
			return err
		}
	}
	return nil
}

// DumpCounters renders one line per counter as "name, counter, value", sorted
// by counter name.
func (s *Stage) DumpCounters(w io.Writer) error {
	for _, name := range s.sortedCounterNames() {
		if _, err := fmt.Fprintf(w, "%s, %s, %d\n", s.name, name, s.counters[name]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stage) sortedCounterNames() []string {
	names := make([]string, 0, len(s.counters))
	for name := range s.counters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DumpPipeline walks the whole pipeline containing from — starting at its
// head — and renders each stage with DumpDebug, indenting composite members.
func (sc *Scope) DumpPipeline(w io.Writer, from *Stage, opts DumpOptions) error {
	var firstErr error
	from.Head().Walk(func(s *Stage, depth int) {
		if err := s.DumpDebug(w, depth, opts); err != nil && firstErr == nil {
			firstErr = err
		}
	})
	return firstErr
}

// StageSnapshot is the JSON-facing view of one stage's live state.
type StageSnapshot struct {
	Name             string            `json:"name"`
	Kind             string            `json:"kind"`
	MarshalMode      string            `json:"marshal_mode"`
	Counters         map[string]uint64 `json:"counters"`
	ReadableBuffered int               `json:"readable_buffered"`
	WritableBuffered int               `json:"writable_buffered"`
	ReadableHWM      int               `json:"readable_high_watermark"`
	WritableHWM      int               `json:"writable_high_watermark"`
	Upstreams        []string          `json:"upstreams,omitempty"`
	Downstreams      []string          `json:"downstreams,omitempty"`
	Members          []string          `json:"members,omitempty"`
}

// Snapshot captures every stage the scope knows about, in registration order.
func (sc *Scope) Snapshot() []StageSnapshot {
	out := make([]StageSnapshot, 0, len(sc.stages))
	for _, s := range sc.stages {
		out = append(out, s.snapshot())
	}
	return out
}

func (s *Stage) snapshot() StageSnapshot {
	snap := StageSnapshot{
		Name:        s.name,
		Kind:        s.Kind(),
		MarshalMode: s.mode.String(),
		Counters:    s.Counters(),
		Upstreams:   stageNames(s.Upstreams()),
		Downstreams: stageNames(s.Downstreams()),
		Members:     stageNames(s.members),
	}
	if s.native != nil {
		snap.ReadableBuffered = s.native.ReadableBuffered()
		snap.WritableBuffered = s.native.WritableBuffered()
		snap.ReadableHWM = s.native.ReadableHighWatermark()
		snap.WritableHWM = s.native.WritableHighWatermark()
	}
	return snap
}

func stageNames(stages []*Stage) []string {
	if len(stages) == 0 {
		return nil
	}
	out := make([]string, len(stages))
	for i, s := range stages {
		out[i] = s.name
	}
	return out
}
