package runtime

import (
	"fmt"
	"strings"
)

// Counter names maintained by transform instrumentation.
const (
	CounterInputs  = "inputs"
	CounterOutputs = "outputs"
)

// Source supplies the identity recorded in a provenance history entry. Both
// Entity and Stage satisfy it.
type Source interface {
	Name() string
	Counter(name string) uint64
}

// Origin is one history entry: the stage that emitted a value and the value
// of that stage's input counter at emission time.
type Origin struct {
	Source     string `json:"source"`
	InputIndex uint64 `json:"input_index"`
}

// Provenance is an immutable value plus the ordered history of stages that
// produced it, oldest first. Crossing an emission boundary derives a new
// Provenance; an existing one is never mutated.
type Provenance struct {
	value   any
	history []Origin
}

// NewProvenance wraps a raw payload with an empty history. A nil payload is
// valid and is used for flush-synthesized contexts.
func NewProvenance(value any) *Provenance {
	return &Provenance{value: value}
}

// Value returns the wrapped payload.
func (p *Provenance) Value() any {
	return p.value
}

// History returns a copy of the history entries, oldest first.
func (p *Provenance) History() []Origin {
	if len(p.history) == 0 {
		return nil
	}
	out := make([]Origin, len(p.history))
	copy(out, p.history)
	return out
}

// Next derives a Provenance carrying value, with src appended as the most
// recent history entry.
func (p *Provenance) Next(value any, src Source) *Provenance {
	history := make([]Origin, len(p.history), len(p.history)+1)
	copy(history, p.history)
	history = append(history, Origin{
		Source:     src.Name(),
		InputIndex: src.Counter(CounterInputs),
	})
	return &Provenance{value: value, history: history}
}

// WithSource re-tags the current payload with src without changing it.
func (p *Provenance) WithSource(src Source) *Provenance {
	return p.Next(p.value, src)
}

// Label renders the history newest-first for diagnostics, for example
// "upper input 2 from splitter input 1: value ab".
func (p *Provenance) Label() string {
	if len(p.history) == 0 {
		return fmt.Sprintf("value %v", p.value)
	}
	parts := make([]string, 0, len(p.history))
	for i := len(p.history) - 1; i >= 0; i-- {
		entry := p.history[i]
		parts = append(parts, fmt.Sprintf("%s input %d", entry.Source, entry.InputIndex))
	}
	return fmt.Sprintf("%s: value %v", strings.Join(parts, " from "), p.value)
}
