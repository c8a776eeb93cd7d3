package runtime

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	configpkg "github.com/drblury/flowscope/internal/runtime/config"
	loggingpkg "github.com/drblury/flowscope/internal/runtime/logging"
)

func TestWarnHooks_MergeRunsInOrder(t *testing.T) {
	var order []string
	a := WarnHooks{OnWarn: func(WarnContext) { order = append(order, "a") }}
	b := WarnHooks{OnWarn: func(WarnContext) { order = append(order, "b") }}

	merged := a.Merge(b)
	merged.OnWarn(WarnContext{})

	assert.Equal(t, []string{"a", "b"}, order)
}

func TestWarnHooks_MergeHandlesNilSides(t *testing.T) {
	called := 0
	hooks := WarnHooks{OnWarn: func(WarnContext) { called++ }}

	left := WarnHooks{}.Merge(hooks)
	right := hooks.Merge(WarnHooks{})
	empty := WarnHooks{}.Merge(WarnHooks{})

	left.OnWarn(WarnContext{})
	right.OnWarn(WarnContext{})
	assert.Equal(t, 2, called)
	assert.Nil(t, empty.OnWarn)
}

func TestLoggingHooks_LogsWarnings(t *testing.T) {
	logger := &recordingLogger{}
	hooks := LoggingHooks(logger)

	hooks.OnWarn(WarnContext{
		Stage: "parser",
		Kind:  "drop",
		Err:   errors.New("bad record"),
	})
	hooks.OnWarn(WarnContext{
		Stage:   "parser",
		Kind:    "drop",
		Err:     errors.New("bad record"),
		Context: NewProvenance("x").WithSource(stubSource{name: "parser", idx: 2}),
	})

	require.Len(t, logger.warns, 2)
	assert.Equal(t, "parser", logger.warns[0]["stage"])
	assert.NotContains(t, logger.warns[0], "provenance")
	assert.Equal(t, "parser input 2: value x", logger.warns[1]["provenance"])
}

func TestMetricsHooks_ForwardsToRecorder(t *testing.T) {
	type record struct{ stage, kind string }
	var records []record
	hooks := MetricsHooks(func(stage, kind string) {
		records = append(records, record{stage: stage, kind: kind})
	})

	hooks.OnWarn(WarnContext{Stage: "parser", Kind: "drop", Err: errors.New("x")})
	assert.Equal(t, []record{{stage: "parser", kind: "drop"}}, records)
}

func TestAlertingHooks_Fires(t *testing.T) {
	fired := false
	hooks := AlertingHooks(func(WarnContext) { fired = true })

	hooks.OnWarn(WarnContext{})
	assert.True(t, fired)
}

func TestScope_AddHooksExtendsChain(t *testing.T) {
	var order []string
	sc, err := NewScope(configpkg.Config{}, nil, ScopeDependencies{
		Hooks: WarnHooks{OnWarn: func(WarnContext) { order = append(order, "first") }},
	})
	require.NoError(t, err)
	sc.AddHooks(WarnHooks{OnWarn: func(WarnContext) { order = append(order, "second") }})

	e, err := sc.InstrumentObject(&probe{}, "parser")
	require.NoError(t, err)
	e.Warn(errors.New("boom"), "drop")

	assert.Equal(t, []string{"first", "second"}, order)
}

// recordingLogger captures warn fields for assertions.
type recordingLogger struct {
	warns []loggingpkg.LogFields
}

func (r *recordingLogger) With(loggingpkg.LogFields) loggingpkg.ServiceLogger { return r }
func (r *recordingLogger) Debug(string, loggingpkg.LogFields)                 {}
func (r *recordingLogger) Info(string, loggingpkg.LogFields)                  {}
func (r *recordingLogger) Warn(_ string, _ error, fields loggingpkg.LogFields) {
	r.warns = append(r.warns, fields)
}
func (r *recordingLogger) Error(string, error, loggingpkg.LogFields) {}
