package runtime

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errspkg "github.com/drblury/flowscope/internal/runtime/errors"
	"github.com/drblury/flowscope/stream"
)

func upperStream() *stream.Stream {
	return stream.NewTransform(func(chunk any) ([]any, error) {
		return []any{strings.ToUpper(chunk.(string))}, nil
	}, nil)
}

func suffixStream(suffix string) *stream.Stream {
	return stream.NewTransform(func(chunk any) ([]any, error) {
		return []any{chunk.(string) + suffix}, nil
	}, nil)
}

func readAll(t *testing.T, p *Pipeline) []any {
	t.Helper()
	var out []any
	for {
		v, ok := p.Read()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

func TestPipelineStream_RequiresStages(t *testing.T) {
	sc := newTestScope(t)

	_, err := sc.PipelineStream(PipelineConfig{Name: "empty"})
	assert.ErrorIs(t, err, errspkg.ErrEmptyPipeline)
}

func TestPipelineStream_WritesFlowThroughAllStages(t *testing.T) {
	sc := newTestScope(t)

	p, err := sc.PipelineStream(PipelineConfig{
		Name:    "normalize",
		Streams: []stream.Stage{upperStream(), suffixStream("!")},
	})
	require.NoError(t, err)

	p.Write("a")
	p.Write("b")

	assert.Equal(t, []any{"A!", "B!"}, readAll(t, p))
}

func TestPipelineStream_AutoConnectRecordsLinkage(t *testing.T) {
	sc := newTestScope(t)

	a := upperStream()
	b := suffixStream("!")
	p, err := sc.PipelineStream(PipelineConfig{
		Name:    "normalize",
		Streams: []stream.Stage{a, b},
	})
	require.NoError(t, err)

	members := p.Stage().Members()
	require.Len(t, members, 2)
	assert.Same(t, members[0], sc.StageOf(a))
	assert.Same(t, members[1], sc.StageOf(b))

	require.Len(t, members[0].Downstreams(), 1)
	assert.Same(t, members[1], members[0].Downstreams()[0])
}

func TestPipelineStream_NoPipeSkipsConnections(t *testing.T) {
	sc := newTestScope(t)

	a := upperStream()
	b := suffixStream("!")
	_, err := sc.PipelineStream(PipelineConfig{
		Name:    "manual",
		Streams: []stream.Stage{a, b},
		NoPipe:  true,
	})
	require.NoError(t, err)

	assert.Empty(t, sc.StageOf(a).Downstreams())
	assert.Empty(t, sc.StageOf(b).Upstreams())
}

func TestPipelineStream_WalkDescendsIntoMembers(t *testing.T) {
	sc := newTestScope(t)

	a := upperStream()
	b := suffixStream("!")
	_, err1 := sc.WrapStream(a, "upper")
	require.NoError(t, err1)
	_, err2 := sc.WrapStream(b, "suffix")
	require.NoError(t, err2)

	p, err := sc.PipelineStream(PipelineConfig{
		Name:    "composite",
		Streams: []stream.Stage{a, b},
	})
	require.NoError(t, err)

	type visit struct {
		name  string
		depth int
	}
	var visits []visit
	p.Stage().Walk(func(s *Stage, depth int) {
		visits = append(visits, visit{name: s.Name(), depth: depth})
	})

	assert.Equal(t, []visit{
		{name: "composite", depth: 0},
		{name: "upper", depth: 1},
		{name: "suffix", depth: 1},
	}, visits)
}

func TestPipelineStream_EndCompletesComposite(t *testing.T) {
	sc := newTestScope(t)

	p, err := sc.PipelineStream(PipelineConfig{
		Name:    "normalize",
		Streams: []stream.Stage{upperStream()},
	})
	require.NoError(t, err)

	p.Write("a")
	require.NoError(t, p.End())

	assert.Equal(t, []any{"A"}, readAll(t, p))
	assert.True(t, p.Ended())
}

func TestPipelineStream_BackpressurePausesReadLoop(t *testing.T) {
	sc := newTestScope(t)

	p, err := sc.PipelineStream(PipelineConfig{
		Name:          "slow",
		Streams:       []stream.Stage{upperStream()},
		StreamOptions: stream.Options{ReadableHighWatermark: 2},
	})
	require.NoError(t, err)

	for _, v := range []string{"a", "b", "c", "d", "e"} {
		p.Write(v)
	}

	// The read loop stops at the outward watermark; surplus stays buffered
	// inside the member stages.
	assert.Equal(t, 2, p.ReadableBuffered())

	assert.Equal(t, []any{"A", "B", "C", "D", "E"}, readAll(t, p))
}

func TestPipelineStream_OutwardBufferInvariant(t *testing.T) {
	sc := newTestScope(t)

	p, err := sc.PipelineStream(PipelineConfig{
		Name:          "strict",
		Streams:       []stream.Stage{upperStream()},
		StreamOptions: stream.Options{ReadableHighWatermark: 1},
	})
	require.NoError(t, err)

	// One unit past the watermark is tolerated, more is a scheduling bug.
	p.Stream.Push("a")
	p.Stream.Push("b")
	assert.Panics(t, func() { p.pushOutward("c") })
}

func TestPipelineStream_MemberErrorsSurfaceAsComposite(t *testing.T) {
	sc := newTestScope(t)

	cause := errors.New("bad chunk")
	failing := stream.NewTransform(func(chunk any) ([]any, error) {
		return nil, cause
	}, nil)
	p, err := sc.PipelineStream(PipelineConfig{
		Name:    "fragile",
		Streams: []stream.Stage{upperStream(), failing},
	})
	require.NoError(t, err)

	var failure error
	p.OnError(func(err error) { failure = err })

	p.Write("a")
	assert.ErrorIs(t, failure, cause)
}

func TestPipelineStream_WritableFaceIsFirstStage(t *testing.T) {
	sc := newTestScope(t)

	a := upperStream()
	p, err := sc.PipelineStream(PipelineConfig{
		Name:    "face",
		Streams: []stream.Stage{a},
	})
	require.NoError(t, err)

	assert.True(t, p.Writable())
	assert.Equal(t, a.WritableHighWatermark(), p.WritableHighWatermark())
	assert.Equal(t, a.WritableBuffered(), p.WritableBuffered())
}
