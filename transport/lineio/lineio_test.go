package lineio

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/flowscope/stream"
	"github.com/drblury/flowscope/transport"
)

func TestSource_WritesLinesAndEnds(t *testing.T) {
	var got []any
	sink := stream.NewWritable(func(v any) error {
		got = append(got, v)
		return nil
	})

	src := NewSource(strings.NewReader("one\ntwo\nthree\n"))
	require.NoError(t, src.Run(context.Background(), sink))

	assert.Equal(t, []any{"one", "two", "three"}, got)
	assert.True(t, sink.Ended())
}

func TestSource_StopsOnCancelledContext(t *testing.T) {
	sink := stream.NewWritable(func(any) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := NewSource(strings.NewReader("one\ntwo\n"))
	assert.ErrorIs(t, src.Run(ctx, sink), context.Canceled)
	assert.False(t, sink.Ended())
}

func TestSink_RendersOneLinePerChunk(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(&buf)

	sink.Write("one")
	sink.Write(2)
	require.NoError(t, sink.End())

	assert.Equal(t, "one\n2\n", buf.String())
}

func TestBuild_RequiresPath(t *testing.T) {
	_, err := Build(context.Background(), transport.Config{})
	assert.Error(t, err)
}

func TestBuild_RoundTrip(t *testing.T) {
	Register()

	path := filepath.Join(t.TempDir(), "lines.txt")
	require.NoError(t, os.WriteFile(path, []byte("alpha\nbeta\n"), 0o600))

	tr, err := transport.Build(context.Background(), TransportName, transport.Config{Path: path})
	require.NoError(t, err)

	var got []any
	sink := stream.NewWritable(func(v any) error {
		got = append(got, v)
		return nil
	})
	require.NoError(t, tr.Source.Run(context.Background(), sink))
	assert.Equal(t, []any{"alpha", "beta"}, got)

	tr.Sink.Write("gamma")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alpha\nbeta\ngamma\n", string(data))
}
