// Package lineio provides a line-oriented file/reader transport for
// flowscope pipelines. Each line becomes one string chunk.
package lineio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/drblury/flowscope/stream"
	"github.com/drblury/flowscope/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "lineio"

// Register registers the line I/O transport with the default registry.
func Register() {
	transport.Register(TransportName, Build)
}

// Build creates a transport that reads lines from cfg.Path and appends sink
// output to the same path.
func Build(ctx context.Context, cfg transport.Config) (transport.Transport, error) {
	if cfg.Path == "" {
		return transport.Transport{}, fmt.Errorf("lineio: path is required")
	}
	f, err := os.Open(cfg.Path)
	if err != nil {
		return transport.Transport{}, err
	}
	out, err := os.OpenFile(cfg.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		f.Close()
		return transport.Transport{}, err
	}
	return transport.Transport{
		Source: NewSource(f),
		Sink:   NewSink(out),
	}, nil
}

// Source reads lines from an io.Reader and writes them into a stage.
type Source struct {
	r io.Reader
}

// NewSource wraps r as a pipeline source.
func NewSource(r io.Reader) *Source {
	return &Source{r: r}
}

// Run scans lines from the reader into dst, then propagates end-of-input.
// Chunks cascade synchronously through the pipeline, so the engine's own
// flow control applies downstream of dst.
func (s *Source) Run(ctx context.Context, dst stream.Stage) error {
	scanner := bufio.NewScanner(s.r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		dst.Write(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return dst.End()
}

// NewSink returns a writable stage that renders each chunk as one line on w.
func NewSink(w io.Writer, opts ...stream.Options) stream.Stage {
	return stream.NewWritable(func(v any) error {
		_, err := fmt.Fprintln(w, v)
		return err
	}, opts...)
}
