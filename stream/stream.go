// Package stream implements the minimal push/pull streaming primitive that
// the flowscope overlay observes. A Stream buffers written chunks, runs an
// optional transform over them, and hands results to downstream stages or to
// a manual reader, signalling backpressure through high watermarks.
//
// Streams are cooperative: a pipeline is driven from one goroutine at a time.
// Writes cascade synchronously through connected stages, and suspension
// happens only at watermark boundaries, resumed by drain events.
package stream

import (
	"errors"
)

// DefaultHighWatermark is the buffer threshold used when Options does not
// override it.
const DefaultHighWatermark = 16

var (
	ErrNotReadable   = errors.New("stream: stage has no readable side")
	ErrNotWritable   = errors.New("stream: stage has no writable side")
	ErrWriteAfterEnd = errors.New("stream: write after end")
)

// TransformFunc processes one written chunk. Returned values are pushed to
// the readable side in order; the transform may also call Push directly for
// streaming emission.
type TransformFunc func(chunk any) ([]any, error)

// FlushFunc runs once when the writable side ends, before finish is signalled.
type FlushFunc func() error

// PushFunc appends one value to the readable buffer. Pushing nil signals
// end-of-stream. The return value is false once the buffer has reached its
// high watermark.
type PushFunc func(v any) bool

// WriteFunc consumes one chunk on a terminal (writable-only) stage.
type WriteFunc func(v any) error

// Middleware wrappers let an observer intercept the three extension points of
// a stage without the stage cooperating.
type (
	TransformMiddleware func(next TransformFunc) TransformFunc
	PushMiddleware      func(next PushFunc) PushFunc
	FlushMiddleware     func(next FlushFunc) FlushFunc
)

// Options tunes the buffering thresholds of a Stream.
type Options struct {
	ReadableHighWatermark int
	WritableHighWatermark int
}

func applyOptions(opts ...Options) Options {
	var o Options
	for _, opt := range opts {
		o = opt
	}
	if o.ReadableHighWatermark <= 0 {
		o.ReadableHighWatermark = DefaultHighWatermark
	}
	if o.WritableHighWatermark <= 0 {
		o.WritableHighWatermark = DefaultHighWatermark
	}
	return o
}

// Stage is the engine-side contract consumed by the flowscope overlay and by
// composite stages. *Stream is the only in-tree implementation; external
// implementations embed *Stream.
type Stage interface {
	Write(v any) bool
	End() error
	Read() (any, bool)
	Push(v any) bool
	Connect(dst Stage) error
	Disconnect(dst Stage) error

	Readable() bool
	Writable() bool
	Ended() bool
	HasTransform() bool
	HasFlush() bool
	ReadableBuffered() int
	WritableBuffered() int
	ReadableHighWatermark() int
	WritableHighWatermark() int

	WrapTransform(mw TransformMiddleware)
	WrapPush(mw PushMiddleware)
	WrapFlush(mw FlushMiddleware)

	OnPipe(fn func(src Stage))
	OnReadable(fn func())
	OnDrain(fn func())
	OnEnd(fn func())
	OnFinish(fn func())
	OnError(fn func(error))
	Fail(err error)

	emitPipe(src Stage)
}

// Stream is a buffered, object-mode stage. Zero or one transform decides its
// direction: NewTransform builds a duplex, NewReadable a source, NewWritable
// a sink.
type Stream struct {
	opts     Options
	readable bool
	writable bool

	transform TransformFunc
	flush     FlushFunc
	push      PushFunc
	sink      WriteFunc

	readBuf  []any
	writeBuf []any

	dests    []Stage
	pausedOn map[Stage]bool

	needReadableDrain bool
	needWriteDrain    bool

	endPending bool
	flushed    bool
	eos        bool
	finished   bool
	ended      bool

	events emitter
}

// NewTransform constructs a duplex stage running transform over every written
// chunk. flush may be nil.
func NewTransform(transform TransformFunc, flush FlushFunc, opts ...Options) *Stream {
	s := newStream(opts...)
	s.readable = true
	s.writable = true
	s.transform = transform
	s.flush = flush
	return s
}

// NewReadable constructs a source stage. Data enters through Push.
func NewReadable(opts ...Options) *Stream {
	s := newStream(opts...)
	s.readable = true
	return s
}

// NewWritable constructs a sink stage. Every written chunk is handed to write.
func NewWritable(write WriteFunc, opts ...Options) *Stream {
	s := newStream(opts...)
	s.writable = true
	s.sink = write
	return s
}

func newStream(opts ...Options) *Stream {
	s := &Stream{
		opts:     applyOptions(opts...),
		pausedOn: make(map[Stage]bool),
	}
	s.push = s.pushBase
	return s
}

func (s *Stream) Readable() bool             { return s.readable }
func (s *Stream) Writable() bool             { return s.writable }
func (s *Stream) Ended() bool                { return s.ended }
func (s *Stream) HasTransform() bool         { return s.transform != nil }
func (s *Stream) HasFlush() bool             { return s.flush != nil }
func (s *Stream) ReadableBuffered() int      { return len(s.readBuf) }
func (s *Stream) WritableBuffered() int      { return len(s.writeBuf) }
func (s *Stream) ReadableHighWatermark() int { return s.opts.ReadableHighWatermark }
func (s *Stream) WritableHighWatermark() int { return s.opts.WritableHighWatermark }

// WrapTransform layers mw around the transform chain. No-op on stages without
// a transform.
func (s *Stream) WrapTransform(mw TransformMiddleware) {
	if s.transform == nil {
		return
	}
	s.transform = mw(s.transform)
}

// WrapPush layers mw around the push chain.
func (s *Stream) WrapPush(mw PushMiddleware) {
	s.push = mw(s.push)
}

// WrapFlush layers mw around the flush chain. No-op on stages without a flush.
func (s *Stream) WrapFlush(mw FlushMiddleware) {
	if s.flush == nil {
		return
	}
	s.flush = mw(s.flush)
}

// Write accepts one chunk. The chunk is always buffered or processed; the
// return value is the flow-control signal: false asks the caller to pause
// until the next drain event.
func (s *Stream) Write(v any) bool {
	if !s.writable {
		s.Fail(ErrNotWritable)
		return false
	}
	if s.endPending || s.finished {
		s.Fail(ErrWriteAfterEnd)
		return false
	}
	if s.saturated() || len(s.writeBuf) > 0 {
		s.writeBuf = append(s.writeBuf, v)
		s.needWriteDrain = true
		return false
	}
	s.process(v)
	s.deliver()
	if s.saturated() || len(s.writeBuf) >= s.opts.WritableHighWatermark {
		s.needWriteDrain = true
		return false
	}
	return true
}

// End closes the writable side. Deferred chunks are processed first, flush
// runs once, and finish fires after the readable buffer fully drains. On a
// source stage End is equivalent to pushing end-of-stream.
func (s *Stream) End() error {
	if !s.writable {
		s.eos = true
		s.deliver()
		s.maybeFinish()
		return nil
	}
	if s.endPending {
		return ErrWriteAfterEnd
	}
	s.endPending = true
	s.drainDeferred()
	s.maybeFinish()
	return nil
}

// Read pops one value from the readable buffer. ok is false when no data is
// currently buffered; use Ended to distinguish exhaustion from starvation.
func (s *Stream) Read() (v any, ok bool) {
	if len(s.readBuf) == 0 {
		s.maybeFinish()
		return nil, false
	}
	v = s.readBuf[0]
	s.readBuf = s.readBuf[1:]
	s.afterRead()
	return v, true
}

// Push appends one value to the readable side through the push chain. Pushing
// nil marks end-of-stream.
func (s *Stream) Push(v any) bool {
	return s.push(v)
}

// Connect pipes this stage's readable side into dst. dst observes the
// connection through its pipe event. Disconnecting does not rewind delivery;
// values already handed over stay with dst.
func (s *Stream) Connect(dst Stage) error {
	if !s.readable {
		return ErrNotReadable
	}
	if !dst.Writable() {
		return ErrNotWritable
	}
	s.dests = append(s.dests, dst)
	dst.OnDrain(func() {
		delete(s.pausedOn, dst)
		s.deliver()
		s.maybeFinish()
	})
	dst.emitPipe(s)
	s.deliver()
	return nil
}

// Disconnect removes dst from the delivery list.
func (s *Stream) Disconnect(dst Stage) error {
	for i, d := range s.dests {
		if d == dst {
			s.dests = append(s.dests[:i], s.dests[i+1:]...)
			delete(s.pausedOn, dst)
			return nil
		}
	}
	return ErrNotReadable
}

// Fail forwards an engine error to observers. Errors are never swallowed:
// with no observer registered, Fail panics.
func (s *Stream) Fail(err error) {
	if len(s.events.onError) == 0 {
		panic(err)
	}
	s.events.emitError(err)
}

func (s *Stream) saturated() bool {
	return s.readable && len(s.readBuf) >= s.opts.ReadableHighWatermark
}

func (s *Stream) process(v any) {
	if s.sink != nil {
		if err := s.sink(v); err != nil {
			s.Fail(err)
		}
		return
	}
	if s.transform == nil {
		s.push(v)
		return
	}
	results, err := s.transform(v)
	if err != nil {
		s.Fail(err)
		return
	}
	for _, r := range results {
		s.push(r)
	}
}

func (s *Stream) pushBase(v any) bool {
	if v == nil {
		s.eos = true
		s.deliver()
		s.maybeFinish()
		return false
	}
	wasEmpty := len(s.readBuf) == 0
	s.readBuf = append(s.readBuf, v)
	if wasEmpty {
		s.events.emitReadable()
	}
	s.deliver()
	if len(s.readBuf) >= s.opts.ReadableHighWatermark {
		s.needReadableDrain = true
		return false
	}
	return true
}

// deliver moves buffered values to connected destinations until a destination
// signals backpressure. With no destinations the buffer waits for Read.
func (s *Stream) deliver() {
	if len(s.dests) == 0 {
		s.maybeFinish()
		return
	}
	for len(s.readBuf) > 0 && len(s.pausedOn) == 0 {
		v := s.readBuf[0]
		s.readBuf = s.readBuf[1:]
		for _, dst := range s.dests {
			if !dst.Write(v) {
				s.pausedOn[dst] = true
			}
		}
		s.afterRead()
	}
}

func (s *Stream) afterRead() {
	if s.needReadableDrain && len(s.readBuf) < s.opts.ReadableHighWatermark {
		s.needReadableDrain = false
		s.events.emitDrain()
	}
	s.drainDeferred()
	s.maybeFinish()
}

// drainDeferred replays writes that were deferred while the readable side was
// saturated.
func (s *Stream) drainDeferred() {
	for len(s.writeBuf) > 0 && !s.saturated() {
		v := s.writeBuf[0]
		s.writeBuf = s.writeBuf[1:]
		s.process(v)
	}
	if len(s.writeBuf) == 0 && s.needWriteDrain && !s.saturated() {
		s.needWriteDrain = false
		s.events.emitDrain()
	}
}

func (s *Stream) maybeFinish() {
	if s.endPending && !s.flushed && len(s.writeBuf) == 0 {
		s.flushed = true
		if s.flush != nil {
			if err := s.flush(); err != nil {
				s.Fail(err)
			}
		}
		s.eos = true
		s.deliver()
	}
	if s.eos && len(s.readBuf) == 0 && !s.finished {
		s.finished = true
		s.events.emitFinish()
		for _, dst := range s.dests {
			if err := dst.End(); err != nil {
				s.Fail(err)
			}
		}
		if !s.ended {
			s.ended = true
			s.events.emitEnd()
		}
	}
}

func (s *Stream) emitPipe(src Stage) {
	s.events.emitPipe(src)
}

func (s *Stream) OnPipe(fn func(src Stage))  { s.events.onPipe = append(s.events.onPipe, fn) }
func (s *Stream) OnReadable(fn func())       { s.events.onReadable = append(s.events.onReadable, fn) }
func (s *Stream) OnDrain(fn func())          { s.events.onDrain = append(s.events.onDrain, fn) }
func (s *Stream) OnEnd(fn func())            { s.events.onEnd = append(s.events.onEnd, fn) }
func (s *Stream) OnFinish(fn func())         { s.events.onFinish = append(s.events.onFinish, fn) }
func (s *Stream) OnError(fn func(err error)) { s.events.onError = append(s.events.onError, fn) }
