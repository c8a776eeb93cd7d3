package stream

// emitter holds the per-stage event callbacks. Callbacks run synchronously on
// the goroutine that triggered the event, in registration order.
type emitter struct {
	onPipe     []func(src Stage)
	onReadable []func()
	onDrain    []func()
	onEnd      []func()
	onFinish   []func()
	onError    []func(error)
}

func (e *emitter) emitPipe(src Stage) {
	for _, fn := range e.onPipe {
		fn(src)
	}
}

func (e *emitter) emitReadable() {
	for _, fn := range e.onReadable {
		fn()
	}
}

func (e *emitter) emitDrain() {
	for _, fn := range e.onDrain {
		fn()
	}
}

func (e *emitter) emitEnd() {
	for _, fn := range e.onEnd {
		fn()
	}
}

func (e *emitter) emitFinish() {
	for _, fn := range e.onFinish {
		fn()
	}
}

func (e *emitter) emitError(err error) {
	for _, fn := range e.onError {
		fn(err)
	}
}
