// wrap.go — decorators that report failures escaping a function.
//
// A wrapped function behaves exactly like the original: same arguments, same
// return values, same panics. The only addition is the report written to the
// sink when the function fails. The wrapper's own frame enters a hidden scope
// so it never shows up in the report, and it bounds the reported stack: frames
// outside the wrapper are not part of the failure being observed.
package tracelog

import "context"

// Func is the function shape Wrap decorates.
type Func func(ctx context.Context) error

// Wrap returns a decorator that renders failures of the decorated function to
// sink with default options; newline appends "\n" to every line.
//
// Returned errors are reported only if they carry a stack, i.e. they were
// raised with Capture, Errorf or New through the context the wrapper passes
// in. Other errors are returned as well but only produce a warning on the
// zerolog logger. Panics are always reported.
//
//	run := tracelog.Wrap(tracelog.LogSink, false)(handle)
//	err := run(ctx) // same error handle would return
func Wrap(sink Sink, newline bool) func(Func) Func {
	o := DefaultOptions()
	o.Newline = newline
	r := NewRenderer(o)
	return func(fn Func) Func { return r.Wrap(sink, fn) }
}

// WrapValue is Wrap for functions that also return a value.
func WrapValue[T any](sink Sink, newline bool) func(func(context.Context) (T, error)) func(context.Context) (T, error) {
	o := DefaultOptions()
	o.Newline = newline
	r := NewRenderer(o)
	return func(fn func(context.Context) (T, error)) func(context.Context) (T, error) {
		return WrapValueWith(r, sink, fn)
	}
}

// Wrap decorates fn: a returned error is rendered and returned unchanged; a
// panic is rendered and re-raised with the same value. Each call records its
// scopes on its own trail for the panic report.
func (r *Renderer) Wrap(sink Sink, fn Func) Func {
	return func(ctx context.Context) error {
		ctx, t := withTrail(ctx)
		ctx, sc := Enter(ctx, Hide())
		defer sc.Exit()
		defer r.observePanic(t, sink)
		err := fn(ctx)
		if err != nil {
			r.Render(sink, err)
		}
		return err
	}
}

// WrapValueWith is Renderer.Wrap for functions that also return a value.
func WrapValueWith[T any](r *Renderer, sink Sink, fn func(context.Context) (T, error)) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		ctx, t := withTrail(ctx)
		ctx, sc := Enter(ctx, Hide())
		defer sc.Exit()
		defer r.observePanic(t, sink)
		v, err := fn(ctx)
		if err != nil {
			r.Render(sink, err)
		}
		return v, err
	}
}

// observePanic must be deferred directly by the wrapper so the panicking
// frames are still on the stack when it runs.
func (r *Renderer) observePanic(t *trail, sink Sink) {
	p := recover()
	if p == nil {
		return
	}
	stk := capturePanicStack(r.opts.PanicMaxDepth, t.unwinding())
	r.RenderPanic(sink, stk, p)
	panic(p)
}
