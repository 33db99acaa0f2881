// stack.go — stack capture and scope matching.
//
// Design goals:
//   - Accuracy: runtime.Callers + runtime.CallersFrames resolve inlined
//     frames correctly.
//   - Explicit state: a captured Stack is a plain value the renderer walks; it
//     never inspects the live goroutine.
//   - Bounded work: capture depth is capped.
//
// Order: the runtime reports the most recent call first. Stack stores the
// reverse, OUTERMOST first, because the report walks frames in call order.
package tracelog

import (
	"runtime"
	"strings"
)

// Frame is a single call site in a captured stack.
type Frame struct {
	PC       uintptr // program counter of the call return
	File     string  // absolute file path as reported by the runtime
	Line     int     // 1-based line number
	Function string  // fully qualified function name (pkg.Func or method)
	Scope    *Scope  // scope entered by Function, nil if none
}

// Stack is a slice of Frames from the outermost call inward; the last frame is
// where the error was raised.
type Stack []Frame

const (
	panicFunction = "runtime.gopanic"

	// defaultMaxDepth captures meaningful context without excessive work on
	// exceptional paths.
	defaultMaxDepth = 64
)

// captureStack captures up to maxDepth frames above its caller's caller,
// skipping 'skip' further frames, and binds scopes (innermost first).
//
// Skip model: 0 places the first recorded frame at the function that called
// the exported helper which called captureStack.
func captureStack(skip, maxDepth int, scopes []*Scope) Stack {
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}
	// +1 runtime.Callers, +1 captureStack, +1 the exported helper.
	pc := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+3, pc)
	if n == 0 {
		return nil
	}
	return buildStack(resolve(pc[:n]), scopes)
}

// capturePanicStack captures the stack of a panic in flight. It must be called
// from a deferred function; frames up to and including the runtime's panic
// machinery are dropped so the innermost frame is the one that panicked.
func capturePanicStack(maxDepth int, scopes []*Scope) Stack {
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}
	// Room for the deferred call and the runtime frames between it and the
	// panicking function.
	pc := make([]uintptr, maxDepth+16)
	n := runtime.Callers(1, pc)
	if n == 0 {
		return nil
	}
	frames := resolve(pc[:n])
	cut := -1
	for i, fr := range frames {
		if fr.Function == panicFunction {
			cut = i
			break
		}
	}
	if cut >= 0 {
		frames = frames[cut+1:]
		// panicmem, sigpanic, goPanicIndex, panicdivide, ...
		for len(frames) > 0 && isRuntimeFrame(frames[0]) {
			frames = frames[1:]
		}
	}
	if len(frames) > maxDepth {
		frames = frames[:maxDepth]
	}
	return buildStack(frames, scopes)
}

// resolve turns program counters into frames, most recent first.
func resolve(pc []uintptr) []Frame {
	frames := runtime.CallersFrames(pc)
	out := make([]Frame, 0, len(pc))
	for {
		fr, more := frames.Next()
		out = append(out, Frame{
			PC:       fr.PC,
			File:     fr.File,
			Line:     fr.Line,
			Function: fr.Function,
		})
		if !more {
			break
		}
	}
	return out
}

// buildStack binds snapshots of scopes to the innermost-first frames, trims
// the frames the report should not cover, and returns them outermost first.
//
// Binding walks frames inward→outward and scopes innermost→outermost. A scope
// binds to a frame when their function names match; scopes skipped over
// belong to activations that already returned.
//
// Trimming: frames outside the outermost scoped frame are dropped, as that
// frame is the boundary the caller chose to observe. With no scoped frame at
// all, only trailing runtime frames (goexit, main) are dropped.
func buildStack(frames []Frame, scopes []*Scope) Stack {
	outermost := -1
	next := 0
	for i := range frames {
		for k := next; k < len(scopes); k++ {
			if scopes[k].function == frames[i].Function {
				frames[i].Scope = scopes[k].snapshot()
				outermost = i
				next = k + 1
				break
			}
		}
	}
	if outermost >= 0 {
		frames = frames[:outermost+1]
	} else {
		for len(frames) > 0 && isRuntimeFrame(frames[len(frames)-1]) {
			frames = frames[:len(frames)-1]
		}
	}
	out := make(Stack, len(frames))
	for i, fr := range frames {
		out[len(frames)-1-i] = fr
	}
	return out
}

func isRuntimeFrame(fr Frame) bool {
	return strings.HasPrefix(fr.Function, "runtime.")
}

// Innermost returns the frame where the error was raised.
func (s Stack) Innermost() (Frame, bool) {
	if len(s) == 0 {
		return Frame{}, false
	}
	return s[len(s)-1], true
}
