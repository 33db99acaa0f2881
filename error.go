// Package tracelog renders context-rich error reports: for every frame of a
// captured stack it prints the surrounding source lines and the variables the
// frame chose to expose, honoring per-frame visibility hints.
//
// Design tenets:
//   - Explicit state: stacks are captured into values at the raise site and
//     handed to the renderer; nothing reads a live goroutine.
//   - Interop-first: captured errors unwrap to the original error, so
//     errors.Is/As and Error() are unaffected.
//   - Best effort: a report may lose frames or values, it never panics on the
//     caller's behalf.
package tracelog

// Traced is an error annotated with the stack captured where it was raised.
//
// Error() and Unwrap() expose the original error unchanged; only the stack is
// added. Formatting with %+v prints the full report.
type Traced interface {
	error

	// Stack returns the captured frames, outermost first.
	Stack() Stack

	// Unwrap returns the original error.
	Unwrap() error
}

// traced is the concrete Traced produced by Capture and friends.
type traced struct {
	cause error
	stk   Stack
}

func (e *traced) Error() string { return e.cause.Error() }
func (e *traced) Unwrap() error { return e.cause }
func (e *traced) Stack() Stack  { return e.stk }

var _ Traced = (*traced)(nil)
