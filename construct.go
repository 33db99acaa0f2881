// construct.go — constructors that attach a captured stack to an error.
//
// Scope:
//   - Capture at the raise site: the innermost frame is the line that called
//     Capture/Errorf/New, which the report marks with "-->".
//   - Capture once: an error that already carries a stack is returned as-is so
//     re-captures on the way out never replace the raise site.
//   - Own lineage only: the scopes bound are those entered along ctx, so a
//     frame never shows another goroutine's or an earlier call's variables.
//   - Fixed depth: at most defaultMaxDepth (64) frames are captured.
package tracelog

import (
	"context"
	"errors"
	"fmt"
)

// Capture annotates err with the stack of its caller and the scopes live in
// ctx. A nil err returns nil; an err that already carries a stack is returned
// unchanged.
func Capture(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := StackOf(err); ok {
		return err
	}
	return &traced{cause: err, stk: captureStack(0, defaultMaxDepth, chainOf(ctx))}
}

// CaptureSkip is like Capture but skips additional frames, for helpers that
// raise on behalf of their caller.
func CaptureSkip(ctx context.Context, err error, skip int) error {
	if err == nil {
		return nil
	}
	if _, ok := StackOf(err); ok {
		return err
	}
	return &traced{cause: err, stk: captureStack(skip, defaultMaxDepth, chainOf(ctx))}
}

// Errorf formats an error with fmt.Errorf semantics (including %w) and
// captures the caller's stack.
func Errorf(ctx context.Context, format string, args ...any) error {
	return &traced{
		cause: fmt.Errorf(format, args...),
		stk:   captureStack(0, defaultMaxDepth, chainOf(ctx)),
	}
}

// New creates a plain error with msg and captures the caller's stack.
func New(ctx context.Context, msg string) error {
	return &traced{
		cause: errors.New(msg),
		stk:   captureStack(0, defaultMaxDepth, chainOf(ctx)),
	}
}

// StackOf returns the stack carried anywhere in err's chain.
func StackOf(err error) (Stack, bool) {
	var t Traced
	if errors.As(err, &t) {
		return t.Stack(), true
	}
	return nil, false
}
