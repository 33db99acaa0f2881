package tracelog

import (
	"context"
	"maps"
	"runtime"
	"sync"
)

// Scope is the per-frame configuration a function attaches to its own
// activation. It carries the variables the report should show for that frame
// and the visibility hints the renderer honors.
//
// A Scope belongs to the function that called Enter: at capture time it is
// matched to the stack frame with the same fully qualified function name.
// Only scopes on the context's own Enter chain are candidates, so goroutines
// sharing a parent context never see each other's scopes. Set, Mask and
// Expand may race with a capture in another goroutine; the capture binds a
// snapshot.
type Scope struct {
	// Hidden drops this frame from the report.
	Hidden bool
	// StopPropagation hides this frame and every more nested frame until a
	// frame with StartPropagation is reached.
	StopPropagation bool
	// StartPropagation resumes frame output after a StopPropagation.
	StartPropagation bool
	// HideAllVariables replaces this frame's variable table with a single
	// "(variables are hidden)" row.
	HideAllVariables bool
	// StopDisplayVariables hides variables in this frame and every more
	// nested frame until StartDisplayVariables is seen.
	StopDisplayVariables bool
	// StartDisplayVariables resumes variable output.
	StartDisplayVariables bool

	mu       sync.Mutex
	function string
	vars     fields
	masked   map[string]struct{}
	expanded map[string]struct{}
	parent   *Scope
	trail    *trail
	exited   bool // guarded by trail.mu
	unwound  bool // exited while a panic was unwinding; guarded by trail.mu
}

// ScopeOption configures a Scope at Enter time.
type ScopeOption func(*Scope)

// Hide drops the entering frame from reports.
func Hide() ScopeOption { return func(s *Scope) { s.Hidden = true } }

// HideAllVars hides every variable of the entering frame.
func HideAllVars() ScopeOption { return func(s *Scope) { s.HideAllVariables = true } }

// StopTraceback suppresses the entering frame and all frames it calls.
func StopTraceback() ScopeOption { return func(s *Scope) { s.StopPropagation = true } }

// StartTraceback resumes output at the entering frame.
func StartTraceback() ScopeOption { return func(s *Scope) { s.StartPropagation = true } }

// StopVars hides variables from the entering frame inward.
func StopVars() ScopeOption { return func(s *Scope) { s.StopDisplayVariables = true } }

// StartVars resumes variable output from the entering frame inward.
func StartVars() ScopeOption { return func(s *Scope) { s.StartDisplayVariables = true } }

// Mask marks variable names whose values must never be printed.
func Mask(names ...string) ScopeOption { return func(s *Scope) { s.Mask(names...) } }

// Expand marks variable names whose values are printed without truncation.
func Expand(names ...string) ScopeOption { return func(s *Scope) { s.Expand(names...) } }

// Vars binds name/value pairs, e.g. Vars("user", u, "attempt", 2).
func Vars(kv ...any) ScopeOption {
	return func(s *Scope) {
		for _, f := range varsFromKV(kv...) {
			s.vars = s.vars.set(f.Key, f.Val)
		}
	}
}

// Enter opens a Scope for the calling function and returns a context that
// carries it. Pass the returned context to callees and to Capture so the
// captured stack can find this scope.
//
//	ctx, sc := tracelog.Enter(ctx, tracelog.Mask("password"))
//	defer sc.Exit()
//	sc.Set("user", user)
func Enter(ctx context.Context, opts ...ScopeOption) (context.Context, *Scope) {
	if ctx == nil {
		ctx = context.Background()
	}
	s := &Scope{
		function: callerFunction(2),
		vars:     emptyFields,
		parent:   scopeFrom(ctx),
	}
	for _, opt := range opts {
		opt(s)
	}
	if t := trailFrom(ctx); t != nil {
		s.trail = t
		t.push(s)
	}
	return context.WithValue(ctx, scopeKey{}, s), s
}

// Set binds a variable for this frame's report. Rebinding a name replaces
// its value.
func (s *Scope) Set(name string, value any) *Scope {
	s.mu.Lock()
	s.vars = s.vars.set(name, value)
	s.mu.Unlock()
	return s
}

// Mask adds names whose values render as "[hidden]".
func (s *Scope) Mask(names ...string) *Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.masked == nil {
		s.masked = make(map[string]struct{}, len(names))
	}
	for _, n := range names {
		s.masked[n] = struct{}{}
	}
	return s
}

// Expand adds names whose values render untruncated.
func (s *Scope) Expand(names ...string) *Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expanded == nil {
		s.expanded = make(map[string]struct{}, len(names))
	}
	for _, n := range names {
		s.expanded[n] = struct{}{}
	}
	return s
}

// Exit marks the scope as finished. Captures through a context never look at
// exit state: only the Enter chain of that context is bound. Under a wrapper,
// an exit that happens while a panic unwinds keeps the scope eligible for the
// panic report; any other exit drops it from the wrapper's trail.
func (s *Scope) Exit() {
	if s.trail != nil {
		s.trail.exit(s, panicking())
	}
}

// Function returns the fully qualified name of the function that entered s.
func (s *Scope) Function() string { return s.function }

// Vars returns a copy of the bound variables.
func (s *Scope) Vars() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vars.toMap()
}

func (s *Scope) isMasked(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.masked[name]
	return ok
}

func (s *Scope) isExpanded(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.expanded[name]
	return ok
}

// snapshot copies the scope's hints and bindings as they are now.
func (s *Scope) snapshot() *Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	vars := make(fields, len(s.vars))
	copy(vars, s.vars)
	return &Scope{
		Hidden:                s.Hidden,
		StopPropagation:       s.StopPropagation,
		StartPropagation:      s.StartPropagation,
		HideAllVariables:      s.HideAllVariables,
		StopDisplayVariables:  s.StopDisplayVariables,
		StartDisplayVariables: s.StartDisplayVariables,
		function:              s.function,
		vars:                  vars,
		masked:                maps.Clone(s.masked),
		expanded:              maps.Clone(s.expanded),
	}
}

type scopeKey struct{}

func scopeFrom(ctx context.Context) *Scope {
	s, _ := ctx.Value(scopeKey{}).(*Scope)
	return s
}

// chainOf returns the scopes entered along ctx's lineage, innermost first.
func chainOf(ctx context.Context) []*Scope {
	if ctx == nil {
		return nil
	}
	var out []*Scope
	for s := scopeFrom(ctx); s != nil; s = s.parent {
		out = append(out, s)
	}
	return out
}

// trail records every scope entered during one wrapped invocation, in entry
// order. Only the wrapper's panic path reads it: by the time the wrapper
// recovers, the panicking function's context is gone, and the trail is the
// only record of the scopes its frames entered.
type trail struct {
	mu     sync.Mutex
	scopes []*Scope
}

type trailKey struct{}

func trailFrom(ctx context.Context) *trail {
	t, _ := ctx.Value(trailKey{}).(*trail)
	return t
}

// withTrail returns a context whose scopes are recorded on a fresh trail.
func withTrail(ctx context.Context) (context.Context, *trail) {
	if ctx == nil {
		ctx = context.Background()
	}
	t := &trail{}
	return context.WithValue(ctx, trailKey{}, t), t
}

// push prunes scopes that exited normally and appends s.
func (t *trail) push(s *Scope) {
	t.mu.Lock()
	defer t.mu.Unlock()
	live := t.scopes[:0]
	for _, x := range t.scopes {
		if !x.exited || x.unwound {
			live = append(live, x)
		}
	}
	clear(t.scopes[len(live):])
	t.scopes = append(live, s)
}

func (t *trail) exit(s *Scope, unwinding bool) {
	t.mu.Lock()
	s.exited = true
	s.unwound = unwinding
	t.mu.Unlock()
}

// len reports the number of scopes held, exited ones included.
func (t *trail) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.scopes)
}

// unwinding returns, newest first, the scopes that are still open or were
// exited by a panic unwinding through their function.
func (t *trail) unwinding() []*Scope {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Scope, 0, len(t.scopes))
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if s := t.scopes[i]; !s.exited || s.unwound {
			out = append(out, s)
		}
	}
	return out
}

// callerFunction resolves the function name skip frames above its caller,
// using CallersFrames so inlined callers report their own name.
func callerFunction(skip int) string {
	var pc [1]uintptr
	if runtime.Callers(skip+1, pc[:]) == 0 {
		return ""
	}
	fr, _ := runtime.CallersFrames(pc[:]).Next()
	return fr.Function
}

// panicking reports whether the calling deferred function runs on top of a
// panic in flight.
func panicking() bool {
	var pc [16]uintptr
	n := runtime.Callers(2, pc[:])
	frames := runtime.CallersFrames(pc[:n])
	for {
		fr, more := frames.Next()
		if fr.Function == panicFunction {
			return true
		}
		if !more {
			return false
		}
	}
}
