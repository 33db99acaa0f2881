package tracelog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// raiseValueError enters a scope, binds x and raises at a known line.
func raiseValueError(ctx context.Context) (error, int) {
	ctx, sc := Enter(ctx)
	defer sc.Exit()
	x := 1
	sc.Set("x", x)
	err, line := Capture(ctx, ValueError{msg: "boom"}), currentLine()
	return err, line
}

func raiseWithSecret(ctx context.Context) error {
	ctx, sc := Enter(ctx, Mask("secret"))
	defer sc.Exit()
	secret := "token"
	sc.Set("secret", secret)
	return Capture(ctx, ValueError{msg: "denied"})
}

func outerCall(ctx context.Context) error {
	ctx, sc := Enter(ctx, Vars("level", "outer"))
	defer sc.Exit()
	return middleCall(ctx)
}

// middleCall has no scope of its own.
func middleCall(ctx context.Context) error {
	return innerCall(ctx)
}

func innerCall(ctx context.Context) error {
	ctx, sc := Enter(ctx, Vars("level", "inner"))
	defer sc.Exit()
	return Errorf(ctx, "inner failed: %w", ValueError{msg: "root"})
}

func TestCapture_ScenarioValueError(t *testing.T) {
	t.Parallel()

	err, line := raiseValueError(context.Background())
	require.Error(t, err)

	var c collector
	Log(c.sink, false, err)

	assert.Equal(t, []string{header(thisFile(), line)}, c.headers())
	got, ok := c.rowFor("x")
	require.True(t, ok, "no row for x in %q", c.lines)
	assert.Equal(t, "x                    int        1", got)
	assert.Contains(t, c.lines, "ValueError: boom")

	var marker string
	for _, l := range c.lines {
		if strings.HasPrefix(l, "--> ") {
			marker = l
		}
	}
	assert.Contains(t, marker, "Capture(ctx, ValueError{msg: \"boom\"})")
}

func TestCapture_ScenarioMaskedSecret(t *testing.T) {
	t.Parallel()

	err := raiseWithSecret(context.Background())

	var c collector
	Log(c.sink, false, err)

	got, ok := c.rowFor("secret")
	require.True(t, ok)
	assert.Equal(t, "secret               string     [hidden]", got)
	for _, l := range c.lines {
		if strings.HasPrefix(l, "secret") {
			assert.NotContains(t, l, "token")
		}
	}
}

func TestCapture_NilAndRecapture(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Capture(context.Background(), nil))
	assert.NoError(t, CaptureSkip(context.Background(), nil, 1))

	base := ValueError{msg: "once"}
	first := Capture(context.Background(), base)
	second := Capture(context.Background(), first)
	assert.Same(t, first.(*traced), second.(*traced), "already captured errors are returned unchanged")

	wrapped := fmt.Errorf("outer: %w", first)
	assert.Equal(t, wrapped, Capture(context.Background(), wrapped))
}

func TestCapture_PreservesErrorIdentity(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("sentinel")
	err := Capture(context.Background(), sentinel)

	assert.Equal(t, "sentinel", err.Error())
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, sentinel, errors.Unwrap(err))

	var ve ValueError
	err = Capture(context.Background(), ValueError{msg: "v"})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "v", ve.msg)
}

func TestCapture_BindsScopesToFrames(t *testing.T) {
	t.Parallel()

	err := outerCall(context.Background())
	stk, ok := StackOf(err)
	require.True(t, ok)
	require.Len(t, stk, 3, "outer, middle, inner; frames outside outerCall are trimmed")

	assert.True(t, strings.HasSuffix(stk[0].Function, ".outerCall"), stk[0].Function)
	assert.True(t, strings.HasSuffix(stk[1].Function, ".middleCall"), stk[1].Function)
	assert.True(t, strings.HasSuffix(stk[2].Function, ".innerCall"), stk[2].Function)

	require.NotNil(t, stk[0].Scope)
	assert.Equal(t, "outer", stk[0].Scope.Vars()["level"])
	assert.Nil(t, stk[1].Scope)
	require.NotNil(t, stk[2].Scope)
	assert.Equal(t, "inner", stk[2].Scope.Vars()["level"])

	inner, _ := stk.Innermost()
	assert.Equal(t, stk[2], inner)
	assert.Equal(t, "inner failed: root", err.Error())
}

func TestCapture_WithoutScopeDropsRuntimeFrames(t *testing.T) {
	t.Parallel()

	err := New(context.Background(), "no scopes")
	stk, ok := StackOf(err)
	require.True(t, ok)
	require.NotEmpty(t, stk)

	inner, _ := stk.Innermost()
	assert.True(t, strings.HasSuffix(inner.Function, ".TestCapture_WithoutScopeDropsRuntimeFrames"), inner.Function)
	assert.False(t, isRuntimeFrame(stk[0]), "outermost frame %s is a runtime frame", stk[0].Function)
}

func captureViaHelper(ctx context.Context) error {
	return CaptureSkip(ctx, errors.New("helper"), 1)
}

func TestCaptureSkip_AttributesToHelperCaller(t *testing.T) {
	t.Parallel()

	err := captureViaHelper(context.Background())
	stk, ok := StackOf(err)
	require.True(t, ok)
	inner, _ := stk.Innermost()
	assert.True(t, strings.HasSuffix(inner.Function, ".TestCaptureSkip_AttributesToHelperCaller"), inner.Function)
}

func TestStackOf_PlainError(t *testing.T) {
	t.Parallel()

	stk, ok := StackOf(errors.New("plain"))
	assert.False(t, ok)
	assert.Nil(t, stk)
}

// sameWorker is run by several goroutines under one parent context.
func sameWorker(ctx context.Context, id int, ready chan<- struct{}, proceed <-chan struct{}) error {
	ctx, sc := Enter(ctx, Vars("id", id))
	defer sc.Exit()
	ready <- struct{}{}
	<-proceed
	sc.Set("phase", "capture")
	return Capture(ctx, ValueError{msg: fmt.Sprintf("worker %d", id)})
}

func TestCapture_ConcurrentWorkersKeepTheirOwnVariables(t *testing.T) {
	t.Parallel()

	ctx, root := Enter(context.Background())
	defer root.Exit()

	const workers = 2
	ready := make(chan struct{})
	proceed := make(chan struct{})
	errs := make([]error, workers+1)
	var wg sync.WaitGroup
	for id := 1; id <= workers; id++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[id] = sameWorker(ctx, id, ready, proceed)
		}()
	}
	for i := 0; i < workers; i++ {
		<-ready
	}
	close(proceed)
	wg.Wait()

	for id := 1; id <= workers; id++ {
		var c collector
		Log(c.sink, false, errs[id])
		got, ok := c.rowFor("id")
		require.True(t, ok, "worker %d: no id row in %q", id, c.lines)
		assert.Equal(t, strings.TrimRight(row("id", "int", strconv.Itoa(id)), " "), got, "worker %d", id)
	}
}

// stepOnce enters its scope only on the first step; later steps fail first.
func stepOnce(ctx context.Context, n int) error {
	if n > 1 {
		return Capture(ctx, ValueError{msg: "step failed"})
	}
	_, sc := Enter(ctx, Vars("secret", "from-step-1"))
	defer sc.Exit()
	return nil
}

func TestCapture_IgnoresScopesOfReturnedCalls(t *testing.T) {
	t.Parallel()

	ctx, root := Enter(context.Background())
	defer root.Exit()
	require.NoError(t, stepOnce(ctx, 1))
	err := stepOnce(ctx, 2)

	stk, ok := StackOf(err)
	require.True(t, ok)
	inner, _ := stk.Innermost()
	require.True(t, strings.HasSuffix(inner.Function, ".stepOnce"), inner.Function)
	assert.Nil(t, inner.Scope, "the returned first step must not lend its scope")

	var c collector
	Log(c.sink, false, err)
	_, found := c.rowFor("secret")
	assert.False(t, found, "report: %q", c.lines)
}

func TestEnter_ChainFollowsContext(t *testing.T) {
	t.Parallel()

	ctx1, a := Enter(context.Background())
	defer a.Exit()
	ctx2, b := Enter(ctx1)
	defer b.Exit()
	_, sibling := Enter(ctx1)
	defer sibling.Exit()

	assert.Equal(t, []*Scope{b, a}, chainOf(ctx2))
	assert.Equal(t, []*Scope{a}, chainOf(ctx1))
	assert.Nil(t, chainOf(context.Background()))
	assert.Nil(t, a.trail, "scopes outside a wrapper are not recorded on a trail")
}

func TestTrail_PanicViewSkipsNormallyExitedScopes(t *testing.T) {
	t.Parallel()

	ctx, tr := withTrail(context.Background())
	ctx, root := Enter(ctx)
	_, child := Enter(ctx)
	require.Equal(t, 2, tr.len())

	child.Exit()
	assert.Equal(t, 2, tr.len(), "exited scopes stay until the next Enter")
	assert.Equal(t, []*Scope{root}, tr.unwinding(), "a normal exit is not part of a panic report")

	_, sibling := Enter(ctx)
	assert.Equal(t, 2, tr.len(), "child pruned, sibling added")
	assert.Equal(t, []*Scope{sibling, root}, tr.unwinding())
	sibling.Exit()
	root.Exit()
}

func TestScope_OptionsAndSetters(t *testing.T) {
	t.Parallel()

	_, sc := Enter(context.Background(),
		Hide(), HideAllVars(), StopTraceback(), StartTraceback(), StopVars(), StartVars(),
		Mask("p"), Expand("q"), Vars("a", 1, "b"),
	)
	defer sc.Exit()

	assert.True(t, sc.Hidden)
	assert.True(t, sc.HideAllVariables)
	assert.True(t, sc.StopPropagation)
	assert.True(t, sc.StartPropagation)
	assert.True(t, sc.StopDisplayVariables)
	assert.True(t, sc.StartDisplayVariables)
	assert.True(t, sc.isMasked("p"))
	assert.True(t, sc.isExpanded("q"))
	assert.Equal(t, map[string]any{"a": 1, "b": nil}, sc.Vars())
	assert.True(t, strings.HasSuffix(sc.Function(), ".TestScope_OptionsAndSetters"), sc.Function())

	sc.Set("a", 2)
	assert.Equal(t, 2, sc.Vars()["a"])
}
