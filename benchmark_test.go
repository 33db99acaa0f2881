package tracelog

import (
	"context"
	"errors"
	"testing"
)

func BenchmarkCapture(b *testing.B) {
	ctx, sc := Enter(context.Background(), Vars("user", "ada", "attempt", 3))
	defer sc.Exit()
	cause := errors.New("boom")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Capture(ctx, cause)
	}
}

func BenchmarkEnterExit(b *testing.B) {
	ctx := context.Background()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, sc := Enter(ctx, Mask("password"))
		sc.Set("i", i)
		sc.Exit()
	}
}

func BenchmarkRender(b *testing.B) {
	ctx, sc := Enter(context.Background(), Vars("user", "ada", "payload", make([]byte, 256)))
	defer sc.Exit()
	err := Capture(ctx, errors.New("boom"))
	r := NewRenderer(DefaultOptions())
	discard := func(string) {}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Render(discard, err)
	}
}

func BenchmarkSafeString(b *testing.B) {
	v := map[string][]int{"a": {1, 2, 3}, "b": {4, 5}}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = SafeString(v)
	}
}
