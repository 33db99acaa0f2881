package sink

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/gookit/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWriter_WritesLinesUnchanged(t *testing.T) {
	var buf bytes.Buffer
	s := Writer(&buf)
	s("a")
	s("b\n")
	assert.Equal(t, "ab\n", buf.String())
}

func TestLines_CollectsConcurrently(t *testing.T) {
	var l Lines
	s := l.Sink()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s("x")
		}()
	}
	wg.Wait()
	assert.Len(t, l.Lines(), 8)

	got := l.Lines()
	got[0] = "mutated"
	assert.Equal(t, "x", l.Lines()[0], "Lines must return a copy")

	l.Reset()
	assert.Empty(t, l.Lines())
}

func TestTee_ForwardsInOrder(t *testing.T) {
	var a, b Lines
	s := Tee(a.Sink(), b.Sink())
	s("one")
	s("two")
	assert.Equal(t, []string{"one", "two"}, a.Lines())
	assert.Equal(t, a.Lines(), b.Lines())
}

func TestZerolog_OneEventPerLine(t *testing.T) {
	var buf bytes.Buffer
	s := Zerolog(zerolog.New(&buf), zerolog.WarnLevel)
	s("File: \"x.go\", line number: 3\n")
	s("")

	out := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, out, 2)
	assert.Contains(t, out[0], `"level":"warn"`)
	assert.Contains(t, out[0], `"message":"File: \"x.go\", line number: 3"`)
}

func TestZap_OneEntryPerLine(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := Zap(zap.New(core), zapcore.ErrorLevel)
	s("--> boom()\n")
	s("ValueError: boom")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "--> boom()", entries[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)

	quiet := Zap(zap.New(core), zapcore.DebugLevel)
	quiet("dropped")
	assert.Equal(t, 2, logs.Len(), "entries below the core level are not written")
}

func TestColor_KeepsTextAndNewline(t *testing.T) {
	tests := []string{
		`File: "x.go", line number: 3`,
		"--> boom()\n",
		"card                 string     [hidden]",
		"        (variables are hidden)",
		"    plain context",
	}
	for _, line := range tests {
		var l Lines
		Color(l.Sink())(line)
		got := l.Lines()
		require.Len(t, got, 1)
		assert.Equal(t, line, color.ClearCode(got[0]))
	}

	assert.Equal(t, "    plain context", colorize("    plain context"))
}
