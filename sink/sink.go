// Package sink adapts report output to common destinations: plain writers,
// zerolog and zap loggers, terminals with color, and in-memory collection.
//
// Every adapter forwards each line exactly once, in the order received.
package sink

import (
	"io"
	"sync"

	tracelog "github.com/xgx-io/xgx-tracelog"
)

// Writer writes each line to w unchanged. Combine with the renderer's newline
// option (or Lines) when w expects line terminators. Write errors are ignored:
// a report must not fail the code it describes.
func Writer(w io.Writer) tracelog.Sink {
	return func(line string) {
		_, _ = io.WriteString(w, line)
	}
}

// Lines collects report lines in memory. It is safe for concurrent use.
type Lines struct {
	mu    sync.Mutex
	lines []string
}

// Sink returns the collecting sink.
func (l *Lines) Sink() tracelog.Sink {
	return func(line string) {
		l.mu.Lock()
		l.lines = append(l.lines, line)
		l.mu.Unlock()
	}
}

// Lines returns a copy of the collected lines.
func (l *Lines) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// Reset drops the collected lines.
func (l *Lines) Reset() {
	l.mu.Lock()
	l.lines = nil
	l.mu.Unlock()
}

// Tee forwards each line to every sink in order.
func Tee(sinks ...tracelog.Sink) tracelog.Sink {
	return func(line string) {
		for _, s := range sinks {
			s(line)
		}
	}
}
