// format.go — fmt.Formatter for captured errors.
//
// Behavior:
//
//	%s, %v   → the original error's text (Error()).
//	%+v      → the full report with default options, one line per row.
//	%q       → quoted Error().
package tracelog

import (
	"fmt"
	"io"
)

func (e *traced) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			NewRenderer(DefaultOptions()).RenderStack(writerSink(s), e.stk, e)
			return
		}
		formatConcise(s, e)
	case 's':
		formatConcise(s, e)
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	default:
		formatConcise(s, e)
	}
}

// formatConcise writes the one-line message (delegates to Error()).
func formatConcise(w io.Writer, e error) {
	// ignore write errors in formatting paths
	_, _ = io.WriteString(w, e.Error())
}

// writerSink writes each line to w followed by a newline.
func writerSink(w io.Writer) Sink {
	return func(line string) {
		_, _ = io.WriteString(w, line)
		_, _ = io.WriteString(w, "\n")
	}
}
