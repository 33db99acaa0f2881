package sink

import (
	"strings"

	"github.com/gookit/color"

	tracelog "github.com/xgx-io/xgx-tracelog"
)

// Color highlights report structure before forwarding to next: location
// headers in cyan, the triggering line in red, hidden-value markers in yellow.
// Other lines pass through unchanged. Color output follows gookit/color's
// terminal detection, so piping to a file yields plain text.
func Color(next tracelog.Sink) tracelog.Sink {
	return func(line string) {
		next(colorize(line))
	}
}

func colorize(line string) string {
	body, nl := strings.CutSuffix(line, "\n")
	var out string
	switch {
	case strings.HasPrefix(body, "File: "):
		out = color.Cyan.Sprint(body)
	case strings.HasPrefix(body, "--> "):
		out = color.Red.Sprint(body)
	case strings.Contains(body, "[hidden]"), strings.Contains(body, "(variables are hidden)"):
		out = color.Yellow.Sprint(body)
	default:
		return line
	}
	if nl {
		out += "\n"
	}
	return out
}
