// render.go — the report walker.
//
// Layout of one rendered frame:
//
//	File: "/src/app/handler.go", line number: 42
//	    <up to ContextLines lines before>
//	--> <the triggering line>
//	    <up to ContextLines lines after>
//	ValueError: boom
//	Variable             Type       Value
//	--------             ----       -----
//	attempt              int        2
//	<blank>
//
// Frames whose source cannot be read are left out; the walk continues.
package tracelog

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	rowFormat      = "%-20s %-10s %-58s"
	hiddenValue    = "[hidden]"
	errorValue     = "[error getting value]"
	hiddenVarsRow  = "        (variables are hidden)"
	markerPrefix   = "--> "
	contextIndent  = "    "
	headerLineFmt  = "File: %q, line number: %d"
	messageLineFmt = "%s: %s"
)

// Renderer writes reports with a fixed set of Options.
type Renderer struct {
	opts   Options
	logger *zerolog.Logger
}

// NewRenderer returns a Renderer for opts. Invalid values fall back to their
// defaults.
func NewRenderer(opts Options) *Renderer {
	def := DefaultOptions()
	if opts.ContextLines < 0 {
		opts.ContextLines = def.ContextLines
	}
	if opts.ValueWidth <= 0 {
		opts.ValueWidth = def.ValueWidth
	}
	if opts.PanicMaxDepth <= 0 {
		opts.PanicMaxDepth = def.PanicMaxDepth
	}
	if opts.Encoding == "" {
		opts.Encoding = def.Encoding
	}
	return &Renderer{opts: opts}
}

// Options returns the renderer's effective options.
func (r *Renderer) Options() Options { return r.opts }

// WithLogger returns a copy of r that reports its own warnings to l instead
// of the global zerolog logger.
func (r *Renderer) WithLogger(l zerolog.Logger) *Renderer {
	return &Renderer{opts: r.opts, logger: &l}
}

func (r *Renderer) zlog() *zerolog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return &log.Logger
}

// Log renders err's captured stack to sink with default options, appending
// "\n" to every line when newline is set. An error without a captured stack
// produces no output.
func Log(sink Sink, newline bool, err error) {
	o := DefaultOptions()
	o.Newline = newline
	NewRenderer(o).Render(sink, err)
}

// Render writes the report for the stack carried by err. An error without a
// captured stack writes nothing to sink and logs a warning.
func (r *Renderer) Render(sink Sink, err error) {
	if err == nil {
		return
	}
	stk, ok := StackOf(err)
	if !ok {
		r.zlog().Warn().
			Str("error_type", typeName(err)).
			Str("error", SafeString(err)).
			Msg("tracelog: error has no captured stack, raise it with tracelog.Capture to get a report")
		return
	}
	r.RenderStack(sink, stk, err)
}

// RenderStack writes the report for an explicit stack and the error raised at
// its innermost frame.
func (r *Renderer) RenderStack(sink Sink, stk Stack, err error) {
	rep := reported(err)
	r.render(sink, stk, errorTypeName(rep), r.message(rep))
}

// RenderPanic writes the report for a recovered panic value. Error values are
// reported like returned errors; other values by their own type.
func (r *Renderer) RenderPanic(sink Sink, stk Stack, value any) {
	if err, ok := value.(error); ok {
		r.RenderStack(sink, stk, err)
		return
	}
	r.render(sink, stk, errorTypeName(value), r.message(value))
}

// errorTypeName names the reported error or panic value without package or
// pointer decoration.
func errorTypeName(v any) string {
	return strings.TrimLeft(typeName(v), "*")
}

func (r *Renderer) message(v any) string {
	s, ok := r.stringify(v)
	if !ok {
		return errorValue
	}
	return s
}

func (r *Renderer) render(sink Sink, stk Stack, errType, errMsg string) {
	if r.opts.Newline {
		sink = withNewline(sink)
	}
	src := sourceCache{}
	var vis visibility
	for _, fr := range stk {
		vis.enter(fr.Scope)
		if vis.skip(fr.Scope) {
			continue
		}
		win, ok := src.window(fr.File, fr.Line, r.opts.ContextLines)
		if !ok {
			continue
		}
		sink(fmt.Sprintf(headerLineFmt, fr.File, fr.Line))
		for _, l := range win.pre {
			sink(contextIndent + l)
		}
		sink(markerPrefix + win.line)
		for _, l := range win.post {
			sink(contextIndent + l)
		}
		sink(fmt.Sprintf(messageLineFmt, errType, errMsg))
		sink(fmt.Sprintf(rowFormat, "Variable", "Type", "Value"))
		sink(fmt.Sprintf(rowFormat, "--------", "----", "-----"))
		if vis.varsHidden(fr.Scope) {
			sink(hiddenVarsRow)
			sink("")
			continue
		}
		if fr.Scope != nil {
			for _, f := range fr.Scope.vars.sorted() {
				sink(fmt.Sprintf(rowFormat, f.Key, typeName(f.Val), r.value(fr.Scope, f)))
			}
		}
		sink("")
	}
}

// value returns the display text of one variable.
func (r *Renderer) value(s *Scope, f Field) string {
	if s.isMasked(f.Key) {
		return hiddenValue
	}
	v, ok := r.stringify(f.Val)
	if !ok {
		return errorValue
	}
	if s.isExpanded(f.Key) {
		return v
	}
	return truncate(v, r.opts.ValueWidth)
}

// stringify converts v with the renderer's encoding settings, reporting false
// on any failure.
func (r *Renderer) stringify(v any) (s string, ok bool) {
	defer func() {
		if p := recover(); p != nil {
			r.zlog().Debug().Str("type", typeName(v)).Interface("panic", p).Msg("tracelog: value conversion panicked")
			s, ok = "", false
		}
	}()
	out, err := SmartString(v, r.opts.StringOptions())
	if err != nil {
		r.zlog().Debug().Str("type", typeName(v)).Err(err).Msg("tracelog: value conversion failed")
		return "", false
	}
	if str, isStr := out.(string); isStr {
		return str, true
	}
	return fmt.Sprint(out), true
}

// truncate keeps the first n characters of s: runes for valid UTF-8, bytes
// otherwise.
func truncate(s string, n int) string {
	if !utf8.ValidString(s) {
		if len(s) > n {
			return s[:n]
		}
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
