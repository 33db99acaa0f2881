package sink

import (
	"strings"

	"github.com/rs/zerolog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	tracelog "github.com/xgx-io/xgx-tracelog"
)

// Zerolog logs each line as the message of one event at level. Trailing
// newlines added by the renderer's newline option are trimmed; the logger
// terminates its own records.
func Zerolog(l zerolog.Logger, level zerolog.Level) tracelog.Sink {
	return func(line string) {
		l.WithLevel(level).Msg(strings.TrimRight(line, "\n"))
	}
}

// Zap logs each line as the message of one entry at level. Levels that panic
// or exit (DPanic in development, Panic, Fatal) do so after the first line;
// pick Error or below for full reports.
func Zap(l *zap.Logger, level zapcore.Level) tracelog.Sink {
	return func(line string) {
		if ce := l.Check(level, strings.TrimRight(line, "\n")); ce != nil {
			ce.Write()
		}
	}
}
