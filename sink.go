package tracelog

import "github.com/rs/zerolog/log"

// Sink receives one line of report text per call, in report order.
type Sink func(line string)

// LogSink writes each line to the global zerolog logger at error level.
func LogSink(line string) {
	log.Error().Msg(line)
}

// withNewline appends "\n" to every line before it reaches next.
func withNewline(next Sink) Sink {
	return func(line string) { next(line + "\n") }
}
