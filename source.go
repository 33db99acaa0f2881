package tracelog

import (
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// sourceContext is the window of source lines around a frame's line.
type sourceContext struct {
	pre  []string
	line string
	post []string
}

// sourceCache holds the files read during one render. It is discarded when the
// render returns.
type sourceCache map[string][]string

// lines returns the lines of path, reading the file on first use. ok is false
// when the file cannot be read.
func (c sourceCache) lines(path string) ([]string, bool) {
	if ls, ok := c[path]; ok {
		return ls, ls != nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Debug().Str("file", path).Err(err).Msg("tracelog: source unavailable, frame skipped")
		c[path] = nil
		return nil, false
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	ls := strings.Split(text, "\n")
	if n := len(ls); n > 0 && ls[n-1] == "" {
		ls = ls[:n-1]
	}
	c[path] = ls
	return ls, true
}

// window returns up to n lines before and after the 1-based line of path.
func (c sourceCache) window(path string, line, n int) (sourceContext, bool) {
	ls, ok := c.lines(path)
	if !ok {
		return sourceContext{}, false
	}
	idx := line - 1
	if idx < 0 || idx >= len(ls) {
		log.Debug().Str("file", path).Int("line", line).Int("lines", len(ls)).Msg("tracelog: line out of range, frame skipped")
		return sourceContext{}, false
	}
	lo := max(0, idx-n)
	hi := min(len(ls), idx+1+n)
	return sourceContext{
		pre:  ls[lo:idx],
		line: ls[idx],
		post: ls[idx+1 : hi],
	}, true
}
