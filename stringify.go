// stringify.go — display conversion that never panics.
//
// Behavior (SmartString):
//
//	nil / numeric, StringsOnly   → returned unchanged
//	non-textual                  → Error() / String() / fmt.Sprint
//	  …conversion panics, error  → constituents joined with " "
//	  …conversion panics, other  → method-free dump, encoded to target
//	string kind                  → encoded to target
//	[]byte, target ≠ UTF-8       → decoded as UTF-8, encoded to target
//	otherwise                    → returned as-is
//
// "Encoded to target" produces a Go string holding the target encoding's
// bytes; for UTF-8 targets strings pass through untouched.
package tracelog

import (
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/davecgh/go-spew/spew"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// ErrorPolicy controls what happens to text the target encoding cannot hold.
type ErrorPolicy int

const (
	// Strict fails the conversion.
	Strict ErrorPolicy = iota
	// Replace substitutes the encoding's replacement character.
	Replace
	// Ignore drops the offending characters.
	Ignore
)

func (p ErrorPolicy) String() string {
	switch p {
	case Strict:
		return "strict"
	case Replace:
		return "replace"
	case Ignore:
		return "ignore"
	}
	return fmt.Sprintf("ErrorPolicy(%d)", int(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p ErrorPolicy) MarshalText() ([]byte, error) {
	switch p {
	case Strict, Replace, Ignore:
		return []byte(p.String()), nil
	}
	return nil, fmt.Errorf("tracelog: unknown error policy %d", int(p))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *ErrorPolicy) UnmarshalText(b []byte) error {
	v, err := ParseErrorPolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ParseErrorPolicy parses "strict", "replace" or "ignore" (case-insensitive).
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return Strict, nil
	case "replace":
		return Replace, nil
	case "ignore":
		return Ignore, nil
	}
	return Strict, fmt.Errorf("tracelog: unknown error policy %q", s)
}

// StringOptions configures SmartString.
type StringOptions struct {
	// Encoding is a WHATWG encoding label ("utf-8", "latin1", "shift_jis").
	// Empty means UTF-8.
	Encoding string
	// StringsOnly returns nil and numeric values unchanged instead of
	// converting them.
	StringsOnly bool
	// Errors is the policy for unencodable text.
	Errors ErrorPolicy
}

const utf8Label = "utf-8"

// dumper renders any value without calling its methods, so a panicking
// String() or Error() cannot interfere.
var dumper = spew.ConfigState{
	DisableMethods:          true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
	MaxDepth:                4,
}

// SmartString converts v for display in the target encoding. The result is a
// string unless StringsOnly kept v as-is. It never panics; failures (unknown
// encoding, unencodable text under Strict) are returned as errors.
func SmartString(v any, o StringOptions) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("tracelog: converting %T: panic: %v", v, r)
		}
	}()

	enc, isUTF8, err := lookupEncoding(o.Encoding)
	if err != nil {
		return nil, err
	}

	if o.StringsOnly && (v == nil || isNumeric(v)) {
		return v, nil
	}

	if b, ok := v.([]byte); ok {
		if len(b) > 0 && !isUTF8 {
			s, err := decodeUTF8(string(b), o.Errors)
			if err != nil {
				return nil, err
			}
			return encodeText(s, enc, o.Errors)
		}
		return string(b), nil
	}

	if rv := reflect.ValueOf(v); rv.IsValid() && rv.Kind() == reflect.String {
		s := rv.String()
		if isUTF8 {
			return s, nil
		}
		return encodeText(s, enc, o.Errors)
	}

	if s, ok := textOf(v); ok {
		return s, nil
	}
	if e, ok := v.(error); ok {
		if parts := children(e); len(parts) > 0 {
			strs := make([]string, 0, len(parts))
			for _, p := range parts {
				ps, err := SmartString(p, o)
				if err != nil {
					return nil, err
				}
				strs = append(strs, fmt.Sprint(ps))
			}
			return strings.Join(strs, " "), nil
		}
	}
	s := dumper.Sprint(v)
	if isUTF8 {
		return s, nil
	}
	return encodeText(s, enc, o.Errors)
}

// SafeString converts v with the default options (UTF-8, strict). If the
// conversion fails it returns an "[unprintable <type>]" marker.
func SafeString(v any) string {
	out, err := SmartString(v, StringOptions{})
	if err != nil {
		return fmt.Sprintf("[unprintable %s]", typeName(v))
	}
	if s, ok := out.(string); ok {
		return s
	}
	return fmt.Sprint(out)
}

// textOf runs the value's own textual conversion, reporting false when it
// panics.
func textOf(v any) (s string, ok bool) {
	defer func() {
		if recover() != nil {
			s, ok = "", false
		}
	}()
	switch x := v.(type) {
	case error:
		return x.Error(), true
	case fmt.Stringer:
		return x.String(), true
	}
	return fmt.Sprint(v), true
}

func isNumeric(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	}
	return false
}

func lookupEncoding(label string) (encoding.Encoding, bool, error) {
	if label == "" {
		label = utf8Label
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, false, fmt.Errorf("tracelog: encoding %q: %w", label, err)
	}
	name, _ := htmlindex.Name(enc)
	return enc, name == utf8Label, nil
}

// decodeUTF8 validates s as UTF-8 under the policy.
func decodeUTF8(s string, p ErrorPolicy) (string, error) {
	if utf8.ValidString(s) {
		return s, nil
	}
	switch p {
	case Replace:
		return strings.ToValidUTF8(s, string(utf8.RuneError)), nil
	case Ignore:
		return strings.ToValidUTF8(s, ""), nil
	}
	return "", fmt.Errorf("tracelog: invalid UTF-8 in %q", s)
}

// encodeText encodes UTF-8 s into enc under the policy.
func encodeText(s string, enc encoding.Encoding, p ErrorPolicy) (string, error) {
	switch p {
	case Replace:
		return encoding.ReplaceUnsupported(enc.NewEncoder()).String(s)
	case Ignore:
		e := enc.NewEncoder()
		var b strings.Builder
		for i := 0; i < len(s); {
			r, size := utf8.DecodeRuneInString(s[i:])
			chunk := s[i : i+size]
			i += size
			if r == utf8.RuneError && size == 1 {
				continue
			}
			out, err := e.String(chunk)
			if err != nil {
				continue
			}
			b.WriteString(out)
		}
		return b.String(), nil
	}
	out, err := enc.NewEncoder().String(s)
	if err != nil {
		return "", fmt.Errorf("tracelog: encoding text: %w", err)
	}
	return out, nil
}

// typeName returns v's Go type without package qualifiers: int, string,
// *Config, []main.Item → []Item. A nil interface reports "<nil>".
func typeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return unqualify(reflect.TypeOf(v).String())
}

// unqualify strips "pkg." prefixes from a type string while keeping
// composite syntax (*, [], map[...], func(...)).
func unqualify(s string) string {
	var b strings.Builder
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '.' {
			b.WriteString(s[start:segmentStart(s, start, i)])
			start = i + 1
		}
	}
	b.WriteString(s[start:])
	return b.String()
}

// segmentStart returns the index in s[from:dot] where the identifier that
// ends at dot begins.
func segmentStart(s string, from, dot int) int {
	i := dot
	for i > from {
		c := s[i-1]
		if c == '_' || c == '/' || c == '-' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') {
			i--
			continue
		}
		break
	}
	return i
}
