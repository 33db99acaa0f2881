package tracelog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Options configures a Renderer. The zero value is not useful; start from
// DefaultOptions.
type Options struct {
	// ContextLines is the number of source lines shown before and after the
	// triggering line.
	ContextLines int `toml:"context_lines" yaml:"context_lines"`
	// ValueWidth is the number of characters kept from a variable's value
	// unless the variable is expanded.
	ValueWidth int `toml:"value_width" yaml:"value_width"`
	// Newline appends "\n" to every line handed to the sink.
	Newline bool `toml:"newline" yaml:"newline"`
	// Encoding is the WHATWG label values are converted to.
	Encoding string `toml:"encoding" yaml:"encoding"`
	// Errors is the policy for text the encoding cannot hold.
	Errors ErrorPolicy `toml:"errors" yaml:"errors"`
	// PanicMaxDepth caps the number of frames a wrapper captures when the
	// wrapped function panics. Capture and the other constructors always use
	// a fixed bound of 64 frames.
	PanicMaxDepth int `toml:"panic_max_depth" yaml:"panic_max_depth"`
}

// DefaultOptions returns the standard report layout: four lines of context,
// values cut at 40 characters, UTF-8.
func DefaultOptions() Options {
	return Options{
		ContextLines:  4,
		ValueWidth:    40,
		Encoding:      utf8Label,
		Errors:        Strict,
		PanicMaxDepth: defaultMaxDepth,
	}
}

// Validate reports option values the renderer cannot work with.
func (o Options) Validate() error {
	var errs []error
	if o.ContextLines < 0 {
		errs = append(errs, fmt.Errorf("context_lines must be >= 0, got %d", o.ContextLines))
	}
	if o.ValueWidth <= 0 {
		errs = append(errs, fmt.Errorf("value_width must be > 0, got %d", o.ValueWidth))
	}
	if o.PanicMaxDepth < 0 {
		errs = append(errs, fmt.Errorf("panic_max_depth must be >= 0, got %d", o.PanicMaxDepth))
	}
	if _, _, err := lookupEncoding(o.Encoding); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// StringOptions returns the stringification settings the renderer uses for
// variable values.
func (o Options) StringOptions() StringOptions {
	return StringOptions{Encoding: o.Encoding, Errors: o.Errors}
}

// LoadOptions reads options from a TOML (.toml) or YAML (.yaml, .yml) file.
// Keys missing from the file keep their DefaultOptions values.
func LoadOptions(path string) (Options, error) {
	o := DefaultOptions()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.DecodeFile(path, &o)
		if err != nil {
			return Options{}, fmt.Errorf("load options %s: %w", path, err)
		}
		if undec := md.Undecoded(); len(undec) > 0 {
			return Options{}, fmt.Errorf("load options %s: unknown keys %v", path, undec)
		}
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return Options{}, fmt.Errorf("load options: %w", err)
		}
		defer f.Close()
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(&o); err != nil && !errors.Is(err, io.EOF) {
			return Options{}, fmt.Errorf("load options %s: %w", path, err)
		}
	default:
		return Options{}, fmt.Errorf("load options %s: unsupported extension %q", path, filepath.Ext(path))
	}
	if err := o.Validate(); err != nil {
		return Options{}, fmt.Errorf("load options %s: %w", path, err)
	}
	return o, nil
}
