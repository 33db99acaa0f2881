// unwrap.go — small unwrapping helpers.
//
// Go's error traversal has two Unwrap forms: Unwrap() error and, since Go
// 1.20, Unwrap() []error (errors.Join, multi-%w). Both are handled here.
// Calls into foreign Unwrap methods are guarded: a broken error must not take
// the report down with it.
package tracelog

// single/multi unwrap interfaces (stdlib-compatible)
type singleUnwrapper interface{ Unwrap() error }
type multiUnwrapper interface{ Unwrap() []error }

// children returns err's direct constituents, nil entries removed. A panic
// inside a foreign Unwrap yields no children.
func children(err error) (out []error) {
	defer func() {
		if recover() != nil {
			out = nil
		}
	}()
	switch x := err.(type) {
	case multiUnwrapper:
		for _, c := range x.Unwrap() {
			if c != nil {
				out = append(out, c)
			}
		}
	case singleUnwrapper:
		if c := x.Unwrap(); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// reported peels the capture wrappers off err so the report names the error
// the caller actually raised. Wrappers added by the caller are kept.
func reported(err error) error {
	for {
		t, ok := err.(*traced)
		if !ok {
			return err
		}
		err = t.cause
	}
}
