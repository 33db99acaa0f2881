// context.go — ordered variable bindings for scopes.
//
// Design:
//   • Internal representation: []Field (insertion order, last write wins).
//   • The renderer asks for a name-sorted view; the stored order is never
//     changed in place.
//
// Rationale:
//   • Go map iteration order is unspecified; a slice keeps Set order stable
//     for callers that inspect Vars() and makes duplicate handling explicit.
package tracelog

import "sort"

// Field is a single variable binding recorded on a Scope.
type Field struct {
	Key string
	Val any
}

// fields is the internal representation of a scope's bindings.
type fields []Field

// emptyFields is a canonical empty binding list.
var emptyFields = make(fields, 0)

// set returns fs with key bound to val. An existing binding for key is
// replaced in place so the variable keeps its original position.
func (fs fields) set(key string, val any) fields {
	for i := range fs {
		if fs[i].Key == key {
			fs[i].Val = val
			return fs
		}
	}
	return append(fs, Field{Key: key, Val: val})
}

// varsFromKV parses a variadic list of name/value arguments into fields.
//
// Rules:
//   • Pairs are read left-to-right as (name, value).
//   • Names MUST be strings; a non-string name drops the ENTIRE pair so a
//     value never becomes the next pair's name.
//   • A trailing name with no value becomes (name, nil).
//   • A repeated name rebinds the earlier entry.
func varsFromKV(kv ...any) fields {
	if len(kv) == 0 {
		return emptyFields
	}
	out := make(fields, 0, len(kv)/2+1)
	for i := 0; i < len(kv); {
		k, ok := kv[i].(string)
		if !ok {
			if i+1 < len(kv) {
				i += 2
			} else {
				i++
			}
			continue
		}
		var v any
		if i+1 < len(kv) {
			v = kv[i+1]
			i += 2
		} else {
			i++
		}
		out = out.set(k, v)
	}
	if len(out) == 0 {
		return emptyFields
	}
	return out
}

// sorted returns a NEW slice ordered by name.
func (fs fields) sorted() fields {
	if len(fs) == 0 {
		return emptyFields
	}
	out := make(fields, len(fs))
	copy(out, fs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// toMap creates a NEW map from fields (copy-on-read).
func (fs fields) toMap() map[string]any {
	if len(fs) == 0 {
		return nil
	}
	m := make(map[string]any, len(fs))
	for _, f := range fs {
		m[f.Key] = f.Val
	}
	return m
}
