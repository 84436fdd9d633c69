// Package eval evaluates a lowered grammar IR::File against a byte source,
// producing a Value tree with full source provenance.
package eval

import (
	"github.com/standardbeagle/hexbait/internal/bigint"
	"github.com/standardbeagle/hexbait/internal/types"
)

// ParseErrID is a handle into the Evaluator's shared errors vector.
type ParseErrID int

// NoError marks the absence of an attached error.
const NoError ParseErrID = -1

// ValueKind tags which field of Value is populated.
type ValueKind int

const (
	ValueInteger ValueKind = iota
	ValueBytes
	ValueBool
	ValueStruct
	ValueArray
)

// Value is a node in the parsed output tree. Every Value carries a single
// Provenance window, the smallest window covering the bytes it was produced
// from, so the UI can highlight source bytes for a hovered value. It is not
// a set of disjoint ranges: for a struct or array it also covers any bytes
// skipped between its parts.
type Value struct {
	Kind ValueKind

	Integer bigint.Int
	Bytes   []byte
	Bool    bool
	Fields  []NamedValue // ValueStruct
	Items   []Value      // ValueArray

	Provenance types.Window
	Err        ParseErrID
}

// NamedValue pairs a struct field's name with its parsed value. Using a
// slice rather than a map preserves declaration order and permits
// duplicate names, the first of which wins ("duplicates keep the first").
type NamedValue struct {
	Name  string
	Value Value
}

// Lookup finds the first field named name, honoring "duplicates keep the
// first".
func (v Value) Lookup(name string) (Value, bool) {
	for _, f := range v.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

func mergeProvenance(a, b types.Window) types.Window {
	if a.Empty() {
		return b
	}
	if b.Empty() {
		return a
	}
	return a.Union(b)
}
