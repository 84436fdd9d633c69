package eval

import (
	"fmt"

	"github.com/standardbeagle/hexbait/internal/bigint"
	"github.com/standardbeagle/hexbait/internal/bytesource"
	"github.com/standardbeagle/hexbait/internal/lang/ir"
	"github.com/standardbeagle/hexbait/internal/types"
)

// EvalError is one entry in the Evaluator's shared errors vector.
type EvalError struct {
	Message string
	Window  types.Window
}

// Evaluator walks an ir.File against a byte source, producing a Value tree.
// A single Evaluator is not safe for concurrent use; create one per
// Evaluate call.
type Evaluator struct {
	defs map[string]ir.ParseType
	errs []EvalError
}

// New creates an Evaluator with no accumulated state.
func New() *Evaluator {
	return &Evaluator{}
}

// Errors returns every EvalError recorded during the most recent Evaluate
// call, in the order they were produced.
func (ev *Evaluator) Errors() []EvalError {
	return ev.errs
}

func (ev *Evaluator) recordError(msg string) ParseErrID {
	ev.errs = append(ev.errs, EvalError{Message: msg})
	return ParseErrID(len(ev.errs) - 1)
}

func (ev *Evaluator) recordErrorAt(msg string, w types.Window) ParseErrID {
	ev.errs = append(ev.errs, EvalError{Message: msg, Window: w})
	return ParseErrID(len(ev.errs) - 1)
}

// Evaluate parses file against source, returning the root Struct Value plus
// every error recorded along the way.
func (ev *Evaluator) Evaluate(file ir.File, source bytesource.Source) (Value, []EvalError) {
	ev.defs = collectDefinitions(file)
	root := newStructScope(nil)
	ps := newParseScope(source, root)
	ev.evalContents(file.Content, ps)

	prov := types.Window{}
	for _, f := range root.fields {
		prov = mergeProvenance(prov, f.Value.Provenance)
	}
	return Value{Kind: ValueStruct, Fields: root.fields, Provenance: prov, Err: NoError}, ev.errs
}

// collectDefinitions makes every top-level field's declared type available
// for lookup by a `Named{name}` reference elsewhere in the file.
func collectDefinitions(file ir.File) map[string]ir.ParseType {
	defs := make(map[string]ir.ParseType)
	for _, c := range file.Content {
		if c.Field != nil {
			if _, exists := defs[c.Field.Name]; !exists {
				defs[c.Field.Name] = c.Field.Type
			}
		}
	}
	return defs
}

func (ev *Evaluator) evalContents(content []ir.StructContent, ps *parseScope) {
	for _, c := range content {
		switch {
		case c.Field != nil:
			v := ev.evalField(*c.Field, ps)
			ps.scope.addField(c.Field.Name, v)
		case c.Declaration != nil:
			ev.evalDeclaration(*c.Declaration, ps)
		case c.Let != nil:
			ps.scope.lets[c.Let.Name] = ev.evalExpr(ps, &c.Let.Value)
		case c.Error != nil:
			ev.recordErrorAt(fmt.Sprintf("unparsed input: %q", c.Error.Text), types.Window{})
		}
	}
}

func (ev *Evaluator) evalDeclaration(d ir.Declaration, ps *parseScope) {
	switch d.Kind {
	case ir.DeclEndianness:
		ps.scope.endianness = d.Endianness
	case ir.DeclAlign:
		amt := ev.evalExpr(ps, &d.Amount)
		a, err := amt.Integer.ToUint64()
		if amt.Kind != ValueInteger || err != nil || a == 0 || a&(a-1) != 0 {
			ev.recordError("!align requires a positive power-of-two integer")
			return
		}
		mask := a - 1
		cur := uint64(ps.offset)
		aligned := (cur + mask) &^ mask
		ps.offset = ps.clampOffset(types.AbsoluteOffset(aligned))
	case ir.DeclSeekBy:
		amt := ev.evalExpr(ps, &d.Amount)
		if amt.Kind != ValueInteger {
			ev.recordError("!seek_by requires an integer")
			return
		}
		delta, err := amt.Integer.ToInt64()
		if err != nil {
			ev.recordError("!seek_by offset does not fit in a native integer")
			return
		}
		next := int64(ps.offset) + delta
		if next < 0 || next >= int64(ps.source) {
			ev.recordError("!seek_by target is outside the current view")
			return
		}
		ps.offset = types.AbsoluteOffset(next)
	case ir.DeclSeekTo:
		amt := ev.evalExpr(ps, &d.Amount)
		if amt.Kind != ValueInteger {
			ev.recordError("!seek_to requires an integer")
			return
		}
		target, err := amt.Integer.ToUint64()
		if err != nil {
			ev.recordError("!seek_to offset does not fit in a native integer")
			return
		}
		if target >= uint64(ps.source) {
			ev.recordError("!seek_to target is outside the current view")
			return
		}
		ps.offset = types.AbsoluteOffset(target)
	case ir.DeclScopeAt:
		startVal := ev.evalExpr(ps, &d.ScopeStart)
		if startVal.Kind != ValueInteger {
			ev.recordError("!scope_at requires an integer start")
			return
		}
		start, err := startVal.Integer.ToUint64()
		if err != nil {
			ev.recordError("!scope_at start does not fit in a native integer")
			return
		}
		length, _ := ps.view.Length()
		if start >= uint64(length) {
			ev.recordError("!scope_at start exceeded the end of the current scope")
			return
		}
		end := types.AbsoluteOffset(length)
		sub := ps.view.Subview(types.Window{Start: types.AbsoluteOffset(start), End: end})
		childScope := newStructScope(ps.scope)
		childPS := newParseScope(sub, childScope)
		ev.evalContents(d.ScopeBody, childPS)
		var rebase func(v Value) Value // sub-view offsets -> this view's offsets
		rebase = func(v Value) Value {
			if !v.Provenance.Empty() {
				v.Provenance = types.NewWindow(v.Provenance.Start.Add(types.Len(start)), v.Provenance.End.Add(types.Len(start)))
			}
			for i := range v.Fields {
				v.Fields[i].Value = rebase(v.Fields[i].Value)
			}
			for i := range v.Items {
				v.Items[i] = rebase(v.Items[i])
			}
			return v
		}
		for _, f := range childScope.fields {
			ps.scope.addField(f.Name, rebase(f.Value))
		}
	}
}

func (ev *Evaluator) evalField(f ir.Field, ps *parseScope) Value {
	hasExpected := !isZeroExpr(f.Expected)
	var expected Value
	if hasExpected {
		expected = ev.evalExpr(ps, &f.Expected)
	}

	var v Value
	if f.Type.Kind == ir.ParseTypeBytes && f.Type.Bytes.None() {
		v = ev.evalBytesWithInferredLength(f, expected, hasExpected, ps)
	} else {
		v = ev.evalParseType(f.Type, ps)
	}

	if hasExpected && !valuesEqual(v, expected) {
		ev.recordErrorAt(fmt.Sprintf("field %q: value did not match expected", f.Name), v.Provenance)
	}
	return v
}

// evalBytesWithInferredLength handles a `Bytes` field that has no explicit
// repetition clause but does have an expected literal, inferring the read
// length from that literal's byte count.
func (ev *Evaluator) evalBytesWithInferredLength(f ir.Field, expected Value, hasExpected bool, ps *parseScope) Value {
	if !hasExpected {
		ev.recordError(fmt.Sprintf("field %q: bytes type has neither a repetition nor an expected value", f.Name))
		return Value{Kind: ValueBytes, Err: NoError}
	}
	n := len(expected.Bytes)
	raw, win, err := ps.readBytes(n)
	if err != nil {
		return Value{Kind: ValueBytes, Bytes: raw, Provenance: win, Err: ev.recordErrorAt(err.Error(), win)}
	}
	return Value{Kind: ValueBytes, Bytes: raw, Provenance: win, Err: NoError}
}

// isZeroExpr reports whether e is the unpopulated zero value, meaning the
// field had no `= expected` clause.
func isZeroExpr(e ir.Expr) bool {
	return e.Kind == ir.ExprIntLiteral && e.IntLiteral == "" &&
		e.StringLiteral == "" && !e.BoolLiteral && len(e.Bytes) == 0 &&
		e.Ident == "" && e.Field == nil && e.Unary == nil && e.Binop == nil &&
		e.If == nil && e.Paren == nil
}

func (ev *Evaluator) evalParseType(t ir.ParseType, ps *parseScope) Value {
	switch t.Kind {
	case ir.ParseTypeInteger:
		return ev.evalInteger(t.Integer, ps)
	case ir.ParseTypeBytes:
		return ev.evalBytes(t.Bytes, ps)
	case ir.ParseTypeRepeating:
		return ev.evalRepeating(t.Repeat, ps)
	case ir.ParseTypeStruct:
		return ev.evalStruct(t.Struct, ps)
	case ir.ParseTypeSwitch:
		return ev.evalSwitch(t.Switch, ps)
	case ir.ParseTypeNamed:
		return ev.evalNamed(t.Named, ps)
	default:
		return Value{Err: ev.recordError("unknown parse-type kind")}
	}
}

func (ev *Evaluator) evalNamed(name string, ps *parseScope) Value {
	def, ok := ev.defs[name]
	if !ok {
		return Value{Err: ev.recordError(fmt.Sprintf("unknown type %q", name))}
	}
	return ev.evalParseType(def, ps)
}

func (ev *Evaluator) evalInteger(it ir.IntegerType, ps *parseScope) Value {
	n := it.BitWidth / 8
	raw, win, err := ps.readBytes(n)
	if err != nil {
		return Value{Kind: ValueInteger, Provenance: win, Err: ev.recordErrorAt(err.Error(), win)}
	}
	be := make([]byte, len(raw))
	copy(be, raw)
	if ps.scope.endianness == ir.LittleEndian {
		for i, j := 0, len(be)-1; i < j; i, j = i+1, j-1 {
			be[i], be[j] = be[j], be[i]
		}
	}
	return Value{Kind: ValueInteger, Integer: bigint.FromBytes(be, it.Signed), Provenance: win, Err: NoError}
}

func (ev *Evaluator) evalBytes(rep ir.Repetition, ps *parseScope) Value {
	switch rep.Kind {
	case ir.RepetitionLen:
		count := ev.evalExpr(ps, &rep.Count)
		n, err := lengthFromValue(count)
		if err != nil {
			return Value{Kind: ValueBytes, Err: ev.recordError(err.Error())}
		}
		raw, win, rerr := ps.readBytes(n)
		if rerr != nil {
			return Value{Kind: ValueBytes, Bytes: raw, Provenance: win, Err: ev.recordErrorAt(rerr.Error(), win)}
		}
		return Value{Kind: ValueBytes, Bytes: raw, Provenance: win, Err: NoError}
	case ir.RepetitionWhile:
		var out []byte
		start := ps.offset
		for {
			b, ok := ps.peekByte()
			if !ok {
				break
			}
			peeked := Value{Kind: ValueInteger, Integer: bigint.FromUint64(uint64(b)), Err: NoError}
			ps.scope.last = &peeked
			cond := ev.evalExpr(ps, &rep.Condition)
			if !asBool(cond) {
				break
			}
			raw, _, err := ps.readBytes(1)
			if err != nil {
				break
			}
			out = append(out, raw...)
		}
		return Value{Kind: ValueBytes, Bytes: out, Provenance: types.NewWindow(start, ps.offset), Err: NoError}
	default:
		// RepetitionNone is handled specially by evalField (length inferred
		// from an expected literal); reaching here means a Bytes type with
		// no repetition appeared somewhere other than directly as a field's
		// type, where there is no expected value to infer a length from.
		return Value{Kind: ValueBytes, Err: ev.recordError("bytes type with no repetition outside a field context")}
	}
}

func (ev *Evaluator) evalRepeating(rep *ir.RepeatType, ps *parseScope) Value {
	if rep == nil {
		return Value{Kind: ValueArray, Err: ev.recordError("malformed repeating type")}
	}
	start := ps.offset
	var items []Value
	switch rep.Repetition.Kind {
	case ir.RepetitionLen:
		countVal := ev.evalExpr(ps, &rep.Repetition.Count)
		n, err := lengthFromValue(countVal)
		if err != nil {
			return Value{Kind: ValueArray, Err: ev.recordError(err.Error())}
		}
		for i := 0; i < n; i++ {
			items = append(items, ev.evalParseType(rep.Inner, ps))
		}
	case ir.RepetitionWhile:
		// The body always runs at least once, so a condition referencing
		// `last` can be established before it's first checked.
		for {
			before := ps.offset
			v := ev.evalParseType(rep.Inner, ps)
			ps.scope.last = &v
			items = append(items, v)
			if ps.offset == before {
				// Inner made no progress (e.g. zero-length read); stop
				// rather than loop forever on malformed input.
				break
			}
			cond := ev.evalExpr(ps, &rep.Repetition.Condition)
			if !asBool(cond) {
				break
			}
		}
	}
	return Value{Kind: ValueArray, Items: items, Provenance: types.NewWindow(start, ps.offset), Err: NoError}
}

func (ev *Evaluator) evalStruct(content []ir.StructContent, ps *parseScope) Value {
	childScope := newStructScope(ps.scope)
	childPS := &parseScope{source: ps.source, view: ps.view, offset: ps.offset, scope: childScope}
	ev.evalContents(content, childPS)
	ps.offset = childPS.offset

	prov := types.Window{}
	for _, f := range childScope.fields {
		prov = mergeProvenance(prov, f.Value.Provenance)
	}
	return Value{Kind: ValueStruct, Fields: childScope.fields, Provenance: prov, Err: NoError}
}

func (ev *Evaluator) evalSwitch(sw *ir.SwitchType, ps *parseScope) Value {
	if sw == nil {
		return Value{Err: ev.recordError("malformed switch type")}
	}
	scrutinee := ev.evalExpr(ps, &sw.Scrutinee)
	for _, branch := range sw.Branches {
		want := ev.evalExpr(ps, &branch.Value)
		if valuesEqual(scrutinee, want) {
			return ev.evalStruct(branch.Content, ps)
		}
	}
	if sw.Default != nil {
		return ev.evalStruct(sw.Default, ps)
	}
	return Value{Err: ev.recordError("switch matched no branch and has no default")}
}

func lengthFromValue(v Value) (int, error) {
	if v.Kind != ValueInteger {
		return 0, fmt.Errorf("eval: length expression did not evaluate to an integer")
	}
	n, err := v.Integer.ToUint64()
	if err != nil {
		return 0, fmt.Errorf("eval: negative or overflowing length: %w", err)
	}
	return int(n), nil
}
