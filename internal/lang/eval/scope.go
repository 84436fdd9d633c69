package eval

import (
	"github.com/standardbeagle/hexbait/internal/bytesource"
	"github.com/standardbeagle/hexbait/internal/lang/ir"
	"github.com/standardbeagle/hexbait/internal/types"
)

// structScope is the state shared by every field parsed directly inside one
// struct body.
type structScope struct {
	parent     *structScope
	endianness ir.Endianness
	fields     []NamedValue // already-parsed fields, in order; duplicates keep the first
	last       *Value       // value most recently produced by an enclosing repetition
	lets       map[string]Value
}

func newStructScope(parent *structScope) *structScope {
	s := &structScope{endianness: ir.LittleEndian, lets: map[string]Value{}}
	if parent != nil {
		s.endianness = parent.endianness
	}
	return s
}

func (s *structScope) addField(name string, v Value) {
	for _, f := range s.fields {
		if f.Name == name {
			return // duplicates keep the first
		}
	}
	s.fields = append(s.fields, NamedValue{Name: name, Value: v})
}

func (s *structScope) resolve(name string) (Value, bool) {
	if name == "last" {
		if s.last != nil {
			return *s.last, true
		}
		return Value{}, false
	}
	for _, f := range s.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	if v, ok := s.lets[name]; ok {
		return v, true
	}
	if s.parent != nil {
		return s.parent.resolve(name)
	}
	return Value{}, false
}

// parseScope is the per-parse-position state: the current offset within a
// (possibly sub-viewed) byte source, plus a link back to the enclosing
// struct scope.
type parseScope struct {
	source types.Len // length of this view, for clamping
	view   bytesource.Source
	offset types.AbsoluteOffset
	scope  *structScope
}

func newParseScope(view bytesource.Source, scope *structScope) *parseScope {
	length, _ := view.Length()
	return &parseScope{source: length, view: view, offset: 0, scope: scope}
}

func (p *parseScope) clampOffset(off types.AbsoluteOffset) types.AbsoluteOffset {
	if off > types.AbsoluteOffset(p.source) {
		return types.AbsoluteOffset(p.source)
	}
	return off
}

// readBytes reads n bytes at the current offset and advances it. The
// returned provenance window is relative to this parse-scope's view, not
// the root source; callers that need root-relative provenance must rebase
// it (the Evaluator shifts a `!scope_at` body's values onto the enclosing
// view when it merges them back, so nested sub-views compose additively).
func (p *parseScope) readBytes(n int) ([]byte, types.Window, error) {
	buf := make([]byte, n)
	got, err := p.view.ReadAt(p.offset, buf)
	win := types.WindowOfLen(p.offset, types.Len(got))
	p.offset = p.offset.Add(types.Len(got))
	if err != nil {
		return buf[:got], win, err
	}
	if got < n {
		return buf[:got], win, errShortRead{requested: n, got: got}
	}
	return buf[:got], win, nil
}

func (p *parseScope) peekByte() (byte, bool) {
	var buf [1]byte
	n, err := p.view.ReadAt(p.offset, buf[:])
	if err != nil || n == 0 {
		return 0, false
	}
	return buf[0], true
}

type errShortRead struct {
	requested, got int
}

func (e errShortRead) Error() string {
	return "eval: short read"
}
