package eval

import (
	"os"
	"testing"

	"github.com/standardbeagle/hexbait/internal/bytesource"
	"github.com/standardbeagle/hexbait/internal/lang/cst"
	"github.com/standardbeagle/hexbait/internal/lang/ir"
)

func mustLower(t *testing.T, src string) ir.File {
	t.Helper()
	root, diags := cst.Parse(src)
	if len(diags) != 0 {
		t.Fatalf("unexpected parse diagnostics for %q: %+v", src, diags)
	}
	file, lowerDiags := ir.Lower(root)
	if len(lowerDiags) != 0 {
		t.Fatalf("unexpected lowering diagnostics for %q: %+v", src, lowerDiags)
	}
	return file
}

func TestEvaluateIntegerLittleEndian(t *testing.T) {
	file := mustLower(t, "x u32;")
	source := bytesource.FromBytes([]byte{0x01, 0x00, 0x00, 0x00})
	root, errs := New().Evaluate(file, source)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	v, ok := root.Lookup("x")
	if !ok {
		t.Fatalf("expected field x")
	}
	if v.Integer.String() != "1" {
		t.Fatalf("expected little-endian 1, got %s", v.Integer)
	}
}

func TestEvaluateIntegerBigEndianDeclaration(t *testing.T) {
	file := mustLower(t, "!endian be;\nx u16;")
	source := bytesource.FromBytes([]byte{0x01, 0x00})
	root, errs := New().Evaluate(file, source)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	v, _ := root.Lookup("x")
	if v.Integer.String() != "256" {
		t.Fatalf("expected big-endian 256, got %s", v.Integer)
	}
}

func TestEvaluateSignedIntegerNegative(t *testing.T) {
	file := mustLower(t, "x i8;")
	source := bytesource.FromBytes([]byte{0xff})
	root, _ := New().Evaluate(file, source)
	v, _ := root.Lookup("x")
	if v.Integer.String() != "-1" {
		t.Fatalf("expected -1, got %s", v.Integer)
	}
}

func TestEvaluateExpectedBytesInfersLength(t *testing.T) {
	file := mustLower(t, `magic bytes = "MZ";`)
	source := bytesource.FromBytes([]byte("MZ"))
	root, errs := New().Evaluate(file, source)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	v, _ := root.Lookup("magic")
	if string(v.Bytes) != "MZ" {
		t.Fatalf("expected MZ, got %q", v.Bytes)
	}
}

func TestEvaluateExpectedMismatchRecordsErrorButContinues(t *testing.T) {
	file := mustLower(t, "magic bytes = \"MZ\";\ny u8;")
	source := bytesource.FromBytes([]byte("XX\x2a"))
	root, errs := New().Evaluate(file, source)
	if len(errs) == 0 {
		t.Fatalf("expected a mismatch error")
	}
	y, ok := root.Lookup("y")
	if !ok {
		t.Fatalf("expected evaluation to continue to field y")
	}
	if y.Integer.String() != "42" {
		t.Fatalf("expected y=42, got %s", y.Integer)
	}
}

func TestEvaluateRepeatingLen(t *testing.T) {
	file := mustLower(t, "items u8[3];")
	source := bytesource.FromBytes([]byte{1, 2, 3})
	root, errs := New().Evaluate(file, source)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	v, _ := root.Lookup("items")
	if len(v.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(v.Items))
	}
	if v.Items[2].Integer.String() != "3" {
		t.Fatalf("expected third item 3, got %s", v.Items[2].Integer)
	}
}

func TestEvaluateRepeatingWhileLast(t *testing.T) {
	file := mustLower(t, "items u8[while last != 0];")
	source := bytesource.FromBytes([]byte{1, 2, 0, 9})
	root, errs := New().Evaluate(file, source)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	v, _ := root.Lookup("items")
	if len(v.Items) != 3 {
		t.Fatalf("expected to stop after the terminating zero, got %d items", len(v.Items))
	}
	if v.Items[2].Integer.String() != "0" {
		t.Fatalf("expected the terminating 0 to be included, got %s", v.Items[2].Integer)
	}
}

func TestEvaluateInlineStruct(t *testing.T) {
	file := mustLower(t, "inner struct { a u8; b u8; };")
	source := bytesource.FromBytes([]byte{7, 9})
	root, errs := New().Evaluate(file, source)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	inner, ok := root.Lookup("inner")
	if !ok || inner.Kind != ValueStruct {
		t.Fatalf("expected a struct value, got %+v", inner)
	}
	a, _ := inner.Lookup("a")
	b, _ := inner.Lookup("b")
	if a.Integer.String() != "7" || b.Integer.String() != "9" {
		t.Fatalf("expected a=7 b=9, got a=%s b=%s", a.Integer, b.Integer)
	}
}

func TestEvaluateSwitchDispatch(t *testing.T) {
	file := mustLower(t, "tag u8;\nkind switch (tag) { 1: a u8; 2: b u16; _: c u8; };")
	source := bytesource.FromBytes([]byte{2, 0x34, 0x12})
	root, errs := New().Evaluate(file, source)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	kind, ok := root.Lookup("kind")
	if !ok {
		t.Fatalf("expected kind field")
	}
	b, ok := kind.Lookup("b")
	if !ok {
		t.Fatalf("expected branch 2's field 'b' to be present, got %+v", kind)
	}
	if b.Integer.String() != "4660" {
		t.Fatalf("expected 0x1234 = 4660, got %s", b.Integer)
	}
}

func TestEvaluateSwitchDefaultBranch(t *testing.T) {
	file := mustLower(t, "tag u8;\nkind switch (tag) { 1: a u8; _: c u8; };")
	source := bytesource.FromBytes([]byte{99, 5})
	root, _ := New().Evaluate(file, source)
	kind, _ := root.Lookup("kind")
	c, ok := kind.Lookup("c")
	if !ok || c.Integer.String() != "5" {
		t.Fatalf("expected default branch field c=5, got %+v", kind)
	}
}

func TestEvaluateScopeAt(t *testing.T) {
	file := mustLower(t, "!scope_at 2 { a u8; }")
	source := bytesource.FromBytes([]byte{0, 0, 42})
	root, errs := New().Evaluate(file, source)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	a, ok := root.Lookup("a")
	if !ok || a.Integer.String() != "42" {
		t.Fatalf("expected field a=42 read from offset 2, got %+v", root)
	}
}

func TestEvaluateSeekByAndAlign(t *testing.T) {
	file := mustLower(t, "!seek_by 1;\n!align 4;\nx u8;")
	source := bytesource.FromBytes([]byte{0, 0, 0, 0, 77})
	root, errs := New().Evaluate(file, source)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	x, _ := root.Lookup("x")
	if x.Integer.String() != "77" {
		t.Fatalf("expected seek_by 1 then align 4 to land on offset 4, got %s", x.Integer)
	}
}

func TestEvaluateSeekByOutOfRangeRecordsErrorWithoutMoving(t *testing.T) {
	file := mustLower(t, "!seek_by 10;\nx u8;")
	source := bytesource.FromBytes([]byte{1, 2, 3})
	root, errs := New().Evaluate(file, source)
	if len(errs) == 0 {
		t.Fatalf("expected an out-of-range error for !seek_by")
	}
	x, ok := root.Lookup("x")
	if !ok || x.Integer.String() != "1" {
		t.Fatalf("expected !seek_by to leave the offset at 0 so x reads byte 1, got %+v", x)
	}
}

func TestEvaluateSeekToOutOfRangeRecordsErrorWithoutMoving(t *testing.T) {
	file := mustLower(t, "!seek_to 10;\nx u8;")
	source := bytesource.FromBytes([]byte{1, 2, 3})
	root, errs := New().Evaluate(file, source)
	if len(errs) == 0 {
		t.Fatalf("expected an out-of-range error for !seek_to")
	}
	x, ok := root.Lookup("x")
	if !ok || x.Integer.String() != "1" {
		t.Fatalf("expected !seek_to to leave the offset at 0 so x reads byte 1, got %+v", x)
	}
}

func TestEvaluateScopeAtOutOfRangeRecordsErrorWithoutEnteringScope(t *testing.T) {
	file := mustLower(t, "!scope_at 10 { a u8; }")
	source := bytesource.FromBytes([]byte{1, 2, 3})
	root, errs := New().Evaluate(file, source)
	if len(errs) == 0 {
		t.Fatalf("expected an out-of-range error for !scope_at")
	}
	if _, ok := root.Lookup("a"); ok {
		t.Fatalf("expected !scope_at to skip its body entirely on an out-of-range start")
	}
}

func TestEvaluateNamedTypeLookup(t *testing.T) {
	file := mustLower(t, "header struct { a u8; };\ncopy header;")
	source := bytesource.FromBytes([]byte{5, 6})
	root, errs := New().Evaluate(file, source)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	cp, ok := root.Lookup("copy")
	if !ok || cp.Kind != ValueStruct {
		t.Fatalf("expected 'copy' to resolve the named struct type, got %+v", cp)
	}
	a, _ := cp.Lookup("a")
	if a.Integer.String() != "6" {
		t.Fatalf("expected copy.a to read the second byte, got %s", a.Integer)
	}
}

func TestEvaluateUnknownNamedTypeRecordsError(t *testing.T) {
	file := mustLower(t, "x nonexistent;")
	source := bytesource.FromBytes([]byte{1})
	_, errs := New().Evaluate(file, source)
	if len(errs) == 0 {
		t.Fatalf("expected an error for the unresolved named type")
	}
}

func TestEvaluateExpressionArithmeticAndComparison(t *testing.T) {
	file := mustLower(t, "a u8;\nb u8;\nlet sum = a + b;\nlet eq = a == b;")
	source := bytesource.FromBytes([]byte{3, 4})
	root, errs := New().Evaluate(file, source)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	if len(root.Fields) != 2 {
		t.Fatalf("let-bindings shouldn't appear as struct fields, got %+v", root.Fields)
	}
}

func TestLoaderCachesByContentHash(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/g.hb"
	if err := os.WriteFile(path, []byte("x u8;"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	l := NewLoader()
	first, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	second, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(first.File.Content) != len(second.File.Content) {
		t.Fatalf("expected the cached reload to match")
	}
}

