package cst

import "testing"

func findCategory(t *testing.T, spans []HighlightSpan, text, src string) HighlightCategory {
	t.Helper()
	for _, s := range spans {
		if src[s.Start:s.End] == text {
			return s.Category
		}
	}
	t.Fatalf("no highlight span found for %q", text)
	return HighlightNone
}

func TestHighlightQueryClassifiesTokens(t *testing.T) {
	src := "magic bytes = \"MZ\"; /* n */ data bytes[16];"
	root, _ := Parse(src)

	spans := HighlightQuery(root)
	if findCategory(t, spans, "bytes", src) != HighlightKeyword {
		t.Errorf("expected bytes to be a keyword")
	}
	if findCategory(t, spans, "magic", src) != HighlightIdent {
		t.Errorf("expected magic to be an ident")
	}
	if findCategory(t, spans, "\"MZ\"", src) != HighlightString {
		t.Errorf("expected \"MZ\" to be a string")
	}
	if findCategory(t, spans, "16", src) != HighlightNumber {
		t.Errorf("expected 16 to be a number")
	}
	if findCategory(t, spans, "/* n */", src) != HighlightComment {
		t.Errorf("expected block comment to be classified as a comment")
	}
}

func TestHighlightQuerySkipsWhitespace(t *testing.T) {
	src := "x   u32;"
	root, _ := Parse(src)

	spans := HighlightQuery(root)
	for _, s := range spans {
		if src[s.Start:s.End] == "   " {
			t.Fatalf("expected whitespace to be dropped from highlight spans")
		}
	}
}

func TestHighlightQuerySpansAreOrderedBySource(t *testing.T) {
	src := "data bytes[16];"
	root, _ := Parse(src)

	spans := HighlightQuery(root)
	for i := 1; i < len(spans); i++ {
		if spans[i].Start < spans[i-1].Start {
			t.Fatalf("expected spans in source order, got %d after %d", spans[i].Start, spans[i-1].Start)
		}
	}
}
