package search

import (
	"bytes"

	"github.com/coregx/ahocorasick"
)

// automaton wraps the coregx/ahocorasick trie (the same automaton type the
// pack's regex meta-engine reaches for once an alternation grows past its
// literal-prefilter threshold) behind the narrow surface this package
// actually needs: build once from a pattern set, then scan arbitrary byte
// slices for every occurrence of every pattern.
type automaton struct {
	a               *ahocorasick.Automaton
	caseInsensitive bool
	maxPatternLen   int
}

// buildAutomaton constructs the trie for patterns. When caseInsensitive is
// set, patterns are lowercased before construction and every scanned chunk
// is lowercased the same way, matching the ASCII-only case folding calls for.
func buildAutomaton(patterns [][]byte, caseInsensitive bool) (*automaton, error) {
	built := make([][]byte, len(patterns))
	maxLen := 0
	for i, p := range patterns {
		pat := p
		if caseInsensitive {
			pat = asciiLower(p)
		}
		built[i] = pat
		if len(pat) > maxLen {
			maxLen = len(pat)
		}
	}

	a, err := ahocorasick.New(built, ahocorasick.Options{})
	if err != nil {
		return nil, err
	}
	return &automaton{a: a, caseInsensitive: caseInsensitive, maxPatternLen: maxLen}, nil
}

// overlap returns the number of bytes a following chunk must retain from the
// tail of this one so a pattern straddling the boundary is never missed.
func (a *automaton) overlap() int {
	if a.maxPatternLen == 0 {
		return 0
	}
	return a.maxPatternLen - 1
}

// scan reports every match within buf, as (patternIndex, start, end) byte
// offsets relative to buf.
func (a *automaton) scan(buf []byte) []ahocorasick.Match {
	haystack := buf
	if a.caseInsensitive {
		haystack = asciiLower(buf)
	}
	return a.a.FindAll(haystack)
}

func asciiLower(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return out
}

// samePatternSet reports whether two pattern lists are identical in content
// and order, used to decide whether a new request can reuse an already-built
// automaton instead of rebuilding the trie from scratch.
func samePatternSet(a, b [][]byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !bytes.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
