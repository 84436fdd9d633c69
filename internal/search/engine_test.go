package search

import (
	"testing"
	"time"

	"github.com/standardbeagle/hexbait/internal/bytesource"
)

func waitForDone(t *testing.T, e *Engine) ([]Match, float64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		matches, progress, done := e.Results().Snapshot()
		if done {
			return matches, progress
		}
		if time.Now().After(deadline) {
			t.Fatalf("search never completed")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestEngineFindsSingleMatch(t *testing.T) {
	source := bytesource.FromBytes([]byte("the quick brown fox"))
	e := New(source)
	defer e.Close()

	e.Search(Request{Patterns: [][]byte{[]byte("brown")}})

	matches, progress := waitForDone(t, e)
	if len(matches) != 1 {
		t.Fatalf("expected one match, got %+v", matches)
	}
	if matches[0].Window.Start != 10 || matches[0].Window.End != 15 {
		t.Fatalf("expected window [10,15), got %v", matches[0].Window)
	}
	if progress != 1.0 {
		t.Fatalf("expected progress 1.0 on completion, got %f", progress)
	}
}

func TestEngineCaseInsensitiveMatch(t *testing.T) {
	source := bytesource.FromBytes([]byte("MZ header"))
	e := New(source)
	defer e.Close()

	e.Search(Request{Patterns: [][]byte{[]byte("mz")}, CaseInsensitive: true})

	matches, _ := waitForDone(t, e)
	if len(matches) != 1 {
		t.Fatalf("expected a case-insensitive hit, got %+v", matches)
	}
}

func TestEngineNoMatchesStillCompletes(t *testing.T) {
	source := bytesource.FromBytes([]byte("nothing interesting here"))
	e := New(source)
	defer e.Close()

	e.Search(Request{Patterns: [][]byte{[]byte("zzz")}})

	matches, progress := waitForDone(t, e)
	if len(matches) != 0 {
		t.Fatalf("expected no matches, got %+v", matches)
	}
	if progress != 1.0 {
		t.Fatalf("expected progress 1.0, got %f", progress)
	}
}

func TestEngineMatchStraddlingChunkBoundary(t *testing.T) {
	// Build a buffer where the pattern ABABA straddles what would be a
	// chunk boundary if chunkSize were tiny; since chunkSize here is the
	// real 4 MiB constant, this exercises the single-chunk path, while
	// the TestScanChunk* tests below exercise the boundary arithmetic directly.
	data := make([]byte, 32)
	copy(data[14:], []byte("ABABA"))
	source := bytesource.FromBytes(data)
	e := New(source)
	defer e.Close()

	e.Search(Request{Patterns: [][]byte{[]byte("ABABA")}})

	matches, _ := waitForDone(t, e)
	if len(matches) != 1 {
		t.Fatalf("expected exactly one hit for ABABA, got %+v", matches)
	}
	if matches[0].Window.Start != 14 {
		t.Fatalf("expected hit at offset 14, got %v", matches[0].Window)
	}
}

func TestEngineNewRequestSupersedesInFlight(t *testing.T) {
	source := bytesource.FromBytes([]byte("alpha beta gamma"))
	e := New(source)
	defer e.Close()

	e.Search(Request{Patterns: [][]byte{[]byte("alpha")}})
	e.Search(Request{Patterns: [][]byte{[]byte("gamma")}})

	matches, _ := waitForDone(t, e)
	for _, m := range matches {
		if m.Pattern != 0 {
			t.Fatalf("expected all hits to reference the superseding request's single pattern, got %+v", m)
		}
	}
	if len(matches) != 1 {
		t.Fatalf("expected exactly one hit for the final request, got %+v", matches)
	}
}

func TestScanChunkDropsOverlapOnlyDuplicates(t *testing.T) {
	at, err := buildAutomaton([][]byte{[]byte("abc")}, false)
	if err != nil {
		t.Fatalf("buildAutomaton: %v", err)
	}
	// "abc" sits entirely inside the first 3 bytes, which are all overlap
	// carried over from a previous chunk: it must not be re-reported.
	buf := []byte("abcdef")
	hits := scanChunk(at, buf, 10, 3)
	if len(hits) != 0 {
		t.Fatalf("expected the overlap-only match to be dropped, got %+v", hits)
	}
}

func TestScanChunkKeepsStraddlingMatch(t *testing.T) {
	at, err := buildAutomaton([][]byte{[]byte("abc")}, false)
	if err != nil {
		t.Fatalf("buildAutomaton: %v", err)
	}
	// "abc" starts at buffer index 1, inside the 3-byte overlap, but ends
	// at index 4, past the overlap boundary: it straddled the chunk split
	// and was never visible in full to the previous chunk's scan.
	buf := []byte("xabcdef")
	hits := scanChunk(at, buf, 10, 3)
	if len(hits) != 1 {
		t.Fatalf("expected the straddling match to be kept, got %+v", hits)
	}
}
