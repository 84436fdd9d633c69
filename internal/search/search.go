// Package search implements the search engine: a background worker that streams
// a byte source through an Aho-Corasick automaton in fixed-size overlapping
// chunks, publishing a sorted set of hit windows and a progress fraction the
// foreground can poll without blocking.
package search

import (
	"sort"
	"sync"

	"github.com/standardbeagle/hexbait/internal/types"
)

// Request is a foreground-issued SearchRequest: the patterns to look for and
// whether matching should ignore ASCII case.
type Request struct {
	Patterns        [][]byte
	CaseInsensitive bool
}

// Match is a single hit: the byte window it occupies and the index into the
// request's Patterns slice that produced it.
type Match struct {
	Window  types.Window
	Pattern int
}

// ResultSet is the shared, sorted collection of hits a search has produced
// so far, plus its progress. The search worker is the sole writer; any
// number of foreground readers may call Snapshot concurrently.
type ResultSet struct {
	mu       sync.Mutex
	matches  []Match
	progress float64
	done     bool
}

// Snapshot returns a defensive copy of the current hits, current progress in
// [0,1], and whether the search that produced them has finished.
func (r *ResultSet) Snapshot() (matches []Match, progress float64, done bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Match, len(r.matches))
	copy(out, r.matches)
	return out, r.progress, r.done
}

func (r *ResultSet) reset() {
	r.mu.Lock()
	r.matches = nil
	r.progress = 0
	r.done = false
	r.mu.Unlock()
}

func (r *ResultSet) setProgress(p float64) {
	r.mu.Lock()
	r.progress = p
	r.mu.Unlock()
}

func (r *ResultSet) finish() {
	r.mu.Lock()
	r.progress = 1.0
	r.done = true
	r.mu.Unlock()
}

// add inserts hits into the sorted set, maintaining order by Window.Start.
// Chunk processing always appends in increasing offset order, so this is a
// tail append rather than a general sorted insert; sort.SliceStable guards
// against the unexpected (a malformed automaton reporting matches out of
// order) rather than doing real work on the hot path.
func (r *ResultSet) add(hits []Match) {
	if len(hits) == 0 {
		return
	}
	r.mu.Lock()
	r.matches = append(r.matches, hits...)
	sort.SliceStable(r.matches, func(i, j int) bool {
		return r.matches[i].Window.Start < r.matches[j].Window.Start
	})
	r.mu.Unlock()
}
