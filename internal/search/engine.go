package search

import (
	"errors"
	"io"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/hexbait/internal/bytesource"
	"github.com/standardbeagle/hexbait/internal/types"
)

// chunkSize is the fixed amount of the source read per streaming pass.
const chunkSize = 4 * 1024 * 1024

// Engine is the search worker thread: it owns the ResultSet it writes to and
// reads the byte source independently of the statistics worker, serving at most
// one live request at a time.
type Engine struct {
	source  bytesource.Source
	results *ResultSet

	mu      sync.Mutex
	cond    *sync.Cond
	pending *Request
	closed  bool
	wg      sync.WaitGroup
}

// New starts a search Engine over source.
func New(source bytesource.Source) *Engine {
	e := &Engine{
		source:  source,
		results: &ResultSet{},
	}
	e.cond = sync.NewCond(&e.mu)
	e.wg.Add(1)
	go e.run()
	return e
}

// Results returns the engine's shared result set. Safe to read concurrently
// from the foreground at any time; the foreground must never block on it.
func (e *Engine) Results() *ResultSet {
	return e.results
}

// Search submits req, superseding any in-flight search.
func (e *Engine) Search(req Request) {
	e.mu.Lock()
	r := req
	e.pending = &r
	e.cond.Signal()
	e.mu.Unlock()
}

// Close stops the worker. The Engine must not be used afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.cond.Broadcast()
	e.mu.Unlock()
	e.wg.Wait()
}

func (e *Engine) run() {
	defer e.wg.Done()
	for {
		e.mu.Lock()
		for e.pending == nil && !e.closed {
			e.cond.Wait() // blocking-recv when idle
		}
		if e.closed && e.pending == nil {
			e.mu.Unlock()
			return
		}
		req := *e.pending
		e.pending = nil
		e.mu.Unlock()

		e.runSearch(req)
	}
}

// superseded is checked between chunks: a newer request (or a Close) aborts
// the current streaming pass without finishing its result set, since the
// next iteration of run will start over anyway.
func (e *Engine) superseded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending != nil || e.closed
}

// runSearch streams the source through the automaton for req, chunk by
// chunk, until either the source is exhausted or a newer request arrives.
func (e *Engine) runSearch(req Request) {
	e.results.reset()

	if len(req.Patterns) == 0 {
		e.results.finish()
		return
	}

	at, err := buildAutomaton(req.Patterns, req.CaseInsensitive)
	if err != nil {
		log.Printf("search: building automaton: %v", err)
		e.results.finish()
		return
	}

	length, lenOK := e.source.Length()
	overlap := at.overlap()

	first := make([]byte, chunkSize)
	n, err := e.source.ReadAt(0, first)
	if err != nil && !errors.Is(err, io.EOF) {
		log.Printf("search: reading first chunk: %v", err)
		e.results.finish()
		return
	}

	cur := first[:n]
	curFreshStart := types.AbsoluteOffset(0)
	curOverlapLen := 0

	for len(cur) > 0 {
		if e.superseded() {
			return
		}

		curFreshEnd := curFreshStart.Add(types.Len(len(cur) - curOverlapLen))

		var (
			hits            []Match
			nextBuf         []byte
			nextOverlapUsed int
			nextFreshRead   int
			nextErr         error
		)

		var g errgroup.Group
		g.Go(func() error {
			hits = scanChunk(at, cur, curFreshStart, curOverlapLen)
			return nil
		})
		g.Go(func() error {
			nextBuf, nextOverlapUsed, nextFreshRead, nextErr = readNextChunk(e.source, cur, curFreshEnd, overlap)
			return nil
		})
		_ = g.Wait()

		if nextErr != nil {
			log.Printf("search: reading chunk at %d: %v", curFreshEnd, nextErr)
			e.results.add(hits)
			e.results.finish()
			return
		}

		e.results.add(hits)
		if lenOK && length > 0 {
			frac := float64(curFreshEnd) / float64(length)
			if frac > 1 {
				frac = 1
			}
			e.results.setProgress(frac)
		}

		if nextFreshRead == 0 {
			break
		}

		cur = nextBuf
		curFreshStart = types.AbsoluteOffset(uint64(curFreshEnd) - uint64(nextOverlapUsed))
		curOverlapLen = nextOverlapUsed
	}

	e.results.finish()
}

// readNextChunk copies the overlap tail of prev to the front of a fresh
// buffer and reads the following chunkSize bytes after it.
func readNextChunk(source bytesource.Source, prev []byte, freshStart types.AbsoluteOffset, overlap int) (buf []byte, overlapUsed, freshRead int, err error) {
	overlapUsed = overlap
	if overlapUsed > len(prev) {
		overlapUsed = len(prev)
	}
	buf = make([]byte, overlapUsed+chunkSize)
	copy(buf[:overlapUsed], prev[len(prev)-overlapUsed:])

	n, err := source.ReadAt(freshStart, buf[overlapUsed:overlapUsed+chunkSize])
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, 0, 0, err
	}
	return buf[:overlapUsed+n], overlapUsed, n, nil
}

// scanChunk runs the automaton over buf and translates buffer-relative hits
// into absolute windows, dropping any hit fully contained in the overlap
// region (it was already reported as the tail of the previous chunk).
func scanChunk(at *automaton, buf []byte, freshStart types.AbsoluteOffset, overlapLen int) []Match {
	raw := at.scan(buf)
	baseOffset := int64(freshStart) - int64(overlapLen)

	out := make([]Match, 0, len(raw))
	for _, m := range raw {
		if overlapLen > 0 && m.End <= overlapLen {
			continue
		}
		start := types.AbsoluteOffset(baseOffset + int64(m.Start))
		end := types.AbsoluteOffset(baseOffset + int64(m.End))
		out = append(out, Match{Window: types.NewWindow(start, end), Pattern: m.Pattern})
	}
	return out
}
