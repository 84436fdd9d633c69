package statcache

import (
	"container/heap"
	"log"
	"sync"

	"github.com/standardbeagle/hexbait/internal/bytesource"
	"github.com/standardbeagle/hexbait/internal/statistics"
	"github.com/standardbeagle/hexbait/internal/types"

	"golang.org/x/sync/singleflight"
)

// requestKind distinguishes the priority class a pending request belongs
// to: the worker keeps a priority queue of pending requests, ordered by
// kind, then by size/position heuristics.
type requestKind int

const (
	kindBigramTile requestKind = iota
	kindBigramUnaligned
	kindEntropyFull
)

type request struct {
	kind   requestKind
	window types.Window
}

func (r request) key() string {
	// Used both as the priority-queue dedup key and the singleflight key:
	// two requests for the same kind+window are the same unit of work.
	return string(rune(r.kind)) + r.window.String()
}

// requestQueue is a priority queue ordered: bigram tile requests prefer larger
// windows first (so overlapping smaller sub-requests can later be served from
// the cache once the larger tile lands), unaligned bigram requests come next,
// and entropy requests are served last but in FIFO order since "near the
// current view" in this headless engine reduces to arrival order.
type requestQueue struct {
	items []request
	seq   []int // insertion order, parallel to items, for stable FIFO within a kind
	next  int
}

func (q *requestQueue) Len() int { return len(q.items) }

func (q *requestQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.kind != b.kind {
		return a.kind < b.kind
	}
	if a.kind == kindBigramTile || a.kind == kindBigramUnaligned {
		if a.window.Size() != b.window.Size() {
			return a.window.Size() > b.window.Size() // larger first
		}
	}
	return q.seq[i] < q.seq[j] // FIFO tiebreak
}

func (q *requestQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.seq[i], q.seq[j] = q.seq[j], q.seq[i]
}

func (q *requestQueue) Push(x any) {
	q.items = append(q.items, x.(request))
	q.seq = append(q.seq, q.next)
	q.next++
}

func (q *requestQueue) Pop() any {
	n := len(q.items)
	item := q.items[n-1]
	q.items = q.items[:n-1]
	q.seq = q.seq[:n-1]
	return item
}

// worker is the single background thread that owns all writes to the
// statistics caches, keeping the concurrency model simple: foreground
// readers never block on cache mutation.
type worker struct {
	source bytesource.Source
	h      *Handler

	mu      sync.Mutex
	cond    *sync.Cond
	queue   requestQueue
	pending map[string]bool
	closed  bool

	inFlight singleflight.Group

	// sawIncompleteThisFrame records whether any request arrived since the
	// last endOfFrame. endOfFrame reads and resets it; request never
	// refuses new work because of it.
	sawIncompleteThisFrame bool

	wg sync.WaitGroup
}

func newWorker(source bytesource.Source, h *Handler) *worker {
	w := &worker{
		source:  source,
		h:       h,
		pending: make(map[string]bool),
	}
	w.cond = sync.NewCond(&w.mu)
	w.wg.Add(1)
	go w.run()
	return w
}

func (w *worker) request(r request) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.sawIncompleteThisFrame = true
	key := r.key()
	if w.pending[key] {
		return
	}
	w.pending[key] = true
	heap.Push(&w.queue, r)
	w.cond.Signal()
}

// endOfFrame applies the per-frame cancellation policy: a changed view drops
// every pending request. An unchanged view leaves the queue as it is, and
// requests made afterwards are still accepted; nothing is suppressed.
func (w *worker) endOfFrame(changed bool) {
	w.mu.Lock()
	if changed {
		w.clearLocked()
		w.sawIncompleteThisFrame = false
		w.mu.Unlock()
		return
	}
	incomplete := w.sawIncompleteThisFrame
	drained := w.queue.Len() == 0
	w.sawIncompleteThisFrame = false
	w.mu.Unlock()

	if incomplete && !drained {
		// Let the worker keep draining; nothing to do.
		return
	}
	// Unchanged and either nothing was incomplete, or the queue already
	// drained: the queue is left as it is and request keeps accepting work.
}

func (w *worker) clearLocked() {
	w.queue = requestQueue{}
	w.pending = make(map[string]bool)
}

func (w *worker) stop() {
	w.mu.Lock()
	w.closed = true
	w.cond.Broadcast()
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *worker) run() {
	defer w.wg.Done()
	for {
		w.mu.Lock()
		for w.queue.Len() == 0 && !w.closed {
			w.cond.Wait()
		}
		if w.closed && w.queue.Len() == 0 {
			w.mu.Unlock()
			return
		}
		r := heap.Pop(&w.queue).(request)
		delete(w.pending, r.key())
		w.mu.Unlock()

		w.process(r)
	}
}

func (w *worker) process(r request) {
	key := r.key()
	_, _, _ = w.inFlight.Do(key, func() (any, error) {
		switch r.kind {
		case kindBigramTile:
			w.computeTile(r.window)
		case kindBigramUnaligned:
			w.computeUnaligned(r.window)
		case kindEntropyFull:
			w.computeEntropy(r.window)
		}
		return nil, nil
	})
}

// computeTile computes a single aligned tile. A tile larger than 64 MiB
// whose next-smaller sub-tiles are all cached is assembled from them;
// every other tile is read from the source fresh.
func (w *worker) computeTile(tile types.Window) {
	size := tile.Size()
	cache := w.h.tileCache(size)
	if cache == nil {
		return
	}
	if _, ok := cache.Get(tile.Start); ok {
		return
	}

	if smaller, ok := smallerTileSize(size); ok && size > 64*1024*1024 {
		if stats, ok := w.assembleFromCache(tile, smaller); ok {
			cache.Set(tile.Start, stats)
			return
		}
	}

	stats, err := statistics.Compute(w.source, tile)
	if err != nil {
		log.Printf("statcache: computing tile %v: %v", tile, err)
		return
	}
	cache.Set(tile.Start, stats)
}

// assembleFromCache reports whether every size-sized sub-tile of w is
// already cached, returning their sum if so.
func (w *worker) assembleFromCache(win types.Window, size types.Len) (statistics.Statistics, bool) {
	cache := w.h.tileCache(size)
	if cache == nil {
		return statistics.Statistics{}, false
	}
	acc := statistics.EmptyForWindow(win)
	for _, sub := range win.SubwindowsOfSize(size) {
		cached, ok := cache.Get(sub.Start)
		if !ok {
			return statistics.Statistics{}, false
		}
		acc = mustAdd(acc, cached)
	}
	return acc, true
}

func (w *worker) computeUnaligned(win types.Window) {
	stats, err := statistics.Compute(w.source, win)
	if err != nil {
		log.Printf("statcache: computing unaligned window %v: %v", win, err)
		return
	}
	w.h.unaligned.Set(win, stats)
}

func (w *worker) computeEntropy(win types.Window) {
	stats, err := statistics.Compute(w.source, win)
	if err != nil {
		log.Printf("statcache: computing entropy window %v: %v", win, err)
		return
	}
	entropy := stats.ToFlat().Entropy()
	w.h.windowEntropy.Set(win, entropy)

	if win.Size() == smallestEntropyWindow {
		w.h.tileEntropy.Set(win.Start, entropy)
	}
}
