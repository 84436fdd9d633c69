// Package statcache implements the StatisticsHandler: a request/response cache
// over bigram tables keyed by aligned power-of-two windows, an unaligned-window
// cache, and entropy caches, assembling results for arbitrary windows by
// joining cached tiles.
package statcache

import (
	"sync"

	"github.com/standardbeagle/hexbait/internal/bytesource"
	"github.com/standardbeagle/hexbait/internal/statistics"
	"github.com/standardbeagle/hexbait/internal/types"
)

// Handler answers bigram-statistics and entropy requests for arbitrary
// windows with bounded latency, reusing cached tiles across zoom changes.
// The foreground (UI) thread only ever reads from its caches; on a miss it
// enqueues work for the background worker and returns a degraded-quality
// result immediately, per the concurrency model.
type Handler struct {
	source bytesource.Source

	tileCaches    []*lruCache[types.AbsoluteOffset, statistics.Statistics]
	unaligned     *lruCache[types.Window, statistics.Statistics]
	tileEntropy   *lruCache[types.AbsoluteOffset, float64]
	windowEntropy *lruCache[types.Window, float64]

	worker *worker

	mu sync.Mutex // serializes handler-level bookkeeping, not cache access
}

// New builds a Handler over source, starting its background worker.
func New(source bytesource.Source) *Handler {
	h := &Handler{
		source:        source,
		tileCaches:    make([]*lruCache[types.AbsoluteOffset, statistics.Statistics], len(tileSizes)),
		unaligned:     newLRUCache[types.Window, statistics.Statistics](unalignedCacheCapacity),
		tileEntropy:   newLRUCache[types.AbsoluteOffset, float64](unalignedCacheCapacity),
		windowEntropy: newLRUCache[types.Window, float64](fullEntropyCacheCapacity),
	}
	for i, t := range tileSizes {
		h.tileCaches[i] = newLRUCache[types.AbsoluteOffset, statistics.Statistics](t.capacity)
	}
	h.worker = newWorker(source, h)
	return h
}

// Close stops the background worker. The Handler must not be used
// afterwards.
func (h *Handler) Close() {
	h.worker.stop()
}

// EndOfFrame implements the ordering/cancellation protocol: call it once
// per interactive frame with whether the view changed.
func (h *Handler) EndOfFrame(changed bool) {
	h.worker.endOfFrame(changed)
}

func (h *Handler) tileCache(size types.Len) *lruCache[types.AbsoluteOffset, statistics.Statistics] {
	for i, t := range tileSizes {
		if t.size == size {
			return h.tileCaches[i]
		}
	}
	return nil
}

// Bigrams answers a bigram-statistics request for window w, per the
// assembly algorithm. It never blocks on I/O: any tile not already cached is
// queued for the background worker and contributes to a lowered Quality
// instead.
func (h *Handler) Bigrams(w types.Window) Result[statistics.Statistics] {
	acc := statistics.EmptyForWindow(w)
	total := w.Size()
	var covered types.Len
	complete := true

	before, aligned, after, ok := w.Align(smallestTileSize())
	if !ok {
		// The window contains no whole aligned smallest tile: treat it
		// as a single unaligned lookup.
		stats, cov, ok := h.unalignedLookup(w)
		acc = mustAdd(acc, stats)
		covered += cov
		complete = complete && ok
		return finishBigrams(acc, w, covered, total, complete)
	}

	if !before.Empty() {
		stats, cov, ok := h.unalignedLookup(before)
		acc = mustAdd(acc, stats)
		covered += cov
		complete = complete && ok
	}

	if !aligned.Empty() {
		stats, cov, ok := h.coverAligned(aligned, smallestTileSize())
		acc = mustAdd(acc, stats)
		covered += cov
		complete = complete && ok
	}

	if !after.Empty() {
		stats, cov, ok := h.unalignedLookup(after)
		acc = mustAdd(acc, stats)
		covered += cov
		complete = complete && ok
	}

	return finishBigrams(acc, w, covered, total, complete)
}

func finishBigrams(acc statistics.Statistics, w types.Window, covered, total types.Len, complete bool) Result[statistics.Statistics] {
	q := Exact
	frac := 1.0
	if !complete {
		q = Estimate
		if total > 0 {
			frac = float64(covered) / float64(total)
		} else {
			frac = 1.0
		}
	}
	return Result[statistics.Statistics]{Value: acc, Quality: q, Fraction: frac}
}

// mustAdd sums statistics covering adjacent windows. Both operands here are
// always constructed by this package to be mutually adjacent, so a failure
// indicates an internal bookkeeping bug rather than bad input.
func mustAdd(acc, next statistics.Statistics) statistics.Statistics {
	combined, err := statistics.Add(acc, next)
	if err != nil {
		panic("statcache: internal assembly produced non-adjacent windows: " + err.Error())
	}
	return combined
}

// unalignedLookup answers a request for an unaligned (non-tile-sized)
// window from the unaligned cache, queuing a compute request on a miss.
func (h *Handler) unalignedLookup(w types.Window) (stats statistics.Statistics, covered types.Len, complete bool) {
	if cached, ok := h.unaligned.Get(w); ok {
		return cached, w.Size(), true
	}
	h.worker.request(request{kind: kindBigramUnaligned, window: w})
	return statistics.EmptyForWindow(w), 0, false
}

// coverAligned covers an aligned window at tileSize with the largest tiles
// possible, step 3: recurse to the next tile size up, handling the margins with
// the current size.
func (h *Handler) coverAligned(w types.Window, tileSize types.Len) (statistics.Statistics, types.Len, bool) {
	acc := statistics.EmptyForWindow(w)
	var covered types.Len
	complete := true

	next, hasNext := nextTileSize(tileSize)
	if hasNext {
		before, mid, after, ok := w.Align(next)
		if ok && !mid.Empty() {
			if !before.Empty() {
				s, c, ok := h.coverTilesAt(before, tileSize)
				acc = mustAdd(acc, s)
				covered += c
				complete = complete && ok
			}
			s, c, ok := h.coverAligned(mid, next)
			acc = mustAdd(acc, s)
			covered += c
			complete = complete && ok
			if !after.Empty() {
				s, c, ok := h.coverTilesAt(after, tileSize)
				acc = mustAdd(acc, s)
				covered += c
				complete = complete && ok
			}
			return acc, covered, complete
		}
	}

	return h.coverTilesAt(w, tileSize)
}

// coverTilesAt covers w (already aligned to size) with cache lookups at
// exactly that tile size, searching downward through smaller sizes for
// partial coverage on a miss and enqueuing the missing target-size tile.
func (h *Handler) coverTilesAt(w types.Window, size types.Len) (statistics.Statistics, types.Len, bool) {
	acc := statistics.EmptyForWindow(w)
	var covered types.Len
	complete := true

	cache := h.tileCache(size)
	for _, tile := range w.SubwindowsOfSize(size) {
		if cached, ok := cache.Get(tile.Start); ok {
			acc = mustAdd(acc, cached)
			covered += size
			continue
		}

		// Miss: try to assemble from smaller cached sub-tiles, consuming
		// contiguously from the left until a gap. Anything this doesn't cover
		// degrades the result to Estimate.
		if smaller, hasSmaller := smallerTileSize(size); hasSmaller {
			s, c, ok := h.coverTilesAt(tile, smaller)
			acc = mustAdd(acc, s)
			covered += c
			if !ok {
				complete = false
			}
		} else {
			complete = false
		}

		h.worker.request(request{kind: kindBigramTile, window: tile})
	}

	return acc, covered, complete
}

func smallerTileSize(size types.Len) (types.Len, bool) {
	for i, t := range tileSizes {
		if t.size == size {
			if i == 0 {
				return 0, false
			}
			return tileSizes[i-1].size, true
		}
	}
	return 0, false
}

// Entropy answers an entropy request for window w. A cache hit on the exact
// window is Exact; otherwise the smallest-entropy-window tile containing
// w.Start is consulted for an Estimate, and both the exact window and (if
// distinct) that tile are enqueued for background computation.
func (h *Handler) Entropy(w types.Window) Result[float64] {
	if cached, ok := h.windowEntropy.Get(w); ok {
		return Result[float64]{Value: cached, Quality: Exact, Fraction: 1.0}
	}

	h.worker.request(request{kind: kindEntropyFull, window: w})

	tileStart := types.AbsoluteOffset((uint64(w.Start) / uint64(smallestEntropyWindow)) * uint64(smallestEntropyWindow))
	if cached, ok := h.tileEntropy.Get(tileStart); ok {
		size := w.Size()
		frac := float64(smallestEntropyWindow) / float64(size)
		if frac > 1 {
			frac = 1
		}
		return Result[float64]{Value: cached, Quality: Estimate, Fraction: frac}
	}

	tileEnd := tileStart + types.AbsoluteOffset(smallestEntropyWindow)
	if length, ok := h.source.Length(); ok && tileEnd > types.AbsoluteOffset(length) {
		tileEnd = types.AbsoluteOffset(length)
	}
	tile := types.Window{Start: tileStart, End: tileEnd}
	if tileEnd > tileStart && tile != w {
		h.worker.request(request{kind: kindEntropyFull, window: tile})
	}

	return Result[float64]{Value: 0, Quality: Unknown, Fraction: 0}
}
