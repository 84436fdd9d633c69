package statistics

import (
	"fmt"

	"github.com/standardbeagle/hexbait/internal/bytesource"
	"github.com/standardbeagle/hexbait/internal/types"
)

const readChunkSize = 4096

// Statistics holds the computed bigram-frequency table for a window of
// data. It is immutable once computed: once inserted into a cache it is shared
// freely between the statistics worker and readers.
type Statistics struct {
	tier      Tier
	follow    bigrams
	window    types.Window
	firstByte *byte // nil if the window's first byte is not preceded by anything known.
}

// EmptyForWindow allocates a zero-sized Statistics anchored at window.Start,
// of a tier sized for window's eventual capacity. Used as a placeholder for
// not-yet-computed holes in an assembly.
func EmptyForWindow(window types.Window) Statistics {
	tier := TierForCapacity(uint64(window.Size()))
	return Statistics{
		tier:   tier,
		follow: newBigrams(tier),
		window: types.Window{Start: window.Start, End: window.Start},
	}
}

// Window returns the window these statistics describe.
func (s Statistics) Window() types.Window { return s.window }

// Tier returns the bigram-matrix representation backing s.
func (s Statistics) Tier() Tier { return s.tier }

// FirstByte reports the window's first byte and whether it is known (i.e.
// whether the window starts at an offset whose preceding byte does not
// exist, such as offset 0, or has not yet been folded in).
func (s Statistics) FirstByte() (b byte, ok bool) {
	if s.firstByte == nil {
		return 0, false
	}
	return *s.firstByte, true
}

// Follow returns the count of positions at which second immediately
// follows first within the window.
func (s Statistics) Follow(first, second byte) uint64 {
	return s.follow.get(first, second)
}

// Compute reads window from source and returns the bigram statistics for
// it, following the three-step algorithm.
func Compute(source bytesource.Source, window types.Window) (Statistics, error) {
	tier := TierForCapacity(uint64(window.Size()))
	follow := newBigrams(tier)

	var prev byte
	var firstByte *byte
	havePrev := false

	if window.Start > 0 {
		var one [1]byte
		n, err := source.ReadAt(window.Start-1, one[:])
		if err != nil {
			return Statistics{}, fmt.Errorf("statistics: reading byte before window: %w", err)
		}
		if n == 1 {
			prev = one[0]
			havePrev = true
		}
	}

	buf := make([]byte, readChunkSize)
	offset := window.Start
	for offset < window.End {
		want := window.End - offset
		chunkLen := len(buf)
		if uint64(want) < uint64(chunkLen) {
			chunkLen = int(want)
		}
		n, err := source.ReadAt(offset, buf[:chunkLen])
		if err != nil {
			// I/O errors abort this tile's computation; the caller treats
			// the result as a hole.
			return Statistics{}, fmt.Errorf("statistics: reading chunk at %d: %w", offset, err)
		}
		if n == 0 {
			break
		}
		for i := 0; i < n; i++ {
			b := buf[i]
			if havePrev {
				follow.add(prev, b, 1)
			} else {
				// First byte of the whole parse with no byte before it:
				// record it so callers can fold it back in on the
				// boundary between adjacent windows.
				fb := b
				firstByte = &fb
				havePrev = true
			}
			prev = b
		}
		offset = offset.Add(types.Len(n))
	}

	return Statistics{
		tier:      tier,
		follow:    follow,
		window:    types.Window{Start: window.Start, End: offset},
		firstByte: firstByte,
	}, nil
}

// Add returns the sum of two statistics over adjacent windows (lhs ending
// where rhs begins), combined cell-by-cell into a result of lhs's tier.
// The caller is responsible for choosing lhs's tier a priori from the
// joined capacity. first_byte composition keeps only the global
// (start-of-file) first byte; rhs.firstByte is only meaningful
// when rhs's window truly starts at the combined window's first position, which
// happens exactly when lhs is empty.
func Add(lhs, rhs Statistics) (Statistics, error) {
	joined, ok := types.Joined(lhs.window, rhs.window)
	if !ok {
		return Statistics{}, fmt.Errorf("statistics: operands are not adjacent: lhs=%v rhs=%v", lhs.window, rhs.window)
	}

	rhs.follow.forEachNonZero(func(first, second byte, count uint64) {
		lhs.follow.add(first, second, int64(count))
	})

	firstByte := lhs.firstByte
	if lhs.window.Empty() {
		firstByte = rhs.firstByte
	}

	return Statistics{
		tier:      lhs.tier,
		follow:    lhs.follow,
		window:    joined,
		firstByte: firstByte,
	}, nil
}

// Clone returns a deep copy of s, suitable as the accumulator for Add when
// the caller must not mutate a cached, shared Statistics in place.
func (s Statistics) Clone() Statistics {
	clone := newBigrams(s.tier)
	s.follow.forEachNonZero(func(first, second byte, count uint64) {
		clone.add(first, second, int64(count))
	})
	fb := s.firstByte
	if fb != nil {
		v := *fb
		fb = &v
	}
	return Statistics{tier: s.tier, follow: clone, window: s.window, firstByte: fb}
}

// ToFlat collapses the bigram table into a 256-entry byte-frequency
// vector, per the FlatStatistics entity.
func (s Statistics) ToFlat() FlatStatistics {
	var counts [256]uint64
	s.follow.forEachNonZero(func(_, second byte, count uint64) {
		counts[second] += count
	})
	if fb, ok := s.FirstByte(); ok {
		counts[fb]++
	}
	return FlatStatistics{Window: s.window, Counts: counts}
}
