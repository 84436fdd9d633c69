package statistics

import (
	"math"

	"github.com/standardbeagle/hexbait/internal/types"
)

// FlatStatistics is a 256-entry byte-frequency vector derived from a
// Statistics's bigram table, used to compute Shannon entropy.
type FlatStatistics struct {
	Window types.Window
	Counts [256]uint64
}

// Total returns the sum of all byte counts, which equals Window.Size() for
// a completely (non-partial) computed Statistics.
func (f FlatStatistics) Total() uint64 {
	var total uint64
	for _, c := range f.Counts {
		total += c
	}
	return total
}

// Entropy computes the Shannon entropy of the byte distribution, scaled to
// [0, 1] by dividing by 8 bits,: H = -(1/8) Σ p_i log2(p_i).
func (f FlatStatistics) Entropy() float64 {
	total := f.Total()
	if total == 0 {
		return 0
	}
	var h float64
	for _, c := range f.Counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(total)
		h -= p * math.Log2(p)
	}
	return h / 8.0
}
