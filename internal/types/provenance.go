package types

import "sort"

// Provenance is an ordered, disjoint set of byte Windows recording which
// source bytes produced a parsed Value. Between any two consecutive ranges
// r_i, r_i+1: r_i.End < r_i+1.Start — they never touch, since touching
// ranges are always coalesced.
type Provenance struct {
	ranges []Window
}

// EmptyProvenance returns a Provenance covering no bytes.
func EmptyProvenance() Provenance {
	return Provenance{}
}

// ProvenanceFromWindow returns a Provenance covering exactly w.
func ProvenanceFromWindow(w Window) Provenance {
	if w.Empty() {
		return Provenance{}
	}
	return Provenance{ranges: []Window{w}}
}

// Ranges returns the disjoint, ascending-ordered windows making up p. The
// caller must not mutate the returned slice.
func (p Provenance) Ranges() []Window {
	return p.ranges
}

// Empty reports whether p covers no bytes at all.
func (p Provenance) Empty() bool {
	return len(p.ranges) == 0
}

// Union merges p and other, coalescing overlapping or adjacent ranges, and
// returns the result. Neither operand is mutated.
func (p Provenance) Union(other Provenance) Provenance {
	if len(other.ranges) == 0 {
		return p
	}
	if len(p.ranges) == 0 {
		return other
	}

	merged := make([]Window, 0, len(p.ranges)+len(other.ranges))
	merged = append(merged, p.ranges...)
	merged = append(merged, other.ranges...)
	sort.Slice(merged, func(i, j int) bool { return merged[i].Start < merged[j].Start })

	out := make([]Window, 0, len(merged))
	cur := merged[0]
	for _, w := range merged[1:] {
		if w.Start <= cur.End {
			if w.End > cur.End {
				cur.End = w.End
			}
			continue
		}
		out = append(out, cur)
		cur = w
	}
	out = append(out, cur)
	return Provenance{ranges: out}
}

// Plus is a convenience alias for Union, mirroring the "+" notation
// commonly used for composing provenance ranges.
func (p Provenance) Plus(other Provenance) Provenance {
	return p.Union(other)
}

// TotalSize returns the sum of the sizes of every disjoint range in p.
func (p Provenance) TotalSize() Len {
	var total Len
	for _, r := range p.ranges {
		total += r.Size()
	}
	return total
}
