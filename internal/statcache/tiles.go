package statcache

import "github.com/standardbeagle/hexbait/internal/types"

// tileSize describes one entry in the fixed, compile-time progression of
// aligned cache tile sizes. Sizes grow geometrically so that a small number of
// large tiles cover most of a huge file, while the smallest tier stays fine-
// grained enough to serve unaligned-window requests cheaply. The per-tile
// capacity shrinks as the tile size grows: we can afford many cached 8 KiB
// tiles but only ever need one cached 2 EiB tile (a single top-level tile
// already spans any file this program can address).
type tileSize struct {
	size     types.Len
	capacity int
}

const tileGrowthShift = 6 // geometric factor of 2^6 = 64 between tiers.

var tileSizes = buildTileSizes()

func buildTileSizes() []tileSize {
	const smallest = 8 * 1024
	capacities := []int{256, 256, 256, 256, 128, 64, 32, 16, 1}

	sizes := make([]tileSize, 0, len(capacities))
	size := uint64(smallest)
	for _, cap := range capacities {
		sizes = append(sizes, tileSize{size: types.Len(size), capacity: cap})
		// Stop before the next shift would overflow uint64.
		if size > (1<<63)>>tileGrowthShift {
			break
		}
		size <<= tileGrowthShift
	}
	return sizes
}

// smallestTileSize is S0: the finest aligned granularity, and the size
// unaligned window requests are expanded/clipped against.
func smallestTileSize() types.Len {
	return tileSizes[0].size
}

// nextTileSize returns the next larger tile size above s, if any.
func nextTileSize(s types.Len) (types.Len, bool) {
	for i, t := range tileSizes {
		if t.size == s {
			if i+1 < len(tileSizes) {
				return tileSizes[i+1].size, true
			}
			return 0, false
		}
	}
	return 0, false
}

func capacityForTileSize(s types.Len) int {
	for _, t := range tileSizes {
		if t.size == s {
			return t.capacity
		}
	}
	return 1
}

// smallestEntropyWindow is the finest granularity the entropy cache keys
// its per-tile entries at.
const smallestEntropyWindow types.Len = 1024

const unalignedCacheCapacity = 64
const fullEntropyCacheCapacity = 64
