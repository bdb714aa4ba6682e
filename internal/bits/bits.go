// Package bits implements the bit packing and unpacking primitives used to
// encode level streams and small-range integer blocks.
package bits

import "math/bits"

func BitCount(count int) uint {
	return 8 * uint(count)
}

func ByteCount(count uint) int {
	return int((count + 7) / 8)
}

// MaxLen returns the number of bits required to represent the largest word,
// or zero if all words are zero.
func MaxLen(words []uint64) int {
	max := 0
	for _, w := range words {
		if n := bits.Len64(w); n > max {
			max = n
		}
	}
	return max
}
