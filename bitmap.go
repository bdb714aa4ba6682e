package strata

import "math/bits"

// Validity bitmaps are LSB-first: row i maps to bit (i % 8) of byte (i / 8),
// matching the memory layout of the columnar representations this package
// exchanges data with. A nil bitmap means every row is valid.

func newBitmap(n int) []byte {
	return make([]byte, (n+7)/8)
}

func getBit(b []byte, i int) bool {
	return b[i>>3]&(1<<(i&7)) != 0
}

func setBit(b []byte, i int) {
	b[i>>3] |= 1 << (i & 7)
}

// countSet returns the number of set bits among the first n bits of b.
func countSet(b []byte, n int) int {
	c := 0
	for i := 0; i < n/8; i++ {
		c += bits.OnesCount8(b[i])
	}
	if n%8 != 0 {
		c += bits.OnesCount8(b[n/8] & (1<<(n%8) - 1))
	}
	return c
}

func allSet(b []byte, n int) bool {
	return countSet(b, n) == n
}

// sliceBits copies n bits of b starting at bit lo into a fresh bitmap.
// Slicing a nil bitmap yields nil.
func sliceBits(b []byte, lo, n int) []byte {
	if b == nil {
		return nil
	}
	out := newBitmap(n)
	for i := 0; i < n; i++ {
		if getBit(b, lo+i) {
			setBit(out, i)
		}
	}
	return out
}

// appendBits appends n bits of src to dst, which holds dstLen bits, and
// returns the grown bitmap. A nil src appends n set bits.
func appendBits(dst []byte, dstLen int, src []byte, n int) []byte {
	need := (dstLen + n + 7) / 8
	for len(dst) < need {
		dst = append(dst, 0)
	}
	for i := 0; i < n; i++ {
		if src == nil || getBit(src, i) {
			setBit(dst, dstLen+i)
		}
	}
	return dst
}
