package bits

// Pack writes the low width bits of each source word to dst and returns the
// number of bytes written. The last byte is zero padded when the packed
// stream does not end on a byte boundary.
//
// width must be in the range [1,56]; words larger than width bits must not be
// passed, their upper bits would corrupt neighboring words.
func Pack(dst []byte, words []uint64, width uint) int {
	acc := uint64(0)
	nbits := uint(0)
	n := 0

	for _, w := range words {
		acc |= w << nbits
		nbits += width
		for nbits >= 8 {
			dst[n] = byte(acc)
			n++
			acc >>= 8
			nbits -= 8
		}
	}
	if nbits > 0 {
		dst[n] = byte(acc)
		n++
	}
	return n
}

// Unpack reads len(words) consecutive width-bit words from src.
//
// width must be in the range [1,56]. Reading beyond the end of src yields
// zero bits, matching the padding written by Pack.
func Unpack(words []uint64, src []byte, width uint) {
	acc := uint64(0)
	nbits := uint(0)
	mask := (uint64(1) << width) - 1
	i := 0

	for n := range words {
		for nbits < width {
			b := uint64(0)
			if i < len(src) {
				b = uint64(src[i])
				i++
			}
			acc |= b << nbits
			nbits += 8
		}
		words[n] = acc & mask
		acc >>= width
		nbits -= width
	}
}
