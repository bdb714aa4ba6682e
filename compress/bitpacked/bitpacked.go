// Package bitpacked implements a bit packing codec for blocks of small-range
// integers and level streams.
//
// The input is interpreted as a sequence of little-endian words; the encoder
// picks the word size which minimizes the packed output:
//
//	word_size:u8 | bit_width:u8 | count:u32 | packed words
package bitpacked

import (
	"encoding/binary"
	"fmt"

	"github.com/columnstore/strata/compress"
	"github.com/columnstore/strata/internal/bits"
)

const headerSize = 6

// Words wider than 56 bits cannot be bit packed by the accumulator in
// internal/bits; such word sizes are not candidates.
const maxWidth = 56

type Codec struct {
}

func (c *Codec) String() string {
	return "BIT_PACKED"
}

func (c *Codec) CodecID() compress.CodecID {
	return compress.BitPacked
}

func (c *Codec) Encode(dst, src []byte) ([]byte, error) {
	wordSize, width := pickWordSize(src)
	count := len(src) / wordSize

	size := headerSize + bits.ByteCount(uint(count)*uint(width))
	if cap(dst) < size {
		dst = make([]byte, size)
	} else {
		dst = dst[:size]
	}
	dst[0] = byte(wordSize)
	dst[1] = byte(width)
	binary.LittleEndian.PutUint32(dst[2:], uint32(count))

	if width > 0 {
		words := make([]uint64, count)
		for i := range words {
			words[i] = loadWord(src[i*wordSize:], wordSize)
		}
		bits.Pack(dst[headerSize:], words, uint(width))
	}
	return dst, nil
}

func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	if len(src) < headerSize {
		return dst, fmt.Errorf("bitpacked: block header is %d bytes, need %d", len(src), headerSize)
	}
	wordSize := int(src[0])
	width := int(src[1])
	count := int(binary.LittleEndian.Uint32(src[2:]))
	packed := src[headerSize:]

	switch wordSize {
	case 1, 2, 4, 8:
	default:
		return dst, fmt.Errorf("bitpacked: invalid word size %d", wordSize)
	}
	if width < 0 || width > wordSize*8 || width > maxWidth {
		return dst, fmt.Errorf("bitpacked: invalid bit width %d for word size %d", width, wordSize)
	}
	if count*wordSize != len(dst) {
		return dst, fmt.Errorf("bitpacked: block contains %d words of %d bytes but %d bytes were declared", count, wordSize, len(dst))
	}
	if n := bits.ByteCount(uint(count) * uint(width)); len(packed) != n {
		return dst, fmt.Errorf("bitpacked: packed stream is %d bytes, expected %d", len(packed), n)
	}

	if width == 0 {
		for i := range dst {
			dst[i] = 0
		}
		return dst, nil
	}

	words := make([]uint64, count)
	bits.Unpack(words, packed, uint(width))
	for i, w := range words {
		storeWord(dst[i*wordSize:], wordSize, w)
	}
	return dst, nil
}

// pickWordSize returns the word size and bit width minimizing the packed
// size of src. Word size 1 is always a valid fallback.
func pickWordSize(src []byte) (wordSize, width int) {
	wordSize, width = 1, maxLenBytes(src)
	best := bits.ByteCount(uint(len(src)) * uint(width))

	for _, ws := range [3]int{2, 4, 8} {
		if len(src)%ws != 0 {
			continue
		}
		w := 0
		for i := 0; i < len(src); i += ws {
			if n := wordLen(loadWord(src[i:], ws)); n > w {
				w = n
			}
		}
		if w > maxWidth {
			continue
		}
		if size := bits.ByteCount(uint(len(src)/ws) * uint(w)); size < best {
			best, wordSize, width = size, ws, w
		}
	}
	return wordSize, width
}

func maxLenBytes(src []byte) int {
	max := byte(0)
	for _, b := range src {
		if b > max {
			max = b
		}
	}
	return wordLen(uint64(max))
}

func wordLen(w uint64) int {
	n := 0
	for ; w != 0; w >>= 1 {
		n++
	}
	return n
}

func loadWord(b []byte, wordSize int) uint64 {
	switch wordSize {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	default:
		return binary.LittleEndian.Uint64(b)
	}
}

func storeWord(b []byte, wordSize int, w uint64) {
	switch wordSize {
	case 1:
		b[0] = byte(w)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(w))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(w))
	default:
		binary.LittleEndian.PutUint64(b, w)
	}
}
