// Package dict implements a dictionary codec for blocks of low-cardinality
// integers.
//
// The input is interpreted as a sequence of little-endian words; distinct
// values are collected into a dictionary in order of first appearance and the
// block is rewritten as bit packed dictionary indices:
//
//	word_size:u8 | index_width:u8 | dict_count:u32 | count:u32 | dict words | packed indices
package dict

import (
	"encoding/binary"
	"fmt"

	"github.com/columnstore/strata/compress"
	"github.com/columnstore/strata/internal/bits"
)

const headerSize = 10

type Codec struct {
}

func (c *Codec) String() string {
	return "DICT"
}

func (c *Codec) CodecID() compress.CodecID {
	return compress.Dict
}

func (c *Codec) Encode(dst, src []byte) ([]byte, error) {
	wordSize, dict, indexes := buildDict(src)
	width := wordLen(uint64(len(dict)) - 1)
	if len(dict) == 0 {
		width = 0
	}

	size := headerSize + len(dict)*wordSize + bits.ByteCount(uint(len(indexes))*uint(width))
	if cap(dst) < size {
		dst = make([]byte, size)
	} else {
		dst = dst[:size]
	}
	dst[0] = byte(wordSize)
	dst[1] = byte(width)
	binary.LittleEndian.PutUint32(dst[2:], uint32(len(dict)))
	binary.LittleEndian.PutUint32(dst[6:], uint32(len(indexes)))

	words := dst[headerSize:]
	for i, w := range dict {
		storeWord(words[i*wordSize:], wordSize, w)
	}
	if width > 0 {
		bits.Pack(words[len(dict)*wordSize:], indexes, uint(width))
	}
	return dst, nil
}

func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	if len(src) < headerSize {
		return dst, fmt.Errorf("dict: block header is %d bytes, need %d", len(src), headerSize)
	}
	wordSize := int(src[0])
	width := int(src[1])
	dictCount := int(binary.LittleEndian.Uint32(src[2:]))
	count := int(binary.LittleEndian.Uint32(src[6:]))

	switch wordSize {
	case 1, 2, 4, 8:
	default:
		return dst, fmt.Errorf("dict: invalid word size %d", wordSize)
	}
	if width < 0 || width > 32 {
		return dst, fmt.Errorf("dict: invalid index width %d", width)
	}
	if count > 0 && dictCount == 0 {
		return dst, fmt.Errorf("dict: block contains %d words but the dictionary is empty", count)
	}
	if count*wordSize != len(dst) {
		return dst, fmt.Errorf("dict: block contains %d words of %d bytes but %d bytes were declared", count, wordSize, len(dst))
	}
	if len(src) != headerSize+dictCount*wordSize+bits.ByteCount(uint(count)*uint(width)) {
		return dst, fmt.Errorf("dict: block is %d bytes, expected %d", len(src), headerSize+dictCount*wordSize+bits.ByteCount(uint(count)*uint(width)))
	}

	words := src[headerSize:]
	dict := make([]uint64, dictCount)
	for i := range dict {
		dict[i] = loadWord(words[i*wordSize:], wordSize)
	}

	indexes := make([]uint64, count)
	if width > 0 {
		bits.Unpack(indexes, words[dictCount*wordSize:], uint(width))
	}
	for i, x := range indexes {
		if x >= uint64(dictCount) {
			return dst, fmt.Errorf("dict: index %d out of range for dictionary of %d words", x, dictCount)
		}
		storeWord(dst[i*wordSize:], wordSize, dict[x])
	}
	return dst, nil
}

// buildDict returns the word size minimizing the encoded size of src, along
// with the dictionary in order of first appearance and the index of each
// input word. Word size 1 is always a valid fallback.
func buildDict(src []byte) (wordSize int, dict []uint64, indexes []uint64) {
	best := -1

	for _, ws := range [4]int{1, 2, 4, 8} {
		if len(src)%ws != 0 {
			continue
		}
		d, x := mapWords(src, ws)
		width := wordLen(uint64(len(d)) - 1)
		if len(d) == 0 {
			width = 0
		}
		size := len(d)*ws + bits.ByteCount(uint(len(x))*uint(width))
		if best < 0 || size < best {
			best, wordSize, dict, indexes = size, ws, d, x
		}
	}
	return wordSize, dict, indexes
}

func mapWords(src []byte, wordSize int) (dict []uint64, indexes []uint64) {
	seen := make(map[uint64]uint64)
	indexes = make([]uint64, len(src)/wordSize)
	for i := range indexes {
		w := loadWord(src[i*wordSize:], wordSize)
		x, ok := seen[w]
		if !ok {
			x = uint64(len(dict))
			seen[w] = x
			dict = append(dict, w)
		}
		indexes[i] = x
	}
	return dict, indexes
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
