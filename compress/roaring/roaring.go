// Package roaring implements a run-length bitmap codec for validity and
// repetition streams.
//
// The input is interpreted as a bitmap: the positions of its set bits are
// stored in a roaring bitmap, which run-length encodes dense and sparse
// regions alike:
//
//	byte_len:u32 | serialized roaring bitmap
package roaring

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/columnstore/strata/compress"
)

const headerSize = 4

type Codec struct {
}

func (c *Codec) String() string {
	return "ROARING"
}

func (c *Codec) CodecID() compress.CodecID {
	return compress.Roaring
}

func (c *Codec) Encode(dst, src []byte) ([]byte, error) {
	bm := roaring.New()
	for i, b := range src {
		for ; b != 0; b &= b - 1 {
			bm.Add(uint32(i*8) + uint32(bits.TrailingZeros8(b)))
		}
	}
	bm.RunOptimize()

	data, err := bm.ToBytes()
	if err != nil {
		return dst, err
	}
	size := headerSize + len(data)
	if cap(dst) < size {
		dst = make([]byte, size)
	} else {
		dst = dst[:size]
	}
	binary.LittleEndian.PutUint32(dst, uint32(len(src)))
	copy(dst[headerSize:], data)
	return dst, nil
}

func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	if len(src) < headerSize {
		return dst, fmt.Errorf("roaring: block header is %d bytes, need %d", len(src), headerSize)
	}
	if n := int(binary.LittleEndian.Uint32(src)); n != len(dst) {
		return dst, fmt.Errorf("roaring: block contains %d bytes but %d were declared", n, len(dst))
	}
	for i := range dst {
		dst[i] = 0
	}

	bm := roaring.New()
	if err := bm.UnmarshalBinary(src[headerSize:]); err != nil {
		return dst, err
	}
	it := bm.Iterator()
	for it.HasNext() {
		bit := it.Next()
		if int(bit) >= len(dst)*8 {
			return dst, fmt.Errorf("roaring: bit %d out of range for a %d byte block", bit, len(dst))
		}
		dst[bit>>3] |= 1 << (bit & 7)
	}
	return dst, nil
}
