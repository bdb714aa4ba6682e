// Package lz4 implements the LZ4 block compression codec.
package lz4

import (
	"fmt"

	"github.com/pierrec/lz4/v4"

	"github.com/columnstore/strata/compress"
)

type Codec struct {
	Level lz4.CompressionLevel
}

func (c *Codec) String() string {
	return "LZ4"
}

func (c *Codec) CodecID() compress.CodecID {
	return compress.Lz4
}

func (c *Codec) Encode(dst, src []byte) ([]byte, error) {
	if len(src) == 0 {
		return dst[:0], nil
	}
	bound := lz4.CompressBlockBound(len(src))
	if cap(dst) < bound {
		dst = make([]byte, bound)
	} else {
		dst = dst[:bound]
	}
	var n int
	var err error
	if c.Level != lz4.Fast {
		z := lz4.CompressorHC{Level: c.Level}
		n, err = z.CompressBlock(src, dst)
	} else {
		var z lz4.Compressor
		n, err = z.CompressBlock(src, dst)
	}
	if err != nil {
		return dst, err
	}
	if n == 0 {
		// The block compressor returns zero for incompressible input; emit a
		// literal-only block so the output remains a valid LZ4 block.
		n = literalBlock(dst, src)
	}
	return dst[:n], nil
}

func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	if len(src) == 0 {
		if len(dst) != 0 {
			return dst, fmt.Errorf("lz4: empty block but %d bytes were declared", len(dst))
		}
		return dst, nil
	}
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return dst, err
	}
	if n != len(dst) {
		return dst, fmt.Errorf("lz4: block decompressed to %d bytes but %d were declared", n, len(dst))
	}
	return dst, nil
}

// literalBlock writes src to dst as a single literal-only LZ4 sequence and
// returns the number of bytes written. dst must be at least
// lz4.CompressBlockBound(len(src)) bytes.
func literalBlock(dst, src []byte) int {
	i := 0
	if n := len(src); n < 15 {
		dst[i] = byte(n) << 4
		i++
	} else {
		dst[i] = 0xF0
		i++
		for n -= 15; n >= 255; n -= 255 {
			dst[i] = 255
			i++
		}
		dst[i] = byte(n)
		i++
	}
	return i + copy(dst[i:], src)
}
