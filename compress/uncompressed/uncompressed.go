// Package uncompressed provides the passthrough codec, used when compressing
// a block would expand it.
package uncompressed

import (
	"fmt"

	"github.com/columnstore/strata/compress"
)

type Codec struct {
}

func (c *Codec) String() string {
	return "UNCOMPRESSED"
}

func (c *Codec) CodecID() compress.CodecID {
	return compress.Uncompressed
}

func (c *Codec) Encode(dst, src []byte) ([]byte, error) {
	return append(dst[:0], src...), nil
}

func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	if len(src) != len(dst) {
		return dst, fmt.Errorf("uncompressed: raw block is %d bytes but %d were declared", len(src), len(dst))
	}
	copy(dst, src)
	return dst, nil
}
