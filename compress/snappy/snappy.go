// Package snappy implements the Snappy block compression codec.
package snappy

import (
	"fmt"

	"github.com/klauspost/compress/snappy"

	"github.com/columnstore/strata/compress"
)

type Codec struct {
}

func (c *Codec) String() string {
	return "SNAPPY"
}

func (c *Codec) CodecID() compress.CodecID {
	return compress.Snappy
}

func (c *Codec) Encode(dst, src []byte) ([]byte, error) {
	if n := snappy.MaxEncodedLen(len(src)); n > cap(dst) {
		dst = make([]byte, n)
	} else {
		dst = dst[:n]
	}
	return snappy.Encode(dst, src), nil
}

func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	out, err := snappy.Decode(dst, src)
	if err != nil {
		return dst, err
	}
	if len(out) != len(dst) {
		return out, fmt.Errorf("snappy: block decompressed to %d bytes but %d were declared", len(out), len(dst))
	}
	return out, nil
}
