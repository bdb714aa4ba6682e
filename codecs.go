package strata

import (
	"fmt"

	"github.com/columnstore/strata/compress"
	"github.com/columnstore/strata/compress/bitpacked"
	"github.com/columnstore/strata/compress/brotli"
	"github.com/columnstore/strata/compress/dict"
	"github.com/columnstore/strata/compress/lz4"
	"github.com/columnstore/strata/compress/roaring"
	"github.com/columnstore/strata/compress/snappy"
	"github.com/columnstore/strata/compress/uncompressed"
	"github.com/columnstore/strata/compress/zstd"
)

var (
	// Uncompressed is a no-op codec, used when compression would expand the
	// data or when a caller pins it via FixedCodec.
	Uncompressed uncompressed.Codec

	// Lz4 is the LZ4 block codec.
	Lz4 lz4.Codec

	// Zstd is the Zstandard codec at its default level.
	Zstd zstd.Codec

	// Snappy is the snappy block codec.
	Snappy snappy.Codec

	// BitPacked packs fixed-width little-endian words down to their
	// effective bit width.
	BitPacked bitpacked.Codec

	// Roaring stores set bit positions of a bitmap as a roaring bitmap.
	Roaring roaring.Codec

	// Brotli is the brotli codec at its default quality.
	Brotli brotli.Codec

	// Dict rewrites low-cardinality word blocks as a dictionary plus bit
	// packed indexes.
	Dict dict.Codec

	codecs compress.Registry
)

func init() {
	codecs.Register(&Uncompressed)
	codecs.Register(&Lz4)
	codecs.Register(&Zstd)
	codecs.Register(&Snappy)
	codecs.Register(&BitPacked)
	codecs.Register(&Roaring)
	codecs.Register(&Brotli)
	codecs.Register(&Dict)
}

// lookupCodec resolves a codec id read from a page, failing with
// ErrUnsupportedCodec for ids with no registered implementation.
func lookupCodec(id compress.CodecID) (compress.Codec, error) {
	if c := codecs.Lookup(id); c != nil {
		return c, nil
	}
	return nil, fmt.Errorf("%w: codec id %d", ErrUnsupportedCodec, id)
}
