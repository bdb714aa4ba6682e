// Package compress provides the generic APIs implemented by the strata
// compression codecs.
//
// Codecs are identified on disk by a single byte; the mapping from id to
// codec is append-only, ids of released codecs are never reused.
package compress

import "fmt"

// CodecID is the stable on-disk identifier of a compression codec.
type CodecID uint8

const (
	Uncompressed CodecID = 0
	Lz4          CodecID = 1
	Zstd         CodecID = 2
	Snappy       CodecID = 3
	BitPacked    CodecID = 4
	Roaring      CodecID = 5
	Brotli       CodecID = 6
	Dict         CodecID = 7

	numCodecs = 16
)

func (id CodecID) String() string {
	switch id {
	case Uncompressed:
		return "UNCOMPRESSED"
	case Lz4:
		return "LZ4"
	case Zstd:
		return "ZSTD"
	case Snappy:
		return "SNAPPY"
	case BitPacked:
		return "BIT_PACKED"
	case Roaring:
		return "ROARING"
	case Brotli:
		return "BROTLI"
	case Dict:
		return "DICT"
	default:
		return fmt.Sprintf("CODEC(%d)", uint8(id))
	}
}

// The Codec interface represents compression codecs implemented by the
// compress sub-packages.
//
// Codec instances must be safe to use concurrently from multiple goroutines.
type Codec interface {
	// Returns a human-readable name for the codec.
	String() string

	// Returns the stable identifier of the codec.
	CodecID() CodecID

	// Encode writes the compressed form of src to dst and returns it.
	//
	// The method appends to dst[:0], reallocating the buffer if its capacity
	// was too small to hold the compressed data.
	Encode(dst, src []byte) ([]byte, error)

	// Decode writes the uncompressed form of src to dst and returns it.
	//
	// The length of dst must be the exact uncompressed size recorded when the
	// data was encoded; codecs fail if src does not decompress to exactly
	// len(dst) bytes.
	Decode(dst, src []byte) ([]byte, error)
}

// A Registry associates codec ids to codec implementations.
//
// The zero value is an empty registry ready to use. Lookup may be called
// concurrently; Register may not be called concurrently with Lookup.
type Registry struct {
	codecs [numCodecs]Codec
}

func (r *Registry) Register(codec Codec) {
	id := codec.CodecID()
	if int(id) >= len(r.codecs) {
		panic(fmt.Sprintf("compress: codec id out of range: %d", id))
	}
	r.codecs[id] = codec
}

// Lookup returns the codec registered under the given id, or nil if the id is
// unknown to this registry.
func (r *Registry) Lookup(id CodecID) Codec {
	if int(id) < len(r.codecs) {
		return r.codecs[id]
	}
	return nil
}
