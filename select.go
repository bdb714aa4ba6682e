package strata

import (
	"encoding/binary"
	"math/bits"

	"github.com/columnstore/strata/compress"
)

// BlockClass tells the codec selector what a block of raw bytes represents.
type BlockClass int

const (
	// BlockIntegers is a block of fixed-width little-endian values.
	BlockIntegers BlockClass = iota
	// BlockBitmap is a packed bitmap (boolean values).
	BlockBitmap
	// BlockBytes is a variable-length binary payload.
	BlockBytes
	// BlockLevels is a definition or repetition level stream.
	BlockLevels
)

// Sample summarizes a bounded stride sample of a block. Selection policies
// decide from the sample alone, never from the full block, which keeps the
// cost of selection sub-linear in the page size.
type Sample struct {
	Class      BlockClass
	Width      int // value width in bytes for BlockIntegers
	TotalBytes int

	// MaxWord is the largest sampled word for integer and level blocks.
	MaxWord uint64
	// DistinctRatio is the fraction of distinct words among sampled words.
	DistinctRatio float64
	// RunRatio is the average number of consecutive equal sampled words.
	RunRatio float64
	// SetRatio is the fraction of set bits in sampled bitmap bytes.
	SetRatio float64
}

// A Selector picks the compression codec applied to a block. Selection must
// be a pure function of the sample: given identical samples a selector
// always returns the same codec.
type Selector interface {
	String() string
	Select(s Sample) compress.CodecID
}

// DefaultSelector is the adaptive sampling policy used when the writer
// configuration does not provide one.
var DefaultSelector Selector = defaultSelector{}

// FixedCodec returns a selector that always picks the given codec,
// bypassing adaptive selection.
func FixedCodec(id compress.CodecID) Selector {
	return fixedCodec(id)
}

type fixedCodec compress.CodecID

func (c fixedCodec) String() string {
	return "fixed(" + compress.CodecID(c).String() + ")"
}

func (c fixedCodec) Select(Sample) compress.CodecID {
	return compress.CodecID(c)
}

// Thresholds of the default policy. These are tunable parameters validated
// empirically, not format contracts: pages written under different
// thresholds remain readable because every page records the codec it used.
const (
	selectMinSize        = 64
	selectBitmapRunRatio = 8.0
	selectPackedRatio    = 0.5
	selectLowDistinct    = 0.1
	selectMidDistinct    = 0.5
	selectHighDistinct   = 0.9
	selectRunRatio       = 4.0
	selectBrotliMinSize  = 256 << 10
	selectBrotliDistinct = 0.05
)

type defaultSelector struct{}

func (defaultSelector) String() string { return "adaptive" }

func (defaultSelector) Select(s Sample) compress.CodecID {
	if s.TotalBytes < selectMinSize {
		return compress.Uncompressed
	}
	switch s.Class {
	case BlockBitmap:
		if s.RunRatio >= selectBitmapRunRatio || s.SetRatio <= 0.05 || s.SetRatio >= 0.95 {
			return compress.Roaring
		}
		return compress.Lz4

	case BlockLevels:
		if s.MaxWord <= 1 && s.RunRatio >= selectBitmapRunRatio {
			return compress.Roaring
		}
		return compress.BitPacked

	case BlockIntegers:
		if ratio := float64(bits.Len64(s.MaxWord)) / float64(8*s.Width); ratio <= selectPackedRatio {
			return compress.BitPacked
		}
		if s.DistinctRatio <= selectLowDistinct {
			return compress.Dict
		}
		if s.RunRatio >= selectRunRatio {
			return compress.Zstd
		}
		if s.DistinctRatio <= selectMidDistinct {
			return compress.Lz4
		}
		if s.DistinctRatio >= selectHighDistinct {
			return compress.Uncompressed
		}
		return compress.Snappy

	default: // BlockBytes
		if s.TotalBytes >= selectBrotliMinSize && s.DistinctRatio <= selectBrotliDistinct {
			return compress.Brotli
		}
		if s.DistinctRatio <= selectLowDistinct {
			return compress.Zstd
		}
		if s.DistinctRatio <= selectMidDistinct {
			return compress.Lz4
		}
		return compress.Snappy
	}
}

// sampleWords bounds how many words a sample reads from a block.
const sampleWords = 512

// sampleBlock builds a Sample by reading at most sampleWords words spread
// over data in fixed strides.
func sampleBlock(class BlockClass, width int, data []byte) Sample {
	s := Sample{Class: class, Width: width, TotalBytes: len(data)}
	switch class {
	case BlockBitmap:
		sampleBitmap(&s, data)
	case BlockLevels:
		sampleWidth(&s, data, 1)
	case BlockIntegers:
		w := width
		if w > 8 {
			// wide decimals sample their low words
			w = 8
		}
		sampleWidth(&s, data, w)
	default:
		sampleWidth(&s, data, 8)
	}
	return s
}

func sampleBitmap(s *Sample, data []byte) {
	if len(data) == 0 {
		return
	}
	stride := len(data) / sampleWords
	if stride == 0 {
		stride = 1
	}
	sampled, set, runs := 0, 0, 1
	prev := data[0]
	for i := 0; i < len(data); i += stride {
		b := data[i]
		set += bits.OnesCount8(b)
		if b != prev {
			runs++
			prev = b
		}
		sampled++
	}
	s.SetRatio = float64(set) / float64(sampled*8)
	s.RunRatio = float64(sampled) / float64(runs)
}

func sampleWidth(s *Sample, data []byte, w int) {
	count := len(data) / w
	if count == 0 {
		return
	}
	stride := count / sampleWords
	if stride == 0 {
		stride = 1
	}
	distinct := make(map[uint64]struct{}, sampleWords)
	sampled, runs := 0, 1
	prev := sampleWord(data, w)
	distinct[prev] = struct{}{}
	if prev > s.MaxWord {
		s.MaxWord = prev
	}
	sampled++
	for i := stride; i < count; i += stride {
		v := sampleWord(data[i*w:], w)
		if v > s.MaxWord {
			s.MaxWord = v
		}
		if v != prev {
			runs++
			prev = v
		}
		distinct[v] = struct{}{}
		sampled++
	}
	s.DistinctRatio = float64(len(distinct)) / float64(sampled)
	s.RunRatio = float64(sampled) / float64(runs)
}

func sampleWord(b []byte, w int) uint64 {
	switch w {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	default:
		if len(b) < 8 {
			v := uint64(0)
			for i := len(b) - 1; i >= 0; i-- {
				v = v<<8 | uint64(b[i])
			}
			return v
		}
		return binary.LittleEndian.Uint64(b)
	}
}
