package strata

import (
	"testing"

	"github.com/columnstore/strata/compress"
)

func TestDefaultSelector(t *testing.T) {
	tests := []struct {
		scenario string
		sample   Sample
		want     compress.CodecID
	}{
		{
			scenario: "tiny blocks are not worth compressing",
			sample:   Sample{Class: BlockIntegers, Width: 8, TotalBytes: 32},
			want:     compress.Uncompressed,
		},
		{
			scenario: "small integers bit pack",
			sample:   Sample{Class: BlockIntegers, Width: 8, TotalBytes: 1 << 16, MaxWord: 99, DistinctRatio: 0.9},
			want:     compress.BitPacked,
		},
		{
			scenario: "low cardinality wide integers take the dictionary",
			sample:   Sample{Class: BlockIntegers, Width: 8, TotalBytes: 1 << 16, MaxWord: 1 << 62, DistinctRatio: 0.05},
			want:     compress.Dict,
		},
		{
			scenario: "runny wide integers favor zstd",
			sample:   Sample{Class: BlockIntegers, Width: 8, TotalBytes: 1 << 16, MaxWord: 1 << 62, DistinctRatio: 0.3, RunRatio: 8},
			want:     compress.Zstd,
		},
		{
			scenario: "high entropy integers stay raw",
			sample:   Sample{Class: BlockIntegers, Width: 8, TotalBytes: 1 << 16, MaxWord: 1 << 62, DistinctRatio: 0.99, RunRatio: 1},
			want:     compress.Uncompressed,
		},
		{
			scenario: "mid entropy integers take the fast codec",
			sample:   Sample{Class: BlockIntegers, Width: 8, TotalBytes: 1 << 16, MaxWord: 1 << 62, DistinctRatio: 0.7, RunRatio: 1},
			want:     compress.Snappy,
		},
		{
			scenario: "runny bitmaps roar",
			sample:   Sample{Class: BlockBitmap, TotalBytes: 1 << 12, RunRatio: 32, SetRatio: 0.5},
			want:     compress.Roaring,
		},
		{
			scenario: "sparse bitmaps roar",
			sample:   Sample{Class: BlockBitmap, TotalBytes: 1 << 12, RunRatio: 1, SetRatio: 0.01},
			want:     compress.Roaring,
		},
		{
			scenario: "mixed bitmaps take lz4",
			sample:   Sample{Class: BlockBitmap, TotalBytes: 1 << 12, RunRatio: 2, SetRatio: 0.5},
			want:     compress.Lz4,
		},
		{
			scenario: "binary validity streams roar",
			sample:   Sample{Class: BlockLevels, TotalBytes: 1 << 12, MaxWord: 1, RunRatio: 100},
			want:     compress.Roaring,
		},
		{
			scenario: "deep level streams bit pack",
			sample:   Sample{Class: BlockLevels, TotalBytes: 1 << 12, MaxWord: 3, RunRatio: 100},
			want:     compress.BitPacked,
		},
		{
			scenario: "huge repetitive byte blocks take brotli",
			sample:   Sample{Class: BlockBytes, TotalBytes: 1 << 20, DistinctRatio: 0.01},
			want:     compress.Brotli,
		},
		{
			scenario: "repetitive byte blocks take zstd",
			sample:   Sample{Class: BlockBytes, TotalBytes: 1 << 12, DistinctRatio: 0.05},
			want:     compress.Zstd,
		},
	}

	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			if got := DefaultSelector.Select(test.sample); got != test.want {
				t.Errorf("Select = %s, want %s", got, test.want)
			}
		})
	}
}

// Selection is a pure function of the sample: the same block always gets
// the same codec.
func TestSelectorDeterministic(t *testing.T) {
	data := make([]byte, 1<<16)
	for i := range data {
		data[i] = byte(i * 31 / 7)
	}
	for _, class := range []BlockClass{BlockIntegers, BlockBitmap, BlockBytes, BlockLevels} {
		first := sampleBlock(class, 8, data)
		for i := 0; i < 10; i++ {
			s := sampleBlock(class, 8, data)
			if s != first {
				t.Fatalf("class %d: sample changed between runs: %+v != %+v", class, s, first)
			}
			if a, b := DefaultSelector.Select(s), DefaultSelector.Select(first); a != b {
				t.Fatalf("class %d: selection changed between runs: %s != %s", class, a, b)
			}
		}
	}
}

func TestFixedCodec(t *testing.T) {
	sel := FixedCodec(compress.Zstd)
	if got := sel.Select(Sample{Class: BlockIntegers, TotalBytes: 7}); got != compress.Zstd {
		t.Errorf("Select = %s, want %s", got, compress.Zstd)
	}

	vals := make([]uint64, 1000)
	for i := range vals {
		vals[i] = 123456789
	}
	arr := uint64Array(vals...)

	w := NewPageWriter(sel)
	if _, err := w.WritePage(nil, arr); err != nil {
		t.Fatal(err)
	}
	for _, b := range w.blockStats() {
		if b.Codec != compress.Zstd {
			t.Errorf("block codec = %s, want %s", b.Codec, compress.Zstd)
		}
	}
	assertArraysEqual(t, arr, roundtripPage(t, arr))
}
