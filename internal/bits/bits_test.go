package bits

import (
	"math/rand"
	"testing"
)

func TestPackUnpack(t *testing.T) {
	prng := rand.New(rand.NewSource(42))

	for width := uint(1); width <= 56; width++ {
		for _, count := range []int{0, 1, 7, 8, 100, 1000} {
			words := make([]uint64, count)
			mask := (uint64(1) << width) - 1
			for i := range words {
				words[i] = prng.Uint64() & mask
			}

			packed := make([]byte, ByteCount(uint(count)*width))
			if n := Pack(packed, words, width); n != len(packed) {
				t.Fatalf("width %d count %d: Pack wrote %d bytes, want %d", width, count, n, len(packed))
			}

			got := make([]uint64, count)
			Unpack(got, packed, width)
			for i := range got {
				if got[i] != words[i] {
					t.Fatalf("width %d count %d: word %d = %d, want %d", width, count, i, got[i], words[i])
				}
			}
		}
	}
}

func TestMaxLen(t *testing.T) {
	tests := []struct {
		words []uint64
		want  int
	}{
		{nil, 0},
		{[]uint64{0, 0, 0}, 0},
		{[]uint64{1}, 1},
		{[]uint64{0, 99, 3}, 7},
		{[]uint64{1 << 55}, 56},
	}
	for _, test := range tests {
		if got := MaxLen(test.words); got != test.want {
			t.Errorf("MaxLen(%v) = %d, want %d", test.words, got, test.want)
		}
	}
}
