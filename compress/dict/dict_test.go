package dict

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestEncodeLowCardinality(t *testing.T) {
	// 4096 words drawn from 3 distinct values pack down to a 3 entry
	// dictionary plus 2 bit indexes.
	src := make([]byte, 4096*8)
	for i := 0; i < 4096; i++ {
		binary.LittleEndian.PutUint64(src[i*8:], 1<<62+uint64(i%3))
	}

	codec := new(Codec)
	encoded, err := codec.Encode(nil, src)
	if err != nil {
		t.Fatal(err)
	}
	if len(encoded) >= len(src)/4 {
		t.Errorf("encoded size = %d, expected at least 4x smaller than %d", len(encoded), len(src))
	}
	decoded, err := codec.Decode(make([]byte, len(src)), encoded)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decoded, src) {
		t.Error("decoded bytes do not match the input")
	}
}

func TestDecodeCorruptBlock(t *testing.T) {
	codec := new(Codec)
	encoded, err := codec.Encode(nil, bytes.Repeat([]byte{0xAB, 0xCD, 0xEF, 0x01, 0x23, 0x45, 0x67, 0x89}, 512))
	if err != nil {
		t.Fatal(err)
	}

	corrupt := func(mutate func(b []byte)) []byte {
		b := append([]byte(nil), encoded...)
		mutate(b)
		return b
	}
	blocks := map[string][]byte{
		"short header":    encoded[:headerSize-1],
		"word size":       corrupt(func(b []byte) { b[0] = 3 }),
		"index width":     corrupt(func(b []byte) { b[1] = 60 }),
		"dict count":      corrupt(func(b []byte) { binary.LittleEndian.PutUint32(b[2:], 0xFFFF) }),
		"truncated block": encoded[:len(encoded)-1],
	}
	for name, block := range blocks {
		if _, err := codec.Decode(make([]byte, 512*8), block); err == nil {
			t.Errorf("%s: decoding the corrupted block did not fail", name)
		}
	}
}
