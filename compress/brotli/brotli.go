// Package brotli implements the Brotli compression codec.
//
// Brotli has no block API, so blocks are framed as single-shot streams over
// in-memory buffers.
package brotli

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"

	"github.com/columnstore/strata/compress"
)

const (
	DefaultQuality = brotli.DefaultCompression
	DefaultLGWin   = 0
)

type Codec struct {
	// Quality controls the compression-speed vs compression-density
	// trade-offs. Higher values give better density at lower speed.
	Quality int
	// LGWin is the base 2 logarithm of the sliding window size.
	LGWin int
}

func (c *Codec) String() string {
	return "BROTLI"
}

func (c *Codec) CodecID() compress.CodecID {
	return compress.Brotli
}

func (c *Codec) Encode(dst, src []byte) ([]byte, error) {
	buf := bytes.NewBuffer(dst[:0])
	w := brotli.NewWriterOptions(buf, brotli.WriterOptions{
		Quality: c.quality(),
		LGWin:   c.LGWin,
	})
	if _, err := w.Write(src); err != nil {
		return buf.Bytes(), err
	}
	if err := w.Close(); err != nil {
		return buf.Bytes(), err
	}
	return buf.Bytes(), nil
}

func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(src))
	if _, err := io.ReadFull(r, dst); err != nil {
		return dst, err
	}
	// the reader may return (0, nil) before the terminal EOF, so drain with
	// ReadFull rather than trusting a single Read call
	var tail [1]byte
	if n, err := io.ReadFull(r, tail[:]); n != 0 || err != io.EOF {
		return dst, fmt.Errorf("brotli: block decompressed to more than the %d declared bytes", len(dst))
	}
	return dst, nil
}

func (c *Codec) quality() int {
	if c.Quality != 0 {
		return c.Quality
	}
	return DefaultQuality
}
