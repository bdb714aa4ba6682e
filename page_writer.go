package strata

import (
	"encoding/binary"
	"fmt"

	"github.com/columnstore/strata/compress"
	"github.com/columnstore/strata/internal/debug"
)

// PageWriter encodes arrays into self-describing pages. It owns a scratch
// buffer reused across pages, so a PageWriter must not be used concurrently.
type PageWriter struct {
	selector Selector
	scratch  []byte
	blocks   []BlockStats
}

func NewPageWriter(selector Selector) *PageWriter {
	if selector == nil {
		selector = DefaultSelector
	}
	return &PageWriter{selector: selector}
}

// WritePage appends the page encoding of arr to dst and returns it. The
// array becomes one page regardless of its row count; splitting into
// fixed-size pages is the column writer's job.
func (w *PageWriter) WritePage(dst []byte, arr *Array) ([]byte, error) {
	if err := arr.typ.check(); err != nil {
		return dst, err
	}
	w.blocks = w.blocks[:0]
	switch arr.typ.layout() {
	case layoutPlain:
		return w.writeValues(dst, arr)
	case layoutNullable:
		return w.writeNullable(dst, arr)
	default:
		return w.writeNested(dst, arr)
	}
}

// blockStats returns the per-block outcomes of the last WritePage call.
func (w *PageWriter) blockStats() []BlockStats {
	stats := make([]BlockStats, len(w.blocks))
	copy(stats, w.blocks)
	return stats
}

func (w *PageWriter) writeNullable(dst []byte, arr *Array) ([]byte, error) {
	levels := make([]uint8, arr.rows)
	sel := make([]int, 0, arr.rows)
	for i := 0; i < arr.rows; i++ {
		if arr.valid(i) {
			levels[i] = 1
			sel = append(sel, i)
		}
	}
	block, err := w.packLevels(levels)
	if err != nil {
		return dst, err
	}
	dst = appendUint32(dst, uint32(len(block)))
	dst = append(dst, block...)
	return w.writeValues(dst, arr.take(sel))
}

func (w *PageWriter) writeNested(dst []byte, arr *Array) ([]byte, error) {
	e := newNestedEncoder(arr)
	e.encode()

	repBlock, err := w.packLevels(e.reps)
	if err != nil {
		return dst, err
	}
	defBlock, err := w.packLevels(e.defs)
	if err != nil {
		return dst, err
	}
	dst = appendUint32(dst, uint32(e.offsetsLen()))
	dst = appendUint32(dst, uint32(len(repBlock)))
	dst = appendUint32(dst, uint32(len(defBlock)))
	dst = append(dst, repBlock...)
	dst = append(dst, defBlock...)

	dense := e.bottom().take(e.sel)
	if dense.typ.Kind == Struct {
		for _, field := range dense.children {
			dst, err = w.writeField(dst, field)
			if err != nil {
				return dst, err
			}
		}
		return dst, nil
	}
	return w.writeValues(dst, dense)
}

// writeField encodes one struct field over the rows where the struct is
// present. Fields carry their own layout, a nullable or nested field nests
// its own level streams inside the parent values region.
func (w *PageWriter) writeField(dst []byte, field *Array) ([]byte, error) {
	switch field.typ.layout() {
	case layoutPlain:
		return w.writeValues(dst, field)
	case layoutNullable:
		return w.writeNullable(dst, field)
	default:
		return w.writeNested(dst, field)
	}
}

// writeValues frames the physical buffers of a dense leaf array. The array
// must hold no nulls.
func (w *PageWriter) writeValues(dst []byte, arr *Array) ([]byte, error) {
	switch arr.typ.Kind {
	case Primitive:
		width := arr.typ.Width
		return w.frame(dst, BlockIntegers, width, arr.values[:arr.rows*width])

	case Boolean:
		return w.frame(dst, BlockBitmap, 1, arr.values[:(arr.rows+7)/8])

	case Binary:
		base := int64(0)
		if len(arr.offsets) > 0 {
			base = arr.offsets[0]
		}
		offs := make([]byte, 8*(arr.rows+1))
		for i := 0; i <= arr.rows; i++ {
			binary.LittleEndian.PutUint64(offs[i*8:], uint64(arr.offsets[i]-base))
		}
		dst, err := w.frame(dst, BlockIntegers, 8, offs)
		if err != nil {
			return dst, err
		}
		return w.frame(dst, BlockBytes, 1, arr.values[base:arr.offsets[arr.rows]])

	case Null:
		// no physical buffers, rows are implied by the envelope
		return dst, nil

	case Struct:
		var err error
		for _, field := range arr.children {
			dst, err = w.writeField(dst, field)
			if err != nil {
				return dst, err
			}
		}
		return dst, nil

	default:
		return dst, fmt.Errorf("cannot encode values of kind %s", arr.typ.Kind)
	}
}

// frame compresses one physical buffer and appends its framed block,
// falling back to the uncompressed codec when compression expands the data.
func (w *PageWriter) frame(dst []byte, class BlockClass, width int, raw []byte) ([]byte, error) {
	id := w.selector.Select(sampleBlock(class, width, raw))
	codec, err := lookupCodec(id)
	if err != nil {
		return dst, err
	}
	w.scratch, err = codec.Encode(w.scratch, raw)
	if err != nil {
		return dst, fmt.Errorf("compressing %d bytes with %s: %w", len(raw), codec, err)
	}
	payload := w.scratch
	if len(payload) >= len(raw) && id != compress.Uncompressed {
		id = compress.Uncompressed
		payload = raw
	}
	debug.Format("block class=%d codec=%s raw=%d compressed=%d", class, id, len(raw), len(payload))
	w.blocks = append(w.blocks, BlockStats{
		Codec:            id,
		CompressedSize:   len(payload),
		UncompressedSize: len(raw),
	})
	dst = append(dst, byte(id))
	dst = appendUint32(dst, uint32(len(payload)))
	dst = appendUint32(dst, uint32(len(raw)))
	return append(dst, payload...), nil
}

// packLevels encodes a level stream into its self-describing block form,
// codec:u8 | count:u32 | payload.
func (w *PageWriter) packLevels(levels []uint8) ([]byte, error) {
	raw := []byte(levels)
	id := w.selector.Select(sampleBlock(BlockLevels, 1, raw))
	codec, err := lookupCodec(id)
	if err != nil {
		return nil, err
	}
	payload, err := codec.Encode(nil, raw)
	if err != nil {
		return nil, fmt.Errorf("compressing %d levels with %s: %w", len(raw), codec, err)
	}
	if len(payload) >= len(raw) {
		id = compress.Uncompressed
		payload = raw
	}
	w.blocks = append(w.blocks, BlockStats{
		Codec:            id,
		CompressedSize:   len(payload),
		UncompressedSize: len(raw),
	})
	block := make([]byte, 0, levelHeaderSize+len(payload))
	block = append(block, byte(id))
	block = appendUint32(block, uint32(len(raw)))
	return append(block, payload...), nil
}

func appendUint32(dst []byte, v uint32) []byte {
	return append(dst, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}
