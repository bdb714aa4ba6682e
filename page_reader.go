package strata

import (
	"encoding/binary"
	"fmt"

	"github.com/columnstore/strata/compress"
)

// PageReader decodes pages produced by PageWriter. The zero value is ready
// to use and a PageReader may be shared across goroutines.
type PageReader struct{}

// ReadPage decodes one page of the given type. rows is the row count
// declared by the page envelope; it is required because some layouts (null
// columns, trailing boolean bits) do not encode it in the page body.
func (r *PageReader) ReadPage(typ *Type, data []byte, rows int) (*Array, error) {
	if err := typ.check(); err != nil {
		return nil, err
	}
	arr, rest, err := r.readBlock(typ, data, rows)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after page body", ErrCorruptPage, len(rest))
	}
	return arr, nil
}

func (r *PageReader) readBlock(typ *Type, data []byte, rows int) (*Array, []byte, error) {
	switch typ.layout() {
	case layoutPlain:
		return r.readValues(typ, data, rows)
	case layoutNullable:
		return r.readNullable(typ, data, rows)
	default:
		return r.readNested(typ, data, rows)
	}
}

func (r *PageReader) readNullable(typ *Type, data []byte, rows int) (*Array, []byte, error) {
	block, rest, err := cutUint32Prefixed(data, "definition levels")
	if err != nil {
		return nil, nil, err
	}
	levels, err := unpackLevels(block)
	if err != nil {
		return nil, nil, err
	}
	if len(levels) != rows {
		return nil, nil, fmt.Errorf("%w: %d definition levels for %d rows", ErrCorruptPage, len(levels), rows)
	}
	present := 0
	var validity []byte
	for i, l := range levels {
		switch l {
		case 1:
			present++
		case 0:
			if validity == nil {
				validity = newBitmap(rows)
				for j := 0; j < i; j++ {
					setBit(validity, j)
				}
			}
		default:
			return nil, nil, fmt.Errorf("%w: definition level %d in a flat column", ErrCorruptPage, l)
		}
		if l == 1 && validity != nil {
			setBit(validity, i)
		}
	}
	dense, rest, err := r.readValues(typ, rest, present)
	if err != nil {
		return nil, nil, err
	}
	return dense.scatter(validity, rows), rest, nil
}

func (r *PageReader) readNested(typ *Type, data []byte, rows int) (*Array, []byte, error) {
	if len(data) < nestedHeaderSize {
		return nil, nil, fmt.Errorf("%w: %d bytes for a nested page header", ErrTruncatedPage, len(data))
	}
	offsetsLen := int(binary.LittleEndian.Uint32(data))
	repLen := int(binary.LittleEndian.Uint32(data[4:]))
	defLen := int(binary.LittleEndian.Uint32(data[8:]))
	rest := data[nestedHeaderSize:]
	if len(rest) < repLen+defLen {
		return nil, nil, fmt.Errorf("%w: %d bytes for %d bytes of level blocks", ErrTruncatedPage, len(rest), repLen+defLen)
	}
	reps, err := unpackLevels(rest[:repLen])
	if err != nil {
		return nil, nil, err
	}
	defs, err := unpackLevels(rest[repLen : repLen+defLen])
	if err != nil {
		return nil, nil, err
	}
	rest = rest[repLen+defLen:]

	dec := newNestedDecoder(typ, reps, defs)
	if err := dec.replay(); err != nil {
		return nil, nil, err
	}
	if got := dec.numRows(); got != rows {
		return nil, nil, fmt.Errorf("%w: level streams describe %d rows, envelope declares %d", ErrCorruptPage, got, rows)
	}
	if got := dec.offsetsLen(); got != offsetsLen {
		return nil, nil, fmt.Errorf("%w: rebuilt %d offsets entries, header declares %d", ErrCorruptPage, got, offsetsLen)
	}

	present := dec.numPresent()
	bottom := dec.chain.bottom
	var dense *Array
	switch bottom.Kind {
	case Null:
		// assemble synthesizes the null bottom, nothing to read
	case Struct:
		fields := make([]*Array, len(bottom.Fields))
		for i, f := range bottom.Fields {
			fields[i], rest, err = r.readBlock(f.Type, rest, present)
			if err != nil {
				return nil, nil, err
			}
		}
		dense = NewStructArray(bottom, present, nil, fields...)
	default:
		dense, rest, err = r.readValues(bottom, rest, present)
		if err != nil {
			return nil, nil, err
		}
	}
	return dec.assemble(dense), rest, nil
}

// readValues decodes the physical buffers of a dense leaf holding rows
// values.
func (r *PageReader) readValues(typ *Type, data []byte, rows int) (*Array, []byte, error) {
	switch typ.Kind {
	case Primitive:
		raw, rest, err := r.readFramed(data, rows*typ.Width, "values")
		if err != nil {
			return nil, nil, err
		}
		return NewPrimitiveArray(typ, rows, raw, nil), rest, nil

	case Boolean:
		raw, rest, err := r.readFramed(data, (rows+7)/8, "values")
		if err != nil {
			return nil, nil, err
		}
		return NewBooleanArray(typ, rows, raw, nil), rest, nil

	case Binary:
		raw, rest, err := r.readFramed(data, 8*(rows+1), "offsets")
		if err != nil {
			return nil, nil, err
		}
		offsets := make([]int64, rows+1)
		for i := range offsets {
			offsets[i] = int64(binary.LittleEndian.Uint64(raw[i*8:]))
		}
		if offsets[0] != 0 {
			return nil, nil, fmt.Errorf("%w: binary offsets start at %d", ErrCorruptPage, offsets[0])
		}
		for i := 1; i < len(offsets); i++ {
			if offsets[i] < offsets[i-1] {
				return nil, nil, fmt.Errorf("%w: binary offsets decrease at row %d", ErrCorruptPage, i)
			}
		}
		bytes, rest, err := r.readFramed(rest, int(offsets[rows]), "bytes")
		if err != nil {
			return nil, nil, err
		}
		return NewBinaryArray(typ, offsets, bytes, nil), rest, nil

	case Null:
		return NewNullArray(rows), data, nil

	case Struct:
		var err error
		fields := make([]*Array, len(typ.Fields))
		for i, f := range typ.Fields {
			fields[i], data, err = r.readBlock(f.Type, data, rows)
			if err != nil {
				return nil, nil, err
			}
		}
		return NewStructArray(typ, rows, nil, fields...), data, nil

	default:
		return nil, nil, fmt.Errorf("cannot decode values of kind %s", typ.Kind)
	}
}

// readFramed decompresses one framed block and checks its uncompressed
// size against the size the surrounding structure requires.
func (r *PageReader) readFramed(data []byte, want int, what string) ([]byte, []byte, error) {
	if len(data) < blockHeaderSize {
		return nil, nil, fmt.Errorf("%w: %d bytes for a %s block header", ErrTruncatedPage, len(data), what)
	}
	id := data[0]
	csize := int(binary.LittleEndian.Uint32(data[1:]))
	usize := int(binary.LittleEndian.Uint32(data[5:]))
	rest := data[blockHeaderSize:]
	if len(rest) < csize {
		return nil, nil, fmt.Errorf("%w: %d bytes for a %s block of %d", ErrTruncatedPage, len(rest), what, csize)
	}
	if usize != want {
		return nil, nil, fmt.Errorf("%w: %s block holds %d bytes, structure requires %d", ErrCorruptPage, what, usize, want)
	}
	codec, err := lookupCodec(compress.CodecID(id))
	if err != nil {
		return nil, nil, err
	}
	raw, err := codec.Decode(make([]byte, usize), rest[:csize])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: decompressing %s block with %s: %v", ErrCorruptPage, what, codec, err)
	}
	return raw, rest[csize:], nil
}

// cutUint32Prefixed splits a length-prefixed region off the front of data.
func cutUint32Prefixed(data []byte, what string) ([]byte, []byte, error) {
	if len(data) < 4 {
		return nil, nil, fmt.Errorf("%w: %d bytes for the %s length", ErrTruncatedPage, len(data), what)
	}
	n := int(binary.LittleEndian.Uint32(data))
	rest := data[4:]
	if len(rest) < n {
		return nil, nil, fmt.Errorf("%w: %d bytes for a %s block of %d", ErrTruncatedPage, len(rest), what, n)
	}
	return rest[:n], rest[n:], nil
}

// unpackLevels decodes a self-describing level block.
func unpackLevels(block []byte) ([]uint8, error) {
	if len(block) < levelHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes for a level block header", ErrTruncatedPage, len(block))
	}
	count := int(binary.LittleEndian.Uint32(block[1:]))
	codec, err := lookupCodec(compress.CodecID(block[0]))
	if err != nil {
		return nil, err
	}
	levels, err := codec.Decode(make([]byte, count), block[levelHeaderSize:])
	if err != nil {
		return nil, fmt.Errorf("%w: decompressing %d levels with %s: %v", ErrCorruptPage, count, codec, err)
	}
	return levels, nil
}
