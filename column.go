package strata

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// pageEnvelopeSize is the rows:u32 | size:u32 header framing each page in a
// column stream.
const pageEnvelopeSize = 8

// ColumnWriter splits arrays into fixed-size pages and writes them to an
// underlying stream, recording the metadata needed to seek back into it.
type ColumnWriter struct {
	writer io.Writer
	config WriterConfig
	page   *PageWriter
	buf    []byte
	offset uint64
	metas  []ColumnMeta
}

func NewColumnWriter(w io.Writer, config *WriterConfig) (*ColumnWriter, error) {
	if config == nil {
		config = DefaultWriterConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &ColumnWriter{
		writer: w,
		config: *config,
		page:   NewPageWriter(config.Selector),
	}, nil
}

// WriteColumn writes the array as one column: a run of framed pages of at
// most RowsPerPage rows each. A zero-row array produces no pages. The
// returned statistics describe the codec outcomes of every block written.
func (c *ColumnWriter) WriteColumn(arr *Array) (*ColumnStats, error) {
	if err := arr.typ.check(); err != nil {
		return nil, err
	}
	meta := ColumnMeta{Offset: c.offset}
	stats := &ColumnStats{Type: arr.typ.String(), Rows: arr.rows}
	for lo := 0; lo < arr.rows; lo += c.config.RowsPerPage {
		hi := lo + c.config.RowsPerPage
		if hi > arr.rows {
			hi = arr.rows
		}
		rows := hi - lo

		c.buf = append(c.buf[:0], 0, 0, 0, 0, 0, 0, 0, 0)
		body, err := c.page.WritePage(c.buf, arr.Slice(lo, hi))
		if err != nil {
			return nil, fmt.Errorf("writing page at row %d: %w", lo, err)
		}
		c.buf = body
		binary.LittleEndian.PutUint32(c.buf, uint32(rows))
		binary.LittleEndian.PutUint32(c.buf[4:], uint32(len(c.buf)-pageEnvelopeSize))

		if _, err := c.writer.Write(c.buf); err != nil {
			return nil, fmt.Errorf("writing page at row %d: %w", lo, err)
		}
		length := uint64(len(c.buf))
		meta.Pages = append(meta.Pages, PageMeta{Length: length, Rows: uint64(rows)})
		stats.Pages = append(stats.Pages, PageStats{
			Rows:   rows,
			Length: len(c.buf),
			Blocks: c.page.blockStats(),
		})
		c.offset += length
	}
	c.metas = append(c.metas, meta)
	return stats, nil
}

// Metas returns the metadata of every column written so far, in write
// order.
func (c *ColumnWriter) Metas() []ColumnMeta {
	return c.metas
}

// Offset returns the stream position after the last page written.
func (c *ColumnWriter) Offset() uint64 {
	return c.offset
}

// ColumnReader reads a run of framed pages from an underlying stream and
// reassembles them into arrays.
type ColumnReader struct {
	reader io.Reader
	typ    *Type
	page   PageReader
	buf    []byte
	pages  int
	rows   int
}

func NewColumnReader(r io.Reader, typ *Type) *ColumnReader {
	return &ColumnReader{reader: r, typ: typ}
}

// ReadPage reads and decodes the next page. It returns io.EOF when the
// stream ends on a page boundary and ErrTruncatedPage when it ends inside
// one.
func (c *ColumnReader) ReadPage() (*Array, error) {
	var hdr [pageEnvelopeSize]byte
	if _, err := io.ReadFull(c.reader, hdr[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: stream ended inside the envelope of page %d", ErrTruncatedPage, c.pages)
	}
	rows := int(binary.LittleEndian.Uint32(hdr[:]))
	size := int(binary.LittleEndian.Uint32(hdr[4:]))

	if cap(c.buf) < size {
		c.buf = make([]byte, size)
	}
	c.buf = c.buf[:size]
	if _, err := io.ReadFull(c.reader, c.buf); err != nil {
		return nil, fmt.Errorf("%w: stream ended inside the body of page %d", ErrTruncatedPage, c.pages)
	}
	arr, err := c.page.ReadPage(c.typ, c.buf, rows)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", c.pages, err)
	}
	c.pages++
	c.rows += rows
	return arr, nil
}

// ReadColumn reads pages until numRows rows have been assembled and
// concatenates them into one array. The pages must cover exactly numRows
// rows; a stream that runs out early or a page that crosses the boundary
// fails with ErrRowCountMismatch.
func (c *ColumnReader) ReadColumn(numRows int) (*Array, error) {
	if numRows == 0 {
		return emptyArray(c.typ), nil
	}
	var frags []*Array
	rows := 0
	for rows < numRows {
		arr, err := c.ReadPage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: column ended after %d of %d rows", ErrRowCountMismatch, rows, numRows)
			}
			return nil, err
		}
		frags = append(frags, arr)
		rows += arr.rows
	}
	if rows > numRows {
		return nil, fmt.Errorf("%w: pages hold %d rows, column declares %d", ErrRowCountMismatch, rows, numRows)
	}
	return concatArrays(c.typ, frags)
}
