package strata

import (
	"github.com/segmentio/encoding/json"

	"github.com/columnstore/strata/compress"
)

// PageMeta locates one page inside a column's page stream.
type PageMeta struct {
	// Length is the framed size of the page in bytes, envelope included.
	Length uint64 `json:"length"`
	// Rows is the number of top-level rows the page holds.
	Rows uint64 `json:"num_values"`
}

// ColumnMeta describes where a column's pages live in the underlying
// stream. It is produced by ColumnWriter and consumed by readers that seek
// into the stream instead of scanning it.
type ColumnMeta struct {
	// Offset is the position of the column's first page in the stream.
	Offset uint64     `json:"offset"`
	Pages  []PageMeta `json:"pages"`
}

// TotalLength returns the framed size of all pages of the column.
func (m *ColumnMeta) TotalLength() uint64 {
	total := uint64(0)
	for _, p := range m.Pages {
		total += p.Length
	}
	return total
}

// NumRows returns the number of top-level rows across all pages.
func (m *ColumnMeta) NumRows() uint64 {
	total := uint64(0)
	for _, p := range m.Pages {
		total += p.Rows
	}
	return total
}

// SkipPages returns a copy of the metadata with the first n pages dropped
// and the offset advanced past them.
func (m *ColumnMeta) SkipPages(n int) ColumnMeta {
	if n > len(m.Pages) {
		n = len(m.Pages)
	}
	skipped := uint64(0)
	for _, p := range m.Pages[:n] {
		skipped += p.Length
	}
	return ColumnMeta{
		Offset: m.Offset + skipped,
		Pages:  m.Pages[n:],
	}
}

// Slice cuts the metadata down to the pages covering the half-open row
// range [start, end), returning the sliced metadata and the number of rows
// to discard from the front of its first page.
func (m *ColumnMeta) Slice(start, end uint64) (ColumnMeta, uint64) {
	offset := m.Offset
	rows := uint64(0)
	first := 0
	for first < len(m.Pages) && rows+m.Pages[first].Rows <= start {
		rows += m.Pages[first].Rows
		offset += m.Pages[first].Length
		first++
	}
	last := first
	covered := rows
	for last < len(m.Pages) && covered < end {
		covered += m.Pages[last].Rows
		last++
	}
	return ColumnMeta{Offset: offset, Pages: m.Pages[first:last]}, start - rows
}

// BlockStats records the outcome of compressing one physical block.
type BlockStats struct {
	Codec            compress.CodecID `json:"codec"`
	CompressedSize   int              `json:"compressed_size"`
	UncompressedSize int              `json:"uncompressed_size"`
}

// PageStats aggregates the block outcomes of one page.
type PageStats struct {
	Rows   int          `json:"rows"`
	Length int          `json:"length"`
	Blocks []BlockStats `json:"blocks"`
}

// ColumnStats aggregates the pages written for one column.
type ColumnStats struct {
	Type  string      `json:"type"`
	Rows  int         `json:"rows"`
	Pages []PageStats `json:"pages"`
}

func (s *ColumnStats) String() string {
	b, err := json.Marshal(s)
	if err != nil {
		return err.Error()
	}
	return string(b)
}
