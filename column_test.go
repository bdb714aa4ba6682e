package strata

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestColumnRoundtrip(t *testing.T) {
	vals := make([]uint64, 10000)
	valid := make([]bool, 10000)
	for i := range vals {
		vals[i] = uint64(i * i)
		valid[i] = i%7 != 0
	}
	arr := NewPrimitiveArray(Nullable(PrimitiveType(8)), len(vals),
		packUint64s(vals...), validityOf(valid...))

	buf := new(bytes.Buffer)
	w, err := NewColumnWriter(buf, nil)
	if err != nil {
		t.Fatal(err)
	}
	stats, err := w.WriteColumn(arr)
	if err != nil {
		t.Fatal(err)
	}
	if want := (len(vals) + DefaultRowsPerPage - 1) / DefaultRowsPerPage; len(stats.Pages) != want {
		t.Errorf("column has %d pages, want %d", len(stats.Pages), want)
	}

	r := NewColumnReader(buf, arr.typ)
	got, err := r.ReadColumn(len(vals))
	if err != nil {
		t.Fatal(err)
	}
	assertArraysEqual(t, arr, got)
}

func TestColumnPaging(t *testing.T) {
	buf := new(bytes.Buffer)
	config := DefaultWriterConfig()
	config.RowsPerPage = 100

	w, err := NewColumnWriter(buf, config)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.WriteColumn(NewNullArray(1000)); err != nil {
		t.Fatal(err)
	}

	metas := w.Metas()
	if len(metas) != 1 {
		t.Fatalf("writer holds %d column metas, want 1", len(metas))
	}
	meta := metas[0]
	if len(meta.Pages) != 10 {
		t.Fatalf("column has %d pages, want 10", len(meta.Pages))
	}
	for i, p := range meta.Pages {
		if p.Rows != 100 {
			t.Errorf("page %d holds %d rows, want 100", i, p.Rows)
		}
		// a null page is nothing but its envelope
		if p.Length != pageEnvelopeSize {
			t.Errorf("page %d is %d bytes, want %d", i, p.Length, pageEnvelopeSize)
		}
	}
	if got, want := meta.TotalLength(), uint64(buf.Len()); got != want {
		t.Errorf("TotalLength() = %d, stream holds %d bytes", got, want)
	}
	if meta.NumRows() != 1000 {
		t.Errorf("NumRows() = %d, want 1000", meta.NumRows())
	}

	got, err := NewColumnReader(buf, NullType()).ReadColumn(1000)
	if err != nil {
		t.Fatal(err)
	}
	if got.NumRows() != 1000 || got.NumNulls() != 1000 {
		t.Errorf("read %d rows with %d nulls, want 1000 of each", got.NumRows(), got.NumNulls())
	}
}

// Every page must decode on its own: seeking to a page via the column
// metadata and reading from there must not depend on earlier pages.
func TestColumnPageIndependence(t *testing.T) {
	vals := make([]uint64, 250)
	for i := range vals {
		vals[i] = uint64(i)
	}
	arr := uint64Array(vals...)

	buf := new(bytes.Buffer)
	config := DefaultWriterConfig()
	config.RowsPerPage = 100
	w, err := NewColumnWriter(buf, config)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.WriteColumn(arr); err != nil {
		t.Fatal(err)
	}

	meta := w.Metas()[0].SkipPages(2)
	stream := buf.Bytes()[meta.Offset:]
	got, err := NewColumnReader(bytes.NewReader(stream), arr.typ).ReadColumn(50)
	if err != nil {
		t.Fatal(err)
	}
	assertArraysEqual(t, arr.Slice(200, 250), got)
}

func TestColumnMetaSlice(t *testing.T) {
	meta := ColumnMeta{
		Offset: 1000,
		Pages: []PageMeta{
			{Length: 10, Rows: 100},
			{Length: 20, Rows: 100},
			{Length: 30, Rows: 100},
		},
	}
	sliced, skip := meta.Slice(150, 250)
	if sliced.Offset != 1010 {
		t.Errorf("Offset = %d, want 1010", sliced.Offset)
	}
	if len(sliced.Pages) != 2 {
		t.Fatalf("slice holds %d pages, want 2", len(sliced.Pages))
	}
	if skip != 50 {
		t.Errorf("rows to skip = %d, want 50", skip)
	}
}

func TestColumnRowCountMismatch(t *testing.T) {
	arr := uint64Array(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	buf := new(bytes.Buffer)
	config := DefaultWriterConfig()
	config.RowsPerPage = 4

	w, err := NewColumnWriter(buf, config)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.WriteColumn(arr); err != nil {
		t.Fatal(err)
	}
	stream := buf.Bytes()

	t.Run("declares too many rows", func(t *testing.T) {
		r := NewColumnReader(bytes.NewReader(stream), arr.typ)
		if _, err := r.ReadColumn(11); !errors.Is(err, ErrRowCountMismatch) {
			t.Errorf("ReadColumn(11) = %v, want ErrRowCountMismatch", err)
		}
	})

	t.Run("declares a mid-page boundary", func(t *testing.T) {
		r := NewColumnReader(bytes.NewReader(stream), arr.typ)
		if _, err := r.ReadColumn(6); !errors.Is(err, ErrRowCountMismatch) {
			t.Errorf("ReadColumn(6) = %v, want ErrRowCountMismatch", err)
		}
	})

	t.Run("declares the written count", func(t *testing.T) {
		r := NewColumnReader(bytes.NewReader(stream), arr.typ)
		got, err := r.ReadColumn(10)
		if err != nil {
			t.Fatal(err)
		}
		assertArraysEqual(t, arr, got)
	})
}

func TestColumnZeroRows(t *testing.T) {
	buf := new(bytes.Buffer)
	w, err := NewColumnWriter(buf, nil)
	if err != nil {
		t.Fatal(err)
	}
	stats, err := w.WriteColumn(uint64Array())
	if err != nil {
		t.Fatal(err)
	}
	if len(stats.Pages) != 0 {
		t.Errorf("zero rows produced %d pages", len(stats.Pages))
	}
	if buf.Len() != 0 {
		t.Errorf("zero rows wrote %d bytes", buf.Len())
	}
	got, err := NewColumnReader(buf, PrimitiveType(8)).ReadColumn(0)
	if err != nil {
		t.Fatal(err)
	}
	if got.NumRows() != 0 {
		t.Errorf("read %d rows, want 0", got.NumRows())
	}
}

func TestColumnTruncatedStream(t *testing.T) {
	arr := uint64Array(1, 2, 3, 4, 5, 6, 7, 8)
	buf := new(bytes.Buffer)
	w, err := NewColumnWriter(buf, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.WriteColumn(arr); err != nil {
		t.Fatal(err)
	}
	stream := buf.Bytes()

	t.Run("inside the envelope", func(t *testing.T) {
		r := NewColumnReader(bytes.NewReader(stream[:4]), arr.typ)
		if _, err := r.ReadPage(); !errors.Is(err, ErrTruncatedPage) {
			t.Errorf("ReadPage = %v, want ErrTruncatedPage", err)
		}
	})

	t.Run("inside the body", func(t *testing.T) {
		r := NewColumnReader(bytes.NewReader(stream[:len(stream)-3]), arr.typ)
		if _, err := r.ReadPage(); !errors.Is(err, ErrTruncatedPage) {
			t.Errorf("ReadPage = %v, want ErrTruncatedPage", err)
		}
	})

	t.Run("at a page boundary", func(t *testing.T) {
		r := NewColumnReader(bytes.NewReader(stream), arr.typ)
		if _, err := r.ReadPage(); err != nil {
			t.Fatal(err)
		}
		if _, err := r.ReadPage(); err != io.EOF {
			t.Errorf("ReadPage at end of stream = %v, want io.EOF", err)
		}
	})
}

// Two columns written back to back share a stream; readers consume exactly
// the pages of their own column.
func TestColumnSequence(t *testing.T) {
	ints := uint64Array(1, 2, 3)
	strs := binaryArray("a", "b", "c", "d")

	buf := new(bytes.Buffer)
	w, err := NewColumnWriter(buf, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.WriteColumn(ints); err != nil {
		t.Fatal(err)
	}
	if _, err := w.WriteColumn(strs); err != nil {
		t.Fatal(err)
	}
	if n := len(w.Metas()); n != 2 {
		t.Fatalf("writer holds %d column metas, want 2", n)
	}

	gotInts, err := NewColumnReader(buf, ints.typ).ReadColumn(3)
	if err != nil {
		t.Fatal(err)
	}
	assertArraysEqual(t, ints, gotInts)

	gotStrs, err := NewColumnReader(buf, strs.typ).ReadColumn(4)
	if err != nil {
		t.Fatal(err)
	}
	assertArraysEqual(t, strs, gotStrs)
}
