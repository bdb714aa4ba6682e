package strata

import (
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
	"github.com/segmentio/encoding/json"
)

// rowValue renders row i of an array as a plain Go value, nil for nulls, so
// that structurally different but logically equal arrays compare equal.
func rowValue(a *Array, i int) interface{} {
	if a.IsNull(i) {
		return nil
	}
	switch a.typ.Kind {
	case Primitive:
		w := a.typ.Width
		if w > 8 {
			return fmt.Sprintf("%x", a.values[i*w:(i+1)*w])
		}
		v := uint64(0)
		for b := 0; b < w; b++ {
			v |= uint64(a.values[i*w+b]) << (8 * b)
		}
		return v
	case Boolean:
		return getBit(a.values, i)
	case Binary:
		return string(a.values[a.offsets[i]:a.offsets[i+1]])
	case List:
		out := []interface{}{}
		for k := a.offsets[i]; k < a.offsets[i+1]; k++ {
			out = append(out, rowValue(a.children[0], int(k)))
		}
		return out
	case Map:
		out := []interface{}{}
		for k := a.offsets[i]; k < a.offsets[i+1]; k++ {
			out = append(out, []interface{}{
				rowValue(a.children[0], int(k)),
				rowValue(a.children[1], int(k)),
			})
		}
		return out
	case Struct:
		m := map[string]interface{}{}
		for j, f := range a.typ.Fields {
			m[f.Name] = rowValue(a.children[j], i)
		}
		return m
	default:
		return nil
	}
}

func renderArray(t *testing.T, a *Array) string {
	t.Helper()
	rows := make([]interface{}, a.rows)
	for i := range rows {
		rows[i] = rowValue(a, i)
	}
	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	return string(b) + "\n"
}

func assertArraysEqual(t *testing.T, want, got *Array) {
	t.Helper()
	if want.typ.String() != got.typ.String() {
		t.Fatalf("array type mismatch: want %s, got %s", want.typ, got.typ)
	}
	if want.rows != got.rows {
		t.Fatalf("array row count mismatch: want %d, got %d", want.rows, got.rows)
	}
	w, g := renderArray(t, want), renderArray(t, got)
	if w != g {
		edits := myers.ComputeEdits(span.URIFromPath("want"), w, g)
		t.Errorf("arrays differ (-want +got):\n%s", gotextdiff.ToUnified("want", "got", w, edits))
	}
}

// validityOf builds a bitmap from a slice of booleans, nil when every row
// is valid.
func validityOf(valid ...bool) []byte {
	all := true
	v := newBitmap(len(valid))
	for i, ok := range valid {
		if ok {
			setBit(v, i)
		} else {
			all = false
		}
	}
	if all {
		return nil
	}
	return v
}

func packUint64s(vals ...uint64) []byte {
	b := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(b[i*8:], v)
	}
	return b
}

func packUint32s(vals ...uint32) []byte {
	b := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(b[i*4:], v)
	}
	return b
}

func uint64Array(vals ...uint64) *Array {
	return NewPrimitiveArray(PrimitiveType(8), len(vals), packUint64s(vals...), nil)
}

func binaryArray(vals ...string) *Array {
	offsets := make([]int64, len(vals)+1)
	data := []byte{}
	for i, v := range vals {
		data = append(data, v...)
		offsets[i+1] = int64(len(data))
	}
	return NewBinaryArray(BinaryType(), offsets, data, nil)
}

// roundtripPage encodes arr as a single page and decodes it back.
func roundtripPage(t *testing.T, arr *Array) *Array {
	t.Helper()
	w := NewPageWriter(nil)
	page, err := w.WritePage(nil, arr)
	if err != nil {
		t.Fatalf("WritePage: %v", err)
	}
	var r PageReader
	got, err := r.ReadPage(arr.typ, page, arr.rows)
	if err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	return got
}
