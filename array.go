package strata

import "fmt"

// Array is an in-memory column fragment: an ordered sequence of typed values
// with an optional validity bitmap and, for variable-length and nested
// types, an offsets sequence.
//
// Buffers passed to constructors are borrowed for the lifetime of the array;
// arrays produced by the decode path own their buffers exclusively, there is
// no sharing with the page's backing storage.
type Array struct {
	typ      *Type
	rows     int
	validity []byte  // LSB-first bitmap, nil when every row is valid
	values   []byte  // Primitive: raw little-endian values; Boolean: bitmap
	offsets  []int64 // Binary, List, Map: rows+1 monotonic entries
	children []*Array
}

// NewPrimitiveArray wraps rows fixed-width values. values must hold
// rows*typ.Width bytes; validity may be nil when no row is null.
func NewPrimitiveArray(typ *Type, rows int, values, validity []byte) *Array {
	return &Array{typ: typ, rows: rows, values: values, validity: validity}
}

// NewBooleanArray wraps a bitmap of rows boolean values.
func NewBooleanArray(typ *Type, rows int, bitmap, validity []byte) *Array {
	return &Array{typ: typ, rows: rows, values: bitmap, validity: validity}
}

// NewBinaryArray wraps variable-length byte strings. offsets must hold
// len+1 monotonically increasing entries indexing into data.
func NewBinaryArray(typ *Type, offsets []int64, data, validity []byte) *Array {
	return &Array{typ: typ, rows: len(offsets) - 1, values: data, offsets: offsets, validity: validity}
}

// NewListArray wraps a list column over elem. offsets must hold len+1
// monotonically increasing entries indexing into elem rows.
func NewListArray(typ *Type, offsets []int64, elem *Array, validity []byte) *Array {
	return &Array{typ: typ, rows: len(offsets) - 1, offsets: offsets, children: []*Array{elem}, validity: validity}
}

// NewMapArray wraps a map column: offsets index into parallel keys and
// values arrays.
func NewMapArray(typ *Type, offsets []int64, keys, values *Array, validity []byte) *Array {
	return &Array{typ: typ, rows: len(offsets) - 1, offsets: offsets, children: []*Array{keys, values}, validity: validity}
}

// NewStructArray wraps a struct column over its field arrays, which must all
// hold rows rows, in the order of the type's fields.
func NewStructArray(typ *Type, rows int, validity []byte, fields ...*Array) *Array {
	return &Array{typ: typ, rows: rows, validity: validity, children: fields}
}

// NewNullArray returns an array of rows null values.
func NewNullArray(rows int) *Array {
	return &Array{typ: NullType(), rows: rows}
}

func (a *Array) Type() *Type { return a.typ }

func (a *Array) NumRows() int { return a.rows }

func (a *Array) NumNulls() int {
	if a.typ.Kind == Null {
		return a.rows
	}
	if a.validity == nil {
		return 0
	}
	return a.rows - countSet(a.validity, a.rows)
}

// IsNull reports whether row i is null.
func (a *Array) IsNull(i int) bool {
	if a.typ.Kind == Null {
		return true
	}
	return a.validity != nil && !getBit(a.validity, i)
}

// Validity returns the validity bitmap, nil when every row is valid.
func (a *Array) Validity() []byte { return a.validity }

// Values returns the raw value buffer: little-endian fixed-width values for
// Primitive arrays, a bitmap for Boolean arrays, flat bytes for Binary.
func (a *Array) Values() []byte { return a.values }

// Offsets returns the offsets sequence of Binary, List and Map arrays.
func (a *Array) Offsets() []int64 { return a.offsets }

// Child returns the i-th child array: the element array of a List, the keys
// (0) and values (1) of a Map, or the i-th field of a Struct.
func (a *Array) Child(i int) *Array { return a.children[i] }

func (a *Array) valid(i int) bool {
	return a.validity == nil || getBit(a.validity, i)
}

// Slice returns rows [lo,hi) of a. The slice borrows the value buffers of a
// where the representation permits and copies validity bits otherwise.
func (a *Array) Slice(lo, hi int) *Array {
	n := hi - lo
	s := &Array{typ: a.typ, rows: n, validity: sliceBits(a.validity, lo, n)}
	switch a.typ.Kind {
	case Primitive:
		w := a.typ.Width
		s.values = a.values[lo*w : hi*w]
	case Boolean:
		s.values = sliceBits(a.values, lo, n)
	case Binary:
		s.offsets = a.offsets[lo : hi+1]
		s.values = a.values
	case List, Map:
		s.offsets = a.offsets[lo : hi+1]
		s.children = a.children
	case Struct:
		s.children = make([]*Array, len(a.children))
		for i, c := range a.children {
			s.children[i] = c.Slice(lo, hi)
		}
	}
	return s
}

// take gathers the given rows of a into a fresh owned array.
func (a *Array) take(sel []int) *Array {
	n := len(sel)
	out := &Array{typ: a.typ, rows: n}
	if a.validity != nil {
		v := newBitmap(n)
		for i, j := range sel {
			if getBit(a.validity, j) {
				setBit(v, i)
			}
		}
		if !allSet(v, n) {
			out.validity = v
		}
	}
	switch a.typ.Kind {
	case Primitive:
		w := a.typ.Width
		out.values = make([]byte, n*w)
		for i, j := range sel {
			copy(out.values[i*w:(i+1)*w], a.values[j*w:(j+1)*w])
		}
	case Boolean:
		out.values = newBitmap(n)
		for i, j := range sel {
			if getBit(a.values, j) {
				setBit(out.values, i)
			}
		}
	case Binary:
		out.offsets = make([]int64, n+1)
		total := int64(0)
		for i, j := range sel {
			total += a.offsets[j+1] - a.offsets[j]
			out.offsets[i+1] = total
		}
		out.values = make([]byte, 0, total)
		for _, j := range sel {
			out.values = append(out.values, a.values[a.offsets[j]:a.offsets[j+1]]...)
		}
	case List, Map:
		out.offsets = make([]int64, n+1)
		childSel := make([]int, 0, n)
		for i, j := range sel {
			for k := a.offsets[j]; k < a.offsets[j+1]; k++ {
				childSel = append(childSel, int(k))
			}
			out.offsets[i+1] = int64(len(childSel))
		}
		out.children = make([]*Array, len(a.children))
		for i, c := range a.children {
			out.children[i] = c.take(childSel)
		}
	case Struct:
		out.children = make([]*Array, len(a.children))
		for i, c := range a.children {
			out.children[i] = c.take(sel)
		}
	}
	return out
}

// scatter spreads the rows of the dense array a over rows slots, placing one
// dense row at each set bit of mask and a null at each clear bit. mask must
// contain exactly a.rows set bits; a nil mask requires rows == a.rows and
// returns a unchanged.
func (a *Array) scatter(mask []byte, rows int) *Array {
	if mask == nil {
		return a
	}
	out := &Array{typ: a.typ, rows: rows}
	validity := newBitmap(rows)
	di := 0
	forEachSlot := func(f func(i, dense int, set bool)) {
		for i := 0; i < rows; i++ {
			if getBit(mask, i) {
				if a.valid(di) {
					setBit(validity, i)
				}
				f(i, di, true)
				di++
			} else {
				f(i, -1, false)
			}
		}
	}
	switch a.typ.Kind {
	case Primitive:
		w := a.typ.Width
		out.values = make([]byte, rows*w)
		forEachSlot(func(i, dense int, set bool) {
			if set {
				copy(out.values[i*w:(i+1)*w], a.values[dense*w:(dense+1)*w])
			}
		})
	case Boolean:
		out.values = newBitmap(rows)
		forEachSlot(func(i, dense int, set bool) {
			if set && getBit(a.values, dense) {
				setBit(out.values, i)
			}
		})
	case Binary:
		out.offsets = make([]int64, rows+1)
		forEachSlot(func(i, dense int, set bool) {
			n := int64(0)
			if set {
				n = a.offsets[dense+1] - a.offsets[dense]
			}
			out.offsets[i+1] = out.offsets[i] + n
		})
		first, last := a.offsets[0], a.offsets[a.rows]
		out.values = append([]byte(nil), a.values[first:last]...)
	case List, Map:
		out.offsets = make([]int64, rows+1)
		base := a.offsets[0]
		out.offsets[0] = base
		forEachSlot(func(i, dense int, set bool) {
			n := int64(0)
			if set {
				n = a.offsets[dense+1] - a.offsets[dense]
			}
			out.offsets[i+1] = out.offsets[i] + n
		})
		out.children = a.children
	case Struct:
		out.children = make([]*Array, len(a.children))
		for i, c := range a.children {
			out.children[i] = c.scatter(mask, rows)
		}
		forEachSlot(func(i, dense int, set bool) {})
	case Null:
		out.typ = NullType()
	}
	if !allSet(validity, rows) && a.typ.Kind != Null {
		out.validity = validity
	}
	return out
}

// concatArrays joins fragments of the same type in order, producing a fresh
// owned array.
func concatArrays(typ *Type, frags []*Array) (*Array, error) {
	if len(frags) == 1 {
		return frags[0], nil
	}
	rows := 0
	hasNulls := false
	for _, f := range frags {
		rows += f.rows
		hasNulls = hasNulls || f.validity != nil
	}
	out := &Array{typ: typ, rows: rows}
	if hasNulls && typ.Kind != Null {
		pos := 0
		var v []byte
		for _, f := range frags {
			v = appendBits(v, pos, f.validity, f.rows)
			pos += f.rows
		}
		out.validity = v
	}
	switch typ.Kind {
	case Primitive:
		for _, f := range frags {
			out.values = append(out.values, f.values...)
		}
	case Boolean:
		pos := 0
		for _, f := range frags {
			if f.values == nil && f.rows > 0 {
				return nil, fmt.Errorf("boolean fragment has no value bitmap")
			}
			out.values = appendBitmaps(out.values, pos, f.values, f.rows)
			pos += f.rows
		}
	case Binary:
		out.offsets = make([]int64, 1, rows+1)
		for _, f := range frags {
			base := f.offsets[0]
			for i := 0; i < f.rows; i++ {
				out.offsets = append(out.offsets, out.offsets[len(out.offsets)-1]+f.offsets[i+1]-f.offsets[i])
			}
			out.values = append(out.values, f.values[base:f.offsets[f.rows]]...)
		}
	case List, Map:
		out.offsets = make([]int64, 1, rows+1)
		children := make([][]*Array, len(frags))
		for i, f := range frags {
			first, last := f.offsets[0], f.offsets[f.rows]
			sub := make([]*Array, len(f.children))
			for j, c := range f.children {
				sub[j] = c.Slice(int(first), int(last))
			}
			children[i] = sub
			for r := 0; r < f.rows; r++ {
				out.offsets = append(out.offsets, out.offsets[len(out.offsets)-1]+f.offsets[r+1]-f.offsets[r])
			}
		}
		numChildren := len(frags[0].children)
		out.children = make([]*Array, numChildren)
		childType := []*Type{typ.Elem}
		if typ.Kind == Map {
			childType = []*Type{typ.Key, typ.Value}
		}
		for j := 0; j < numChildren; j++ {
			parts := make([]*Array, len(frags))
			for i := range frags {
				parts[i] = children[i][j]
			}
			c, err := concatArrays(childType[j], parts)
			if err != nil {
				return nil, err
			}
			out.children[j] = c
		}
	case Struct:
		out.children = make([]*Array, len(typ.Fields))
		for j := range typ.Fields {
			parts := make([]*Array, len(frags))
			for i, f := range frags {
				parts[i] = f.children[j]
			}
			c, err := concatArrays(typ.Fields[j].Type, parts)
			if err != nil {
				return nil, err
			}
			out.children[j] = c
		}
	case Null:
	}
	return out, nil
}

// emptyArray returns a zero-row array of the given type.
func emptyArray(typ *Type) *Array {
	out := &Array{typ: typ}
	switch typ.Kind {
	case Binary:
		out.offsets = []int64{0}
	case List:
		out.offsets = []int64{0}
		out.children = []*Array{emptyArray(typ.Elem)}
	case Map:
		out.offsets = []int64{0}
		out.children = []*Array{emptyArray(typ.Key), emptyArray(typ.Value)}
	case Struct:
		out.children = make([]*Array, len(typ.Fields))
		for i, f := range typ.Fields {
			out.children[i] = emptyArray(f.Type)
		}
	}
	return out
}

// appendBitmaps appends n bits of src (which may be nil only when n is zero)
// to dst holding pos bits.
func appendBitmaps(dst []byte, pos int, src []byte, n int) []byte {
	need := (pos + n + 7) / 8
	for len(dst) < need {
		dst = append(dst, 0)
	}
	for i := 0; i < n; i++ {
		if getBit(src, i) {
			setBit(dst, pos+i)
		}
	}
	return dst
}
