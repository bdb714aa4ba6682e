package strata

import "fmt"

// The nesting codec linearizes list/struct/map structure into one
// repetition-level stream and one definition-level stream per page, plus a
// sequence of value blocks for the leaves below the nesting.
//
// Levels follow the Dremel numbering: every repeated node of the type adds
// one repetition level, every nullable node and every repeated node add one
// definition level. The streams run along the chain of repeated nodes from
// the top of the type down to its branch point: the first struct, or the
// leaf. Struct fields below the branch point are encoded recursively as
// their own block sequences over the rows where the struct is present, so
// sibling fields share the structural levels without duplicating them.

// chainNode carries the level budget of one repeated node.
type chainNode struct {
	typ *Type

	// rep is the repetition level of elements of this node.
	rep uint8

	// defNull is the definition level of a null slot; only meaningful when
	// the node is nullable.
	defNull uint8

	// defEmpty is the definition level of a present, empty slot.
	defEmpty uint8

	// defElem is the smallest definition level implying the slot holds at
	// least one element.
	defElem uint8
}

// levelChain is the run of repeated nodes from the top of a nested type to
// its branch point, with depth tracked explicitly so level streams can be
// validated against a statically known budget.
type levelChain struct {
	nodes  []chainNode
	bottom *Type
	maxRep uint8
	maxDef uint8
}

// entriesType is the synthesized element type of a map: a required struct
// of its key and value.
func entriesType(t *Type) *Type {
	return StructOf(Field{Name: "key", Type: t.Key}, Field{Name: "value", Type: t.Value})
}

// elemArray returns the flattened element array of a list or map.
func elemArray(a *Array) *Array {
	if a.typ.Kind == Map {
		return NewStructArray(entriesType(a.typ), a.children[0].rows, nil, a.children[0], a.children[1])
	}
	return a.children[0]
}

func newLevelChain(t *Type) levelChain {
	c := levelChain{}
	d, r := uint8(0), uint8(0)
	for t.Kind == List || t.Kind == Map {
		n := chainNode{typ: t}
		if t.Nullable {
			n.defNull = d
			d++
		}
		n.defEmpty = d
		d++
		n.defElem = d
		r++
		n.rep = r
		c.nodes = append(c.nodes, n)
		if t.Kind == Map {
			t = entriesType(t)
		} else {
			t = t.Elem
		}
	}
	c.bottom = t
	if t.Nullable {
		d++
	}
	c.maxRep = r
	c.maxDef = d
	return c
}

// nestedEncoder walks one page slice of a nested column and accumulates its
// level streams plus the selection of present bottom slots.
type nestedEncoder struct {
	chain  levelChain
	levels []*Array // arrays at each chain depth, bottom last

	reps []uint8
	defs []uint8
	sel  []int // rows of the bottom array holding present values
	// slots counts rebuilt offsets entries per chain node, it feeds the
	// offsets_len header field.
	slots []int
}

func newNestedEncoder(arr *Array) *nestedEncoder {
	chain := newLevelChain(arr.typ)
	levels := make([]*Array, len(chain.nodes)+1)
	levels[0] = arr
	for i := range chain.nodes {
		levels[i+1] = elemArray(levels[i])
	}
	return &nestedEncoder{
		chain:  chain,
		levels: levels,
		slots:  make([]int, len(chain.nodes)),
	}
}

func (e *nestedEncoder) bottom() *Array {
	return e.levels[len(e.levels)-1]
}

func (e *nestedEncoder) encode() {
	top := e.levels[0]
	for i := 0; i < top.rows; i++ {
		e.slot(0, i, 0)
	}
}

func (e *nestedEncoder) emit(rep, def uint8) {
	e.reps = append(e.reps, rep)
	e.defs = append(e.defs, def)
}

// slot emits the entries of one slot at chain depth ci; rep is the
// repetition level of the first entry emitted for the slot.
func (e *nestedEncoder) slot(ci, row int, rep uint8) {
	a := e.levels[ci]
	if ci == len(e.chain.nodes) {
		if a.typ.Kind == Null || !a.valid(row) {
			e.emit(rep, e.chain.maxDef-1)
		} else {
			e.emit(rep, e.chain.maxDef)
			e.sel = append(e.sel, row)
		}
		return
	}

	n := &e.chain.nodes[ci]
	e.slots[ci]++
	if !a.valid(row) {
		e.emit(rep, n.defNull)
		return
	}
	lo, hi := a.offsets[row], a.offsets[row+1]
	if lo == hi {
		e.emit(rep, n.defEmpty)
		return
	}
	for k := lo; k < hi; k++ {
		r := rep
		if k > lo {
			r = n.rep
		}
		e.slot(ci+1, int(k), r)
	}
}

// offsetsLen is the total number of offsets entries a decoder will rebuild
// from the level streams, one offsets array per repeated node.
func (e *nestedEncoder) offsetsLen() int {
	total := 0
	for _, n := range e.slots {
		total += n + 1
	}
	return total
}

// nodeState accumulates the reconstruction of one repeated node: the
// offsets of its slots and their validity.
type nodeState struct {
	offsets []int64
	valids  []bool
	nulls   bool
}

// nestedDecoder replays level streams and rebuilds the per-node offsets,
// validity, and the present-mask of bottom slots.
type nestedDecoder struct {
	chain levelChain
	reps  []uint8
	defs  []uint8

	states      []nodeState
	bottomMask  []bool
	bottomNulls bool
}

func newNestedDecoder(typ *Type, reps, defs []uint8) *nestedDecoder {
	chain := newLevelChain(typ)
	return &nestedDecoder{
		chain:  chain,
		reps:   reps,
		defs:   defs,
		states: make([]nodeState, len(chain.nodes)),
	}
}

// childCount returns the number of slots created so far below node index j.
func (d *nestedDecoder) childCount(j int) int64 {
	if j+1 < len(d.states) {
		return int64(len(d.states[j+1].offsets))
	}
	return int64(len(d.bottomMask))
}

// replay validates the level streams and rebuilds the structural state.
func (d *nestedDecoder) replay() error {
	if len(d.reps) != len(d.defs) {
		return fmt.Errorf("%w: %d repetition levels but %d definition levels", ErrCorruptPage, len(d.reps), len(d.defs))
	}
	n := len(d.chain.nodes)
	for i := range d.reps {
		rep, def := d.reps[i], d.defs[i]
		if rep > d.chain.maxRep {
			return fmt.Errorf("%w: repetition level %d exceeds max depth %d", ErrCorruptPage, rep, d.chain.maxRep)
		}
		if def > d.chain.maxDef {
			return fmt.Errorf("%w: definition level %d exceeds max depth %d", ErrCorruptPage, def, d.chain.maxDef)
		}
		if i == 0 && rep != 0 {
			return fmt.Errorf("%w: first value repeats at level %d", ErrCorruptPage, rep)
		}

		// deepest is the 1-based chain depth the entry describes; n+1 means
		// the entry reaches the branch point.
		deepest := n + 1
		for l := 1; l <= n; l++ {
			if def < d.chain.nodes[l-1].defElem {
				deepest = l
				break
			}
		}
		if int(rep) >= deepest {
			return fmt.Errorf("%w: repetition level %d below definition depth %d", ErrCorruptPage, rep, deepest)
		}

		for l := int(rep) + 1; l <= deepest && l <= n; l++ {
			node := &d.chain.nodes[l-1]
			st := &d.states[l-1]
			st.offsets = append(st.offsets, d.childCount(l-1))
			valid := true
			if l == deepest {
				switch {
				case node.typ.Nullable && def == node.defNull:
					valid = false
				case def == node.defEmpty:
				default:
					return fmt.Errorf("%w: definition level %d does not match depth %d", ErrCorruptPage, def, l)
				}
			}
			st.valids = append(st.valids, valid)
			st.nulls = st.nulls || !valid
		}

		if deepest == n+1 {
			present := def == d.chain.maxDef
			if !present {
				if !d.chain.bottom.Nullable || def != d.chain.maxDef-1 {
					return fmt.Errorf("%w: definition level %d does not reach a value", ErrCorruptPage, def)
				}
				d.bottomNulls = true
			}
			d.bottomMask = append(d.bottomMask, present)
		}
	}

	// close the offsets arrays
	for j := range d.states {
		d.states[j].offsets = append(d.states[j].offsets, d.childCount(j))
	}
	return nil
}

func (d *nestedDecoder) numRows() int {
	if len(d.states) > 0 {
		return len(d.states[0].offsets) - 1
	}
	return len(d.bottomMask)
}

func (d *nestedDecoder) numPresent() int {
	c := 0
	for _, p := range d.bottomMask {
		if p {
			c++
		}
	}
	return c
}

func (d *nestedDecoder) offsetsLen() int {
	total := 0
	for _, st := range d.states {
		total += len(st.offsets)
	}
	return total
}

// mask returns the present-mask of bottom slots as a bitmap, or nil when
// every bottom slot holds a value.
func (d *nestedDecoder) mask() []byte {
	if !d.bottomNulls {
		return nil
	}
	m := newBitmap(len(d.bottomMask))
	for i, p := range d.bottomMask {
		if p {
			setBit(m, i)
		}
	}
	return m
}

// assemble wraps the decoded dense bottom array back into the nested
// structure described by the replayed levels.
func (d *nestedDecoder) assemble(dense *Array) *Array {
	var arr *Array
	if d.chain.bottom.Kind == Null {
		arr = NewNullArray(len(d.bottomMask))
	} else {
		arr = dense.scatter(d.mask(), len(d.bottomMask))
	}
	for j := len(d.states) - 1; j >= 0; j-- {
		node := d.chain.nodes[j]
		st := d.states[j]
		var validity []byte
		if st.nulls {
			validity = newBitmap(len(st.valids))
			for i, v := range st.valids {
				if v {
					setBit(validity, i)
				}
			}
		}
		if node.typ.Kind == Map {
			arr = NewMapArray(node.typ, st.offsets, arr.children[0], arr.children[1], validity)
		} else {
			arr = NewListArray(node.typ, st.offsets, arr, validity)
		}
	}
	return arr
}
