package strata

import (
	"fmt"
	"strings"
)

// Kind enumerates the physical shapes a column type can take.
type Kind int

const (
	Primitive Kind = iota
	Boolean
	Binary
	Null
	List
	Struct
	Map
)

func (k Kind) String() string {
	switch k {
	case Primitive:
		return "PRIMITIVE"
	case Boolean:
		return "BOOLEAN"
	case Binary:
		return "BINARY"
	case Null:
		return "NULL"
	case List:
		return "LIST"
	case Struct:
		return "STRUCT"
	case Map:
		return "MAP"
	default:
		return fmt.Sprintf("KIND(%d)", int(k))
	}
}

// Field pairs a struct field name with its type.
type Field struct {
	Name string
	Type *Type
}

// Type is the logical type of a column, a tagged variant over the supported
// shapes. Types are immutable once constructed and may be shared freely.
//
// Variable-length binary covers UTF-8 strings; the large binary and large
// list variants share the physical shape of their small counterparts because
// offsets are always materialized as 64-bit integers in memory.
type Type struct {
	Kind     Kind
	Nullable bool

	// Width is the value size in bytes for Primitive types.
	Width int

	// Elem is the element type of List types.
	Elem *Type

	// Key and Value are the entry types of Map types. Keys are never
	// nullable.
	Key   *Type
	Value *Type

	// Fields are the fields of Struct types.
	Fields []Field
}

// PrimitiveType returns the type of fixed-width values of the given size in
// bytes.
func PrimitiveType(width int) *Type {
	return &Type{Kind: Primitive, Width: width}
}

func BooleanType() *Type {
	return &Type{Kind: Boolean}
}

// BinaryType returns the type of variable-length byte strings, which also
// carries UTF-8 data.
func BinaryType() *Type {
	return &Type{Kind: Binary}
}

func NullType() *Type {
	return &Type{Kind: Null, Nullable: true}
}

func ListOf(elem *Type) *Type {
	return &Type{Kind: List, Elem: elem}
}

func StructOf(fields ...Field) *Type {
	return &Type{Kind: Struct, Fields: fields}
}

func MapOf(key, value *Type) *Type {
	return &Type{Kind: Map, Key: key, Value: value}
}

// Nullable returns a nullable copy of t.
func Nullable(t *Type) *Type {
	if t.Nullable {
		return t
	}
	n := *t
	n.Nullable = true
	return &n
}

func (t *Type) String() string {
	s := new(strings.Builder)
	t.format(s)
	return s.String()
}

func (t *Type) format(s *strings.Builder) {
	if t.Nullable && t.Kind != Null {
		s.WriteString("nullable ")
	}
	switch t.Kind {
	case Primitive:
		fmt.Fprintf(s, "primitive(%d)", t.Width)
	case Boolean:
		s.WriteString("boolean")
	case Binary:
		s.WriteString("binary")
	case Null:
		s.WriteString("null")
	case List:
		s.WriteString("list<")
		t.Elem.format(s)
		s.WriteString(">")
	case Struct:
		s.WriteString("struct<")
		for i, f := range t.Fields {
			if i > 0 {
				s.WriteString(", ")
			}
			s.WriteString(f.Name)
			s.WriteString(": ")
			f.Type.format(s)
		}
		s.WriteString(">")
	case Map:
		s.WriteString("map<")
		t.Key.format(s)
		s.WriteString(", ")
		t.Value.format(s)
		s.WriteString(">")
	}
}

// pageLayout selects one of the three page layouts. The layout is a function
// of the column type alone and is not repeated in the page bytes.
type pageLayout int

const (
	layoutPlain pageLayout = iota
	layoutNullable
	layoutNested
)

func (t *Type) layout() pageLayout {
	switch t.Kind {
	case List, Struct, Map:
		return layoutNested
	default:
		if t.Nullable && t.Kind != Null {
			return layoutNullable
		}
		return layoutPlain
	}
}

// check validates that t is a well-formed type the codec can encode.
func (t *Type) check() error {
	switch t.Kind {
	case Primitive:
		switch t.Width {
		case 1, 2, 4, 8, 16, 32:
			return nil
		default:
			return fmt.Errorf("unsupported primitive width: %d", t.Width)
		}
	case Boolean, Binary, Null:
		return nil
	case List:
		if t.Elem == nil {
			return fmt.Errorf("list type has no element type")
		}
		return t.Elem.check()
	case Struct:
		if len(t.Fields) == 0 {
			return fmt.Errorf("struct type has no fields")
		}
		for _, f := range t.Fields {
			if err := f.Type.check(); err != nil {
				return fmt.Errorf("field %q: %w", f.Name, err)
			}
		}
		return nil
	case Map:
		if t.Key == nil || t.Value == nil {
			return fmt.Errorf("map type has no key or value type")
		}
		if t.Key.Nullable {
			return fmt.Errorf("map keys cannot be nullable")
		}
		if err := t.Key.check(); err != nil {
			return err
		}
		return t.Value.check()
	default:
		return fmt.Errorf("unsupported type kind: %s", t.Kind)
	}
}
