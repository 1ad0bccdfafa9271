package ast

import (
	"fmt"
	"strings"
)

// TypeKind classifies a Type.
type TypeKind int

const (
	KindEmpty TypeKind = iota
	KindBool
	KindInt
	KindFloat
	KindEnum
	KindPointer
	KindArray
	KindStruct
	KindCode
	KindString
)

func (k TypeKind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindEnum:
		return "enum"
	case KindPointer:
		return "pointer"
	case KindArray:
		return "array"
	case KindStruct:
		return "struct"
	case KindCode:
		return "code"
	case KindString:
		return "string"
	default:
		return "?"
	}
}

// Field is a named struct component.
type Field struct {
	Name string
	Type *Type
}

// Type describes the type of an expression or symbol.
type Type struct {
	Kind   TypeKind
	Width  int  // bit width of integers and floats
	Signed bool // integers only
	Elem   *Type
	Len    int64 // array length, -1 for an incomplete array
	Fields []Field
	Tag    string // struct or enum tag

	// Dynamic marks objects living in the heap-allocated set. Reads of
	// dynamic objects count as shared memory accesses.
	Dynamic bool
}

var (
	emptyType = &Type{Kind: KindEmpty}
	boolType  = &Type{Kind: KindBool}
	intType   = &Type{Kind: KindInt, Width: 32, Signed: true}
	uintType  = &Type{Kind: KindInt, Width: 32}
	indexType = &Type{Kind: KindInt, Width: 64, Signed: true}
	codeType  = &Type{Kind: KindCode}
)

// EmptyType is the type of expressions without a value.
func EmptyType() *Type { return emptyType }

// BoolType returns the boolean type.
func BoolType() *Type { return boolType }

// IntType returns the default signed integer type.
func IntType() *Type { return intType }

// UintType returns the default unsigned integer type.
func UintType() *Type { return uintType }

// IndexType is the type used for pointer arithmetic offsets.
func IndexType() *Type { return indexType }

// CodeType is the type of functions.
func CodeType() *Type { return codeType }

// IntN returns an integer type of the given width and signedness.
func IntN(width int, signed bool) *Type {
	return &Type{Kind: KindInt, Width: width, Signed: signed}
}

// FloatN returns a floating point type of the given width.
func FloatN(width int) *Type {
	return &Type{Kind: KindFloat, Width: width}
}

// PointerTo returns a pointer type to elem.
func PointerTo(elem *Type) *Type {
	return &Type{Kind: KindPointer, Width: 64, Elem: elem}
}

// ArrayOf returns an array type with n elements. Use -1 for an incomplete
// array.
func ArrayOf(elem *Type, n int64) *Type {
	return &Type{Kind: KindArray, Elem: elem, Len: n}
}

// StructOf returns a struct type with the given tag and fields.
func StructOf(tag string, fields ...Field) *Type {
	return &Type{Kind: KindStruct, Tag: tag, Fields: fields}
}

// EnumOf returns an enum type with the given tag.
func EnumOf(tag string) *Type {
	return &Type{Kind: KindEnum, Tag: tag, Width: 32, Signed: true}
}

func (t *Type) IsEmpty() bool   { return t == nil || t.Kind == KindEmpty }
func (t *Type) IsBool() bool    { return t != nil && t.Kind == KindBool }
func (t *Type) IsPointer() bool { return t != nil && t.Kind == KindPointer }
func (t *Type) IsArray() bool   { return t != nil && t.Kind == KindArray }
func (t *Type) IsCode() bool    { return t != nil && t.Kind == KindCode }
func (t *Type) IsEnum() bool    { return t != nil && t.Kind == KindEnum }
func (t *Type) IsStruct() bool  { return t != nil && t.Kind == KindStruct }

// IsNumber reports whether t is an integer or floating point type.
func (t *Type) IsNumber() bool {
	return t != nil && (t.Kind == KindInt || t.Kind == KindFloat)
}

// Field returns the named struct component.
func (t *Type) Field(name string) (Field, bool) {
	if t == nil {
		return Field{}, false
	}
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// AddField appends a component to a struct type in place. Struct types are
// shared by pointer, so every expression typed with t observes the new
// component.
func (t *Type) AddField(name string, typ *Type) {
	t.Fields = append(t.Fields, Field{Name: name, Type: typ})
}

// Equal reports structural type equality. Struct types compare by tag when
// both are tagged.
func (t *Type) Equal(o *Type) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil {
		return t.IsEmpty() && o.IsEmpty()
	}
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindInt, KindFloat:
		return t.Width == o.Width && t.Signed == o.Signed
	case KindEnum:
		return t.Tag == o.Tag
	case KindPointer:
		return t.Elem.Equal(o.Elem)
	case KindArray:
		return t.Len == o.Len && t.Elem.Equal(o.Elem)
	case KindStruct:
		if t.Tag != "" || o.Tag != "" {
			return t.Tag == o.Tag
		}
		if len(t.Fields) != len(o.Fields) {
			return false
		}
		for i := range t.Fields {
			if t.Fields[i].Name != o.Fields[i].Name || !t.Fields[i].Type.Equal(o.Fields[i].Type) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (t *Type) String() string {
	if t == nil {
		return "empty"
	}
	switch t.Kind {
	case KindInt:
		if t.Signed {
			return fmt.Sprintf("signed_bv[%d]", t.Width)
		}
		return fmt.Sprintf("unsigned_bv[%d]", t.Width)
	case KindFloat:
		return fmt.Sprintf("float[%d]", t.Width)
	case KindEnum:
		return "enum " + t.Tag
	case KindPointer:
		return "pointer(" + t.Elem.String() + ")"
	case KindArray:
		if t.Len < 0 {
			return "array[](" + t.Elem.String() + ")"
		}
		return fmt.Sprintf("array[%d](%s)", t.Len, t.Elem)
	case KindStruct:
		if t.Tag != "" {
			return "struct " + t.Tag
		}
		parts := make([]string, 0, len(t.Fields))
		for _, f := range t.Fields {
			parts = append(parts, f.Name+": "+f.Type.String())
		}
		return "struct {" + strings.Join(parts, "; ") + "}"
	default:
		return t.Kind.String()
	}
}
