package frontend

import (
	"go/types"

	"github.com/gnoswap-labs/gotoconv/internal/ast"
)

var (
	goInt    = ast.IntN(64, true)
	goUint   = ast.IntN(64, false)
	goString = &ast.Type{Kind: ast.KindString}
)

// typeOf maps a Go type onto the converter's type model. Maps, channels
// and interfaces have no counterpart and map to the empty type.
func (t *translator) typeOf(typ types.Type) *ast.Type {
	if typ == nil {
		return ast.EmptyType()
	}
	if t.typeCache == nil {
		t.typeCache = make(map[types.Type]*ast.Type)
	}
	if known, ok := t.typeCache[typ]; ok {
		return known
	}

	switch typ := typ.(type) {
	case *types.Basic:
		return basicType(typ)

	case *types.Named:
		st, ok := typ.Underlying().(*types.Struct)
		if !ok {
			return t.typeOf(typ.Underlying())
		}
		// registered before the fields so self references terminate
		out := &ast.Type{Kind: ast.KindStruct, Tag: typ.Obj().Name()}
		t.typeCache[typ] = out
		out.Fields = t.fields(st)
		return out

	case *types.Pointer:
		out := &ast.Type{Kind: ast.KindPointer, Width: 64}
		t.typeCache[typ] = out
		out.Elem = t.typeOf(typ.Elem())
		return out

	case *types.Array:
		return ast.ArrayOf(t.typeOf(typ.Elem()), typ.Len())

	case *types.Slice:
		return ast.ArrayOf(t.typeOf(typ.Elem()), -1)

	case *types.Struct:
		return ast.StructOf("", t.fields(typ)...)

	case *types.Signature:
		return ast.CodeType()
	}
	return ast.EmptyType()
}

func (t *translator) fields(st *types.Struct) []ast.Field {
	fields := make([]ast.Field, st.NumFields())
	for i := range fields {
		f := st.Field(i)
		fields[i] = ast.Field{Name: f.Name(), Type: t.typeOf(f.Type())}
	}
	return fields
}

func basicType(b *types.Basic) *ast.Type {
	switch b.Kind() {
	case types.Bool, types.UntypedBool:
		return ast.BoolType()
	case types.Int, types.Int64, types.UntypedInt:
		return goInt
	case types.Int8:
		return ast.IntN(8, true)
	case types.Int16:
		return ast.IntN(16, true)
	case types.Int32, types.UntypedRune:
		return ast.IntN(32, true)
	case types.Uint, types.Uint64, types.Uintptr:
		return goUint
	case types.Uint8:
		return ast.IntN(8, false)
	case types.Uint16:
		return ast.IntN(16, false)
	case types.Uint32:
		return ast.IntN(32, false)
	case types.Float32:
		return ast.FloatN(32)
	case types.Float64, types.UntypedFloat:
		return ast.FloatN(64)
	case types.String, types.UntypedString:
		return goString
	case types.UntypedNil:
		return ast.PointerTo(ast.EmptyType())
	}
	return ast.EmptyType()
}
