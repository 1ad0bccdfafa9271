package ast

import (
	"go/constant"
	"go/token"
)

// Helper functions to construct expression nodes. The results carry no
// location; callers that need one set Loc on the returned node.

// Sym creates a symbol reference.
func Sym(name string, typ *Type) *Symbol {
	return &Symbol{Name: name, Typ: typ}
}

// IntConst creates an integer literal of the given type.
func IntConst(v int64, typ *Type) *Constant {
	return &Constant{Value: constant.MakeInt64(v), Typ: typ}
}

// Int creates a literal of the default integer type.
func Int(v int64) *Constant {
	return IntConst(v, IntType())
}

// BoolConst creates a boolean literal.
func BoolConst(v bool) *Constant {
	return &Constant{Value: constant.MakeBool(v), Typ: BoolType()}
}

func True() *Constant  { return BoolConst(true) }
func False() *Constant { return BoolConst(false) }

// Null creates a null pointer of the given pointer type.
func Null(typ *Type) *Constant {
	return &Constant{Value: constant.MakeInt64(0), Typ: typ}
}

// StringConst creates a string literal.
func StringConst(v string) *Constant {
	return &Constant{Value: constant.MakeString(v), Typ: &Type{Kind: KindString}}
}

// Bin creates a binary expression, deriving its type from the operator:
// comparisons and connectives are boolean, arithmetic takes the type of x.
func Bin(op BinaryOp, x, y Expr) *Binary {
	typ := x.Type()
	if op.IsRelational() || op.IsLogical() {
		typ = BoolType()
	}
	return &Binary{Op: op, X: x, Y: y, Typ: typ, Loc: x.Pos()}
}

func Eq(x, y Expr) *Binary  { return Bin(OpEq, x, y) }
func Neq(x, y Expr) *Binary { return Bin(OpNeq, x, y) }
func Lt(x, y Expr) *Binary  { return Bin(OpLt, x, y) }
func Lte(x, y Expr) *Binary { return Bin(OpLte, x, y) }
func Gt(x, y Expr) *Binary  { return Bin(OpGt, x, y) }
func Gte(x, y Expr) *Binary { return Bin(OpGte, x, y) }
func Add(x, y Expr) *Binary { return Bin(OpAdd, x, y) }
func Sub(x, y Expr) *Binary { return Bin(OpSub, x, y) }

// Not negates a boolean expression. Literals fold and double negation
// cancels.
func Not(e Expr) Expr {
	if c, ok := e.(*Constant); ok && c.Typ.IsBool() && c.Value != nil {
		return &Constant{Value: constant.MakeBool(!constant.BoolVal(c.Value)), Typ: BoolType(), Loc: c.Loc}
	}
	if u, ok := e.(*Unary); ok && u.Op == OpNot {
		return u.X
	}
	return &Unary{Op: OpNot, X: e, Typ: BoolType(), Loc: e.Pos()}
}

// And conjoins operands left to right. No operands yield true and a single
// operand is returned unchanged.
func And(ops ...Expr) Expr {
	return chain(OpAnd, True(), ops)
}

// Or disjoins operands left to right. No operands yield false.
func Or(ops ...Expr) Expr {
	return chain(OpOr, False(), ops)
}

func chain(op BinaryOp, unit Expr, ops []Expr) Expr {
	if len(ops) == 0 {
		return unit
	}
	result := ops[0]
	for _, e := range ops[1:] {
		result = Bin(op, result, e)
	}
	return result
}

// AddressOf takes the address of e.
func AddressOf(e Expr) *Unary {
	return &Unary{Op: OpAddressOf, X: e, Typ: PointerTo(e.Type()), Loc: e.Pos()}
}

// Deref dereferences the pointer e.
func Deref(e Expr) *Unary {
	var elem *Type
	if t := e.Type(); t.IsPointer() {
		elem = t.Elem
	}
	return &Unary{Op: OpDeref, X: e, Typ: elem, Loc: e.Pos()}
}

// MemberOf selects the named component of the struct valued e.
func MemberOf(e Expr, field string) *Member {
	f, _ := e.Type().Field(field)
	return &Member{X: e, Field: field, Typ: f.Type, Loc: e.Pos()}
}

// IndexOf selects element i of the array valued e.
func IndexOf(e, i Expr) *Index {
	var elem *Type
	if t := e.Type(); t != nil {
		elem = t.Elem
	}
	return &Index{X: e, Index: i, Typ: elem, Loc: e.Pos()}
}

// Cast converts e to typ. Casting to the type e already has returns e.
func Cast(e Expr, typ *Type) Expr {
	if e.Type().Equal(typ) {
		return e
	}
	return &Typecast{X: e, Typ: typ, Loc: e.Pos()}
}

// NondetOf returns a fresh nondeterministic value of typ.
func NondetOf(typ *Type, pos token.Position) *Nondet {
	return &Nondet{Typ: typ, Loc: pos}
}

// IsTrue reports whether e is the literal true.
func IsTrue(e Expr) bool {
	c, ok := e.(*Constant)
	return ok && c.Value != nil && c.Value.Kind() == constant.Bool && constant.BoolVal(c.Value)
}

// IsFalse reports whether e is the literal false.
func IsFalse(e Expr) bool {
	c, ok := e.(*Constant)
	return ok && c.Value != nil && c.Value.Kind() == constant.Bool && !constant.BoolVal(c.Value)
}

// IsConstant reports whether e is built from literals only.
func IsConstant(e Expr) bool {
	switch e := e.(type) {
	case *Constant:
		return true
	case *Unary:
		return e.Op != OpAddressOf && e.Op != OpDeref && IsConstant(e.X)
	case *Binary:
		return IsConstant(e.X) && IsConstant(e.Y)
	case *Typecast:
		return IsConstant(e.X)
	case *Cond:
		return IsConstant(e.Cond) && IsConstant(e.Then) && IsConstant(e.Else)
	default:
		return false
	}
}

// HasSideEffects reports whether e contains an effectful form.
func HasSideEffects(e Expr) bool {
	found := false
	Inspect(e, func(n Node) bool {
		if found {
			return false
		}
		switch n.(type) {
		case *IncDec, *AssignExpr, *Call, *New, *Throw, *StmtExpr:
			found = true
			return false
		}
		return true
	})
	return found
}

// RootSymbol returns the symbol at the base of a chain of member, index,
// dereference and cast nodes, or nil.
func RootSymbol(e Expr) *Symbol {
	for {
		switch x := e.(type) {
		case *Symbol:
			return x
		case *Member:
			e = x.X
		case *Index:
			e = x.X
		case *Typecast:
			e = x.X
		case *Unary:
			if x.Op != OpDeref && x.Op != OpAddressOf {
				return nil
			}
			e = x.X
		default:
			return nil
		}
	}
}
