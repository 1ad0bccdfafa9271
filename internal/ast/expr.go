package ast

import (
	"go/constant"
	"go/token"
	"strings"
)

// Node is implemented by every statement and expression.
type Node interface {
	Pos() token.Position
	String() string
}

// Expr is an expression. The set of expressions is closed.
type Expr interface {
	Node
	Type() *Type
	isExpr()
}

// BinaryOp represents binary operators.
type BinaryOp int

const (
	_ BinaryOp = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpShl
	OpAshr
	OpLshr
	OpBitAnd
	OpBitOr
	OpBitXor
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAnd
	OpOr
)

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpShl:
		return "<<"
	case OpAshr:
		return ">>"
	case OpLshr:
		return ">>>"
	case OpBitAnd:
		return "&"
	case OpBitOr:
		return "|"
	case OpBitXor:
		return "^"
	case OpEq:
		return "=="
	case OpNeq:
		return "!="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	default:
		return "?"
	}
}

// IsRelational reports whether op compares its operands.
func (op BinaryOp) IsRelational() bool {
	return op >= OpEq && op <= OpGte
}

// IsLogical reports whether op is a short-circuit boolean connective.
func (op BinaryOp) IsLogical() bool {
	return op == OpAnd || op == OpOr
}

// UnaryOp represents unary operators.
type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpNeg
	OpBitNot
	OpAddressOf
	OpDeref
)

func (op UnaryOp) String() string {
	switch op {
	case OpNot:
		return "!"
	case OpNeg:
		return "-"
	case OpBitNot:
		return "~"
	case OpAddressOf:
		return "&"
	case OpDeref:
		return "*"
	default:
		return "?"
	}
}

// IncDecOp selects the increment/decrement flavour.
type IncDecOp int

const (
	PreIncrement IncDecOp = iota
	PostIncrement
	PreDecrement
	PostDecrement
)

func (op IncDecOp) IsIncrement() bool { return op == PreIncrement || op == PostIncrement }
func (op IncDecOp) IsPost() bool      { return op == PostIncrement || op == PostDecrement }

func (op IncDecOp) String() string {
	switch op {
	case PreIncrement:
		return "preincrement"
	case PostIncrement:
		return "postincrement"
	case PreDecrement:
		return "predecrement"
	case PostDecrement:
		return "postdecrement"
	default:
		return "?"
	}
}

// ObjectStateKind selects the dynamic object predicate.
type ObjectStateKind int

const (
	ValidObject ObjectStateKind = iota
	DeallocatedObject
)

// Symbol references a named object.
type Symbol struct {
	Name string
	Typ  *Type
	Loc  token.Position
}

// Constant is a literal value.
type Constant struct {
	Value constant.Value
	Typ   *Type
	Loc   token.Position
}

// Unary is a unary operator application.
type Unary struct {
	Op  UnaryOp
	X   Expr
	Typ *Type
	Loc token.Position
}

// Binary is a binary operator application.
type Binary struct {
	Op  BinaryOp
	X   Expr
	Y   Expr
	Typ *Type
	Loc token.Position
}

// Member selects a struct component.
type Member struct {
	X     Expr
	Field string
	Typ   *Type
	Loc   token.Position
}

// Index selects an array element.
type Index struct {
	X     Expr
	Index Expr
	Typ   *Type
	Loc   token.Position
}

// Typecast converts X to Typ.
type Typecast struct {
	X   Expr
	Typ *Type
	Loc token.Position
}

// With is a functional update: X with the component Field (or the element
// at Index) replaced by Value.
type With struct {
	X     Expr
	Field string
	Index Expr
	Value Expr
	Typ   *Type
	Loc   token.Position
}

// Nondet is a value the verifier may choose freely.
type Nondet struct {
	Typ *Type
	Loc token.Position
}

// Cond is the conditional operator c ? a : b.
type Cond struct {
	Cond Expr
	Then Expr
	Else Expr
	Typ  *Type
	Loc  token.Position
}

// ObjectState is the valid_object / deallocated_object predicate over a
// pointer.
type ObjectState struct {
	Kind ObjectStateKind
	X    Expr
	Loc  token.Position
}

// IncDec is ++x, x++, --x or x--.
type IncDec struct {
	Op  IncDecOp
	X   Expr
	Loc token.Position
}

// AssignExpr is an embedded assignment. Op is zero for plain assignment and
// the arithmetic operator for compound forms such as x += e.
type AssignExpr struct {
	Op  BinaryOp
	Lhs Expr
	Rhs Expr
	Loc token.Position
}

// Call is a function call expression.
type Call struct {
	Func Expr
	Args []Expr
	Typ  *Type
	Loc  token.Position
}

// New allocates a fresh heap object of type Elem (Count elements when Count
// is set) and yields its address.
type New struct {
	Elem  *Type
	Count Expr
	Loc   token.Position
}

// Throw raises Value. ExceptionList names the exception types the value
// matches, most derived first.
type Throw struct {
	Value         Expr
	ExceptionList []string
	Loc           token.Position
}

// StmtExpr is a statement used as an expression; its value is the value of
// the last expression statement of Body.
type StmtExpr struct {
	Body Stmt
	Typ  *Type
	Loc  token.Position
}

func (*Symbol) isExpr()      {}
func (*Constant) isExpr()    {}
func (*Unary) isExpr()       {}
func (*Binary) isExpr()      {}
func (*Member) isExpr()      {}
func (*Index) isExpr()       {}
func (*Typecast) isExpr()    {}
func (*With) isExpr()        {}
func (*Nondet) isExpr()      {}
func (*Cond) isExpr()        {}
func (*ObjectState) isExpr() {}
func (*IncDec) isExpr()      {}
func (*AssignExpr) isExpr()  {}
func (*Call) isExpr()        {}
func (*New) isExpr()         {}
func (*Throw) isExpr()       {}
func (*StmtExpr) isExpr()    {}

func (e *Symbol) Pos() token.Position      { return e.Loc }
func (e *Constant) Pos() token.Position    { return e.Loc }
func (e *Unary) Pos() token.Position       { return e.Loc }
func (e *Binary) Pos() token.Position      { return e.Loc }
func (e *Member) Pos() token.Position      { return e.Loc }
func (e *Index) Pos() token.Position       { return e.Loc }
func (e *Typecast) Pos() token.Position    { return e.Loc }
func (e *With) Pos() token.Position        { return e.Loc }
func (e *Nondet) Pos() token.Position      { return e.Loc }
func (e *Cond) Pos() token.Position        { return e.Loc }
func (e *ObjectState) Pos() token.Position { return e.Loc }
func (e *IncDec) Pos() token.Position      { return e.Loc }
func (e *AssignExpr) Pos() token.Position  { return e.Loc }
func (e *Call) Pos() token.Position        { return e.Loc }
func (e *New) Pos() token.Position         { return e.Loc }
func (e *Throw) Pos() token.Position       { return e.Loc }
func (e *StmtExpr) Pos() token.Position    { return e.Loc }

func (e *Symbol) Type() *Type   { return e.Typ }
func (e *Constant) Type() *Type { return e.Typ }
func (e *Unary) Type() *Type    { return e.Typ }
func (e *Binary) Type() *Type   { return e.Typ }
func (e *Member) Type() *Type   { return e.Typ }
func (e *Index) Type() *Type    { return e.Typ }
func (e *Typecast) Type() *Type { return e.Typ }
func (e *With) Type() *Type     { return e.Typ }
func (e *Nondet) Type() *Type   { return e.Typ }
func (e *Cond) Type() *Type     { return e.Typ }
func (e *Call) Type() *Type     { return e.Typ }
func (e *StmtExpr) Type() *Type { return e.Typ }
func (*ObjectState) Type() *Type {
	return BoolType()
}
func (e *IncDec) Type() *Type     { return e.X.Type() }
func (e *AssignExpr) Type() *Type { return e.Lhs.Type() }
func (e *New) Type() *Type        { return PointerTo(e.Elem) }
func (*Throw) Type() *Type        { return EmptyType() }

func (e *Symbol) String() string { return e.Name }

func (e *Constant) String() string {
	if e.Value == nil {
		return "NULL"
	}
	if e.Value.Kind() == constant.Bool {
		if constant.BoolVal(e.Value) {
			return "TRUE"
		}
		return "FALSE"
	}
	return e.Value.ExactString()
}

func (e *Unary) String() string {
	return e.Op.String() + paren(e.X)
}

func (e *Binary) String() string {
	return paren(e.X) + " " + e.Op.String() + " " + paren(e.Y)
}

func (e *Member) String() string {
	return paren(e.X) + "." + e.Field
}

func (e *Index) String() string {
	return paren(e.X) + "[" + e.Index.String() + "]"
}

func (e *Typecast) String() string {
	return "(" + e.Typ.String() + ")" + paren(e.X)
}

func (e *With) String() string {
	if e.Index != nil {
		return paren(e.X) + " WITH [" + e.Index.String() + ":=" + e.Value.String() + "]"
	}
	return paren(e.X) + " WITH [." + e.Field + ":=" + e.Value.String() + "]"
}

func (e *Nondet) String() string {
	return "NONDET(" + e.Typ.String() + ")"
}

func (e *Cond) String() string {
	return paren(e.Cond) + " ? " + paren(e.Then) + " : " + paren(e.Else)
}

func (e *ObjectState) String() string {
	if e.Kind == DeallocatedObject {
		return "DEALLOCATED_OBJECT(" + e.X.String() + ")"
	}
	return "VALID_OBJECT(" + e.X.String() + ")"
}

func (e *IncDec) String() string {
	switch e.Op {
	case PreIncrement:
		return "++" + paren(e.X)
	case PreDecrement:
		return "--" + paren(e.X)
	case PostDecrement:
		return paren(e.X) + "--"
	default:
		return paren(e.X) + "++"
	}
}

func (e *AssignExpr) String() string {
	if e.Op == 0 {
		return e.Lhs.String() + " = " + e.Rhs.String()
	}
	return e.Lhs.String() + " " + e.Op.String() + "= " + e.Rhs.String()
}

func (e *Call) String() string {
	return e.Func.String() + "(" + joinExprs(e.Args) + ")"
}

func (e *New) String() string {
	if e.Count != nil {
		return "new " + e.Elem.String() + "[" + e.Count.String() + "]"
	}
	return "new " + e.Elem.String()
}

func (e *Throw) String() string {
	if e.Value == nil {
		return "throw"
	}
	return "throw " + e.Value.String()
}

func (e *StmtExpr) String() string {
	return "(" + e.Body.String() + ")"
}

func paren(e Expr) string {
	switch e.(type) {
	case *Symbol, *Constant, *Member, *Index, *Call, *Nondet, *ObjectState:
		return e.String()
	}
	return "(" + e.String() + ")"
}

func joinExprs(exprs []Expr) string {
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, ", ")
}
