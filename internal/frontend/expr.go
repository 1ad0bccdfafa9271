package frontend

import (
	goast "go/ast"
	"go/constant"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/gnoswap-labs/gotoconv/internal/ast"
)

var binaryOps = map[token.Token]ast.BinaryOp{
	token.ADD:  ast.OpAdd,
	token.SUB:  ast.OpSub,
	token.MUL:  ast.OpMul,
	token.QUO:  ast.OpDiv,
	token.REM:  ast.OpMod,
	token.SHL:  ast.OpShl,
	token.SHR:  ast.OpAshr,
	token.AND:  ast.OpBitAnd,
	token.OR:   ast.OpBitOr,
	token.XOR:  ast.OpBitXor,
	token.EQL:  ast.OpEq,
	token.NEQ:  ast.OpNeq,
	token.LSS:  ast.OpLt,
	token.LEQ:  ast.OpLte,
	token.GTR:  ast.OpGt,
	token.GEQ:  ast.OpGte,
	token.LAND: ast.OpAnd,
	token.LOR:  ast.OpOr,
}

// expr translates an expression. Anything outside the modeled subset
// becomes a nondeterministic value of the right type, with a warning.
func (t *translator) expr(e goast.Expr) ast.Expr {
	e = astutil.Unparen(e)
	loc := t.position(e.Pos())
	tv := t.info.Types[e]

	if tv.Value != nil {
		return t.constant(tv.Value, t.typeOf(tv.Type), e.Pos())
	}

	switch e := e.(type) {
	case *goast.Ident:
		return t.ident(e)

	case *goast.BasicLit:
		v := constant.MakeFromLiteral(e.Value, e.Kind, 0)
		return t.constant(v, t.typeOf(tv.Type), e.Pos())

	case *goast.BinaryExpr:
		return t.binary(e)

	case *goast.UnaryExpr:
		x := t.expr(e.X)
		switch e.Op {
		case token.NOT:
			return ast.Not(x)
		case token.SUB:
			return &ast.Unary{Op: ast.OpNeg, X: x, Typ: x.Type(), Loc: loc}
		case token.XOR:
			return &ast.Unary{Op: ast.OpBitNot, X: x, Typ: x.Type(), Loc: loc}
		case token.ADD:
			return x
		case token.AND:
			if _, lit := astutil.Unparen(e.X).(*goast.CompositeLit); !lit {
				return &ast.Unary{Op: ast.OpAddressOf, X: x, Typ: ast.PointerTo(x.Type()), Loc: loc}
			}
		}

	case *goast.StarExpr:
		x := t.expr(e.X)
		return &ast.Unary{Op: ast.OpDeref, X: x, Typ: t.typeOf(tv.Type), Loc: loc}

	case *goast.SelectorExpr:
		if sel, ok := t.info.Selections[e]; ok {
			if sel.Kind() != types.FieldVal || len(sel.Index()) != 1 {
				break
			}
			return &ast.Member{X: t.implicitDeref(t.expr(e.X)), Field: e.Sel.Name, Typ: t.typeOf(tv.Type), Loc: loc}
		}
		if id, ok := e.X.(*goast.Ident); ok {
			if _, pkg := t.info.Uses[id].(*types.PkgName); pkg {
				return &ast.Symbol{Name: id.Name + "." + e.Sel.Name, Typ: t.typeOf(tv.Type), Loc: loc}
			}
		}

	case *goast.IndexExpr:
		if _, isMap := underlying(t.info.TypeOf(e.X)).(*types.Map); isMap {
			break
		}
		return &ast.Index{X: t.implicitDeref(t.expr(e.X)), Index: t.expr(e.Index), Typ: t.typeOf(tv.Type), Loc: loc}

	case *goast.CallExpr:
		return t.call(e)
	}

	return t.nondet(e, "unsupported expression")
}

func (t *translator) nondet(e goast.Expr, why string) ast.Expr {
	t.warn(e, "%s: %s", why, types.ExprString(e))
	return ast.NondetOf(t.typeOf(t.info.TypeOf(e)), t.position(e.Pos()))
}

// implicitDeref dereferences pointers to structs and arrays, which Go
// selects and indexes through.
func (t *translator) implicitDeref(x ast.Expr) ast.Expr {
	if typ := x.Type(); typ.IsPointer() {
		return &ast.Unary{Op: ast.OpDeref, X: x, Typ: typ.Elem, Loc: x.Pos()}
	}
	return x
}

func (t *translator) ident(id *goast.Ident) ast.Expr {
	loc := t.position(id.Pos())
	obj := t.info.Uses[id]
	if obj == nil {
		obj = t.info.Defs[id]
	}

	switch obj.(type) {
	case nil:
		switch id.Name {
		case "true", "false":
			return ast.BoolConst(id.Name == "true")
		}
		// undeclared, typically a verification builtin
		return &ast.Symbol{Name: id.Name, Typ: ast.CodeType(), Loc: loc}
	case *types.Nil:
		return &ast.Constant{Value: constant.MakeInt64(0), Typ: t.typeOf(t.info.TypeOf(id)), Loc: loc}
	}

	name, ok := t.names[obj]
	if !ok {
		name = obj.Name()
	}
	return &ast.Symbol{Name: name, Typ: t.typeOf(obj.Type()), Loc: loc}
}

func (t *translator) binary(e *goast.BinaryExpr) ast.Expr {
	x, y := t.expr(e.X), t.expr(e.Y)
	loc := t.position(e.OpPos)

	if e.Op == token.AND_NOT {
		y = &ast.Unary{Op: ast.OpBitNot, X: y, Typ: y.Type(), Loc: y.Pos()}
		return &ast.Binary{Op: ast.OpBitAnd, X: x, Y: y, Typ: x.Type(), Loc: loc}
	}

	op, ok := binaryOps[e.Op]
	if !ok {
		return t.nondet(e, "unsupported operator")
	}
	if op == ast.OpAshr && !isSigned(x.Type()) {
		op = ast.OpLshr
	}

	b := ast.Bin(op, x, y)
	b.Loc = loc
	if typ := t.info.TypeOf(e); typ != nil && !op.IsRelational() && !op.IsLogical() {
		b.Typ = t.typeOf(typ)
	}
	return b
}

func (t *translator) call(e *goast.CallExpr) ast.Expr {
	loc := t.position(e.Pos())

	// conversion T(x)
	if tv, ok := t.info.Types[e.Fun]; ok && tv.IsType() {
		if len(e.Args) != 1 {
			return t.nondet(e, "malformed conversion")
		}
		return ast.Cast(t.expr(e.Args[0]), t.typeOf(tv.Type))
	}

	if id, ok := astutil.Unparen(e.Fun).(*goast.Ident); ok {
		if b, ok := t.info.Uses[id].(*types.Builtin); ok {
			switch b.Name() {
			case "new":
				return &ast.New{Elem: t.typeOf(t.info.TypeOf(e.Args[0])), Loc: loc}
			case "panic":
				return t.throw(e)
			}
			return t.nondet(e, "unsupported builtin")
		}
	}

	typ := ast.EmptyType()
	switch r := t.info.TypeOf(e).(type) {
	case nil:
	case *types.Tuple:
		if r.Len() > 1 {
			return t.nondet(e, "multiple results")
		}
		if r.Len() == 1 {
			typ = t.typeOf(r.At(0).Type())
		}
	default:
		typ = t.typeOf(r)
	}

	fn := t.expr(e.Fun)
	if s, ok := fn.(*ast.Symbol); ok && !s.Typ.IsCode() {
		// calls through function values keep the callee expression
		s.Typ = ast.CodeType()
	}
	args := make([]ast.Expr, len(e.Args))
	for i, a := range e.Args {
		args[i] = t.expr(a)
	}
	return &ast.Call{Func: fn, Args: args, Typ: typ, Loc: loc}
}

// constant builds a literal of type typ. Untyped integers default to the
// platform int.
func (t *translator) constant(v constant.Value, typ *ast.Type, pos token.Pos) ast.Expr {
	loc := t.position(pos)
	switch v.Kind() {
	case constant.Bool:
		return &ast.Constant{Value: v, Typ: ast.BoolType(), Loc: loc}
	case constant.Int:
		if !typ.IsNumber() && !typ.IsEnum() {
			typ = goInt
		}
		return &ast.Constant{Value: v, Typ: typ, Loc: loc}
	case constant.Float:
		if typ.Kind == ast.KindInt {
			v = constant.ToInt(v)
		}
		return &ast.Constant{Value: v, Typ: typ, Loc: loc}
	case constant.String:
		c := ast.StringConst(constant.StringVal(v))
		c.Loc = loc
		return c
	}
	return ast.NondetOf(typ, loc)
}

func constantString(v constant.Value) string {
	if v.Kind() == constant.String {
		return constant.StringVal(v)
	}
	return v.ExactString()
}

func isSigned(t *ast.Type) bool {
	return t != nil && t.Kind == ast.KindInt && t.Signed
}

func underlying(t types.Type) types.Type {
	if t == nil {
		return nil
	}
	return t.Underlying()
}
