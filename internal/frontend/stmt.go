package frontend

import (
	"bytes"
	"fmt"
	goast "go/ast"
	"go/format"
	"go/token"
	"go/types"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/tools/go/ast/astutil"

	"github.com/gnoswap-labs/gotoconv/internal/ast"
	"github.com/gnoswap-labs/gotoconv/internal/diag"
	"github.com/gnoswap-labs/gotoconv/internal/symtab"
)

type translator struct {
	fset   *token.FileSet
	info   *types.Info
	pkg    *types.Package
	table  *symtab.Table
	sink   diag.Sink
	logger *zap.Logger

	// unique names of the objects seen so far
	names map[types.Object]string
	typeCache map[types.Type]*ast.Type

	fn     string
	counts map[string]int
}

func (t *translator) position(p token.Pos) token.Position {
	return t.fset.Position(p)
}

func (t *translator) warn(n goast.Node, format string, args ...any) {
	t.sink.Warn(t.position(n.Pos()), Rule, fmt.Sprintf(format, args...))
}

// local registers a parameter or local variable under a name unique to
// the function: fn::x, then fn::x.2 for the next x declared.
func (t *translator) local(obj types.Object) (*ast.Symbol, error) {
	t.counts[obj.Name()]++
	name := t.fn + "::" + obj.Name()
	if n := t.counts[obj.Name()]; n > 1 {
		name = fmt.Sprintf("%s.%d", name, n)
	}
	s := &symtab.Symbol{
		Name:     name,
		BaseName: obj.Name(),
		Type:     t.typeOf(obj.Type()),
		Lvalue:   true,
		Module:   obj.Pkg().Name(),
		Location: t.position(obj.Pos()),
	}
	if err := t.table.Insert(s); err != nil {
		return nil, diag.Errorf(s.Location, "%v", err)
	}
	t.names[obj] = name
	return s.Expr(), nil
}

func (t *translator) block(b *goast.BlockStmt) (*ast.Block, error) {
	out := &ast.Block{Loc: t.position(b.Pos())}
	if err := t.stmts(b.List, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *translator) stmts(list []goast.Stmt, out *ast.Block) error {
	for _, s := range list {
		stmts, err := t.stmt(s)
		if err != nil {
			return err
		}
		out.Stmts = append(out.Stmts, stmts...)
	}
	return nil
}

// stmt translates one statement. Declarations of several names produce
// several statements.
func (t *translator) stmt(s goast.Stmt) ([]ast.Stmt, error) {
	loc := t.position(s.Pos())

	switch s := s.(type) {
	case *goast.BlockStmt:
		b, err := t.block(s)
		if err != nil {
			return nil, err
		}
		return []ast.Stmt{b}, nil

	case *goast.EmptyStmt:
		return []ast.Stmt{&ast.Skip{Loc: loc}}, nil

	case *goast.ExprStmt:
		st, err := t.exprStmt(s)
		if err != nil {
			return nil, err
		}
		return []ast.Stmt{st}, nil

	case *goast.IncDecStmt:
		op := ast.PostIncrement
		if s.Tok == token.DEC {
			op = ast.PostDecrement
		}
		return []ast.Stmt{&ast.ExprStmt{X: &ast.IncDec{Op: op, X: t.expr(s.X), Loc: loc}, Loc: loc}}, nil

	case *goast.AssignStmt:
		return t.assign(s)

	case *goast.DeclStmt:
		return t.declStmt(s)

	case *goast.IfStmt:
		st, err := t.ifStmt(s)
		if err != nil {
			return nil, err
		}
		return []ast.Stmt{st}, nil

	case *goast.ForStmt:
		st, err := t.forStmt(s)
		if err != nil {
			return nil, err
		}
		return []ast.Stmt{st}, nil

	case *goast.SwitchStmt:
		st, err := t.switchStmt(s)
		if err != nil {
			return nil, err
		}
		return []ast.Stmt{st}, nil

	case *goast.BranchStmt:
		st, err := t.branch(s)
		if err != nil {
			return nil, err
		}
		return []ast.Stmt{st}, nil

	case *goast.LabeledStmt:
		body, err := t.stmt(s.Stmt)
		if err != nil {
			return nil, err
		}
		var inner ast.Stmt = &ast.Skip{Loc: loc}
		switch len(body) {
		case 0:
		case 1:
			inner = body[0]
		default:
			inner = &ast.Block{Stmts: body, Loc: loc}
		}
		return []ast.Stmt{&ast.Label{Name: s.Label.Name, Body: inner, Loc: loc}}, nil

	case *goast.ReturnStmt:
		switch len(s.Results) {
		case 0:
			return []ast.Stmt{&ast.Return{Loc: loc}}, nil
		case 1:
			return []ast.Stmt{&ast.Return{Value: t.expr(s.Results[0]), Loc: loc}}, nil
		}
		return []ast.Stmt{t.opaque(s, "multiple results")}, nil
	}

	return []ast.Stmt{t.opaque(s, "unsupported statement")}, nil
}

// opaque keeps a statement the converter cannot model, with a warning.
func (t *translator) opaque(s goast.Stmt, why string) *ast.Opaque {
	text := nodeText(t.fset, s)
	t.warn(s, "%s: %s", why, text)
	tag := strings.TrimPrefix(fmt.Sprintf("%T", s), "*ast.")
	return &ast.Opaque{Tag: tag, Text: text, Loc: t.position(s.Pos())}
}

func nodeText(fset *token.FileSet, n goast.Node) string {
	var buf bytes.Buffer
	if err := format.Node(&buf, fset, n); err != nil {
		return fmt.Sprintf("%T", n)
	}
	return buf.String()
}

// builtin names a verification builtin call: assert, assume, atomic_begin,
// atomic_end or panic. It returns "" for anything else.
func (t *translator) builtin(call *goast.CallExpr) string {
	id, ok := astutil.Unparen(call.Fun).(*goast.Ident)
	if !ok {
		return ""
	}
	switch id.Name {
	case "assert", "assume", "atomic_begin", "atomic_end":
		// a package level declaration of the same name still counts
		if obj := t.info.Uses[id]; obj != nil && obj.Pkg() != t.pkg {
			return ""
		}
		return id.Name
	case "panic":
		if _, ok := t.info.Uses[id].(*types.Builtin); ok {
			return id.Name
		}
	}
	return ""
}

func (t *translator) exprStmt(s *goast.ExprStmt) (ast.Stmt, error) {
	loc := t.position(s.Pos())
	call, ok := astutil.Unparen(s.X).(*goast.CallExpr)
	if !ok {
		return &ast.ExprStmt{X: t.expr(s.X), Loc: loc}, nil
	}

	switch t.builtin(call) {
	case "assert":
		if len(call.Args) == 0 {
			return nil, diag.Errorf(loc, "assert expects a condition")
		}
		a := &ast.Assert{Cond: t.expr(call.Args[0]), Comment: "assertion", Loc: loc}
		if len(call.Args) > 1 {
			if c, ok := t.expr(call.Args[1]).(*ast.Constant); ok && c.Value != nil {
				a.Comment = constantString(c.Value)
			}
		}
		return a, nil
	case "assume":
		if len(call.Args) != 1 {
			return nil, diag.Errorf(loc, "assume expects one condition")
		}
		return &ast.Assume{Cond: t.expr(call.Args[0]), Loc: loc}, nil
	case "atomic_begin":
		return &ast.AtomicBegin{Loc: loc}, nil
	case "atomic_end":
		return &ast.AtomicEnd{Loc: loc}, nil
	case "panic":
		return &ast.ExprStmt{X: t.throw(call), Loc: loc}, nil
	}

	e := t.expr(call)
	if c, ok := e.(*ast.Call); ok {
		return &ast.FunctionCall{Func: c.Func, Args: c.Args, Loc: loc}, nil
	}
	return &ast.ExprStmt{X: e, Loc: loc}, nil
}

// throw lowers panic(v). The exception is identified by the dynamic type
// of v as seen by the type checker.
func (t *translator) throw(call *goast.CallExpr) *ast.Throw {
	th := &ast.Throw{Loc: t.position(call.Pos())}
	if len(call.Args) != 1 {
		return th
	}
	th.Value = t.expr(call.Args[0])
	if tv, ok := t.info.Types[call.Args[0]]; ok && tv.Type != nil {
		th.ExceptionList = []string{types.TypeString(types.Default(tv.Type), types.RelativeTo(t.pkg))}
	}
	return th
}

var compoundOps = map[token.Token]ast.BinaryOp{
	token.ADD_ASSIGN:     ast.OpAdd,
	token.SUB_ASSIGN:     ast.OpSub,
	token.MUL_ASSIGN:     ast.OpMul,
	token.QUO_ASSIGN:     ast.OpDiv,
	token.REM_ASSIGN:     ast.OpMod,
	token.AND_ASSIGN:     ast.OpBitAnd,
	token.OR_ASSIGN:      ast.OpBitOr,
	token.XOR_ASSIGN:     ast.OpBitXor,
	token.SHL_ASSIGN:     ast.OpShl,
	token.SHR_ASSIGN:     ast.OpAshr,
	token.AND_NOT_ASSIGN: ast.OpBitAnd,
}

func (t *translator) assign(s *goast.AssignStmt) ([]ast.Stmt, error) {
	loc := t.position(s.Pos())

	if op, ok := compoundOps[s.Tok]; ok {
		lhs, rhs := t.expr(s.Lhs[0]), t.expr(s.Rhs[0])
		switch s.Tok {
		case token.AND_NOT_ASSIGN:
			rhs = &ast.Unary{Op: ast.OpBitNot, X: rhs, Typ: rhs.Type(), Loc: rhs.Pos()}
		case token.SHR_ASSIGN:
			if !isSigned(lhs.Type()) {
				op = ast.OpLshr
			}
		}
		x := &ast.AssignExpr{Op: op, Lhs: lhs, Rhs: rhs, Loc: loc}
		return []ast.Stmt{&ast.ExprStmt{X: x, Loc: loc}}, nil
	}

	if len(s.Lhs) != len(s.Rhs) {
		return []ast.Stmt{t.opaque(s, "multi-value assignment")}, nil
	}
	if len(s.Lhs) > 1 {
		if s.Tok == token.DEFINE && t.allNew(s.Lhs) {
			var out []ast.Stmt
			for i := range s.Lhs {
				sym, err := t.local(t.info.Defs[s.Lhs[i].(*goast.Ident)])
				if err != nil {
					return nil, err
				}
				out = append(out, &ast.Decl{Symbol: sym, Init: t.expr(s.Rhs[i]), Loc: loc})
			}
			return out, nil
		}
		return []ast.Stmt{t.opaque(s, "parallel assignment")}, nil
	}

	lhsNode, rhsNode := s.Lhs[0], s.Rhs[0]
	rhs := t.expr(rhsNode)

	if s.Tok == token.DEFINE {
		id := lhsNode.(*goast.Ident)
		if obj := t.info.Defs[id]; obj != nil {
			sym, err := t.local(obj)
			if err != nil {
				return nil, err
			}
			return []ast.Stmt{&ast.Decl{Symbol: sym, Init: rhs, Loc: loc}}, nil
		}
		// redeclaration in a := with an existing variable
	}

	if id, ok := lhsNode.(*goast.Ident); ok && id.Name == "_" {
		if c, ok := rhs.(*ast.Call); ok {
			return []ast.Stmt{&ast.FunctionCall{Func: c.Func, Args: c.Args, Loc: loc}}, nil
		}
		return []ast.Stmt{&ast.ExprStmt{X: rhs, Loc: loc}}, nil
	}

	lhs := t.expr(lhsNode)
	if c, ok := rhs.(*ast.Call); ok {
		return []ast.Stmt{&ast.FunctionCall{Lhs: lhs, Func: c.Func, Args: c.Args, Loc: loc}}, nil
	}
	return []ast.Stmt{&ast.Assign{Lhs: lhs, Rhs: rhs, Loc: loc}}, nil
}

// allNew reports whether every name on the left of := is a new variable.
func (t *translator) allNew(lhs []goast.Expr) bool {
	for _, e := range lhs {
		id, ok := e.(*goast.Ident)
		if !ok || id.Name == "_" || t.info.Defs[id] == nil {
			return false
		}
	}
	return true
}

func (t *translator) declStmt(s *goast.DeclStmt) ([]ast.Stmt, error) {
	gd, ok := s.Decl.(*goast.GenDecl)
	if !ok {
		return []ast.Stmt{t.opaque(s, "unsupported declaration")}, nil
	}

	var out []ast.Stmt
	for _, spec := range gd.Specs {
		vs, ok := spec.(*goast.ValueSpec)
		if !ok {
			continue
		}
		for i, id := range vs.Names {
			obj := t.info.Defs[id]
			if obj == nil || id.Name == "_" {
				continue
			}
			if _, ok := obj.(*types.Const); ok {
				// local constants fold into their uses
				continue
			}
			sym, err := t.local(obj)
			if err != nil {
				return nil, err
			}
			d := &ast.Decl{Symbol: sym, Loc: t.position(id.Pos())}
			if i < len(vs.Values) {
				d.Init = t.expr(vs.Values[i])
			}
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		out = append(out, &ast.Skip{Loc: t.position(s.Pos())})
	}
	return out, nil
}

// optional translates an optional init or post statement.
func (t *translator) optional(s goast.Stmt) (ast.Stmt, error) {
	if s == nil {
		return nil, nil
	}
	stmts, err := t.stmt(s)
	if err != nil {
		return nil, err
	}
	if len(stmts) == 1 {
		return stmts[0], nil
	}
	return &ast.Block{Stmts: stmts, Loc: t.position(s.Pos())}, nil
}

func (t *translator) ifStmt(s *goast.IfStmt) (ast.Stmt, error) {
	init, err := t.optional(s.Init)
	if err != nil {
		return nil, err
	}
	then, err := t.block(s.Body)
	if err != nil {
		return nil, err
	}
	out := &ast.IfThenElse{Init: init, Cond: t.expr(s.Cond), Then: then, Loc: t.position(s.Pos())}
	if s.Else != nil {
		els, err := t.optional(s.Else)
		if err != nil {
			return nil, err
		}
		out.Else = els
	}
	if init != nil {
		// the init statement scopes over the whole if
		return &ast.Block{Stmts: []ast.Stmt{out}, Loc: out.Loc}, nil
	}
	return out, nil
}

func (t *translator) forStmt(s *goast.ForStmt) (ast.Stmt, error) {
	loc := t.position(s.Pos())
	body, err := t.block(s.Body)
	if err != nil {
		return nil, err
	}

	var cond ast.Expr
	if s.Cond != nil {
		cond = t.expr(s.Cond)
	}
	if s.Init == nil && s.Post == nil {
		if cond == nil {
			cond = ast.True()
		}
		return &ast.While{Cond: cond, Body: body, Loc: loc}, nil
	}

	init, err := t.optional(s.Init)
	if err != nil {
		return nil, err
	}
	post, err := t.optional(s.Post)
	if err != nil {
		return nil, err
	}
	loop := &ast.For{Init: init, Cond: cond, Post: post, Body: body, Loc: loc}
	return &ast.Block{Stmts: []ast.Stmt{loop}, Loc: loc}, nil
}

// switchStmt maps a Go expression switch onto a C style switch: every
// clause ends with a break unless its last statement is fallthrough. A
// switch without tag compares true against each case condition.
func (t *translator) switchStmt(s *goast.SwitchStmt) (ast.Stmt, error) {
	loc := t.position(s.Pos())

	var value ast.Expr = ast.True()
	if s.Tag != nil {
		value = t.expr(s.Tag)
	}

	body := &ast.Block{Loc: t.position(s.Body.Pos())}
	for _, stmt := range s.Body.List {
		cc := stmt.(*goast.CaseClause)
		c := &ast.Case{Default: cc.List == nil, Loc: t.position(cc.Pos())}
		for _, v := range cc.List {
			c.Values = append(c.Values, t.expr(v))
		}

		list := cc.Body
		falls := false
		if n := len(list); n > 0 {
			if br, ok := list[n-1].(*goast.BranchStmt); ok && br.Tok == token.FALLTHROUGH {
				list, falls = list[:n-1], true
			}
		}
		clause := &ast.Block{Loc: c.Loc}
		if err := t.stmts(list, clause); err != nil {
			return nil, err
		}
		if !falls {
			clause.Stmts = append(clause.Stmts, &ast.Break{Loc: c.Loc})
		}
		c.Body = clause
		body.Stmts = append(body.Stmts, c)
	}

	sw := &ast.Switch{Value: value, Body: body, Loc: loc}
	if s.Init == nil {
		return sw, nil
	}
	init, err := t.optional(s.Init)
	if err != nil {
		return nil, err
	}
	return &ast.Block{Stmts: []ast.Stmt{init, sw}, Loc: loc}, nil
}

func (t *translator) branch(s *goast.BranchStmt) (ast.Stmt, error) {
	loc := t.position(s.Pos())
	switch s.Tok {
	case token.GOTO:
		return &ast.Goto{Label: s.Label.Name, Loc: loc}, nil
	case token.BREAK, token.CONTINUE:
		if s.Label != nil {
			return t.opaque(s, "labeled "+s.Tok.String()), nil
		}
		if s.Tok == token.BREAK {
			return &ast.Break{Loc: loc}, nil
		}
		return &ast.Continue{Loc: loc}, nil
	}
	return nil, diag.Errorf(loc, "misplaced %s", s.Tok)
}
