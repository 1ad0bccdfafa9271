package ast

// Inspect traverses the tree rooted at n in depth-first order. It calls f(n)
// and descends into the children of n when f returns true. Nil children are
// skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}

// Children returns the direct sub-nodes of n in source order.
func Children(n Node) []Node {
	var out []Node
	add := func(cs ...Node) {
		for _, c := range cs {
			if c != nil {
				out = append(out, c)
			}
		}
	}
	addExprs := func(es []Expr) {
		for _, e := range es {
			if e != nil {
				out = append(out, e)
			}
		}
	}

	switch n := n.(type) {
	// expressions
	case *Unary:
		add(n.X)
	case *Binary:
		add(n.X, n.Y)
	case *Member:
		add(n.X)
	case *Index:
		add(n.X, n.Index)
	case *Typecast:
		add(n.X)
	case *With:
		add(n.X, n.Index, n.Value)
	case *Cond:
		add(n.Cond, n.Then, n.Else)
	case *ObjectState:
		add(n.X)
	case *IncDec:
		add(n.X)
	case *AssignExpr:
		add(n.Lhs, n.Rhs)
	case *Call:
		add(n.Func)
		addExprs(n.Args)
	case *New:
		add(n.Count)
	case *Throw:
		add(n.Value)
	case *StmtExpr:
		add(n.Body)

	// statements
	case *Block:
		for _, s := range n.Stmts {
			add(s)
		}
	case *Decl:
		if n.Symbol != nil {
			add(n.Symbol)
		}
		add(n.Init)
	case *ExprStmt:
		add(n.X)
	case *Assign:
		add(n.Lhs, n.Rhs)
	case *Init:
		add(n.Lhs, n.Rhs)
	case *Assert:
		add(n.Cond)
	case *Assume:
		add(n.Cond)
	case *FunctionCall:
		add(n.Lhs, n.Func)
		addExprs(n.Args)
	case *Label:
		add(n.Body)
	case *Case:
		addExprs(n.Values)
		add(n.Body)
	case *For:
		add(n.Init, n.Cond, n.Post, n.Body)
	case *While:
		add(n.Cond, n.Body)
	case *DoWhile:
		add(n.Body, n.Cond)
	case *Switch:
		add(n.Value, n.Body)
	case *Return:
		add(n.Value)
	case *IfThenElse:
		add(n.Init, n.Cond, n.Then, n.Else)
	case *Delete:
		add(n.X)
	case *TryCatch:
		add(n.Body)
		for _, h := range n.Handlers {
			add(h.Body)
		}
	}
	return out
}

// MapOperands returns a shallow copy of e whose direct expression operands
// are replaced by f(operand). Leaves are returned unchanged. Nil optional
// operands stay nil.
func MapOperands(e Expr, f func(Expr) Expr) Expr {
	opt := func(x Expr) Expr {
		if x == nil {
			return nil
		}
		return f(x)
	}

	switch e := e.(type) {
	case *Unary:
		c := *e
		c.X = f(e.X)
		return &c
	case *Binary:
		c := *e
		c.X = f(e.X)
		c.Y = f(e.Y)
		return &c
	case *Member:
		c := *e
		c.X = f(e.X)
		return &c
	case *Index:
		c := *e
		c.X = f(e.X)
		c.Index = f(e.Index)
		return &c
	case *Typecast:
		c := *e
		c.X = f(e.X)
		return &c
	case *With:
		c := *e
		c.X = f(e.X)
		c.Index = opt(e.Index)
		c.Value = f(e.Value)
		return &c
	case *Cond:
		c := *e
		c.Cond = f(e.Cond)
		c.Then = f(e.Then)
		c.Else = f(e.Else)
		return &c
	case *ObjectState:
		c := *e
		c.X = f(e.X)
		return &c
	case *IncDec:
		c := *e
		c.X = f(e.X)
		return &c
	case *AssignExpr:
		c := *e
		c.Lhs = f(e.Lhs)
		c.Rhs = f(e.Rhs)
		return &c
	case *Call:
		c := *e
		c.Func = f(e.Func)
		c.Args = make([]Expr, len(e.Args))
		for i, a := range e.Args {
			c.Args[i] = f(a)
		}
		return &c
	case *New:
		c := *e
		c.Count = opt(e.Count)
		return &c
	case *Throw:
		c := *e
		c.Value = opt(e.Value)
		return &c
	default:
		return e
	}
}
