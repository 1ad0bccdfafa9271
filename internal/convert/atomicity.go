package convert

import (
	"go/token"
	"strings"

	"github.com/gnoswap-labs/gotoconv/internal/ast"
	"github.com/gnoswap-labs/gotoconv/internal/config"
	"github.com/gnoswap-labs/gotoconv/internal/gotoprog"
)

// Atomicity checking makes interleavings at shared reads explicit: each
// read of shared memory is copied into a temporary ahead of its use and the
// use is guarded by an assertion that the copies still match the live
// values.

const atomicityComment = "atomicity violation"

// allocatorSymbols are runtime internals that never count as shared.
var allocatorSymbols = map[string]bool{
	"__alloc":      true,
	"__alloc_size": true,
}

// isLockSymbol reports whether name belongs to the thread library, whose
// state is synchronized by construction.
func isLockSymbol(name string) bool {
	return strings.Contains(name, "pthread")
}

// isShared reports whether the symbol lives in shared memory: static
// lifetime or a heap object. Unknown symbols are not shared.
func (c *Converter) isShared(sym *ast.Symbol) bool {
	if allocatorSymbols[sym.Name] || isLockSymbol(sym.Name) {
		return false
	}
	s, ok := c.lookup(sym.Name)
	if !ok {
		return false
	}
	return s.StaticLifetime || (s.Type != nil && s.Type.Dynamic)
}

// sharedReads counts the shared symbols e reads. Address computations are
// not reads.
func (c *Converter) sharedReads(e ast.Expr) int {
	if e == nil {
		return 0
	}
	switch x := e.(type) {
	case *ast.Unary:
		if x.Op == ast.OpAddressOf {
			return 0
		}
	case *ast.Symbol:
		if c.isShared(x) {
			return 1
		}
		return 0
	}
	n := 0
	for _, child := range ast.Children(e) {
		if ce, ok := child.(ast.Expr); ok {
			n += c.sharedReads(ce)
		}
	}
	return n
}

// snapshot replaces every shared read in e by a temporary holding its
// value. The copies go to dest and the equalities to guard.
func (c *Converter) snapshot(e ast.Expr, guard *[]ast.Expr, loc token.Position, dest *gotoprog.Program) ast.Expr {
	switch x := e.(type) {
	case *ast.Unary:
		if x.Op == ast.OpAddressOf {
			return e
		}
		if x.Op == ast.OpDeref {
			if root := ast.RootSymbol(x); root != nil && c.isShared(root) {
				return c.snapshotRead(e, guard, loc, dest)
			}
		}
	case *ast.Index, *ast.Member:
		if root := ast.RootSymbol(e); root != nil && c.isShared(root) {
			return c.snapshotRead(e, guard, loc, dest)
		}
	case *ast.Symbol:
		if c.isShared(x) {
			return c.snapshotRead(e, guard, loc, dest)
		}
		return e
	case *ast.Constant, *ast.Nondet:
		return e
	}
	return ast.MapOperands(e, func(op ast.Expr) ast.Expr {
		return c.snapshot(op, guard, loc, dest)
	})
}

func (c *Converter) snapshotRead(e ast.Expr, guard *[]ast.Expr, loc token.Position, dest *gotoprog.Program) ast.Expr {
	tmp := c.newTemp(e.Type(), loc)
	t := c.emitAssign(tmp, e, loc, dest)
	t.Comment = atomicityComment
	*guard = append(*guard, ast.Eq(tmp, e))
	return tmp
}

// atomicAssign prepares lhs = rhs for atomicity checking. When rhs or lhs
// read shared memory it emits the snapshots, opens an atomic section and
// asserts the snapshots, then returns the rhs to assign and true. The
// caller closes the section after the assignment.
func (c *Converter) atomicAssign(lhs, rhs ast.Expr, loc token.Position, dest *gotoprog.Program) (ast.Expr, bool) {
	if c.sharedReads(lhs)+c.sharedReads(rhs) == 0 {
		return rhs, false
	}

	var guard []ast.Expr
	rhs = c.snapshot(rhs, &guard, loc, dest)
	if len(guard) == 0 {
		return rhs, false
	}

	dest.Add(gotoprog.AtomicBegin, loc)
	t := dest.Add(gotoprog.Assert, loc)
	t.Guard = ast.And(guard...)
	t.Property = "atomicity"
	t.Comment = atomicityComment + " on assignment to " + lhs.String()
	return rhs, true
}

// atomicExpr checks the shared reads of a guard, returning the guard over
// the snapshots. Expressions touching thread library state are left alone.
func (c *Converter) atomicExpr(e ast.Expr, loc token.Position, dest *gotoprog.Program) ast.Expr {
	if e == nil || !c.opts.Bool(config.AtomicityCheck) || c.sharedReads(e) == 0 || mentionsLock(e) {
		return e
	}

	var guard []ast.Expr
	out := c.snapshot(e, &guard, loc, dest)
	if len(guard) == 0 {
		return e
	}
	t := dest.Add(gotoprog.Assert, loc)
	t.Guard = ast.And(guard...)
	t.Property = "atomicity"
	t.Comment = atomicityComment
	return out
}

func mentionsLock(e ast.Expr) bool {
	found := false
	ast.Inspect(e, func(n ast.Node) bool {
		if s, ok := n.(*ast.Symbol); ok && isLockSymbol(s.Name) {
			found = true
		}
		return !found
	})
	return found
}
