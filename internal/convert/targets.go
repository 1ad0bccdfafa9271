package convert

import (
	"github.com/gnoswap-labs/gotoconv/internal/ast"
	"github.com/gnoswap-labs/gotoconv/internal/gotoprog"
)

// targets are the jump destinations of the enclosing constructs. A
// construct copies the current value on entry and assigns it back on exit,
// so nested constructs of the same kind compose.
type targets struct {
	breakSet    bool
	continueSet bool
	returnSet   bool

	breakTarget    gotoprog.Target
	continueTarget gotoprog.Target
	returnTarget   gotoprog.Target
	returnValue    bool

	// cases is shared by every construct nested in the same switch.
	cases *caseTable
}

func (t *targets) setBreak(target gotoprog.Target) {
	t.breakSet = true
	t.breakTarget = target
}

func (t *targets) setContinue(target gotoprog.Target) {
	t.continueSet = true
	t.continueTarget = target
}

func (t *targets) setReturn(target gotoprog.Target, value bool) {
	t.returnSet = true
	t.returnTarget = target
	t.returnValue = value
}

// caseTable records the case labels of one switch: for every labelled
// instruction, the values that select it, in source order.
type caseTable struct {
	order  []gotoprog.Target
	values map[gotoprog.Target][]ast.Expr

	defaultSet    bool
	defaultTarget gotoprog.Target
}

func newCaseTable(def gotoprog.Target) *caseTable {
	return &caseTable{
		values:        make(map[gotoprog.Target][]ast.Expr),
		defaultTarget: def,
	}
}

func (ct *caseTable) add(target gotoprog.Target, values []ast.Expr) {
	if _, seen := ct.values[target]; !seen {
		ct.order = append(ct.order, target)
	}
	ct.values[target] = append(ct.values[target], values...)
}
