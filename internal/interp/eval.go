package interp

import (
	"errors"
	"fmt"
	"go/constant"

	"github.com/gnoswap-labs/gotoconv/internal/ast"
)

// Func computes the result of an opaque call.
type Func func(args []Value) Value

// Config holds configuration for the evaluator.
type Config struct {
	// MaxSteps bounds the number of executed statements or instructions.
	MaxSteps int
	// Funcs gives results to calls by callee name. Calls to other
	// functions yield the zero value of their type.
	Funcs map[string]Func
}

// DefaultConfig returns the default evaluation configuration.
func DefaultConfig() Config {
	return Config{MaxSteps: 100000}
}

// Evaluator executes structured statements and GOTO functions.
type Evaluator struct {
	config Config
}

// NewEvaluator creates a new evaluator with the given configuration.
func NewEvaluator(config Config) *Evaluator {
	if config.MaxSteps <= 0 {
		config.MaxSteps = DefaultConfig().MaxSteps
	}
	return &Evaluator{config: config}
}

var errStepLimit = errors.New("step limit exceeded")

// unsupportedError reports a construct outside the interpreted subset.
type unsupportedError struct {
	what string
}

func (e *unsupportedError) Error() string { return "unsupported: " + e.what }

func unsupported(format string, args ...any) error {
	return &unsupportedError{what: fmt.Sprintf(format, args...)}
}

// machine is the state of one execution.
type machine struct {
	ev    *Evaluator
	env   *Env
	calls []CallRecord
	steps int
}

func (ev *Evaluator) newMachine(env *Env) *machine {
	return &machine{ev: ev, env: env}
}

func (m *machine) tick() error {
	m.steps++
	if m.steps > m.ev.config.MaxSteps {
		return errStepLimit
	}
	return nil
}

// result converts the end of an execution into a Result.
func (m *machine) result(kind ResultKind, val Value, err error) Result {
	r := Result{Kind: kind, Env: m.env, Value: val, Calls: m.calls}
	var unsup *unsupportedError
	switch {
	case err == nil:
	case errors.Is(err, errStepLimit):
		r.Kind = ResultStepLimit
	case errors.As(err, &unsup):
		r.Kind = ResultUnknown
		r.Detail = unsup.what
	default:
		r.Kind = ResultUnknown
		r.Detail = err.Error()
	}
	return r
}

// EvalExpr evaluates an expression in env. Effects of the expression
// update env.
func (ev *Evaluator) EvalExpr(e ast.Expr, env *Env) (Value, error) {
	return ev.newMachine(env).eval(e)
}

func (m *machine) eval(e ast.Expr) (Value, error) {
	switch x := e.(type) {
	case *ast.Symbol:
		if v, ok := m.env.Get(x.Name); ok {
			return v, nil
		}
		return Zero(x.Typ), nil

	case *ast.Constant:
		return constValue(x)

	case *ast.Nondet:
		return UnknownValue{Name: "nondet"}, nil

	case *ast.Unary:
		v, err := m.eval(x.X)
		if err != nil {
			return nil, err
		}
		return unary(x.Op, v)

	case *ast.Binary:
		return m.evalBinary(x)

	case *ast.Typecast:
		v, err := m.eval(x.X)
		if err != nil {
			return nil, err
		}
		return convert(v, x.Typ), nil

	case *ast.Cond:
		c, err := m.evalBool(x.Cond)
		if err != nil {
			return nil, err
		}
		if c {
			return m.eval(x.Then)
		}
		return m.eval(x.Else)

	case *ast.IncDec:
		name, err := lvalue(x.X)
		if err != nil {
			return nil, err
		}
		old, err := m.eval(x.X)
		if err != nil {
			return nil, err
		}
		delta := int64(-1)
		if x.Op.IsIncrement() {
			delta = 1
		}
		n, ok := asInt(old)
		if !ok {
			return nil, unsupported("%s of %s", x.Op, old)
		}
		updated := convert(IntValue{Val: n + delta}, x.X.Type())
		m.env.Set(name, updated)
		if x.Op.IsPost() {
			return old, nil
		}
		return updated, nil

	case *ast.AssignExpr:
		name, err := lvalue(x.Lhs)
		if err != nil {
			return nil, err
		}
		var rhs Value
		if x.Op == 0 {
			rhs, err = m.eval(x.Rhs)
		} else {
			rhs, err = m.evalBinary(&ast.Binary{Op: x.Op, X: x.Lhs, Y: x.Rhs, Typ: x.Lhs.Type()})
		}
		if err != nil {
			return nil, err
		}
		rhs = convert(rhs, x.Lhs.Type())
		m.env.Set(name, rhs)
		return rhs, nil

	case *ast.Call:
		return m.call(x.Func, x.Args, x.Typ)

	case *ast.StmtExpr:
		return m.stmtExpr(x)

	default:
		return nil, unsupported("expression %s", e)
	}
}

func (m *machine) evalBool(e ast.Expr) (bool, error) {
	v, err := m.eval(e)
	if err != nil {
		return false, err
	}
	return truth(v)
}

func truth(v Value) (bool, error) {
	switch v := v.(type) {
	case BoolValue:
		return v.Val, nil
	case IntValue:
		return v.Val != 0, nil
	default:
		return false, unsupported("condition on %s", v)
	}
}

func (m *machine) evalBinary(x *ast.Binary) (Value, error) {
	if x.Op == ast.OpAnd || x.Op == ast.OpOr {
		l, err := m.evalBool(x.X)
		if err != nil {
			return nil, err
		}
		if x.Op == ast.OpAnd && !l || x.Op == ast.OpOr && l {
			return BoolValue{Val: l}, nil
		}
		r, err := m.evalBool(x.Y)
		if err != nil {
			return nil, err
		}
		return BoolValue{Val: r}, nil
	}

	l, err := m.eval(x.X)
	if err != nil {
		return nil, err
	}
	r, err := m.eval(x.Y)
	if err != nil {
		return nil, err
	}
	return binary(x.Op, l, r)
}

func (m *machine) call(fn ast.Expr, args []ast.Expr, typ *ast.Type) (Value, error) {
	callee, ok := fn.(*ast.Symbol)
	if !ok {
		return nil, unsupported("indirect call %s", fn)
	}
	vals := make([]Value, len(args))
	for i, a := range args {
		v, err := m.eval(a)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	m.calls = append(m.calls, CallRecord{Func: callee.Name, Args: vals})

	if f, ok := m.ev.config.Funcs[callee.Name]; ok {
		return f(vals), nil
	}
	return Zero(typ), nil
}

func (m *machine) stmtExpr(x *ast.StmtExpr) (Value, error) {
	b, ok := x.Body.(*ast.Block)
	if !ok || len(b.Stmts) == 0 {
		return nil, unsupported("statement expression %s", x)
	}
	last := len(b.Stmts) - 1
	for _, s := range b.Stmts[:last] {
		kind, _, err := m.exec(s)
		if err != nil {
			return nil, err
		}
		if kind != ResultContinue {
			return nil, unsupported("control transfer out of statement expression")
		}
	}
	if es, ok := b.Stmts[last].(*ast.ExprStmt); ok {
		return m.eval(es.X)
	}
	_, _, err := m.exec(b.Stmts[last])
	return nil, err
}

func lvalue(e ast.Expr) (string, error) {
	switch x := e.(type) {
	case *ast.Symbol:
		return x.Name, nil
	case *ast.Typecast:
		return lvalue(x.X)
	default:
		return "", unsupported("assignment to %s", e)
	}
}

func (m *machine) assign(lhs ast.Expr, v Value) error {
	if _, ok := lhs.(*ast.ObjectState); ok {
		return nil
	}
	name, err := lvalue(lhs)
	if err != nil {
		return err
	}
	m.env.Set(name, convert(v, lhs.Type()))
	return nil
}

func constValue(c *ast.Constant) (Value, error) {
	if c.Value == nil {
		return IntValue{}, nil
	}
	switch c.Value.Kind() {
	case constant.Bool:
		return BoolValue{Val: constant.BoolVal(c.Value)}, nil
	case constant.Int:
		n, exact := constant.Int64Val(c.Value)
		if !exact {
			return nil, unsupported("constant %s", c)
		}
		return convert(IntValue{Val: n}, c.Typ), nil
	default:
		return nil, unsupported("constant %s", c)
	}
}

func asInt(v Value) (int64, bool) {
	switch v := v.(type) {
	case IntValue:
		return v.Val, true
	case BoolValue:
		if v.Val {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// convert casts v to t: booleans from and to integers, and integers are
// wrapped to their bit width.
func convert(v Value, t *ast.Type) Value {
	if t.IsBool() {
		if n, ok := v.(IntValue); ok {
			return BoolValue{Val: n.Val != 0}
		}
		return v
	}
	n, ok := asInt(v)
	if !ok || t == nil || (t.Kind != ast.KindInt && t.Kind != ast.KindEnum) {
		if b, isBool := v.(BoolValue); isBool && t.IsNumber() {
			n, _ = asInt(b)
			return IntValue{Val: n}
		}
		return v
	}
	return IntValue{Val: wrap(n, t.Width, t.Signed)}
}

func wrap(n int64, width int, signed bool) int64 {
	if width <= 0 || width >= 64 {
		return n
	}
	mask := int64(1)<<uint(width) - 1
	n &= mask
	if signed && n&(int64(1)<<uint(width-1)) != 0 {
		n -= int64(1) << uint(width)
	}
	return n
}

func unary(op ast.UnaryOp, v Value) (Value, error) {
	switch op {
	case ast.OpNot:
		b, err := truth(v)
		if err != nil {
			return nil, err
		}
		return BoolValue{Val: !b}, nil
	case ast.OpNeg:
		if n, ok := asInt(v); ok {
			return IntValue{Val: -n}, nil
		}
	case ast.OpBitNot:
		if n, ok := asInt(v); ok {
			return IntValue{Val: ^n}, nil
		}
	}
	return nil, unsupported("%s%s", op, v)
}

func binary(op ast.BinaryOp, l, r Value) (Value, error) {
	if op == ast.OpEq || op == ast.OpNeq {
		eq := l.Equal(r)
		if li, ok := asInt(l); ok {
			if ri, ok := asInt(r); ok {
				eq = li == ri
			}
		}
		if _, unknown := l.(UnknownValue); unknown {
			return nil, unsupported("comparison with %s", l)
		}
		if _, unknown := r.(UnknownValue); unknown {
			return nil, unsupported("comparison with %s", r)
		}
		return BoolValue{Val: eq == (op == ast.OpEq)}, nil
	}

	a, ok1 := asInt(l)
	b, ok2 := asInt(r)
	if !ok1 || !ok2 {
		return nil, unsupported("%s %s %s", l, op, r)
	}

	switch op {
	case ast.OpAdd:
		return IntValue{Val: a + b}, nil
	case ast.OpSub:
		return IntValue{Val: a - b}, nil
	case ast.OpMul:
		return IntValue{Val: a * b}, nil
	case ast.OpDiv, ast.OpMod:
		if b == 0 {
			return nil, unsupported("division by zero")
		}
		if op == ast.OpDiv {
			return IntValue{Val: a / b}, nil
		}
		return IntValue{Val: a % b}, nil
	case ast.OpShl:
		return IntValue{Val: a << uint(b)}, nil
	case ast.OpAshr:
		return IntValue{Val: a >> uint(b)}, nil
	case ast.OpLshr:
		return IntValue{Val: int64(uint64(a) >> uint(b))}, nil
	case ast.OpBitAnd:
		return IntValue{Val: a & b}, nil
	case ast.OpBitOr:
		return IntValue{Val: a | b}, nil
	case ast.OpBitXor:
		return IntValue{Val: a ^ b}, nil
	case ast.OpLt:
		return BoolValue{Val: a < b}, nil
	case ast.OpLte:
		return BoolValue{Val: a <= b}, nil
	case ast.OpGt:
		return BoolValue{Val: a > b}, nil
	case ast.OpGte:
		return BoolValue{Val: a >= b}, nil
	default:
		return nil, unsupported("operator %s", op)
	}
}
