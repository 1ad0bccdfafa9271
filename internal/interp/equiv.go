package interp

import (
	"fmt"

	"github.com/gnoswap-labs/gotoconv/internal/ast"
	"github.com/gnoswap-labs/gotoconv/internal/gotoprog"
)

// VerificationResult represents the result of equivalence checking.
type VerificationResult int

const (
	_ VerificationResult = iota
	// Equivalent indicates both executions ended the same way.
	Equivalent
	// NotEquivalent indicates the executions differ.
	NotEquivalent
	// Unknown indicates one of the executions left the modeled subset.
	Unknown
)

func (r VerificationResult) String() string {
	switch r {
	case Equivalent:
		return "Equivalent"
	case NotEquivalent:
		return "NotEquivalent"
	case Unknown:
		return "Unknown"
	default:
		return "?"
	}
}

// ReasonCode provides a reason for the verification result.
type ReasonCode int

const (
	ReasonNone ReasonCode = iota
	ReasonSameResult
	ReasonDifferentKind
	ReasonDifferentEnv
	ReasonDifferentValue
	ReasonDifferentCalls
	ReasonOutOfScope
	ReasonStepLimit
)

func (r ReasonCode) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonSameResult:
		return "same result"
	case ReasonDifferentKind:
		return "different result kinds"
	case ReasonDifferentEnv:
		return "different environments"
	case ReasonDifferentValue:
		return "different return values"
	case ReasonDifferentCalls:
		return "different call sequences"
	case ReasonOutOfScope:
		return "construct outside the interpreted subset"
	case ReasonStepLimit:
		return "step limit exceeded"
	default:
		return "unknown"
	}
}

// Report provides detailed information about a check.
type Report struct {
	Result     VerificationResult
	Reason     ReasonCode
	Detail     string
	Structured Result
	Lowered    Result
}

// Verifier checks that a lowered function behaves like the statement it
// was produced from.
type Verifier struct {
	evaluator *Evaluator
}

// NewVerifier creates a new verifier with the given configuration.
func NewVerifier(config Config) *Verifier {
	return &Verifier{evaluator: NewEvaluator(config)}
}

// Check executes stmt and fn from copies of env and compares the outcome:
// how execution ended, the returned value, the user visible variables and
// the sequence of calls. Variables introduced by lowering are ignored.
func (v *Verifier) Check(stmt ast.Stmt, fn *gotoprog.Function, env *Env) Report {
	s := v.evaluator.ExecStmt(stmt, env.Clone())
	l := v.evaluator.RunFunction(fn, env.Clone())
	r := Report{Structured: s, Lowered: l}

	for _, res := range []Result{s, l} {
		switch res.Kind {
		case ResultUnknown:
			r.Result, r.Reason, r.Detail = Unknown, ReasonOutOfScope, res.Detail
			return r
		case ResultStepLimit:
			r.Result, r.Reason = Unknown, ReasonStepLimit
			return r
		}
	}

	switch {
	case s.Kind != l.Kind:
		r.Result, r.Reason = NotEquivalent, ReasonDifferentKind
		r.Detail = fmt.Sprintf("%s vs %s", s.Kind, l.Kind)
	case !sameValue(s.Value, l.Value):
		r.Result, r.Reason = NotEquivalent, ReasonDifferentValue
		r.Detail = fmt.Sprintf("%v vs %v", s.Value, l.Value)
	case !s.Env.Visible().Equal(l.Env.Visible()):
		r.Result, r.Reason = NotEquivalent, ReasonDifferentEnv
		r.Detail = fmt.Sprintf("%s vs %s", s.Env.Visible(), l.Env.Visible())
	case !sameCalls(s.Calls, l.Calls):
		r.Result, r.Reason = NotEquivalent, ReasonDifferentCalls
		r.Detail = fmt.Sprintf("%v vs %v", s.Calls, l.Calls)
	default:
		r.Result, r.Reason = Equivalent, ReasonSameResult
	}
	return r
}

func sameValue(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

func sameCalls(a, b []CallRecord) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Func != b[i].Func || len(a[i].Args) != len(b[i].Args) {
			return false
		}
		for j := range a[i].Args {
			if !sameValue(a[i].Args[j], b[i].Args[j]) {
				return false
			}
		}
	}
	return true
}
