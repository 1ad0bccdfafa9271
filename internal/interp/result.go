package interp

import (
	"fmt"
	"strings"
)

// ResultKind represents how an execution ended.
type ResultKind int

const (
	// ResultContinue indicates execution ran off the end.
	ResultContinue ResultKind = iota
	// ResultReturn indicates a return statement was executed.
	ResultReturn
	// ResultBreak indicates a break escaped the executed statement.
	ResultBreak
	// ResultContinueLoop indicates a continue escaped the executed statement.
	ResultContinueLoop
	// ResultAssertFailed indicates an assertion evaluated to false.
	ResultAssertFailed
	// ResultAssumeFailed indicates the execution violated an assumption.
	ResultAssumeFailed
	// ResultStepLimit indicates the step budget ran out.
	ResultStepLimit
	// ResultUnknown indicates a construct the interpreter does not model.
	ResultUnknown
)

func (k ResultKind) String() string {
	switch k {
	case ResultContinue:
		return "Continue"
	case ResultReturn:
		return "Return"
	case ResultBreak:
		return "Break"
	case ResultContinueLoop:
		return "ContinueLoop"
	case ResultAssertFailed:
		return "AssertFailed"
	case ResultAssumeFailed:
		return "AssumeFailed"
	case ResultStepLimit:
		return "StepLimit"
	case ResultUnknown:
		return "Unknown"
	default:
		return "?"
	}
}

// Result is the outcome of an execution.
type Result struct {
	Kind   ResultKind
	Env    *Env
	Value  Value        // valid for Return, nil for a bare return
	Calls  []CallRecord // opaque calls in execution order
	Detail string       // reason for Unknown
}

// CallRecord represents a call that was executed.
type CallRecord struct {
	Func string
	Args []Value
}

func (c CallRecord) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return c.Func + "(" + strings.Join(args, ", ") + ")"
}

func (r Result) String() string {
	switch r.Kind {
	case ResultContinue:
		return fmt.Sprintf("Continue(%s)", r.Env)
	case ResultReturn:
		if r.Value == nil {
			return "Return"
		}
		return fmt.Sprintf("Return(%s)", r.Value)
	case ResultUnknown:
		return "Unknown(" + r.Detail + ")"
	default:
		return r.Kind.String()
	}
}
