package gotoprog

import (
	"go/token"
	"strings"

	"github.com/gnoswap-labs/gotoconv/internal/ast"
)

// Kind is the instruction type.
type Kind int

const (
	NoInstruction Kind = iota // placeholder, removed by Finish
	Goto
	Assume
	Assert
	Other
	Skip
	AtomicBegin
	AtomicEnd
	Return
	Assign
	FunctionCall
	Throw
	Catch
	ThrowDecl
	ThrowDeclEnd
	EndFunction
)

var kindNames = [...]string{
	NoInstruction: "NO_INSTRUCTION",
	Goto:          "GOTO",
	Assume:        "ASSUME",
	Assert:        "ASSERT",
	Other:         "OTHER",
	Skip:          "SKIP",
	AtomicBegin:   "ATOMIC_BEGIN",
	AtomicEnd:     "ATOMIC_END",
	Return:        "RETURN",
	Assign:        "ASSIGN",
	FunctionCall:  "FUNCTION_CALL",
	Throw:         "THROW",
	Catch:         "CATCH",
	ThrowDecl:     "THROW_DECL",
	ThrowDeclEnd:  "THROW_DECL_END",
	EndFunction:   "END_FUNCTION",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "UNKNOWN"
	}
	return kindNames[k]
}

// Target references an instruction by its arena index.
type Target int

// NoTarget is the unset target.
const NoTarget Target = -1

// Instruction is one element of a GOTO program.
//
// Guard holds the condition of gotos, asserts and assumes (true for an
// unconditional goto). Code holds the payload of assignments, calls,
// returns, throws and copied statements. A catch instruction carries one
// target per entry of ExceptionIDs; a catch with no ids pops the innermost
// handler scope.
type Instruction struct {
	ID       Target
	Kind     Kind
	Guard    ast.Expr
	Code     ast.Stmt
	Targets  []Target
	Location token.Position
	Labels   []string
	// Locals lists the block-scoped declarations that are live at this
	// instruction, innermost last.
	Locals []string

	Comment      string
	Property     string
	UserProvided bool
	ExceptionIDs []string
	LoopNumber   int

	// PendingLabel names the label an unresolved goto jumps to.
	PendingLabel string
}

// IsGoto reports whether i is a goto instruction.
func (i *Instruction) IsGoto() bool { return i.Kind == Goto }

// IsUnconditional reports whether i jumps without a condition.
func (i *Instruction) IsUnconditional() bool {
	return i.Kind == Goto && (i.Guard == nil || ast.IsTrue(i.Guard))
}

// IsRemovable reports whether i has no effect when it has a successor.
func (i *Instruction) IsRemovable() bool {
	return i.Kind == Skip || i.Kind == NoInstruction
}

// SetTarget replaces the targets of i with t.
func (i *Instruction) SetTarget(t Target) {
	i.Targets = []Target{t}
}

// AddLabel attaches a label unless i already has it.
func (i *Instruction) AddLabel(name string) {
	for _, l := range i.Labels {
		if l == name {
			return
		}
	}
	i.Labels = append(i.Labels, name)
}

// Describe renders the instruction body without targets.
func (i *Instruction) Describe() string {
	switch i.Kind {
	case Goto:
		if i.IsUnconditional() {
			return "GOTO"
		}
		return "IF " + i.Guard.String() + " THEN GOTO"
	case Assume, Assert:
		return i.Kind.String() + " " + guardString(i.Guard)
	case Catch, ThrowDecl:
		return i.Kind.String() + " [" + strings.Join(i.ExceptionIDs, ", ") + "]"
	case Return:
		if i.Code != nil {
			return "RETURN: " + i.Code.String()
		}
		return "RETURN"
	case Assign, FunctionCall, Other, Throw:
		if i.Code != nil {
			return i.Code.String()
		}
		return i.Kind.String()
	default:
		return i.Kind.String()
	}
}

func guardString(e ast.Expr) string {
	if e == nil {
		return "TRUE"
	}
	return e.String()
}
