package ast

import (
	"go/token"
	"strings"
)

// Stmt is a structured statement. The set of statements is closed.
type Stmt interface {
	Node
	isStmt()
}

// Block is a sequence of statements with its own scope.
type Block struct {
	Stmts []Stmt
	Loc   token.Position
}

// Decl declares the object named by Symbol, optionally initialized.
type Decl struct {
	Symbol *Symbol
	Init   Expr
	Loc    token.Position
}

// ExprStmt evaluates X for its side effects.
type ExprStmt struct {
	X   Expr
	Loc token.Position
}

// Assign is lhs = rhs.
type Assign struct {
	Lhs Expr
	Rhs Expr
	Loc token.Position
}

// Init is a constructor style initialization; it lowers as an assignment.
type Init struct {
	Lhs Expr
	Rhs Expr
	Loc token.Position
}

// Assert is a user assertion. Comment is the property description.
type Assert struct {
	Cond    Expr
	Comment string
	Loc     token.Position
}

// Assume restricts the executions to those satisfying Cond.
type Assume struct {
	Cond Expr
	Loc  token.Position
}

// FunctionCall calls Func. Lhs receives the result when set.
type FunctionCall struct {
	Lhs  Expr
	Func Expr
	Args []Expr
	Loc  token.Position
}

// Label names the first instruction of Body.
type Label struct {
	Name string
	Body Stmt
	Loc  token.Position
}

// Case labels Body inside a switch. Default cases have no Values.
type Case struct {
	Values  []Expr
	Default bool
	Body    Stmt
	Loc     token.Position
}

// For is for(Init; Cond; Post) Body. A nil Cond means true.
type For struct {
	Init Stmt
	Cond Expr
	Post Stmt
	Body Stmt
	Loc  token.Position
}

// While is while(Cond) Body.
type While struct {
	Cond Expr
	Body Stmt
	Loc  token.Position
}

// DoWhile is do Body while(Cond).
type DoWhile struct {
	Body Stmt
	Cond Expr
	Loc  token.Position
}

// Switch dispatches on Value to the Case statements found in Body.
type Switch struct {
	Value Expr
	Body  Stmt
	Loc   token.Position
}

type Break struct {
	Loc token.Position
}

type Continue struct {
	Loc token.Position
}

// Return leaves the function. Value is nil for a bare return.
type Return struct {
	Value Expr
	Loc   token.Position
}

type Goto struct {
	Label string
	Loc   token.Position
}

type Skip struct {
	Loc token.Position
}

// IfThenElse is if(Init; Cond) Then else Else. Init and Else are optional.
type IfThenElse struct {
	Init Stmt
	Cond Expr
	Then Stmt
	Else Stmt
	Loc  token.Position
}

type AtomicBegin struct {
	Loc token.Position
}

type AtomicEnd struct {
	Loc token.Position
}

// Delete releases the heap object X points to. Array selects delete[].
type Delete struct {
	X     Expr
	Array bool
	Loc   token.Position
}

// Handler is one catch clause.
type Handler struct {
	ExceptionID string
	Body        Stmt
}

// TryCatch is try Body catch(...) Handlers.
type TryCatch struct {
	Body     Stmt
	Handlers []Handler
	Loc      token.Position
}

// ThrowDecl opens a region that may only throw the listed exceptions.
type ThrowDecl struct {
	Exceptions []string
	Loc        token.Position
}

// ThrowDeclEnd closes the innermost ThrowDecl region.
type ThrowDeclEnd struct {
	Loc token.Position
}

// Opaque is a statement the converter does not know. It is copied into the
// program unchanged.
type Opaque struct {
	Tag  string
	Text string
	Loc  token.Position
}

func (*Block) isStmt()        {}
func (*Decl) isStmt()         {}
func (*ExprStmt) isStmt()     {}
func (*Assign) isStmt()       {}
func (*Init) isStmt()         {}
func (*Assert) isStmt()       {}
func (*Assume) isStmt()       {}
func (*FunctionCall) isStmt() {}
func (*Label) isStmt()        {}
func (*Case) isStmt()         {}
func (*For) isStmt()          {}
func (*While) isStmt()        {}
func (*DoWhile) isStmt()      {}
func (*Switch) isStmt()       {}
func (*Break) isStmt()        {}
func (*Continue) isStmt()     {}
func (*Return) isStmt()       {}
func (*Goto) isStmt()         {}
func (*Skip) isStmt()         {}
func (*IfThenElse) isStmt()   {}
func (*AtomicBegin) isStmt()  {}
func (*AtomicEnd) isStmt()    {}
func (*Delete) isStmt()       {}
func (*TryCatch) isStmt()     {}
func (*ThrowDecl) isStmt()    {}
func (*ThrowDeclEnd) isStmt() {}
func (*Opaque) isStmt()       {}

func (s *Block) Pos() token.Position        { return s.Loc }
func (s *Decl) Pos() token.Position         { return s.Loc }
func (s *ExprStmt) Pos() token.Position     { return s.Loc }
func (s *Assign) Pos() token.Position       { return s.Loc }
func (s *Init) Pos() token.Position         { return s.Loc }
func (s *Assert) Pos() token.Position       { return s.Loc }
func (s *Assume) Pos() token.Position       { return s.Loc }
func (s *FunctionCall) Pos() token.Position { return s.Loc }
func (s *Label) Pos() token.Position        { return s.Loc }
func (s *Case) Pos() token.Position         { return s.Loc }
func (s *For) Pos() token.Position          { return s.Loc }
func (s *While) Pos() token.Position        { return s.Loc }
func (s *DoWhile) Pos() token.Position      { return s.Loc }
func (s *Switch) Pos() token.Position       { return s.Loc }
func (s *Break) Pos() token.Position        { return s.Loc }
func (s *Continue) Pos() token.Position     { return s.Loc }
func (s *Return) Pos() token.Position       { return s.Loc }
func (s *Goto) Pos() token.Position         { return s.Loc }
func (s *Skip) Pos() token.Position         { return s.Loc }
func (s *IfThenElse) Pos() token.Position   { return s.Loc }
func (s *AtomicBegin) Pos() token.Position  { return s.Loc }
func (s *AtomicEnd) Pos() token.Position    { return s.Loc }
func (s *Delete) Pos() token.Position       { return s.Loc }
func (s *TryCatch) Pos() token.Position     { return s.Loc }
func (s *ThrowDecl) Pos() token.Position    { return s.Loc }
func (s *ThrowDeclEnd) Pos() token.Position { return s.Loc }
func (s *Opaque) Pos() token.Position       { return s.Loc }

func (s *Block) String() string {
	if len(s.Stmts) == 0 {
		return "{}"
	}
	parts := make([]string, 0, len(s.Stmts))
	for _, st := range s.Stmts {
		parts = append(parts, str(st))
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}

func (s *Decl) String() string {
	name := "?"
	if s.Symbol != nil {
		name = s.Symbol.Name
	}
	if s.Init != nil {
		return "decl " + name + " = " + s.Init.String()
	}
	return "decl " + name
}

func (s *ExprStmt) String() string     { return str(s.X) }
func (s *Assign) String() string       { return str(s.Lhs) + " = " + str(s.Rhs) }
func (s *Init) String() string         { return "init " + str(s.Lhs) + " = " + str(s.Rhs) }
func (s *Assert) String() string       { return "assert(" + str(s.Cond) + ")" }
func (s *Assume) String() string       { return "assume(" + str(s.Cond) + ")" }
func (s *Label) String() string        { return s.Name + ": " + str(s.Body) }
func (s *Break) String() string        { return "break" }
func (s *Continue) String() string     { return "continue" }
func (s *Goto) String() string         { return "goto " + s.Label }
func (s *Skip) String() string         { return "skip" }
func (s *AtomicBegin) String() string  { return "atomic_begin" }
func (s *AtomicEnd) String() string    { return "atomic_end" }
func (s *ThrowDeclEnd) String() string { return "throw_decl_end" }

func (s *FunctionCall) String() string {
	call := str(s.Func) + "(" + joinExprs(s.Args) + ")"
	if s.Lhs != nil {
		return s.Lhs.String() + " = " + call
	}
	return call
}

func (s *Case) String() string {
	if s.Default {
		return "default: " + str(s.Body)
	}
	return "case " + joinExprs(s.Values) + ": " + str(s.Body)
}

func (s *For) String() string {
	return "for (" + str(s.Init) + "; " + str(s.Cond) + "; " + str(s.Post) + ") " + str(s.Body)
}

func (s *While) String() string {
	return "while (" + str(s.Cond) + ") " + str(s.Body)
}

func (s *DoWhile) String() string {
	return "do " + str(s.Body) + " while (" + str(s.Cond) + ")"
}

func (s *Switch) String() string {
	return "switch (" + str(s.Value) + ") " + str(s.Body)
}

func (s *Return) String() string {
	if s.Value == nil {
		return "return"
	}
	return "return " + s.Value.String()
}

func (s *IfThenElse) String() string {
	result := "if ("
	if s.Init != nil {
		result += s.Init.String() + "; "
	}
	result += str(s.Cond) + ") " + str(s.Then)
	if s.Else != nil {
		result += " else " + s.Else.String()
	}
	return result
}

func (s *Delete) String() string {
	if s.Array {
		return "delete[] " + str(s.X)
	}
	return "delete " + str(s.X)
}

func (s *TryCatch) String() string {
	var sb strings.Builder
	sb.WriteString("try " + str(s.Body))
	for _, h := range s.Handlers {
		sb.WriteString(" catch(" + h.ExceptionID + ") " + str(h.Body))
	}
	return sb.String()
}

func (s *ThrowDecl) String() string {
	return "throw_decl(" + strings.Join(s.Exceptions, ", ") + ")"
}

func (s *Opaque) String() string {
	if s.Text != "" {
		return s.Text
	}
	return s.Tag
}

// str renders n, tolerating nil operands in malformed trees.
func str(n Node) string {
	if n == nil {
		return ""
	}
	return n.String()
}
