package gotoprog

import (
	"go/token"
)

/*
Arena-based instruction storage

Every instruction of one function is allocated in a single Arena and is
referenced by its index (a Target). Jump targets are indices, never
pointers into a program, so a target stays valid while fragments are
spliced, reordered or grown, and a goto may name an instruction that is
emitted later.

A Program is a fragment: an ordered list of targets into the arena.
Appending one fragment to another moves the targets and leaves the source
empty, mirroring a destructive list splice.
*/

// Arena owns all instructions of one function.
type Arena struct {
	instrs []*Instruction
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{instrs: make([]*Instruction, 0, 64)}
}

// New allocates an instruction that is not yet part of any program.
func (a *Arena) New(kind Kind, loc token.Position) *Instruction {
	ins := &Instruction{
		ID:       Target(len(a.instrs)),
		Kind:     kind,
		Location: loc,
	}
	a.instrs = append(a.instrs, ins)
	return ins
}

// At returns the instruction t refers to.
func (a *Arena) At(t Target) *Instruction {
	return a.instrs[t]
}

// Len returns the number of allocated instructions.
func (a *Arena) Len() int {
	return len(a.instrs)
}

// NewProgram creates an empty fragment over a.
func (a *Arena) NewProgram() *Program {
	return &Program{arena: a}
}

// Program is an ordered instruction fragment.
type Program struct {
	arena *Arena
	seq   []Target
}

// Arena returns the arena p allocates from.
func (p *Program) Arena() *Arena { return p.arena }

// Add allocates a new instruction at the end of p.
func (p *Program) Add(kind Kind, loc token.Position) *Instruction {
	ins := p.arena.New(kind, loc)
	p.seq = append(p.seq, ins.ID)
	return ins
}

// Push places an already allocated instruction at the end of p.
func (p *Program) Push(ins *Instruction) {
	p.seq = append(p.seq, ins.ID)
}

// Append moves every instruction of q to the end of p. q is empty
// afterwards.
func (p *Program) Append(q *Program) {
	if q == nil || q == p {
		return
	}
	p.seq = append(p.seq, q.seq...)
	q.seq = nil
}

// Prepend moves every instruction of q to the front of p. q is empty
// afterwards.
func (p *Program) Prepend(q *Program) {
	if q == nil || q == p || len(q.seq) == 0 {
		return
	}
	seq := make([]Target, 0, len(q.seq)+len(p.seq))
	seq = append(seq, q.seq...)
	p.seq = append(seq, p.seq...)
	q.seq = nil
}

// Clear empties p. The instructions stay allocated.
func (p *Program) Clear() {
	p.seq = nil
}

func (p *Program) Len() int      { return len(p.seq) }
func (p *Program) Empty() bool   { return len(p.seq) == 0 }
func (p *Program) Seq() []Target { return p.seq }

// First returns the first instruction, or nil when p is empty.
func (p *Program) First() *Instruction {
	if len(p.seq) == 0 {
		return nil
	}
	return p.arena.At(p.seq[0])
}

// Last returns the last instruction, or nil when p is empty.
func (p *Program) Last() *Instruction {
	if len(p.seq) == 0 {
		return nil
	}
	return p.arena.At(p.seq[len(p.seq)-1])
}

// Instructions returns the instructions of p in order.
func (p *Program) Instructions() []*Instruction {
	out := make([]*Instruction, len(p.seq))
	for i, t := range p.seq {
		out[i] = p.arena.At(t)
	}
	return out
}

// Count returns the number of instructions of the given kinds.
func (p *Program) Count(kinds ...Kind) int {
	n := 0
	for _, t := range p.seq {
		k := p.arena.At(t).Kind
		for _, want := range kinds {
			if k == want {
				n++
				break
			}
		}
	}
	return n
}
