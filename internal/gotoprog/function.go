package gotoprog

import (
	"fmt"
	"go/token"
)

// Function is a finished GOTO program. Instructions are numbered by
// position and every target is a position in Instructions.
type Function struct {
	Name         string
	Instructions []*Instruction
}

// Loop describes one backward goto of a finished function.
type Loop struct {
	Number   int
	Head     int // position of the jump target
	Back     int // position of the backward goto
	Location token.Position
}

// Finish turns a fragment into a Function.
//
// Skips and placeholders that have a successor are removed; jumps into them
// are redirected and their labels are moved to the next kept instruction.
// Targets are renumbered to final positions and every backward goto gets a
// loop number, counting from 1 in program order. An empty fragment becomes a
// single skip. Finish fails when a jump refers to an instruction that is not
// part of p.
func Finish(name string, p *Program) (*Function, error) {
	if p.Empty() {
		p.Add(Skip, token.Position{})
	}
	seq := p.Seq()
	n := len(seq)

	posOf := make(map[Target]int, n)
	for i, t := range seq {
		posOf[t] = i
	}

	// rep[i] is the position of the first kept instruction at or after i.
	rep := make([]int, n)
	keep := make([]bool, n)
	for i := n - 1; i >= 0; i-- {
		ins := p.arena.At(seq[i])
		if i == n-1 || !ins.IsRemovable() {
			rep[i] = i
			keep[i] = true
			continue
		}
		rep[i] = rep[i+1]
	}

	newPos := make([]int, n)
	next := 0
	for i := 0; i < n; i++ {
		if keep[i] {
			newPos[i] = next
			next++
		}
	}

	fn := &Function{Name: name, Instructions: make([]*Instruction, 0, next)}
	var pendingLabels []string
	for i, t := range seq {
		src := p.arena.At(t)
		if !keep[i] {
			pendingLabels = append(pendingLabels, src.Labels...)
			continue
		}
		ins := *src
		ins.ID = Target(newPos[i])
		if ins.Kind == NoInstruction {
			ins.Kind = Skip
		}
		ins.Labels = nil
		for _, l := range pendingLabels {
			ins.AddLabel(l)
		}
		for _, l := range src.Labels {
			ins.AddLabel(l)
		}
		pendingLabels = nil

		ins.Targets = make([]Target, len(src.Targets))
		for k, target := range src.Targets {
			pos, ok := posOf[target]
			if !ok {
				return nil, fmt.Errorf("%s: instruction %d (%s) jumps to an instruction outside the program", name, i, src.Kind)
			}
			ins.Targets[k] = Target(newPos[rep[pos]])
		}
		fn.Instructions = append(fn.Instructions, &ins)
	}

	fn.numberLoops()
	return fn, nil
}

func (f *Function) numberLoops() {
	nr := 1
	for i, ins := range f.Instructions {
		ins.LoopNumber = 0
		if !ins.IsGoto() {
			continue
		}
		for _, t := range ins.Targets {
			if int(t) <= i {
				ins.LoopNumber = nr
				nr++
				break
			}
		}
	}
}

// Loops lists the backward gotos of f in program order.
func (f *Function) Loops() []Loop {
	var loops []Loop
	for i, ins := range f.Instructions {
		if ins.LoopNumber == 0 {
			continue
		}
		head := i
		for _, t := range ins.Targets {
			if int(t) <= i {
				head = int(t)
				break
			}
		}
		loops = append(loops, Loop{
			Number:   ins.LoopNumber,
			Head:     head,
			Back:     i,
			Location: ins.Location,
		})
	}
	return loops
}

// Targeted reports which positions are the target of some jump.
func (f *Function) Targeted() map[int]bool {
	out := make(map[int]bool)
	for _, ins := range f.Instructions {
		for _, t := range ins.Targets {
			out[int(t)] = true
		}
	}
	return out
}

// Count returns the number of instructions of the given kinds.
func (f *Function) Count(kinds ...Kind) int {
	n := 0
	for _, ins := range f.Instructions {
		for _, k := range kinds {
			if ins.Kind == k {
				n++
				break
			}
		}
	}
	return n
}
