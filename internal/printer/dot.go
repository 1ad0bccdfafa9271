package printer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gnoswap-labs/gotoconv/internal/gotoprog"
)

// DOT writes fn as a GraphViz digraph with one node per instruction.
// Fallthrough edges are solid, taken jumps are bold and backward jumps are
// labeled with their loop number.
func DOT(w io.Writer, fn *gotoprog.Function) error {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %s {\n", strconv.Quote(fn.Name))
	b.WriteString("  node [shape=box, fontname=\"monospace\"];\n")

	for i, ins := range fn.Instructions {
		shape := ""
		switch {
		case ins.IsGoto() && !ins.IsUnconditional():
			shape = ", shape=diamond"
		case ins.Kind == gotoprog.Assert:
			shape = ", color=red"
		case ins.Kind == gotoprog.EndFunction:
			shape = ", shape=doublecircle"
		}
		fmt.Fprintf(&b, "  n%d [label=%s%s];\n", i, strconv.Quote(fmt.Sprintf("%d: %s", i, ins.Describe())), shape)
	}

	for i, ins := range fn.Instructions {
		if fallsThrough(ins) && i+1 < len(fn.Instructions) {
			fmt.Fprintf(&b, "  n%d -> n%d;\n", i, i+1)
		}
		for _, t := range ins.Targets {
			attrs := []string{"style=bold"}
			if ins.IsGoto() && !ins.IsUnconditional() {
				attrs = append(attrs, `label="true"`)
			}
			if ins.LoopNumber > 0 && int(t) <= i {
				attrs = append(attrs, fmt.Sprintf(`xlabel="loop %d"`, ins.LoopNumber))
			}
			fmt.Fprintf(&b, "  n%d -> n%d [%s];\n", i, int(t), strings.Join(attrs, ", "))
		}
	}
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func fallsThrough(ins *gotoprog.Instruction) bool {
	switch ins.Kind {
	case gotoprog.EndFunction, gotoprog.Throw:
		return false
	case gotoprog.Goto:
		return !ins.IsUnconditional()
	}
	return true
}
