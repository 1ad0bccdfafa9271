// Package printer renders GOTO programs and conversion issues: a listing
// for terminals, a JSON/YAML document for tools and GraphViz for humans.
package printer

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/gnoswap-labs/gotoconv/internal/gotoprog"
)

var (
	funcStyle     = color.New(color.FgCyan, color.Bold)
	indexStyle    = color.New(color.FgHiBlue)
	labelStyle    = color.New(color.FgGreen, color.Bold)
	jumpStyle     = color.New(color.FgYellow, color.Bold)
	propertyStyle = color.New(color.FgMagenta)
)

// Text writes the listing of fn. Every instruction is preceded by a
// comment line with its position and source location; instructions that
// are jumped to carry their position as a label.
func Text(w io.Writer, fn *gotoprog.Function) error {
	var b strings.Builder
	targeted := fn.Targeted()

	b.WriteString(funcStyle.Sprintf("%s:", fn.Name) + "\n")
	for i, ins := range fn.Instructions {
		b.WriteString(indexStyle.Sprintf("        // %d %s", i, location(ins)))
		if ins.Property != "" {
			b.WriteString(propertyStyle.Sprintf(" [%s]", ins.Property))
		}
		b.WriteString("\n")

		for _, l := range ins.Labels {
			b.WriteString(labelStyle.Sprintf("  %s:", l) + "\n")
		}

		prefix := "        "
		if targeted[i] {
			prefix = labelStyle.Sprintf("%6d: ", i)
		}
		b.WriteString(prefix + instructionText(ins) + "\n")
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func instructionText(ins *gotoprog.Instruction) string {
	text := ins.Describe()
	if ins.IsGoto() {
		text = jumpStyle.Sprint(text) + " " + targetList(ins.Targets)
	}
	if ins.Kind == gotoprog.Catch && len(ins.Targets) > 0 {
		text += " " + targetList(ins.Targets)
	}
	return text
}

func targetList(targets []gotoprog.Target) string {
	parts := make([]string, len(targets))
	for i, t := range targets {
		parts[i] = fmt.Sprint(int(t))
	}
	return strings.Join(parts, ", ")
}

func location(ins *gotoprog.Instruction) string {
	if !ins.Location.IsValid() {
		return "<builtin>"
	}
	return fmt.Sprintf("%s:%d", filepath.Base(ins.Location.Filename), ins.Location.Line)
}

// Loops writes one line per backward goto of fn: the loop number, the
// jump and the loop head positions, and the source location.
func Loops(w io.Writer, fn *gotoprog.Function) error {
	var b strings.Builder
	b.WriteString(funcStyle.Sprintf("%s:", fn.Name) + "\n")
	loops := fn.Loops()
	if len(loops) == 0 {
		b.WriteString("  no loops\n")
	}
	for _, l := range loops {
		fmt.Fprintf(&b, "  Loop %d: %d -> %d at %s\n", l.Number, l.Back, l.Head, location(fn.Instructions[l.Back]))
	}
	_, err := io.WriteString(w, b.String())
	return err
}
