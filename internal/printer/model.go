package printer

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/gnoswap-labs/gotoconv/internal/diag"
	"github.com/gnoswap-labs/gotoconv/internal/gotoprog"
)

// Document is the machine readable form of a converted file.
type Document struct {
	File      string     `json:"file" yaml:"file"`
	Functions []Function `json:"functions" yaml:"functions"`
	Issues    []Issue    `json:"issues,omitempty" yaml:"issues,omitempty"`
}

type Function struct {
	Name         string        `json:"name" yaml:"name"`
	Loops        int           `json:"loops" yaml:"loops"`
	Instructions []Instruction `json:"instructions" yaml:"instructions"`
}

type Instruction struct {
	Index      int      `json:"index" yaml:"index"`
	Kind       string   `json:"kind" yaml:"kind"`
	Guard      string   `json:"guard,omitempty" yaml:"guard,omitempty"`
	Code       string   `json:"code,omitempty" yaml:"code,omitempty"`
	Targets    []int    `json:"targets,omitempty" yaml:"targets,omitempty,flow"`
	Labels     []string `json:"labels,omitempty" yaml:"labels,omitempty,flow"`
	Location   string   `json:"location,omitempty" yaml:"location,omitempty"`
	Loop       int      `json:"loop,omitempty" yaml:"loop,omitempty"`
	Property   string   `json:"property,omitempty" yaml:"property,omitempty"`
	Comment    string   `json:"comment,omitempty" yaml:"comment,omitempty"`
	Exceptions []string `json:"exceptions,omitempty" yaml:"exceptions,omitempty,flow"`
}

type Issue struct {
	Rule     string `json:"rule" yaml:"rule"`
	Severity string `json:"severity" yaml:"severity"`
	Location string `json:"location" yaml:"location"`
	Message  string `json:"message" yaml:"message"`
}

// Build assembles the document of a file.
func Build(file string, fns []*gotoprog.Function, issues []diag.Issue) Document {
	doc := Document{File: file}
	for _, fn := range fns {
		doc.Functions = append(doc.Functions, buildFunction(fn))
	}
	for _, is := range issues {
		doc.Issues = append(doc.Issues, Issue{
			Rule:     is.Rule,
			Severity: is.Severity.String(),
			Location: fmt.Sprintf("%s:%d:%d", is.Filename, is.Start.Line, is.Start.Column),
			Message:  is.Message,
		})
	}
	return doc
}

func buildFunction(fn *gotoprog.Function) Function {
	out := Function{Name: fn.Name, Loops: len(fn.Loops())}
	for i, ins := range fn.Instructions {
		m := Instruction{
			Index:      i,
			Kind:       ins.Kind.String(),
			Labels:     ins.Labels,
			Loop:       ins.LoopNumber,
			Property:   ins.Property,
			Comment:    ins.Comment,
			Exceptions: ins.ExceptionIDs,
		}
		if ins.Guard != nil {
			m.Guard = ins.Guard.String()
		}
		if ins.Code != nil {
			m.Code = ins.Code.String()
		}
		for _, t := range ins.Targets {
			m.Targets = append(m.Targets, int(t))
		}
		if ins.Location.IsValid() {
			m.Location = fmt.Sprintf("%s:%d", ins.Location.Filename, ins.Location.Line)
		}
		out.Instructions = append(out.Instructions, m)
	}
	return out
}

// WriteJSON writes a document, or a slice of them, as indented JSON.
func WriteJSON(w io.Writer, doc any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteYAML writes a document, or a slice of them, as YAML.
func WriteYAML(w io.Writer, doc any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
