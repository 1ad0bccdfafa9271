package diag

import (
	"fmt"
	"go/ast"
	"go/token"
	"os"
	"reflect"
	"slices"

	"golang.org/x/tools/go/analysis"
)

// CategoryConversion marks analyzer diagnostics for code that does not
// lower at all. They become error issues; every other category is a
// warning.
const CategoryConversion = "conversion"

// RunAnalyzer runs a over the parsed files of one package and returns its
// diagnostics as issues ordered by position. Required analyzers run first
// and their results are handed over through the pass. Passes carry syntax
// only.
func RunAnalyzer(fset *token.FileSet, files []*ast.File, a *analysis.Analyzer) ([]Issue, error) {
	r := &analyzerRun{fset: fset, files: files, results: make(map[*analysis.Analyzer]any)}
	if err := r.run(a, true); err != nil {
		return nil, err
	}
	slices.SortStableFunc(r.issues, func(x, y Issue) int {
		if x.Start.Line != y.Start.Line {
			return x.Start.Line - y.Start.Line
		}
		return x.Start.Column - y.Start.Column
	})
	return r.issues, nil
}

type analyzerRun struct {
	fset    *token.FileSet
	files   []*ast.File
	results map[*analysis.Analyzer]any
	issues  []Issue
}

func (r *analyzerRun) run(a *analysis.Analyzer, report bool) error {
	if _, done := r.results[a]; done {
		return nil
	}
	deps := make(map[*analysis.Analyzer]any, len(a.Requires))
	for _, req := range a.Requires {
		if err := r.run(req, false); err != nil {
			return err
		}
		deps[req] = r.results[req]
	}

	pass := &analysis.Pass{
		Analyzer: a,
		Fset:     r.fset,
		Files:    r.files,
		ResultOf: deps,
		ReadFile: os.ReadFile,
		Report: func(d analysis.Diagnostic) {
			if report {
				r.issues = append(r.issues, r.issue(a, d))
			}
		},
	}
	res, err := a.Run(pass)
	if err != nil {
		return fmt.Errorf("analyzer %s: %w", a.Name, err)
	}
	if a.ResultType != nil && res != nil && reflect.TypeOf(res) != a.ResultType {
		return fmt.Errorf("analyzer %s returned %T, want %s", a.Name, res, a.ResultType)
	}
	r.results[a] = res
	return nil
}

func (r *analyzerRun) issue(a *analysis.Analyzer, d analysis.Diagnostic) Issue {
	start := r.fset.Position(d.Pos)
	end := start
	if d.End.IsValid() {
		end = r.fset.Position(d.End)
	}
	is := Issue{
		Rule:     d.Category,
		Category: d.Category,
		Severity: SeverityWarning,
		Filename: start.Filename,
		Message:  d.Message,
		Start:    start,
		End:      end,
	}
	if is.Rule == "" {
		is.Rule = a.Name
	}
	if d.Category == CategoryConversion {
		is.Severity = SeverityError
	}
	return is
}
