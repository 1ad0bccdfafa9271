package frontend

import (
	"errors"
	goast "go/ast"
	"go/token"

	"golang.org/x/tools/go/analysis"

	"github.com/gnoswap-labs/gotoconv/internal/config"
	"github.com/gnoswap-labs/gotoconv/internal/convert"
	"github.com/gnoswap-labs/gotoconv/internal/diag"
)

// Analyzer reports the functions of a file that cannot be lowered, and the
// constructs the lowering had to approximate, under the default options.
var Analyzer = NewAnalyzer(nil)

// NewAnalyzer returns an analyzer that lowers with a copy of opts. The copy
// is taken per pass, so k-induction turned off while checking one package
// stays off only for that package.
func NewAnalyzer(opts *config.Options) *analysis.Analyzer {
	return &analysis.Analyzer{
		Name: "gotoconv",
		Doc:  "Checks that every function lowers to a GOTO program",
		Run: func(pass *analysis.Pass) (interface{}, error) {
			return runAnalyzer(pass, copyOptions(opts))
		},
	}
}

func copyOptions(opts *config.Options) *config.Options {
	out := config.NewOptions()
	if opts == nil {
		return out
	}
	for k, v := range opts.Snapshot() {
		out.Set(k, v)
	}
	return out
}

// passSink forwards warnings to the pass as diagnostics.
type passSink struct {
	pass *analysis.Pass
	file *goast.File
}

func (s passSink) Warn(pos token.Position, rule, msg string) {
	s.pass.Report(analysis.Diagnostic{
		Pos:      lineCol(s.pass.Fset, s.file, pos),
		Category: rule,
		Message:  msg,
	})
}

func runAnalyzer(pass *analysis.Pass, opts *config.Options) (interface{}, error) {
	for _, file := range pass.Files {
		sink := passSink{pass: pass, file: file}

		out, err := Translate(pass.Fset, file, Options{Sink: sink})
		if err != nil {
			reportError(pass, file, err)
			continue
		}

		conv := convert.New(convert.Config{
			Table:   out.Table,
			Options: opts,
			Sink:    sink,
			Module:  out.Package,
		})
		for _, fn := range out.Functions {
			if _, err := conv.ConvertFunction(fn.Name, fn.Body, fn.ReturnsValue); err != nil {
				reportError(pass, file, err)
			}
		}
	}
	return nil, nil
}

func reportError(pass *analysis.Pass, file *goast.File, err error) {
	pos := file.Pos()
	var de *diag.Error
	if errors.As(err, &de) {
		pos = lineCol(pass.Fset, file, de.Pos)
	}
	pass.Report(analysis.Diagnostic{
		Pos:      pos,
		Category: diag.CategoryConversion,
		Message:  err.Error(),
	})
}

// lineCol maps a resolved position back into the file set.
func lineCol(fset *token.FileSet, file *goast.File, p token.Position) token.Pos {
	tf := fset.File(file.Pos())
	if tf == nil || p.Line < 1 || p.Line > tf.LineCount() {
		return file.Pos()
	}
	pos := tf.LineStart(p.Line)
	if p.Column > 1 {
		pos += token.Pos(p.Column - 1)
	}
	return pos
}
