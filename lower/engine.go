package lower

import (
	"errors"
	"fmt"
	goast "go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/gnoswap-labs/gotoconv/internal/config"
	"github.com/gnoswap-labs/gotoconv/internal/convert"
	"github.com/gnoswap-labs/gotoconv/internal/diag"
	"github.com/gnoswap-labs/gotoconv/internal/frontend"
	"github.com/gnoswap-labs/gotoconv/internal/gotoprog"
	"github.com/gnoswap-labs/gotoconv/internal/ignore"
)

// RuleConversion is the rule of issues raised by a function that failed to
// lower.
const RuleConversion = "conversion"

// Result is the outcome of converting one file.
type Result struct {
	File      string
	Package   string
	Functions []*gotoprog.Function
	Issues    []diag.Issue
}

// Function returns the converted function called name.
func (r *Result) Function(name string) (*gotoprog.Function, bool) {
	for _, fn := range r.Functions {
		if fn.Name == name {
			return fn, true
		}
	}
	return nil, false
}

// HasErrors reports whether a function of the file failed to lower.
func (r *Result) HasErrors() bool {
	for _, is := range r.Issues {
		if is.Severity == diag.SeverityError {
			return true
		}
	}
	return false
}

// Engine converts Go source files. Every file gets its own symbol table and
// converter; the option set is shared by all of them.
type Engine struct {
	rootDir string
	file    config.File
	opts    *config.Options
	logger  *zap.Logger

	mu           sync.RWMutex
	ignoredRules map[string]bool
}

// NewEngine creates an engine configured by file. Environment overrides are
// applied on top of the file's options.
func NewEngine(rootDir string, file config.File, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := config.NewOptions()
	file.Apply(opts)
	opts.ApplyEnv()

	return &Engine{
		rootDir:      rootDir,
		file:         file,
		opts:         opts,
		logger:       logger,
		ignoredRules: make(map[string]bool),
	}
}

// Options returns the option set shared by the conversions of this engine.
func (e *Engine) Options() *config.Options { return e.opts }

// IgnoreRule drops every issue raised under rule.
func (e *Engine) IgnoreRule(rule string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ignoredRules[rule] = true
}

// SelectFunctions restricts conversion to the named functions.
func (e *Engine) SelectFunctions(names ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.file.Functions = append([]string(nil), names...)
}

func (e *Engine) wants(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.file.Wants(name)
}

// Sequential reports whether files must be converted one at a time. With
// the base case or the inductive step on, the first file that turns
// k-induction off does so for every file converted after it, so the order
// has to be fixed for the output to be reproducible.
func (e *Engine) Sequential() bool {
	return e.opts.Bool(config.InductiveStep) || e.opts.Bool(config.BaseCase)
}

// Run converts filename.
func (e *Engine) Run(filename string) (*Result, error) {
	return e.RunSource(filename, nil)
}

// RunSource converts src, read from filename when nil.
func (e *Engine) RunSource(filename string, src []byte) (*Result, error) {
	fset := token.NewFileSet()
	var source any
	if src != nil {
		source = src
	}
	node, err := parser.ParseFile(fset, filename, source, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", e.display(filename), err)
	}
	return e.convertFile(fset, node)
}

// Vet checks filename with the lowering analyzer. Only issues are
// returned; the engine's options are left untouched.
func (e *Engine) Vet(filename string) (*Result, error) {
	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, filename, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", e.display(filename), err)
	}
	issues, err := diag.RunAnalyzer(fset, []*goast.File{node}, frontend.NewAnalyzer(e.opts))
	if err != nil {
		return nil, err
	}

	res := &Result{
		File:    filename,
		Package: node.Name.Name,
		Issues:  e.filter(ignore.Parse(fset, node), issues),
	}
	e.logger.Info("vetted file",
		zap.String("file", e.display(filename)),
		zap.Int("issues", len(res.Issues)),
	)
	return res, nil
}

func (e *Engine) convertFile(fset *token.FileSet, node *goast.File) (*Result, error) {
	sink := diag.NewZapSink(e.logger)
	out, err := frontend.Translate(fset, node, frontend.Options{Sink: sink, Logger: e.logger})
	if err != nil {
		return nil, err
	}

	res := &Result{File: out.Filename, Package: out.Package}
	conv := convert.New(convert.Config{
		Table:   out.Table,
		Options: e.opts,
		Sink:    sink,
		Logger:  e.logger,
		Module:  out.Package,
	})

	var failed []diag.Issue
	for _, fn := range out.Functions {
		if !e.wants(fn.Name) {
			continue
		}
		g, err := conv.ConvertFunction(fn.Name, fn.Body, fn.ReturnsValue)
		if err != nil {
			var de *diag.Error
			if !errors.As(err, &de) {
				return nil, err
			}
			is := diag.IssueFromError(RuleConversion, de)
			is.Message = fn.Name + ": " + de.Msg
			if is.Filename == "" {
				is.Filename = out.Filename
				is.Start = fn.Pos
				is.End = fn.Pos
			}
			e.logger.Error("conversion failed",
				zap.String("file", out.Filename),
				zap.String("function", fn.Name),
				zap.Error(err),
			)
			failed = append(failed, is)
			continue
		}
		res.Functions = append(res.Functions, g)
	}

	res.Issues = e.filter(ignore.Parse(fset, node), append(sink.Issues(), failed...))
	e.logger.Info("converted file",
		zap.String("file", e.display(out.Filename)),
		zap.Int("functions", len(res.Functions)),
		zap.Int("issues", len(res.Issues)),
	)
	return res, nil
}

// filter drops issues of ignored rules and issues silenced by a directive.
// Fatal errors cannot be silenced.
func (e *Engine) filter(directives *ignore.Set, issues []diag.Issue) []diag.Issue {
	e.mu.RLock()
	defer e.mu.RUnlock()

	kept := make([]diag.Issue, 0, len(issues))
	for _, is := range issues {
		if is.Severity != diag.SeverityError {
			if e.ignoredRules[is.Rule] || directives.Ignored(is.Start, is.Rule) {
				continue
			}
		}
		kept = append(kept, is)
	}
	return kept
}

func (e *Engine) display(filename string) string {
	if e.rootDir == "" {
		return filename
	}
	if rel, err := filepath.Rel(e.rootDir, filename); err == nil {
		return rel
	}
	return filename
}
