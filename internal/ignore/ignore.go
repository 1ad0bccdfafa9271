// Package ignore reads //gotoconv:ignore directives and answers whether a
// warning at a given line is silenced.
//
// A directive may name rules after a colon:
//
//	//gotoconv:ignore:k-induction,frontend
//
// Without a list it silences every rule. Placed above the package clause it
// covers the whole file; trailing a statement it covers that statement; on
// its own line it covers the statement or function declaration that follows.
package ignore

import (
	"errors"
	"go/ast"
	"go/token"
	"strings"
)

const Prefix = "//gotoconv:ignore"

var errNotDirective = errors.New("not an ignore directive")

type scope struct {
	rules      map[string]bool
	start, end int
}

func (s scope) covers(line int, rule string) bool {
	if line < s.start || line > s.end {
		return false
	}
	return len(s.rules) == 0 || s.rules[rule]
}

// Set is the collection of directive scopes of one file.
type Set struct {
	filename string
	scopes   []scope
}

// Parse collects the directives of f. Malformed directives are skipped.
func Parse(fset *token.FileSet, f *ast.File) *Set {
	set := &Set{filename: fset.Position(f.Pos()).Filename}
	stmts := statementsByLine(fset, f)
	pkgLine := fset.Position(f.Package).Line

	for _, cg := range f.Comments {
		for _, c := range cg.List {
			rules, err := parseDirective(c.Text)
			if err != nil {
				continue
			}
			sc := scope{rules: rules}
			sc.start, sc.end = extent(fset, f, c, stmts, pkgLine)
			set.scopes = append(set.scopes, sc)
		}
	}
	return set
}

func parseDirective(text string) (map[string]bool, error) {
	rest, ok := strings.CutPrefix(text, Prefix)
	if !ok {
		return nil, errNotDirective
	}
	rules := make(map[string]bool)
	if strings.TrimSpace(rest) == "" {
		return rules, nil
	}
	list, ok := strings.CutPrefix(rest, ":")
	if !ok {
		return nil, errNotDirective
	}
	for _, r := range strings.Split(list, ",") {
		if r = strings.TrimSpace(r); r != "" {
			rules[r] = true
		}
	}
	if len(rules) == 0 {
		return nil, errors.New("empty rule list")
	}
	return rules, nil
}

func extent(fset *token.FileSet, f *ast.File, c *ast.Comment, stmts map[int]ast.Stmt, pkgLine int) (int, int) {
	pos := fset.Position(c.Slash)
	line := pos.Line

	if line < pkgLine {
		return 1, fset.Position(f.End()).Line
	}
	if stmt, ok := stmts[line]; ok && pos.Offset > fset.Position(stmt.Pos()).Offset {
		return fset.Position(stmt.Pos()).Line, fset.Position(stmt.End()).Line
	}
	if stmt, ok := stmts[line+1]; ok {
		return line, fset.Position(stmt.End()).Line
	}
	for _, decl := range f.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if ok && fset.Position(fd.Pos()).Line == line+1 {
			return line, fset.Position(fd.End()).Line
		}
	}
	return line, line
}

// statementsByLine maps each line to the first statement starting on it.
func statementsByLine(fset *token.FileSet, f *ast.File) map[int]ast.Stmt {
	out := make(map[int]ast.Stmt)
	ast.Inspect(f, func(n ast.Node) bool {
		if stmt, ok := n.(ast.Stmt); ok {
			line := fset.Position(stmt.Pos()).Line
			if _, seen := out[line]; !seen {
				out[line] = stmt
			}
		}
		return n != nil
	})
	return out
}

// Ignored reports whether a warning of rule at pos is silenced.
func (s *Set) Ignored(pos token.Position, rule string) bool {
	if s == nil || (pos.Filename != "" && pos.Filename != s.filename) {
		return false
	}
	for _, sc := range s.scopes {
		if sc.covers(pos.Line, rule) {
			return true
		}
	}
	return false
}

// Len returns the number of directives found.
func (s *Set) Len() int { return len(s.scopes) }
