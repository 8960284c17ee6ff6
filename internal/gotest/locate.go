package gotest

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"log/slog"
	"strings"

	"github.com/AndreyAkinshin/ontap/internal/project"
)

// Locator finds the declarations of test functions in a module's
// _test.go files. Results are cached per package.
type Locator struct {
	project *project.Project
	funcs   map[string]map[string]string // package -> function -> "file:line"
	dirs    map[string]string
}

// NewLocator creates a Locator for p. A nil project locates nothing.
func NewLocator(p *project.Project) *Locator {
	return &Locator{
		project: p,
		funcs:   make(map[string]map[string]string),
		dirs:    make(map[string]string),
	}
}

// Dir returns the directory of pkg, or "" when it is not part of the module.
func (l *Locator) Dir(pkg string) string {
	if l.project == nil || pkg == "" {
		return ""
	}
	if dir, ok := l.dirs[pkg]; ok {
		return dir
	}
	dir, err := l.project.PackageDir(pkg)
	if err != nil {
		slog.Debug("package directory not found", "package", pkg, "error", err)
		dir = ""
	}
	l.dirs[pkg] = dir
	return dir
}

// Find returns "file:line" of the top-level function running test, which
// may name a subtest ("TestFoo/case"). It returns "" when not found.
func (l *Locator) Find(pkg, test string) string {
	name, _, _ := strings.Cut(test, "/")
	funcs, ok := l.funcs[pkg]
	if !ok {
		funcs = l.scan(pkg)
		l.funcs[pkg] = funcs
	}
	return funcs[name]
}

func (l *Locator) scan(pkg string) map[string]string {
	funcs := make(map[string]string)
	dir := l.Dir(pkg)
	if dir == "" {
		return funcs
	}
	files, err := project.TestFiles(dir)
	if err != nil {
		slog.Debug("cannot list test files", "package", pkg, "error", err)
		return funcs
	}

	fset := token.NewFileSet()
	for _, path := range files {
		f, err := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
		if err != nil {
			slog.Debug("cannot parse test file", "file", path, "error", err)
			continue
		}
		for _, decl := range f.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv != nil {
				continue
			}
			pos := fset.Position(fn.Pos())
			funcs[fn.Name.Name] = fmt.Sprintf("%s:%d", pos.Filename, pos.Line)
		}
	}
	return funcs
}
